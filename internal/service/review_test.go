package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/rental-spots/internal/apperror"
)

func newTestReviewService() (*ReviewService, *fakeReviewRepo, *fakeSpotRepo) {
	reviews := newFakeReviewRepo()
	spots := newFakeSpotRepo()
	return NewReviewService(reviews, spots, testLogger()), reviews, spots
}

func TestReviewCreate(t *testing.T) {
	svc, reviews, spots := newTestReviewService()
	cache := newFakeCache()
	svc.UseCache(cache)
	spotID := spots.seed(1)

	review, err := svc.Create(context.Background(), 2, spotID, ReviewInput{Review: "Great stay", Stars: 5})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if review.SpotID != spotID || review.UserID != 2 {
		t.Errorf("review = %+v", review)
	}
	if cache.invalidations != 1 {
		t.Errorf("invalidations = %d, want 1", cache.invalidations)
	}

	// A second review by the same user is refused and not stored.
	_, err = svc.Create(context.Background(), 2, spotID, ReviewInput{Review: "Again", Stars: 1})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("duplicate Create() error = %v, want ErrForbidden", err)
	}
	if err.Error() != "User already has a review for this spot" {
		t.Errorf("message = %q", err.Error())
	}
	if len(reviews.reviews) != 1 {
		t.Errorf("reviews stored = %d, want 1", len(reviews.reviews))
	}
}

func TestReviewCreate_Errors(t *testing.T) {
	svc, _, spots := newTestReviewService()
	spotID := spots.seed(1)

	_, err := svc.Create(context.Background(), 2, 999, ReviewInput{Review: "ok", Stars: 3})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create(missing spot) error = %v, want ErrNotFound", err)
	}

	_, err = svc.Create(context.Background(), 2, spotID, ReviewInput{Review: " ", Stars: 6})
	fields := fieldMessages(t, err)
	if fields["review"] != "Review text is required" {
		t.Errorf("review message = %q", fields["review"])
	}
	if fields["stars"] != "Stars must be an integer from 1 to 5" {
		t.Errorf("stars message = %q", fields["stars"])
	}
}

func TestReviewListForSpot(t *testing.T) {
	svc, _, spots := newTestReviewService()
	spotID := spots.seed(1)

	list, err := svc.ListForSpot(context.Background(), spotID)
	if err != nil {
		t.Fatalf("ListForSpot() error = %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("ListForSpot() = %v, want empty non-nil", list)
	}

	if _, err := svc.ListForSpot(context.Background(), 999); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListForSpot(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReviewUpdateDelete_Ownership(t *testing.T) {
	svc, reviews, spots := newTestReviewService()
	spotID := spots.seed(1)
	review, err := svc.Create(context.Background(), 2, spotID, ReviewInput{Review: "Nice", Stars: 4})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	in := ReviewInput{Review: "Changed", Stars: 2}
	if _, err := svc.Update(context.Background(), 3, review.ID, in); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Update(non-author) error = %v, want ErrUnauthorized", err)
	}
	if reviews.reviews[review.ID].Review != "Nice" {
		t.Error("review changed by non-author")
	}
	if _, err := svc.Update(context.Background(), 2, 999, in); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update(missing) error = %v, want ErrNotFound", err)
	}

	updated, err := svc.Update(context.Background(), 2, review.ID, in)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Stars != 2 || reviews.reviews[review.ID].Review != "Changed" {
		t.Errorf("review = %+v", reviews.reviews[review.ID])
	}

	if err := svc.Delete(context.Background(), 3, review.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Delete(non-author) error = %v, want ErrUnauthorized", err)
	}
	if err := svc.Delete(context.Background(), 2, review.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(reviews.reviews) != 0 {
		t.Errorf("reviews stored = %d, want 0", len(reviews.reviews))
	}
}

func TestReviewAddImage_Limit(t *testing.T) {
	svc, reviews, spots := newTestReviewService()
	spotID := spots.seed(1)
	review, err := svc.Create(context.Background(), 2, spotID, ReviewInput{Review: "Nice", Stars: 4})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < MaxReviewImages; i++ {
		img, err := svc.AddImage(context.Background(), 2, review.ID, ReviewImageInput{URL: fmt.Sprintf("https://img.test/%d.png", i)})
		if err != nil {
			t.Fatalf("AddImage(%d) error = %v", i, err)
		}
		if img.ID == 0 || img.URL == "" {
			t.Errorf("AddImage(%d) = %+v", i, img)
		}
	}

	_, err = svc.AddImage(context.Background(), 2, review.ID, ReviewImageInput{URL: "https://img.test/11.png"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("AddImage(11th) error = %v, want ErrForbidden", err)
	}
	if err.Error() != "Maximum number of images for this resource was reached" {
		t.Errorf("message = %q", err.Error())
	}
	if n := len(reviews.images[review.ID]); n != MaxReviewImages {
		t.Errorf("images stored = %d, want %d", n, MaxReviewImages)
	}

	if _, err := svc.AddImage(context.Background(), 3, review.ID, ReviewImageInput{URL: "https://img.test/x.png"}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("AddImage(non-author) error = %v, want ErrUnauthorized", err)
	}
}
