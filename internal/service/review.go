package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/repository"
	"github.com/sakif/rental-spots/internal/validation"
)

// ReviewService manages reviews and review images.
type ReviewService struct {
	reviews repository.ReviewRepository
	spots   repository.SpotRepository
	cache   ListingCache
	logger  *slog.Logger
}

func NewReviewService(reviews repository.ReviewRepository, spots repository.SpotRepository, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		spots:   spots,
		logger:  logger,
	}
}

// UseCache lets review writes invalidate cached listing pages, which show
// average ratings.
func (s *ReviewService) UseCache(c ListingCache) {
	s.cache = c
}

// ReviewInput is the body of POST /spots/{id}/reviews and PUT /reviews/{id}.
type ReviewInput struct {
	Review string `json:"review" validate:"required"`
	Stars  int    `json:"stars" validate:"required,min=1,max=5"`
}

var ReviewMessages = validation.Messages{
	"review": "Review text is required",
	"stars":  "Stars must be an integer from 1 to 5",
}

// ReviewImageInput is the body of POST /reviews/{id}/images.
type ReviewImageInput struct {
	URL string `json:"url" validate:"required,url"`
}

var ReviewImageMessages = validation.Messages{
	"url": "Image url must be a valid URL",
}

// ListForSpot returns the reviews of an existing spot.
func (s *ReviewService) ListForSpot(ctx context.Context, spotID int64) ([]model.SpotReview, error) {
	if _, err := s.spots.GetByID(ctx, spotID); err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListBySpot(ctx, spotID)
	if err != nil {
		return nil, fmt.Errorf("service/review: listing reviews of spot %d: %w", spotID, err)
	}
	return reviews, nil
}

func (s *ReviewService) ListForUser(ctx context.Context, userID int64) ([]model.UserReview, error) {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/review: listing reviews of user %d: %w", userID, err)
	}
	return reviews, nil
}

// Create adds the caller's review of a spot. A user reviews a spot at most
// once; the UNIQUE(spot_id, user_id) constraint decides, so two concurrent
// requests can't both succeed.
func (s *ReviewService) Create(ctx context.Context, userID, spotID int64, in ReviewInput) (*model.Review, error) {
	in.Review = strings.TrimSpace(in.Review)
	if err := validate.Struct(in, ReviewMessages); err != nil {
		return nil, err
	}

	if _, err := s.spots.GetByID(ctx, spotID); err != nil {
		return nil, err
	}

	review := &model.Review{
		SpotID: spotID,
		UserID: userID,
		Review: in.Review,
		Stars:  in.Stars,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Forbidden("User already has a review for this spot")
		}
		return nil, fmt.Errorf("service/review: creating review: %w", err)
	}

	s.logger.Info("review created",
		slog.Int64("reviewID", review.ID),
		slog.Int64("spotID", spotID),
		slog.Int64("userID", userID),
	)
	s.invalidate(ctx)
	return review, nil
}

// Update rewrites a review the caller wrote.
func (s *ReviewService) Update(ctx context.Context, callerID, reviewID int64, in ReviewInput) (*model.Review, error) {
	in.Review = strings.TrimSpace(in.Review)
	if err := validate.Struct(in, ReviewMessages); err != nil {
		return nil, err
	}

	review, err := s.authored(ctx, callerID, reviewID)
	if err != nil {
		return nil, err
	}

	review.Review = in.Review
	review.Stars = in.Stars
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("service/review: updating review %d: %w", reviewID, err)
	}

	s.logger.Info("review updated", slog.Int64("reviewID", reviewID))
	s.invalidate(ctx)
	return review, nil
}

// Delete removes a review the caller wrote, with its images.
func (s *ReviewService) Delete(ctx context.Context, callerID, reviewID int64) error {
	if _, err := s.authored(ctx, callerID, reviewID); err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("service/review: deleting review %d: %w", reviewID, err)
	}

	s.logger.Info("review deleted", slog.Int64("reviewID", reviewID))
	s.invalidate(ctx)
	return nil
}

// AddImage attaches an image to a review the caller wrote, up to
// MaxReviewImages per review.
func (s *ReviewService) AddImage(ctx context.Context, callerID, reviewID int64, in ReviewImageInput) (*model.ReviewImageSummary, error) {
	in.URL = strings.TrimSpace(in.URL)
	if err := validate.Struct(in, ReviewImageMessages); err != nil {
		return nil, err
	}

	if _, err := s.authored(ctx, callerID, reviewID); err != nil {
		return nil, err
	}

	n, err := s.reviews.CountImages(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("service/review: counting images of review %d: %w", reviewID, err)
	}
	if n >= MaxReviewImages {
		return nil, apperror.Forbidden("Maximum number of images for this resource was reached")
	}

	image := &model.ReviewImage{ReviewID: reviewID, URL: in.URL}
	if err := s.reviews.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("service/review: adding image to review %d: %w", reviewID, err)
	}

	s.logger.Info("review image added",
		slog.Int64("reviewID", reviewID),
		slog.Int64("imageID", image.ID),
	)
	return &model.ReviewImageSummary{ID: image.ID, URL: image.URL}, nil
}

// authored loads a review and checks the caller wrote it: 404 first, then 401.
func (s *ReviewService) authored(ctx context.Context, callerID, reviewID int64) (*model.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(review.UserID, callerID); err != nil {
		s.logger.Warn("review ownership check failed",
			slog.Int64("reviewID", reviewID),
			slog.Int64("callerID", callerID),
		)
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("listing cache invalidation failed", slog.String("error", err.Error()))
	}
}
