package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory repositories. Each one behaves like the SQLite store for the
// paths the services use: NotFound for missing rows, Conflict for a
// duplicate key.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// ---- users ----

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// set to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("User")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("User")
}

func (f *fakeUserRepo) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	for _, u := range f.users {
		if u.GitHubID != nil && *u.GitHubID == githubID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("User")
}

func (f *fakeUserRepo) LinkGitHub(ctx context.Context, userID, githubID int64) error {
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("User")
	}
	id := githubID
	u.GitHubID = &id
	return nil
}

// ---- spots ----

type fakeSpotRepo struct {
	spots     map[int64]*model.Spot
	images    map[int64][]model.SpotImage
	nextID    int64
	listCalls int
	// onList runs inside List, standing in for a write that lands while
	// the listing query is in flight.
	onList func()
}

func newFakeSpotRepo() *fakeSpotRepo {
	return &fakeSpotRepo{
		spots:  make(map[int64]*model.Spot),
		images: make(map[int64][]model.SpotImage),
		nextID: 1,
	}
}

// seed stores a spot owned by ownerID and returns its id.
func (f *fakeSpotRepo) seed(ownerID int64) int64 {
	spot := &model.Spot{
		OwnerID: ownerID,
		Address: "123 Disney Lane",
		City:    "San Francisco",
		State:   "California",
		Country: "United States of America",
		Lat:     37.7645358,
		Lng:     -122.4730327,
		Name:    "App Academy",
		Price:   123,
	}
	_ = f.Create(context.Background(), spot)
	return spot.ID
}

func (f *fakeSpotRepo) Create(ctx context.Context, spot *model.Spot) error {
	spot.ID = f.nextID
	f.nextID++
	spot.CreatedAt = time.Now()
	spot.UpdatedAt = spot.CreatedAt
	copied := *spot
	f.spots[spot.ID] = &copied
	return nil
}

func (f *fakeSpotRepo) GetByID(ctx context.Context, id int64) (*model.Spot, error) {
	s, ok := f.spots[id]
	if !ok {
		return nil, apperror.NotFound("Spot")
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSpotRepo) Update(ctx context.Context, spot *model.Spot) error {
	if _, ok := f.spots[spot.ID]; !ok {
		return apperror.NotFound("Spot")
	}
	copied := *spot
	f.spots[spot.ID] = &copied
	return nil
}

func (f *fakeSpotRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.spots[id]; !ok {
		return apperror.NotFound("Spot")
	}
	delete(f.spots, id)
	delete(f.images, id)
	return nil
}

func (f *fakeSpotRepo) List(ctx context.Context, filter repository.SpotFilter) ([]model.SpotListing, error) {
	f.listCalls++
	if f.onList != nil {
		f.onList()
	}

	ids := make([]int64, 0, len(f.spots))
	for id, s := range f.spots {
		if filter.OwnerID != 0 && s.OwnerID != filter.OwnerID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if filter.Offset > 0 {
		if filter.Offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(ids) > filter.Limit {
		ids = ids[:filter.Limit]
	}

	out := make([]model.SpotListing, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.SpotListing{Spot: *f.spots[id]})
	}
	return out, nil
}

func (f *fakeSpotRepo) GetDetail(ctx context.Context, id int64) (*model.SpotDetail, error) {
	s, ok := f.spots[id]
	if !ok {
		return nil, apperror.NotFound("Spot")
	}
	d := &model.SpotDetail{Spot: *s, SpotImages: []model.SpotImageSummary{}}
	for i := range f.images[id] {
		d.SpotImages = append(d.SpotImages, f.images[id][i].Summary())
	}
	return d, nil
}

func (f *fakeSpotRepo) AddImage(ctx context.Context, image *model.SpotImage) error {
	image.ID = int64(len(f.images[image.SpotID]) + 1)
	f.images[image.SpotID] = append(f.images[image.SpotID], *image)
	return nil
}

// ---- reviews ----

type fakeReviewRepo struct {
	reviews map[int64]*model.Review
	images  map[int64][]model.ReviewImage
	nextID  int64
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{
		reviews: make(map[int64]*model.Review),
		images:  make(map[int64][]model.ReviewImage),
		nextID:  1,
	}
}

func (f *fakeReviewRepo) Create(ctx context.Context, review *model.Review) error {
	for _, r := range f.reviews {
		if r.SpotID == review.SpotID && r.UserID == review.UserID {
			return apperror.Conflict("review", "spot_id, user_id")
		}
	}
	review.ID = f.nextID
	f.nextID++
	copied := *review
	f.reviews[review.ID] = &copied
	return nil
}

func (f *fakeReviewRepo) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, apperror.NotFound("Review")
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReviewRepo) Update(ctx context.Context, review *model.Review) error {
	if _, ok := f.reviews[review.ID]; !ok {
		return apperror.NotFound("Review")
	}
	copied := *review
	f.reviews[review.ID] = &copied
	return nil
}

func (f *fakeReviewRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.reviews[id]; !ok {
		return apperror.NotFound("Review")
	}
	delete(f.reviews, id)
	delete(f.images, id)
	return nil
}

func (f *fakeReviewRepo) ListBySpot(ctx context.Context, spotID int64) ([]model.SpotReview, error) {
	out := make([]model.SpotReview, 0)
	for _, r := range f.reviews {
		if r.SpotID == spotID {
			out = append(out, model.SpotReview{Review: *r, ReviewImages: []model.ReviewImageSummary{}})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReviewRepo) ListByUser(ctx context.Context, userID int64) ([]model.UserReview, error) {
	out := make([]model.UserReview, 0)
	for _, r := range f.reviews {
		if r.UserID == userID {
			out = append(out, model.UserReview{Review: *r, ReviewImages: []model.ReviewImageSummary{}})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReviewRepo) CountImages(ctx context.Context, reviewID int64) (int, error) {
	return len(f.images[reviewID]), nil
}

func (f *fakeReviewRepo) AddImage(ctx context.Context, image *model.ReviewImage) error {
	image.ID = int64(len(f.images[image.ReviewID]) + 1)
	f.images[image.ReviewID] = append(f.images[image.ReviewID], *image)
	return nil
}

// ---- bookings ----

type fakeBookingRepo struct {
	bookings []model.Booking
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	for _, b := range f.bookings {
		if b.SpotID == booking.SpotID && b.StartDate <= booking.EndDate && b.EndDate >= booking.StartDate {
			return apperror.Conflict("booking", "spot_id, start_date, end_date")
		}
	}
	booking.ID = int64(len(f.bookings) + 1)
	f.bookings = append(f.bookings, *booking)
	return nil
}

func (f *fakeBookingRepo) ListBySpotForOwner(ctx context.Context, spotID int64) ([]model.BookingOwnerView, error) {
	out := make([]model.BookingOwnerView, 0)
	for _, b := range f.bookings {
		if b.SpotID == spotID {
			out = append(out, model.BookingOwnerView{
				Booking: b,
				User:    model.UserSummary{ID: b.UserID},
			})
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListBySpotPublic(ctx context.Context, spotID int64) ([]model.BookingPublicView, error) {
	out := make([]model.BookingPublicView, 0)
	for _, b := range f.bookings {
		if b.SpotID == spotID {
			out = append(out, model.BookingPublicView{SpotID: b.SpotID, StartDate: b.StartDate, EndDate: b.EndDate})
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListByUser(ctx context.Context, userID int64) ([]model.UserBooking, error) {
	out := make([]model.UserBooking, 0)
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, model.UserBooking{Booking: b})
		}
	}
	return out, nil
}

// ---- listing cache ----

type fakeCache struct {
	gen           int64
	pages         map[[3]int64][]model.SpotListing
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: make(map[[3]int64][]model.SpotListing)}
}

func (c *fakeCache) Generation(ctx context.Context) (int64, error) {
	return c.gen, nil
}

func (c *fakeCache) GetListing(ctx context.Context, gen int64, page, size int) ([]model.SpotListing, bool, error) {
	spots, ok := c.pages[[3]int64{gen, int64(page), int64(size)}]
	return spots, ok, nil
}

func (c *fakeCache) SetListing(ctx context.Context, gen int64, page, size int, spots []model.SpotListing) error {
	c.pages[[3]int64{gen, int64(page), int64(size)}] = spots
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	c.gen++
	return nil
}

// ---- uploader ----

type fakeUploader struct {
	uploads []string
}

func (u *fakeUploader) UploadSpotImage(ctx context.Context, spotID int64, fileName, contentType string, r io.Reader, size int64) (string, error) {
	u.uploads = append(u.uploads, fileName)
	return "http://images.test/spots/" + fileName, nil
}

func newUser(first, last, email string) *model.User {
	return &model.User{FirstName: first, LastName: last, Email: email}
}
