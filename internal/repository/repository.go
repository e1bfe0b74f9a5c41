// Package repository declares one storage interface per entity.
//
// Services depend on these interfaces only; the sqlite package provides the
// implementation and the service tests provide in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/rental-spots/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SpotFilter narrows the spot listing. A zero OwnerID lists every spot.
type SpotFilter struct {
	OwnerID int64
	ListOptions
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	LinkGitHub(ctx context.Context, userID, githubID int64) error
}

type SpotRepository interface {
	Create(ctx context.Context, spot *model.Spot) error
	GetByID(ctx context.Context, id int64) (*model.Spot, error)
	Update(ctx context.Context, spot *model.Spot) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter SpotFilter) ([]model.SpotListing, error)
	GetDetail(ctx context.Context, id int64) (*model.SpotDetail, error)
	AddImage(ctx context.Context, image *model.SpotImage) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id int64) error
	ListBySpot(ctx context.Context, spotID int64) ([]model.SpotReview, error)
	ListByUser(ctx context.Context, userID int64) ([]model.UserReview, error)
	CountImages(ctx context.Context, reviewID int64) (int, error)
	AddImage(ctx context.Context, image *model.ReviewImage) error
}

type BookingRepository interface {
	// Create stores the booking, or returns apperror.ErrConflict when
	// another booking of the spot intersects its inclusive date range.
	Create(ctx context.Context, booking *model.Booking) error
	ListBySpotForOwner(ctx context.Context, spotID int64) ([]model.BookingOwnerView, error)
	ListBySpotPublic(ctx context.Context, spotID int64) ([]model.BookingPublicView, error)
	ListByUser(ctx context.Context, userID int64) ([]model.UserBooking, error)
}
