package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/repository"
	"github.com/sakif/rental-spots/internal/validation"
)

// BookingService manages reservations of spots.
type BookingService struct {
	bookings repository.BookingRepository
	spots    repository.SpotRepository
	logger   *slog.Logger
}

func NewBookingService(bookings repository.BookingRepository, spots repository.SpotRepository, logger *slog.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		spots:    spots,
		logger:   logger,
	}
}

// BookingInput is the body of POST /spots/{id}/bookings. Dates are
// YYYY-MM-DD; the stay covers both days.
type BookingInput struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

var BookingMessages = validation.Messages{
	"startDate": "Start date must be a date in YYYY-MM-DD format",
	"endDate":   "End date must be a date in YYYY-MM-DD format",
}

// SpotBookings is the GET /spots/{id}/bookings result. Exactly one of the
// two slices is set, depending on whether the caller owns the spot.
type SpotBookings struct {
	Owner  []model.BookingOwnerView
	Public []model.BookingPublicView
}

// ListForSpot returns the bookings of a spot shaped for the caller: the
// owner sees renters, everyone else sees dates only.
func (s *BookingService) ListForSpot(ctx context.Context, callerID, spotID int64) (*SpotBookings, error) {
	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, err
	}

	if spot.OwnerID == callerID {
		full, err := s.bookings.ListBySpotForOwner(ctx, spotID)
		if err != nil {
			return nil, fmt.Errorf("service/booking: listing bookings of spot %d: %w", spotID, err)
		}
		return &SpotBookings{Owner: full}, nil
	}

	public, err := s.bookings.ListBySpotPublic(ctx, spotID)
	if err != nil {
		return nil, fmt.Errorf("service/booking: listing bookings of spot %d: %w", spotID, err)
	}
	return &SpotBookings{Public: public}, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]model.UserBooking, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/booking: listing bookings of user %d: %w", userID, err)
	}
	return bookings, nil
}

// Create books a spot for the caller.
//
// Rules, in order: valid dates (400), end not before start (400), spot
// exists (404), caller isn't the owner (403), no overlap with an existing
// booking (403). The overlap rule is enforced by the store as part of the
// insert.
func (s *BookingService) Create(ctx context.Context, userID, spotID int64, in BookingInput) (*model.Booking, error) {
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	if err := validate.Struct(in, BookingMessages); err != nil {
		return nil, err
	}

	// Both parse: the datetime rule above already checked the layout.
	start, _ := time.Parse(model.DateLayout, in.StartDate)
	end, _ := time.Parse(model.DateLayout, in.EndDate)
	if end.Before(start) {
		return nil, validation.Add(nil, "endDate", "endDate cannot come before startDate")
	}

	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.OwnerID == userID {
		return nil, apperror.Forbidden("Owners can't book their own spot")
	}

	booking := &model.Booking{
		SpotID:    spotID,
		UserID:    userID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Forbidden("Sorry, this spot is already booked for the specified dates")
		}
		return nil, fmt.Errorf("service/booking: creating booking: %w", err)
	}

	s.logger.Info("booking created",
		slog.Int64("bookingID", booking.ID),
		slog.Int64("spotID", spotID),
		slog.Int64("userID", userID),
		slog.String("startDate", in.StartDate),
		slog.String("endDate", in.EndDate),
	)
	return booking, nil
}
