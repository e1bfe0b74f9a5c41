package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/rental-spots/internal/apperror"
)

func newTestBookingService() (*BookingService, *fakeBookingRepo, *fakeSpotRepo) {
	bookings := &fakeBookingRepo{}
	spots := newFakeSpotRepo()
	return NewBookingService(bookings, spots, testLogger()), bookings, spots
}

func TestBookingCreate(t *testing.T) {
	svc, bookings, spots := newTestBookingService()
	spotID := spots.seed(1)

	booking, err := svc.Create(context.Background(), 2, spotID, BookingInput{StartDate: "2030-11-19", EndDate: "2030-11-20"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if booking.UserID != 2 || booking.SpotID != spotID {
		t.Errorf("booking = %+v", booking)
	}
	if len(bookings.bookings) != 1 {
		t.Fatalf("bookings stored = %d, want 1", len(bookings.bookings))
	}

	tests := []struct {
		name    string
		userID  int64
		spotID  int64
		in      BookingInput
		wantErr error
		wantMsg string
	}{
		{"bad date format", 2, spotID, BookingInput{StartDate: "11/19/2030", EndDate: "2030-11-20"}, apperror.ErrValidation, ""},
		{"end before start", 2, spotID, BookingInput{StartDate: "2030-12-10", EndDate: "2030-12-09"}, apperror.ErrValidation, ""},
		{"missing spot", 2, 999, BookingInput{StartDate: "2030-12-01", EndDate: "2030-12-02"}, apperror.ErrNotFound, "Spot couldn't be found"},
		{"own spot", 1, spotID, BookingInput{StartDate: "2030-12-01", EndDate: "2030-12-02"}, apperror.ErrForbidden, ""},
		{"overlaps", 3, spotID, BookingInput{StartDate: "2030-11-20", EndDate: "2030-11-25"}, apperror.ErrForbidden, "Sorry, this spot is already booked for the specified dates"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.userID, tc.spotID, tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tc.wantErr)
			}
			if tc.wantMsg != "" && err.Error() != tc.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tc.wantMsg)
			}
		})
	}

	if len(bookings.bookings) != 1 {
		t.Errorf("bookings stored = %d, want 1", len(bookings.bookings))
	}

	// A single-day stay right after the existing booking is free.
	if _, err := svc.Create(context.Background(), 3, spotID, BookingInput{StartDate: "2030-11-21", EndDate: "2030-11-21"}); err != nil {
		t.Errorf("Create(adjacent) error = %v", err)
	}
}

func TestBookingListForSpot_ShapedByRole(t *testing.T) {
	svc, _, spots := newTestBookingService()
	spotID := spots.seed(1)
	if _, err := svc.Create(context.Background(), 2, spotID, BookingInput{StartDate: "2030-11-19", EndDate: "2030-11-20"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	owner, err := svc.ListForSpot(context.Background(), 1, spotID)
	if err != nil {
		t.Fatalf("ListForSpot(owner) error = %v", err)
	}
	if len(owner.Owner) != 1 || owner.Public != nil {
		t.Errorf("owner view = %+v", owner)
	}
	if owner.Owner[0].User.ID != 2 {
		t.Errorf("renter id = %d, want 2", owner.Owner[0].User.ID)
	}

	public, err := svc.ListForSpot(context.Background(), 3, spotID)
	if err != nil {
		t.Fatalf("ListForSpot(other) error = %v", err)
	}
	if len(public.Public) != 1 || public.Owner != nil {
		t.Errorf("public view = %+v", public)
	}

	if _, err := svc.ListForSpot(context.Background(), 1, 999); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListForSpot(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBookingListForUser(t *testing.T) {
	svc, _, spots := newTestBookingService()
	spotID := spots.seed(1)
	if _, err := svc.Create(context.Background(), 2, spotID, BookingInput{StartDate: "2030-11-19", EndDate: "2030-11-20"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	mine, err := svc.ListForUser(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("bookings = %d, want 1", len(mine))
	}

	none, err := svc.ListForUser(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListForUser(3) = %v, want empty non-nil", none)
	}
}
