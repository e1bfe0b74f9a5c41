package handler

import (
	"net/http"

	"github.com/sakif/rental-spots/internal/service"
)

// BookingHandler serves bookings under /api/spots/{spotId}/bookings and
// /api/bookings.
type BookingHandler struct {
	bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// BookingsResponse wraps booking lists: {"Bookings": [...]}.
type BookingsResponse struct {
	Bookings interface{} `json:"Bookings"`
}

// ListForSpot returns the bookings of a spot. The owner gets full rows with
// the renter; anyone else gets spotId and dates only.
//
// HTTP: GET /api/spots/{spotId}/bookings
// Auth: Required
func (h *BookingHandler) ListForSpot(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	spotID, err := pathID(r, "spotId", "Spot")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.bookings.ListForSpot(r.Context(), userID, spotID)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Owner != nil {
		writeJSON(w, http.StatusOK, BookingsResponse{Bookings: result.Owner})
		return
	}
	writeJSON(w, http.StatusOK, BookingsResponse{Bookings: result.Public})
}

// Create books a spot for the caller.
//
// HTTP: POST /api/spots/{spotId}/bookings
// Auth: Required
// REQUEST BODY: {"startDate": "2030-11-19", "endDate": "2030-11-20"}
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	spotID, err := pathID(r, "spotId", "Spot")
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.BookingInput
	if err := decode(r, &in, service.BookingMessages); err != nil {
		writeError(w, err)
		return
	}

	booking, err := h.bookings.Create(r.Context(), userID, spotID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// ListCurrent returns the caller's bookings with the booked spot.
//
// HTTP: GET /api/bookings/current
// Auth: Required
func (h *BookingHandler) ListCurrent(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	bookings, err := h.bookings.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookingsResponse{Bookings: bookings})
}
