package model

import "time"

// DateLayout is the calendar-date format of booking start and end dates.
const DateLayout = "2006-01-02"

// Booking reserves a spot between two calendar dates (YYYY-MM-DD).
type Booking struct {
	ID        int64     `json:"id"`
	SpotID    int64     `json:"spotId"`
	UserID    int64     `json:"userId"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingOwnerView is what the spot owner sees, renter included.
type BookingOwnerView struct {
	Booking
	User UserSummary `json:"User"`
}

// BookingPublicView is what everyone else sees. It has no renter or booking
// id fields at all, so nothing can leak through it.
type BookingPublicView struct {
	SpotID    int64  `json:"spotId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// UserBooking is one entry of GET /bookings/current.
type UserBooking struct {
	Booking
	Spot SpotSummary `json:"Spot"`
}
