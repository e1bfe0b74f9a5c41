// Package model defines the entities stored by the service and the typed
// projections the API returns.
//
// Entities mirror table rows. Projections (SpotListing, SpotDetail,
// SpotReview, ...) are the exact JSON shapes of responses, so handlers never
// reshape maps after a query.
package model

import "time"

// User is a registered account. HashedPassword never leaves the server.
//
// GitHubID is set only for accounts that signed in through GitHub; it is a
// pointer so the UNIQUE column can hold NULL for everyone else.
type User struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	GitHubID       *int64    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserSummary is the owner/author shape embedded in other responses.
type UserSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// SessionUser is what the session endpoints return for the signed-in user.
type SessionUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Session converts a full user row into its public session shape.
func (u *User) Session() *SessionUser {
	return &SessionUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
