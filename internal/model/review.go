package model

import "time"

// Review is a user's rating of a spot. A user may review a spot once.
type Review struct {
	ID        int64     `json:"id"`
	SpotID    int64     `json:"spotId"`
	UserID    int64     `json:"userId"`
	Review    string    `json:"review"`
	Stars     int       `json:"stars"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ReviewImage struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"reviewId"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ReviewImageSummary struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// SpotReview is one entry of GET /spots/{id}/reviews.
type SpotReview struct {
	Review
	User         UserSummary          `json:"User"`
	ReviewImages []ReviewImageSummary `json:"ReviewImages"`
}

// UserReview is one entry of GET /reviews/current.
type UserReview struct {
	Review
	User         UserSummary          `json:"User"`
	Spot         SpotSummary          `json:"Spot"`
	ReviewImages []ReviewImageSummary `json:"ReviewImages"`
}
