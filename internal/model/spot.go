package model

import "time"

// Spot is a listed rental property.
type Spot struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SpotImage belongs to a Spot. Preview marks the listing thumbnail; more than
// one image may carry it, listings use the lowest id.
type SpotImage struct {
	ID        int64     `json:"id"`
	SpotID    int64     `json:"spotId"`
	URL       string    `json:"url"`
	Preview   bool      `json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SpotImageSummary is the {id, url, preview} image shape.
type SpotImageSummary struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Preview bool   `json:"preview"`
}

// Summary drops the timestamps and spot id.
func (i *SpotImage) Summary() SpotImageSummary {
	return SpotImageSummary{ID: i.ID, URL: i.URL, Preview: i.Preview}
}

// SpotListing is one row of GET /spots. AvgRating is nil when the spot has no
// reviews and PreviewImage is nil when no image is flagged as preview.
type SpotListing struct {
	Spot
	AvgRating    *float64 `json:"avgRating"`
	PreviewImage *string  `json:"previewImage"`
}

// SpotDetail is the GET /spots/{id} response.
type SpotDetail struct {
	Spot
	NumReviews    int64              `json:"numReviews"`
	AvgStarRating *float64           `json:"avgStarRating"`
	SpotImages    []SpotImageSummary `json:"SpotImages"`
	Owner         UserSummary        `json:"Owner"`
}

// SpotSummary is a spot without timestamps, flattened with its preview image.
// It is embedded in review and booking listings of the current user.
type SpotSummary struct {
	ID           int64   `json:"id"`
	OwnerID      int64   `json:"ownerId"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Country      string  `json:"country"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	PreviewImage *string `json:"previewImage"`
}
