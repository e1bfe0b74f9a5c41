package handler

import (
	"net/http"

	"github.com/sakif/rental-spots/internal/service"
)

// ReviewHandler serves reviews, both under /api/spots/{spotId}/reviews and
// under /api/reviews.
type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// SpotReviewsResponse is the GET /api/spots/{spotId}/reviews body. Message
// is only set when the spot has no reviews.
type SpotReviewsResponse struct {
	Reviews interface{} `json:"Reviews"`
	Message string      `json:"message,omitempty"`
}

// ListForSpot returns the reviews of a spot.
//
// HTTP: GET /api/spots/{spotId}/reviews
func (h *ReviewHandler) ListForSpot(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", "Spot")
	if err != nil {
		writeError(w, err)
		return
	}

	reviews, err := h.reviews.ListForSpot(r.Context(), spotID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := SpotReviewsResponse{Reviews: reviews}
	if len(reviews) == 0 {
		resp.Message = "This Spot does not have any reviews yet"
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCurrent returns the reviews the caller wrote.
//
// HTTP: GET /api/reviews/current
// Auth: Required
func (h *ReviewHandler) ListCurrent(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reviews, err := h.reviews.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SpotReviewsResponse{Reviews: reviews})
}

// Create adds the caller's review of a spot.
//
// HTTP: POST /api/spots/{spotId}/reviews
// Auth: Required
// REQUEST BODY: {"review": "...", "stars": 5}
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var in service.ReviewInput
	if err := decode(r, &in, service.ReviewMessages); err != nil {
		writeError(w, err)
		return
	}

	review, err := h.reviews.Create(r.Context(), userID, spotID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// Update rewrites a review the caller wrote.
//
// HTTP: PUT /api/reviews/{reviewId}
// Auth: Author
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reviewID, err := pathID(r, "reviewId", "Review")
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.ReviewInput
	if err := decode(r, &in, service.ReviewMessages); err != nil {
		writeError(w, err)
		return
	}

	review, err := h.reviews.Update(r.Context(), userID, reviewID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// Delete removes a review the caller wrote.
//
// HTTP: DELETE /api/reviews/{reviewId}
// Auth: Author
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reviewID, err := pathID(r, "reviewId", "Review")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.reviews.Delete(r.Context(), userID, reviewID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Successfully deleted"})
}

// AddImage attaches an image URL to a review the caller wrote.
//
// HTTP: POST /api/reviews/{reviewId}/images
// Auth: Author
// REQUEST BODY: {"url": "https://..."}
func (h *ReviewHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reviewID, err := pathID(r, "reviewId", "Review")
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.ReviewImageInput
	if err := decode(r, &in, service.ReviewImageMessages); err != nil {
		writeError(w, err)
		return
	}

	image, err := h.reviews.AddImage(r.Context(), userID, reviewID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}
