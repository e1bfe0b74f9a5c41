package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/service"
)

// SpotHandler serves /api/spots.
//
// HANDLER RESPONSIBILITIES:
//   - List, Get          → public listing and detail
//   - ListCurrent        → the caller's own spots
//   - Create/Update/Delete → owner-gated writes
//   - AddImage, UploadImage → attach images by URL or by file upload
type SpotHandler struct {
	spots         *service.SpotService
	maxUploadSize int64
	logger        *slog.Logger
}

func NewSpotHandler(spots *service.SpotService, maxUploadSize int64, logger *slog.Logger) *SpotHandler {
	return &SpotHandler{
		spots:         spots,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// SpotsResponse wraps spot lists: {"Spots": [...]}.
type SpotsResponse struct {
	Spots []model.SpotListing `json:"Spots"`
}

// List returns one page of spots.
//
// HTTP: GET /api/spots?page=1&size=20
func (h *SpotHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", service.DefaultPage)
	size := queryInt(r, "size", service.DefaultPageSize)

	result, err := h.spots.List(r.Context(), page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListCurrent returns the caller's spots, or a message when there are none.
//
// HTTP: GET /api/spots/current
// Auth: Required
func (h *SpotHandler) ListCurrent(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	spots, owner, err := h.spots.ListOwned(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if owner != nil {
		writeJSON(w, http.StatusOK, MessageResponse{
			Message: fmt.Sprintf("%s %s does not currently have any listed Spots", owner.FirstName, owner.LastName),
		})
		return
	}
	writeJSON(w, http.StatusOK, SpotsResponse{Spots: spots})
}

// Get returns one spot with its owner, images and review aggregates.
//
// HTTP: GET /api/spots/{spotId}
func (h *SpotHandler) Get(w http.ResponseWriter, r *http.Request) {
	spotID, err := pathID(r, "spotId", "Spot")
	if err != nil {
		writeError(w, err)
		return
	}

	spot, err := h.spots.Get(r.Context(), spotID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

// Create lists a new spot owned by the caller.
//
// HTTP: POST /api/spots
// Auth: Required
// REQUEST BODY: {"address","city","state","country","lat","lng","name","description","price"}
func (h *SpotHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.SpotInput
	if err := decode(r, &in, service.SpotMessages); err != nil {
		writeError(w, err)
		return
	}

	spot, err := h.spots.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, spot)
}

// Update replaces the fields of a spot the caller owns.
//
// HTTP: PUT /api/spots/{spotId}
// Auth: Owner
func (h *SpotHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var in service.SpotInput
	if err := decode(r, &in, service.SpotMessages); err != nil {
		writeError(w, err)
		return
	}

	spot, err := h.spots.Update(r.Context(), userID, spotID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

// Delete removes a spot the caller owns.
//
// HTTP: DELETE /api/spots/{spotId}
// Auth: Owner
func (h *SpotHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.spots.Delete(r.Context(), userID, spotID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Successfully deleted"})
}

// AddImage attaches an image URL to a spot the caller owns.
//
// HTTP: POST /api/spots/{spotId}/images
// Auth: Owner
// REQUEST BODY: {"url": "https://...", "preview": true}
func (h *SpotHandler) AddImage(w http.ResponseWriter, r *http.Request) {
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

	var in service.SpotImageInput
	if err := decode(r, &in, service.SpotImageMessages); err != nil {
		writeError(w, err)
		return
	}

	image, err := h.spots.AddImage(r.Context(), userID, spotID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

// UploadImage stores an uploaded file and attaches it to a spot the caller
// owns. Only routed when object storage is configured.
//
// HTTP: POST /api/spots/{spotId}/images/upload
// Auth: Owner
// REQUEST BODY: multipart/form-data with an "image" file and an optional
// "preview" field ("true"/"false").
func (h *SpotHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
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

	// MaxBytesReader makes the parse below fail instead of reading an
	// unbounded body.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.logger.Warn("spot image upload rejected",
			slog.Int64("spotID", spotID),
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperror.ValidationFailed("image", "Image is too large"))
			return
		}
		writeError(w, apperror.ValidationFailed("image", "Image file is required"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.logger.Warn("spot image upload rejected",
			slog.Int64("spotID", spotID),
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, apperror.ValidationFailed("image", "Image file is required"))
		return
	}
	defer file.Close()

	preview, _ := strconv.ParseBool(r.FormValue("preview"))

	image, err := h.spots.UploadImage(r.Context(), userID, spotID, service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, preview)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

// queryInt reads an integer query parameter. An absent parameter gets def;
// a malformed one becomes 0, which the service rejects with a field message.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
