package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/repository"
	"github.com/sakif/rental-spots/internal/validation"
)

// ImageUploader stores an uploaded file and returns its public URL.
// Implemented by storage.ImageStore.
type ImageUploader interface {
	UploadSpotImage(ctx context.Context, spotID int64, fileName, contentType string, r io.Reader, size int64) (string, error)
}

// SpotService manages listings and their images.
type SpotService struct {
	spots  repository.SpotRepository
	users  repository.UserRepository
	cache  ListingCache
	images ImageUploader
	logger *slog.Logger
}

func NewSpotService(spots repository.SpotRepository, users repository.UserRepository, logger *slog.Logger) *SpotService {
	return &SpotService{
		spots:  spots,
		users:  users,
		logger: logger,
	}
}

// UseCache turns on caching of GET /spots pages.
func (s *SpotService) UseCache(c ListingCache) {
	s.cache = c
}

// UseUploader turns on POST /spots/{id}/images/upload.
func (s *SpotService) UseUploader(u ImageUploader) {
	s.images = u
}

// SpotInput is the body of POST /spots and PUT /spots/{id}. The numbers
// are pointers so a missing field fails "required" while 0 stays a valid
// latitude.
type SpotInput struct {
	Address     string   `json:"address" validate:"required"`
	City        string   `json:"city" validate:"required"`
	State       string   `json:"state" validate:"required"`
	Country     string   `json:"country" validate:"required"`
	Lat         *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng         *float64 `json:"lng" validate:"required,min=-180,max=180"`
	Name        string   `json:"name" validate:"required,max=49"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gt=0"`
}

// SpotMessages are the per-field errors for SpotInput; the handler also
// uses them when a field has the wrong JSON type.
var SpotMessages = validation.Messages{
	"address":     "Street address is required",
	"city":        "City is required",
	"state":       "State is required",
	"country":     "Country is required",
	"lat":         "Latitude is not valid",
	"lng":         "Longitude is not valid",
	"name":        "Name must be less than 50 characters",
	"description": "Description is required",
	"price":       "Price per day is required",
}

func (in *SpotInput) normalize() {
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Country = strings.TrimSpace(in.Country)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

func (in *SpotInput) apply(spot *model.Spot) {
	spot.Address = in.Address
	spot.City = in.City
	spot.State = in.State
	spot.Country = in.Country
	spot.Lat = *in.Lat
	spot.Lng = *in.Lng
	spot.Name = in.Name
	spot.Description = in.Description
	spot.Price = *in.Price
}

// SpotImageInput is the body of POST /spots/{id}/images.
type SpotImageInput struct {
	URL     string `json:"url" validate:"required,url"`
	Preview bool   `json:"preview"`
}

var SpotImageMessages = validation.Messages{
	"url": "Image url must be a valid URL",
}

// Upload is one file from a multipart upload.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SpotPage is the GET /spots response.
type SpotPage struct {
	Spots []model.SpotListing `json:"Spots"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
}

// List returns one page of every spot. size above MaxPageSize is capped.
func (s *SpotService) List(ctx context.Context, page, size int) (*SpotPage, error) {
	fields := map[string]string{}
	if page < 1 {
		fields["page"] = "Page must be greater than or equal to 1"
	}
	if size < 1 {
		fields["size"] = "Size must be greater than or equal to 1"
	}
	if len(fields) > 0 {
		return nil, apperror.ValidationFailures(fields)
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	// The offset (page-1)*size has to fit in an int.
	if page > math.MaxInt/size {
		return nil, apperror.ValidationFailures(map[string]string{
			"page": fmt.Sprintf("Page must be at most %d", math.MaxInt/size),
		})
	}

	// The generation is read once so the page is stored under the
	// generation it was queried in, even if a write invalidates meanwhile.
	var (
		gen      int64
		useCache bool
	)
	if s.cache != nil {
		g, err := s.cache.Generation(ctx)
		if err != nil {
			s.logger.Warn("listing cache read failed", slog.String("error", err.Error()))
		} else {
			gen, useCache = g, true
		}
	}
	if useCache {
		spots, ok, err := s.cache.GetListing(ctx, gen, page, size)
		if err != nil {
			s.logger.Warn("listing cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return &SpotPage{Spots: spots, Page: page, Size: size}, nil
		}
	}

	spots, err := s.spots.List(ctx, repository.SpotFilter{
		ListOptions: repository.ListOptions{
			Limit:  size,
			Offset: (page - 1) * size,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("service/spot: listing spots: %w", err)
	}

	if useCache {
		if err := s.cache.SetListing(ctx, gen, page, size, spots); err != nil {
			s.logger.Warn("listing cache write failed", slog.String("error", err.Error()))
		}
	}

	return &SpotPage{Spots: spots, Page: page, Size: size}, nil
}

// ListOwned returns the caller's spots. The owner is returned too when the
// list is empty, for the "does not currently have any listed Spots" message.
func (s *SpotService) ListOwned(ctx context.Context, ownerID int64) ([]model.SpotListing, *model.User, error) {
	spots, err := s.spots.List(ctx, repository.SpotFilter{OwnerID: ownerID})
	if err != nil {
		return nil, nil, fmt.Errorf("service/spot: listing spots of user %d: %w", ownerID, err)
	}
	if len(spots) > 0 {
		return spots, nil, nil
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("service/spot: fetching owner %d: %w", ownerID, err)
	}
	return spots, owner, nil
}

func (s *SpotService) Get(ctx context.Context, spotID int64) (*model.SpotDetail, error) {
	return s.spots.GetDetail(ctx, spotID)
}

// Create lists a new spot owned by ownerID.
func (s *SpotService) Create(ctx context.Context, ownerID int64, in SpotInput) (*model.Spot, error) {
	in.normalize()
	if err := validate.Struct(in, SpotMessages); err != nil {
		return nil, err
	}

	spot := &model.Spot{OwnerID: ownerID}
	in.apply(spot)

	if err := s.spots.Create(ctx, spot); err != nil {
		return nil, fmt.Errorf("service/spot: creating spot: %w", err)
	}

	s.logger.Info("spot created",
		slog.Int64("spotID", spot.ID),
		slog.Int64("ownerID", ownerID),
	)
	s.invalidate(ctx)
	return spot, nil
}

// Update replaces every editable field of a spot the caller owns.
func (s *SpotService) Update(ctx context.Context, callerID, spotID int64, in SpotInput) (*model.Spot, error) {
	in.normalize()
	if err := validate.Struct(in, SpotMessages); err != nil {
		return nil, err
	}

	spot, err := s.owned(ctx, callerID, spotID)
	if err != nil {
		return nil, err
	}

	in.apply(spot)
	if err := s.spots.Update(ctx, spot); err != nil {
		return nil, fmt.Errorf("service/spot: updating spot %d: %w", spotID, err)
	}

	s.logger.Info("spot updated", slog.Int64("spotID", spotID))
	s.invalidate(ctx)
	return spot, nil
}

// Delete removes a spot the caller owns, along with its images, reviews
// and bookings.
func (s *SpotService) Delete(ctx context.Context, callerID, spotID int64) error {
	if _, err := s.owned(ctx, callerID, spotID); err != nil {
		return err
	}

	if err := s.spots.Delete(ctx, spotID); err != nil {
		return fmt.Errorf("service/spot: deleting spot %d: %w", spotID, err)
	}

	s.logger.Info("spot deleted", slog.Int64("spotID", spotID))
	s.invalidate(ctx)
	return nil
}

// AddImage attaches an image URL to a spot the caller owns.
func (s *SpotService) AddImage(ctx context.Context, callerID, spotID int64, in SpotImageInput) (*model.SpotImageSummary, error) {
	in.URL = strings.TrimSpace(in.URL)
	if err := validate.Struct(in, SpotImageMessages); err != nil {
		return nil, err
	}

	if _, err := s.owned(ctx, callerID, spotID); err != nil {
		return nil, err
	}

	return s.addImage(ctx, spotID, in.URL, in.Preview)
}

// UploadImage stores an uploaded file in object storage and attaches its
// URL to a spot the caller owns.
func (s *SpotService) UploadImage(ctx context.Context, callerID, spotID int64, up Upload, preview bool) (*model.SpotImageSummary, error) {
	if s.images == nil {
		return nil, fmt.Errorf("service/spot: image uploads are not configured")
	}

	if _, err := s.owned(ctx, callerID, spotID); err != nil {
		return nil, err
	}

	if !allowedImageType(up.ContentType) {
		return nil, apperror.ValidationFailed("image", "Image must be a JPEG, PNG, GIF or WebP file")
	}

	url, err := s.images.UploadSpotImage(ctx, spotID, up.FileName, up.ContentType, up.Body, up.Size)
	if err != nil {
		return nil, fmt.Errorf("service/spot: uploading image for spot %d: %w", spotID, err)
	}

	return s.addImage(ctx, spotID, url, preview)
}

func (s *SpotService) addImage(ctx context.Context, spotID int64, url string, preview bool) (*model.SpotImageSummary, error) {
	image := &model.SpotImage{SpotID: spotID, URL: url, Preview: preview}
	if err := s.spots.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("service/spot: adding image to spot %d: %w", spotID, err)
	}

	s.logger.Info("spot image added",
		slog.Int64("spotID", spotID),
		slog.Int64("imageID", image.ID),
		slog.Bool("preview", preview),
	)
	if preview {
		s.invalidate(ctx)
	}
	summary := image.Summary()
	return &summary, nil
}

// owned loads a spot and checks the caller owns it: 404 first, then 401.
func (s *SpotService) owned(ctx context.Context, callerID, spotID int64) (*model.Spot, error) {
	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(spot.OwnerID, callerID); err != nil {
		s.logger.Warn("spot ownership check failed",
			slog.Int64("spotID", spotID),
			slog.Int64("callerID", callerID),
		)
		return nil, err
	}
	return spot, nil
}

func (s *SpotService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("listing cache invalidation failed", slog.String("error", err.Error()))
	}
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func allowedImageType(contentType string) bool {
	return imageTypes[strings.ToLower(strings.TrimSpace(contentType))]
}
