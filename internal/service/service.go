// Package service holds the business rules of the rental API.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates input, checks ownership, enforces rules
//	Repository      → reads and writes rows
//
// Services take repository interfaces, never *sqlite.DB, so tests run them
// against in-memory fakes. They return apperror values and never import
// net/http; handler.writeError picks the status code.
//
// OWNERSHIP CHECKS:
// Every owner-gated mutation loads its target by primary key first. A
// missing target is NotFound (404). A target owned by someone else is
// Unauthorized (401) and nothing is written. Ids are int64 on both sides;
// the auth middleware converted the token subject once already.
package service

import (
	"context"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/validation"
)

// Paging of GET /spots.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MaxReviewImages is how many images one review may carry.
const MaxReviewImages = 10

// validate is shared by every service; validator.Validate is safe for
// concurrent use and caches struct metadata.
var validate = validation.New()

// ListingCache caches pages of the public spot listing. Implemented by
// cache.ListingCache; services run without one when Redis isn't configured.
// Pages are keyed by a generation that Invalidate advances.
type ListingCache interface {
	Generation(ctx context.Context) (int64, error)
	GetListing(ctx context.Context, gen int64, page, size int) ([]model.SpotListing, bool, error)
	SetListing(ctx context.Context, gen int64, page, size int, spots []model.SpotListing) error
	Invalidate(ctx context.Context) error
}

// requireOwner fails with 401 unless callerID owns the resource.
func requireOwner(ownerID, callerID int64) error {
	if ownerID != callerID {
		return apperror.Unauthorized("Unauthorized")
	}
	return nil
}
