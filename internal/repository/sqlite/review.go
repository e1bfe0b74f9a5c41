package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/repository"
)

var _ repository.ReviewRepository = (*ReviewDB)(nil)

// ReviewDB stores reviews and review images.
type ReviewDB struct {
	conn *sql.DB
}

var reviewColumns = []string{
	"id", "spot_id", "user_id", "review", "stars", "created_at", "updated_at",
}

var authorColumns = []string{"id", "first_name", "last_name"}

// Create inserts a review. A second review of the same spot by the same
// user surfaces as apperror.ErrConflict.
func (r *ReviewDB) Create(ctx context.Context, review *model.Review) error {
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO reviews (spot_id, user_id, review, stars, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		review.SpotID,
		review.UserID,
		review.Review,
		review.Stars,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("review", "spot_id, user_id")
		}
		return fmt.Errorf("sqlite: creating review: %w", err)
	}

	review.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading review id: %w", err)
	}
	return nil
}

func (r *ReviewDB) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	var review model.Review
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, spot_id, user_id, review, stars, created_at, updated_at
		 FROM reviews WHERE id = ?`,
		id,
	).Scan(reviewDest(&review)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Review")
		}
		return nil, fmt.Errorf("sqlite: getting review %d: %w", id, err)
	}
	return &review, nil
}

// Update rewrites the text and stars of a review.
func (r *ReviewDB) Update(ctx context.Context, review *model.Review) error {
	review.UpdatedAt = time.Now()

	res, err := r.conn.ExecContext(ctx,
		`UPDATE reviews SET review = ?, stars = ?, updated_at = ? WHERE id = ?`,
		review.Review, review.Stars, review.UpdatedAt, review.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating review %d: %w", review.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Review")
	}
	return nil
}

func (r *ReviewDB) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting review %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Review")
	}
	return nil
}

// ListBySpot returns every review of the spot with its author and images.
func (r *ReviewDB) ListBySpot(ctx context.Context, spotID int64) ([]model.SpotReview, error) {
	query, args, err := dialect.From(goqu.T("reviews").As("r")).
		Select(append(qualified("r", reviewColumns), qualified("u", authorColumns)...)...).
		InnerJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("r.user_id")))).
		Where(goqu.I("r.spot_id").Eq(spotID)).
		Order(goqu.I("r.id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building spot reviews query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews of spot %d: %w", spotID, err)
	}

	reviews := make([]model.SpotReview, 0)
	for rows.Next() {
		var sr model.SpotReview
		dest := append(reviewDest(&sr.Review), &sr.User.ID, &sr.User.FirstName, &sr.User.LastName)
		if err := rows.Scan(dest...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning review: %w", err)
		}
		reviews = append(reviews, sr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}
	// The image query needs the connection; in-memory databases only have one.
	rows.Close()

	ids := make([]int64, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}
	images, err := r.imagesByReview(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i].ReviewImages = imagesOrEmpty(images[reviews[i].ID])
	}
	return reviews, nil
}

// ListByUser returns every review written by the user, with the reviewed
// spot and the review images.
func (r *ReviewDB) ListByUser(ctx context.Context, userID int64) ([]model.UserReview, error) {
	cols := append(qualified("r", reviewColumns), qualified("u", authorColumns)...)
	cols = append(cols, qualified("s", spotSummaryColumns)...)
	cols = append(cols, previewImageQuery().As("preview_image"))

	query, args, err := dialect.From(goqu.T("reviews").As("r")).
		Select(cols...).
		InnerJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("r.user_id")))).
		InnerJoin(goqu.T("spots").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("r.spot_id")))).
		Where(goqu.I("r.user_id").Eq(userID)).
		Order(goqu.I("r.id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building user reviews query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews of user %d: %w", userID, err)
	}

	reviews := make([]model.UserReview, 0)
	for rows.Next() {
		var (
			ur      model.UserReview
			preview sql.NullString
		)
		dest := append(reviewDest(&ur.Review), &ur.User.ID, &ur.User.FirstName, &ur.User.LastName)
		dest = append(dest, spotSummaryDest(&ur.Spot, &preview)...)
		if err := rows.Scan(dest...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning review: %w", err)
		}
		ur.Spot.PreviewImage = nullableString(preview)
		reviews = append(reviews, ur)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}
	rows.Close()

	ids := make([]int64, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}
	images, err := r.imagesByReview(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i].ReviewImages = imagesOrEmpty(images[reviews[i].ID])
	}
	return reviews, nil
}

// imagesByReview loads the images of several reviews in one query.
func (r *ReviewDB) imagesByReview(ctx context.Context, reviewIDs []int64) (map[int64][]model.ReviewImageSummary, error) {
	out := make(map[int64][]model.ReviewImageSummary, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return out, nil
	}

	query, args, err := dialect.From("review_images").
		Select("id", "review_id", "url").
		Where(goqu.Ex{"review_id": reviewIDs}).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building review images query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing review images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			img      model.ReviewImageSummary
			reviewID int64
		)
		if err := rows.Scan(&img.ID, &reviewID, &img.URL); err != nil {
			return nil, fmt.Errorf("sqlite: scanning review image: %w", err)
		}
		out[reviewID] = append(out[reviewID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating review images: %w", err)
	}
	return out, nil
}

func (r *ReviewDB) CountImages(ctx context.Context, reviewID int64) (int, error) {
	var n int
	err := r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM review_images WHERE review_id = ?`, reviewID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting images of review %d: %w", reviewID, err)
	}
	return n, nil
}

func (r *ReviewDB) AddImage(ctx context.Context, image *model.ReviewImage) error {
	now := time.Now()
	image.CreatedAt = now
	image.UpdatedAt = now

	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO review_images (review_id, url, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		image.ReviewID, image.URL, image.CreatedAt, image.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding image to review %d: %w", image.ReviewID, err)
	}

	image.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading review image id: %w", err)
	}
	return nil
}

func reviewDest(r *model.Review) []interface{} {
	return []interface{}{
		&r.ID, &r.SpotID, &r.UserID, &r.Review, &r.Stars, &r.CreatedAt, &r.UpdatedAt,
	}
}

// imagesOrEmpty keeps the JSON an empty array instead of null.
func imagesOrEmpty(images []model.ReviewImageSummary) []model.ReviewImageSummary {
	if images == nil {
		return []model.ReviewImageSummary{}
	}
	return images
}
