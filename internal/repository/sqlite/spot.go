package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/repository"
)

var _ repository.SpotRepository = (*SpotDB)(nil)

// SpotDB stores spots and their images.
type SpotDB struct {
	conn *sql.DB
}

var spotColumns = []string{
	"id", "owner_id", "address", "city", "state", "country",
	"lat", "lng", "name", "description", "price", "created_at", "updated_at",
}

// spotSummaryColumns is spotColumns without the timestamps.
var spotSummaryColumns = spotColumns[:11]

// qualified prefixes each column with a table alias for goqu.
func qualified(alias string, columns []string) []interface{} {
	out := make([]interface{}, len(columns))
	for i, c := range columns {
		out[i] = goqu.I(alias + "." + c)
	}
	return out
}

// previewImageQuery selects the url of the lowest-id preview image of the
// spot aliased "s" in the enclosing query. It yields NULL when there is none.
func previewImageQuery() *goqu.SelectDataset {
	return dialect.From(goqu.T("spot_images").As("si")).
		Select(goqu.I("si.url")).
		Where(
			goqu.I("si.spot_id").Eq(goqu.I("s.id")),
			goqu.I("si.preview").Eq(true),
		).
		Order(goqu.I("si.id").Asc()).
		Limit(1)
}

// avgStars is ROUND(AVG(r.stars), 1). SQLite's AVG over zero rows is NULL.
func avgStars() exp.SQLFunctionExpression {
	return goqu.Func("ROUND", goqu.AVG("r.stars"), 1)
}

func (s *SpotDB) Create(ctx context.Context, spot *model.Spot) error {
	now := time.Now()
	spot.CreatedAt = now
	spot.UpdatedAt = now

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO spots (owner_id, address, city, state, country, lat, lng, name, description, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spot.OwnerID,
		spot.Address,
		spot.City,
		spot.State,
		spot.Country,
		spot.Lat,
		spot.Lng,
		spot.Name,
		spot.Description,
		spot.Price,
		spot.CreatedAt,
		spot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating spot: %w", err)
	}

	spot.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading spot id: %w", err)
	}
	return nil
}

// GetByID returns the bare spot row. Ownership checks load spots this way.
func (s *SpotDB) GetByID(ctx context.Context, id int64) (*model.Spot, error) {
	var spot model.Spot
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, address, city, state, country, lat, lng, name, description, price, created_at, updated_at
		 FROM spots WHERE id = ?`,
		id,
	).Scan(spotDest(&spot)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Spot")
		}
		return nil, fmt.Errorf("sqlite: getting spot %d: %w", id, err)
	}
	return &spot, nil
}

func (s *SpotDB) Update(ctx context.Context, spot *model.Spot) error {
	spot.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE spots
		 SET address = ?, city = ?, state = ?, country = ?, lat = ?, lng = ?,
		     name = ?, description = ?, price = ?, updated_at = ?
		 WHERE id = ?`,
		spot.Address,
		spot.City,
		spot.State,
		spot.Country,
		spot.Lat,
		spot.Lng,
		spot.Name,
		spot.Description,
		spot.Price,
		spot.UpdatedAt,
		spot.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating spot %d: %w", spot.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Spot")
	}
	return nil
}

// Delete removes the spot; images, reviews and bookings go with it.
func (s *SpotDB) Delete(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM spots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting spot %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Spot")
	}
	return nil
}

// List returns spots with their rounded average rating and preview image,
// oldest first.
func (s *SpotDB) List(ctx context.Context, filter repository.SpotFilter) ([]model.SpotListing, error) {
	cols := append(qualified("s", spotColumns),
		avgStars().As("avg_rating"),
		previewImageQuery().As("preview_image"),
	)

	ds := dialect.From(goqu.T("spots").As("s")).
		Select(cols...).
		LeftJoin(goqu.T("reviews").As("r"), goqu.On(goqu.I("r.spot_id").Eq(goqu.I("s.id")))).
		GroupBy(goqu.I("s.id")).
		Order(goqu.I("s.id").Asc())

	if filter.OwnerID != 0 {
		ds = ds.Where(goqu.I("s.owner_id").Eq(filter.OwnerID))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building spot listing query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing spots: %w", err)
	}
	defer rows.Close()

	spots := make([]model.SpotListing, 0)
	for rows.Next() {
		var (
			l       model.SpotListing
			avg     sql.NullFloat64
			preview sql.NullString
		)
		if err := rows.Scan(append(spotDest(&l.Spot), &avg, &preview)...); err != nil {
			return nil, fmt.Errorf("sqlite: scanning spot row: %w", err)
		}
		l.AvgRating = nullableFloat(avg)
		l.PreviewImage = nullableString(preview)
		spots = append(spots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating spots: %w", err)
	}

	return spots, nil
}

// GetDetail returns the spot with its owner, review aggregates and all images.
func (s *SpotDB) GetDetail(ctx context.Context, id int64) (*model.SpotDetail, error) {
	cols := append(qualified("s", spotColumns),
		goqu.I("o.id"), goqu.I("o.first_name"), goqu.I("o.last_name"),
		goqu.COUNT("r.id").As("num_reviews"),
		avgStars().As("avg_star_rating"),
	)

	query, args, err := dialect.From(goqu.T("spots").As("s")).
		Select(cols...).
		InnerJoin(goqu.T("users").As("o"), goqu.On(goqu.I("o.id").Eq(goqu.I("s.owner_id")))).
		LeftJoin(goqu.T("reviews").As("r"), goqu.On(goqu.I("r.spot_id").Eq(goqu.I("s.id")))).
		Where(goqu.I("s.id").Eq(id)).
		GroupBy(goqu.I("s.id"), goqu.I("o.id")).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building spot detail query: %w", err)
	}

	var (
		d   model.SpotDetail
		avg sql.NullFloat64
	)
	dest := append(spotDest(&d.Spot),
		&d.Owner.ID, &d.Owner.FirstName, &d.Owner.LastName,
		&d.NumReviews, &avg,
	)
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Spot")
		}
		return nil, fmt.Errorf("sqlite: getting spot detail %d: %w", id, err)
	}
	d.AvgStarRating = nullableFloat(avg)

	d.SpotImages, err = s.images(ctx, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SpotDB) images(ctx context.Context, spotID int64) ([]model.SpotImageSummary, error) {
	query, args, err := dialect.From("spot_images").
		Select("id", "url", "preview").
		Where(goqu.Ex{"spot_id": spotID}).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building spot images query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing images of spot %d: %w", spotID, err)
	}
	defer rows.Close()

	images := make([]model.SpotImageSummary, 0)
	for rows.Next() {
		var img model.SpotImageSummary
		if err := rows.Scan(&img.ID, &img.URL, &img.Preview); err != nil {
			return nil, fmt.Errorf("sqlite: scanning spot image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating spot images: %w", err)
	}
	return images, nil
}

func (s *SpotDB) AddImage(ctx context.Context, image *model.SpotImage) error {
	now := time.Now()
	image.CreatedAt = now
	image.UpdatedAt = now

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO spot_images (spot_id, url, preview, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		image.SpotID, image.URL, image.Preview, image.CreatedAt, image.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding image to spot %d: %w", image.SpotID, err)
	}

	image.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading spot image id: %w", err)
	}
	return nil
}

// spotDest lists scan destinations in spotColumns order.
func spotDest(s *model.Spot) []interface{} {
	return []interface{}{
		&s.ID, &s.OwnerID, &s.Address, &s.City, &s.State, &s.Country,
		&s.Lat, &s.Lng, &s.Name, &s.Description, &s.Price,
		&s.CreatedAt, &s.UpdatedAt,
	}
}

// spotSummaryDest lists scan destinations in spotSummaryColumns order,
// followed by the preview image.
func spotSummaryDest(s *model.SpotSummary, preview *sql.NullString) []interface{} {
	return []interface{}{
		&s.ID, &s.OwnerID, &s.Address, &s.City, &s.State, &s.Country,
		&s.Lat, &s.Lng, &s.Name, &s.Description, &s.Price,
		preview,
	}
}
