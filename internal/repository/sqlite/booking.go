package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/repository"
)

var _ repository.BookingRepository = (*BookingDB)(nil)

// BookingDB stores bookings. Dates are kept as YYYY-MM-DD text, which sorts
// and compares the same way the calendar does.
type BookingDB struct {
	conn *sql.DB
}

var bookingColumns = []string{
	"id", "spot_id", "user_id", "start_date", "end_date", "created_at", "updated_at",
}

// Create inserts a booking unless another booking of the same spot shares a
// day with it. The overlap check and the insert are one statement, so
// concurrent requests for the same dates can't both succeed; the loser gets
// apperror.ErrConflict.
func (b *BookingDB) Create(ctx context.Context, booking *model.Booking) error {
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	res, err := b.conn.ExecContext(ctx,
		`INSERT INTO bookings (spot_id, user_id, start_date, end_date, created_at, updated_at)
		 SELECT ?, ?, ?, ?, ?, ?
		 WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE spot_id = ? AND start_date <= ? AND end_date >= ?
		 )`,
		booking.SpotID,
		booking.UserID,
		booking.StartDate,
		booking.EndDate,
		booking.CreatedAt,
		booking.UpdatedAt,
		booking.SpotID,
		booking.EndDate,
		booking.StartDate,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating booking: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.Conflict("booking", "spot_id, start_date, end_date")
	}

	booking.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading booking id: %w", err)
	}
	return nil
}

// ListBySpotForOwner returns full bookings with the renter attached.
func (b *BookingDB) ListBySpotForOwner(ctx context.Context, spotID int64) ([]model.BookingOwnerView, error) {
	query, args, err := dialect.From(goqu.T("bookings").As("b")).
		Select(append(qualified("b", bookingColumns), qualified("u", authorColumns)...)...).
		InnerJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("b.user_id")))).
		Where(goqu.I("b.spot_id").Eq(spotID)).
		Order(goqu.I("b.start_date").Asc(), goqu.I("b.id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building spot bookings query: %w", err)
	}

	rows, err := b.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bookings of spot %d: %w", spotID, err)
	}
	defer rows.Close()

	bookings := make([]model.BookingOwnerView, 0)
	for rows.Next() {
		var v model.BookingOwnerView
		dest := append(bookingDest(&v.Booking), &v.User.ID, &v.User.FirstName, &v.User.LastName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlite: scanning booking: %w", err)
		}
		bookings = append(bookings, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bookings: %w", err)
	}
	return bookings, nil
}

// ListBySpotPublic returns only the dates of each booking.
func (b *BookingDB) ListBySpotPublic(ctx context.Context, spotID int64) ([]model.BookingPublicView, error) {
	rows, err := b.conn.QueryContext(ctx,
		`SELECT spot_id, start_date, end_date FROM bookings
		 WHERE spot_id = ? ORDER BY start_date, id`,
		spotID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bookings of spot %d: %w", spotID, err)
	}
	defer rows.Close()

	bookings := make([]model.BookingPublicView, 0)
	for rows.Next() {
		var v model.BookingPublicView
		if err := rows.Scan(&v.SpotID, &v.StartDate, &v.EndDate); err != nil {
			return nil, fmt.Errorf("sqlite: scanning booking: %w", err)
		}
		bookings = append(bookings, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bookings: %w", err)
	}
	return bookings, nil
}

// ListByUser returns the user's bookings with the booked spot summarized.
func (b *BookingDB) ListByUser(ctx context.Context, userID int64) ([]model.UserBooking, error) {
	cols := append(qualified("b", bookingColumns), qualified("s", spotSummaryColumns)...)
	cols = append(cols, previewImageQuery().As("preview_image"))

	query, args, err := dialect.From(goqu.T("bookings").As("b")).
		Select(cols...).
		InnerJoin(goqu.T("spots").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("b.spot_id")))).
		Where(goqu.I("b.user_id").Eq(userID)).
		Order(goqu.I("b.start_date").Asc(), goqu.I("b.id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building user bookings query: %w", err)
	}

	rows, err := b.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bookings of user %d: %w", userID, err)
	}
	defer rows.Close()

	bookings := make([]model.UserBooking, 0)
	for rows.Next() {
		var (
			ub      model.UserBooking
			preview sql.NullString
		)
		dest := append(bookingDest(&ub.Booking), spotSummaryDest(&ub.Spot, &preview)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlite: scanning booking: %w", err)
		}
		ub.Spot.PreviewImage = nullableString(preview)
		bookings = append(bookings, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bookings: %w", err)
	}
	return bookings, nil
}

func bookingDest(b *model.Booking) []interface{} {
	return []interface{}{
		&b.ID, &b.SpotID, &b.UserID, &b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt,
	}
}
