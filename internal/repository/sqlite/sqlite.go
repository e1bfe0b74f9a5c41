// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go driver, so the binary builds without cgo.
// Aggregate and join queries are built with goqu's sqlite3 dialect; plain
// single-table statements stay as literal SQL.
//
// Every connection is opened with foreign keys on, so deleting a spot or a
// review cascades to the rows that belong to it.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dialect renders goqu datasets as SQLite SQL with ? placeholders.
var dialect = goqu.Dialect("sqlite3")

// DB owns the connection pool and hands out one store per entity.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/rentals.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database, used by tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own empty database.
	if strings.HasPrefix(dbPath, ":memory:") {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends the per-connection pragmas. Pragmas set with Exec would only
// apply to whichever pooled connection happened to run them.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health check.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

func (db *DB) Users() *UserDB       { return &UserDB{conn: db.conn} }
func (db *DB) Spots() *SpotDB       { return &SpotDB{conn: db.conn} }
func (db *DB) Reviews() *ReviewDB   { return &ReviewDB{conn: db.conn} }
func (db *DB) Bookings() *BookingDB { return &BookingDB{conn: db.conn} }

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				first_name      TEXT NOT NULL,
				last_name       TEXT NOT NULL,
				email           TEXT NOT NULL UNIQUE,
				hashed_password TEXT NOT NULL DEFAULT '',
				github_id       INTEGER UNIQUE,
				created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"spots", `
			CREATE TABLE IF NOT EXISTS spots (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				owner_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				address     TEXT NOT NULL,
				city        TEXT NOT NULL,
				state       TEXT NOT NULL,
				country     TEXT NOT NULL,
				lat         REAL NOT NULL,
				lng         REAL NOT NULL,
				name        TEXT NOT NULL,
				description TEXT NOT NULL,
				price       REAL NOT NULL,
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_spots_owner_id ON spots(owner_id);`},
		{"spot_images", `
			CREATE TABLE IF NOT EXISTS spot_images (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				spot_id    INTEGER NOT NULL REFERENCES spots(id) ON DELETE CASCADE,
				url        TEXT NOT NULL,
				preview    BOOLEAN NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_spot_images_spot_id ON spot_images(spot_id);`},
		{"reviews", `
			CREATE TABLE IF NOT EXISTS reviews (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				spot_id    INTEGER NOT NULL REFERENCES spots(id) ON DELETE CASCADE,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				review     TEXT NOT NULL,
				stars      INTEGER NOT NULL CHECK (stars BETWEEN 1 AND 5),
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (spot_id, user_id)
			);
			CREATE INDEX IF NOT EXISTS idx_reviews_user_id ON reviews(user_id);`},
		{"review_images", `
			CREATE TABLE IF NOT EXISTS review_images (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				review_id  INTEGER NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
				url        TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_review_images_review_id ON review_images(review_id);`},
		{"bookings", `
			CREATE TABLE IF NOT EXISTS bookings (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				spot_id    INTEGER NOT NULL REFERENCES spots(id) ON DELETE CASCADE,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				start_date TEXT NOT NULL,
				end_date   TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_bookings_spot_id ON bookings(spot_id);
			CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);`},
	}

	for _, s := range statements {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate key.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// nullableFloat turns a NULL aggregate into a nil pointer.
func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
