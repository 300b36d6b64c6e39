package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"costs/internal/core"
	"costs/internal/storage"

	_ "modernc.org/sqlite"
)

// Driver opens one SQLite file per store name under a data directory.
type Driver struct {
	dir string
}

var _ storage.Driver = (*Driver)(nil)

func NewDriver(dir string) *Driver {
	return &Driver{dir: dir}
}

// Path returns the database file backing the named store.
func (d *Driver) Path(name string) string {
	return filepath.Join(d.dir, name+".db")
}

// Open implements storage.Driver. The caller's version is kept in
// PRAGMA user_version; the table itself is created by the embedded migrations.
func (d *Driver) Open(ctx context.Context, name string, version uint) (storage.Backend, error) {
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid store name %q", name)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %w", storage.ErrStoreUnavailable, err)
	}

	dbPath := d.Path(name)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %w", storage.ErrStoreUnavailable, err)
	}
	// One connection: the driver serializes access to the table.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", storage.ErrStoreUnavailable, err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}

	if err := syncVersion(ctx, db, name, version); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, name: name}, nil
}

func syncVersion(ctx context.Context, db *sql.DB, name string, version uint) error {
	var current uint
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("%w: read version: %w", storage.ErrStoreUnavailable, err)
	}

	switch {
	case version < current:
		return fmt.Errorf("%w: %s is at version %d, requested %d", storage.ErrVersion, name, current, version)
	case version > current:
		// PRAGMA does not take bind parameters.
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			return fmt.Errorf("%w: write version: %w", storage.ErrStoreUnavailable, err)
		}
		slog.InfoContext(ctx, "SQLite store version set", "name", name, "from_version", current, "to_version", version)
	}
	return nil
}

// Repository is an open SQLite store.
type Repository struct {
	db   *sql.DB
	name string
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements storage.Backend
func (r *Repository) Insert(ctx context.Context, e core.Expense) (int64, error) {
	// Refuse what ListAll could not parse back.
	if date := e.Date.String(); date != "" {
		if _, err := core.ParseDate(date); err != nil {
			return 0, fmt.Errorf("date cannot be stored: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO costs (sum, category, description, date) VALUES (?, ?, ?, ?)`,
		e.Sum.String(), string(e.Category), e.Description, e.Date.String())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"store", r.name,
		"description", e.Description,
		"sum", e.Sum.String(),
		"category", e.Category,
		"date", e.Date.String())

	return id, nil
}

// ListAll implements storage.Backend
func (r *Repository) ListAll(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, sum, category, description, date FROM costs`)
	if err != nil {
		return nil, fmt.Errorf("query costs: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			rec           core.Record
			sum, category string
			date          string
		)
		if err := rows.Scan(&rec.ID, &sum, &category, &rec.Description, &date); err != nil {
			return nil, fmt.Errorf("scan cost: %w", err)
		}

		rec.Sum, err = decimal.NewFromString(sum)
		if err != nil {
			return nil, fmt.Errorf("parse sum of record %d: %w", rec.ID, err)
		}
		// The store validates nothing, so an unset date round-trips as empty.
		if date != "" {
			rec.Date, err = core.ParseDate(date)
			if err != nil {
				return nil, fmt.Errorf("parse date of record %d: %w", rec.ID, err)
			}
		}
		rec.Category = core.Category(category)

		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate costs: %w", err)
	}
	return out, nil
}

// Clear implements storage.Backend
func (r *Repository) Clear(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM costs`)
	if err != nil {
		return fmt.Errorf("delete costs: %w", err)
	}

	n, _ := res.RowsAffected()
	slog.InfoContext(ctx, "SQLite store cleared", "store", r.name, "deleted", n)
	return nil
}
