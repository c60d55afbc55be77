package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carsond2001/map-scanner/internal/models"
)

var mapSchema = []string{
	`CREATE TABLE IF NOT EXISTS maps (
		map_id      TEXT PRIMARY KEY,
		dimension   TEXT NOT NULL,
		x           INTEGER NOT NULL,
		y           INTEGER NOT NULL,
		z           INTEGER NOT NULL,
		first_seen  INTEGER NOT NULL,
		last_seen   INTEGER NOT NULL,
		png         BLOB NOT NULL,
		colors      BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_maps_last_seen ON maps(last_seen)`,
}

// MapArchive stores one row per map id
type MapArchive struct {
	*archive
}

// OpenMapArchive opens or creates the map archive at path
func OpenMapArchive(path string, opts Options) (*MapArchive, error) {
	a, err := openArchive(path, opts, mapSchema)
	if err != nil {
		return nil, err
	}
	return &MapArchive{archive: a}, nil
}

// UpsertMap inserts rec or refreshes the existing row for rec.MapID.
// first_seen keeps its original value; last_seen never moves backwards.
// A zero rec.LastSeen means now.
func (m *MapArchive) UpsertMap(ctx context.Context, rec models.MapRecord) error {
	if rec.MapID == "" {
		return fmt.Errorf("map id is required")
	}
	seen := m.stamp(rec.LastSeen)
	if rec.PNG == nil {
		rec.PNG = []byte{}
	}
	if rec.Colors == nil {
		rec.Colors = []byte{}
	}

	return m.with(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO maps(map_id, dimension, x, y, z, first_seen, last_seen, png, colors)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(map_id) DO UPDATE SET
				dimension = excluded.dimension,
				x         = excluded.x,
				y         = excluded.y,
				z         = excluded.z,
				last_seen = MAX(last_seen, excluded.last_seen),
				png       = excluded.png,
				colors    = excluded.colors`,
			rec.MapID, rec.Dimension, rec.Pos.X, rec.Pos.Y, rec.Pos.Z, seen, seen, rec.PNG, rec.Colors)
		if err != nil {
			return fmt.Errorf("failed to upsert map %s: %w", rec.MapID, err)
		}
		return nil
	})
}

// GetMap returns the full row for mapID, image data included
func (m *MapArchive) GetMap(ctx context.Context, mapID string) (*models.MapRecord, error) {
	var rec *models.MapRecord
	err := m.with(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `
			SELECT map_id, dimension, x, y, z, first_seen, last_seen, png, colors
			FROM maps WHERE map_id = ?`, mapID)
		r, err := scanMap(row, true)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read map %s: %w", mapID, err)
		}
		rec = r
		return nil
	})
	return rec, err
}

// ListMaps returns up to limit rows, most recently seen first, without image data.
// A limit of zero or less returns every row.
func (m *MapArchive) ListMaps(ctx context.Context, limit int) ([]models.MapRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	var records []models.MapRecord
	err := m.with(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT map_id, dimension, x, y, z, first_seen, last_seen
			FROM maps ORDER BY last_seen DESC, map_id LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("failed to list maps: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanMap(rows, false)
			if err != nil {
				return fmt.Errorf("failed to read map row: %w", err)
			}
			records = append(records, *r)
		}
		return rows.Err()
	})
	return records, err
}

// EachMap streams every row, image data included, in map id order
func (m *MapArchive) EachMap(ctx context.Context, fn func(models.MapRecord) error) error {
	return m.with(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT map_id, dimension, x, y, z, first_seen, last_seen, png, colors
			FROM maps ORDER BY map_id`)
		if err != nil {
			return fmt.Errorf("failed to query maps: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanMap(rows, true)
			if err != nil {
				return fmt.Errorf("failed to read map row: %w", err)
			}
			if err := fn(*r); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

// CountMaps returns the number of archived maps
func (m *MapArchive) CountMaps(ctx context.Context) (int, error) {
	var n int
	err := m.with(func(db *sql.DB) error {
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM maps`).Scan(&n); err != nil {
			return fmt.Errorf("failed to count maps: %w", err)
		}
		return nil
	})
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMap(row rowScanner, withImages bool) (*models.MapRecord, error) {
	var rec models.MapRecord
	var firstSeen, lastSeen int64
	dest := []any{&rec.MapID, &rec.Dimension, &rec.Pos.X, &rec.Pos.Y, &rec.Pos.Z, &firstSeen, &lastSeen}
	if withImages {
		dest = append(dest, &rec.PNG, &rec.Colors)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rec.FirstSeen = time.UnixMilli(firstSeen)
	rec.LastSeen = time.UnixMilli(lastSeen)
	return &rec, nil
}
