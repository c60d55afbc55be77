package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carsond2001/map-scanner/internal/models"
)

var signSchema = []string{
	`CREATE TABLE IF NOT EXISTS signs (
		sign_key     TEXT PRIMARY KEY,
		first_seen   INTEGER NOT NULL,
		last_seen    INTEGER NOT NULL,
		dimension    TEXT,
		server       TEXT,
		x            INTEGER NOT NULL,
		y            INTEGER NOT NULL,
		z            INTEGER NOT NULL,
		front        TEXT NOT NULL,
		back         TEXT NOT NULL,
		content_key  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signs_last_seen ON signs(last_seen)`,
	`CREATE INDEX IF NOT EXISTS idx_signs_server ON signs(server)`,
}

// SignArchive stores one row per distinct sign text at a location
type SignArchive struct {
	*archive
}

// SignFilter narrows ListSigns
type SignFilter struct {
	Server string
	Limit  int
}

// OpenSignArchive opens or creates the sign archive at path
func OpenSignArchive(path string, opts Options) (*SignArchive, error) {
	a, err := openArchive(path, opts, signSchema)
	if err != nil {
		return nil, err
	}
	return &SignArchive{archive: a}, nil
}

// BuildSignKey derives the primary key of a sign row from where it is and what it says.
// The same text reappearing at the same place maps to the same row.
func BuildSignKey(server, dimension string, pos models.Position, front, back string) string {
	if server == "" {
		server = "unknown"
	}
	if dimension == "" {
		dimension = "unknown"
	}
	return strings.Join([]string{
		server,
		dimension,
		strconv.Itoa(pos.X),
		strconv.Itoa(pos.Y),
		strconv.Itoa(pos.Z),
		front,
		back,
	}, "|")
}

// UpsertSign inserts rec or refreshes the existing row with the same derived key.
// A zero rec.FirstSeen or rec.LastSeen means now. first_seen keeps its
// original value on update; last_seen never moves backwards.
func (s *SignArchive) UpsertSign(ctx context.Context, rec models.SignRecord) (string, error) {
	key := BuildSignKey(rec.Server, rec.Dimension, rec.Pos, rec.Front, rec.Back)
	lastSeen := s.stamp(rec.LastSeen)
	firstSeen := lastSeen
	if !rec.FirstSeen.IsZero() {
		firstSeen = rec.FirstSeen.UnixMilli()
	}

	err := s.with(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO signs(sign_key, first_seen, last_seen, dimension, server, x, y, z, front, back, content_key)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(sign_key) DO UPDATE SET
				last_seen   = MAX(last_seen, excluded.last_seen),
				dimension   = excluded.dimension,
				server      = excluded.server,
				x           = excluded.x,
				y           = excluded.y,
				z           = excluded.z,
				front       = excluded.front,
				back        = excluded.back,
				content_key = excluded.content_key`,
			key, firstSeen, lastSeen,
			nullString(rec.Dimension), nullString(rec.Server),
			rec.Pos.X, rec.Pos.Y, rec.Pos.Z,
			rec.Front, rec.Back, rec.ContentKey)
		if err != nil {
			return fmt.Errorf("failed to upsert sign at %s: %w", rec.Pos, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// ListSigns returns rows most recently seen first
func (s *SignArchive) ListSigns(ctx context.Context, filter SignFilter) ([]models.SignRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT sign_key, first_seen, last_seen, dimension, server, x, y, z, front, back, content_key FROM signs`
	args := []any{}
	if filter.Server != "" {
		query += ` WHERE server = ?`
		args = append(args, filter.Server)
	}
	query += ` ORDER BY last_seen DESC, sign_key LIMIT ?`
	args = append(args, limit)

	var records []models.SignRecord
	err := s.with(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list signs: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanSign(rows)
			if err != nil {
				return fmt.Errorf("failed to read sign row: %w", err)
			}
			records = append(records, *r)
		}
		return rows.Err()
	})
	return records, err
}

// EachSign streams every row in key order
func (s *SignArchive) EachSign(ctx context.Context, fn func(models.SignRecord) error) error {
	return s.with(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT sign_key, first_seen, last_seen, dimension, server, x, y, z, front, back, content_key
			FROM signs ORDER BY sign_key`)
		if err != nil {
			return fmt.Errorf("failed to query signs: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanSign(rows)
			if err != nil {
				return fmt.Errorf("failed to read sign row: %w", err)
			}
			if err := fn(*r); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

// CountSigns returns the number of archived sign rows
func (s *SignArchive) CountSigns(ctx context.Context) (int, error) {
	var n int
	err := s.with(func(db *sql.DB) error {
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signs`).Scan(&n); err != nil {
			return fmt.Errorf("failed to count signs: %w", err)
		}
		return nil
	})
	return n, err
}

func scanSign(row rowScanner) (*models.SignRecord, error) {
	var rec models.SignRecord
	var firstSeen, lastSeen int64
	var dimension, server sql.NullString
	if err := row.Scan(&rec.SignKey, &firstSeen, &lastSeen, &dimension, &server,
		&rec.Pos.X, &rec.Pos.Y, &rec.Pos.Z, &rec.Front, &rec.Back, &rec.ContentKey); err != nil {
		return nil, err
	}
	rec.FirstSeen = time.UnixMilli(firstSeen)
	rec.LastSeen = time.UnixMilli(lastSeen)
	rec.Dimension = dimension.String
	rec.Server = server.String
	return &rec, nil
}
