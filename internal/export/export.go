// Package export writes the archives out as Parquet files.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/parquet-go/parquet-go"
)

// File names written by Archives
const (
	MapsFileName  = "maps.parquet"
	SignsFileName = "signs.parquet"
)

const batchSize = 128

// MapRow is one exported map
type MapRow struct {
	MapID     string `parquet:"map_id"`
	Dimension string `parquet:"dimension"`
	X         int64  `parquet:"x"`
	Y         int64  `parquet:"y"`
	Z         int64  `parquet:"z"`
	FirstSeen int64  `parquet:"first_seen"` // epoch ms
	LastSeen  int64  `parquet:"last_seen"`  // epoch ms
	PNG       []byte `parquet:"png"`
	Colors    []byte `parquet:"colors"`
}

// SignRow is one exported sign
type SignRow struct {
	SignKey    string `parquet:"sign_key"`
	FirstSeen  int64  `parquet:"first_seen"`
	LastSeen   int64  `parquet:"last_seen"`
	Dimension  string `parquet:"dimension,optional"`
	Server     string `parquet:"server,optional"`
	X          int64  `parquet:"x"`
	Y          int64  `parquet:"y"`
	Z          int64  `parquet:"z"`
	Front      string `parquet:"front"`
	Back       string `parquet:"back"`
	ContentKey string `parquet:"content_key"`
}

// MapSource streams archived maps
type MapSource interface {
	EachMap(ctx context.Context, fn func(models.MapRecord) error) error
}

// SignSource streams archived signs
type SignSource interface {
	EachSign(ctx context.Context, fn func(models.SignRecord) error) error
}

// Summary reports how many rows each export wrote
type Summary struct {
	Maps  int
	Signs int
}

// Archives exports both archives into dir
func Archives(ctx context.Context, maps MapSource, signs SignSource, dir string) (Summary, error) {
	var s Summary
	if err := os.MkdirAll(dir, 0755); err != nil {
		return s, fmt.Errorf("failed to create export directory: %w", err)
	}

	n, err := WriteMaps(ctx, maps, filepath.Join(dir, MapsFileName))
	if err != nil {
		return s, err
	}
	s.Maps = n

	n, err = WriteSigns(ctx, signs, filepath.Join(dir, SignsFileName))
	if err != nil {
		return s, err
	}
	s.Signs = n

	return s, nil
}

// WriteMaps writes every archived map to path
func WriteMaps(ctx context.Context, src MapSource, path string) (int, error) {
	return writeFile(path, func(w *parquet.GenericWriter[MapRow]) (int, error) {
		total := 0
		buf := make([]MapRow, 0, batchSize)
		err := src.EachMap(ctx, func(rec models.MapRecord) error {
			buf = append(buf, MapRow{
				MapID:     rec.MapID,
				Dimension: rec.Dimension,
				X:         int64(rec.Pos.X),
				Y:         int64(rec.Pos.Y),
				Z:         int64(rec.Pos.Z),
				FirstSeen: rec.FirstSeen.UnixMilli(),
				LastSeen:  rec.LastSeen.UnixMilli(),
				PNG:       rec.PNG,
				Colors:    rec.Colors,
			})
			if len(buf) < batchSize {
				return nil
			}
			n, err := w.Write(buf)
			total += n
			buf = buf[:0]
			return err
		})
		if err != nil {
			return total, err
		}
		n, err := w.Write(buf)
		return total + n, err
	})
}

// WriteSigns writes every archived sign to path
func WriteSigns(ctx context.Context, src SignSource, path string) (int, error) {
	return writeFile(path, func(w *parquet.GenericWriter[SignRow]) (int, error) {
		total := 0
		buf := make([]SignRow, 0, batchSize)
		err := src.EachSign(ctx, func(rec models.SignRecord) error {
			buf = append(buf, SignRow{
				SignKey:    rec.SignKey,
				FirstSeen:  rec.FirstSeen.UnixMilli(),
				LastSeen:   rec.LastSeen.UnixMilli(),
				Dimension:  rec.Dimension,
				Server:     rec.Server,
				X:          int64(rec.Pos.X),
				Y:          int64(rec.Pos.Y),
				Z:          int64(rec.Pos.Z),
				Front:      rec.Front,
				Back:       rec.Back,
				ContentKey: rec.ContentKey,
			})
			if len(buf) < batchSize {
				return nil
			}
			n, err := w.Write(buf)
			total += n
			buf = buf[:0]
			return err
		})
		if err != nil {
			return total, err
		}
		n, err := w.Write(buf)
		return total + n, err
	})
}

// writeFile writes to a temporary file beside path and renames it into
// place once the Parquet footer is written
func writeFile[T any](path string, fill func(w *parquet.GenericWriter[T]) (int, error)) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	w := parquet.NewGenericWriter[T](tmp, parquet.Compression(&parquet.Zstd))
	n, err := fill(w)
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to move export into place: %w", err)
	}

	slog.Debug("Wrote parquet export", "path", path, "rows", n)
	return n, nil
}
