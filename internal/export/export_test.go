package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/carsond2001/map-scanner/internal/storage"
	"github.com/parquet-go/parquet-go"
)

func TestArchives(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	maps, err := storage.OpenMapArchive(filepath.Join(dir, "map_archive.db"), storage.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to open map archive: %v", err)
	}
	defer maps.Close()
	signs, err := storage.OpenSignArchive(filepath.Join(dir, "sign_archive.sqlite"), storage.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to open sign archive: %v", err)
	}
	defer signs.Close()

	seen := time.UnixMilli(1_700_000_000_000)
	// more than one batch
	for i := 0; i < batchSize+5; i++ {
		err := maps.UpsertMap(ctx, models.MapRecord{
			MapID:     fmt.Sprintf("map_%03d", i),
			Dimension: "minecraft:overworld",
			Pos:       models.Position{X: i, Y: 64, Z: -i},
			LastSeen:  seen,
			PNG:       []byte{0x89, 'P', 'N', 'G'},
			Colors:    []byte{byte(i)},
		})
		if err != nil {
			t.Fatalf("UpsertMap failed: %v", err)
		}
	}
	if _, err := signs.UpsertSign(ctx, models.SignRecord{Server: "mc.example.net", Dimension: "minecraft:overworld", Front: "Hello", FirstSeen: seen, LastSeen: seen}); err != nil {
		t.Fatalf("UpsertSign failed: %v", err)
	}
	if _, err := signs.UpsertSign(ctx, models.SignRecord{Front: "No tags", LastSeen: seen}); err != nil {
		t.Fatalf("UpsertSign failed: %v", err)
	}

	out := filepath.Join(dir, "export")
	summary, err := Archives(ctx, maps, signs, out)
	if err != nil {
		t.Fatalf("Archives failed: %v", err)
	}
	if summary.Maps != batchSize+5 || summary.Signs != 2 {
		t.Errorf("Unexpected summary %+v", summary)
	}

	mapRows, err := parquet.ReadFile[MapRow](filepath.Join(out, MapsFileName))
	if err != nil {
		t.Fatalf("Failed to read maps export: %v", err)
	}
	if len(mapRows) != batchSize+5 {
		t.Fatalf("Expected %d map rows, got %d", batchSize+5, len(mapRows))
	}
	first := mapRows[0]
	if first.MapID != "map_000" || first.Y != 64 || first.LastSeen != seen.UnixMilli() || string(first.PNG) != "\x89PNG" {
		t.Errorf("Unexpected first map row %+v", first)
	}
	if mapRows[7].Z != -7 || mapRows[7].Colors[0] != 7 {
		t.Errorf("Unexpected map row %+v", mapRows[7])
	}

	signRows, err := parquet.ReadFile[SignRow](filepath.Join(out, SignsFileName))
	if err != nil {
		t.Fatalf("Failed to read signs export: %v", err)
	}
	if len(signRows) != 2 {
		t.Fatalf("Expected 2 sign rows, got %d", len(signRows))
	}
	byFront := make(map[string]SignRow)
	for _, r := range signRows {
		byFront[r.Front] = r
	}
	if byFront["Hello"].Server != "mc.example.net" || byFront["Hello"].FirstSeen != seen.UnixMilli() {
		t.Errorf("Unexpected sign row %+v", byFront["Hello"])
	}
	if byFront["No tags"].Server != "" || byFront["No tags"].Dimension != "" {
		t.Errorf("Expected empty tags, got %+v", byFront["No tags"])
	}
}

type failingSource struct{}

func (failingSource) EachMap(ctx context.Context, fn func(models.MapRecord) error) error {
	return storage.ErrClosed
}

func TestWriteMapsSourceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), MapsFileName)
	_, err := WriteMaps(context.Background(), failingSource{}, path)
	if !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := parquet.ReadFile[MapRow](path); err == nil {
		t.Errorf("Expected no file to be left behind")
	}
}
