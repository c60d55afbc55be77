package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/carsond2001/map-scanner/internal/storage"
)

// MapReader is the read side of the map archive
type MapReader interface {
	GetMap(ctx context.Context, mapID string) (*models.MapRecord, error)
	ListMaps(ctx context.Context, limit int) ([]models.MapRecord, error)
	CountMaps(ctx context.Context) (int, error)
}

// SignReader is the read side of the sign archive
type SignReader interface {
	ListSigns(ctx context.Context, filter storage.SignFilter) ([]models.SignRecord, error)
	CountSigns(ctx context.Context) (int, error)
}

// Handler serves a read-only view of the archives
type Handler struct {
	maps  MapReader
	signs SignReader
}

func New(maps MapReader, signs SignReader) *Handler {
	return &Handler{
		maps:  maps,
		signs: signs,
	}
}

// Routes registers every archive endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/maps", h.HandleMaps)
	mux.HandleFunc("/api/maps/", h.HandleMapDetail)
	mux.HandleFunc("/api/signs", h.HandleSigns)
	mux.HandleFunc("/api/stats", h.HandleStats)
	mux.HandleFunc("/healthcheck", h.HandleHealthcheck)
	return mux
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maps, err := h.maps.CountMaps(r.Context())
	if err != nil {
		h.writeError(w, "Failed to count maps: "+err.Error(), http.StatusInternalServerError)
		return
	}
	signs, err := h.signs.CountSigns(r.Context())
	if err != nil {
		h.writeError(w, "Failed to count signs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]int{"maps": maps, "signs": signs})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// limitParam reads ?limit=, returning 0 (no limit) when absent
func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
