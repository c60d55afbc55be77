package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/carsond2001/map-scanner/internal/storage"
)

func (h *Handler) HandleMaps(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		limit, ok := limitParam(r)
		if !ok {
			h.writeError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		maps, err := h.maps.ListMaps(r.Context(), limit)
		if err != nil {
			h.writeError(w, "Failed to list maps: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if maps == nil {
			maps = []models.MapRecord{}
		}
		h.writeJSON(w, maps)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMapDetail serves /api/maps/{id} as JSON and /api/maps/{id}.png as the image
func (h *Handler) HandleMapDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mapID := strings.TrimPrefix(r.URL.Path, "/api/maps/")
	wantPNG := strings.HasSuffix(mapID, ".png")
	mapID = strings.TrimSuffix(mapID, ".png")
	if mapID == "" || strings.Contains(mapID, "/") {
		h.writeError(w, "Map not found", http.StatusNotFound)
		return
	}

	rec, err := h.maps.GetMap(r.Context(), mapID)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "Map not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to load map: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if !wantPNG {
		h.writeJSON(w, rec)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(rec.PNG); err != nil {
		slog.Error("Unable to write map image", "map_id", mapID, "err", err)
	}
}
