package handlers

import (
	"net/http"

	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/carsond2001/map-scanner/internal/storage"
)

func (h *Handler) HandleSigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		limit, ok := limitParam(r)
		if !ok {
			h.writeError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		signs, err := h.signs.ListSigns(r.Context(), storage.SignFilter{
			Server: r.URL.Query().Get("server"),
			Limit:  limit,
		})
		if err != nil {
			h.writeError(w, "Failed to list signs: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if signs == nil {
			signs = []models.SignRecord{}
		}
		h.writeJSON(w, signs)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
