package web

import (
	"encoding/json"
	"net/http"
	"time"

	"wanwatch/config"
)

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Errorf("Error encoding response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) providersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	providers, globalMax, _, _, _ := h.cache.snapshot()
	h.writeJSON(w, map[string]any{
		"providers":      providers,
		"globalMaxSpeed": globalMax,
	})
}

func (h *Handler) clientsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, _, views, counts, _ := h.cache.snapshot()
	h.writeJSON(w, map[string]any{
		"clients":  views,
		"hardware": counts,
	})
}

func (h *Handler) summaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	providers, globalMax, views, _, updatedAt := h.cache.snapshot()

	online := 0
	for _, v := range views {
		if v.Online {
			online++
		}
	}

	h.writeJSON(w, map[string]any{
		"buildVersion":   config.BuildVersion,
		"startTime":      h.startTime.Format(time.RFC822),
		"lastCycle":      updatedAt.Format(time.RFC3339),
		"providerCount":  len(providers),
		"clientCount":    len(views),
		"clientsOnline":  online,
		"globalMaxSpeed": globalMax,
	})
}
