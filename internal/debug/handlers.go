package debug

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

func (h *routerHandlers) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, "sessions unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.sessions.Snapshot())
}

func (h *routerHandlers) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, "sessions unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.sessions.GetStats())
}

func (h *routerHandlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, "sessions unavailable", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "actorID")
	for _, info := range h.sessions.Snapshot() {
		if info.ActorID == id {
			writeJSON(w, info)
			return
		}
	}
	writeError(w, "no session for actor", http.StatusNotFound)
}

func (h *routerHandlers) handleGetBeams(w http.ResponseWriter, r *http.Request) {
	if h.beams == nil {
		writeError(w, "beams unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.beams.Snapshot())
}

func (h *routerHandlers) handleBeamStats(w http.ResponseWriter, r *http.Request) {
	if h.beams == nil {
		writeError(w, "beams unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.beams.GetStats())
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeError(w, "event log unavailable", http.StatusServiceUnavailable)
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxEventLimit)
	}
	writeJSON(w, h.events.Recent(limit))
}

func (h *routerHandlers) handleEventStats(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeError(w, "event log unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.events.GetStats())
}

func (h *routerHandlers) handleGetTuning(w http.ResponseWriter, r *http.Request) {
	if h.tuning == nil {
		writeError(w, "tuning unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.tuning)
}

func (h *routerHandlers) handleWorldPNG(w http.ResponseWriter, r *http.Request) {
	if h.world == nil {
		writeError(w, "renderer unavailable", http.StatusServiceUnavailable)
		return
	}
	var buf bytes.Buffer
	if err := h.world.RenderPNG(&buf); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
