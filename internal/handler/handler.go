// Package handler exposes the HTTP surface: the websocket endpoint, a
// health check, and read access to archived runs.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/paperlens/paperlens/internal/i18n"
	"github.com/paperlens/paperlens/internal/model"
	"github.com/paperlens/paperlens/internal/scheduler"
	"github.com/paperlens/paperlens/internal/store"
	"github.com/paperlens/paperlens/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type Handler struct {
	registry *ws.Registry
	pool     *scheduler.Pool
	archive  *store.Store
	cfg      model.PipelineConfig
	lang     string
	upgrader websocket.Upgrader
}

func New(registry *ws.Registry, pool *scheduler.Pool, archive *store.Store, cfg model.PipelineConfig, lang string) *Handler {
	return &Handler{
		registry: registry,
		pool:     pool,
		archive:  archive,
		cfg:      cfg,
		lang:     lang,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/ws/rubric-generation", h.rubricGeneration)
	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{runID}", h.getRun)
	})
}

// rubricGeneration upgrades the connection and hands it to a Session for
// the rest of its life.
func (h *Handler) rubricGeneration(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	ctx := i18n.WithLocalizer(r.Context(), i18n.NewLocalizer(h.lang))
	ws.NewSession(ctx, conn, h.registry, h.pool, h.archive, h.cfg).Run()
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"active_connections": h.registry.Count(),
	})
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "archive disabled", http.StatusServiceUnavailable)
		return
	}
	runs, err := h.archive.ListRuns()
	if err != nil {
		slog.Error("list runs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "archive disabled", http.StatusServiceUnavailable)
		return
	}
	detail, err := h.archive.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		slog.Error("get run", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if detail == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}
