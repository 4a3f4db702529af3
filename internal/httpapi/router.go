// Package httpapi exposes the operational HTTP surface: health, stats,
// history, Prometheus metrics, and a manual check trigger.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hulikau/xxx-s-market-observer/internal/engine"
	"github.com/hulikau/xxx-s-market-observer/internal/history"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

type Handler struct {
	eng  *engine.Engine
	hist *history.Store
	log  logx.Logger
}

func NewHandler(eng *engine.Engine, hist *history.Store, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{eng: eng, hist: hist, log: log}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealth)
	r.Get("/stats", h.handleStats)
	r.Get("/sites", h.handleSites)
	r.Get("/history/cycles", h.handleCycles)
	r.Get("/history/notifications", h.handleNotifications)
	r.Post("/check", h.handleCheck)
	r.Post("/check/{site}", h.handleCheckSite)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/trace", pprof.Trace)
		r.Get("/goroutine", pprof.Handler("goroutine").ServeHTTP)
		r.Get("/heap", pprof.Handler("heap").ServeHTTP)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": h.eng.Running(),
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.StatsSnapshot())
}

func (h *Handler) handleSites(w http.ResponseWriter, _ *http.Request) {
	type site struct {
		Name      string   `json:"name"`
		Extractor string   `json:"extractor"`
		URLs      []string `json:"urls"`
		Sizes     []string `json:"sizes"`
		Enabled   bool     `json:"enabled"`
	}
	targets := h.eng.Targets()
	out := make([]site, 0, len(targets))
	for _, t := range targets {
		out = append(out, site{
			Name: t.Name, Extractor: t.Extractor,
			URLs: t.URLs, Sizes: t.Sizes, Enabled: t.Enabled,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCycles(w http.ResponseWriter, r *http.Request) {
	rows, err := h.hist.RecentCycles(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []history.CycleRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	rows, err := h.hist.RecentNotifications(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []history.NotificationRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleCheck kicks off one full monitoring cycle in the background.
// The engine serializes cycles internally, so a trigger that races the
// scheduled loop simply waits its turn.
func (h *Handler) handleCheck(w http.ResponseWriter, _ *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		h.eng.RunOneCycle(ctx)
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "cycle started"})
}

func (h *Handler) handleCheckSite(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "site")
	results, err := h.eng.CheckSingleSite(r.Context(), name)
	if err != nil {
		if errors.Is(err, engine.ErrSiteNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	type check struct {
		URL       string   `json:"url"`
		Success   bool     `json:"success"`
		Sizes     []string `json:"available_sizes"`
		Error     string   `json:"error,omitempty"`
		ElapsedMS int64    `json:"elapsed_ms"`
	}
	out := make([]check, 0, len(results))
	for _, res := range results {
		out = append(out, check{
			URL:       res.URL,
			Success:   res.Success,
			Sizes:     res.Result.AvailableSizes.Sorted(),
			Error:     res.Err,
			ElapsedMS: res.Duration.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
