// Package server exposes hydration over HTTP: POST a raw payload, get the
// hydrated tree back as JSON, with Prometheus metrics on the side.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	nuxt "github.com/rahjooh/nuxt-scraper"
	"github.com/rahjooh/nuxt-scraper/metrics"
)

// maxBodyBytes bounds the accepted payload size.
const maxBodyBytes = 16 << 20

type Server struct {
	recorder *metrics.Recorder
	logger   *slog.Logger
	maxCells int
}

// NewHandler builds the HTTP handler. The recorder accumulates stats across
// requests and backs the /metrics endpoint; maxCells <= 0 means unbounded.
func NewHandler(recorder *metrics.Recorder, logger *slog.Logger, maxCells int) http.Handler {
	s := &Server{recorder: recorder, logger: logger, maxCells: maxCells}

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(recorder))

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Post("/hydrate", s.handleHydrate)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type hydrateResponse struct {
	Value    any        `json:"value"`
	Failures []string   `json:"failures,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
	Stats    nuxt.Stats `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleHydrate accepts the raw serialized payload as the request body. An
// optional ?root=N query selects a root cell other than the default.
func (s *Server) handleHydrate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("read body: %v", err)})
		return
	}

	var opts []nuxt.Option
	if s.maxCells > 0 {
		opts = append(opts, nuxt.WithMaxCells(s.maxCells))
	}
	opts = append(opts, nuxt.WithLogger(s.logger))

	payload, err := nuxt.ParsePayload(string(body), opts...)
	if err != nil {
		writeJSON(w, hydrateStatus(err), errorResponse{Error: err.Error()})
		return
	}

	var result *nuxt.Result
	if rootParam := r.URL.Query().Get("root"); rootParam != "" {
		root, err := strconv.Atoi(rootParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid root %q", rootParam)})
			return
		}
		result, err = payload.HydrateIndex(root)
		if err != nil {
			writeJSON(w, hydrateStatus(err), errorResponse{Error: err.Error()})
			return
		}
	} else {
		result, err = payload.Hydrate()
		if err != nil {
			writeJSON(w, hydrateStatus(err), errorResponse{Error: err.Error()})
			return
		}
	}

	s.recorder.Observe(result.Stats)
	s.logger.Info("hydrated payload",
		"cells", result.Stats.CellsVisited,
		"failures", result.Stats.DecodeFailures,
		"unknown_tags", result.Stats.UnknownTags)

	resp := hydrateResponse{
		Value: nuxt.Render(result.Value),
		Stats: result.Stats,
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, f.Error())
	}
	for _, warn := range result.Warnings {
		resp.Warnings = append(resp.Warnings, warn.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func hydrateStatus(err error) int {
	var refErr *nuxt.ReferenceOutOfRangeError
	var sizeErr *nuxt.GraphTooLargeError
	switch {
	case errors.As(err, &refErr), errors.Is(err, nuxt.ErrMalformedInput):
		return http.StatusUnprocessableEntity
	case errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
