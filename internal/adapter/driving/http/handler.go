// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkendall/contribview/internal/application"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	feed   *application.FeedService
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(feed *application.FeedService, logger *slog.Logger) *Handler {
	return &Handler{
		feed:   feed,
		logger: logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/prs", h.ListVisiblePRs)
	mux.HandleFunc("GET /api/v1/prs/all", h.ListAllPRs)
	mux.HandleFunc("GET /api/v1/exclusions", h.ListExclusions)
	mux.HandleFunc("POST /api/v1/exclusions", h.AddExclusion)
	mux.HandleFunc("DELETE /api/v1/exclusions/{login}", h.RemoveExclusion)
	mux.HandleFunc("POST /api/v1/refresh", h.TriggerRefresh)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// ApplyMiddleware wraps the handler with logging and recovery middleware.
// Recovery sits innermost so panics are caught before the request is logged.
func ApplyMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	wrapped := recoveryMiddleware(logger, next)
	wrapped = loggingMiddleware(logger, wrapped)
	return wrapped
}

// ListVisiblePRs returns the filtered pull requests together with the
// current fetch state, so the presentation layer can render the loading
// indicator or the error view.
func (h *Handler) ListVisiblePRs(w http.ResponseWriter, _ *http.Request) {
	state := h.feed.State()
	writeJSON(w, http.StatusOK, toFeedResponse(state, state.Visible))
}

// ListAllPRs returns the full accumulated collection, unfiltered.
func (h *Handler) ListAllPRs(w http.ResponseWriter, _ *http.Request) {
	state := h.feed.State()
	writeJSON(w, http.StatusOK, toFeedResponse(state, state.Accumulated))
}

// ListExclusions returns the excluded-author logins in insertion order.
func (h *Handler) ListExclusions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ExclusionsResponse{
		ExcludedAuthors: h.feed.ExcludedAuthors(),
	})
}

// AddExclusion adds a login to the excluded-author set. Adding a blank or
// already-present login is a no-op, answered with 200 instead of 201; the
// visible collection is recomputed synchronously either way.
func (h *Handler) AddExclusion(w http.ResponseWriter, r *http.Request) {
	var req AddExclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := http.StatusOK
	if h.feed.ExcludeAuthor(req.Login) {
		status = http.StatusCreated
	}

	writeJSON(w, status, ExclusionsResponse{
		ExcludedAuthors: h.feed.ExcludedAuthors(),
	})
}

// RemoveExclusion removes a login from the excluded-author set.
func (h *Handler) RemoveExclusion(w http.ResponseWriter, r *http.Request) {
	login := r.PathValue("login")

	if !h.feed.IncludeAuthor(login) {
		writeError(w, http.StatusNotFound, "author not excluded")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TriggerRefresh starts a new fetch from page 1, superseding any fetch in
// flight. The fetch runs in the background with a fresh context since the
// HTTP request context is cancelled after the response is sent.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, _ *http.Request) {
	go func() {
		if err := h.feed.Refresh(context.Background()); err != nil {
			h.logger.Error("manual refresh failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "refresh started"})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
