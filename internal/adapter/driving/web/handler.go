// Package web implements the HTML GUI driving adapter. The dashboard is a
// single embedded static page driven by the JSON API; the only server-side
// rendering is the sanitized markdown fragment for a PR description.
package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mkendall/contribview/internal/application"
)

// Handler is the web GUI driving adapter.
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

// Dashboard serves the embedded dashboard page.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, StaticFS, "static/index.html")
}

// PRDescription renders a resident pull request's markdown description as a
// sanitized HTML fragment for the dashboard's expandable detail view.
func (h *Handler) PRDescription(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		http.Error(w, "invalid PR number", http.StatusBadRequest)
		return
	}

	pr := h.feed.FindPullRequest(number)
	if pr == nil {
		http.Error(w, "pull request not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(RenderMarkdown(pr.Body))); err != nil {
		h.logger.Error("failed to write PR description", "pr", number, "error", err)
	}
}
