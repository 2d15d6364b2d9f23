package web_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkendall/contribview/internal/adapter/driving/web"
	"github.com/mkendall/contribview/internal/application"
	"github.com/mkendall/contribview/internal/domain/model"
)

// stubGitHubClient serves a fixed single page of pull requests.
type stubGitHubClient struct {
	prs []model.PullRequest
}

func (s *stubGitHubClient) ListOpenPage(_ context.Context, _, _ string, page, _ int) ([]model.PullRequest, error) {
	if page > 1 {
		return []model.PullRequest{}, nil
	}
	return s.prs, nil
}

func newTestMux(t *testing.T, prs []model.PullRequest) *http.ServeMux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	feed := application.NewFeedService(&stubGitHubClient{prs: prs}, nil, "owner", "repo", 100, 10, time.Second, nil, logger)
	require.NoError(t, feed.Refresh(context.Background()))

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.NewHandler(feed, logger))
	return mux
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDashboard(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := get(mux, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Open Pull Requests")
}

func TestStaticAssets(t *testing.T) {
	mux := newTestMux(t, nil)

	assert.Equal(t, http.StatusOK, get(mux, "/static/app.js").Code)
	assert.Equal(t, http.StatusOK, get(mux, "/static/style.css").Code)
	assert.Equal(t, http.StatusNotFound, get(mux, "/static/missing.js").Code)
}

func TestPRDescription(t *testing.T) {
	mux := newTestMux(t, []model.PullRequest{
		{Number: 7, Title: "Fix parser", Author: "alice", Body: "fixes the **tokenizer**"},
	})

	rec := get(mux, "/prs/7/description")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<strong>tokenizer</strong>")
}

func TestPRDescription_NotResident(t *testing.T) {
	mux := newTestMux(t, nil)

	assert.Equal(t, http.StatusNotFound, get(mux, "/prs/7/description").Code)
}

func TestPRDescription_InvalidNumber(t *testing.T) {
	mux := newTestMux(t, nil)

	assert.Equal(t, http.StatusBadRequest, get(mux, "/prs/abc/description").Code)
}
