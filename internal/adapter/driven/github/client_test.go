package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	ghAdapter "github.com/mkendall/contribview/internal/adapter/driven/github"
	"github.com/mkendall/contribview/internal/domain/model"
	"github.com/mkendall/contribview/internal/domain/port/driven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) (*ghAdapter.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)

	return client, server
}

// prJSON is a helper struct for building GitHub API pull request responses.
type prJSON struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	State     string     `json:"state"`
	HTMLURL   string     `json:"html_url"`
	User      userJSON   `json:"user"`
	Labels    []lblJSON  `json:"labels"`
	Assignees []userJSON `json:"assignees"`
	Reviewers []userJSON `json:"requested_reviewers"`
	Created   string     `json:"created_at"`
	Updated   string     `json:"updated_at"`
}

type userJSON struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

type lblJSON struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func TestListOpenPage_Mapping(t *testing.T) {
	prs := []prJSON{
		{
			ID:      9001,
			Number:  42,
			Title:   "Add feature X",
			Body:    "Implements **feature X**.",
			State:   "open",
			HTMLURL: "https://github.com/owner/repo/pull/42",
			User:    userJSON{Login: "alice", AvatarURL: "https://avatars.example/alice"},
			Labels:  []lblJSON{{Name: "enhancement", Color: "a2eeef"}, {Name: "priority:high", Color: "d73a4a"}},
			Assignees: []userJSON{
				{Login: "carol", AvatarURL: "https://avatars.example/carol"},
			},
			Reviewers: []userJSON{
				{Login: "dave", AvatarURL: "https://avatars.example/dave"},
				{Login: "erin", AvatarURL: "https://avatars.example/erin"},
			},
			Created: "2026-01-01T00:00:00Z",
			Updated: "2026-01-02T12:00:00Z",
		},
		{
			ID:      9002,
			Number:  43,
			Title:   "Fix bug Y",
			State:   "open",
			HTMLURL: "https://github.com/owner/repo/pull/43",
			User:    userJSON{Login: "bob"},
			Created: "2026-01-03T00:00:00Z",
			Updated: "2026-01-04T00:00:00Z",
		},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prs)
	})

	client, _ := newTestClient(t, handler)
	result, err := client.ListOpenPage(context.Background(), "owner", "repo", 1, 50)

	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, int64(9001), result[0].ID)
	assert.Equal(t, 42, result[0].Number)
	assert.Equal(t, "Add feature X", result[0].Title)
	assert.Equal(t, "Implements **feature X**.", result[0].Body)
	assert.Equal(t, "alice", result[0].Author)
	assert.Equal(t, "https://avatars.example/alice", result[0].AuthorAvatarURL)
	assert.Equal(t, model.PRStatusOpen, result[0].State)
	assert.Equal(t, "https://github.com/owner/repo/pull/42", result[0].URL)
	assert.Equal(t, []model.Label{
		{Name: "enhancement", Color: "a2eeef"},
		{Name: "priority:high", Color: "d73a4a"},
	}, result[0].Labels)
	assert.Equal(t, []model.Participant{
		{Login: "carol", AvatarURL: "https://avatars.example/carol"},
	}, result[0].Assignees)
	assert.Equal(t, []model.Participant{
		{Login: "dave", AvatarURL: "https://avatars.example/dave"},
		{Login: "erin", AvatarURL: "https://avatars.example/erin"},
	}, result[0].Reviewers)
	assert.Equal(t, "2026-01-01T00:00:00Z", result[0].CreatedAt.Format("2006-01-02T15:04:05Z"))

	assert.Equal(t, 43, result[1].Number)
	assert.Equal(t, "bob", result[1].Author)
	assert.Empty(t, result[1].Labels)
	assert.Empty(t, result[1].Assignees)
	assert.Empty(t, result[1].Reviewers)
}

func TestListOpenPage_SendsPageParams(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]prJSON{})
	})

	client, _ := newTestClient(t, handler)
	result, err := client.ListOpenPage(context.Background(), "owner", "repo", 3, 50)

	require.NoError(t, err)
	assert.Empty(t, result, "empty page should map to empty slice")
	assert.NotNil(t, result, "empty page should not be nil")
}

func TestListOpenPage_UpstreamStatusError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"message": "rate limit exceeded"})
	})

	client, _ := newTestClient(t, handler)
	_, err := client.ListOpenPage(context.Background(), "owner", "repo", 1, 50)

	require.Error(t, err)
	var statusErr *driven.UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "403")
}

func TestListOpenPage_PrimaryRateLimit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1767225600")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"message": "API rate limit exceeded"})
	})

	client, _ := newTestClient(t, handler)
	_, err := client.ListOpenPage(context.Background(), "owner", "repo", 1, 50)

	require.Error(t, err)
	var statusErr *driven.UpstreamStatusError
	require.ErrorAs(t, err, &statusErr, "rate-limited responses carry a status, got %T: %v", err, err)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "403")
}

func TestListOpenPage_SecondaryRateLimit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"message":           "You have exceeded a secondary rate limit. Please wait a few minutes before you try again.",
			"documentation_url": "https://docs.github.com/rest/overview/rate-limits-for-the-rest-api#about-secondary-rate-limits",
		})
	})

	client, _ := newTestClient(t, handler)
	_, err := client.ListOpenPage(context.Background(), "owner", "repo", 1, 50)

	require.Error(t, err)
	var statusErr *driven.UpstreamStatusError
	require.ErrorAs(t, err, &statusErr, "abuse-limited responses carry a status, got %T: %v", err, err)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestListOpenPage_MalformedResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"this is": "not an array"`))
	})

	client, _ := newTestClient(t, handler)
	_, err := client.ListOpenPage(context.Background(), "owner", "repo", 1, 50)

	require.Error(t, err)
	var malformedErr *driven.MalformedResponseError
	assert.True(t, errors.As(err, &malformedErr), "expected MalformedResponseError, got %T: %v", err, err)
}

func TestListOpenPage_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)
	server.Close() // Connection refused from here on.

	_, err = client.ListOpenPage(context.Background(), "owner", "repo", 1, 50)

	require.Error(t, err)
	var transportErr *driven.TransportError
	assert.True(t, errors.As(err, &transportErr), "expected TransportError, got %T: %v", err, err)
}
