package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mkendall/contribview/internal/application"
	"github.com/mkendall/contribview/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// FeedResponse carries a pull request collection plus the fetch state the
// presentation layer needs for its loading and error views.
type FeedResponse struct {
	Phase           string       `json:"phase"`
	Error           string       `json:"error,omitempty"`
	FetchedAt       string       `json:"fetched_at,omitempty"`
	Total           int          `json:"total"`
	PullRequests    []PRResponse `json:"pull_requests"`
	ExcludedAuthors []string     `json:"excluded_authors"`
}

// PRResponse is the JSON representation of a pull request.
type PRResponse struct {
	ID              int64                 `json:"id"`
	Number          int                   `json:"number"`
	Title           string                `json:"title"`
	Author          string                `json:"author"`
	AuthorAvatarURL string                `json:"author_avatar_url"`
	State           string                `json:"state"`
	URL             string                `json:"url"`
	Labels          []LabelResponse       `json:"labels"`
	Assignees       []ParticipantResponse `json:"assignees"`
	Reviewers       []ParticipantResponse `json:"reviewers"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
	DaysSinceOpened int                   `json:"days_since_opened"`
}

// LabelResponse is the JSON representation of a repository label.
type LabelResponse struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ParticipantResponse is the JSON representation of an assignee or reviewer.
type ParticipantResponse struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// ExclusionsResponse is the JSON representation of the excluded-author set.
type ExclusionsResponse struct {
	ExcludedAuthors []string `json:"excluded_authors"`
}

// AddExclusionRequest is the JSON body for the add exclusion endpoint.
type AddExclusionRequest struct {
	Login string `json:"login"`
}

// StatusResponse is a minimal acknowledgement body.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toFeedResponse converts a feed state and the chosen collection (visible or
// accumulated) to the JSON response representation. Total always reports the
// accumulated count so clients can tell how many records the filter hid.
func toFeedResponse(state application.FeedState, prs []model.PullRequest) FeedResponse {
	resp := FeedResponse{
		Phase:           string(state.Phase),
		Error:           state.Err,
		Total:           len(state.Accumulated),
		PullRequests:    make([]PRResponse, 0, len(prs)),
		ExcludedAuthors: state.ExcludedAuthors,
	}

	if !state.FetchedAt.IsZero() {
		resp.FetchedAt = state.FetchedAt.UTC().Format(time.RFC3339)
	}

	for _, pr := range prs {
		resp.PullRequests = append(resp.PullRequests, toPRResponse(pr))
	}

	return resp
}

// toPRResponse converts a domain PullRequest to its JSON response representation.
func toPRResponse(pr model.PullRequest) PRResponse {
	labels := make([]LabelResponse, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, LabelResponse{Name: l.Name, Color: l.Color})
	}

	return PRResponse{
		ID:              pr.ID,
		Number:          pr.Number,
		Title:           pr.Title,
		Author:          pr.Author,
		AuthorAvatarURL: pr.AuthorAvatarURL,
		State:           string(pr.State),
		URL:             pr.URL,
		Labels:          labels,
		Assignees:       toParticipantResponses(pr.Assignees),
		Reviewers:       toParticipantResponses(pr.Reviewers),
		CreatedAt:       pr.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       pr.UpdatedAt.UTC().Format(time.RFC3339),
		DaysSinceOpened: pr.DaysSinceOpened(),
	}
}

// toParticipantResponses converts domain participants to their JSON representation.
func toParticipantResponses(participants []model.Participant) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, ParticipantResponse{Login: p.Login, AvatarURL: p.AvatarURL})
	}
	return out
}
