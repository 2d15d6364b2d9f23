// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/mkendall/contribview/internal/domain/model"
	"github.com/mkendall/contribview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client)
//
// token may be empty; unauthenticated requests are valid and merely subject
// to lower rate limits.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// ListOpenPage fetches one page of open pull requests, ordered as returned
// by the API. An empty result signals the end of data to the caller, which
// drives pagination.
func (c *Client) ListOpenPage(ctx context.Context, owner, repo string, page, perPage int) ([]model.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:     "open",
		Sort:      "created",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, classifyError(err)
	}

	logRateLimit(resp, owner+"/"+repo, page, len(prs))

	mapped := make([]model.PullRequest, 0, len(prs))
	for _, pr := range prs {
		mapped = append(mapped, mapPullRequest(pr))
	}

	return mapped, nil
}

// classifyError sorts a go-github error into the fetch error taxonomy:
// non-2xx statuses, unparseable 2xx bodies, and everything else (DNS,
// connectivity, timeouts). go-github reports rate-limited responses as
// dedicated error types rather than *ErrorResponse, so those are mapped
// onto the status class explicitly.
func classifyError(err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &driven.UpstreamStatusError{
			StatusCode: ghErr.Response.StatusCode,
			Status:     ghErr.Response.Status,
		}
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return &driven.UpstreamStatusError{
			StatusCode: rateErr.Response.StatusCode,
			Status:     rateErr.Response.Status,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return &driven.UpstreamStatusError{
			StatusCode: abuseErr.Response.StatusCode,
			Status:     abuseErr.Response.Status,
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &driven.MalformedResponseError{Err: err}
	}

	return &driven.TransportError{Err: err}
}

// mapPullRequest converts a go-github PullRequest to a domain model PullRequest.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest) model.PullRequest {
	state := model.PRStatusOpen
	if pr.GetState() == "closed" {
		state = model.PRStatusClosed
	}

	labels := make([]model.Label, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, model.Label{
			Name:  l.GetName(),
			Color: l.GetColor(),
		})
	}

	assignees := make([]model.Participant, 0, len(pr.Assignees))
	for _, a := range pr.Assignees {
		assignees = append(assignees, mapParticipant(a))
	}

	reviewers := make([]model.Participant, 0, len(pr.RequestedReviewers))
	for _, r := range pr.RequestedReviewers {
		reviewers = append(reviewers, mapParticipant(r))
	}

	return model.PullRequest{
		ID:              pr.GetID(),
		Number:          pr.GetNumber(),
		Title:           pr.GetTitle(),
		Body:            pr.GetBody(),
		Author:          pr.GetUser().GetLogin(),
		AuthorAvatarURL: pr.GetUser().GetAvatarURL(),
		State:           state,
		URL:             pr.GetHTMLURL(),
		Labels:          labels,
		Assignees:       assignees,
		Reviewers:       reviewers,
		CreatedAt:       pr.GetCreatedAt().Time,
		UpdatedAt:       pr.GetUpdatedAt().Time,
	}
}

// mapParticipant converts a go-github User to a domain model Participant.
func mapParticipant(u *gh.User) model.Participant {
	return model.Participant{
		Login:     u.GetLogin(),
		AvatarURL: u.GetAvatarURL(),
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, repo string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"repo", repo,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
