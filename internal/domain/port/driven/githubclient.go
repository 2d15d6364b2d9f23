package driven

import (
	"context"

	"github.com/mkendall/contribview/internal/domain/model"
)

// GitHubClient defines the driven port for fetching pull requests from the
// upstream API. Pagination is driven by the caller: ListOpenPage fetches
// exactly one page so the application can publish results incrementally and
// decide when to stop.
type GitHubClient interface {
	// ListOpenPage fetches a single page of open pull requests. Page numbers
	// start at 1. An empty slice with a nil error signals the end of data.
	// Errors are one of *TransportError, *UpstreamStatusError, or
	// *MalformedResponseError.
	ListOpenPage(ctx context.Context, owner, repo string, page, perPage int) ([]model.PullRequest, error)
}
