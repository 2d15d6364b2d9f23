package driven

import (
	"context"
	"time"

	"github.com/mkendall/contribview/internal/domain/model"
)

// SnapshotStore defines the driven port for persisting the last complete
// fetch result. A snapshot only caches upstream data so the dashboard is
// warm after a restart; it never stores excluded-author edits.
type SnapshotStore interface {
	// Replace atomically swaps the stored snapshot for the given collection.
	Replace(ctx context.Context, prs []model.PullRequest, fetchedAt time.Time) error
	// Load returns the stored snapshot in its original order, together with
	// the time it was fetched. An empty store yields an empty slice and a
	// zero time, not an error.
	Load(ctx context.Context) ([]model.PullRequest, time.Time, error)
}
