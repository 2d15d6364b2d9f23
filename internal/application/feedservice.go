// Package application contains use-case orchestration services.
package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mkendall/contribview/internal/domain/model"
	"github.com/mkendall/contribview/internal/domain/port/driven"
)

// FeedState is a point-in-time copy of the feed for driving adapters.
// Slices are copies; callers may not observe later mutations through them.
type FeedState struct {
	Phase           model.FetchPhase
	Err             string
	Accumulated     []model.PullRequest
	Visible         []model.PullRequest
	ExcludedAuthors []string
	FetchedAt       time.Time
}

// FeedService owns the fetch-and-filter pipeline: it drives sequential page
// retrieval from the GitHub port, accumulates records, and maintains the
// visible subset derived from the excluded-author set.
//
// Exactly one fetch is in flight at a time: a new Refresh cancels the
// previous one and bumps a generation counter, so a superseded fetch can
// never publish results over a newer one.
type FeedService struct {
	client      driven.GitHubClient
	snapshots   driven.SnapshotStore // Optional; nil disables persistence.
	owner       string
	repo        string
	perPage     int
	maxPages    int
	pageTimeout time.Duration
	logger      *slog.Logger

	mu          sync.RWMutex
	generation  uint64
	cancel      context.CancelFunc
	phase       model.FetchPhase
	fetchErr    string
	accumulated []model.PullRequest
	excluded    *model.ExcludedAuthorSet
	visible     []model.PullRequest
	fetchedAt   time.Time
}

// NewFeedService creates a FeedService for a single repository. snapshots
// may be nil. defaultExcluded seeds the excluded-author set; edits to the
// set live only in process memory.
func NewFeedService(
	client driven.GitHubClient,
	snapshots driven.SnapshotStore,
	owner, repo string,
	perPage, maxPages int,
	pageTimeout time.Duration,
	defaultExcluded []string,
	logger *slog.Logger,
) *FeedService {
	excluded := model.NewExcludedAuthorSet(defaultExcluded...)

	return &FeedService{
		client:      client,
		snapshots:   snapshots,
		owner:       owner,
		repo:        repo,
		perPage:     perPage,
		maxPages:    maxPages,
		pageTimeout: pageTimeout,
		logger:      logger,
		phase:       model.FetchIdle,
		excluded:    excluded,
		visible:     []model.PullRequest{},
	}
}

// Refresh runs a full paginated fetch from page 1, replacing the accumulated
// collection. After each page the accumulated and visible collections are
// published immediately, so readers see partial results while later pages
// are still in flight. The fetch stops on an empty page or the page cap;
// any error aborts it and is returned after the state transitions to error.
//
// If a refresh is already running it is canceled and superseded.
func (s *FeedService) Refresh(ctx context.Context) error {
	ctx, gen := s.beginRefresh(ctx)

	start := time.Now()
	pages := 0

	for page := 1; page <= s.maxPages; page++ {
		prs, err := s.fetchPage(ctx, page)
		if err != nil {
			s.failRefresh(gen, err)
			return err
		}

		if len(prs) == 0 {
			break
		}

		pages++
		if !s.publishPage(gen, prs) {
			// A newer refresh took over; abandon this one quietly.
			return nil
		}
	}

	s.completeRefresh(ctx, gen, pages, start)
	return nil
}

// ExcludeAuthor adds a login to the excluded set and synchronously
// recomputes the visible collection. Reports whether the set changed
// (whitespace-only and duplicate logins are no-ops).
func (s *FeedService) ExcludeAuthor(login string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.excluded.Add(login) {
		return false
	}
	s.visible = FilterExcludedAuthors(s.accumulated, s.excluded)
	return true
}

// IncludeAuthor removes a login from the excluded set and synchronously
// recomputes the visible collection. Reports whether the set changed.
func (s *FeedService) IncludeAuthor(login string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.excluded.Remove(login) {
		return false
	}
	s.visible = FilterExcludedAuthors(s.accumulated, s.excluded)
	return true
}

// ExcludedAuthors returns the excluded logins in insertion order.
func (s *FeedService) ExcludedAuthors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.excluded.Logins()
}

// State returns a copy of the current feed state.
func (s *FeedService) State() FeedState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accumulated := make([]model.PullRequest, len(s.accumulated))
	copy(accumulated, s.accumulated)
	visible := make([]model.PullRequest, len(s.visible))
	copy(visible, s.visible)

	return FeedState{
		Phase:           s.phase,
		Err:             s.fetchErr,
		Accumulated:     accumulated,
		Visible:         visible,
		ExcludedAuthors: s.excluded.Logins(),
		FetchedAt:       s.fetchedAt,
	}
}

// FindPullRequest returns the accumulated record with the given number, or
// nil if it is not resident.
func (s *FeedService) FindPullRequest(number int) *model.PullRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pr := range s.accumulated {
		if pr.Number == number {
			copied := pr
			return &copied
		}
	}
	return nil
}

// LoadSnapshot pre-populates the accumulated collection from the snapshot
// store so the feed is warm before the first live fetch. It is a no-op when
// no store is configured, the store is empty, or a refresh has already run.
func (s *FeedService) LoadSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	prs, fetchedAt, err := s.snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if len(prs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != 0 {
		return nil
	}

	s.accumulated = prs
	s.visible = FilterExcludedAuthors(s.accumulated, s.excluded)
	s.fetchedAt = fetchedAt

	s.logger.Info("snapshot loaded",
		"repo", s.owner+"/"+s.repo,
		"count", len(prs),
		"fetched_at", fetchedAt,
	)
	return nil
}

// beginRefresh cancels any in-flight fetch, resets the feed to loading, and
// returns the derived context plus the generation owned by this refresh.
func (s *FeedService) beginRefresh(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.generation++
	s.phase = model.FetchLoading
	s.fetchErr = ""
	s.accumulated = nil
	s.visible = []model.PullRequest{}

	return ctx, s.generation
}

// fetchPage retrieves one page under the configured per-page timeout.
func (s *FeedService) fetchPage(ctx context.Context, page int) ([]model.PullRequest, error) {
	pageCtx, cancel := context.WithTimeout(ctx, s.pageTimeout)
	defer cancel()

	return s.client.ListOpenPage(pageCtx, s.owner, s.repo, page, s.perPage)
}

// publishPage appends a fetched page and recomputes the visible collection.
// Reports false when this refresh has been superseded.
func (s *FeedService) publishPage(gen uint64, prs []model.PullRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}

	s.accumulated = append(s.accumulated, prs...)
	s.visible = FilterExcludedAuthors(s.accumulated, s.excluded)
	return true
}

// failRefresh records the fetch error. Pages accumulated before the failure
// stay resident; the presentation layer decides how to surface them.
func (s *FeedService) failRefresh(gen uint64, err error) {
	s.mu.Lock()
	if gen == s.generation {
		s.phase = model.FetchError
		s.fetchErr = err.Error()
	}
	s.mu.Unlock()

	s.logger.Error("pull request fetch failed",
		"repo", s.owner+"/"+s.repo,
		"error", err,
	)
}

// completeRefresh marks the fetch ready and persists the snapshot.
func (s *FeedService) completeRefresh(ctx context.Context, gen uint64, pages int, start time.Time) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}

	s.phase = model.FetchReady
	s.fetchedAt = time.Now().UTC()
	fetchedAt := s.fetchedAt
	snapshot := make([]model.PullRequest, len(s.accumulated))
	copy(snapshot, s.accumulated)
	s.mu.Unlock()

	s.logger.Info("pull request fetch complete",
		"repo", s.owner+"/"+s.repo,
		"pages", pages,
		"count", len(snapshot),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if s.snapshots == nil || ctx.Err() != nil {
		return
	}
	if err := s.snapshots.Replace(ctx, snapshot, fetchedAt); err != nil {
		s.logger.Error("snapshot persist failed", "error", err)
	}
}
