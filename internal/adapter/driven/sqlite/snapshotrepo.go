package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkendall/contribview/internal/domain/model"
	"github.com/mkendall/contribview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port. It
// holds at most one snapshot: the last complete successful fetch. The
// position column preserves the original fetch order across the round-trip.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Replace swaps the stored snapshot for the given collection in a single
// transaction, so readers never observe a half-written snapshot.
func (r *SnapshotRepo) Replace(ctx context.Context, prs []model.PullRequest, fetchedAt time.Time) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pull_requests`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	const insert = `
		INSERT INTO pull_requests (
			position, id, number, title, body, author, author_avatar_url,
			state, url, labels, assignees, reviewers, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, pr := range prs {
		labels, err := marshalJSON(pr.Labels)
		if err != nil {
			return fmt.Errorf("marshal labels for PR #%d: %w", pr.Number, err)
		}
		assignees, err := marshalJSON(pr.Assignees)
		if err != nil {
			return fmt.Errorf("marshal assignees for PR #%d: %w", pr.Number, err)
		}
		reviewers, err := marshalJSON(pr.Reviewers)
		if err != nil {
			return fmt.Errorf("marshal reviewers for PR #%d: %w", pr.Number, err)
		}

		_, err = tx.ExecContext(ctx, insert,
			i, pr.ID, pr.Number, pr.Title, pr.Body, pr.Author, pr.AuthorAvatarURL,
			string(pr.State), pr.URL, labels, assignees, reviewers,
			formatTime(pr.CreatedAt), formatTime(pr.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert snapshot PR #%d: %w", pr.Number, err)
		}
	}

	const upsertMeta = `
		INSERT INTO snapshot_meta (id, fetched_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at
	`
	if _, err := tx.ExecContext(ctx, upsertMeta, formatTime(fetchedAt)); err != nil {
		return fmt.Errorf("update snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot replace: %w", err)
	}
	return nil
}

// Load returns the stored snapshot in fetch order. An empty store yields an
// empty slice and a zero fetched-at time.
func (r *SnapshotRepo) Load(ctx context.Context) ([]model.PullRequest, time.Time, error) {
	const query = `
		SELECT id, number, title, body, author, author_avatar_url,
		       state, url, labels, assignees, reviewers, created_at, updated_at
		FROM pull_requests
		ORDER BY position
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	prs := []model.PullRequest{}
	for rows.Next() {
		var pr model.PullRequest
		var state, labels, assignees, reviewers, createdAt, updatedAt string

		err := rows.Scan(
			&pr.ID, &pr.Number, &pr.Title, &pr.Body, &pr.Author, &pr.AuthorAvatarURL,
			&state, &pr.URL, &labels, &assignees, &reviewers, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("scan snapshot PR: %w", err)
		}

		pr.State = model.PRStatus(state)

		if err := json.Unmarshal([]byte(labels), &pr.Labels); err != nil {
			return nil, time.Time{}, fmt.Errorf("unmarshal labels for PR #%d: %w", pr.Number, err)
		}
		if err := json.Unmarshal([]byte(assignees), &pr.Assignees); err != nil {
			return nil, time.Time{}, fmt.Errorf("unmarshal assignees for PR #%d: %w", pr.Number, err)
		}
		if err := json.Unmarshal([]byte(reviewers), &pr.Reviewers); err != nil {
			return nil, time.Time{}, fmt.Errorf("unmarshal reviewers for PR #%d: %w", pr.Number, err)
		}

		if pr.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("parse created_at for PR #%d: %w", pr.Number, err)
		}
		if pr.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("parse updated_at for PR #%d: %w", pr.Number, err)
		}

		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate snapshot PRs: %w", err)
	}

	fetchedAt, err := r.loadFetchedAt(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	return prs, fetchedAt, nil
}

// loadFetchedAt reads the snapshot timestamp; zero time if no snapshot exists.
func (r *SnapshotRepo) loadFetchedAt(ctx context.Context) (time.Time, error) {
	const query = `SELECT fetched_at FROM snapshot_meta WHERE id = 1`

	var raw string
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load snapshot meta: %w", err)
	}

	fetchedAt, err := parseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse snapshot fetched_at: %w", err)
	}
	return fetchedAt, nil
}

// marshalJSON serializes a slice for a TEXT column, normalizing nil to "[]".
func marshalJSON[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatTime stores timestamps as RFC 3339 with nanoseconds in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reverses formatTime.
func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}
