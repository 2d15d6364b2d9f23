package model

import "time"

// PullRequest represents one open pull request fetched from the upstream
// repository. Records are immutable once fetched; the application only
// filters them in or out of the visible view.
type PullRequest struct {
	ID              int64
	Number          int
	Title           string
	Body            string // Raw markdown description.
	Author          string
	AuthorAvatarURL string
	State           PRStatus
	URL             string
	Labels          []Label
	Assignees       []Participant
	Reviewers       []Participant
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Label is a repository label attached to a pull request.
type Label struct {
	Name  string
	Color string
}

// Participant is a user referenced by a pull request (assignee or
// requested reviewer).
type Participant struct {
	Login     string
	AvatarURL string
}

// DaysSinceOpened returns the number of days since the PR was opened.
func (pr PullRequest) DaysSinceOpened() int {
	return int(time.Since(pr.CreatedAt).Hours() / 24)
}
