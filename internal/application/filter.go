package application

import "github.com/mkendall/contribview/internal/domain/model"

// FilterExcludedAuthors returns the pull requests whose author is not in the
// excluded set, preserving the relative order of the input. It is a pure
// function; the FeedService re-invokes it after every mutation of either
// input so the visible collection can never drift out of sync.
func FilterExcludedAuthors(prs []model.PullRequest, excluded *model.ExcludedAuthorSet) []model.PullRequest {
	visible := make([]model.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if excluded.Contains(pr.Author) {
			continue
		}
		visible = append(visible, pr)
	}
	return visible
}
