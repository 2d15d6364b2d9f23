package model

// PRStatus represents the state of a pull request. Only open PRs are ever
// requested from the upstream API, but the state is carried through as
// reported.
type PRStatus string

const (
	PRStatusOpen   PRStatus = "open"
	PRStatusClosed PRStatus = "closed"
)

// FetchPhase represents the lifecycle state of the pull request fetch.
type FetchPhase string

const (
	FetchIdle    FetchPhase = "idle"    // No fetch has run, or a completed one has been consumed.
	FetchLoading FetchPhase = "loading" // A paginated fetch is in flight.
	FetchReady   FetchPhase = "ready"   // The last fetch completed successfully.
	FetchError   FetchPhase = "error"   // The last fetch aborted with an error.
)
