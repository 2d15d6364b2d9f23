package driven

import "fmt"

// TransportError indicates the request to the upstream API could not
// complete at all (DNS failure, connection refused, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("github request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamStatusError indicates the upstream API responded with a non-2xx
// status. Status carries the code and reason phrase verbatim (e.g.
// "403 Forbidden") so it can be surfaced to the user unchanged.
type UpstreamStatusError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("github responded with %s", e.Status)
}

// MalformedResponseError indicates a 2xx response whose body could not be
// parsed as the expected structure. It aborts the fetch the same way an
// UpstreamStatusError does.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("github returned a malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
