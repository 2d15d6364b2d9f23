package model

import "strings"

// ExcludedAuthorSet is an ordered set of author logins whose pull requests
// are hidden from the visible view. Entries are unique, matched
// case-sensitively, and kept in insertion order for display. The set is not
// safe for concurrent use; callers serialize access.
type ExcludedAuthorSet struct {
	logins []string
}

// NewExcludedAuthorSet builds a set from the configured defaults. Entries
// are trimmed, and empty or duplicate entries are dropped, preserving the
// order of first appearance.
func NewExcludedAuthorSet(defaults ...string) *ExcludedAuthorSet {
	s := &ExcludedAuthorSet{}
	for _, login := range defaults {
		s.Add(login)
	}
	return s
}

// Add appends a login to the set. The login is trimmed first; adding an
// empty or already-present login is a no-op. Reports whether the set changed.
func (s *ExcludedAuthorSet) Add(login string) bool {
	login = strings.TrimSpace(login)
	if login == "" || s.Contains(login) {
		return false
	}
	s.logins = append(s.logins, login)
	return true
}

// Remove deletes the exact matching login if present. Reports whether the
// set changed.
func (s *ExcludedAuthorSet) Remove(login string) bool {
	for i, l := range s.logins {
		if l == login {
			s.logins = append(s.logins[:i], s.logins[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether login is in the set (exact, case-sensitive match).
func (s *ExcludedAuthorSet) Contains(login string) bool {
	for _, l := range s.logins {
		if l == login {
			return true
		}
	}
	return false
}

// Logins returns the entries in insertion order. The returned slice is a copy.
func (s *ExcludedAuthorSet) Logins() []string {
	out := make([]string, len(s.logins))
	copy(out, s.logins)
	return out
}

// Len returns the number of entries in the set.
func (s *ExcludedAuthorSet) Len() int {
	return len(s.logins)
}
