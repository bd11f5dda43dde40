package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrCommitNotFound is returned by backends when an object id is unknown.
	ErrCommitNotFound = errors.New("commit not found")
	// ErrNotCommit is returned when a reference peels to a tree or blob.
	ErrNotCommit = errors.New("object is not a commit")
)

// ReferenceResolutionError records a reference that could not be resolved to
// a commit. The reference is skipped; the rest of the graph is still built.
type ReferenceResolutionError struct {
	Ref string
	Err error
}

func (e *ReferenceResolutionError) Error() string {
	return fmt.Sprintf("resolve reference %s: %v", e.Ref, e.Err)
}

func (e *ReferenceResolutionError) Unwrap() error { return e.Err }

// UnsupportedTopologyError aborts a build when a commit has more than two
// parents (an octopus merge).
type UnsupportedTopologyError struct {
	Commit  CommitID
	Parents int
}

func (e *UnsupportedTopologyError) Error() string {
	return fmt.Sprintf("unsupported topology: commit %s has %d parents (at most 2 are supported)", e.Commit, e.Parents)
}

// TraversalLimitReached reports that the walk stopped at Limit commits while
// more history was reachable. It is a notice, not a failure.
type TraversalLimitReached struct {
	Limit int `json:"limit"`
}

func (t *TraversalLimitReached) Error() string {
	return fmt.Sprintf("history truncated at %d commits", t.Limit)
}
