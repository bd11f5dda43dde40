// Package graph assembles per-branch commit history into an ordered, laned
// sequence of rows ready to be drawn as a branching commit graph.
//
// The work is a strict pipeline: ResolveReferences, Walk, BuildRows and
// Layout. Build runs all four against a Backend.
package graph

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// CommitID is the raw 20-byte object hash of a commit. It is used as the
// key of every map in this package.
type CommitID = plumbing.Hash

// CommitRecord is a commit as supplied by the backend. It is never modified
// after creation.
type CommitRecord struct {
	ID        CommitID
	Summary   string
	Message   string
	Timestamp time.Time
	ParentIDs []CommitID
}

// NewCommitRecord builds a record and derives the summary from the first
// non-empty line of the message.
func NewCommitRecord(id CommitID, message string, when time.Time, parents ...CommitID) *CommitRecord {
	return &CommitRecord{
		ID:        id,
		Summary:   summaryOf(message),
		Message:   message,
		Timestamp: when,
		ParentIDs: parents,
	}
}

func summaryOf(message string) string {
	for _, line := range strings.Split(message, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// AheadBehind counts commits unique to a branch (Ahead) and to its upstream
// (Behind).
type AheadBehind struct {
	Ahead  int `json:"ahead"`
	Behind int `json:"behind"`
}

// Reference is a ref as listed by the backend.
type Reference struct {
	// Name is the full reference name ("refs/heads/main") or "HEAD" for a
	// detached head.
	Name plumbing.ReferenceName
	// Target is the object the ref points at. For annotated tags this is the
	// tag object, not the commit.
	Target      plumbing.Hash
	IsHead      bool
	IsTag       bool
	AheadBehind *AheadBehind
}

// ReferenceLabel is a branch or tag name attached to a commit.
type ReferenceLabel struct {
	DisplayName string       `json:"name"`
	Target      CommitID     `json:"-"`
	AheadBehind *AheadBehind `json:"aheadBehind,omitempty"`
}

// String renders the label with its ahead/behind counts, if any.
func (l ReferenceLabel) String() string {
	if l.AheadBehind == nil || (l.AheadBehind.Ahead == 0 && l.AheadBehind.Behind == 0) {
		return l.DisplayName
	}
	var sb strings.Builder
	sb.WriteString(l.DisplayName)
	if l.AheadBehind.Ahead > 0 {
		sb.WriteString(" ↑")
		sb.WriteString(strconv.Itoa(l.AheadBehind.Ahead))
	}
	if l.AheadBehind.Behind > 0 {
		sb.WriteString(" ↓")
		sb.WriteString(strconv.Itoa(l.AheadBehind.Behind))
	}
	return sb.String()
}

// LabelMap maps a commit to its labels in discovery order.
type LabelMap map[CommitID][]ReferenceLabel

// Names returns the formatted label strings for id.
func (m LabelMap) Names(id CommitID) []string {
	labels := m[id]
	if len(labels) == 0 {
		return nil
	}
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.String()
	}
	return names
}

// GraphRow is one commit in the row sequence. Lane is a placeholder until
// Layout resolves it; -1 means unassigned.
type GraphRow struct {
	Lane      int
	Commit    *CommitRecord
	ParentIDs []CommitID
	ChildIDs  []CommitID
}

// ID returns the row's commit id.
func (r *GraphRow) ID() CommitID { return r.Commit.ID }

// RowSequence is the ordered list of rows, newest first. Every commit id
// appears once and children precede their parents.
type RowSequence []*GraphRow

// IDs returns the commit ids in row order.
func (s RowSequence) IDs() []CommitID {
	ids := make([]CommitID, len(s))
	for i, r := range s {
		ids[i] = r.ID()
	}
	return ids
}

// Index maps each commit id to its row index.
func (s RowSequence) Index() map[CommitID]int {
	idx := make(map[CommitID]int, len(s))
	for i, r := range s {
		idx[r.ID()] = i
	}
	return idx
}
