package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// history is an in-memory Backend. Commits are named; their ids are derived
// from the name so tests can refer to them symbolically.
type history struct {
	commits map[CommitID]*CommitRecord
	tags    map[plumbing.Hash]plumbing.Hash
	refs    []Reference
	names   map[CommitID]string

	getCalls int
	bulkErr  error
}

func newHistory() *history {
	return &history{
		commits: make(map[CommitID]*CommitRecord),
		tags:    make(map[plumbing.Hash]plumbing.Hash),
		names:   make(map[CommitID]string),
	}
}

func idOf(name string) CommitID {
	return plumbing.ComputeHash(plumbing.CommitObject, []byte(name))
}

// commit adds a commit made `minute` minutes after the epoch.
func (h *history) commit(name string, minute int, parents ...string) CommitID {
	ids := make([]CommitID, len(parents))
	for i, p := range parents {
		ids[i] = idOf(p)
	}
	id := idOf(name)
	h.commits[id] = NewCommitRecord(id, name+"\n\nbody of "+name, epoch.Add(time.Duration(minute)*time.Minute), ids...)
	h.names[id] = name
	return id
}

// linear adds names as a chain, oldest last, one minute apart, ending at
// minute start.
func (h *history) linear(start int, names ...string) {
	for i := len(names) - 1; i >= 0; i-- {
		var parents []string
		if i+1 < len(names) {
			parents = []string{names[i+1]}
		}
		h.commit(names[i], start-i, parents...)
	}
}

func (h *history) branch(name, target string) {
	h.refs = append(h.refs, Reference{Name: plumbing.NewBranchReferenceName(name), Target: idOf(target)})
}

func (h *history) head(name, target string) {
	h.refs = append(h.refs, Reference{Name: plumbing.NewBranchReferenceName(name), Target: idOf(target), IsHead: true})
}

func (h *history) remote(remote, name, target string) {
	h.refs = append(h.refs, Reference{Name: plumbing.NewRemoteReferenceName(remote, name), Target: idOf(target)})
}

// annotated adds a tag object pointing at target and a ref pointing at the
// tag object.
func (h *history) annotated(name, target string) {
	tagID := plumbing.ComputeHash(plumbing.TagObject, []byte(name))
	h.tags[tagID] = idOf(target)
	h.refs = append(h.refs, Reference{Name: plumbing.NewTagReferenceName(name), Target: tagID, IsTag: true})
}

func (h *history) name(id CommitID) string {
	if n, ok := h.names[id]; ok {
		return n
	}
	return id.String()
}

func (h *history) namesOf(seq RowSequence) []string {
	out := make([]string, len(seq))
	for i, r := range seq {
		out[i] = h.name(r.ID())
	}
	return out
}

func (h *history) ListReferences(ctx context.Context) ([]Reference, error) {
	return h.refs, nil
}

func (h *history) GetCommit(ctx context.Context, id CommitID) (*CommitRecord, error) {
	h.getCalls++
	c, ok := h.commits[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrCommitNotFound)
	}
	return c, nil
}

func (h *history) ResolveCommit(ctx context.Context, id CommitID) (CommitID, error) {
	for i := 0; i < 10; i++ {
		target, ok := h.tags[id]
		if !ok {
			break
		}
		id = target
	}
	if _, ok := h.commits[id]; !ok {
		return plumbing.ZeroHash, fmt.Errorf("%s: %w", id, ErrNotCommit)
	}
	return id, nil
}

// bulkHistory also implements Traverser.
type bulkHistory struct {
	*history
	bulkCalls int
}

func (b *bulkHistory) BoundedTraversal(ctx context.Context, tips []CommitID, limit int) ([]*CommitRecord, error) {
	b.bulkCalls++
	if b.bulkErr != nil {
		return nil, b.bulkErr
	}
	var out []*CommitRecord
	seen := make(map[CommitID]bool)
	queue := append([]CommitID(nil), tips...)
	for len(queue) > 0 && len(out) < limit {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := b.commits[id]
		if !ok {
			continue
		}
		out = append(out, c)
		queue = append(queue, c.ParentIDs...)
	}
	return out, nil
}

// rows resolves, walks and orders h.
func (h *history) rows(t *testing.T, limit int) (RowSequence, *Resolution, *WalkResult) {
	t.Helper()
	ctx := context.Background()
	res, err := ResolveReferences(ctx, h, DefaultPrimaryBranch)
	require.NoError(t, err)
	walk, err := Walk(ctx, h, res.Tips, limit)
	require.NoError(t, err)
	return BuildRows(ctx, walk, res.Tips), res, walk
}
