package graph

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultLimit bounds the number of commits a walk accepts.
const DefaultLimit = 2000

// MaxParents is the largest parent count the layout supports.
const MaxParents = 2

// WalkResult is the commit set discovered from the tips.
type WalkResult struct {
	Visited map[CommitID]*CommitRecord
	// Children maps a commit to the visited commits that list it as a parent.
	Children map[CommitID][]CommitID
	// Order lists visited commits in acceptance order.
	Order     []CommitID
	Truncated bool
	Limit     int
}

// Contains reports whether id was visited.
func (w *WalkResult) Contains(id CommitID) bool {
	_, ok := w.Visited[id]
	return ok
}

// Walk visits history from tips in committer-time order. The first tip is
// walked completely (up to limit); every later tip stops once it reaches
// already visited history that is not newer than the oldest commit accepted
// from the first tip.
func Walk(ctx context.Context, b Backend, tips []*CommitRecord, limit int) (*WalkResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	w := &walker{
		backend: b,
		cache:   make(map[CommitID]*CommitRecord),
		res: &WalkResult{
			Visited:  make(map[CommitID]*CommitRecord),
			Children: make(map[CommitID][]CommitID),
			Limit:    limit,
		},
	}
	w.prefetch(ctx, tips, limit)

	for i, tip := range tips {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		done, err := w.walkTip(ctx, tip, i == 0)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	log.FromContext(ctx).Debug("walked history", "tips", len(tips), "visited", len(w.res.Order), "truncated", w.res.Truncated)
	return w.res, nil
}

type walker struct {
	backend Backend
	cache   map[CommitID]*CommitRecord
	res     *WalkResult
	// horizon is the oldest timestamp accepted from the primary tip.
	horizon    time.Time
	hasHorizon bool
}

// prefetch fills the record cache with a single bulk call when the backend
// supports it. A failing bulk call only costs the optimisation.
func (w *walker) prefetch(ctx context.Context, tips []*CommitRecord, limit int) {
	t, ok := w.backend.(Traverser)
	if !ok || len(tips) == 0 {
		return
	}
	ids := make([]CommitID, len(tips))
	for i, tip := range tips {
		ids[i] = tip.ID
	}
	records, err := t.BoundedTraversal(ctx, ids, limit)
	if err != nil {
		log.FromContext(ctx).Warn("bulk traversal failed, falling back to single lookups", "err", err)
		return
	}
	for _, r := range records {
		w.cache[r.ID] = r
	}
}

// fetch returns the commit for id, or nil if the backend does not have it
// (shallow history).
func (w *walker) fetch(ctx context.Context, id CommitID) (*CommitRecord, error) {
	if c, ok := w.cache[id]; ok {
		return c, nil
	}
	c, err := w.backend.GetCommit(ctx, id)
	if errors.Is(err, ErrCommitNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get commit %s: %w", id, err)
	}
	w.cache[id] = c
	return c, nil
}

func (w *walker) notNewerThanHorizon(c *CommitRecord) bool {
	return w.hasHorizon && !c.Timestamp.After(w.horizon)
}

// walkTip walks one tip. It returns true when the limit has been hit and no
// further tips should be walked.
func (w *walker) walkTip(ctx context.Context, tip *CommitRecord, primary bool) (bool, error) {
	f := &frontier{}
	queued := map[CommitID]bool{tip.ID: true}
	heap.Push(f, frontierItem{commit: tip})
	joined := false

	for f.Len() > 0 {
		c := heap.Pop(f).(frontierItem).commit

		if joined && w.notNewerThanHorizon(c) {
			return false, nil
		}
		if w.res.Contains(c.ID) {
			continue
		}
		if len(w.res.Order) >= w.res.Limit {
			w.res.Truncated = true
			return true, nil
		}
		if len(c.ParentIDs) > MaxParents {
			return false, &UnsupportedTopologyError{Commit: c.ID, Parents: len(c.ParentIDs)}
		}

		w.accept(c, primary)

		for _, pid := range c.ParentIDs {
			if seen, ok := w.res.Visited[pid]; ok {
				if !primary && w.notNewerThanHorizon(seen) {
					joined = true
				}
				continue
			}
			if queued[pid] {
				continue
			}
			p, err := w.fetch(ctx, pid)
			if err != nil {
				return false, err
			}
			if p == nil {
				continue
			}
			queued[pid] = true
			heap.Push(f, frontierItem{commit: p})
		}
	}
	return false, nil
}

func (w *walker) accept(c *CommitRecord, primary bool) {
	w.res.Visited[c.ID] = c
	w.res.Order = append(w.res.Order, c.ID)
	for _, pid := range c.ParentIDs {
		w.res.Children[pid] = append(w.res.Children[pid], c.ID)
	}
	if primary && (!w.hasHorizon || c.Timestamp.Before(w.horizon)) {
		w.horizon = c.Timestamp
		w.hasHorizon = true
	}
}

type frontierItem struct {
	commit *CommitRecord
	seq    int
}

// frontier is a max-heap on commit time; equal times pop in push order.
type frontier struct {
	items []frontierItem
	next  int
}

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(i, j int) bool {
	a, b := f.items[i], f.items[j]
	if !a.commit.Timestamp.Equal(b.commit.Timestamp) {
		return a.commit.Timestamp.After(b.commit.Timestamp)
	}
	return a.seq < b.seq
}

func (f *frontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x any) {
	item := x.(frontierItem)
	item.seq = f.next
	f.next++
	f.items = append(f.items, item)
}

func (f *frontier) Pop() any {
	n := len(f.items)
	item := f.items[n-1]
	f.items = f.items[:n-1]
	return item
}
