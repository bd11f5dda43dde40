package git

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/kurobon/gitlanes/internal/graph"
)

// side records which of the two compared tips reach a commit.
type side uint8

const (
	fromLocal side = 1 << iota
	fromUpstream
	fromBoth = fromLocal | fromUpstream
)

// aheadBehind counts commits reachable from local but not upstream, and the
// reverse. Both tips are walked together newest first until every queued
// commit is reachable from both. It returns nil when that takes more than
// AheadBehindLimit commits.
func (r *Repository) aheadBehind(ctx context.Context, local, upstream plumbing.Hash) (*graph.AheadBehind, error) {
	if local == upstream {
		return &graph.AheadBehind{}, nil
	}
	d := &divergence{
		repo:   r,
		sides:  make(map[plumbing.Hash]side),
		queued: make(map[plumbing.Hash]bool),
	}
	if err := d.mark(local, fromLocal); err != nil {
		return nil, err
	}
	if err := d.mark(upstream, fromUpstream); err != nil {
		return nil, err
	}

	walked := 0
	for d.open > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if walked >= r.AheadBehindLimit {
			return nil, nil
		}
		walked++

		c := heap.Pop(&d.queue).(divergenceItem).commit
		delete(d.queued, c.Hash)
		s := d.sides[c.Hash]
		if s != fromBoth {
			d.open--
			d.count(s, 1)
		}
		for _, p := range c.ParentHashes {
			if err := d.mark(p, s); err != nil {
				return nil, err
			}
		}
	}
	return &d.result, nil
}

type divergence struct {
	repo   *Repository
	queue  divergenceQueue
	sides  map[plumbing.Hash]side
	queued map[plumbing.Hash]bool
	// open is the number of queued commits not yet known to be shared.
	open   int
	result graph.AheadBehind
}

// mark adds s to the sides reaching h and queues h when that changes
// anything still to be walked.
func (d *divergence) mark(h plumbing.Hash, s side) error {
	old := d.sides[h]
	if old|s == old {
		return nil
	}
	d.sides[h] = old | s
	if d.queued[h] {
		// Queued commits only ever hold one side before this.
		d.open--
		return nil
	}
	if old != 0 {
		// Counted as unique before the other side arrived through an older
		// committer time. Walk it again so its parents become shared too.
		d.count(old, -1)
	}

	c, err := d.repo.repo.CommitObject(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		// Shallow history ends here.
		return nil
	}
	if err != nil {
		return fmt.Errorf("commit %s: %w", h, err)
	}
	heap.Push(&d.queue, divergenceItem{commit: c})
	d.queued[h] = true
	if old|s != fromBoth {
		d.open++
	}
	return nil
}

func (d *divergence) count(s side, n int) {
	switch s {
	case fromLocal:
		d.result.Ahead += n
	case fromUpstream:
		d.result.Behind += n
	}
}

type divergenceItem struct {
	commit *object.Commit
	seq    int
}

// divergenceQueue is a max-heap on committer time; equal times pop in push
// order.
type divergenceQueue struct {
	items []divergenceItem
	next  int
}

func (q *divergenceQueue) Len() int { return len(q.items) }

func (q *divergenceQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if !a.commit.Committer.When.Equal(b.commit.Committer.When) {
		return a.commit.Committer.When.After(b.commit.Committer.When)
	}
	return a.seq < b.seq
}

func (q *divergenceQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *divergenceQueue) Push(x any) {
	item := x.(divergenceItem)
	item.seq = q.next
	q.next++
	q.items = append(q.items, item)
}

func (q *divergenceQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}
