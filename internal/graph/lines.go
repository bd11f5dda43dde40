package graph

import (
	"container/heap"
	"container/list"
	"context"
	"slices"

	"github.com/charmbracelet/log"
)

// BuildRows orders the walked commits into a RowSequence.
//
// The primary tip's first-parent chain forms lane 0. Every other tip
// contributes a shortline inserted just before the row where it rejoins known
// history, and the second parent of every merge is expanded into a sub-line
// spliced right after the merge row. Lanes on the returned rows are
// placeholders for Layout.
func BuildRows(ctx context.Context, walk *WalkResult, tips []*CommitRecord) RowSequence {
	b := &lineBuilder{
		walk:    walk,
		rows:    list.New(),
		elems:   make(map[CommitID]*list.Element, len(walk.Visited)),
		claimed: make(map[CommitID]bool, len(walk.Visited)),
	}
	if len(tips) == 0 {
		return nil
	}

	for _, c := range b.chain(tips[0].ID) {
		b.rows.PushBack(b.newRow(c, 0))
	}
	b.indexAll()
	b.drain()

	for _, tip := range tips[1:] {
		b.addShortline(tip.ID)
	}

	// Commits only reachable through a truncated or pruned path.
	for _, id := range walk.Order {
		if _, ok := b.elems[id]; !ok {
			b.addShortline(id)
		}
	}

	seq := make(RowSequence, 0, b.rows.Len())
	for e := b.rows.Front(); e != nil; e = e.Next() {
		seq = append(seq, e.Value.(*GraphRow))
	}

	logger := log.FromContext(ctx)
	if !isTopological(seq) {
		logger.Debug("repairing row order", "rows", len(seq))
		seq = topoRepair(seq)
	}
	logger.Debug("built rows", "rows", len(seq), "merges", b.merges)
	return seq
}

type mergeItem struct {
	merge  *list.Element
	parent CommitID
}

type lineBuilder struct {
	walk  *WalkResult
	rows  *list.List
	elems map[CommitID]*list.Element
	// claimed marks commits taken by a chain before they are linked in.
	claimed map[CommitID]bool
	work    []mergeItem
	merges  int
}

func (b *lineBuilder) newRow(c *CommitRecord, lane int) *GraphRow {
	return &GraphRow{
		Lane:      lane,
		Commit:    c,
		ParentIDs: slices.Clone(c.ParentIDs),
		ChildIDs:  slices.Clone(b.walk.Children[c.ID]),
	}
}

// chain collects the first-parent chain from start, stopping at a commit
// already placed or outside the walked set.
func (b *lineBuilder) chain(start CommitID) []*CommitRecord {
	var out []*CommitRecord
	for id := start; ; {
		c, ok := b.walk.Visited[id]
		if !ok || b.claimed[id] {
			return out
		}
		b.claimed[id] = true
		out = append(out, c)
		if len(c.ParentIDs) == 0 {
			return out
		}
		id = c.ParentIDs[0]
	}
}

// indexAll records elements and queues merges for rows not yet indexed.
func (b *lineBuilder) indexAll() {
	for e := b.rows.Front(); e != nil; e = e.Next() {
		b.track(e)
	}
}

func (b *lineBuilder) track(e *list.Element) {
	row := e.Value.(*GraphRow)
	if _, ok := b.elems[row.ID()]; ok {
		return
	}
	b.elems[row.ID()] = e
	if len(row.ParentIDs) == MaxParents {
		b.work = append(b.work, mergeItem{merge: e, parent: row.ParentIDs[1]})
	}
}

// drain expands queued merges until nothing is left.
func (b *lineBuilder) drain() {
	for len(b.work) > 0 {
		item := b.work[0]
		b.work = b.work[1:]

		sub := b.chain(item.parent)
		if len(sub) == 0 {
			continue
		}
		b.merges++
		lane := item.merge.Value.(*GraphRow).Lane + 1
		mark := item.merge
		for _, c := range sub {
			mark = b.rows.InsertAfter(b.newRow(c, lane), mark)
			b.track(mark)
		}
	}
}

func (b *lineBuilder) addShortline(tip CommitID) {
	line := b.chain(tip)
	if len(line) == 0 {
		return
	}

	last := line[len(line)-1]
	var rejoin *list.Element
	if len(last.ParentIDs) > 0 {
		rejoin = b.elems[last.ParentIDs[0]]
	}

	if rejoin == nil {
		for _, c := range line {
			b.track(b.rows.PushBack(b.newRow(c, 1)))
		}
	} else {
		lane := rejoin.Value.(*GraphRow).Lane + 1
		for _, c := range line {
			b.track(b.rows.InsertBefore(b.newRow(c, lane), rejoin))
		}
	}
	b.drain()
}

func isTopological(seq RowSequence) bool {
	idx := seq.Index()
	for i, r := range seq {
		for _, p := range r.ParentIDs {
			if j, ok := idx[p]; ok && j <= i {
				return false
			}
		}
	}
	return true
}

// topoRepair re-sorts seq so that children precede parents, keeping the
// built order wherever it does not conflict.
func topoRepair(seq RowSequence) RowSequence {
	idx := seq.Index()
	pending := make([]int, len(seq))
	for _, r := range seq {
		for _, p := range distinct(r.ParentIDs) {
			if j, ok := idx[p]; ok {
				pending[j]++
			}
		}
	}

	ready := &indexHeap{}
	for i, n := range pending {
		if n == 0 {
			heap.Push(ready, i)
		}
	}

	out := make(RowSequence, 0, len(seq))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		out = append(out, seq[i])
		for _, p := range distinct(seq[i].ParentIDs) {
			j, ok := idx[p]
			if !ok {
				continue
			}
			if pending[j]--; pending[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}
	return out
}

func distinct(ids []CommitID) []CommitID {
	if len(ids) == 2 && ids[0] == ids[1] {
		return ids[:1]
	}
	return ids
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
