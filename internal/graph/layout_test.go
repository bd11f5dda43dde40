package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqOf builds a sequence from named commits with the given placeholder
// lanes.
func seqOf(h *history, names []string, lanes []int) RowSequence {
	seq := make(RowSequence, len(names))
	for i, n := range names {
		c := h.commits[idOf(n)]
		seq[i] = &GraphRow{Lane: lanes[i], Commit: c, ParentIDs: c.ParentIDs}
	}
	return seq
}

func TestLayout_FeatureBranch(t *testing.T) {
	h := newHistory()
	h.linear(10, "C1", "C2", "C3")
	h.commit("C2a", 11, "C2")
	h.head("main", "C1")
	h.branch("feature", "C2a")

	seq, res, _ := h.rows(t, 0)
	canvas := Layout(seq, res.Labels, DefaultLayoutOptions())
	require.Len(t, canvas.Rows, 4)

	assert.Equal(t, []int{0, 1, 0, 0}, []int{canvas.Rows[0].Lane, canvas.Rows[1].Lane, canvas.Rows[2].Lane, canvas.Rows[3].Lane})
	assert.Contains(t, canvas.Rows[0].Labels, "* main")
	assert.Contains(t, canvas.Rows[1].Labels, "feature")
	assert.Equal(t, 2, canvas.Lanes)
	assert.Equal(t, 4*30+2*20, canvas.Height)

	feature := canvas.Rows[1]
	assert.Equal(t, 40, feature.PixelX)
	assert.Equal(t, 50, feature.PixelY)
	assert.Equal(t, Point{X: 40, Y: 50}, feature.Node)
	assert.Equal(t, []int{0, 1}, feature.Occupied, "main's edge to C2 passes through this row")
	require.Len(t, feature.Texts, 2)
	assert.Equal(t, Text{Kind: TextLabel, X: 55, Y: 56, Text: "(feature) "}, feature.Texts[0])
	assert.Equal(t, Text{Kind: TextSummary, X: 140, Y: 56, Text: "C2a"}, feature.Texts[1])
	assert.Equal(t, 184, feature.RowPixelWidth)

	c2 := canvas.Rows[2]
	require.Len(t, c2.Edges, 2)
	byChild := map[string]Edge{}
	for _, e := range c2.Edges {
		byChild[e.Child] = e
	}
	assert.Equal(t, []Segment{{From: Point{20, 20}, To: Point{20, 80}}}, byChild[idOf("C1").String()].Segments)
	assert.Equal(t, []Segment{{From: Point{40, 50}, To: Point{20, 80}}}, byChild[idOf("C2a").String()].Segments)
	assert.ElementsMatch(t, []string{idOf("C1").String(), idOf("C2a").String()}, c2.ChildIDs)
}

func TestLayout_SecondParentPassThrough(t *testing.T) {
	h := newHistory()
	h.commit("R3", 1)
	h.commit("R2", 2, "R3")
	h.commit("S", 3, "R2")
	h.commit("R0", 4, "R2", "R3")

	seq := seqOf(h, []string{"R0", "S", "R2", "R3"}, []int{0, 1, 0, 0})
	canvas := Layout(seq, nil, DefaultLayoutOptions())

	assert.Equal(t, 0, canvas.Rows[0].Lane)
	assert.Equal(t, 2, canvas.Rows[1].Lane, "lane 1 carries R0's edge to R3")
	assert.Equal(t, 0, canvas.Rows[2].Lane)
	assert.Equal(t, 0, canvas.Rows[3].Lane)
	assert.Equal(t, 3, canvas.Lanes)
	assert.Zero(t, canvas.Overflow)

	var merge Edge
	for _, e := range canvas.Rows[3].Edges {
		if e.Child == idOf("R0").String() {
			merge = e
		}
	}
	assert.Equal(t, 1, merge.Lane)
	assert.Equal(t, []Segment{
		{From: Point{20, 20}, To: Point{40, 50}},
		{From: Point{40, 50}, To: Point{40, 80}},
		{From: Point{40, 80}, To: Point{20, 110}},
	}, merge.Segments)
}

func TestLayout_MaxLanesOverflow(t *testing.T) {
	h := newHistory()
	h.commit("R3", 1)
	h.commit("R2", 2, "R3")
	h.commit("S", 3, "R2")
	h.commit("R0", 4, "R2", "R3")

	opts := DefaultLayoutOptions()
	opts.MaxLanes = 2
	canvas := Layout(seqOf(h, []string{"R0", "S", "R2", "R3"}, []int{0, 1, 0, 0}), nil, opts)

	assert.Equal(t, 1, canvas.Rows[1].Lane, "capped at the last lane")
	assert.True(t, canvas.Rows[1].Overflow)
	assert.Equal(t, 1, canvas.Overflow)
	assert.LessOrEqual(t, canvas.Lanes, 2)
}

func TestLayout_UnboundedLanes(t *testing.T) {
	h := newHistory()
	h.commit("base", 1)
	names := []string{"t0", "t1", "t2", "t3"}
	for i, n := range names {
		h.commit(n, 10+i, "base")
	}
	all := append(append([]string{}, names...), "base")
	// Every tip is parked on lane 1; each must move right of the edges
	// still running down to base.
	canvas := Layout(seqOf(h, all, []int{1, 1, 1, 1, 0}), nil, LayoutOptions{LaneWidth: 10, RowHeight: 10, CharWidth: 1})
	assert.Equal(t, []int{1, 2, 3, 4, 0}, []int{
		canvas.Rows[0].Lane, canvas.Rows[1].Lane, canvas.Rows[2].Lane, canvas.Rows[3].Lane, canvas.Rows[4].Lane,
	})
}

func TestLayout_Empty(t *testing.T) {
	canvas := Layout(nil, nil, DefaultLayoutOptions())
	assert.Empty(t, canvas.Rows)
	assert.Zero(t, canvas.Height)
	assert.Zero(t, canvas.Width)
}
