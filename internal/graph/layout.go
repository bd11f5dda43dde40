package graph

import (
	"github.com/mattn/go-runewidth"
)

// textBaseline offsets text below the node centre so it reads level with it.
const textBaseline = 6

// labelSpacing separates consecutive labels.
const labelSpacing = 5

// LayoutOptions controls the geometry of the rendered graph.
type LayoutOptions struct {
	LaneWidth int `json:"laneWidth" yaml:"lane_width"`
	RowHeight int `json:"rowHeight" yaml:"row_height"`
	Margin    int `json:"margin" yaml:"margin"`
	LabelGap  int `json:"labelGap" yaml:"label_gap"`
	CharWidth int `json:"charWidth" yaml:"char_width"`
	// MaxLanes caps the number of lanes; 0 means unbounded.
	MaxLanes int `json:"maxLanes" yaml:"max_lanes"`
}

// DefaultLayoutOptions returns 20px lanes and 30px rows inside a 20px margin.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		LaneWidth: 20,
		RowHeight: 30,
		Margin:    20,
		LabelGap:  15,
		CharWidth: 8,
		MaxLanes:  64,
	}
}

// Point is a pixel position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Segment is a straight line between two adjacent points of an edge.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Edge connects a row to one of its children.
type Edge struct {
	Child string `json:"child_id"`
	// Lane is the column the edge runs down between the two rows.
	Lane     int       `json:"lane"`
	Segments []Segment `json:"segments"`
}

// TextKind distinguishes label text from summary text.
type TextKind string

const (
	TextLabel   TextKind = "label"
	TextSummary TextKind = "summary"
)

// Text is a string drawn at a baseline position.
type Text struct {
	Kind TextKind `json:"kind"`
	X    int      `json:"x"`
	Y    int      `json:"y"`
	Text string   `json:"text"`
}

// RenderedRow is one row of the finished graph.
type RenderedRow struct {
	Lane          int      `json:"lane"`
	PixelX        int      `json:"pixel_x"`
	PixelY        int      `json:"pixel_y"`
	CommitID      string   `json:"commit_id"`
	ParentIDs     []string `json:"parent_ids"`
	ChildIDs      []string `json:"child_ids"`
	Labels        []string `json:"labels"`
	Summary       string   `json:"summary"`
	RowPixelWidth int      `json:"row_pixel_width"`

	Node  Point  `json:"node"`
	Edges []Edge `json:"edges"`
	Texts []Text `json:"texts"`
	// Occupied lists every lane in use at this row, nodes and pass-through
	// edges alike.
	Occupied []int `json:"occupied"`
	Overflow bool  `json:"overflow,omitempty"`
}

// Canvas is the output of Layout.
type Canvas struct {
	Rows     []RenderedRow `json:"rows"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Lanes    int           `json:"lanes"`
	Overflow int           `json:"overflow"`
}

// route records which lane an edge from a child to a parent runs down.
type route struct {
	child, parent int
	lane          int
}

// Layout assigns final lanes to rows, top to bottom, and produces the draw
// primitives. A row keeps its placeholder lane when free and otherwise moves
// right to the first free lane. A first-parent edge reserves the child's lane
// for every row it passes; a longer second-parent edge reserves the lowest
// lane right of the child that is free along its whole span.
func Layout(rows RowSequence, labels LabelMap, opts LayoutOptions) *Canvas {
	grid := newOccupancy(opts.MaxLanes)
	idx := rows.Index()
	lanes := make([]int, len(rows))
	overflow := make([]bool, len(rows))
	routes := make(map[CommitID][]route, len(rows))

	canvas := &Canvas{}

	for y, r := range rows {
		lane, over := grid.firstFree(y, r.Lane)
		grid.mark(y, lane)
		lanes[y] = lane
		overflow[y] = over

		for k, pid := range distinct(r.ParentIDs) {
			p, ok := idx[pid]
			if !ok || p <= y {
				continue
			}
			rt := route{child: y, parent: p, lane: lane}
			switch {
			case p == y+1:
			case k == 0:
				grid.markSpan(y+1, p-1, lane)
			default:
				l, spanOver := grid.firstFreeSpan(y+1, p-1, lane+1)
				grid.markSpan(y+1, p-1, l)
				rt.lane = l
				overflow[y] = overflow[y] || spanOver
			}
			routes[pid] = append(routes[pid], rt)
		}
	}

	for y, r := range rows {
		out := RenderedRow{
			Lane:      lanes[y],
			PixelX:    laneX(lanes[y], opts),
			PixelY:    rowY(y, opts),
			CommitID:  r.ID().String(),
			ParentIDs: hexIDs(r.ParentIDs),
			ChildIDs:  hexIDs(r.ChildIDs),
			Labels:    labels.Names(r.ID()),
			Summary:   r.Commit.Summary,
			Occupied:  grid.occupied(y),
			Overflow:  overflow[y],
		}
		if out.Labels == nil {
			out.Labels = []string{}
		}
		out.Node = Point{X: out.PixelX, Y: out.PixelY}

		for _, rt := range routes[r.ID()] {
			out.Edges = append(out.Edges, Edge{
				Child:    rows[rt.child].ID().String(),
				Lane:     rt.lane,
				Segments: edgeSegments(rt, lanes, opts),
			})
		}

		x := grid.widest(y)*opts.LaneWidth + opts.Margin + opts.LabelGap
		textY := out.PixelY + textBaseline
		for _, name := range out.Labels {
			text := "(" + name + ") "
			out.Texts = append(out.Texts, Text{Kind: TextLabel, X: x, Y: textY, Text: text})
			x += textWidth(text, opts) + labelSpacing
		}
		out.Texts = append(out.Texts, Text{Kind: TextSummary, X: x, Y: textY, Text: out.Summary})
		out.RowPixelWidth = x + textWidth(out.Summary, opts) + opts.Margin

		if out.RowPixelWidth > canvas.Width {
			canvas.Width = out.RowPixelWidth
		}
		if lanes[y]+1 > canvas.Lanes {
			canvas.Lanes = lanes[y] + 1
		}
		if out.Overflow {
			canvas.Overflow++
		}
		canvas.Rows = append(canvas.Rows, out)
	}

	for _, l := range grid.rows {
		for lane := range l {
			if lane+1 > canvas.Lanes {
				canvas.Lanes = lane + 1
			}
		}
	}
	if len(rows) > 0 {
		canvas.Height = len(rows)*opts.RowHeight + 2*opts.Margin
	}
	return canvas
}

// edgeSegments walks from the child node, through the routing lane, to the
// parent node.
func edgeSegments(rt route, lanes []int, opts LayoutOptions) []Segment {
	pts := []Point{{X: laneX(lanes[rt.child], opts), Y: rowY(rt.child, opts)}}
	if rt.parent > rt.child+1 {
		x := laneX(rt.lane, opts)
		pts = append(pts,
			Point{X: x, Y: rowY(rt.child+1, opts)},
			Point{X: x, Y: rowY(rt.parent-1, opts)},
		)
	}
	pts = append(pts, Point{X: laneX(lanes[rt.parent], opts), Y: rowY(rt.parent, opts)})

	segs := make([]Segment, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		if pts[i] == pts[i-1] {
			continue
		}
		if n := len(segs); n > 0 && collinear(segs[n-1], pts[i]) {
			segs[n-1].To = pts[i]
			continue
		}
		segs = append(segs, Segment{From: pts[i-1], To: pts[i]})
	}
	return segs
}

// collinear reports whether p continues the vertical run of s.
func collinear(s Segment, p Point) bool {
	return s.From.X == s.To.X && s.To.X == p.X
}

func laneX(lane int, opts LayoutOptions) int { return lane*opts.LaneWidth + opts.Margin }

func rowY(index int, opts LayoutOptions) int { return index*opts.RowHeight + opts.Margin }

func textWidth(s string, opts LayoutOptions) int {
	return runewidth.StringWidth(s) * opts.CharWidth
}

func hexIDs(ids []CommitID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
