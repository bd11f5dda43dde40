package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/kurobon/gitlanes/internal/graph"
)

const nodeRadius = 10

// SVGOption customises SVG output.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background   string
	nodeColor    string
	edgeColor    string
	labelColor   string
	summaryColor string
	edgeWidth    int
	laneColors   []string
}

// WithBackground fills the canvas with color.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithSummaryColor sets the fill of commit summaries.
func WithSummaryColor(color string) SVGOption {
	return func(r *svgRenderer) { r.summaryColor = color }
}

// WithLaneColors colours nodes and edges by lane, cycling through colors.
func WithLaneColors(colors ...string) SVGOption {
	return func(r *svgRenderer) { r.laneColors = colors }
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		background:   "black",
		nodeColor:    "blue",
		edgeColor:    "rgb(0,0,255)",
		labelColor:   "rgb(100,100,255)",
		summaryColor: "white",
		edgeWidth:    4,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *svgRenderer) laneColor(lane int, fallback string) string {
	if len(r.laneColors) == 0 {
		return fallback
	}
	return r.laneColors[lane%len(r.laneColors)]
}

// SVG writes g as a standalone SVG document. Edges are drawn first so nodes
// sit on top of them.
func SVG(w io.Writer, g *graph.Graph, opts ...SVGOption) error {
	r := newSVGRenderer(opts...)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		g.Width, g.Height, g.Width, g.Height)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.background)
	}

	for _, row := range g.Rows {
		for _, e := range row.Edges {
			color := r.laneColor(e.Lane, r.edgeColor)
			for _, s := range e.Segments {
				fmt.Fprintf(&buf, `  <line x1="%d" y1="%d" x2="%d" y2="%d" style="stroke:%s;stroke-width:%d"/>`+"\n",
					s.From.X, s.From.Y, s.To.X, s.To.Y, color, r.edgeWidth)
			}
		}
	}

	for _, row := range g.Rows {
		color := r.laneColor(row.Lane, r.nodeColor)
		fmt.Fprintf(&buf, `  <circle id="c%s" cx="%d" cy="%d" r="%d" stroke="%s" stroke-width="1" fill="%s"><title>%s</title></circle>`+"\n",
			row.CommitID, row.Node.X, row.Node.Y, nodeRadius, color, color, escape(row.CommitID))
		for _, t := range row.Texts {
			fill := r.summaryColor
			if t.Kind == graph.TextLabel {
				fill = r.labelColor
			}
			fmt.Fprintf(&buf, `  <text x="%d" y="%d" fill="%s" xml:space="preserve">%s</text>`+"\n",
				t.X, t.Y, fill, escape(t.Text))
		}
	}

	buf.WriteString("</svg>\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
