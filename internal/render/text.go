package render

import (
	"bufio"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kurobon/gitlanes/internal/graph"
)

const shortIDLen = 7

// Text writes g as one line per row: the lane columns, the short commit id,
// the reference labels and the summary. A node is drawn as '*' and a lane
// an edge passes through as '|'. Colours follow the terminal behind w.
func Text(w io.Writer, g *graph.Graph) error {
	re := lipgloss.NewRenderer(w)
	idStyle := re.NewStyle().Foreground(lipgloss.Color("3"))
	labelStyle := re.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	overflowStyle := re.NewStyle().Foreground(lipgloss.Color("9"))

	bw := bufio.NewWriter(w)
	for _, row := range g.Rows {
		var line strings.Builder
		line.WriteString(lanes(row, g.Lanes))
		if row.Overflow {
			line.WriteString(overflowStyle.Render("!"))
		} else {
			line.WriteByte(' ')
		}
		line.WriteString(idStyle.Render(shortID(row.CommitID)))
		for _, l := range row.Labels {
			line.WriteByte(' ')
			line.WriteString(labelStyle.Render("(" + l + ")"))
		}
		if row.Summary != "" {
			line.WriteByte(' ')
			line.WriteString(row.Summary)
		}
		line.WriteByte('\n')
		if _, err := bw.WriteString(line.String()); err != nil {
			return err
		}
	}
	if g.Truncated != nil {
		if _, err := bw.WriteString("... " + g.Truncated.Error() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func lanes(row graph.RenderedRow, width int) string {
	cells := make([]string, width)
	for l := range cells {
		switch {
		case l == row.Lane:
			cells[l] = "*"
		case slices.Contains(row.Occupied, l):
			cells[l] = "|"
		default:
			cells[l] = " "
		}
	}
	return strings.Join(cells, " ")
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
