package graph

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures one Build.
type Options struct {
	// PrimaryBranch names the reference whose history forms lane 0.
	PrimaryBranch string
	// Limit bounds the number of commits walked; 0 means DefaultLimit.
	Limit  int
	Layout LayoutOptions
}

// DefaultOptions returns the options used when the caller sets nothing.
func DefaultOptions() Options {
	return Options{
		PrimaryBranch: DefaultPrimaryBranch,
		Limit:         DefaultLimit,
		Layout:        DefaultLayoutOptions(),
	}
}

// Graph is the finished, drawable commit graph.
type Graph struct {
	Canvas
	Primary string `json:"primary"`
	// Truncated is set when the walk stopped at the commit limit.
	Truncated       *TraversalLimitReached      `json:"truncated,omitempty"`
	ReferenceErrors []*ReferenceResolutionError `json:"-"`
	// Unresolved holds the messages of ReferenceErrors for serialisation.
	Unresolved []string `json:"unresolved,omitempty"`
}

// Build runs the whole pipeline against b. An UnsupportedTopologyError or a
// backend failure aborts the build and no graph is returned.
func Build(ctx context.Context, b Backend, opts Options) (*Graph, error) {
	logger := log.FromContext(ctx)
	start := time.Now()
	if opts.Layout == (LayoutOptions{}) {
		opts.Layout = DefaultLayoutOptions()
	}

	res, err := ResolveReferences(ctx, b, opts.PrimaryBranch)
	if err != nil {
		return nil, err
	}

	walk, err := Walk(ctx, b, res.Tips, opts.Limit)
	if err != nil {
		return nil, err
	}

	rows := BuildRows(ctx, walk, res.Tips)
	canvas := Layout(rows, res.Labels, opts.Layout)

	g := &Graph{
		Canvas:          *canvas,
		Primary:         res.Primary,
		ReferenceErrors: res.Errors,
	}
	if walk.Truncated {
		g.Truncated = &TraversalLimitReached{Limit: walk.Limit}
	}
	for _, e := range res.Errors {
		g.Unresolved = append(g.Unresolved, e.Error())
	}

	logger.Debug("built graph",
		"rows", len(g.Rows),
		"lanes", g.Lanes,
		"truncated", walk.Truncated,
		"overflow", g.Overflow,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return g, nil
}
