package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kurobon/gitlanes/internal/config"
	"github.com/kurobon/gitlanes/internal/git"
	"github.com/kurobon/gitlanes/internal/graph"
	"github.com/kurobon/gitlanes/internal/render"
)

const (
	formatText = "text"
	formatSVG  = "svg"
	formatJSON = "json"
)

type graphOpts struct {
	format  string
	limit   int
	primary string
	output  string
}

func newGraphCmd(g *globals) *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <repo>",
		Short: "Lay out a repository's commit graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				cfg.Limit = opts.limit
			}
			if opts.primary != "" {
				cfg.PrimaryBranch = opts.primary
			}
			return runGraph(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, svg or json")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", graph.DefaultLimit, "maximum number of commits")
	cmd.Flags().StringVarP(&opts.primary, "primary", "p", "", "branch drawn on the first lane")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runGraph(ctx context.Context, stdout io.Writer, path string, cfg *config.Config, opts graphOpts) error {
	logger := log.FromContext(ctx)

	write, err := writerFor(opts.format)
	if err != nil {
		return err
	}

	b, err := openBackend(path, cfg)
	if err != nil {
		return err
	}

	gr, err := graph.Build(ctx, b, cfg.GraphOptions())
	if err != nil {
		return err
	}
	for _, msg := range gr.Unresolved {
		logger.Warn("skipped reference", "err", msg)
	}
	if gr.Truncated != nil {
		logger.Warn("history truncated", "limit", gr.Truncated.Limit)
	}
	if gr.Overflow > 0 {
		logger.Warn("rows exceeded the lane cap", "rows", gr.Overflow, "max_lanes", cfg.Layout.MaxLanes)
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := write(out, gr); err != nil {
		return fmt.Errorf("write %s: %w", opts.format, err)
	}
	if opts.output != "" {
		logger.Info("wrote graph", "path", opts.output, "rows", len(gr.Rows))
	}
	return nil
}

func writerFor(format string) (func(io.Writer, *graph.Graph) error, error) {
	switch format {
	case formatText:
		return render.Text, nil
	case formatSVG:
		return func(w io.Writer, g *graph.Graph) error { return render.SVG(w, g) }, nil
	case formatJSON:
		return func(w io.Writer, g *graph.Graph) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(g)
		}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want text, svg or json)", format)
}

func openBackend(path string, cfg *config.Config) (graph.Backend, error) {
	repo, err := git.Open(path)
	if err != nil {
		return nil, err
	}
	return git.NewCached(repo, cfg.CacheSize)
}
