package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kurobon/gitlanes/internal/graph"
)

func newRefsCmd(g *globals) *cobra.Command {
	var primary string

	cmd := &cobra.Command{
		Use:   "refs <repo>",
		Short: "List resolved references, primary line first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if primary != "" {
				cfg.PrimaryBranch = primary
			}
			b, err := openBackend(args[0], cfg)
			if err != nil {
				return err
			}
			res, err := graph.ResolveReferences(cmd.Context(), b, cfg.PrimaryBranch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, tip := range res.Tips {
				fmt.Fprintf(out, "%s  %-30s %s\n", tip.ID.String()[:7], strings.Join(res.Labels.Names(tip.ID), ", "), tip.Summary)
			}
			for _, e := range res.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&primary, "primary", "p", "", "branch treated as the primary line")
	return cmd
}
