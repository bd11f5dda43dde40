package cli

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kurobon/gitlanes/internal/server"
	"github.com/kurobon/gitlanes/internal/state"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger := log.FromContext(cmd.Context())
			srv := server.NewServer(state.NewSessionManager(cfg.CacheSize), cfg.GraphOptions(), logger)
			return server.ListenAndServe(cmd.Context(), &http.Server{Addr: cfg.Addr, Handler: srv}, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
