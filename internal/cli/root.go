// Package cli implements the gitlanes command-line interface.
//
// Commands:
//   - graph: lay out a repository's history and print it as text, SVG or JSON
//   - refs: list the resolved references and their tips
//   - serve: run the HTTP API
//
// Every command accepts --verbose for debug logging and --config to read a
// YAML configuration file. The logger travels in the command's context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kurobon/gitlanes/internal/config"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// globals are the persistent flags shared by every command.
type globals struct {
	verbose    bool
	configPath string
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:          "gitlanes",
		Short:        "gitlanes draws a repository's commit graph in lanes",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if g.verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(log.WithContext(cmd.Context(), newLogger(stderr, level)))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("gitlanes %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(newGraphCmd(g))
	root.AddCommand(newRefsCmd(g))
	root.AddCommand(newServeCmd(g))
	return root
}

func (g *globals) loadConfig() (*config.Config, error) {
	return config.Load(g.configPath)
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
