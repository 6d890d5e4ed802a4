// Command nierwiki harvests the NieR:Automata wiki into SQLite and queries it.
//
// Usage:
//
//	nierwiki                         # ingest if needed, then the interactive prompt
//	nierwiki ingest                  # force a fresh ingest run
//	nierwiki query                   # interactive prompt only
//	nierwiki stats [stat]            # counts, or one stat, as JSON
//	nierwiki serve --addr :8087      # read-only JSON API
//	nierwiki serve --mcp             # MCP tools over stdio
//	nierwiki inspect <url>           # render a cached page region as markdown
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/automata/nierwiki"
)

var version = "dev"

var (
	configPath string
	logLevel   string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "nierwiki",
	Short: "Harvest the NieR:Automata wiki into SQLite and query it",
	Long: `nierwiki fetches the character, location, quest and fishing pages of the
NieR:Automata wiki, links them together and stores them in SQLite.

Run without arguments to ingest on first use and start the interactive prompt.
Configuration comes from --config (YAML) overlaid by NIERWIKI_* variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(logLevel)
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
	RunE: runDefault,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to nierwiki.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "serve MCP tools over stdio instead of HTTP")
	inspectCmd.Flags().StringVar(&inspectSelector, "selector", "", "CSS selector of the region (default #wiki-content-block)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger == nil {
			fmt.Fprintln(os.Stderr, err)
		} else {
			logger.Error("nierwiki: fatal", "error", err)
		}
		stop()
		os.Exit(1)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// openService loads the configuration and opens the service.
func openService(opts ...nierwiki.Option) (*nierwiki.Service, error) {
	cfg, err := nierwiki.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	svc, err := nierwiki.New(cfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return svc, nil
}
