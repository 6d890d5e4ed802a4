package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/automata/internal/facade"
	"github.com/hazyhaar/automata/nierwiki"
)

var (
	serveAddr       string
	serveMCP        bool
	inspectSelector string
)

// runDefault ingests when the store is missing or never completed a run,
// then hands over to the prompt.
func runDefault(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	need, err := svc.NeedsIngest(ctx)
	if err != nil {
		return err
	}
	if need {
		if _, err := svc.Ingest(ctx); err != nil {
			return err
		}
	}
	return prompt(ctx, svc)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the harvest pipeline and load the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		rep, err := svc.Ingest(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(rep)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Start the interactive prompt without ingesting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openService(nierwiki.WithReadOnly())
		if err != nil {
			return err
		}
		defer svc.Close()
		return prompt(cmd.Context(), svc)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [stat]",
	Short: "Print row counts, or one aggregate by name or number",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService(nierwiki.WithReadOnly())
		if err != nil {
			return err
		}
		defer svc.Close()

		if len(args) == 1 {
			kind, err := nierwiki.ParseStatKind(args[0])
			if err != nil {
				return err
			}
			rows, err := svc.Stat(ctx, kind)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"stat": kind, "label": kind.Label(), "rows": rows})
		}

		counts, err := svc.Counts(ctx)
		if err != nil {
			return err
		}
		last, err := svc.LastRun(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"counts": counts, "last_run": last})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only query API over HTTP or MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		svc, err := openService(nierwiki.WithReadOnly())
		if err != nil {
			return err
		}
		defer svc.Close()

		if serveMCP {
			srv := mcp.NewServer(&mcp.Implementation{Name: "nierwiki", Version: version}, nil)
			svc.RegisterMCP(srv)
			logger.Info("nierwiki: MCP stdio starting")
			return srv.Run(ctx, &mcp.StdioTransport{})
		}

		addr := serveAddr
		if addr == "" {
			addr = svc.Config().HTTP.Addr
		}
		return serveHTTP(ctx, addr, svc.Handler())
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Render a page region as markdown, reading through the fetch cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()
		return svc.Inspect(cmd.Context(), args[0], inspectSelector, os.Stdout)
	},
}

func prompt(ctx context.Context, svc *nierwiki.Service) error {
	p := facade.New(svc, os.Stdin, os.Stdout, facade.Options{
		ImagePath: svc.ImagePath,
		Logger:    logger,
	})
	err := p.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveHTTP(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("nierwiki: server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("nierwiki: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("nierwiki: server stopped")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
