package main

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestCommandsRegistered(t *testing.T) {
	// WHAT: every subcommand is reachable from the root.
	for _, name := range []string{"ingest", "query", "stats", "serve", "inspect"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not found: %v", name, err)
		}
	}
	if f := serveCmd.Flags().Lookup("mcp"); f == nil {
		t.Error("serve --mcp flag missing")
	}
}
