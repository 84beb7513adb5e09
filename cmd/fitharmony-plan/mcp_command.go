package main

import (
	"context"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/claude/fitharmony/internal/mcp"
	"github.com/claude/fitharmony/internal/planner"
	"github.com/claude/fitharmony/internal/storage"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	var remoteURL string
	var apiKey string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Long: "Serve the MCP tools over stdio. With --remote, optimizations run on a " +
			"FitHarmony server reached over its REST API; otherwise they run in-process.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := ctx.logger(cmd.ErrOrStderr())

			backend, closeFn, err := ctx.mcpBackend(cmd.Context(), log, remoteURL, apiKey)
			if err != nil {
				return err
			}
			defer closeFn()

			log.Info("mcp stdio server starting", "remote", remoteURL != "")
			return mcpserver.ServeStdio(mcp.New(backend, Version, log))
		},
	}

	cmd.Flags().StringVar(&remoteURL, "remote", "", "Base URL of a FitHarmony server (e.g. https://fitharmony.tail1234.ts.net)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for --remote (defaults to auth.api_key from the config)")

	return cmd
}

// mcpBackend picks the remote REST backend when remoteURL is set, otherwise
// an in-process planner using the configured biomarker source.
func (c *commandContext) mcpBackend(ctx context.Context, log *slog.Logger, remoteURL, apiKey string) (mcp.Backend, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	if remoteURL != "" {
		if apiKey == "" {
			apiKey = cfg.Auth.APIKey
		}
		return mcp.NewHTTPClient(remoteURL, apiKey), func() {}, nil
	}

	dsn := ""
	if cfg.Database.Enabled() {
		dsn = cfg.Database.DSN()
	}
	source, err := storage.Open(ctx, dsn, cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening biomarker source: %w", err)
	}
	closeFn := func() {}
	if source != nil {
		closeFn = func() { source.Close() }
	}
	p := planner.New(cfg.Planner(), log)
	return mcp.NewLocal(p, source), closeFn, nil
}
