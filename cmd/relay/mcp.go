package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
	"github.com/aretw0/relay/internal/config"
	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Model Context Protocol server",
	Long:  `Exposes run_pipeline, get_graph and list_runs as MCP tools over stdio (default) or SSE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var opts []cli.AppOption
		if transport == "stdio" {
			// Stdout carries the protocol; logs must stay on stderr in JSON.
			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			opts = append(opts, cli.WithLogger(logging.New(level, "json")))
		}
		app, err := cli.NewApp(cfg, appOptions(cmd, opts...)...)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Manager, mcp.WithRunTimeout(cfg.Runtime.Timeout), mcp.WithLogger(app.Logger))
		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(context.Background())
			defer ctx.Cancel()
			return srv.ServeSSE(ctx, addr)
		default:
			return fmt.Errorf("%w: unknown transport %q (want stdio or sse)", config.ErrInvalid, transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Address of the SSE transport")
}
