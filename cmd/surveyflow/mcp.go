package main

import (
	"fmt"

	"github.com/openrelief/surveyflow"
	"github.com/openrelief/surveyflow/internal/cli"
	mcpAdapter "github.com/openrelief/surveyflow/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <file>",
	Short: "Start the MCP server",
	Long: `Exposes survey sessions as Model Context Protocol tools (start_session, answer,
advance, retreat, get_session, get_resources, get_definition) over stdio or SSE.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		h, err := newHost(cmd, args[0])
		if err != nil {
			return err
		}
		defer h.Close()

		srv := mcpAdapter.NewServer(h.engine, h.sessions, surveyflow.Version(), mcpAdapter.WithLogger(h.logger))

		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			return srv.ServeSSE(ctx, port)
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8080, "Port for the SSE transport")
}
