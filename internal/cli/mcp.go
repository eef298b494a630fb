package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	brainmcp "github.com/valter-silva-au/ai-curious-brain/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the acb MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the acb MCP server on stdio",
	Long: `Start the acb MCP server on stdio transport.

The server exposes the agent as MCP tools: dispatch, teach, tick, list_goals,
abandon_goal, concepts_related_to, get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}

		srv := brainmcp.NewServer(Agent, MetricsCalc, AlertEngine, appVersion)

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
