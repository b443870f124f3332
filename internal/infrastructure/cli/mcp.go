package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/smarttask/internal/infrastructure/mcp"
)

const envSkipMCPStart = "SMARTTASK_SKIP_MCP_START"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve your tasks to MCP clients over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout. The server
uses the stored session, so run 'smarttask login' first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadSession()
		if err != nil {
			return err
		}
		if os.Getenv(envSkipMCPStart) == "true" {
			return nil
		}
		inframcp.Version = Version
		inframcp.BuildCommit = Commit
		inframcp.BuildDate = Date

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return inframcp.NewServer(services.Client).ServeStdio(ctx)
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
