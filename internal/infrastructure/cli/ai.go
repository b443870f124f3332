package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttask/internal/infrastructure/wiring"
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Ask the server's assistant about your tasks",
}

var aiSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize all tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAI(cmd, "Summary", func(ctx context.Context, s *wiring.AppServices) (string, error) {
			return s.Client.Summarize(ctx)
		})
	},
}

var aiSuggestCmd = &cobra.Command{
	Use:   "suggest <id>",
	Short: "Get a suggestion for one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		return runAI(cmd, fmt.Sprintf("Suggestion for task %d", id), func(ctx context.Context, s *wiring.AppServices) (string, error) {
			return s.Client.Suggestion(ctx, id)
		})
	},
}

var aiProductivityCmd = &cobra.Command{
	Use:   "productivity",
	Short: "Analyze your productivity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAI(cmd, "Productivity", func(ctx context.Context, s *wiring.AppServices) (string, error) {
			return s.Client.AnalyzeProductivity(ctx)
		})
	},
}

func runAI(cmd *cobra.Command, title string, fn func(context.Context, *wiring.AppServices) (string, error)) error {
	services, err := loadSession()
	if err != nil {
		return err
	}
	text, err := fn(cmd.Context(), services)
	if err != nil {
		return MapError(err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s\n", title, strings.Repeat("-", len(title)))
	fmt.Fprintln(out, strings.TrimSpace(text))
	return nil
}

func init() {
	aiCmd.AddCommand(aiSummaryCmd, aiSuggestCmd, aiProductivityCmd)
	RootCmd.AddCommand(aiCmd)
}
