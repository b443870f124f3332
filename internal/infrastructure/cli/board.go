package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttask/internal/infrastructure/config"
	"github.com/felixgeelhaar/smarttask/pkg/application"
)

const (
	envSkipBoardRun = "SMARTTASK_SKIP_BOARD_RUN"
	boardLogFile    = "smarttask.log"
)

var boardLive bool

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive kanban board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv(envSkipBoardRun) == "true" {
			return nil
		}
		return runBoard(cmd)
	},
}

func runBoard(cmd *cobra.Command) error {
	logger, closeLog, err := openBoardLog()
	if err != nil {
		return err
	}
	defer closeLog()

	services, err := loadServicesWithLogger(logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model, err := newBoardModel(ctx, services.Auth, services.Tasks, services.Client)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribeTasks := services.Tasks.Subscribe(func(application.TaskState) {
		go p.Send(storeChangedMsg{})
	})
	defer unsubscribeTasks()
	unsubscribeAuth := services.Auth.Subscribe(func(application.AuthState) {
		go p.Send(storeChangedMsg{})
	})
	defer unsubscribeAuth()

	if w, err := services.SessionWatcher(); err != nil {
		logger.Warn("session watcher unavailable", "error", err)
	} else {
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("session watcher stopped", "error", err)
			}
		}()
	}

	live := boardLive
	if !cmd.Flags().Changed("live") {
		live = services.Workspace.Config.Live
	}
	if live {
		sub, err := services.LiveSubscriber()
		if err != nil {
			return MapError(err)
		}
		go func() {
			if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("live updates stopped", "error", err)
			}
		}()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("board run failed: %w", err)
	}
	return nil
}

// openBoardLog sends logs to a file in the config directory while the
// board owns the terminal.
func openBoardLog() (*slog.Logger, func(), error) {
	dir := configDir
	if dir == "" {
		d, err := config.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, boardLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := newLogger(f)
	slog.SetDefault(logger)
	return logger, func() { _ = f.Close() }, nil
}

func init() {
	boardCmd.Flags().BoolVar(&boardLive, "live", false, "Subscribe to server push updates (default from config)")
	RootCmd.AddCommand(boardCmd)
}
