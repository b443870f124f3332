package wiring

import (
	"fmt"

	"github.com/felixgeelhaar/smarttask/internal/infrastructure/config"
	"github.com/felixgeelhaar/smarttask/pkg/storage"
)

// Workspace bundles the on-disk state: settings and the session store.
type Workspace struct {
	Dir    string
	Config *config.Config
	Store  *storage.FilesystemStore
}

// NewWorkspace opens dir, or the default config directory when dir is empty.
func NewWorkspace(dir string) (*Workspace, error) {
	if dir == "" {
		d, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &Workspace{
		Dir:    dir,
		Config: cfg,
		Store:  storage.NewFilesystemStore(dir),
	}, nil
}
