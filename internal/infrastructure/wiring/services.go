package wiring

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/smarttask/internal/infrastructure/live"
	"github.com/felixgeelhaar/smarttask/internal/infrastructure/watch"
	"github.com/felixgeelhaar/smarttask/pkg/application"
	"github.com/felixgeelhaar/smarttask/pkg/sdk"
	"github.com/felixgeelhaar/smarttask/pkg/storage"
)

// Options override what would otherwise come from the workspace.
type Options struct {
	ConfigDir  string
	APIURL     string
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// AppServices exposes the API client and stores wired to one workspace.
type AppServices struct {
	Workspace *Workspace
	Client    *sdk.Client
	Auth      *application.AuthStore
	Tasks     *application.TaskStore
	Logger    *slog.Logger
}

// BuildAppServices constructs the client and stores. A 401 from any call
// clears the stored session (done by the client) and expires the auth store.
func BuildAppServices(opts Options) (*AppServices, error) {
	ws, err := NewWorkspace(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	apiURL := ws.Config.APIURL
	if opts.APIURL != "" {
		apiURL = opts.APIURL
	}

	svc := &AppServices{Workspace: ws, Logger: logger}
	client, err := sdk.NewClient(apiURL,
		sdk.WithHTTPClient(opts.HTTPClient),
		sdk.WithTokenStore(storage.TokenSource{KV: ws.Store}),
		sdk.WithLogger(logger),
		sdk.WithUnauthorizedHandler(func() { svc.Auth.Expire() }),
	)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	svc.Client = client
	svc.Auth = application.NewAuthStore(client, ws.Store, logger)
	svc.Tasks = application.NewTaskStore(client, logger)
	return svc, nil
}

// LiveSubscriber builds a push-update subscriber feeding the task store.
// Rejection of the token expires the session like a 401 from the API.
func (s *AppServices) LiveSubscriber(opts ...live.Option) (*live.Subscriber, error) {
	cfg := *s.Workspace.Config
	cfg.APIURL = s.Client.BaseURL().String()
	wsURL, err := cfg.WebSocketURL()
	if err != nil {
		return nil, err
	}
	tokens := storage.TokenSource{KV: s.Workspace.Store}
	opts = append([]live.Option{
		live.WithLogger(s.Logger),
		live.WithUnauthorizedHandler(func() {
			if err := tokens.Clear(); err != nil {
				s.Logger.Warn("failed to clear stored session", "error", err)
			}
			s.Auth.Expire()
		}),
	}, opts...)
	return live.NewSubscriber(wsURL, tokens, s.Tasks, opts...), nil
}

// SessionWatcher reloads the auth store whenever the stored token or user
// changes on disk, such as after `smarttask login` in another terminal.
func (s *AppServices) SessionWatcher() (*watch.Watcher, error) {
	return watch.NewWatcher(s.Workspace.Dir, []string{storage.TokenKey, storage.UserKey}, 0, func(e watch.ChangeEvent) {
		s.Logger.Debug("session file changed", "file", e.Name, "change", e.ChangeType)
		s.Auth.Reload()
	})
}
