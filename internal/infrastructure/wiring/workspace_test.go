package wiring

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/smarttask/internal/infrastructure/config"
	"github.com/felixgeelhaar/smarttask/internal/testutil"
	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/sdk"
	"github.com/felixgeelhaar/smarttask/pkg/storage"
)

func TestNewWorkspaceProvidesConfigAndStore(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	dir := t.TempDir()
	ws, err := NewWorkspace(dir)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if ws.Config == nil || ws.Config.APIURL != sdk.DefaultBaseURL {
		t.Fatalf("unexpected config: %+v", ws.Config)
	}
	if ws.Store == nil || ws.Store.Dir() != dir {
		t.Fatal("expected store rooted at workspace dir")
	}
}

func TestNewWorkspaceUsesEnvDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	t.Setenv(config.EnvConfigDir, dir)
	ws, err := NewWorkspace("")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if ws.Dir != dir {
		t.Fatalf("Dir = %q, want %q", ws.Dir, dir)
	}
}

func TestBuildAppServicesExpiresSessionOn401(t *testing.T) {
	fake := testutil.NewFakeAPI()
	fake.AddUser("alice", "pw", "alice@example.com")
	srv := fake.Serve()
	defer srv.Close()

	svc, err := BuildAppServices(Options{ConfigDir: t.TempDir(), APIURL: srv.URL + "/api"})
	if err != nil {
		t.Fatalf("BuildAppServices: %v", err)
	}
	ctx := context.Background()
	if err := svc.Auth.Login(ctx, auth.Credentials{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// A fresh set of services sees the persisted session.
	again, err := BuildAppServices(Options{ConfigDir: svc.Workspace.Dir, APIURL: srv.URL + "/api"})
	if err != nil {
		t.Fatalf("BuildAppServices: %v", err)
	}
	if !again.Auth.State().IsAuthenticated {
		t.Fatal("session not restored from disk")
	}

	fake.RevokeTokens()
	again.Tasks.FetchTasks(ctx)
	if again.Auth.State().IsAuthenticated {
		t.Fatal("auth store still authenticated after 401")
	}
	if _, ok, _ := again.Workspace.Store.Get(storage.TokenKey); ok {
		t.Fatal("token file survived 401")
	}
}

func TestLiveSubscriberWithoutSession(t *testing.T) {
	svc, err := BuildAppServices(Options{ConfigDir: t.TempDir(), APIURL: "http://127.0.0.1:1/api"})
	if err != nil {
		t.Fatalf("BuildAppServices: %v", err)
	}
	sub, err := svc.LiveSubscriber()
	if err != nil {
		t.Fatalf("LiveSubscriber: %v", err)
	}
	if err := sub.Run(context.Background()); !errors.Is(err, sdk.ErrUnauthorized) {
		t.Fatalf("Run returned %v, want ErrUnauthorized", err)
	}
}

func TestSessionWatcherReloadsAuth(t *testing.T) {
	svc, err := BuildAppServices(Options{ConfigDir: t.TempDir(), APIURL: "http://127.0.0.1:1/api"})
	if err != nil {
		t.Fatalf("BuildAppServices: %v", err)
	}
	w, err := svc.SessionWatcher()
	if err != nil {
		t.Fatalf("SessionWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	other := storage.NewFilesystemStore(svc.Workspace.Dir)
	if err := storage.SaveSession(other, auth.Response{Token: "t7", UserID: 3, Username: "carol"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !svc.Auth.State().IsAuthenticated {
		if time.Now().After(deadline) {
			t.Fatal("auth store did not pick up the stored session")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if st := svc.Auth.State(); st.Token != "t7" {
		t.Fatalf("token = %q", st.Token)
	}
}
