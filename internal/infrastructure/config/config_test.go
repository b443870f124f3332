package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/smarttask/pkg/sdk"
)

func TestLoadConfigMissing(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvWSURL, "")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.APIURL != sdk.DefaultBaseURL || cfg.PageSize != DefaultPageSize || cfg.Live {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvWSURL, "")
	dir := filepath.Join(t.TempDir(), "nested")

	input := &Config{APIURL: "https://tasks.example.com/api", PageSize: 25, Live: true}
	if err := Save(dir, input); err != nil {
		t.Fatalf("save config: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, configFile))
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("config mode = %o, want 600", perm)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if *cfg != *input {
		t.Fatalf("got %+v, want %+v", cfg, input)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, configFile), []byte("::bad"), 0600); err != nil {
		t.Fatalf("write bad config: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, &Config{APIURL: "http://file/api", PageSize: -1}); err != nil {
		t.Fatalf("save config: %v", err)
	}
	t.Setenv(EnvAPIURL, "http://env/api")
	t.Setenv(EnvWSURL, "ws://env/ws")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.APIURL != "http://env/api" || cfg.WSURL != "ws://env/ws" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.PageSize != DefaultPageSize {
		t.Fatalf("page size = %d, want default", cfg.PageSize)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv(EnvConfigDir, "/tmp/custom")
	dir, err := DefaultDir()
	if err != nil || dir != "/tmp/custom" {
		t.Fatalf("DefaultDir = %q, %v", dir, err)
	}

	t.Setenv(EnvConfigDir, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err = DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", "smarttask") {
		t.Fatalf("DefaultDir = %q", dir)
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"explicit", Config{APIURL: "http://x/api", WSURL: "ws://y/stomp"}, "ws://y/stomp", false},
		{"http", Config{APIURL: "http://localhost:8080/api"}, "ws://localhost:8080/ws", false},
		{"https", Config{APIURL: "https://tasks.example.com/api?x=1"}, "wss://tasks.example.com/ws", false},
		{"bad scheme", Config{APIURL: "ftp://x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.WebSocketURL()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
