package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
)

func TestFilesystemStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "smarttask")
	s := NewFilesystemStore(dir)

	if _, ok, err := s.Get(TokenKey); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(TokenKey, "t1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(TokenKey)
	if err != nil || !ok || got != "t1" {
		t.Fatalf("get = %q ok=%v err=%v", got, ok, err)
	}

	info, err := os.Stat(filepath.Join(dir, TokenKey))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	if err := s.Remove(TokenKey, UserKey); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(TokenKey); ok {
		t.Fatal("token should be gone")
	}
}

func TestFilesystemStore_ResolvePathRejectsTraversal(t *testing.T) {
	s := NewFilesystemStore(t.TempDir())
	for _, key := range []string{"", "../evil", "nested/key"} {
		if _, err := s.ResolvePath(key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ResolvePath(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
	if err := s.Set("../evil", "x"); err == nil {
		t.Fatal("expected Set to reject traversal")
	}
}

func TestSession_SaveLoadClear(t *testing.T) {
	kv := NewMemoryStore()
	resp := auth.Response{Token: "t1", Type: "Bearer", UserID: 1, Username: "alice", Email: "alice@example.com"}

	if err := SaveSession(kv, resp); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess, err := LoadSession(kv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.Token != "t1" || sess.User == nil || sess.User.Username != "alice" || sess.User.UserID != 1 {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if raw, _, _ := kv.Get(TokenKey); raw != "t1" {
		t.Fatalf("token stored as %q", raw)
	}

	if err := ClearSession(kv); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sess, err = LoadSession(kv)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if sess.Token != "" || sess.User != nil {
		t.Fatalf("expected empty session, got %+v", sess)
	}
}

func TestLoadSession_CorruptUser(t *testing.T) {
	kv := NewMemoryStore()
	_ = kv.Set(TokenKey, "t1")
	_ = kv.Set(UserKey, "{not json")

	sess, err := LoadSession(kv)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if sess.Token != "t1" || sess.User != nil {
		t.Fatalf("token should survive a corrupt user: %+v", sess)
	}
}

func TestTokenSource(t *testing.T) {
	kv := NewMemoryStore()
	ts := TokenSource{KV: kv}
	if ts.Token() != "" {
		t.Fatal("expected empty token")
	}
	_ = kv.Set(TokenKey, "abc")
	_ = kv.Set(UserKey, "{}")
	if ts.Token() != "abc" {
		t.Fatalf("token = %q", ts.Token())
	}
	if err := ts.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := kv.Get(UserKey); ok {
		t.Fatal("clear must remove the user key too")
	}
	if (TokenSource{}).Token() != "" {
		t.Fatal("nil store yields no token")
	}
}

// failingStore rejects writes to one key.
type failingStore struct {
	*MemoryStore
	failKey string
}

func (f failingStore) Set(key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(key, value)
}

func TestSaveSession_FailedWriteKeepsPreviousSession(t *testing.T) {
	old := auth.Response{Token: "t1", UserID: 1, Username: "alice"}
	next := auth.Response{Token: "t2", UserID: 2, Username: "bob"}

	tests := []struct {
		name    string
		failKey string
		prior   bool
	}{
		{"token write fails", TokenKey, true},
		{"user write fails", UserKey, true},
		{"token write fails without prior session", TokenKey, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemoryStore()
			if tt.prior {
				if err := SaveSession(mem, old); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			if err := SaveSession(failingStore{MemoryStore: mem, failKey: tt.failKey}, next); err == nil {
				t.Fatal("expected error")
			}

			sess, err := LoadSession(mem)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !tt.prior {
				if sess.Token != "" || sess.User != nil {
					t.Fatalf("expected empty session, got %+v", sess)
				}
				return
			}
			if sess.Token != "t1" || sess.User == nil || sess.User.Username != "alice" {
				t.Fatalf("previous session not kept: %+v", sess)
			}
		})
	}
}
