// Package storage provides the durable key/value storage that keeps a
// login session alive across runs.
package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
)

// Storage keys.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// KeyValue is a synchronous string store. Get reports found=false for
// missing keys; Remove ignores missing keys.
type KeyValue interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Remove(keys ...string) error
}

// MemoryStore is an in-process KeyValue.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Session is the persisted login: raw token plus the user profile.
type Session struct {
	Token string
	User  *auth.User
}

// LoadSession reads the token and user keys. A missing token yields an
// empty session. A user value that fails to decode is reported as an error
// alongside whatever token was found.
func LoadSession(kv KeyValue) (Session, error) {
	var s Session
	token, ok, err := kv.Get(TokenKey)
	if err != nil {
		return s, fmt.Errorf("load token: %w", err)
	}
	if ok {
		s.Token = token
	}

	raw, ok, err := kv.Get(UserKey)
	if err != nil {
		return s, fmt.Errorf("load user: %w", err)
	}
	if !ok || raw == "" {
		return s, nil
	}
	var u auth.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return s, fmt.Errorf("decode user: %w", err)
	}
	s.User = &u
	return s, nil
}

// SaveSession persists the token and the profile part of resp.
func SaveSession(kv KeyValue, resp auth.Response) error {
	data, err := json.Marshal(resp.User())
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	prev, hadPrev, err := kv.Get(UserKey)
	if err != nil {
		return err
	}
	// The token goes last so a stored token always has its user beside it.
	if err := kv.Set(UserKey, string(data)); err != nil {
		return err
	}
	if err := kv.Set(TokenKey, resp.Token); err != nil {
		if hadPrev {
			_ = kv.Set(UserKey, prev)
		} else {
			_ = kv.Remove(UserKey)
		}
		return err
	}
	return nil
}

// ClearSession removes both session keys.
func ClearSession(kv KeyValue) error {
	return kv.Remove(TokenKey, UserKey)
}

// TokenSource reads the current bearer token from kv on every call.
type TokenSource struct {
	KV KeyValue
}

// Token returns the stored token or "" when none is stored or the read fails.
func (ts TokenSource) Token() string {
	if ts.KV == nil {
		return ""
	}
	token, ok, err := ts.KV.Get(TokenKey)
	if err != nil || !ok {
		return ""
	}
	return token
}

// Clear drops the persisted session.
func (ts TokenSource) Clear() error {
	if ts.KV == nil {
		return nil
	}
	return ClearSession(ts.KV)
}
