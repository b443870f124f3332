package auth_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name  string
		creds auth.Credentials
		ok    bool
	}{
		{"valid", auth.Credentials{Username: "alice", Password: "pw"}, true},
		{"blank username", auth.Credentials{Username: " ", Password: "pw"}, false},
		{"missing password", auth.Credentials{Username: "alice"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, auth.ErrMissingCredentials) {
				t.Fatalf("expected ErrMissingCredentials, got %v", err)
			}
		})
	}
}

func TestRegistration_Validate(t *testing.T) {
	if err := (auth.Registration{Username: "a", Email: "a@example.com", Password: "pw"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (auth.Registration{Username: "a", Email: "nope", Password: "pw"}).Validate(); err == nil {
		t.Fatal("expected invalid email error")
	}
	if err := (auth.Registration{Username: "a", Password: "pw"}).Validate(); !errors.Is(err, auth.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestResponse_UserDropsToken(t *testing.T) {
	resp := auth.Response{Token: "t1", Type: "Bearer", UserID: 1, Username: "alice", Email: "a@example.com"}
	data, err := json.Marshal(resp.User())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["token"]; ok {
		t.Fatal("user profile must not carry the token")
	}
	if m["username"] != "alice" {
		t.Fatalf("unexpected profile: %v", m)
	}
}

func TestUser_DisplayName(t *testing.T) {
	if got := (auth.User{Username: "alice"}).DisplayName(); got != "alice" {
		t.Fatalf("got %q", got)
	}
	if got := (auth.User{Username: "alice", FullName: "Alice A."}).DisplayName(); got != "Alice A." {
		t.Fatalf("got %q", got)
	}
}
