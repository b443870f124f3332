// Package auth holds the session and credential types exchanged with the
// backend's /auth endpoints.
package auth

import (
	"errors"
	"strings"
)

// ErrMissingCredentials is returned when a required login or registration
// field is blank.
var ErrMissingCredentials = errors.New("missing credentials")

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return ErrMissingCredentials
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("invalid email: " + r.Email)
	}
	return nil
}

// Response is returned by both /auth endpoints.
type Response struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

// User returns the profile part of the response, without the token.
func (r Response) User() User {
	return User{
		Type:     r.Type,
		UserID:   r.UserID,
		Username: r.Username,
		Email:    r.Email,
		FullName: r.FullName,
	}
}

// User is the profile persisted under the "user" storage key.
type User struct {
	Type     string `json:"type,omitempty"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
