package sdk

import (
	"log/slog"
	"net/http"
)

// TokenStore supplies the bearer token and forgets the session on 401.
type TokenStore interface {
	Token() string
	Clear() error
}

type options struct {
	httpClient     *http.Client
	tokens         TokenStore
	onUnauthorized func()
	logger         *slog.Logger
	userAgent      string
}

func defaultOptions() options {
	return options{
		httpClient: &http.Client{},
		userAgent:  "smarttask-go/" + Version,
	}
}

// Option configures the SDK client.
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped,
// not replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}

// WithTokenStore sets where the bearer token is read from.
func WithTokenStore(ts TokenStore) Option {
	return func(o *options) { o.tokens = ts }
}

// WithUnauthorizedHandler sets the callback run after a 401 cleared the
// stored session. This is where callers route the user to a login screen.
func WithUnauthorizedHandler(fn func()) Option {
	return func(o *options) { o.onUnauthorized = fn }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}
