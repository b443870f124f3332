package sdk

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries a per-request id for server-side log correlation.
const RequestIDHeader = "X-Request-ID"

type anonymousKey struct{}

// anonymous marks a request that must go out without credentials.
func anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// bearerTransport decorates outgoing requests with the request id and,
// unless the request is anonymous, the stored bearer token.
type bearerTransport struct {
	base      http.RoundTripper
	tokens    TokenStore
	userAgent string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if t.userAgent != "" {
		r.Header.Set("User-Agent", t.userAgent)
	}
	if t.tokens != nil && !isAnonymous(r.Context()) {
		if token := t.tokens.Token(); token != "" {
			tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
			tok.SetAuthHeader(r)
		}
	}
	return t.base.RoundTrip(r)
}

func wrapHTTPClient(hc *http.Client, tokens TokenStore, userAgent string) *http.Client {
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *hc
	wrapped.Transport = &bearerTransport{base: base, tokens: tokens, userAgent: userAgent}
	return &wrapped
}
