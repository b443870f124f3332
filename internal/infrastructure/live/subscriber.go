// Package live keeps the task cache in sync with changes pushed by the
// server over STOMP on a websocket.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/smarttask/pkg/application"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
	"github.com/felixgeelhaar/smarttask/pkg/sdk"
)

// User queues the server publishes task changes to.
const (
	QueueUpdated = "/user/queue/tasks"
	QueueCreated = "/user/queue/tasks/created"
	QueueDeleted = "/user/queue/tasks/deleted"
)

var queues = []struct {
	destination string
	kind        application.RemoteKind
}{
	{QueueUpdated, application.RemoteUpdated},
	{QueueCreated, application.RemoteCreated},
	{QueueDeleted, application.RemoteDeleted},
}

// Sink receives decoded events. *application.TaskStore implements it.
type Sink interface {
	ApplyRemote(application.RemoteEvent)
}

// TokenSource supplies the bearer token for the handshake.
type TokenSource interface {
	Token() string
}

// Subscriber dials the server, subscribes to the task queues, and forwards
// every message to a Sink.
type Subscriber struct {
	url            string
	tokens         TokenSource
	sink           Sink
	dialer         *websocket.Dialer
	logger         *slog.Logger
	retryConfig    retry.Config
	cooldown       time.Duration
	onUnauthorized func()
}

// Option configures a Subscriber.
type Option func(*Subscriber)

func WithLogger(l *slog.Logger) Option {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(s *Subscriber) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithRetry sets the reconnect backoff and the pause taken after a whole
// round of attempts has failed.
func WithRetry(attempts int, initialDelay, cooldown time.Duration) Option {
	return func(s *Subscriber) {
		s.retryConfig.MaxAttempts = attempts
		s.retryConfig.InitialDelay = initialDelay
		s.cooldown = cooldown
	}
}

// WithUnauthorizedHandler sets the callback run when the server rejects the
// token.
func WithUnauthorizedHandler(fn func()) Option {
	return func(s *Subscriber) { s.onUnauthorized = fn }
}

func NewSubscriber(wsURL string, tokens TokenSource, sink Sink, opts ...Option) *Subscriber {
	s := &Subscriber{
		url:    wsURL,
		tokens: tokens,
		sink:   sink,
		dialer: websocket.DefaultDialer,
		logger: slog.Default(),
		retryConfig: retry.Config{
			MaxAttempts:   5,
			InitialDelay:  500 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
		cooldown: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// outcome is how a session ended without a retryable error.
type outcome int

const (
	outcomeDropped outcome = iota
	outcomeUnauthorized
)

// Run keeps a subscription alive until ctx is cancelled. It returns
// sdk.ErrUnauthorized when the server rejects the token and ctx.Err() on
// cancellation.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		retryer := retry.New[outcome](s.retryConfig)
		out, err := retryer.Do(ctx, s.session)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case err != nil:
			s.logger.Warn("live updates unavailable", "url", s.url, "error", err, "retry_in", s.cooldown)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cooldown):
			}
		case out == outcomeUnauthorized:
			s.logger.Info("live updates stopped: unauthorized")
			if s.onUnauthorized != nil {
				s.onUnauthorized()
			}
			return sdk.ErrUnauthorized
		default:
			s.logger.Debug("live connection dropped, reconnecting")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryConfig.InitialDelay):
			}
		}
	}
}

// session runs one connection. Failures before the subscription is
// established are returned as errors so they are retried with backoff.
func (s *Subscriber) session(ctx context.Context) (outcome, error) {
	token := s.tokens.Token()
	if token == "" {
		return outcomeUnauthorized, nil
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return outcomeUnauthorized, nil
		}
		return outcomeDropped, fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	host := s.url
	if u, err := url.Parse(s.url); err == nil {
		host = u.Hostname()
	}
	connect := NewFrame(CmdConnect,
		"accept-version", "1.2",
		"host", host,
		"heart-beat", "0,0",
		"Authorization", "Bearer "+token,
	)
	if err := conn.WriteMessage(websocket.TextMessage, connect.Marshal()); err != nil {
		return outcomeDropped, fmt.Errorf("send CONNECT: %w", err)
	}

	reply, err := s.readFrame(conn)
	if err != nil {
		return outcomeDropped, fmt.Errorf("await CONNECTED: %w", err)
	}
	switch reply.Command {
	case CmdConnected:
	case CmdError:
		if isUnauthorized(reply) {
			return outcomeUnauthorized, nil
		}
		return outcomeDropped, fmt.Errorf("broker refused connection: %s", reply.Header["message"])
	default:
		return outcomeDropped, fmt.Errorf("unexpected %s frame before CONNECTED", reply.Command)
	}

	kinds := make(map[string]application.RemoteKind, len(queues))
	for _, q := range queues {
		id := uuid.NewString()
		kinds[id] = q.kind
		sub := NewFrame(CmdSubscribe, "id", id, "destination", q.destination, "ack", "auto")
		if err := conn.WriteMessage(websocket.TextMessage, sub.Marshal()); err != nil {
			return outcomeDropped, fmt.Errorf("subscribe %s: %w", q.destination, err)
		}
	}
	s.logger.Info("live updates connected", "url", s.url)

	for {
		f, err := s.readFrame(conn)
		if err != nil {
			s.logger.Debug("live read failed", "error", err)
			return outcomeDropped, nil
		}
		switch f.Command {
		case CmdMessage:
			ev, err := decodeEvent(f, kinds)
			if err != nil {
				s.logger.Warn("dropping live message", "destination", f.Header["destination"], "error", err)
				continue
			}
			s.logger.Debug("live event", "kind", ev.Kind, "task_id", ev.TaskID)
			s.sink.ApplyRemote(ev)
		case CmdError:
			if isUnauthorized(f) {
				return outcomeUnauthorized, nil
			}
			s.logger.Warn("broker error", "message", f.Header["message"])
			return outcomeDropped, nil
		}
	}
}

func (s *Subscriber) readFrame(conn *websocket.Conn) (Frame, error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return Frame{}, err
		}
		f, err := ParseFrame(data)
		if err != nil {
			return Frame{}, err
		}
		if !f.IsHeartbeat() {
			return f, nil
		}
	}
}

func isUnauthorized(f Frame) bool {
	msg := strings.ToLower(f.Header["message"] + " " + string(f.Body))
	return strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401")
}

// decodeEvent maps a MESSAGE frame to a RemoteEvent using its subscription
// id, falling back to the destination.
func decodeEvent(f Frame, kinds map[string]application.RemoteKind) (application.RemoteEvent, error) {
	kind, ok := kinds[f.Header["subscription"]]
	if !ok {
		for _, q := range queues {
			if f.Header["destination"] == q.destination {
				kind, ok = q.kind, true
				break
			}
		}
	}
	if !ok {
		return application.RemoteEvent{}, fmt.Errorf("unknown subscription %q", f.Header["subscription"])
	}

	if kind == application.RemoteDeleted {
		id, err := strconv.ParseInt(strings.TrimSpace(string(f.Body)), 10, 64)
		if err != nil {
			return application.RemoteEvent{}, fmt.Errorf("decode task id: %w", err)
		}
		return application.RemoteEvent{Kind: kind, TaskID: id}, nil
	}

	var t task.Task
	if err := json.Unmarshal(f.Body, &t); err != nil {
		return application.RemoteEvent{}, fmt.Errorf("decode task: %w", err)
	}
	if t.ID == 0 {
		return application.RemoteEvent{}, errors.New("decode task: missing id")
	}
	return application.RemoteEvent{Kind: kind, TaskID: t.ID, Task: &t}, nil
}
