package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
)

// DefaultBaseURL is where the backend listens in a local development setup.
const DefaultBaseURL = "http://localhost:8080/api"

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client is a typed Go client for the SmartTask REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenStore
	logger  *slog.Logger

	mu             sync.Mutex
	onUnauthorized []func()
}

// NewClient creates a client for the API rooted at baseURL
// (for example "http://localhost:8080/api").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: u,
		http:    wrapHTTPClient(o.httpClient, o.tokens, o.userAgent),
		tokens:  o.tokens,
		logger:  logger,
	}
	if o.onUnauthorized != nil {
		c.onUnauthorized = append(c.onUnauthorized, o.onUnauthorized)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// AddUnauthorizedHandler registers another callback for 401 responses.
func (c *Client) AddUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

func (c *Client) unauthorized() {
	if c.tokens != nil {
		if err := c.tokens.Clear(); err != nil {
			c.logger.Warn("failed to clear stored session", "error", err)
		}
	}
	c.mu.Lock()
	handlers := append([]func(){}, c.onUnauthorized...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// call performs one round-trip and decodes a 2xx body into T.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var out T
	raw, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if reflect.TypeFor[T]().Kind() == reflect.Pointer {
			return out, fmt.Errorf("decode %s %s: %w", method, path, ErrEmptyBody)
		}
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       "/" + strings.TrimLeft(path, "/"),
			Message:    errorMessage(raw),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized()
		}
		return nil, apiErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return raw, nil
}

// errorMessage extracts a message from a JSON error body, falling back to
// the trimmed raw body.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
		return ""
	}
	if r := []rune(string(raw)); len(r) > 200 {
		return string(r[:200])
	}
	return string(raw)
}

func taskPath(id int64, rest ...string) string {
	return strings.Join(append([]string{"tasks", strconv.FormatInt(id, 10)}, rest...), "/")
}

// --- Auth ---

// Register creates an account and returns the new session.
func (c *Client) Register(ctx context.Context, data auth.Registration) (*auth.Response, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return call[*auth.Response](anonymous(ctx), c, http.MethodPost, "auth/register", nil, data)
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) (*auth.Response, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return call[*auth.Response](anonymous(ctx), c, http.MethodPost, "auth/login", nil, creds)
}

// --- Tasks ---

// ListTasks returns one page of the user's tasks.
func (c *Client) ListTasks(ctx context.Context, opts task.ListOptions) (*task.Page[task.Task], error) {
	opts = opts.WithDefaults()
	q := url.Values{}
	q.Set("page", strconv.Itoa(opts.Page))
	q.Set("size", strconv.Itoa(opts.Size))
	q.Set("sortBy", opts.SortBy)
	q.Set("sortDir", opts.SortDir)
	return call[*task.Page[task.Task]](ctx, c, http.MethodGet, "tasks", q, nil)
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	return call[*task.Task](ctx, c, http.MethodGet, taskPath(id), nil, nil)
}

// CreateTask creates a task and returns the server's representation.
func (c *Client) CreateTask(ctx context.Context, req task.Request) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return call[*task.Task](ctx, c, http.MethodPost, "tasks", nil, req)
}

// UpdateTask replaces the editable fields of a task.
func (c *Client) UpdateTask(ctx context.Context, id int64, req task.Request) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return call[*task.Task](ctx, c, http.MethodPut, taskPath(id), nil, req)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	_, err := c.send(ctx, http.MethodDelete, taskPath(id), nil, nil)
	return err
}

// TasksByStatus lists tasks with the given status.
func (c *Client) TasksByStatus(ctx context.Context, s task.Status) ([]task.Task, error) {
	return call[[]task.Task](ctx, c, http.MethodGet, "tasks/status/"+url.PathEscape(s.String()), nil, nil)
}

// TasksByCategory lists tasks in the given category.
func (c *Client) TasksByCategory(ctx context.Context, cat task.Category) ([]task.Task, error) {
	return call[[]task.Task](ctx, c, http.MethodGet, "tasks/category/"+url.PathEscape(cat.String()), nil, nil)
}

// TasksByPriority lists tasks with the given priority.
func (c *Client) TasksByPriority(ctx context.Context, p task.Priority) ([]task.Task, error) {
	return call[[]task.Task](ctx, c, http.MethodGet, "tasks/priority/"+url.PathEscape(p.String()), nil, nil)
}

// OverdueTasks lists open tasks past their due date.
func (c *Client) OverdueTasks(ctx context.Context) ([]task.Task, error) {
	return call[[]task.Task](ctx, c, http.MethodGet, "tasks/overdue", nil, nil)
}

// OrderedTasks lists all tasks ordered by position.
func (c *Client) OrderedTasks(ctx context.Context) ([]task.Task, error) {
	return call[[]task.Task](ctx, c, http.MethodGet, "tasks/ordered", nil, nil)
}

// UpdateStatus patches only the status of a task.
func (c *Client) UpdateStatus(ctx context.Context, id int64, s task.Status) (*task.Task, error) {
	q := url.Values{}
	q.Set("status", s.String())
	return call[*task.Task](ctx, c, http.MethodPatch, taskPath(id, "status"), q, nil)
}

// UpdatePosition patches only the position of a task.
func (c *Client) UpdatePosition(ctx context.Context, id int64, position int) (*task.Task, error) {
	q := url.Values{}
	q.Set("position", strconv.Itoa(position))
	return call[*task.Task](ctx, c, http.MethodPatch, taskPath(id, "position"), q, nil)
}

// --- AI ---

type summaryResponse struct {
	Summary string `json:"summary"`
}

type suggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

type analysisResponse struct {
	Analysis string `json:"analysis"`
}

// Summarize asks the backend for a summary of all tasks.
func (c *Client) Summarize(ctx context.Context) (string, error) {
	res, err := call[summaryResponse](ctx, c, http.MethodPost, "tasks/ai/summarize", nil, nil)
	return res.Summary, err
}

// Suggestion asks the backend for advice on a single task.
func (c *Client) Suggestion(ctx context.Context, id int64) (string, error) {
	res, err := call[suggestionResponse](ctx, c, http.MethodPost, taskPath(id, "ai", "suggestion"), nil, nil)
	return res.Suggestion, err
}

// AnalyzeProductivity asks the backend to compare completed and pending work.
func (c *Client) AnalyzeProductivity(ctx context.Context) (string, error) {
	res, err := call[analysisResponse](ctx, c, http.MethodPost, "tasks/ai/productivity", nil, nil)
	return res.Analysis, err
}
