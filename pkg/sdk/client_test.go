package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/smarttask/internal/testutil"
	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
	"github.com/felixgeelhaar/smarttask/pkg/storage"
)

func newTestClient(t *testing.T, kv storage.KeyValue, opts ...Option) (*testutil.FakeAPI, *Client) {
	t.Helper()
	api := testutil.NewFakeAPI()
	srv := api.Serve()
	t.Cleanup(srv.Close)

	opts = append([]Option{WithTokenStore(storage.TokenSource{KV: kv})}, opts...)
	c, err := NewClient(srv.URL+"/api", opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return api, c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"default", "", false},
		{"http", "http://example.com/api", false},
		{"trailing slash", "https://example.com/api/", false},
		{"bad scheme", "ftp://example.com", true},
		{"garbage", "://nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && strings.HasSuffix(c.BaseURL().Path, "/") {
				t.Fatalf("base path kept trailing slash: %q", c.BaseURL().Path)
			}
		})
	}
}

func TestLogin_SendsNoAuthorization(t *testing.T) {
	kv := storage.NewMemoryStore()
	_ = kv.Set(storage.TokenKey, "stale")
	api, c := newTestClient(t, kv)
	api.AddUser("alice", "pw", "alice@example.com")

	resp, err := c.Login(context.Background(), auth.Credentials{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp == nil || resp.Token == "" || resp.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	last := api.LastRequest()
	if last.Authorization != "" {
		t.Fatalf("login carried Authorization %q", last.Authorization)
	}
	if last.RequestID == "" {
		t.Fatal("missing request id")
	}
}

func TestLogin_ValidatesLocally(t *testing.T) {
	api, c := newTestClient(t, storage.NewMemoryStore())
	_, err := c.Login(context.Background(), auth.Credentials{Username: "alice"})
	if !errors.Is(err, auth.ErrMissingCredentials) {
		t.Fatalf("got %v, want ErrMissingCredentials", err)
	}
	if n := len(api.Requests()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestRegister(t *testing.T) {
	api, c := newTestClient(t, storage.NewMemoryStore())
	resp, err := c.Register(context.Background(), auth.Registration{
		Username: "bob", Email: "bob@example.com", Password: "secret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.UserID == 0 || resp.Token == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	_, err = c.Register(context.Background(), auth.Registration{
		Username: "bob", Email: "bob@example.com", Password: "secret",
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 APIError, got %v", err)
	}
	if apiErr.UserMessage() != "Username is already taken" {
		t.Fatalf("message = %q", apiErr.UserMessage())
	}
	if got := api.LastRequest().Path; got != "/api/auth/register" {
		t.Fatalf("path = %q", got)
	}
}

func TestAuthenticatedRequestCarriesBearer(t *testing.T) {
	kv := storage.NewMemoryStore()
	api, c := newTestClient(t, kv)
	api.AddUser("alice", "pw", "alice@example.com")
	_ = kv.Set(storage.TokenKey, api.IssueToken("alice"))

	if _, err := c.OrderedTasks(context.Background()); err != nil {
		t.Fatalf("OrderedTasks: %v", err)
	}
	if got := api.LastRequest().Authorization; got != "Bearer t1" {
		t.Fatalf("Authorization = %q, want %q", got, "Bearer t1")
	}
}

func TestUnauthorizedClearsSessionAndNotifies(t *testing.T) {
	kv := storage.NewMemoryStore()
	_ = kv.Set(storage.TokenKey, "expired")
	_ = kv.Set(storage.UserKey, `{"userId":1,"username":"alice"}`)

	calls := 0
	_, c := newTestClient(t, kv, WithUnauthorizedHandler(func() { calls++ }))
	extra := 0
	c.AddUnauthorizedHandler(func() { extra++ })

	_, err := c.OrderedTasks(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	if calls != 1 || extra != 1 {
		t.Fatalf("handlers called %d/%d times, want 1/1", calls, extra)
	}
	for _, key := range []string{storage.TokenKey, storage.UserKey} {
		if _, ok, _ := kv.Get(key); ok {
			t.Fatalf("key %q still stored after 401", key)
		}
	}
}

func TestTaskCRUD(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	api, c := newTestClient(t, kv)
	api.AddUser("alice", "pw", "alice@example.com")
	_ = kv.Set(storage.TokenKey, api.IssueToken("alice"))

	created, err := c.CreateTask(ctx, task.Request{Title: "Write report", Priority: task.PriorityHigh})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID == 0 || created.Status != task.StatusPending || created.Priority != task.PriorityHigh {
		t.Fatalf("unexpected task: %+v", created)
	}

	got, err := c.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Write report" {
		t.Fatalf("title = %q", got.Title)
	}

	req := task.RequestFrom(*got)
	req.Title = "Write final report"
	updated, err := c.UpdateTask(ctx, created.ID, req)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "Write final report" {
		t.Fatalf("title = %q", updated.Title)
	}

	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	_, err = c.GetTask(ctx, created.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCreateTask_RejectsBlankTitle(t *testing.T) {
	api, c := newTestClient(t, storage.NewMemoryStore())
	_, err := c.CreateTask(context.Background(), task.Request{Title: "   "})
	if !errors.Is(err, task.ErrTitleRequired) {
		t.Fatalf("got %v, want ErrTitleRequired", err)
	}
	if len(api.Requests()) != 0 {
		t.Fatal("request should not have been sent")
	}
}

func TestPatchEndpointsUseQueryParameters(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	api, c := newTestClient(t, kv)
	uid := api.AddUser("alice", "pw", "alice@example.com")
	_ = kv.Set(storage.TokenKey, api.IssueToken("alice"))
	seeded := api.SeedTask(uid, task.Task{Title: "A"})

	moved, err := c.UpdateStatus(ctx, seeded.ID, task.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if moved.Status != task.StatusCompleted || moved.CompletedAt == nil {
		t.Fatalf("unexpected task: %+v", moved)
	}
	last := api.LastRequest()
	if last.Method != http.MethodPatch || last.Query != "status=COMPLETED" {
		t.Fatalf("unexpected request: %+v", last)
	}

	if _, err := c.UpdatePosition(ctx, seeded.ID, 3); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	if q := api.LastRequest().Query; q != "position=3" {
		t.Fatalf("query = %q", q)
	}
	stored, _ := api.Task(seeded.ID)
	if stored.Position != 3 {
		t.Fatalf("position = %d, want 3", stored.Position)
	}
}

func TestListAndFilters(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	api, c := newTestClient(t, kv)
	uid := api.AddUser("alice", "pw", "alice@example.com")
	other := api.AddUser("eve", "pw", "eve@example.com")
	_ = kv.Set(storage.TokenKey, api.IssueToken("alice"))

	api.SeedTask(uid, task.Task{Title: "A", Status: task.StatusPending, Category: task.CategoryWork, Priority: task.PriorityLow})
	api.SeedTask(uid, task.Task{Title: "B", Status: task.StatusInProgress, Category: task.CategoryHealth, Priority: task.PriorityUrgent})
	api.SeedTask(other, task.Task{Title: "hidden"})

	page, err := c.ListTasks(ctx, task.ListOptions{Size: 1})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if page.TotalElements != 2 || len(page.Content) != 1 || page.TotalPages != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if q := api.LastRequest().Query; !strings.Contains(q, "sortBy=createdAt") || !strings.Contains(q, "sortDir=desc") {
		t.Fatalf("defaults not sent: %q", q)
	}

	tests := []struct {
		name string
		call func() ([]task.Task, error)
		path string
		want string
	}{
		{"status", func() ([]task.Task, error) { return c.TasksByStatus(ctx, task.StatusInProgress) }, "/api/tasks/status/IN_PROGRESS", "B"},
		{"category", func() ([]task.Task, error) { return c.TasksByCategory(ctx, task.CategoryWork) }, "/api/tasks/category/WORK", "A"},
		{"priority", func() ([]task.Task, error) { return c.TasksByPriority(ctx, task.PriorityUrgent) }, "/api/tasks/priority/URGENT", "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 1 || got[0].Title != tt.want {
				t.Fatalf("got %+v, want one task %q", got, tt.want)
			}
			if p := api.LastRequest().Path; p != tt.path {
				t.Fatalf("path = %q, want %q", p, tt.path)
			}
		})
	}
}

func TestAIEndpoints(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	api, c := newTestClient(t, kv)
	uid := api.AddUser("alice", "pw", "alice@example.com")
	_ = kv.Set(storage.TokenKey, api.IssueToken("alice"))
	seeded := api.SeedTask(uid, task.Task{Title: "A"})

	summary, err := c.Summarize(ctx)
	if err != nil || summary != api.Summary {
		t.Fatalf("Summarize = %q, %v", summary, err)
	}
	suggestion, err := c.Suggestion(ctx, seeded.ID)
	if err != nil || suggestion != api.Suggestion {
		t.Fatalf("Suggestion = %q, %v", suggestion, err)
	}
	if p := api.LastRequest().Path; p != "/api/tasks/1/ai/suggestion" {
		t.Fatalf("path = %q", p)
	}
	analysis, err := c.AnalyzeProductivity(ctx)
	if err != nil || analysis != api.Analysis {
		t.Fatalf("AnalyzeProductivity = %q, %v", analysis, err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Task not found","error":"Not Found"}`, "Task not found"},
		{"error field", `{"error":"Bad Request"}`, "Bad Request"},
		{"json without text", `{"status":500}`, ""},
		{"plain text", "gateway exploded", "gateway exploded"},
		{"empty", "  ", ""},
		{"long body", strings.Repeat("x", 300), strings.Repeat("x", 200)},
		{"long multibyte body", strings.Repeat("é", 300), strings.Repeat("é", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage([]byte(tt.body)); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_FallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.OrderedTasks(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.UserMessage() != "Bad Gateway" {
		t.Fatalf("UserMessage = %q", apiErr.UserMessage())
	}
	if apiErr.Path != "/tasks/ordered" {
		t.Fatalf("Path = %q", apiErr.Path)
	}
}

func TestInjectedFailureSurfacesServerMessage(t *testing.T) {
	kv := storage.NewMemoryStore()
	api, c := newTestClient(t, kv)
	api.AddUser("alice", "pw", "alice@example.com")
	_ = kv.Set(storage.TokenKey, api.IssueToken("alice"))
	api.FailNext(http.StatusInternalServerError, "database unavailable")

	_, err := c.OrderedTasks(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.UserMessage() != "database unavailable" {
		t.Fatalf("unexpected error: %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("500 must not match ErrUnauthorized")
	}
}

func TestCall_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	kv := storage.NewMemoryStore()
	_ = kv.Set(storage.TokenKey, "t1")
	c, err := NewClient(srv.URL+"/api", WithTokenStore(storage.TokenSource{KV: kv}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	page, err := c.ListTasks(ctx, task.ListOptions{})
	if !errors.Is(err, ErrEmptyBody) || page != nil {
		t.Fatalf("ListTasks = %v, %v; want ErrEmptyBody", page, err)
	}
	if _, err := c.GetTask(ctx, 1); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("GetTask err = %v, want ErrEmptyBody", err)
	}
	if _, err := c.Login(ctx, auth.Credentials{Username: "alice", Password: "pw"}); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("Login err = %v, want ErrEmptyBody", err)
	}

	tasks, err := c.OrderedTasks(ctx)
	if err != nil || len(tasks) != 0 {
		t.Fatalf("OrderedTasks = %v, %v; want empty list", tasks, err)
	}
	if err := c.DeleteTask(ctx, 1); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
}
