package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/smarttask/internal/testutil"
)

// backend is a fake server plus a config dir pointing at it.
type backend struct {
	fake *testutil.FakeAPI
	url  string
	dir  string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	fake := testutil.NewFakeAPI()
	fake.AddUser("alice", "pw", "alice@example.com")
	srv := fake.Serve()
	t.Cleanup(srv.Close)
	t.Setenv("SMARTTASK_API_URL", "")
	t.Setenv("SMARTTASK_WS_URL", "")
	return &backend{fake: fake, url: srv.URL + "/api", dir: t.TempDir()}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command against the backend with fresh flag values.
func (b *backend) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	resetFlags(RootCmd)

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(append([]string{"--config-dir", b.dir, "--api-url", b.url}, args...))
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetIn(nil)
		RootCmd.SetArgs(nil)
	})

	err := Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (b *backend) login(t *testing.T) {
	t.Helper()
	if res := b.run(t, "", "login", "-u", "alice", "-p", "pw"); res.err != nil {
		t.Fatalf("login: %v\n%s", res.err, res.stderr)
	}
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
