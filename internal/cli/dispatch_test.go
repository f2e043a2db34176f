package cli_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoctl/internal/cli"
	"todoctl/internal/commands"
	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/service"
	"todoctl/internal/session"
	"todoctl/internal/storage"
	"todoctl/internal/testutil"
)

type noHeaders struct{}

func (noHeaders) SetAuthToken(string) {}
func (noHeaders) ClearAuthToken()     {}

// testFactory serves every command from svc with a session over store.
func testFactory(svc *testutil.FakeService, store *testutil.MemoryStore) cli.Factory {
	return func(ctx context.Context, cfg *config.Config, log *slog.Logger) (commands.Deps, func(), error) {
		sess := session.New(store, noHeaders{}, nil, session.WithRemote(svc))
		return commands.Deps{Session: sess, Tasks: svc, Auth: svc, Log: log}, sess.Close, nil
	}
}

// isolate keeps the user's real config directory and environment out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TODOCTL_API_URL", "")
	t.Setenv("TODOCTL_LOG_LEVEL", "")
	t.Setenv("TODOCTL_TIMEOUT", "")
	return filepath.Join(dir, config.AppName)
}

func newDispatcher(t *testing.T, token, input string) (*cli.Dispatcher, *testutil.FakeService, *testutil.MemoryStore) {
	t.Helper()
	isolate(t)
	svc := testutil.NewFakeService()
	store := testutil.NewMemoryStore(token)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, store), cli.WithInput(strings.NewReader(input)))
	return d, svc, store
}

func run(d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _, _ := newDispatcher(t, "", "")

	_, stderr, code := run(d, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	d, _, _ := newDispatcher(t, "", "")

	_, stderr, code := run(d, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	d, _, _ := newDispatcher(t, "", "")

	stdout, stderr, code := run(d, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	d, _, _ := newDispatcher(t, "", "")

	stdout, stderr, code := run(d, "VERSION")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todoctl 0.1.0\n" {
		t.Errorf("expected 'todoctl 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	d, _, _ := newDispatcher(t, "", "")

	_, stderr, code := run(d, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	d, _, _ := newDispatcher(t, "", "")

	_, stderr, code := run(d, "help", "--config")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: flag needs an argument: -config\n", stderr)
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	d, svc, _ := newDispatcher(t, "fake-token", "")
	svc.AddTask("Buy milk", false)

	stdout, stderr, code := run(d)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "   1  [ ] Buy milk\n", stdout)
}

func TestDispatcher_ProtectedCommandRedirectsGuests(t *testing.T) {
	for _, token := range []string{"", "undefined", "null"} {
		t.Run(token, func(t *testing.T) {
			d, svc, _ := newDispatcher(t, token, "")
			svc.ListTasksErr = service.ErrUnavailable

			stdout, stderr, code := run(d, "list")

			assert.Equal(t, exitcode.AuthError, code)
			assert.Empty(t, stdout)
			assert.Equal(t, "error: not logged in (run: todoctl login)\n", stderr)
		})
	}
}

func TestDispatcher_GuestCommandRunsWithoutSession(t *testing.T) {
	d, svc, store := newDispatcher(t, "", "ada@example.com\nsecret\n")
	svc.Accounts["ada@example.com"] = "secret"

	stdout, stderr, code := run(d, "login")

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok\n", stdout)
	assert.Equal(t, "Email: Password: ", stderr)
	assert.Equal(t, "fake-token", store.Raw())
}

func TestDispatcher_OptionalCommandForGuest(t *testing.T) {
	d, svc, _ := newDispatcher(t, "", "")

	stdout, _, code := run(d, "logout")

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "not logged in\n", stdout)
	assert.Equal(t, 0, svc.LogoutCalls)
}

func TestDispatcher_APIURLOverride(t *testing.T) {
	isolate(t)
	var got string
	factory := func(ctx context.Context, cfg *config.Config, log *slog.Logger) (commands.Deps, func(), error) {
		got = cfg.APIURL
		return testFactory(testutil.NewFakeService(), testutil.NewMemoryStore("fake-token"))(ctx, cfg, log)
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, factory)

	_, _, code := run(d, "list", "--api-url", "http://tasks.example.test/api/")

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "http://tasks.example.test/api", got)
}

func TestDispatcher_InvalidAPIURL(t *testing.T) {
	d, _, _ := newDispatcher(t, "fake-token", "")

	_, stderr, code := run(d, "list", "--api-url", "not a url")

	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "error: invalid configuration")
}

func TestDispatcher_ConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("api_url: http://from-file.test/api\n"), 0600))

	var got string
	factory := func(ctx context.Context, cfg *config.Config, log *slog.Logger) (commands.Deps, func(), error) {
		got = cfg.APIURL
		return testFactory(testutil.NewFakeService(), testutil.NewMemoryStore(""))(ctx, cfg, log)
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, factory)

	run(d, "logout")

	assert.Equal(t, "http://from-file.test/api", got)
}

func TestDispatcher_FactoryError(t *testing.T) {
	isolate(t)
	factory := func(ctx context.Context, cfg *config.Config, log *slog.Logger) (commands.Deps, func(), error) {
		return commands.Deps{}, nil, service.ErrUnavailable
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, factory)

	_, stderr, code := run(d, "list")

	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: api unavailable\n", stderr)
}

func TestDispatcher_NoFactory(t *testing.T) {
	isolate(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, stderr, code := run(d, "list")
	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: no backend configured\n", stderr)

	stdout, _, code := run(d, "version")
	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "todoctl 0.1.0\n", stdout)
}

// ---- shell

func TestShell_RunsLines(t *testing.T) {
	d, svc, _ := newDispatcher(t, "fake-token", "add -d \"two dozen\" 'Buy eggs'\nlist\n\nexit\nversion\n")

	stdout, stderr, code := run(d, "shell")

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok 1\n   1  [ ] Buy eggs\n", stdout)
	assert.Equal(t, "todoctl> todoctl> todoctl> todoctl> ", stderr)

	task, ok := svc.Task(1)
	require.True(t, ok)
	assert.Equal(t, "two dozen", task.Description)
}

func TestShell_EndOfInput(t *testing.T) {
	d, _, _ := newDispatcher(t, "", "version")

	stdout, stderr, code := run(d, "shell")

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "todoctl 0.1.0\n", stdout)
	assert.Equal(t, "todoctl> \n", stderr)
}

func TestShell_ReturnsLastExitCode(t *testing.T) {
	d, _, _ := newDispatcher(t, "fake-token", "show 9\n")

	_, stderr, code := run(d, "shell", "--quiet")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: Task not found.\n", stderr)
}

func TestShell_LineErrors(t *testing.T) {
	d, _, _ := newDispatcher(t, "fake-token", "shell\nadd \"oops\nlist --config /tmp\nnope\n")

	_, stderr, code := run(d, "shell", "--quiet")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t,
		"error: already in shell\n"+
			"error: unterminated quote\n"+
			"error: --config and --api-url can only be given when starting the shell\n"+
			"error: unknown command: nope\n",
		stderr)
}

func TestShell_LogoutIsSeenByNextLine(t *testing.T) {
	d, svc, store := newDispatcher(t, "fake-token", "logout\nlist\nlist\n")
	svc.AddTask("Buy milk", false)

	stdout, stderr, code := run(d, "shell", "--quiet")

	assert.Equal(t, exitcode.AuthError, code)
	assert.Empty(t, stdout)
	assert.Equal(t, strings.Repeat("error: not logged in (run: todoctl login)\n", 2), stderr)
	assert.Equal(t, 1, svc.LogoutCalls)
	assert.Equal(t, "", store.Raw())
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"list", []string{"list"}},
		{"  add   Buy  milk \n", []string{"add", "Buy", "milk"}},
		{`add "Buy milk"`, []string{"add", "Buy milk"}},
		{`add 'it''s'`, []string{"add", "its"}},
		{`add "say \"hi\""`, []string{"add", `say "hi"`}},
		{`add Buy\ milk`, []string{"add", "Buy milk"}},
		{`edit -d "" 3`, []string{"edit", "-d", "", "3"}},
		{`add 'a\b'`, []string{"add", `a\b`}},
		{"\t", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := cli.SplitLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{`add "x`, `add 'x`, `add x\`} {
		_, err := cli.SplitLine(bad)
		assert.ErrorIs(t, err, cli.ErrUnterminatedQuote, bad)
	}
}

// ---- end to end against the HTTP API

func TestRESTFactory_EndToEnd(t *testing.T) {
	isolate(t)
	api := testutil.NewFakeAPI(t)
	api.AddUser("Ada", "ada@example.com", "secret-pass")
	dir := t.TempDir()
	d := cli.NewDispatcher(commands.DefaultRegistry, cli.RESTFactory)

	common := []string{"--config", dir, "--api-url", api.URL()}
	with := func(name string, args ...string) []string {
		return append(append([]string{name}, common...), args...)
	}

	stdout, stderr, code := run(d, with("login", "--email", "ada@example.com", "--password", "secret-pass")...)
	require.Equal(t, exitcode.Success, code, stderr)
	assert.Equal(t, "ok\n", stdout)

	info, err := os.Stat(filepath.Join(dir, config.TokenFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	stdout, _, code = run(d, with("add", "Write", "tests")...)
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok 1\n", stdout)

	stdout, _, code = run(d, with("toggle", "1")...)
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "   1  [x] Write tests\n", stdout)

	stdout, _, code = run(d, with("list")...)
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "   1  [x] Write tests\n", stdout)

	stdout, _, code = run(d, with("logout")...)
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok\n", stdout)
	assert.Equal(t, "/api/logout", api.LastRequest().Path)

	_, err = os.Stat(filepath.Join(dir, config.TokenFile))
	assert.True(t, os.IsNotExist(err))

	_, stderr, code = run(d, with("list")...)
	assert.Equal(t, exitcode.AuthError, code)
	assert.Equal(t, "error: not logged in (run: todoctl login)\n", stderr)
}

func TestRESTFactory_ShellRedirectsAfterUnauthorized(t *testing.T) {
	isolate(t)
	api := testutil.NewFakeAPI(t)
	_, token := api.AddUser("Ada", "ada@example.com", "secret-pass")
	dir := t.TempDir()
	require.NoError(t, storage.NewFileStore(filepath.Join(dir, config.TokenFile)).Save(token))
	api.RevokeTokens()

	d := cli.NewDispatcher(commands.DefaultRegistry, cli.RESTFactory, cli.WithInput(strings.NewReader("list\nlist\n")))

	_, stderr, code := run(d, "shell", "--quiet", "--config", dir, "--api-url", api.URL())

	assert.Equal(t, exitcode.AuthError, code)
	assert.Equal(t,
		"error: Could not load tasks. Your session may have expired.\n"+
			"error: not logged in (run: todoctl login)\n",
		stderr)
	assert.Len(t, api.Requests(), 1)

	_, err := os.Stat(filepath.Join(dir, config.TokenFile))
	assert.True(t, os.IsNotExist(err))
}
