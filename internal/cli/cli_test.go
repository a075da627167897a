package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/logging"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/server"
)

type harness struct {
	t      *testing.T
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TODO_DATA_DIR", dir)
	t.Setenv("TODO_API_URL", "http://127.0.0.1:1/api")
	return &harness{t: t, config: filepath.Join(dir, "config.yaml")}
}

func (h *harness) runIn(stdin string, args ...string) (string, error) {
	root := NewRootCmd(BuildInfo{Version: "test", Commit: "abc", Date: "today"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--config", h.config))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) run(args ...string) string {
	h.t.Helper()
	out, err := h.runIn("", args...)
	require.NoError(h.t, err, "todo %s", strings.Join(args, " "))
	return out
}

func (h *harness) list(args ...string) []models.Todo {
	h.t.Helper()
	out := h.run(append([]string{"list", "--json"}, args...)...)
	var todos []models.Todo
	require.NoError(h.t, sonic.UnmarshalString(out, &todos), out)
	return todos
}

func TestGuestWorkflow(t *testing.T) {
	h := newHarness(t)

	out := h.run("add", "Buy", "milk", "-c", "Shopping", "-p", "high", "--due", "2026-12-01", "-t", "food,weekly")
	assert.Contains(t, out, "Added #")
	h.run("add", "Write report")
	h.run("toggle", strconv.FormatInt(h.list()[0].ID, 10))
	h.run("toggle", strconv.FormatInt(h.list()[0].ID, 10))

	raw := h.run("list", "--json")
	assert.NotContains(t, raw, "null")
	assert.Contains(t, raw, `"tags": []`)

	todos := h.list()
	require.Len(t, todos, 2)
	milk := todos[0]
	assert.Equal(t, "Buy milk", milk.Text)
	assert.Equal(t, "Shopping", milk.Category)
	assert.Equal(t, models.PriorityHigh, milk.Priority)
	assert.Equal(t, []string{"food", "weekly"}, milk.Tags)
	require.NotNil(t, milk.DueDate)
	assert.Equal(t, "2026-12-01", milk.DueDate.Format(dueLayout))
	assert.Equal(t, models.DefaultCategory, todos[1].Category)
	assert.Greater(t, todos[1].ID, milk.ID)

	assert.Len(t, h.list("-s", "MILK"), 1)
	assert.Len(t, h.list("-c", "Shopping", "-c", "Work"), 2)
	assert.Empty(t, h.list("-c", "Shopping", "-p", "Low"))

	id := func(td models.Todo) string { return strconv.FormatInt(td.ID, 10) }

	assert.Contains(t, h.run("toggle", id(milk)), "done")
	table := h.run("list")
	assert.Contains(t, table, "2 total • 1 active • 1 completed")
	assert.Contains(t, table, "Buy milk")

	assert.Contains(t, h.run("edit", id(milk), "--due", "none", "--text", "Buy oat milk"), "Updated")
	milk = h.list("-s", "oat")[0]
	assert.Nil(t, milk.DueDate)
	assert.True(t, milk.Completed)

	assert.Contains(t, h.run("clear-completed"), "Cleared 1 completed")
	assert.Contains(t, h.run("delete", id(todos[1])), "Write report")
	assert.Empty(t, h.list())
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t)
	h.run("add", "one")

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"toggle", "999"}, "no todo with id 999"},
		{[]string{"toggle", "abc"}, `invalid todo id "abc"`},
		{[]string{"add", "x", "-p", "urgent"}, "unknown priority"},
		{[]string{"add", "x", "--due", "tomorrow"}, "YYYY-MM-DD"},
		{[]string{"add", "   "}, "text is required"},
		{[]string{"list", "-p", "urgent"}, "unknown priority"},
		{[]string{"edit", "1"}, "nothing to change"},
		{[]string{"whoami", "extra"}, "unknown command"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, "_"), func(t *testing.T) {
			_, err := h.runIn("", tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
	assert.Len(t, h.list(), 1)
}

func TestSignedInWorkflow(t *testing.T) {
	h := newHarness(t)

	database, err := db.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	srv := httptest.NewServer(server.New(database, server.NewAuth("secret", time.Hour, database), nil, 0, logging.Discard()).Handler())
	t.Cleanup(srv.Close)
	t.Setenv("TODO_API_URL", srv.URL+"/api")

	assert.Contains(t, h.run("whoami"), "Guest")
	h.run("add", "local one")

	_, err = h.runIn("", "register", "alice", "--password", "secret123", "--confirm", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Passwords do not match")

	out := h.run("register", "alice", "--name", "Alice", "--password", "secret123", "--confirm", "secret123")
	assert.Contains(t, out, "signed in as alice")

	// the server list replaces the guest list while signed in
	assert.Empty(t, h.list())
	h.run("add", "remote one", "-t", "sync")
	remote := h.list()
	require.Len(t, remote, 1)
	assert.Equal(t, "remote one", remote[0].Text)
	assert.Contains(t, h.run("whoami"), "Username: alice")

	assert.Contains(t, h.run("logout"), "Signed out")
	local := h.list()
	require.Len(t, local, 1)
	assert.Equal(t, "local one", local[0].Text)

	_, err = h.runIn("wrong\n", "login", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid username or password")

	out, err = h.runIn("secret123\n", "login", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as alice")
	remote = h.list()
	require.Len(t, remote, 1)
	assert.Equal(t, "remote one", remote[0].Text)
}

func TestConfigAndVersion(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.run("version"), "test (commit: abc, built: today)")

	assert.Contains(t, h.run("config", "init"), h.config)
	_, err := h.runIn("", "config", "init")
	assert.ErrorContains(t, err, "already exists")
	h.run("config", "init", "--force")

	shown := h.run("config", "show")
	assert.Contains(t, shown, "storage_key: todos")
	assert.Contains(t, h.run("config", "path"), "todo.db")
}
