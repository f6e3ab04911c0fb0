package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/taskboard-be/internal/api"
	"github.com/isdelr/taskboard-be/internal/auth"
	"github.com/isdelr/taskboard-be/internal/client"
	"github.com/isdelr/taskboard-be/internal/config"
	"github.com/isdelr/taskboard-be/internal/database"
	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/isdelr/taskboard-be/internal/services"
	ws "github.com/isdelr/taskboard-be/internal/websocket"
)

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, name := range []string{"register", "login", "logout", "whoami", "users", "tasks", "stats", "events", "watch"} {
		if !strings.Contains(output, name) {
			t.Errorf("Expected help to contain command %q, but it didn't", name)
		}
	}
}

func TestTasksSubcommands(t *testing.T) {
	var tasks []string
	for _, c := range NewRootCommand().Commands() {
		if c.Name() != "tasks" {
			continue
		}
		for _, sub := range c.Commands() {
			tasks = append(tasks, sub.Name())
		}
	}
	assert.ElementsMatch(t, []string{"list", "show", "add", "update", "rm"}, tasks)
}

type harness struct {
	server  string
	session string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", MaxConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	events := services.NewEventService(db)
	srv := httptest.NewServer(api.NewRouter(api.Dependencies{
		Users:  services.NewUserService(db, events),
		Tasks:  services.NewTaskService(db, events, hub),
		Events: events,
		Tokens: auth.NewTokenManager("cli-test-secret", time.Hour),
		Hub:    hub,
		DB:     db,
	}))
	t.Cleanup(srv.Close)

	return &harness{server: srv.URL, session: filepath.Join(t.TempDir(), "session.yaml")}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--server", h.server, "--session", h.session}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func (h *harness) onlyTask(t *testing.T) models.Task {
	t.Helper()
	s, err := client.NewFileSessionStore(h.session).Load()
	require.NoError(t, err)
	c, err := client.New(h.server, nil)
	require.NoError(t, err)
	tasks, err := c.Tasks(context.Background(), s, models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	return tasks[0]
}

func TestCommandsEndToEnd(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out := h.mustRun(t, "register", "alice", "alice@example.com", "--password", "secret123")
	assert.Contains(t, out, "signed in as alice")

	out = h.mustRun(t, "whoami")
	assert.Contains(t, out, "alice <alice@example.com> (user)")

	h.mustRun(t, "tasks", "add", "Write report", "--priority", "high", "--description", "quarterly numbers")
	task := h.onlyTask(t)
	assert.Equal(t, models.PriorityHigh, task.Priority)

	out = h.mustRun(t, "tasks", "list", "--search", "QUARTERLY")
	assert.Contains(t, out, "Write report")
	out = h.mustRun(t, "tasks", "list", "--status", "completed")
	assert.Contains(t, out, "No tasks")

	h.mustRun(t, "tasks", "update", task.ID, "--status", "completed")
	updated := h.onlyTask(t)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, "quarterly numbers", updated.Description)

	out = h.mustRun(t, "tasks", "show", task.ID)
	assert.Contains(t, out, "completed")

	out = h.mustRun(t, "stats")
	assert.Contains(t, out, "100%")

	out = h.mustRun(t, "events", "--limit", "3")
	assert.Contains(t, out, models.EventTaskUpdate)

	out = h.mustRun(t, "users")
	assert.Contains(t, out, "alice@example.com")

	_, err = h.run(t, "tasks", "update", task.ID, "--status", "done")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid status", apiErr.Message)

	h.mustRun(t, "tasks", "rm", task.ID)
	_, err = h.run(t, "tasks", "show", task.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)

	out = h.mustRun(t, "logout")
	assert.Contains(t, out, "Signed out")
	_, err = h.run(t, "tasks", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out = h.mustRun(t, "login", "alice@example.com", "-p", "secret123")
	assert.Contains(t, out, "Signed in as alice")
}

func TestRejectedSessionIsCleared(t *testing.T) {
	h := newHarness(t)
	store := client.NewFileSessionStore(h.session)
	require.NoError(t, store.Save(client.Session{Token: "forged"}))

	_, err := h.run(t, "events")
	assert.ErrorIs(t, err, client.ErrUnauthenticated)

	s, err := store.Load()
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
}

func TestLogoutRemovesSessionFile(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "register", "alice", "alice@example.com", "--password", "secret123")
	require.FileExists(t, h.session)

	out := h.mustRun(t, "logout")
	assert.Contains(t, out, "Signed out")
	assert.NoFileExists(t, h.session)

	// Signing out twice is harmless.
	h.mustRun(t, "logout")
}

func TestLogoutDiscardsUnreadableSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.session, []byte("token: [unterminated"), 0o600))

	out := h.mustRun(t, "logout")
	assert.Contains(t, out, "Signed out")
	assert.NoFileExists(t, h.session)
}
