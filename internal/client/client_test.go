package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/taskboard-be/internal/api"
	"github.com/isdelr/taskboard-be/internal/auth"
	"github.com/isdelr/taskboard-be/internal/config"
	"github.com/isdelr/taskboard-be/internal/database"
	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/isdelr/taskboard-be/internal/services"
	ws "github.com/isdelr/taskboard-be/internal/websocket"
)

func newTestClient(t *testing.T) *Client {
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
		Users:       services.NewUserService(db, events),
		Tasks:       services.NewTaskService(db, events, hub),
		Events:      events,
		Tokens:      auth.NewTokenManager("client-test-secret", time.Hour),
		Hub:         hub,
		DB:          db,
		Environment: "test",
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com", nil)
	assert.Error(t, err)

	_, err = New("http://localhost:3000/", nil)
	assert.NoError(t, err)
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	s, err := c.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "alice", s.User.Username)

	s, err = c.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	me, err := c.Me(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, me.ID)

	other, err := c.User(ctx, s, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", other.Email)

	users, err := c.Users(ctx, s)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	task, err := c.CreateTask(ctx, s, models.NewTask{Title: "Ship it", Priority: ptr(models.PriorityHigh)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, task.Status)

	require.NoError(t, c.UpdateTask(ctx, s, task.ID, models.TaskPatch{Status: ptr(models.StatusInProgress)}))

	got, err := c.Task(ctx, s, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, "Ship it", got.Title)

	tasks, err := c.Tasks(ctx, s, models.TaskFilter{Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	require.NoError(t, c.DeleteTask(ctx, s, task.ID))

	events, err := c.Events(ctx, s, 5)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventTaskDelete, events[0].Type)
}

func TestClientErrors(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Register(ctx, "a", "bad", "1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Len(t, apiErr.Problems, 3)
	assert.NotErrorIs(t, err, ErrUnauthenticated)

	_, err = c.Login(ctx, "ghost@example.com", "secret123")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = c.Tasks(ctx, Session{Token: "bogus"}, models.TaskFilter{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	s, err := c.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	_, err = c.Task(ctx, s, "missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Task not found", apiErr.Message)
}

func TestWatchReceivesTaskNotifications(t *testing.T) {
	c := newTestClient(t)
	s, err := c.Register(context.Background(), "alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan ws.Message, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, s, func(m ws.Message) { msgs <- m })
	}()

	next := func() ws.Message {
		t.Helper()
		select {
		case m := <-msgs:
			return m
		case err := <-done:
			t.Fatalf("watch ended early: %v", err)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for websocket message")
		}
		return ws.Message{}
	}

	assert.Equal(t, "pong", next().Action)

	task, err := c.CreateTask(context.Background(), s, models.NewTask{Title: "Live"})
	require.NoError(t, err)

	msg := next()
	assert.Equal(t, "task.created", msg.Action)
	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, task.ID, payload["id"])

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchRejectsBadToken(t *testing.T) {
	c := newTestClient(t)
	err := c.Watch(context.Background(), Session{Token: "bogus"}, func(ws.Message) {})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestReduce(t *testing.T) {
	user := models.User{ID: "u1", Username: "alice"}

	s := Reduce(Session{}, Login("tok", user))
	assert.Equal(t, Session{Token: "tok", User: user}, s)
	assert.True(t, s.Authenticated())

	assert.Equal(t, s, Reduce(s, Action{}))

	s = Reduce(s, Logout())
	assert.Equal(t, Session{}, s)
	assert.False(t, s.Authenticated())
}

func TestFileSessionStore(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "nested", "session.yaml"))

	s, err := store.Load()
	require.NoError(t, err)
	assert.False(t, s.Authenticated())

	want := Session{
		Token: "tok",
		User: models.User{
			ID:        "u1",
			Username:  "alice",
			Email:     "alice@example.com",
			Role:      models.DefaultRole,
			CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.User.ID, got.User.ID)
	assert.Equal(t, want.User.Email, got.User.Email)
	assert.True(t, want.User.CreatedAt.Equal(got.User.CreatedAt))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	got, err = store.Load()
	require.NoError(t, err)
	assert.False(t, got.Authenticated())
}
