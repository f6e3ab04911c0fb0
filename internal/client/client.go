package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/isdelr/taskboard-be/internal/models"
	ws "github.com/isdelr/taskboard-be/internal/websocket"
)

// Client is a typed wrapper around the taskboard REST API. It holds no
// session of its own; every authenticated call takes one explicitly.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New creates a Client for the API rooted at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates an account and returns the signed-in session.
func (c *Client) Register(ctx context.Context, username, email, password string) (Session, error) {
	var out authResponse
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", Session{}, body, &out); err != nil {
		return Session{}, err
	}
	return Session{Token: out.Token, User: out.User}, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", Session{}, body, &out); err != nil {
		return Session{}, err
	}
	return Session{Token: out.Token, User: out.User}, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context, s Session) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/users/me", s, nil, &out)
	return out.User, err
}

// User returns one user's public profile.
func (c *Client) User(ctx context.Context, s Session, id string) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), s, nil, &out)
	return out.User, err
}

// Users lists every user's public profile.
func (c *Client) Users(ctx context.Context, s Session) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	err := c.do(ctx, http.MethodGet, "/api/users", s, nil, &out)
	return out.Users, err
}

// Tasks lists the caller's tasks matching filter.
func (c *Client) Tasks(ctx context.Context, s Session, filter models.TaskFilter) ([]models.Task, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Priority != "" {
		q.Set("priority", string(filter.Priority))
	}
	path := "/api/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Tasks []models.Task `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, path, s, nil, &out)
	return out.Tasks, err
}

// Task returns one of the caller's tasks.
func (c *Client) Task(ctx context.Context, s Session, id string) (models.Task, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), s, nil, &out)
	return out.Task, err
}

// CreateTask adds a task and returns the stored record.
func (c *Client) CreateTask(ctx context.Context, s Session, input models.NewTask) (models.Task, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPost, "/api/tasks", s, input, &out)
	return out.Task, err
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, s Session, id string, patch models.TaskPatch) error {
	return c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), s, patch, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, s Session, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), s, nil, nil)
}

// Events returns the caller's most recent activity. limit <= 0 uses the
// server default.
func (c *Client) Events(ctx context.Context, s Session, limit int) ([]models.Event, error) {
	path := "/api/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Events []models.Event `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, path, s, nil, &out)
	return out.Events, err
}

// Watch streams task notifications for the session's user until ctx is
// cancelled or the connection drops. A ping is sent on connect, so the
// first message handled is normally a pong.
func (c *Client) Watch(ctx context.Context, s Session, handle func(ws.Message)) error {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/api/ws"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.Token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return decodeError(resp)
		}
		return fmt.Errorf("failed to connect to task feed: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(ws.Message{Action: "ping"}); err != nil {
		return fmt.Errorf("failed to send ping: %w", err)
	}

	for {
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("task feed closed: %w", err)
		}
		handle(msg)
	}
}

func (c *Client) do(ctx context.Context, method, path string, s Session, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error  string       `json:"error"`
		Errors []FieldError `json:"errors"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	apiErr.Problems = body.Errors
	switch {
	case body.Error != "":
		apiErr.Message = body.Error
	case len(body.Errors) > 0:
		apiErr.Message = validationMessage(body.Errors)
	default:
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
