package client

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/isdelr/taskboard-be/internal/models"
)

// API is the subset of Client the dashboard drives.
type API interface {
	Register(ctx context.Context, username, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Tasks(ctx context.Context, s Session, filter models.TaskFilter) ([]models.Task, error)
	CreateTask(ctx context.Context, s Session, input models.NewTask) (models.Task, error)
	UpdateTask(ctx context.Context, s Session, id string, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, s Session, id string) error
}

// NotificationKind distinguishes success from error notices.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is the last message shown to the user.
type Notification struct {
	Kind    NotificationKind
	Message string
}

// Stats summarizes the fetched task set.
type Stats struct {
	Total          int
	Completed      int
	InProgress     int
	Pending        int
	HighPriority   int
	CompletionRate int // rounded percent
}

// Dashboard holds the client-side state of a signed-in user's task board.
// It is not safe for concurrent use.
type Dashboard struct {
	api     API
	store   SessionStore
	session Session

	filter models.TaskFilter
	search string
	tasks  []models.Task

	notice *Notification
}

// NewDashboard restores any stored session.
func NewDashboard(api API, store SessionStore) (*Dashboard, error) {
	session, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Dashboard{api: api, store: store, session: session}, nil
}

// Session returns the current session.
func (d *Dashboard) Session() Session {
	return d.session
}

// Authenticated reports whether a user is signed in.
func (d *Dashboard) Authenticated() bool {
	return d.session.Authenticated()
}

// Login signs in and persists the session.
func (d *Dashboard) Login(ctx context.Context, email, password string) error {
	s, err := d.api.Login(ctx, email, password)
	if err != nil {
		return d.fail(err)
	}
	return d.signIn(s, "Welcome back, "+s.User.Username)
}

// Register creates an account, signs in and persists the session.
func (d *Dashboard) Register(ctx context.Context, username, email, password string) error {
	s, err := d.api.Register(ctx, username, email, password)
	if err != nil {
		return d.fail(err)
	}
	return d.signIn(s, "Account created")
}

func (d *Dashboard) signIn(s Session, message string) error {
	d.session = Reduce(d.session, Login(s.Token, s.User))
	d.notify(NotifySuccess, message)
	return d.store.Save(d.session)
}

// Logout clears the session, the fetched tasks and the stored session.
func (d *Dashboard) Logout() error {
	d.session = Reduce(d.session, Logout())
	d.tasks = nil
	d.filter = models.TaskFilter{}
	d.search = ""
	return d.store.Clear()
}

// Refresh refetches tasks using the current filters.
func (d *Dashboard) Refresh(ctx context.Context) error {
	tasks, err := d.api.Tasks(ctx, d.session, d.filter)
	if err != nil {
		return d.fail(err)
	}
	d.tasks = tasks
	return nil
}

// SetStatusFilter changes the server-side status filter and refetches.
// An empty status shows every task.
func (d *Dashboard) SetStatusFilter(ctx context.Context, status models.TaskStatus) error {
	d.filter.Status = status
	return d.Refresh(ctx)
}

// SetFilter replaces both server-side filters and refetches once.
func (d *Dashboard) SetFilter(ctx context.Context, filter models.TaskFilter) error {
	d.filter = filter
	return d.Refresh(ctx)
}

// Filter returns the active server-side filters.
func (d *Dashboard) Filter() models.TaskFilter {
	return d.filter
}

// SetSearch filters the fetched tasks locally. No request is made.
func (d *Dashboard) SetSearch(query string) {
	d.search = strings.TrimSpace(query)
}

// Tasks returns the fetched set, ignoring the search query.
func (d *Dashboard) Tasks() []models.Task {
	return d.tasks
}

// Visible returns the fetched tasks whose title or description contains the
// search query, case-insensitively.
func (d *Dashboard) Visible() []models.Task {
	if d.search == "" {
		return d.tasks
	}
	q := strings.ToLower(d.search)
	var out []models.Task
	for _, t := range d.tasks {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}

// Create adds a task and refetches on success.
func (d *Dashboard) Create(ctx context.Context, input models.NewTask) error {
	if _, err := d.api.CreateTask(ctx, d.session, input); err != nil {
		return d.fail(err)
	}
	d.notify(NotifySuccess, "Task created")
	return d.Refresh(ctx)
}

// Update patches a task and refetches on success.
func (d *Dashboard) Update(ctx context.Context, id string, patch models.TaskPatch) error {
	if err := d.api.UpdateTask(ctx, d.session, id, patch); err != nil {
		return d.fail(err)
	}
	d.notify(NotifySuccess, "Task updated")
	return d.Refresh(ctx)
}

// Delete removes a task and refetches on success.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	if err := d.api.DeleteTask(ctx, d.session, id); err != nil {
		return d.fail(err)
	}
	d.notify(NotifySuccess, "Task deleted")
	return d.Refresh(ctx)
}

// Stats summarizes the fetched set.
func (d *Dashboard) Stats() Stats {
	return ComputeStats(d.tasks)
}

// ComputeStats counts tasks by status and high priority.
func ComputeStats(tasks []models.Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			st.Completed++
		case models.StatusInProgress:
			st.InProgress++
		case models.StatusPending:
			st.Pending++
		}
		if t.Priority == models.PriorityHigh {
			st.HighPriority++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = int(math.Round(float64(st.Completed) * 100 / float64(st.Total)))
	}
	return st
}

// Notification returns the pending notice, if any.
func (d *Dashboard) Notification() (Notification, bool) {
	if d.notice == nil {
		return Notification{}, false
	}
	return *d.notice, true
}

// Dismiss clears the pending notice.
func (d *Dashboard) Dismiss() {
	d.notice = nil
}

func (d *Dashboard) notify(kind NotificationKind, message string) {
	d.notice = &Notification{Kind: kind, Message: message}
}

// fail records err as a notice. Any 401 ends the session.
func (d *Dashboard) fail(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		d.notify(NotifyError, apiErr.Message)
	} else {
		d.notify(NotifyError, err.Error())
	}

	if errors.Is(err, ErrUnauthenticated) && d.session.Authenticated() {
		if clearErr := d.Logout(); clearErr != nil {
			return errors.Join(err, clearErr)
		}
	}
	return err
}
