package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/isdelr/taskboard-be/internal/models"
)

// Session is the client's view of who is signed in.
type Session struct {
	Token string
	User  models.User
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// ActionKind names a session transition.
type ActionKind int

const (
	ActionLogin ActionKind = iota + 1
	ActionLogout
)

// Action is dispatched to Reduce.
type Action struct {
	Kind  ActionKind
	Token string
	User  models.User
}

// Login builds an ActionLogin for the given credentials.
func Login(token string, user models.User) Action {
	return Action{Kind: ActionLogin, Token: token, User: user}
}

// Logout builds an ActionLogout.
func Logout() Action {
	return Action{Kind: ActionLogout}
}

// Reduce returns the session that results from applying a to state.
// Unknown actions leave the state unchanged.
func Reduce(state Session, a Action) Session {
	switch a.Kind {
	case ActionLogin:
		return Session{Token: a.Token, User: a.User}
	case ActionLogout:
		return Session{}
	default:
		return state
	}
}

// SessionStore persists a session between runs.
type SessionStore interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// FileSessionStore keeps the session in a YAML file.
type FileSessionStore struct {
	Path string
}

// NewFileSessionStore returns a store backed by path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{Path: path}
}

// DefaultSessionPath is ~/.taskctl/session.yaml, or a relative path when the
// home directory is unknown.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskctl", "session.yaml")
	}
	return filepath.Join(home, ".taskctl", "session.yaml")
}

type sessionFile struct {
	Token string `yaml:"token"`
	User  struct {
		ID        string    `yaml:"id"`
		Username  string    `yaml:"username"`
		Email     string    `yaml:"email"`
		Role      string    `yaml:"role"`
		CreatedAt time.Time `yaml:"created_at"`
	} `yaml:"user"`
}

// Load returns the stored session. A missing file is an empty session.
func (s *FileSessionStore) Load() (Session, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Session{}, fmt.Errorf("failed to parse session file: %w", err)
	}

	return Session{
		Token: f.Token,
		User: models.User{
			ID:        f.User.ID,
			Username:  f.User.Username,
			Email:     f.User.Email,
			Role:      f.User.Role,
			CreatedAt: f.User.CreatedAt,
		},
	}, nil
}

// Save writes the session, readable only by the current user.
func (s *FileSessionStore) Save(session Session) error {
	var f sessionFile
	f.Token = session.Token
	f.User.ID = session.User.ID
	f.User.Username = session.User.Username
	f.User.Email = session.User.Email
	f.User.Role = session.User.Role
	f.User.CreatedAt = session.User.CreatedAt

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the session file.
func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
