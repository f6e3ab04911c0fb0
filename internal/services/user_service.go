package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/taskboard-be/internal/auth"
	"github.com/isdelr/taskboard-be/internal/database"
	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db     *database.DB
	events EventServiceProvider
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *database.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events, now: time.Now}
}

type registerInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var publicUserColumns = []string{"id", "username", "email", "role", "created_at"}

// Register validates the input, hashes the password and stores a new user.
func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	input := registerInput{Username: username, Email: email, Password: password}
	if err := validateStruct(input); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.DefaultRole,
		CreatedAt:    s.now().UTC(),
	}

	query, args, err := s.db.Builder().
		Insert("users").
		Columns("id", "username", "email", "password_hash", "role", "created_at").
		Values(user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt).
		ToSql()
	if err != nil {
		return models.User{}, err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	recordEvent(ctx, s.events, user.ID, models.EventUserRegister, "info", fmt.Sprintf("Account '%s' created.", user.Username), nil)

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = normalizeEmail(email)

	input := loginInput{Email: email, Password: password}
	if err := validateStruct(input); err != nil {
		return models.User{}, err
	}

	query, args, err := s.db.Builder().
		Select(append(publicUserColumns, "password_hash")...).
		From("users").
		Where("email = ?", email).
		ToSql()
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			auth.BurnPasswordCheck(password)
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}

	recordEvent(ctx, s.events, user.ID, models.EventUserLogin, "info", "Signed in.", nil)

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user's public fields.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	query, args, err := s.db.Builder().
		Select(publicUserColumns...).
		From("users").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user %s: %w", id, err)
	}
	return user, nil
}

// ListUsers returns every user's public fields, oldest first.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	query, args, err := s.db.Builder().
		Select(publicUserColumns...).
		From("users").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

// recordEvent writes to the activity log; failures never fail the caller.
func recordEvent(ctx context.Context, events EventServiceProvider, userID, eventType, level, message string, taskID *string) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, userID, eventType, level, message, taskID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("type", eventType).Msg("Failed to record event")
	}
}
