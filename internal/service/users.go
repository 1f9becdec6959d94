// Package service implements the domain services behind the HTTP handlers.
// Services validate input, drive the remote mirroring engine and persist
// local state. Remote failures are logged and never abort a local write.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/douglascorrea/todo-api/internal/logging"
	"github.com/douglascorrea/todo-api/internal/store"
	tasksync "github.com/douglascorrea/todo-api/internal/sync"
)

// Mirror is the slice of the reconciliation engine the services drive.
// *sync.Engine satisfies it.
type Mirror interface {
	MirrorTodo(ctx context.Context, ch tasksync.TodoChange) tasksync.Outcome
	MirrorListCreate(ctx context.Context, userID uuid.UUID, title string) tasksync.Outcome
	MirrorListUpdate(ctx context.Context, userID, listID uuid.UUID, title string) tasksync.Outcome
	Resync(ctx context.Context, userID uuid.UUID) error
}

const minNameLength = 3

// UserService manages user accounts.
type UserService struct {
	users store.UserRepository
	log   zerolog.Logger
}

func NewUserService(users store.UserRepository) *UserService {
	return &UserService{users: users, log: logging.WithComponent("service.users")}
}

func (s *UserService) Create(ctx context.Context, name, email string) (*store.User, error) {
	if err := validateUser(name, email); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, invalid("email", "email already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user, err := s.users.Create(ctx, store.User{Name: name, Email: email})
	if errors.Is(err, store.ErrConflict) {
		return nil, invalid("email", "email already in use")
	}
	return user, err
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*store.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, page store.Page) ([]store.User, int, error) {
	users, err := s.users.List(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, name, email string) (*store.User, error) {
	if err := validateUser(name, email); err != nil {
		return nil, err
	}
	if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != id {
		return nil, invalid("email", "email already in use")
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user, err := s.users.Update(ctx, id, name, email)
	if errors.Is(err, store.ErrConflict) {
		return nil, invalid("email", "email already in use")
	}
	return user, err
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

// LinkMicrosoftAccount persists the remote account id obtained from the OAuth
// callback. Links are never unset.
func (s *UserService) LinkMicrosoftAccount(ctx context.Context, id uuid.UUID, accountID string) error {
	if accountID == "" {
		return invalid("accountId", "account id is required")
	}
	return s.users.SetMicrosoftUserID(ctx, id, accountID)
}

func validateUser(name, email string) error {
	var fields []FieldError
	if len(strings.TrimSpace(name)) < minNameLength {
		fields = append(fields, FieldError{Field: "name", Message: "name must be at least 3 characters"})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, FieldError{Field: "email", Message: "a valid email is required"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
