package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/douglascorrea/todo-api/internal/logging"
	"github.com/douglascorrea/todo-api/internal/store"
	tasksync "github.com/douglascorrea/todo-api/internal/sync"
)

// TodoInput carries the writable todo fields. Title may be empty: such todos
// are kept locally and never mirrored.
type TodoInput struct {
	Title       string
	Description string
	TodoListID  *uuid.UUID
}

// TodoService manages todos and mirrors each mutation remotely.
type TodoService struct {
	todos  store.TodoRepository
	lists  store.TodoListRepository
	mirror Mirror
	log    zerolog.Logger
}

func NewTodoService(todos store.TodoRepository, lists store.TodoListRepository, mirror Mirror) *TodoService {
	return &TodoService{
		todos:  todos,
		lists:  lists,
		mirror: mirror,
		log:    logging.WithComponent("service.todos"),
	}
}

// Create makes a local todo, mirroring it remotely first so the remote task
// id lands on the new row. A remote failure is logged and the todo is
// created unlinked.
func (s *TodoService) Create(ctx context.Context, userID uuid.UUID, in TodoInput) (*store.Todo, error) {
	if err := s.validateListRef(ctx, userID, in.TodoListID); err != nil {
		return nil, err
	}

	out := s.mirror.MirrorTodo(ctx, tasksync.TodoChange{
		UserID:      userID,
		Op:          tasksync.OpCreate,
		Title:       in.Title,
		Description: in.Description,
		TodoListID:  in.TodoListID,
	})
	if out.Err != nil {
		s.log.Warn().Err(out.Err).
			Str("user_id", userID.String()).
			Msg("remote task create failed, creating todo locally only")
	}

	return s.todos.Create(ctx, store.Todo{
		UserID:          userID,
		TodoListID:      in.TodoListID,
		Title:           in.Title,
		Description:     in.Description,
		MicrosoftTaskID: out.RemoteTaskID,
	})
}

func (s *TodoService) Get(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error) {
	return s.todos.GetByID(ctx, userID, id)
}

func (s *TodoService) List(ctx context.Context, userID uuid.UUID, page store.Page) ([]store.Todo, int, error) {
	todos, err := s.todos.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.todos.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return todos, total, nil
}

// Update replaces the todo's writable fields. The remote side is updated
// only when the todo already carries a remote task id; an update never links
// a local-only todo retroactively.
func (s *TodoService) Update(ctx context.Context, userID, id uuid.UUID, in TodoInput) (*store.Todo, error) {
	if err := s.validateListRef(ctx, userID, in.TodoListID); err != nil {
		return nil, err
	}

	out := s.mirror.MirrorTodo(ctx, tasksync.TodoChange{
		UserID:      userID,
		Op:          tasksync.OpUpdate,
		Title:       in.Title,
		Description: in.Description,
		TodoListID:  in.TodoListID,
		TodoID:      &id,
	})
	if out.Err != nil {
		s.logMirrorFailure(userID, id, "update", out.Err)
	}

	return s.todos.Update(ctx, userID, id, in.Title, in.Description, in.TodoListID)
}

// Delete removes the todo locally. The remote task is left in place.
func (s *TodoService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.todos.Delete(ctx, userID, id)
}

func (s *TodoService) Complete(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error) {
	return s.setCompleted(ctx, userID, id, tasksync.OpComplete, true)
}

func (s *TodoService) Uncomplete(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error) {
	return s.setCompleted(ctx, userID, id, tasksync.OpUncomplete, false)
}

// Toggle inverts the completed flag. The remote status is computed from the
// flag as it stands before the local flip.
func (s *TodoService) Toggle(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error) {
	current, err := s.todos.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.setCompleted(ctx, userID, id, tasksync.OpToggle, !current.Completed)
}

func (s *TodoService) setCompleted(ctx context.Context, userID, id uuid.UUID, op tasksync.Op, completed bool) (*store.Todo, error) {
	out := s.mirror.MirrorTodo(ctx, tasksync.TodoChange{
		UserID: userID,
		Op:     op,
		TodoID: &id,
	})
	if out.Err != nil {
		s.logMirrorFailure(userID, id, string(op), out.Err)
	}
	return s.todos.SetCompleted(ctx, userID, id, completed)
}

// validateListRef checks that a referenced list exists and belongs to the
// user. A nil reference (unlisted todo) is fine.
func (s *TodoService) validateListRef(ctx context.Context, userID uuid.UUID, listID *uuid.UUID) error {
	if listID == nil {
		return nil
	}
	if _, err := s.lists.GetByID(ctx, userID, *listID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid("todoListId", "todo list not found for this user")
		}
		return err
	}
	return nil
}

func (s *TodoService) logMirrorFailure(userID, todoID uuid.UUID, op string, err error) {
	s.log.Warn().Err(err).
		Str("user_id", userID.String()).
		Str("todo_id", todoID.String()).
		Str("operation", op).
		Msg("remote task mirror failed, applying change locally only")
}
