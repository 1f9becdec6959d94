package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/douglascorrea/todo-api/internal/logging"
	"github.com/douglascorrea/todo-api/internal/store"
)

// TodoListService manages todo lists and mirrors their mutations remotely.
type TodoListService struct {
	lists  store.TodoListRepository
	todos  store.TodoRepository
	mirror Mirror
	log    zerolog.Logger
}

func NewTodoListService(lists store.TodoListRepository, todos store.TodoRepository, mirror Mirror) *TodoListService {
	return &TodoListService{
		lists:  lists,
		todos:  todos,
		mirror: mirror,
		log:    logging.WithComponent("service.todolists"),
	}
}

// Create makes a local list, mirroring it remotely first so the remote list
// id can be stored on the new row. A remote failure is logged and the list is
// created unlinked.
func (s *TodoListService) Create(ctx context.Context, userID uuid.UUID, title string) (*store.TodoList, error) {
	if err := s.validateTitle(ctx, userID, title, uuid.Nil); err != nil {
		return nil, err
	}

	out := s.mirror.MirrorListCreate(ctx, userID, title)
	if out.Err != nil {
		s.log.Warn().Err(out.Err).
			Str("user_id", userID.String()).
			Msg("remote list create failed, creating list locally only")
	}

	list, err := s.lists.Create(ctx, store.TodoList{
		UserID:          userID,
		Title:           title,
		MicrosoftListID: out.RemoteListID,
	})
	if errors.Is(err, store.ErrConflict) {
		return nil, invalid("title", "Todo List name already in use for this user")
	}
	return list, err
}

// Get fetches one list. With withTodos the list's todos are loaded too, in
// stable creation order.
func (s *TodoListService) Get(ctx context.Context, userID, id uuid.UUID, withTodos bool) (*store.TodoList, error) {
	list, err := s.lists.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if withTodos {
		if list.Todos, err = s.todos.ListByList(ctx, list.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *TodoListService) List(ctx context.Context, userID uuid.UUID, page store.Page, withTodos bool) ([]store.TodoList, int, error) {
	lists, err := s.lists.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.lists.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if withTodos {
		for i := range lists {
			if lists[i].Todos, err = s.todos.ListByList(ctx, lists[i].ID); err != nil {
				return nil, 0, err
			}
		}
	}
	return lists, total, nil
}

// Update renames a list. The remote rename happens first; only the title is
// persisted locally, so a remote list lazily created on this path stays
// unlinked until the next resync picks it up.
func (s *TodoListService) Update(ctx context.Context, userID, id uuid.UUID, title string) (*store.TodoList, error) {
	if err := s.validateTitle(ctx, userID, title, id); err != nil {
		return nil, err
	}

	out := s.mirror.MirrorListUpdate(ctx, userID, id, title)
	if out.Err != nil {
		s.log.Warn().Err(out.Err).
			Str("user_id", userID.String()).
			Str("todo_list_id", id.String()).
			Msg("remote list update failed, updating list locally only")
	}

	list, err := s.lists.Update(ctx, userID, id, title)
	if errors.Is(err, store.ErrConflict) {
		return nil, invalid("title", "Todo List name already in use for this user")
	}
	return list, err
}

// Delete removes a list locally. With withTodos its todos are deleted in the
// same transaction; otherwise they survive unlisted. Remote lists are never
// deleted.
func (s *TodoListService) Delete(ctx context.Context, userID, id uuid.UUID, withTodos bool) error {
	return s.lists.Delete(ctx, userID, id, withTodos)
}

// validateTitle enforces the non-empty and per-user-unique rules. selfID
// exempts the list being renamed from the uniqueness check.
func (s *TodoListService) validateTitle(ctx context.Context, userID uuid.UUID, title string, selfID uuid.UUID) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "title is required")
	}
	if selfID != uuid.Nil {
		current, err := s.lists.GetByID(ctx, userID, selfID)
		if err != nil {
			return err
		}
		if current.Title == title {
			return nil
		}
	}
	exists, err := s.lists.TitleExists(ctx, userID, title)
	if err != nil {
		return err
	}
	if exists {
		return invalid("title", "Todo List name already in use for this user")
	}
	return nil
}
