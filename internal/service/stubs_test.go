package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/douglascorrea/todo-api/internal/store"
	tasksync "github.com/douglascorrea/todo-api/internal/sync"
)

type memUsers struct {
	store.UserRepository
	byID map[uuid.UUID]*store.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uuid.UUID]*store.User{}} }

func (m *memUsers) Create(ctx context.Context, user store.User) (*store.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for _, u := range m.byID {
		if u.Email == user.Email {
			return nil, store.ErrConflict
		}
	}
	m.byID[user.ID] = &user
	cp := user
	return &cp, nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) Count(ctx context.Context) (int, error) { return len(m.byID), nil }

func (m *memUsers) Update(ctx context.Context, id uuid.UUID, name, email string) (*store.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Name, u.Email = name, email
	cp := *u
	return &cp, nil
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) SetMicrosoftUserID(ctx context.Context, id uuid.UUID, msID string) error {
	u, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.MicrosoftUserID = &msID
	return nil
}

type memLists struct {
	store.TodoListRepository
	byID       map[uuid.UUID]*store.TodoList
	deletes    []bool // withTodos flag per Delete call
	lastUpdate *store.TodoList
}

func newMemLists() *memLists { return &memLists{byID: map[uuid.UUID]*store.TodoList{}} }

func (m *memLists) Create(ctx context.Context, list store.TodoList) (*store.TodoList, error) {
	if list.ID == uuid.Nil {
		list.ID = uuid.New()
	}
	m.byID[list.ID] = &list
	cp := list
	return &cp, nil
}

func (m *memLists) GetByID(ctx context.Context, userID, id uuid.UUID) (*store.TodoList, error) {
	l, ok := m.byID[id]
	if !ok || l.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLists) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]store.TodoList, error) {
	var out []store.TodoList
	for _, l := range m.byID {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memLists) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, l := range m.byID {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memLists) TitleExists(ctx context.Context, userID uuid.UUID, title string) (bool, error) {
	for _, l := range m.byID {
		if l.UserID == userID && l.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLists) Update(ctx context.Context, userID, id uuid.UUID, title string) (*store.TodoList, error) {
	l, ok := m.byID[id]
	if !ok || l.UserID != userID {
		return nil, store.ErrNotFound
	}
	l.Title = title
	cp := *l
	m.lastUpdate = &cp
	return &cp, nil
}

func (m *memLists) Delete(ctx context.Context, userID, id uuid.UUID, withTodos bool) error {
	l, ok := m.byID[id]
	if !ok || l.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	m.deletes = append(m.deletes, withTodos)
	return nil
}

type memTodos struct {
	store.TodoRepository
	byID map[uuid.UUID]*store.Todo
}

func newMemTodos() *memTodos { return &memTodos{byID: map[uuid.UUID]*store.Todo{}} }

func (m *memTodos) Create(ctx context.Context, todo store.Todo) (*store.Todo, error) {
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	m.byID[todo.ID] = &todo
	cp := todo
	return &cp, nil
}

func (m *memTodos) GetByID(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error) {
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTodos) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]store.Todo, error) {
	var out []store.Todo
	for _, t := range m.byID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTodos) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, t := range m.byID {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memTodos) ListByList(ctx context.Context, listID uuid.UUID) ([]store.Todo, error) {
	var out []store.Todo
	for _, t := range m.byID {
		if t.TodoListID != nil && *t.TodoListID == listID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTodos) Update(ctx context.Context, userID, id uuid.UUID, title, description string, todoListID *uuid.UUID) (*store.Todo, error) {
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	t.Title, t.Description, t.TodoListID = title, description, todoListID
	cp := *t
	return &cp, nil
}

func (m *memTodos) SetCompleted(ctx context.Context, userID, id uuid.UUID, completed bool) (*store.Todo, error) {
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	t.Completed = completed
	cp := *t
	return &cp, nil
}

func (m *memTodos) Delete(ctx context.Context, userID, id uuid.UUID) error {
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// stubMirror records engine invocations and plays back canned outcomes.
type stubMirror struct {
	todoChanges []tasksync.TodoChange
	listCreates []string
	listUpdates []string
	todoOutcome tasksync.Outcome
	listOutcome tasksync.Outcome
}

func (m *stubMirror) MirrorTodo(ctx context.Context, ch tasksync.TodoChange) tasksync.Outcome {
	m.todoChanges = append(m.todoChanges, ch)
	return m.todoOutcome
}

func (m *stubMirror) MirrorListCreate(ctx context.Context, userID uuid.UUID, title string) tasksync.Outcome {
	m.listCreates = append(m.listCreates, title)
	return m.listOutcome
}

func (m *stubMirror) MirrorListUpdate(ctx context.Context, userID, listID uuid.UUID, title string) tasksync.Outcome {
	m.listUpdates = append(m.listUpdates, title)
	return m.listOutcome
}

func (m *stubMirror) Resync(ctx context.Context, userID uuid.UUID) error {
	return errors.New("not expected in service tests")
}

func stringPtr(s string) *string { return &s }
