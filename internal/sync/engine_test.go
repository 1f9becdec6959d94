package sync

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douglascorrea/todo-api/internal/msgraph"
	"github.com/douglascorrea/todo-api/internal/store"
)

type stubUsers struct {
	store.UserRepository
	user *store.User
}

func (s *stubUsers) GetByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, store.ErrNotFound
	}
	u := *s.user
	return &u, nil
}

type stubLists struct {
	store.TodoListRepository
	mu      sync.Mutex
	byID    map[uuid.UUID]*store.TodoList
	upserts map[string]*store.TodoList // keyed by microsoft list id
}

func (s *stubLists) GetByID(ctx context.Context, userID, id uuid.UUID) (*store.TodoList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok || l.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *stubLists) UpsertByMicrosoftListID(ctx context.Context, userID uuid.UUID, msListID, title string) (*store.TodoList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upserts == nil {
		s.upserts = map[string]*store.TodoList{}
	}
	l, ok := s.upserts[msListID]
	if !ok {
		l = &store.TodoList{ID: uuid.New(), UserID: userID, MicrosoftListID: &msListID}
		s.upserts[msListID] = l
	}
	l.Title = title
	cp := *l
	return &cp, nil
}

type stubTodos struct {
	store.TodoRepository
	mu      sync.Mutex
	byID    map[uuid.UUID]*store.Todo
	upserts map[string]*store.Todo // keyed by microsoft task id
	failOn  string                 // microsoft task id whose upsert fails
}

func (s *stubTodos) GetByID(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *stubTodos) UpsertByMicrosoftTaskID(ctx context.Context, userID uuid.UUID, msTaskID string, todoListID *uuid.UUID, title, description string, completed bool) (*store.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msTaskID == s.failOn {
		return nil, errors.New("upsert rejected")
	}
	if s.upserts == nil {
		s.upserts = map[string]*store.Todo{}
	}
	t, ok := s.upserts[msTaskID]
	if !ok {
		t = &store.Todo{ID: uuid.New(), UserID: userID, MicrosoftTaskID: &msTaskID}
		s.upserts[msTaskID] = t
	}
	t.TodoListID = todoListID
	t.Title = title
	t.Description = description
	t.Completed = completed
	cp := *t
	return &cp, nil
}

type taskCall struct {
	listID, taskID, title, description, status string
}

type stubProvider struct {
	mu          sync.Mutex
	defaultList *msgraph.TaskList
	all         []msgraph.ListWithTasks
	err         error

	createTaskCalls  []taskCall
	updateTaskCalls  []taskCall
	createListCalls  []string
	updateListCalls  []taskCall
	defaultListCalls int
	nextTaskID       int
}

func (p *stubProvider) GetDefaultList(ctx context.Context) (*msgraph.TaskList, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultListCalls++
	if p.err != nil {
		return nil, p.err
	}
	return p.defaultList, nil
}

func (p *stubProvider) ListAllListsAndTasks(ctx context.Context) ([]msgraph.ListWithTasks, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.all, nil
}

func (p *stubProvider) CreateList(ctx context.Context, title string) (*msgraph.TaskList, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.createListCalls = append(p.createListCalls, title)
	return &msgraph.TaskList{ID: "new-remote-list", DisplayName: title}, nil
}

func (p *stubProvider) UpdateList(ctx context.Context, listID, title string) (*msgraph.TaskList, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.updateListCalls = append(p.updateListCalls, taskCall{listID: listID, title: title})
	return &msgraph.TaskList{ID: listID, DisplayName: title}, nil
}

func (p *stubProvider) CreateTask(ctx context.Context, listID, title, description string) (*msgraph.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.nextTaskID++
	call := taskCall{listID: listID, title: title, description: description}
	p.createTaskCalls = append(p.createTaskCalls, call)
	return &msgraph.Task{ID: "remote-task-" + title, Title: title, Status: msgraph.StatusNotStarted}, nil
}

func (p *stubProvider) UpdateTask(ctx context.Context, listID, taskID, title, description, status string) (*msgraph.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	call := taskCall{listID: listID, taskID: taskID, title: title, description: description, status: status}
	p.updateTaskCalls = append(p.updateTaskCalls, call)
	return &msgraph.Task{ID: taskID, Title: title, Status: status}, nil
}

func (p *stubProvider) remoteCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defaultListCalls + len(p.createTaskCalls) + len(p.updateTaskCalls) +
		len(p.createListCalls) + len(p.updateListCalls)
}

func strPtr(s string) *string { return &s }

type fixture struct {
	engine   *Engine
	users    *stubUsers
	lists    *stubLists
	todos    *stubTodos
	provider *stubProvider
	userID   uuid.UUID
}

func newFixture(linked bool) *fixture {
	userID := uuid.New()
	user := &store.User{ID: userID, Name: "Jane Doe", Email: "jane@example.com"}
	if linked {
		user.MicrosoftUserID = strPtr("oid.tid")
	}

	f := &fixture{
		users:    &stubUsers{user: user},
		lists:    &stubLists{byID: map[uuid.UUID]*store.TodoList{}},
		todos:    &stubTodos{byID: map[uuid.UUID]*store.Todo{}},
		provider: &stubProvider{defaultList: &msgraph.TaskList{ID: "default-list", DisplayName: "Tasks", WellKnownName: "defaultList"}},
		userID:   userID,
	}
	f.engine = New(f.users, f.lists, f.todos, func(ctx context.Context, accountID string) Provider {
		return f.provider
	})
	return f
}

func TestMirrorTodoUnlinkedUserIsNoOp(t *testing.T) {
	f := newFixture(false)

	out := f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpCreate, Title: "Buy milk",
	})

	require.NoError(t, out.Err)
	assert.Nil(t, out.RemoteTaskID)
	assert.Equal(t, 0, f.provider.remoteCalls(), "no remote call may be attempted for unlinked users")
}

func TestMirrorTodoCreateUsesExplicitListRemoteID(t *testing.T) {
	f := newFixture(true)
	listID := uuid.New()
	f.lists.byID[listID] = &store.TodoList{ID: listID, UserID: f.userID, Title: "Groceries", MicrosoftListID: strPtr("remote-groceries")}

	out := f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpCreate, Title: "Buy milk", Description: "2%", TodoListID: &listID,
	})

	require.NoError(t, out.Err)
	require.NotNil(t, out.RemoteTaskID)
	require.Len(t, f.provider.createTaskCalls, 1)
	assert.Equal(t, "remote-groceries", f.provider.createTaskCalls[0].listID)
	assert.Equal(t, "Buy milk", f.provider.createTaskCalls[0].title)
	assert.Equal(t, 0, f.provider.defaultListCalls, "explicit linked list needs no default lookup")
}

func TestMirrorTodoCreateFallsBackToDefaultList(t *testing.T) {
	f := newFixture(true)

	out := f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpCreate, Title: "Buy milk",
	})

	require.NoError(t, out.Err)
	require.Len(t, f.provider.createTaskCalls, 1)
	assert.Equal(t, "default-list", f.provider.createTaskCalls[0].listID)
}

func TestMirrorTodoCreateEmptyTitleStaysLocal(t *testing.T) {
	f := newFixture(true)

	out := f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpCreate, Title: "",
	})

	require.NoError(t, out.Err)
	assert.Nil(t, out.RemoteTaskID)
	assert.Equal(t, 0, f.provider.remoteCalls())
}

func TestMirrorTodoUpdateWithoutRemoteLinkIsNoOp(t *testing.T) {
	f := newFixture(true)
	todoID := uuid.New()
	f.todos.byID[todoID] = &store.Todo{ID: todoID, UserID: f.userID, Title: "Local only"}

	out := f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpUpdate, Title: "Renamed", TodoID: &todoID,
	})

	require.NoError(t, out.Err)
	assert.Nil(t, out.RemoteTaskID, "update must never lazily link")
	assert.Equal(t, 0, f.provider.remoteCalls())
}

func TestMirrorTodoUpdatePreservesStatus(t *testing.T) {
	f := newFixture(true)
	todoID := uuid.New()
	f.todos.byID[todoID] = &store.Todo{
		ID: todoID, UserID: f.userID, Title: "Buy milk", Completed: true,
		MicrosoftTaskID: strPtr("remote-task-1"),
	}

	out := f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpUpdate, Title: "Buy oat milk", TodoID: &todoID,
	})

	require.NoError(t, out.Err)
	require.Len(t, f.provider.updateTaskCalls, 1)
	call := f.provider.updateTaskCalls[0]
	assert.Equal(t, "remote-task-1", call.taskID)
	assert.Equal(t, "Buy oat milk", call.title)
	assert.Equal(t, msgraph.StatusCompleted, call.status, "update preserves the completed-derived status")
}

func TestMirrorTodoUpdateFallsBackToStoredTitle(t *testing.T) {
	f := newFixture(true)
	todoID := uuid.New()
	f.todos.byID[todoID] = &store.Todo{
		ID: todoID, UserID: f.userID, Title: "Buy milk",
		MicrosoftTaskID: strPtr("remote-task-1"),
	}

	out := f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpComplete, TodoID: &todoID,
	})

	require.NoError(t, out.Err)
	require.Len(t, f.provider.updateTaskCalls, 1)
	assert.Equal(t, "Buy milk", f.provider.updateTaskCalls[0].title)
	assert.Equal(t, msgraph.StatusCompleted, f.provider.updateTaskCalls[0].status)
}

func TestMirrorTodoUncompleteForcesNotStarted(t *testing.T) {
	f := newFixture(true)
	todoID := uuid.New()
	f.todos.byID[todoID] = &store.Todo{
		ID: todoID, UserID: f.userID, Title: "Buy milk", Completed: true,
		MicrosoftTaskID: strPtr("remote-task-1"),
	}

	f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpUncomplete, TodoID: &todoID,
	})

	require.Len(t, f.provider.updateTaskCalls, 1)
	assert.Equal(t, msgraph.StatusNotStarted, f.provider.updateTaskCalls[0].status)
}

func TestMirrorTodoToggleTwiceIssuesOppositeStatuses(t *testing.T) {
	f := newFixture(true)
	todoID := uuid.New()
	todo := &store.Todo{
		ID: todoID, UserID: f.userID, Title: "Buy milk", Completed: false,
		MicrosoftTaskID: strPtr("remote-task-1"),
	}
	f.todos.byID[todoID] = todo

	f.engine.MirrorTodo(context.Background(), TodoChange{UserID: f.userID, Op: OpToggle, TodoID: &todoID})
	// The local store flips the flag after a successful mirror.
	todo.Completed = true
	f.engine.MirrorTodo(context.Background(), TodoChange{UserID: f.userID, Op: OpToggle, TodoID: &todoID})

	require.Len(t, f.provider.updateTaskCalls, 2)
	assert.Equal(t, msgraph.StatusCompleted, f.provider.updateTaskCalls[0].status)
	assert.Equal(t, msgraph.StatusNotStarted, f.provider.updateTaskCalls[1].status)
}

func TestMirrorTodoRemoteFailureIsReportedNotFatal(t *testing.T) {
	f := newFixture(true)
	f.provider.err = &msgraph.APIError{StatusCode: 503, Message: "throttled"}

	out := f.engine.MirrorTodo(context.Background(), TodoChange{
		UserID: f.userID, Op: OpCreate, Title: "Buy milk",
	})

	assert.Error(t, out.Err)
	assert.Nil(t, out.RemoteTaskID)
}

func TestMirrorListCreate(t *testing.T) {
	f := newFixture(true)

	out := f.engine.MirrorListCreate(context.Background(), f.userID, "Groceries")

	require.NoError(t, out.Err)
	require.NotNil(t, out.RemoteListID)
	assert.Equal(t, []string{"Groceries"}, f.provider.createListCalls)
}

func TestMirrorListUpdateLinkedList(t *testing.T) {
	f := newFixture(true)
	listID := uuid.New()
	f.lists.byID[listID] = &store.TodoList{ID: listID, UserID: f.userID, Title: "Groceries", MicrosoftListID: strPtr("remote-groceries")}

	out := f.engine.MirrorListUpdate(context.Background(), f.userID, listID, "Errands")

	require.NoError(t, out.Err)
	require.Len(t, f.provider.updateListCalls, 1)
	assert.Equal(t, "remote-groceries", f.provider.updateListCalls[0].listID)
	assert.Empty(t, f.provider.createListCalls)
}

func TestMirrorListUpdateLazilyCreatesUnlinkedList(t *testing.T) {
	f := newFixture(true)
	listID := uuid.New()
	f.lists.byID[listID] = &store.TodoList{ID: listID, UserID: f.userID, Title: "Groceries"}

	out := f.engine.MirrorListUpdate(context.Background(), f.userID, listID, "Errands")

	require.NoError(t, out.Err)
	require.NotNil(t, out.RemoteListID)
	assert.Equal(t, "new-remote-list", *out.RemoteListID)
	assert.Equal(t, []string{"Errands"}, f.provider.createListCalls)
	assert.Empty(t, f.provider.updateListCalls)
}
