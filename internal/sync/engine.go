// Package sync decides, for each local todo/list mutation, what remote call
// to issue against the linked Microsoft account, and imports remote state
// back into local storage. Local state is authoritative: remote calls happen
// first, their outcome is recorded, and a remote failure never blocks the
// local write.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/douglascorrea/todo-api/internal/logging"
	"github.com/douglascorrea/todo-api/internal/metrics"
	"github.com/douglascorrea/todo-api/internal/msgraph"
	"github.com/douglascorrea/todo-api/internal/store"
)

// Provider is the remote task surface the engine drives. *msgraph.Client
// satisfies it.
type Provider interface {
	GetDefaultList(ctx context.Context) (*msgraph.TaskList, error)
	ListAllListsAndTasks(ctx context.Context) ([]msgraph.ListWithTasks, error)
	CreateList(ctx context.Context, title string) (*msgraph.TaskList, error)
	UpdateList(ctx context.Context, listID, title string) (*msgraph.TaskList, error)
	CreateTask(ctx context.Context, listID, title, description string) (*msgraph.Task, error)
	UpdateTask(ctx context.Context, listID, taskID, title, description, status string) (*msgraph.Task, error)
}

// ProviderFunc constructs a Provider for one linked account. Clients are
// built per call: cheap, and the token cache supplies continuity.
type ProviderFunc func(ctx context.Context, accountID string) Provider

// Op names a local todo mutation being mirrored.
type Op string

const (
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpComplete   Op = "complete"
	OpUncomplete Op = "uncomplete"
	OpToggle     Op = "toggle"
)

// TodoChange describes one local todo mutation.
type TodoChange struct {
	UserID      uuid.UUID
	Op          Op
	Title       string
	Description string
	TodoListID  *uuid.UUID
	TodoID      *uuid.UUID
}

// Outcome is the result of one mirroring step. RemoteTaskID/RemoteListID are
// set when a remote object was touched; Err records a remote failure. Callers
// log Err and proceed with the local write either way.
type Outcome struct {
	RemoteTaskID *string
	RemoteListID *string
	Err          error
}

// Mirrored reports whether a remote object handle was obtained.
func (o Outcome) Mirrored() bool { return o.RemoteTaskID != nil || o.RemoteListID != nil }

// Engine is the reconciliation engine.
type Engine struct {
	users    store.UserRepository
	lists    store.TodoListRepository
	todos    store.TodoRepository
	provider ProviderFunc
	log      zerolog.Logger
}

// New builds an Engine over the given repositories and provider constructor.
func New(users store.UserRepository, lists store.TodoListRepository, todos store.TodoRepository, provider ProviderFunc) *Engine {
	return &Engine{
		users:    users,
		lists:    lists,
		todos:    todos,
		provider: provider,
		log:      logging.WithComponent("sync"),
	}
}

// MirrorTodo mirrors one todo mutation remotely.
//
// Rules: an unlinked user is a no-op. Create requires a non-empty title;
// todos created without a title stay local-only. Every other operation
// requires the todo to already carry a remote task id — update never
// retroactively links. The computed status follows the operation: update
// preserves the current completed flag, complete/uncomplete force it, toggle
// mirrors the inversion the local store is about to make.
func (e *Engine) MirrorTodo(ctx context.Context, ch TodoChange) Outcome {
	user, err := e.users.GetByID(ctx, ch.UserID)
	if err != nil {
		return e.failed(ch.Op, err)
	}
	if user.MicrosoftUserID == nil {
		metrics.CountMirrorCall(string(ch.Op), "skipped")
		return Outcome{}
	}
	client := e.provider(ctx, *user.MicrosoftUserID)

	var todo *store.Todo
	if ch.Op != OpCreate {
		if ch.TodoID == nil {
			metrics.CountMirrorCall(string(ch.Op), "skipped")
			return Outcome{}
		}
		todo, err = e.todos.GetByID(ctx, ch.UserID, *ch.TodoID)
		if err != nil {
			return e.failed(ch.Op, err)
		}
		if todo.MicrosoftTaskID == nil {
			// Local-only todo stays local-only.
			metrics.CountMirrorCall(string(ch.Op), "skipped")
			return Outcome{}
		}
	}

	if ch.Op == OpCreate && ch.Title == "" {
		metrics.CountMirrorCall(string(ch.Op), "skipped")
		return Outcome{}
	}

	targetList := ch.TodoListID
	if targetList == nil && todo != nil && ch.Op != OpUpdate {
		// Status changes with no explicit list follow the todo's own list.
		targetList = todo.TodoListID
	}
	remoteListID, err := e.resolveRemoteList(ctx, client, ch.UserID, targetList)
	if err != nil {
		return e.failed(ch.Op, err)
	}

	if ch.Op == OpCreate {
		task, err := client.CreateTask(ctx, remoteListID, ch.Title, ch.Description)
		if err != nil {
			return e.failed(ch.Op, err)
		}
		metrics.CountMirrorCall(string(ch.Op), "mirrored")
		return Outcome{RemoteTaskID: &task.ID, RemoteListID: &remoteListID}
	}

	title := ch.Title
	if title == "" {
		title = todo.Title
	}
	task, err := client.UpdateTask(ctx, remoteListID, *todo.MicrosoftTaskID, title, ch.Description, statusFor(ch.Op, todo.Completed))
	if err != nil {
		return e.failed(ch.Op, err)
	}
	metrics.CountMirrorCall(string(ch.Op), "mirrored")
	return Outcome{RemoteTaskID: &task.ID, RemoteListID: &remoteListID}
}

// MirrorListCreate creates the remote counterpart of a new local list.
func (e *Engine) MirrorListCreate(ctx context.Context, userID uuid.UUID, title string) Outcome {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return e.failed("list_create", err)
	}
	if user.MicrosoftUserID == nil {
		metrics.CountMirrorCall("list_create", "skipped")
		return Outcome{}
	}

	created, err := e.provider(ctx, *user.MicrosoftUserID).CreateList(ctx, title)
	if err != nil {
		return e.failed("list_create", err)
	}
	metrics.CountMirrorCall("list_create", "mirrored")
	return Outcome{RemoteListID: &created.ID}
}

// MirrorListUpdate renames the remote counterpart of a local list. A list
// with no remote link yet (it predates the account link) gets one lazily
// created; the minted id is returned in the Outcome, though the update path
// persists only the title and leaves the id backfill to the next resync.
func (e *Engine) MirrorListUpdate(ctx context.Context, userID, listID uuid.UUID, title string) Outcome {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return e.failed("list_update", err)
	}
	if user.MicrosoftUserID == nil {
		metrics.CountMirrorCall("list_update", "skipped")
		return Outcome{}
	}

	list, err := e.lists.GetByID(ctx, userID, listID)
	if err != nil {
		return e.failed("list_update", err)
	}

	client := e.provider(ctx, *user.MicrosoftUserID)
	if list.MicrosoftListID != nil {
		updated, err := client.UpdateList(ctx, *list.MicrosoftListID, title)
		if err != nil {
			return e.failed("list_update", err)
		}
		metrics.CountMirrorCall("list_update", "mirrored")
		return Outcome{RemoteListID: &updated.ID}
	}

	created, err := client.CreateList(ctx, title)
	if err != nil {
		return e.failed("list_update", err)
	}
	metrics.CountMirrorCall("list_update", "mirrored")
	return Outcome{RemoteListID: &created.ID}
}

// resolveRemoteList maps a local list reference to a remote list id. A nil or
// unlinked local list resolves to the account's default list.
func (e *Engine) resolveRemoteList(ctx context.Context, client Provider, userID uuid.UUID, todoListID *uuid.UUID) (string, error) {
	if todoListID != nil {
		list, err := e.lists.GetByID(ctx, userID, *todoListID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		if err == nil && list.MicrosoftListID != nil {
			return *list.MicrosoftListID, nil
		}
	}

	def, err := client.GetDefaultList(ctx)
	if err != nil {
		return "", err
	}
	if def == nil {
		return "", fmt.Errorf("account has no default task list")
	}
	return def.ID, nil
}

func statusFor(op Op, completed bool) string {
	switch op {
	case OpComplete:
		return msgraph.StatusCompleted
	case OpUncomplete:
		return msgraph.StatusNotStarted
	case OpToggle:
		if completed {
			return msgraph.StatusNotStarted
		}
		return msgraph.StatusCompleted
	default: // OpUpdate preserves the current flag
		if completed {
			return msgraph.StatusCompleted
		}
		return msgraph.StatusNotStarted
	}
}

func (e *Engine) failed(op Op, err error) Outcome {
	metrics.CountMirrorCall(string(op), "error")
	return Outcome{Err: err}
}
