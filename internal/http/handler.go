// Package httpserver exposes the JSON API over a chi router.
package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/douglascorrea/todo-api/internal/logging"
	"github.com/douglascorrea/todo-api/internal/msgraph"
	"github.com/douglascorrea/todo-api/internal/service"
	"github.com/douglascorrea/todo-api/internal/store"
)

// UserService is the slice of *service.UserService the handlers use.
type UserService interface {
	Create(ctx context.Context, name, email string) (*store.User, error)
	Get(ctx context.Context, id uuid.UUID) (*store.User, error)
	List(ctx context.Context, page store.Page) ([]store.User, int, error)
	Update(ctx context.Context, id uuid.UUID, name, email string) (*store.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	LinkMicrosoftAccount(ctx context.Context, id uuid.UUID, accountID string) error
}

// TodoListService is the slice of *service.TodoListService the handlers use.
type TodoListService interface {
	Create(ctx context.Context, userID uuid.UUID, title string) (*store.TodoList, error)
	Get(ctx context.Context, userID, id uuid.UUID, withTodos bool) (*store.TodoList, error)
	List(ctx context.Context, userID uuid.UUID, page store.Page, withTodos bool) ([]store.TodoList, int, error)
	Update(ctx context.Context, userID, id uuid.UUID, title string) (*store.TodoList, error)
	Delete(ctx context.Context, userID, id uuid.UUID, withTodos bool) error
}

// TodoService is the slice of *service.TodoService the handlers use.
type TodoService interface {
	Create(ctx context.Context, userID uuid.UUID, in service.TodoInput) (*store.Todo, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error)
	List(ctx context.Context, userID uuid.UUID, page store.Page) ([]store.Todo, int, error)
	Update(ctx context.Context, userID, id uuid.UUID, in service.TodoInput) (*store.Todo, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Complete(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error)
	Uncomplete(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error)
	Toggle(ctx context.Context, userID, id uuid.UUID) (*store.Todo, error)
}

// GraphClient is the read surface of the Graph passthrough endpoints.
type GraphClient interface {
	Me(ctx context.Context) (*msgraph.Profile, error)
	ListLists(ctx context.Context) ([]msgraph.TaskList, error)
	ListTasks(ctx context.Context, listID string) ([]msgraph.Task, error)
	ListAllListsAndTasks(ctx context.Context) ([]msgraph.ListWithTasks, error)
}

// GraphAuth drives the OAuth link flow and hands out per-account clients.
type GraphAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (accountID string, err error)
	ClientFor(ctx context.Context, accountID string) GraphClient
}

// Syncer triggers the bulk remote-to-local reconciliation pass.
type Syncer interface {
	Resync(ctx context.Context, userID uuid.UUID) error
}

// Handler carries the dependencies of all route handlers.
type Handler struct {
	users  UserService
	lists  TodoListService
	todos  TodoService
	graph  GraphAuth
	syncer Syncer
	log    zerolog.Logger
}

func NewHandler(users UserService, lists TodoListService, todos TodoService, graph GraphAuth, syncer Syncer) *Handler {
	return &Handler{
		users:  users,
		lists:  lists,
		todos:  todos,
		graph:  graph,
		syncer: syncer,
		log:    logging.WithComponent("http"),
	}
}

// graphAuthAdapter narrows *msgraph.Authenticator to the GraphAuth interface.
type graphAuthAdapter struct {
	auth *msgraph.Authenticator
}

// WrapAuthenticator adapts the concrete authenticator for handler use.
func WrapAuthenticator(a *msgraph.Authenticator) GraphAuth {
	return graphAuthAdapter{auth: a}
}

func (g graphAuthAdapter) AuthCodeURL(state string) string { return g.auth.AuthCodeURL(state) }

func (g graphAuthAdapter) Exchange(ctx context.Context, code string) (string, error) {
	return g.auth.Exchange(ctx, code)
}

func (g graphAuthAdapter) ClientFor(ctx context.Context, accountID string) GraphClient {
	return g.auth.ClientFor(ctx, accountID)
}

// pathUUID parses a UUID URL parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// queryPage reads skip/take/order query parameters into a clamped page.
// order accepts "asc" and "desc", defaulting to ascending creation order.
func queryPage(r *http.Request) store.Page {
	q := r.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))
	take, _ := strconv.Atoi(q.Get("take"))
	desc := strings.EqualFold(q.Get("order"), "desc")
	return service.NewPage(skip, take, desc)
}

func queryBool(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
