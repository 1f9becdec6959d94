package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/douglascorrea/todo-api/internal/service"
	"github.com/douglascorrea/todo-api/internal/store"
)

type todoRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TodoListID  *uuid.UUID `json:"todoListId"`
}

func (from todoRequest) input() service.TodoInput {
	return service.TodoInput{
		Title:       from.Title,
		Description: from.Description,
		TodoListID:  from.TodoListID,
	}
}

func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	var req todoRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	todo, err := h.todos.Create(r.Context(), userID, req.input())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, viewTodo(todo))
}

func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}

	page := queryPage(r)
	todos, total, err := h.todos.List(r.Context(), userID, page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPage(w, page, total, viewTodos(todos))
}

func (h *Handler) GetTodo(w http.ResponseWriter, r *http.Request) {
	h.withTodo(w, r, h.todos.Get)
}

func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	todoID, ok := pathUUID(r, "todoID")
	if !ok {
		respondBadRequest(w, "invalid todo id")
		return
	}
	var req todoRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	todo, err := h.todos.Update(r.Context(), userID, todoID, req.input())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, viewTodo(todo))
}

func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	todoID, ok := pathUUID(r, "todoID")
	if !ok {
		respondBadRequest(w, "invalid todo id")
		return
	}

	if err := h.todos.Delete(r.Context(), userID, todoID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	h.withTodo(w, r, h.todos.Complete)
}

func (h *Handler) UncompleteTodo(w http.ResponseWriter, r *http.Request) {
	h.withTodo(w, r, h.todos.Uncomplete)
}

func (h *Handler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	h.withTodo(w, r, h.todos.Toggle)
}

// withTodo runs one (userID, todoID) operation and renders the result.
func (h *Handler) withTodo(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, todoID uuid.UUID) (*store.Todo, error)) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	todoID, ok := pathUUID(r, "todoID")
	if !ok {
		respondBadRequest(w, "invalid todo id")
		return
	}

	todo, err := op(r.Context(), userID, todoID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, viewTodo(todo))
}
