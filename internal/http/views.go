package httpserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/douglascorrea/todo-api/internal/store"
)

type userView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	MicrosoftUserID *string   `json:"microsoftUserId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type todoListView struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"userId"`
	Title           string     `json:"title"`
	MicrosoftListID *string    `json:"microsoftListId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Todos           []todoView `json:"todos,omitempty"`
}

type todoView struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"userId"`
	TodoListID      *uuid.UUID `json:"todoListId"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Completed       bool       `json:"completed"`
	MicrosoftTaskID *string    `json:"microsoftTaskId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func viewUser(u *store.User) userView {
	return userView{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		MicrosoftUserID: u.MicrosoftUserID,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func viewUsers(users []store.User) []userView {
	out := make([]userView, len(users))
	for i := range users {
		out[i] = viewUser(&users[i])
	}
	return out
}

func viewTodoList(l *store.TodoList) todoListView {
	return todoListView{
		ID:              l.ID,
		UserID:          l.UserID,
		Title:           l.Title,
		MicrosoftListID: l.MicrosoftListID,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
		Todos:           viewTodos(l.Todos),
	}
}

func viewTodoLists(lists []store.TodoList) []todoListView {
	out := make([]todoListView, len(lists))
	for i := range lists {
		out[i] = viewTodoList(&lists[i])
	}
	return out
}

func viewTodo(t *store.Todo) todoView {
	return todoView{
		ID:              t.ID,
		UserID:          t.UserID,
		TodoListID:      t.TodoListID,
		Title:           t.Title,
		Description:     t.Description,
		Completed:       t.Completed,
		MicrosoftTaskID: t.MicrosoftTaskID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func viewTodos(todos []store.Todo) []todoView {
	if todos == nil {
		return nil
	}
	out := make([]todoView, len(todos))
	for i := range todos {
		out[i] = viewTodo(&todos[i])
	}
	return out
}
