package store

import (
	"time"

	"github.com/google/uuid"
)

// User owns todo lists and todos. MicrosoftUserID is set once the user links
// a Microsoft account and is never unset.
type User struct {
	ID              uuid.UUID
	Name            string
	Email           string
	MicrosoftUserID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TodoList groups todos for a user. MicrosoftListID links the list to its
// remote counterpart in Microsoft To Do.
type TodoList struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Title           string
	MicrosoftListID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Todos           []Todo
}

// Todo is a single task. TodoListID is nullable: todos may be unlisted.
// MicrosoftTaskID links the todo to its remote counterpart.
type Todo struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	TodoListID      *uuid.UUID
	Title           string
	Description     string
	Completed       bool
	MicrosoftTaskID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Page describes stable-order pagination: primary sort by creation time,
// secondary tie-break by id, both in the same direction.
type Page struct {
	Skip int
	Take int
	Desc bool
}

func (p Page) order() string {
	if p.Desc {
		return "DESC"
	}
	return "ASC"
}
