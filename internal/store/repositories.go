package store

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page Page) ([]User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id uuid.UUID, name, email string) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetMicrosoftUserID(ctx context.Context, id uuid.UUID, microsoftUserID string) error
}

// TodoListRepository handles todo list lifecycle. All lookups are scoped by
// owner: a mismatched userID behaves as if the row does not exist.
type TodoListRepository interface {
	Create(ctx context.Context, list TodoList) (*TodoList, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*TodoList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]TodoList, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	TitleExists(ctx context.Context, userID uuid.UUID, title string) (bool, error)
	Update(ctx context.Context, userID, id uuid.UUID, title string) (*TodoList, error)
	// Delete removes a list. With withTodos the children are deleted in the
	// same transaction; otherwise their todo_list_id is nulled out.
	Delete(ctx context.Context, userID, id uuid.UUID, withTodos bool) error
	// UpsertByMicrosoftListID inserts or updates a list keyed by
	// (user_id, microsoft_list_id). Safe to re-run: the natural key never
	// produces a second local row for an already-linked remote list.
	UpsertByMicrosoftListID(ctx context.Context, userID uuid.UUID, microsoftListID, title string) (*TodoList, error)
}

// TodoRepository handles todo storage, owner-scoped like TodoListRepository.
type TodoRepository interface {
	Create(ctx context.Context, todo Todo) (*Todo, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Todo, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]Todo, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	ListByList(ctx context.Context, listID uuid.UUID) ([]Todo, error)
	Update(ctx context.Context, userID, id uuid.UUID, title, description string, todoListID *uuid.UUID) (*Todo, error)
	SetCompleted(ctx context.Context, userID, id uuid.UUID, completed bool) (*Todo, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// UpsertByMicrosoftTaskID inserts or updates a todo keyed by
	// (user_id, microsoft_task_id).
	UpsertByMicrosoftTaskID(ctx context.Context, userID uuid.UUID, microsoftTaskID string, todoListID *uuid.UUID, title, description string, completed bool) (*Todo, error)
}

// TokenCacheRepository stores opaque third-party token cache blobs keyed by
// provider name. The store never interprets the blob.
type TokenCacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}
