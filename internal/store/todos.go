package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// todoRepo implements TodoRepository.
type todoRepo struct {
	pool *pgxpool.Pool
}

const todoColumns = `id, user_id, todo_list_id, title, description, completed, microsoft_task_id, created_at, updated_at`

func scanTodo(row pgx.Row) (*Todo, error) {
	var t Todo
	err := row.Scan(&t.ID, &t.UserID, &t.TodoListID, &t.Title, &t.Description,
		&t.Completed, &t.MicrosoftTaskID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return &t, nil
}

func (r *todoRepo) Create(ctx context.Context, todo Todo) (*Todo, error) {
	defer observeDB(ctx, "db.todos.create")()
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO todos (id, user_id, todo_list_id, title, description, completed, microsoft_task_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+todoColumns,
		todo.ID, todo.UserID, todo.TodoListID, todo.Title, todo.Description,
		todo.Completed, todo.MicrosoftTaskID)
	return scanTodo(row)
}

func (r *todoRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*Todo, error) {
	defer observeDB(ctx, "db.todos.get")()
	row := r.pool.QueryRow(ctx, `
		SELECT `+todoColumns+` FROM todos
		WHERE id = $1 AND user_id = $2`,
		id, userID)
	return scanTodo(row)
}

func (r *todoRepo) ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]Todo, error) {
	defer observeDB(ctx, "db.todos.list")()
	q := fmt.Sprintf(`SELECT %s FROM todos
		WHERE user_id = $1
		ORDER BY created_at %s, id %s
		OFFSET $2 LIMIT $3`, todoColumns, page.order(), page.order())
	rows, err := r.pool.Query(ctx, q, userID, page.Skip, page.Take)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTodos(rows)
}

func (r *todoRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	defer observeDB(ctx, "db.todos.count")()
	var n int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM todos WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *todoRepo) ListByList(ctx context.Context, listID uuid.UUID) ([]Todo, error) {
	defer observeDB(ctx, "db.todos.list_by_list")()
	rows, err := r.pool.Query(ctx, `
		SELECT `+todoColumns+` FROM todos
		WHERE todo_list_id = $1
		ORDER BY created_at, id`,
		listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTodos(rows)
}

func collectTodos(rows pgx.Rows) ([]Todo, error) {
	var todos []Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func (r *todoRepo) Update(ctx context.Context, userID, id uuid.UUID, title, description string, todoListID *uuid.UUID) (*Todo, error) {
	defer observeDB(ctx, "db.todos.update")()
	row := r.pool.QueryRow(ctx, `
		UPDATE todos SET title = $3, description = $4, todo_list_id = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+todoColumns,
		id, userID, title, description, todoListID)
	return scanTodo(row)
}

func (r *todoRepo) SetCompleted(ctx context.Context, userID, id uuid.UUID, completed bool) (*Todo, error) {
	defer observeDB(ctx, "db.todos.set_completed")()
	row := r.pool.QueryRow(ctx, `
		UPDATE todos SET completed = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+todoColumns,
		id, userID, completed)
	return scanTodo(row)
}

func (r *todoRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	defer observeDB(ctx, "db.todos.delete")()
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM todos WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *todoRepo) UpsertByMicrosoftTaskID(ctx context.Context, userID uuid.UUID, microsoftTaskID string, todoListID *uuid.UUID, title, description string, completed bool) (*Todo, error) {
	defer observeDB(ctx, "db.todos.upsert_by_ms_id")()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO todos (id, user_id, todo_list_id, title, description, completed, microsoft_task_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, microsoft_task_id) WHERE microsoft_task_id IS NOT NULL
		DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			todo_list_id = EXCLUDED.todo_list_id,
			completed = EXCLUDED.completed,
			updated_at = NOW()
		RETURNING `+todoColumns,
		uuid.New(), userID, todoListID, title, description, completed, microsoftTaskID)
	return scanTodo(row)
}
