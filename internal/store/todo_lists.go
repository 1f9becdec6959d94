package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// todoListRepo implements TodoListRepository.
type todoListRepo struct {
	pool *pgxpool.Pool
}

const todoListColumns = `id, user_id, title, microsoft_list_id, created_at, updated_at`

func scanTodoList(row pgx.Row) (*TodoList, error) {
	var l TodoList
	err := row.Scan(&l.ID, &l.UserID, &l.Title, &l.MicrosoftListID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return &l, nil
}

func (r *todoListRepo) Create(ctx context.Context, list TodoList) (*TodoList, error) {
	defer observeDB(ctx, "db.todo_lists.create")()
	if list.ID == uuid.Nil {
		list.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO todo_lists (id, user_id, title, microsoft_list_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+todoListColumns,
		list.ID, list.UserID, list.Title, list.MicrosoftListID)
	return scanTodoList(row)
}

func (r *todoListRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*TodoList, error) {
	defer observeDB(ctx, "db.todo_lists.get")()
	row := r.pool.QueryRow(ctx, `
		SELECT `+todoListColumns+` FROM todo_lists
		WHERE id = $1 AND user_id = $2`,
		id, userID)
	return scanTodoList(row)
}

func (r *todoListRepo) ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]TodoList, error) {
	defer observeDB(ctx, "db.todo_lists.list")()
	q := fmt.Sprintf(`SELECT %s FROM todo_lists
		WHERE user_id = $1
		ORDER BY created_at %s, id %s
		OFFSET $2 LIMIT $3`, todoListColumns, page.order(), page.order())
	rows, err := r.pool.Query(ctx, q, userID, page.Skip, page.Take)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []TodoList
	for rows.Next() {
		l, err := scanTodoList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

func (r *todoListRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	defer observeDB(ctx, "db.todo_lists.count")()
	var n int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM todo_lists WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *todoListRepo) TitleExists(ctx context.Context, userID uuid.UUID, title string) (bool, error) {
	defer observeDB(ctx, "db.todo_lists.title_exists")()
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM todo_lists WHERE user_id = $1 AND title = $2)`,
		userID, title).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *todoListRepo) Update(ctx context.Context, userID, id uuid.UUID, title string) (*TodoList, error) {
	defer observeDB(ctx, "db.todo_lists.update")()
	row := r.pool.QueryRow(ctx, `
		UPDATE todo_lists SET title = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+todoListColumns,
		id, userID, title)
	return scanTodoList(row)
}

func (r *todoListRepo) Delete(ctx context.Context, userID, id uuid.UUID, withTodos bool) error {
	defer observeDB(ctx, "db.todo_lists.delete")()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin delete todo list: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if withTodos {
		// Children go first; otherwise the FK nulls their todo_list_id.
		if _, err := tx.Exec(ctx, `
			DELETE FROM todos WHERE todo_list_id = $1 AND user_id = $2`,
			id, userID); err != nil {
			return fmt.Errorf("delete child todos: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM todo_lists WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete todo list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *todoListRepo) UpsertByMicrosoftListID(ctx context.Context, userID uuid.UUID, microsoftListID, title string) (*TodoList, error) {
	defer observeDB(ctx, "db.todo_lists.upsert_by_ms_id")()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO todo_lists (id, user_id, title, microsoft_list_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, microsoft_list_id) WHERE microsoft_list_id IS NOT NULL
		DO UPDATE SET title = EXCLUDED.title, updated_at = NOW()
		RETURNING `+todoListColumns,
		uuid.New(), userID, title, microsoftListID)
	return scanTodoList(row)
}
