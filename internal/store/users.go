package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, name, email, microsoft_user_id, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.MicrosoftUserID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, user User) (*User, error) {
	defer observeDB(ctx, "db.users.create")()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		user.ID, user.Name, user.Email)
	return scanUser(row)
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	defer observeDB(ctx, "db.users.get")()
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_email")()
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *userRepo) List(ctx context.Context, page Page) ([]User, error) {
	defer observeDB(ctx, "db.users.list")()
	q := fmt.Sprintf(`SELECT %s FROM users
		ORDER BY created_at %s, id %s
		OFFSET $1 LIMIT $2`, userColumns, page.order(), page.order())
	rows, err := r.pool.Query(ctx, q, page.Skip, page.Take)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	defer observeDB(ctx, "db.users.count")()
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, name, email string) (*User, error) {
	defer observeDB(ctx, "db.users.update")()
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, name, email)
	return scanUser(row)
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer observeDB(ctx, "db.users.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) SetMicrosoftUserID(ctx context.Context, id uuid.UUID, microsoftUserID string) error {
	defer observeDB(ctx, "db.users.set_microsoft_user_id")()
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET microsoft_user_id = $2, updated_at = NOW()
		WHERE id = $1`,
		id, microsoftUserID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
