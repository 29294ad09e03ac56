package store

import (
	"context"
	"fmt"

	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/models"
)

const userColumns = `id, email, password_hash, created_at, updated_at`

// CreateUser inserts a user. A duplicate email yields apperr.ErrAlreadyExists.
func (q *Queries) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	ts := now()
	res, err := q.q.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		email, passwordHash, ts, ts)
	if err != nil {
		return models.User{}, fmt.Errorf("store: insert user: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("store: user id: %w", err)
	}
	return models.User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: ts, UpdatedAt: ts}, nil
}

// UserByEmail looks a user up by normalised email.
func (q *Queries) UserByEmail(ctx context.Context, email string) (models.User, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("store: user by email: %w", translate(err))
	}
	return u, nil
}

// UserByID looks a user up by id.
func (q *Queries) UserByID(ctx context.Context, id int64) (models.User, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("store: user by id: %w", translate(err))
	}
	return u, nil
}

// UserExists reports whether a user with id is present.
func (q *Queries) UserExists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: user exists: %w", translate(err))
	}
	return n > 0, nil
}

// DeleteUserByEmail removes a user and, through the foreign key, their notes.
func (q *Queries) DeleteUserByEmail(ctx context.Context, email string) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("store: delete user: %w", translate(err))
	}
	return expectAffected(res, "delete user")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (models.User, error) {
	var u models.User
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func expectAffected(res interface{ RowsAffected() (int64, error) }, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("store: %s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
