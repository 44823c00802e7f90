// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, username, secret_hash, display_name, role, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.SecretHash,
		&u.DisplayName,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

// CreateUserParams holds the columns of a new user row.
type CreateUserParams struct {
	ID          string
	Username    string
	SecretHash  string
	DisplayName string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUser inserts a user row. A taken username fails the unique index.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (id, username, secret_hash, display_name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Username, arg.SecretHash, arg.DisplayName, arg.Role, arg.CreatedAt, arg.UpdatedAt,
	)
	return err
}

// GetUserByID returns sql.ErrNoRows when id is unknown.
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername matches the username exactly.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ListUsers returns all users, admins first, then by username.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY CASE role WHEN 'admin' THEN 0 ELSE 1 END, username`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountUsers returns the number of user rows.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// UpdateUserParams holds the full replacement of a user's mutable columns.
type UpdateUserParams struct {
	ID          string
	Username    string
	SecretHash  string
	DisplayName string
	Role        string
	UpdatedAt   time.Time
}

// UpdateUser rewrites a user row. Rows affected is returned so callers
// can tell a missing id apart.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET username = ?, secret_hash = ?, display_name = ?, role = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Username, arg.SecretHash, arg.DisplayName, arg.Role, arg.UpdatedAt, arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateUserSecret replaces only the stored hash.
func (q *Queries) UpdateUserSecret(ctx context.Context, id, secretHash string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET secret_hash = ?, updated_at = ? WHERE id = ?`,
		secretHash, updatedAt, id)
	return err
}

// UpdateUserLastLogin stamps a successful login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		sql.NullTime{Time: at, Valid: true}, id)
	return err
}

// DeleteUser removes a user row; deleting a missing id is not an error.
func (q *Queries) DeleteUser(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
