package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ikoiii/booking-futsal/internal/models"
)

const userColumns = `id, nama, email, password, no_telp, role, created_at, updated_at`

// CreateUser inserts a user. A taken email fails with ErrEmailExists.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	ts := nowUTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (nama, email, password, no_telp, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Nama, normalizeEmail(user.Email), user.PasswordHash, user.NoTelp, user.Role, ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUserProfile applies the non-nil fields of upd.
func (db *DB) UpdateUserProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	if upd.Nama != nil {
		sets = append(sets, "nama = ?")
		args = append(args, *upd.Nama)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, normalizeEmail(*upd.Email))
	}
	if upd.NoTelp != nil {
		sets = append(sets, "no_telp = ?")
		args = append(args, *upd.NoTelp)
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password = ?")
		args = append(args, *upd.PasswordHash)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, nowUTC(), id)

	result, err := db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns a page of users, newest first, plus the total count.
func (db *DB) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, total, nil
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	if err := s.Scan(&u.ID, &u.Nama, &u.Email, &u.PasswordHash, &u.NoTelp, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
