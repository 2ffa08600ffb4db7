package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = "id, created_at, updated_at, name, email, password_hash, gender, role, is_active, version"

type userModel struct {
	db *sqlx.DB
}

func (m userModel) insert(ctx context.Context, u *user) error {
	query := `INSERT INTO users (id, name, email, password_hash, gender, role, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING created_at, updated_at, version`
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Gender, u.Role, u.IsActive)
	return translateError(row.Scan(&u.CreatedAt, &u.UpdatedAt, &u.Version))
}

func (m userModel) getByID(ctx context.Context, id string) (*user, error) {
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var u user
	if err := m.db.GetContext(ctx, &u, query, id); err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (m userModel) getByEmail(ctx context.Context, email string) (*user, error) {
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var u user
	if err := m.db.GetContext(ctx, &u, query, email); err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (m userModel) list(ctx context.Context, f userFilter) ([]*user, error) {
	q := psql.Select(userColumns).From("users").OrderBy("created_at", "id")
	if f.PageSize > 0 {
		q = q.Limit(f.limit()).Offset(f.offset())
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	users := []*user{}
	if err := m.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

func (m userModel) update(ctx context.Context, u *user) error {
	query := `UPDATE users
			  SET name = $1, email = $2, password_hash = $3, gender = $4, role = $5, is_active = $6,
			      updated_at = now(), version = version + 1
			  WHERE id = $7 AND version = $8
			  RETURNING updated_at, version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Gender, u.Role, u.IsActive, u.ID, u.Version)
	return translateUpdateError(row.Scan(&u.UpdatedAt, &u.Version))
}

func (m userModel) delete(ctx context.Context, id string) error {
	query := `DELETE FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res)
}

type todoListModel struct {
	db *sqlx.DB
}

const todoListColumns = "id, created_at, title, color, created_by, is_deleted"

func (m todoListModel) insert(ctx context.Context, l *todoList) error {
	query := `INSERT INTO todo_lists (id, title, color, created_by, is_deleted)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at`
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, l.ID, l.Title, l.Color, l.CreatedBy, l.IsDeleted)
	return translateError(row.Scan(&l.CreatedAt))
}

func (m todoListModel) getByID(ctx context.Context, id string) (*todoList, error) {
	query := `SELECT ` + todoListColumns + `
			  FROM todo_lists
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l todoList
	if err := m.db.GetContext(ctx, &l, query, id); err != nil {
		return nil, translateError(err)
	}
	return &l, nil
}

func (m todoListModel) list(ctx context.Context, p pagination) ([]*todoList, error) {
	q := psql.Select(todoListColumns).From("todo_lists").OrderBy("created_at", "id")
	if p.PageSize > 0 {
		q = q.Limit(p.limit()).Offset(p.offset())
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	lists := []*todoList{}
	if err := m.db.SelectContext(ctx, &lists, query, args...); err != nil {
		return nil, err
	}
	return lists, nil
}

func (m todoListModel) delete(ctx context.Context, id string) error {
	query := `DELETE FROM todo_lists
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res)
}
