package main

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const todoColumns = "id, created_at, updated_at, title, description, priority, status, is_fixing, is_done, " +
	"is_deleted, project_id, user_id, parent_id, version"

type todoModel struct {
	db *sqlx.DB
}

func (f todoFilter) where() sq.And {
	cond := sq.And{}
	if f.UserID != "" {
		cond = append(cond, sq.Eq{"user_id": f.UserID})
	}
	if f.ProjectID != "" {
		cond = append(cond, sq.Eq{"project_id": f.ProjectID})
	}
	if f.ParentID != "" {
		cond = append(cond, sq.Eq{"parent_id": f.ParentID})
	}
	if f.Status != "" {
		cond = append(cond, sq.Eq{"status": f.Status})
	}
	if f.IsDone != nil {
		cond = append(cond, sq.Eq{"is_done": *f.IsDone})
	}
	return cond
}

func (m todoModel) insert(ctx context.Context, t *todo) error {
	query := `INSERT INTO todos (id, title, description, priority, status, is_fixing, is_done, is_deleted,
			                     project_id, user_id, parent_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING created_at, updated_at, version`
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, t.ID, t.Title, t.Description, t.Priority, t.Status, t.IsFixing, t.IsDone,
		t.IsDeleted, t.ProjectID, t.UserID, t.ParentID)
	return translateError(row.Scan(&t.CreatedAt, &t.UpdatedAt, &t.Version))
}

func (m todoModel) getByID(ctx context.Context, id string) (*todo, error) {
	query := `SELECT ` + todoColumns + `
			  FROM todos
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t todo
	if err := m.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (m todoModel) list(ctx context.Context, f todoFilter) ([]*todo, error) {
	q := psql.Select(todoColumns).From("todos").Where(f.where()).OrderBy("created_at", "id")
	if f.PageSize > 0 {
		q = q.Limit(f.limit()).Offset(f.offset())
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	todos := []*todo{}
	if err := m.db.SelectContext(ctx, &todos, query, args...); err != nil {
		return nil, err
	}
	return todos, nil
}

func (m todoModel) update(ctx context.Context, t *todo) error {
	query := `UPDATE todos
			  SET title = $1, description = $2, priority = $3, status = $4, is_fixing = $5, is_done = $6,
			      is_deleted = $7, project_id = $8, user_id = $9, parent_id = $10,
			      updated_at = now(), version = version + 1
			  WHERE id = $11 AND version = $12
			  RETURNING updated_at, version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, t.Title, t.Description, t.Priority, t.Status, t.IsFixing, t.IsDone,
		t.IsDeleted, t.ProjectID, t.UserID, t.ParentID, t.ID, t.Version)
	return translateUpdateError(row.Scan(&t.UpdatedAt, &t.Version))
}

func (m todoModel) delete(ctx context.Context, id string) error {
	query := `DELETE FROM todos
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res)
}

func (m todoModel) updateMany(ctx context.Context, f todoFilter, patch todoPatch) (int64, error) {
	set := map[string]any{
		"updated_at": sq.Expr("now()"),
		"version":    sq.Expr("version + 1"),
	}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.IsFixing != nil {
		set["is_fixing"] = *patch.IsFixing
	}
	if patch.IsDone != nil {
		set["is_done"] = *patch.IsDone
	}
	query, args, err := psql.Update("todos").SetMap(set).Where(f.where()).ToSql()
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateError(err)
	}
	return res.RowsAffected()
}

func (m todoModel) deleteMany(ctx context.Context, f todoFilter) (int64, error) {
	query, args, err := psql.Delete("todos").Where(f.where()).ToSql()
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateError(err)
	}
	return res.RowsAffected()
}
