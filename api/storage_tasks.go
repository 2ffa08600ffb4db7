package main

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const taskColumns = "id, created_at, updated_at, title, description, priority, status, is_fixing, is_done, due_date, " +
	"is_deleted, is_created_by_admin, created_by, project_id, user_id, parent_id, version"

type taskModel struct {
	db *sqlx.DB
}

func (f taskFilter) where() sq.And {
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
	if f.VisibleTo != "" {
		cond = append(cond, sq.Or{sq.Eq{"user_id": f.VisibleTo}, sq.Eq{"created_by": f.VisibleTo}})
	}
	if f.Status != "" {
		cond = append(cond, sq.Eq{"status": f.Status})
	}
	if f.Priority != "" {
		cond = append(cond, sq.Eq{"priority": f.Priority})
	}
	if f.IsDone != nil {
		cond = append(cond, sq.Eq{"is_done": *f.IsDone})
	}
	if !f.IncludeDeleted {
		cond = append(cond, sq.Eq{"is_deleted": false})
	}
	return cond
}

func (m taskModel) insert(ctx context.Context, t *task) error {
	query := `INSERT INTO tasks (id, title, description, priority, status, is_fixing, is_done, due_date,
			                     is_deleted, is_created_by_admin, created_by, project_id, user_id, parent_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			  RETURNING created_at, updated_at, version`
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, t.ID, t.Title, t.Description, t.Priority, t.Status, t.IsFixing, t.IsDone,
		t.DueDate, t.IsDeleted, t.IsCreatedByAdmin, t.CreatedBy, t.ProjectID, t.UserID, t.ParentID)
	return translateError(row.Scan(&t.CreatedAt, &t.UpdatedAt, &t.Version))
}

func (m taskModel) getByID(ctx context.Context, id string) (*task, error) {
	query := `SELECT ` + taskColumns + `
			  FROM tasks
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t task
	if err := m.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (m taskModel) list(ctx context.Context, f taskFilter) ([]*task, error) {
	q := psql.Select(taskColumns).From("tasks").Where(f.where()).OrderBy("created_at", "id")
	if f.PageSize > 0 {
		q = q.Limit(f.limit()).Offset(f.offset())
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tasks := []*task{}
	if err := m.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (m taskModel) update(ctx context.Context, t *task) error {
	query := `UPDATE tasks
			  SET title = $1, description = $2, priority = $3, status = $4, is_fixing = $5, is_done = $6,
			      due_date = $7, is_deleted = $8, project_id = $9, user_id = $10, parent_id = $11,
			      updated_at = now(), version = version + 1
			  WHERE id = $12 AND version = $13
			  RETURNING updated_at, version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, t.Title, t.Description, t.Priority, t.Status, t.IsFixing, t.IsDone,
		t.DueDate, t.IsDeleted, t.ProjectID, t.UserID, t.ParentID, t.ID, t.Version)
	return translateUpdateError(row.Scan(&t.UpdatedAt, &t.Version))
}

func (m taskModel) delete(ctx context.Context, id string) error {
	query := `DELETE FROM tasks
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res)
}

func (m taskModel) deleteMany(ctx context.Context, f taskFilter) (int64, error) {
	query, args, err := psql.Delete("tasks").Where(f.where()).ToSql()
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
