package main

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const projectColumns = "id, created_at, updated_at, title, description, is_active, is_deleted, todo_list_id, version"

type projectModel struct {
	db *sqlx.DB
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern returns an ILIKE pattern matching s literally anywhere in
// the column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (f projectFilter) where() sq.And {
	cond := sq.And{}
	if f.Title != "" {
		cond = append(cond, sq.ILike{"title": containsPattern(f.Title)})
	}
	if f.IsActive != nil {
		cond = append(cond, sq.Eq{"is_active": *f.IsActive})
	}
	if f.MemberID != "" {
		cond = append(cond, sq.Expr("id IN (SELECT project_id FROM project_users WHERE user_id = ?)", f.MemberID))
	}
	if f.TodoListID != "" {
		cond = append(cond, sq.Eq{"todo_list_id": f.TodoListID})
	}
	if !f.IncludeDeleted {
		cond = append(cond, sq.Eq{"is_deleted": false})
	}
	return cond
}

func (m projectModel) insert(ctx context.Context, p *project) error {
	query := `INSERT INTO projects (id, title, description, is_active, is_deleted, todo_list_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING created_at, updated_at, version`
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, p.ID, p.Title, p.Description, p.IsActive, p.IsDeleted, p.TodoListID)
	return translateError(row.Scan(&p.CreatedAt, &p.UpdatedAt, &p.Version))
}

func (m projectModel) getByID(ctx context.Context, id string) (*project, error) {
	query := `SELECT ` + projectColumns + `
			  FROM projects
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p project
	if err := m.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (m projectModel) list(ctx context.Context, f projectFilter) ([]*project, error) {
	q := psql.Select(projectColumns).From("projects").Where(f.where()).OrderBy("created_at", "id")
	if f.PageSize > 0 {
		q = q.Limit(f.limit()).Offset(f.offset())
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	projects := []*project{}
	if err := m.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, err
	}
	return projects, nil
}

func (m projectModel) update(ctx context.Context, p *project) error {
	query := `UPDATE projects
			  SET title = $1, description = $2, is_active = $3, is_deleted = $4, todo_list_id = $5,
			      updated_at = now(), version = version + 1
			  WHERE id = $6 AND version = $7
			  RETURNING updated_at, version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, p.Title, p.Description, p.IsActive, p.IsDeleted, p.TodoListID, p.ID, p.Version)
	return translateUpdateError(row.Scan(&p.UpdatedAt, &p.Version))
}

func (m projectModel) delete(ctx context.Context, id string) error {
	query := `DELETE FROM projects
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res)
}

func (m projectModel) updateMany(ctx context.Context, f projectFilter, patch projectPatch) (int64, error) {
	set := map[string]any{
		"updated_at": sq.Expr("now()"),
		"version":    sq.Expr("version + 1"),
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}
	query, args, err := psql.Update("projects").SetMap(set).Where(f.where()).ToSql()
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

func (m projectModel) deleteMany(ctx context.Context, f projectFilter) (int64, error) {
	query, args, err := psql.Delete("projects").Where(f.where()).ToSql()
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

const memberColumns = "id, created_at, updated_at, project_id, user_id, role"

type memberModel struct {
	db *sqlx.DB
}

func (m memberModel) insert(ctx context.Context, pu *projectUser) error {
	query := `INSERT INTO project_users (id, project_id, user_id, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING created_at, updated_at`
	if pu.ID == "" {
		pu.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := m.db.QueryRowxContext(ctx, query, pu.ID, pu.ProjectID, pu.UserID, pu.Role)
	return translateError(row.Scan(&pu.CreatedAt, &pu.UpdatedAt))
}

func (m memberModel) getByID(ctx context.Context, id string) (*projectUser, error) {
	query := `SELECT ` + memberColumns + `
			  FROM project_users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var pu projectUser
	if err := m.db.GetContext(ctx, &pu, query, id); err != nil {
		return nil, translateError(err)
	}
	return &pu, nil
}

func (m memberModel) get(ctx context.Context, projectID, userID string) (*projectUser, error) {
	query := `SELECT ` + memberColumns + `
			  FROM project_users
			  WHERE project_id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var pu projectUser
	if err := m.db.GetContext(ctx, &pu, query, projectID, userID); err != nil {
		return nil, translateError(err)
	}
	return &pu, nil
}

func (m memberModel) listByProject(ctx context.Context, projectID string) ([]*projectUser, error) {
	query := `SELECT ` + memberColumns + `
			  FROM project_users
			  WHERE project_id = $1
			  ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	members := []*projectUser{}
	if err := m.db.SelectContext(ctx, &members, query, projectID); err != nil {
		return nil, err
	}
	return members, nil
}

func (m memberModel) delete(ctx context.Context, id string) error {
	query := `DELETE FROM project_users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res)
}
