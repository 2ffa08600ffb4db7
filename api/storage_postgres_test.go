package main

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newPostgresStorage(sqlx.NewDb(db, "postgres")), mock
}

func TestUserModel(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("Insert", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs(sqlmock.AnyArg(), "Alice", "alice@example.com", []byte("hash"), "Female", roleUser, false).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at", "version"}).AddRow(now, now, 1))

		u := &user{Name: "Alice", Email: "alice@example.com", PasswordHash: []byte("hash"), Gender: "Female", Role: roleUser}
		require.NoError(t, store.users.insert(ctx, u))
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, 1, u.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertDuplicateEmail", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		err := store.users.insert(ctx, &user{Email: "alice@example.com"})
		assert.ErrorIs(t, err, errDuplicateEmail)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByEmail", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users\s+WHERE email = \$1`).
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "name", "email", "password_hash", "gender", "role", "is_active", "version"}).
				AddRow("u1", now, now, "Alice", "alice@example.com", []byte("hash"), "Female", "admin", true, 3))

		u, err := store.users.getByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, roleAdmin, u.Role)
		assert.Equal(t, 3, u.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByIDNotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users\s+WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := store.users.getByID(ctx, "missing")
		assert.ErrorIs(t, err, errRecordNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateEditConflict", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users`).
			WithArgs("Alice", "alice@example.com", []byte("hash"), "Female", roleUser, true, "u1", 2).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at", "version"}))

		u := &user{ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: []byte("hash"), Gender: "Female", Role: roleUser, IsActive: true, Version: 2}
		assert.ErrorIs(t, store.users.update(ctx, u), errEditConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM users`).
			WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, store.users.delete(ctx, "u1"), errRecordNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProjectModel(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()

	t.Run("ListFilters", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM projects WHERE \(title ILIKE \$1 AND is_active = \$2 AND id IN \(SELECT project_id FROM project_users WHERE user_id = \$3\) AND is_deleted = \$4\) ORDER BY created_at, id LIMIT 10 OFFSET 10`).
			WithArgs("%apo%", true, "u1", false).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("p1", "apollo"))

		projects, err := store.projects.list(ctx, projectFilter{
			Title:      "apo",
			IsActive:   ptr(true),
			MemberID:   "u1",
			pagination: pagination{Page: 2, PageSize: 10},
		})
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "apollo", projects[0].Title)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListTitleIsLiteral", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM projects WHERE \(title ILIKE \$1 AND is_deleted = \$2\)`).
			WithArgs(`%50\%\_off\\%`, false).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

		_, err := store.projects.list(ctx, projectFilter{Title: `50%_off\`})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertDuplicateTitle", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "projects_title_key"})

		err := store.projects.insert(ctx, &project{Title: "apollo"})
		assert.ErrorIs(t, err, errDuplicateTitle)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateMany", func(t *testing.T) {
		mock.ExpectExec(`UPDATE projects SET is_active = \$1, updated_at = now\(\), version = version \+ 1 WHERE \(todo_list_id = \$2 AND is_deleted = \$3\)`).
			WithArgs(false, "l1", false).
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := store.projects.updateMany(ctx, projectFilter{TodoListID: "l1"}, projectPatch{IsActive: ptr(false)})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemberModel(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()

	t.Run("InsertDuplicate", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO project_users`).
			WithArgs(sqlmock.AnyArg(), "p1", "u1", roleUser).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "project_users_project_id_user_id_key"})

		err := store.members.insert(ctx, &projectUser{ProjectID: "p1", UserID: "u1", Role: roleUser})
		assert.ErrorIs(t, err, errDuplicateMember)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertUnknownUser", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO project_users`).
			WillReturnError(&pq.Error{Code: "23503", Constraint: "project_users_user_id_fkey"})

		err := store.members.insert(ctx, &projectUser{ProjectID: "p1", UserID: "nobody", Role: roleUser})
		assert.ErrorIs(t, err, errRecordNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTaskModel(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()

	t.Run("ListVisibleTo", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM tasks WHERE \(\(user_id = \$1 OR created_by = \$2\) AND status = \$3 AND is_deleted = \$4\) ORDER BY created_at, id`).
			WithArgs("u1", "u1", statusTodo, false).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "user_id"}).AddRow("t1", "write docs", "u1"))

		tasks, err := store.tasks.list(ctx, taskFilter{VisibleTo: "u1", Status: statusTodo})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "write docs", tasks[0].Title)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteSubtasks", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM tasks WHERE \(parent_id = \$1\)`).
			WithArgs("t1").
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := store.tasks.deleteMany(ctx, taskFilter{ParentID: "t1", IncludeDeleted: true})
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTodoModelDeleteMany(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectExec(`DELETE FROM todos WHERE \(project_id = \$1 AND is_done = \$2\)`).
		WithArgs("p1", true).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := store.todos.deleteMany(context.Background(), todoFilter{ProjectID: "p1", IsDone: ptr(true)})
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
