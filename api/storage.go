package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 5 * time.Second

var (
	errRecordNotFound  = errors.New("record not found")
	errEditConflict    = errors.New("unable to update the record due to an edit conflict, please try again")
	errDuplicateEmail  = errors.New("this email already exists")
	errDuplicateTitle  = errors.New("a record with this title already exists")
	errDuplicateMember = errors.New("user is already on this project")
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type userStore interface {
	insert(ctx context.Context, u *user) error
	getByID(ctx context.Context, id string) (*user, error)
	getByEmail(ctx context.Context, email string) (*user, error)
	list(ctx context.Context, f userFilter) ([]*user, error)
	update(ctx context.Context, u *user) error
	delete(ctx context.Context, id string) error
}

type todoListStore interface {
	insert(ctx context.Context, l *todoList) error
	getByID(ctx context.Context, id string) (*todoList, error)
	list(ctx context.Context, p pagination) ([]*todoList, error)
	delete(ctx context.Context, id string) error
}

type projectStore interface {
	insert(ctx context.Context, p *project) error
	getByID(ctx context.Context, id string) (*project, error)
	list(ctx context.Context, f projectFilter) ([]*project, error)
	update(ctx context.Context, p *project) error
	delete(ctx context.Context, id string) error
	updateMany(ctx context.Context, f projectFilter, patch projectPatch) (int64, error)
	deleteMany(ctx context.Context, f projectFilter) (int64, error)
}

type memberStore interface {
	insert(ctx context.Context, pu *projectUser) error
	getByID(ctx context.Context, id string) (*projectUser, error)
	get(ctx context.Context, projectID, userID string) (*projectUser, error)
	listByProject(ctx context.Context, projectID string) ([]*projectUser, error)
	delete(ctx context.Context, id string) error
}

type taskStore interface {
	insert(ctx context.Context, t *task) error
	getByID(ctx context.Context, id string) (*task, error)
	list(ctx context.Context, f taskFilter) ([]*task, error)
	update(ctx context.Context, t *task) error
	delete(ctx context.Context, id string) error
	deleteMany(ctx context.Context, f taskFilter) (int64, error)
}

type todoStore interface {
	insert(ctx context.Context, t *todo) error
	getByID(ctx context.Context, id string) (*todo, error)
	list(ctx context.Context, f todoFilter) ([]*todo, error)
	update(ctx context.Context, t *todo) error
	delete(ctx context.Context, id string) error
	updateMany(ctx context.Context, f todoFilter, patch todoPatch) (int64, error)
	deleteMany(ctx context.Context, f todoFilter) (int64, error)
}

type storage struct {
	users     userStore
	todoLists todoListStore
	projects  projectStore
	members   memberStore
	tasks     taskStore
	todos     todoStore
	ping      func(ctx context.Context) error
	close     func() error
}

func openDB(cfg config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func newPostgresStorage(db *sqlx.DB) *storage {
	return &storage{
		users:     userModel{db: db},
		todoLists: todoListModel{db: db},
		projects:  projectModel{db: db},
		members:   memberModel{db: db},
		tasks:     taskModel{db: db},
		todos:     todoModel{db: db},
		ping:      db.PingContext,
		close:     db.Close,
	}
}

// translateError maps driver errors onto the storage sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errRecordNotFound
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		switch pqErr.Constraint {
		case "users_email_key":
			return errDuplicateEmail
		case "projects_title_key", "tasks_title_key":
			return errDuplicateTitle
		case "project_users_project_id_user_id_key":
			return errDuplicateMember
		}
	case "23503":
		return errRecordNotFound
	}
	return err
}

// translateUpdateError treats a missing row after a versioned update as an
// edit conflict.
func translateUpdateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errEditConflict
	}
	return translateError(err)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errRecordNotFound
	}
	return nil
}
