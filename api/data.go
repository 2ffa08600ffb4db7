package main

import "time"

type role string

const (
	roleUser  role = "user"
	roleAdmin role = "admin"
)

func (r role) valid() bool {
	return r == roleUser || r == roleAdmin
}

type taskStatus string

const (
	statusTodo       taskStatus = "todo"
	statusInProgress taskStatus = "in progress"
	statusCodingDone taskStatus = "coding done"
)

func (s taskStatus) valid() bool {
	switch s {
	case statusTodo, statusInProgress, statusCodingDone:
		return true
	}
	return false
}

type taskPriority string

const (
	priorityLow     taskPriority = "low"
	priorityMedium  taskPriority = "medium"
	priorityHigh    taskPriority = "high"
	priorityHighest taskPriority = "highest"
)

func (p taskPriority) valid() bool {
	switch p {
	case priorityLow, priorityMedium, priorityHigh, priorityHighest:
		return true
	}
	return false
}

type user struct {
	ID           string    `json:"id" db:"id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	Gender       string    `json:"gender" db:"gender"`
	Role         role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	Version      int       `json:"-" db:"version"`
}

func (u *user) isAdmin() bool {
	return u != nil && u.Role == roleAdmin
}

type todoList struct {
	ID        string    `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Title     string    `json:"title" db:"title"`
	Color     string    `json:"color,omitempty" db:"color"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	IsDeleted bool      `json:"is_deleted" db:"is_deleted"`
}

type project struct {
	ID          string    `json:"id" db:"id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	IsDeleted   bool      `json:"is_deleted" db:"is_deleted"`
	TodoListID  *string   `json:"todo_list_id" db:"todo_list_id"`
	Version     int       `json:"-" db:"version"`
}

// projectUser is the membership of a user in a project. Its role is
// independent of the user's global role.
type projectUser struct {
	ID        string    `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	ProjectID string    `json:"project_id" db:"project_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      role      `json:"role" db:"role"`
}

type task struct {
	ID               string       `json:"id" db:"id"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
	Title            string       `json:"title" db:"title"`
	Description      string       `json:"description" db:"description"`
	Priority         taskPriority `json:"priority" db:"priority"`
	Status           taskStatus   `json:"status" db:"status"`
	IsFixing         bool         `json:"is_fixing" db:"is_fixing"`
	IsDone           bool         `json:"is_done" db:"is_done"`
	DueDate          *time.Time   `json:"due_date" db:"due_date"`
	IsDeleted        bool         `json:"is_deleted" db:"is_deleted"`
	IsCreatedByAdmin bool         `json:"is_created_by_admin" db:"is_created_by_admin"`
	CreatedBy        *string      `json:"created_by" db:"created_by"`
	ProjectID        *string      `json:"project_id" db:"project_id"`
	UserID           string       `json:"user_id" db:"user_id"`
	ParentID         *string      `json:"parent_id" db:"parent_id"`
	Version          int          `json:"-" db:"version"`
}

type todo struct {
	ID          string       `json:"id" db:"id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Priority    taskPriority `json:"priority" db:"priority"`
	Status      taskStatus   `json:"status" db:"status"`
	IsFixing    bool         `json:"is_fixing" db:"is_fixing"`
	IsDone      bool         `json:"is_done" db:"is_done"`
	IsDeleted   bool         `json:"is_deleted" db:"is_deleted"`
	ProjectID   *string      `json:"project_id" db:"project_id"`
	UserID      *string      `json:"user_id" db:"user_id"`
	ParentID    *string      `json:"parent_id" db:"parent_id"`
	Version     int          `json:"-" db:"version"`
}

type pagination struct {
	Page     int
	PageSize int
}

func (p pagination) limit() uint64 {
	return uint64(p.PageSize)
}

func (p pagination) offset() uint64 {
	if p.Page <= 1 {
		return 0
	}
	return uint64((p.Page - 1) * p.PageSize)
}

// window applies the pagination to n items and returns the [from, to) bounds.
func (p pagination) window(n int) (int, int) {
	if p.PageSize <= 0 {
		return 0, n
	}
	from := int(p.offset())
	if from > n {
		from = n
	}
	to := from + p.PageSize
	if to > n {
		to = n
	}
	return from, to
}

type userFilter struct {
	pagination
}

type projectFilter struct {
	Title          string
	IsActive       *bool
	MemberID       string
	TodoListID     string
	IncludeDeleted bool
	pagination
}

type taskFilter struct {
	UserID    string
	ProjectID string
	ParentID  string
	// VisibleTo restricts the result to tasks assigned to or created by the user.
	VisibleTo      string
	Status         taskStatus
	Priority       taskPriority
	IsDone         *bool
	IncludeDeleted bool
	pagination
}

type todoFilter struct {
	UserID    string
	ProjectID string
	ParentID  string
	Status    taskStatus
	IsDone    *bool
	pagination
}

type projectPatch struct {
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (p projectPatch) empty() bool {
	return p.Description == nil && p.IsActive == nil
}

type todoPatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Priority    *taskPriority `json:"priority"`
	Status      *taskStatus   `json:"status"`
	IsFixing    *bool         `json:"is_fixing"`
	IsDone      *bool         `json:"is_done"`
}

func (p todoPatch) empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.IsFixing == nil && p.IsDone == nil
}

func (p todoPatch) apply(t *todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.IsFixing != nil {
		t.IsFixing = *p.IsFixing
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
}
