package main

import (
	"context"
	"errors"
)

var (
	errForbidden        = errors.New("you do not have permission to access this resource")
	errNotMember        = errors.New("this user is not in this project")
	errAdminTasks       = errors.New("a project user cannot access tasks of a project admin")
	errAdminCreatedTask = errors.New("this task can not be seen by user")
)

// policy answers who may read or write which record. Every rule is
// decided from the actor's global role, the actor's project membership
// and the record itself.
type policy struct {
	members memberStore
}

// membership returns the user's membership in the project, or nil when the
// user is not a member.
func (p policy) membership(ctx context.Context, projectID, userID string) (*projectUser, error) {
	pu, err := p.members.get(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return pu, nil
}

func canAccessUser(actor *user, userID string) error {
	if actor.isAdmin() || actor.ID == userID {
		return nil
	}
	return errForbidden
}

func (p policy) canViewProject(ctx context.Context, actor *user, projectID string) error {
	if actor.isAdmin() {
		return nil
	}
	m, err := p.membership(ctx, projectID, actor.ID)
	if err != nil {
		return err
	}
	if m == nil {
		return errNotMember
	}
	return nil
}

func (p policy) canManageProject(ctx context.Context, actor *user, projectID string) error {
	if actor.isAdmin() {
		return nil
	}
	m, err := p.membership(ctx, projectID, actor.ID)
	if err != nil {
		return err
	}
	if m == nil {
		return errNotMember
	}
	if m.Role != roleAdmin {
		return errForbidden
	}
	return nil
}

// memberTaskRule decides whether the actor membership may create tasks for,
// or read the tasks of, the target membership.
func memberTaskRule(actor, target *projectUser) error {
	if actor == nil || actor.ProjectID != target.ProjectID {
		return errNotMember
	}
	if actor.Role == roleUser && target.Role == roleAdmin {
		return errAdminTasks
	}
	return nil
}

// taskViewRule decides whether actor may read t. m is the actor's
// membership in the task's project, nil when there is none.
func taskViewRule(actor *user, t *task, m *projectUser) error {
	if actor.isAdmin() {
		return nil
	}
	if t.UserID == actor.ID || eqPtr(t.CreatedBy, actor.ID) {
		return nil
	}
	if t.ProjectID != nil && m != nil && m.Role == roleAdmin {
		return nil
	}
	if t.IsCreatedByAdmin {
		return errAdminCreatedTask
	}
	if t.ProjectID != nil && m != nil {
		return nil
	}
	return errForbidden
}

func taskModifyRule(actor *user, t *task, m *projectUser) error {
	if actor.isAdmin() {
		return nil
	}
	if m != nil && m.Role == roleAdmin {
		return nil
	}
	if t.UserID == actor.ID || eqPtr(t.CreatedBy, actor.ID) {
		return nil
	}
	return errForbidden
}

func taskDeleteRule(actor *user, t *task, m *projectUser) error {
	if actor.isAdmin() {
		return nil
	}
	if m != nil && m.Role == roleAdmin {
		return nil
	}
	if t.IsCreatedByAdmin {
		return errForbidden
	}
	if t.UserID == actor.ID || eqPtr(t.CreatedBy, actor.ID) {
		return nil
	}
	return errForbidden
}

func (p policy) taskMembership(ctx context.Context, actor *user, t *task) (*projectUser, error) {
	if t.ProjectID == nil || actor.isAdmin() {
		return nil, nil
	}
	return p.membership(ctx, *t.ProjectID, actor.ID)
}

func (p policy) canViewTask(ctx context.Context, actor *user, t *task) error {
	m, err := p.taskMembership(ctx, actor, t)
	if err != nil {
		return err
	}
	return taskViewRule(actor, t, m)
}

func (p policy) canModifyTask(ctx context.Context, actor *user, t *task) error {
	m, err := p.taskMembership(ctx, actor, t)
	if err != nil {
		return err
	}
	return taskModifyRule(actor, t, m)
}

func (p policy) canDeleteTask(ctx context.Context, actor *user, t *task) error {
	m, err := p.taskMembership(ctx, actor, t)
	if err != nil {
		return err
	}
	return taskDeleteRule(actor, t, m)
}

// visibleTasks drops the tasks actor may not read.
func (p policy) visibleTasks(ctx context.Context, actor *user, tasks []*task) ([]*task, error) {
	if actor.isAdmin() {
		return tasks, nil
	}
	memberships := make(map[string]*projectUser)
	visible := make([]*task, 0, len(tasks))
	for _, t := range tasks {
		var m *projectUser
		if t.ProjectID != nil {
			cached, ok := memberships[*t.ProjectID]
			if !ok {
				var err error
				cached, err = p.membership(ctx, *t.ProjectID, actor.ID)
				if err != nil {
					return nil, err
				}
				memberships[*t.ProjectID] = cached
			}
			m = cached
		}
		if taskViewRule(actor, t, m) == nil {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

func todoRule(actor *user, t *todo, m *projectUser, write bool) error {
	if actor.isAdmin() || eqPtr(t.UserID, actor.ID) {
		return nil
	}
	if t.ProjectID == nil || m == nil {
		return errForbidden
	}
	if write && m.Role != roleAdmin {
		return errForbidden
	}
	return nil
}

func (p policy) todoAccess(ctx context.Context, actor *user, t *todo, write bool) error {
	var m *projectUser
	if t.ProjectID != nil && !actor.isAdmin() {
		var err error
		m, err = p.membership(ctx, *t.ProjectID, actor.ID)
		if err != nil {
			return err
		}
	}
	return todoRule(actor, t, m, write)
}
