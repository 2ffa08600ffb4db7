package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

var (
	errSelfLink  = errors.New("a task can not be its own parent")
	errLinkCycle = errors.New("linking these tasks would create a cycle")
)

type taskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    taskPriority `json:"priority"`
	Status      taskStatus   `json:"status"`
	IsFixing    bool         `json:"is_fixing"`
	IsDone      bool         `json:"is_done"`
	DueDate     *time.Time   `json:"due_date"`
	ProjectID   *string      `json:"project_id"`
	ParentID    *string      `json:"parent_id"`
	UserID      *string      `json:"user_id"`
}

// toTask validates the input and returns the task it describes. Assignee,
// creator and the admin flag are left to the caller.
func (in taskInput) toTask(v *validator) *task {
	t := &task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		IsFixing:    in.IsFixing,
		IsDone:      in.IsDone,
		DueDate:     in.DueDate,
		ProjectID:   in.ProjectID,
		ParentID:    in.ParentID,
	}
	if t.Priority == "" {
		t.Priority = priorityLow
	}
	if t.Status == "" {
		t.Status = statusTodo
	}
	v.checkTitle(t.Title)
	v.checkPriority(t.Priority)
	v.checkStatus(t.Status)
	if t.ProjectID != nil {
		v.checkID("project_id", *t.ProjectID)
	}
	if t.ParentID != nil {
		v.checkID("parent_id", *t.ParentID)
	}
	if in.UserID != nil {
		v.checkID("user_id", *in.UserID)
	}
	return t
}

func readTaskFilter(qs url.Values, v *validator) taskFilter {
	f := taskFilter{
		Status:     taskStatus(readString(qs, "status", "")),
		Priority:   taskPriority(readString(qs, "priority", "")),
		ProjectID:  readString(qs, "project_id", ""),
		IsDone:     readBool(qs, "is_done", v),
		pagination: readPagination(qs, v),
	}
	if includeDeleted := readBool(qs, "include_deleted", v); includeDeleted != nil {
		f.IncludeDeleted = *includeDeleted
	}
	if f.Status != "" {
		v.checkStatus(f.Status)
	}
	if f.Priority != "" {
		v.checkPriority(f.Priority)
	}
	if f.ProjectID != "" {
		v.checkID("project_id", f.ProjectID)
	}
	return f
}

func (app *application) insertTask(w http.ResponseWriter, r *http.Request, t *task) {
	if t.ParentID != nil {
		parent, err := app.storage.tasks.getByID(r.Context(), *t.ParentID)
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}
		err = app.policy.canViewTask(r.Context(), getUserFromRequest(r), parent)
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}
	}
	err := app.storage.tasks.insert(r.Context(), t)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.publishEvent(r.Context(), subjectTaskCreated, getUserFromRequest(r), t)
	app.writeJSON(w, r, http.StatusCreated, t)
}

// writeTasks lists the tasks matching f that the actor may read.
func (app *application) writeTasks(w http.ResponseWriter, r *http.Request, f taskFilter) {
	tasks, err := app.storage.tasks.list(r.Context(), f)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	tasks, err = app.policy.visibleTasks(r.Context(), getUserFromRequest(r), tasks)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, tasks)
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input taskInput
	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	actor := getUserFromRequest(r)
	v := newValidator()
	t := input.toTask(v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	t.UserID = actor.ID
	if input.UserID != nil {
		t.UserID = *input.UserID
	}
	t.CreatedBy = &actor.ID
	t.IsCreatedByAdmin = actor.isAdmin()

	if !actor.isAdmin() {
		err = app.checkTaskAssignment(r.Context(), actor, t)
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}
	}
	app.insertTask(w, r, t)
}

// checkTaskAssignment decides whether a non admin actor may create t.
// Users assign tasks to themselves; project admins may assign project tasks
// to other members of the project.
func (app *application) checkTaskAssignment(ctx context.Context, actor *user, t *task) error {
	if t.ProjectID == nil {
		if t.UserID != actor.ID {
			return errForbidden
		}
		return nil
	}
	m, err := app.policy.membership(ctx, *t.ProjectID, actor.ID)
	if err != nil {
		return err
	}
	if m == nil {
		return errNotMember
	}
	if t.UserID == actor.ID {
		return nil
	}
	if m.Role != roleAdmin {
		return errForbidden
	}
	assignee, err := app.policy.membership(ctx, *t.ProjectID, t.UserID)
	if err != nil {
		return err
	}
	if assignee == nil {
		return errNotMember
	}
	return nil
}

func (app *application) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	v := newValidator()
	f := readTaskFilter(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	actor := getUserFromRequest(r)
	if !actor.isAdmin() {
		f.VisibleTo = actor.ID
	}
	app.writeTasks(w, r, f)
}

// readTaskParam loads the task named by the id path value once the actor is
// allowed to read it.
func (app *application) readTaskParam(r *http.Request) (*task, error) {
	id, err := readIDParam(r, "id")
	if err != nil {
		return nil, err
	}
	t, err := app.storage.tasks.getByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := app.policy.canViewTask(r.Context(), getUserFromRequest(r), t); err != nil {
		return nil, err
	}
	return t, nil
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTaskParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, t)
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTaskParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	actor := getUserFromRequest(r)
	m, err := app.policy.taskMembership(r.Context(), actor, t)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	err = taskModifyRule(actor, t, m)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	var input struct {
		Title       *string       `json:"title"`
		Description *string       `json:"description"`
		Priority    *taskPriority `json:"priority"`
		Status      *taskStatus   `json:"status"`
		IsFixing    *bool         `json:"is_fixing"`
		IsDone      *bool         `json:"is_done"`
		IsDeleted   *bool         `json:"is_deleted"`
		DueDate     *time.Time    `json:"due_date"`
		UserID      *string       `json:"user_id"`
	}
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	v := newValidator()
	if input.Title != nil {
		t.Title = *input.Title
		v.checkTitle(t.Title)
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Priority != nil {
		t.Priority = *input.Priority
		v.checkPriority(t.Priority)
	}
	if input.Status != nil {
		t.Status = *input.Status
		v.checkStatus(t.Status)
	}
	if input.IsFixing != nil {
		t.IsFixing = *input.IsFixing
	}
	if input.IsDone != nil {
		t.IsDone = *input.IsDone
	}
	if input.IsDeleted != nil {
		t.IsDeleted = *input.IsDeleted
	}
	if input.DueDate != nil {
		t.DueDate = input.DueDate
	}
	if input.UserID != nil {
		v.checkID("user_id", *input.UserID)
	}
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}

	if input.UserID != nil && *input.UserID != t.UserID {
		if !actor.isAdmin() && (m == nil || m.Role != roleAdmin) {
			app.errorResponse(w, r, errForbidden)
			return
		}
		if t.ProjectID != nil {
			assignee, err := app.policy.membership(r.Context(), *t.ProjectID, *input.UserID)
			if err != nil {
				app.serverErrorResponse(w, r, err)
				return
			}
			if assignee == nil {
				app.errorResponse(w, r, errNotMember)
				return
			}
		}
		t.UserID = *input.UserID
	}

	err = app.storage.tasks.update(r.Context(), t)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.publishEvent(r.Context(), subjectTaskUpdated, actor, t)
	app.writeJSON(w, r, http.StatusOK, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTaskParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	actor := getUserFromRequest(r)
	err = app.policy.canDeleteTask(r.Context(), actor, t)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.storage.tasks.delete(r.Context(), t.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.publishEvent(r.Context(), subjectTaskDeleted, actor, map[string]string{"id": t.ID})
	app.writeJSON(w, r, http.StatusOK, map[string]string{"message": "task successfully deleted"})
}

func (app *application) linkTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TaskID   string `json:"task_id"`
		ParentID string `json:"parent_id"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	v.checkID("task_id", input.TaskID)
	v.checkID("parent_id", input.ParentID)
	v.checkCond(input.TaskID != input.ParentID, "parent_id", errSelfLink.Error())
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}

	child, err := app.storage.tasks.getByID(r.Context(), input.TaskID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	parent, err := app.storage.tasks.getByID(r.Context(), input.ParentID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	actor := getUserFromRequest(r)
	err = app.policy.canModifyTask(r.Context(), actor, child)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.policy.canViewTask(r.Context(), actor, parent)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.checkLinkCycle(r.Context(), child.ID, parent)
	if errors.Is(err, errLinkCycle) {
		v.addError("parent_id", err.Error())
		failedValidationResponse(w, v)
		return
	}
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	child.ParentID = &parent.ID
	err = app.storage.tasks.update(r.Context(), child)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.publishEvent(r.Context(), subjectTaskUpdated, actor, child)
	app.writeJSON(w, r, http.StatusOK, child)
}

// checkLinkCycle walks the ancestors of parent and reports errLinkCycle when
// childID is among them.
func (app *application) checkLinkCycle(ctx context.Context, childID string, parent *task) error {
	seen := map[string]bool{parent.ID: true}
	cur := parent
	for cur.ParentID != nil {
		if *cur.ParentID == childID {
			return errLinkCycle
		}
		if seen[*cur.ParentID] {
			return nil
		}
		seen[*cur.ParentID] = true
		next, err := app.storage.tasks.getByID(ctx, *cur.ParentID)
		if errors.Is(err, errRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

func (app *application) listSubtasksHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTaskParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	v := newValidator()
	f := readTaskFilter(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	f.ParentID = t.ID
	app.writeTasks(w, r, f)
}

func (app *application) deleteSubtasksHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTaskParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	actor := getUserFromRequest(r)
	err = app.policy.canDeleteTask(r.Context(), actor, t)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	n, err := app.storage.tasks.deleteMany(r.Context(), taskFilter{ParentID: t.ID, IncludeDeleted: true})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, countResponse{Count: n})
}

// memberTaskAccess applies the membership rules for reading or creating the
// tasks of target and returns the actor's own membership, nil for admins.
func (app *application) memberTaskAccess(ctx context.Context, actor *user, target *projectUser) (*projectUser, error) {
	if actor.isAdmin() {
		return nil, nil
	}
	m, err := app.policy.membership(ctx, target.ProjectID, actor.ID)
	if err != nil {
		return nil, err
	}
	return m, memberTaskRule(m, target)
}

func (app *application) createMemberTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "id")
	if err != nil {
		notFoundResponse(w)
		return
	}
	target, err := app.storage.members.getByID(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	actor := getUserFromRequest(r)
	m, err := app.memberTaskAccess(r.Context(), actor, target)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	var input taskInput
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	t := input.toTask(v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	t.UserID = target.UserID
	t.ProjectID = &target.ProjectID
	t.CreatedBy = &actor.ID
	t.IsCreatedByAdmin = actor.isAdmin() || (m != nil && m.Role == roleAdmin)
	app.insertTask(w, r, t)
}

func (app *application) listMemberTasksHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "id")
	if err != nil {
		notFoundResponse(w)
		return
	}
	target, err := app.storage.members.getByID(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeMemberTasks(w, r, target)
}

func (app *application) listProjectUserTasksHandler(w http.ResponseWriter, r *http.Request) {
	projectID, err := readIDParam(r, "projectId")
	if err != nil {
		notFoundResponse(w)
		return
	}
	userID, err := readIDParam(r, "userId")
	if err != nil {
		notFoundResponse(w)
		return
	}
	target, err := app.storage.members.get(r.Context(), projectID, userID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeMemberTasks(w, r, target)
}

func (app *application) writeMemberTasks(w http.ResponseWriter, r *http.Request, target *projectUser) {
	_, err := app.memberTaskAccess(r.Context(), getUserFromRequest(r), target)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	v := newValidator()
	f := readTaskFilter(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	f.UserID = target.UserID
	f.ProjectID = target.ProjectID
	app.writeTasks(w, r, f)
}
