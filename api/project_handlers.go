package main

import (
	"net/http"
	"net/url"
)

type projectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (in projectInput) toProject(v *validator) *project {
	p := &project{
		Title:       in.Title,
		Description: in.Description,
		IsActive:    true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	v.checkTitle(p.Title)
	return p
}

func readProjectFilter(qs url.Values, v *validator) projectFilter {
	return projectFilter{
		Title:      readString(qs, "title", ""),
		IsActive:   readBool(qs, "is_active", v),
		pagination: readPagination(qs, v),
	}
}

// insertProject stores p and makes the actor its project admin.
func (app *application) insertProject(w http.ResponseWriter, r *http.Request, p *project) {
	actor := getUserFromRequest(r)
	err := app.storage.projects.insert(r.Context(), p)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	pu := &projectUser{
		ProjectID: p.ID,
		UserID:    actor.ID,
		Role:      roleAdmin,
	}
	err = app.storage.members.insert(r.Context(), pu)
	if err != nil {
		if delErr := app.storage.projects.delete(r.Context(), p.ID); delErr != nil {
			app.logger.Error("remove project without admin", "project_id", p.ID, "error", delErr)
		}
		app.errorResponse(w, r, err)
		return
	}
	app.publishEvent(r.Context(), subjectProjectCreated, actor, p)
	app.writeJSON(w, r, http.StatusCreated, p)
}

func (app *application) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	var input projectInput
	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	p := input.toProject(v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	app.insertProject(w, r, p)
}

func (app *application) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	v := newValidator()
	f := readProjectFilter(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	actor := getUserFromRequest(r)
	if !actor.isAdmin() {
		f.MemberID = actor.ID
	}
	projects, err := app.storage.projects.list(r.Context(), f)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, projects)
}

// readProjectParam loads the project named by the id path value once the
// actor is allowed to read it.
func (app *application) readProjectParam(r *http.Request) (*project, error) {
	id, err := readIDParam(r, "id")
	if err != nil {
		return nil, err
	}
	p, err := app.storage.projects.getByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := app.policy.canViewProject(r.Context(), getUserFromRequest(r), p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (app *application) getProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, p)
}

func (app *application) updateProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.policy.canManageProject(r.Context(), getUserFromRequest(r), p.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
		IsDeleted   *bool   `json:"is_deleted"`
		TodoListID  *string `json:"todo_list_id"`
	}
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	if input.Title != nil {
		p.Title = *input.Title
		v.checkTitle(p.Title)
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	if input.IsDeleted != nil {
		p.IsDeleted = *input.IsDeleted
	}
	if input.TodoListID != nil {
		v.checkID("todo_list_id", *input.TodoListID)
		p.TodoListID = input.TodoListID
	}
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}

	err = app.storage.projects.update(r.Context(), p)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, p)
}

func (app *application) deleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "id")
	if err != nil {
		notFoundResponse(w)
		return
	}
	err = app.storage.projects.delete(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.publishEvent(r.Context(), subjectProjectDeleted, getUserFromRequest(r), map[string]string{"id": id})
	app.writeJSON(w, r, http.StatusOK, map[string]string{"message": "project successfully deleted"})
}

func (app *application) listProjectUsersHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	members, err := app.storage.members.listByProject(r.Context(), p.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, members)
}

func (app *application) addProjectUserHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	actor := getUserFromRequest(r)
	err = app.policy.canManageProject(r.Context(), actor, p.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	var input struct {
		UserID string `json:"user_id"`
		Role   role   `json:"role"`
	}
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.Role == "" {
		input.Role = roleUser
	}
	v := newValidator()
	v.checkID("user_id", input.UserID)
	v.checkRole("role", input.Role)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}

	pu := &projectUser{
		ProjectID: p.ID,
		UserID:    input.UserID,
		Role:      input.Role,
	}
	err = app.storage.members.insert(r.Context(), pu)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.publishEvent(r.Context(), subjectMemberAdded, actor, pu)
	app.writeJSON(w, r, http.StatusCreated, pu)
}

func (app *application) removeProjectUserHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.policy.canManageProject(r.Context(), getUserFromRequest(r), p.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	userID, err := readIDParam(r, "userId")
	if err != nil {
		notFoundResponse(w)
		return
	}
	pu, err := app.storage.members.get(r.Context(), p.ID, userID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.storage.members.delete(r.Context(), pu.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"message": "project user successfully deleted"})
}

func (app *application) listProjectTasksHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
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
	f.ProjectID = p.ID

	actor := getUserFromRequest(r)
	if !actor.isAdmin() {
		m, err := app.policy.membership(r.Context(), p.ID, actor.ID)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		if m == nil {
			app.errorResponse(w, r, errNotMember)
			return
		}
		if m.Role != roleAdmin {
			f.UserID = actor.ID
		}
	}
	app.writeTasks(w, r, f)
}

func (app *application) listProjectTodosHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	v := newValidator()
	f := readTodoFilter(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	f.ProjectID = p.ID
	todos, err := app.storage.todos.list(r.Context(), f)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, todos)
}

func (app *application) createProjectTodoHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var input todoInput
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	t := input.toTodo(v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	actor := getUserFromRequest(r)
	t.ProjectID = &p.ID
	t.UserID = &actor.ID
	app.insertTodo(w, r, t)
}

func (app *application) updateProjectTodosHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.policy.canManageProject(r.Context(), getUserFromRequest(r), p.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var patch todoPatch
	err = readJSON(w, r, &patch)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	f := readTodoFilter(r.URL.Query(), v)
	checkTodoPatch(v, patch)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	f.ProjectID = p.ID
	f.pagination = pagination{}

	n, err := app.storage.todos.updateMany(r.Context(), f, patch)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, countResponse{Count: n})
}

func (app *application) deleteProjectTodosHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.policy.canManageProject(r.Context(), getUserFromRequest(r), p.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	v := newValidator()
	f := readTodoFilter(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	f.ProjectID = p.ID
	f.pagination = pagination{}

	n, err := app.storage.todos.deleteMany(r.Context(), f)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, countResponse{Count: n})
}

func (app *application) getProjectTodoListHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.readProjectParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if p.TodoListID == nil {
		notFoundResponse(w)
		return
	}
	l, err := app.storage.todoLists.getByID(r.Context(), *p.TodoListID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, l)
}
