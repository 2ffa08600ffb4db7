package main

import (
	"net/http"
	"net/url"
)

type todoInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    taskPriority `json:"priority"`
	Status      taskStatus   `json:"status"`
	IsFixing    bool         `json:"is_fixing"`
	IsDone      bool         `json:"is_done"`
	ParentID    *string      `json:"parent_id"`
}

func (in todoInput) toTodo(v *validator) *todo {
	t := &todo{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		IsFixing:    in.IsFixing,
		IsDone:      in.IsDone,
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
	if t.ParentID != nil {
		v.checkID("parent_id", *t.ParentID)
	}
	return t
}

func checkTodoPatch(v *validator, p todoPatch) {
	v.checkCond(!p.empty(), "body", "must contain at least one field")
	if p.Title != nil {
		v.checkTitle(*p.Title)
	}
	if p.Priority != nil {
		v.checkPriority(*p.Priority)
	}
	if p.Status != nil {
		v.checkStatus(*p.Status)
	}
}

func readTodoFilter(qs url.Values, v *validator) todoFilter {
	f := todoFilter{
		Status:     taskStatus(readString(qs, "status", "")),
		IsDone:     readBool(qs, "is_done", v),
		pagination: readPagination(qs, v),
	}
	if f.Status != "" {
		v.checkStatus(f.Status)
	}
	return f
}

func (app *application) insertTodo(w http.ResponseWriter, r *http.Request, t *todo) {
	if t.ParentID != nil {
		parent, err := app.storage.todos.getByID(r.Context(), *t.ParentID)
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}
		err = app.policy.todoAccess(r.Context(), getUserFromRequest(r), parent, false)
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}
	}
	err := app.storage.todos.insert(r.Context(), t)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, t)
}

// readTodoParam loads the todo named by the id path value once the actor is
// allowed to read it, or to write it when write is set.
func (app *application) readTodoParam(r *http.Request, write bool) (*todo, error) {
	id, err := readIDParam(r, "id")
	if err != nil {
		return nil, err
	}
	t, err := app.storage.todos.getByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := app.policy.todoAccess(r.Context(), getUserFromRequest(r), t, write); err != nil {
		return nil, err
	}
	return t, nil
}

func (app *application) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTodoParam(r, false)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, t)
}

func (app *application) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTodoParam(r, true)
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
	checkTodoPatch(v, patch)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	patch.apply(t)
	err = app.storage.todos.update(r.Context(), t)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, t)
}

func (app *application) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTodoParam(r, true)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.storage.todos.delete(r.Context(), t.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"message": "todo successfully deleted"})
}

func (app *application) getParentTodoHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.readTodoParam(r, false)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if t.ParentID == nil {
		notFoundResponse(w)
		return
	}
	parent, err := app.storage.todos.getByID(r.Context(), *t.ParentID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.policy.todoAccess(r.Context(), getUserFromRequest(r), parent, false)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, parent)
}

func (app *application) createTodoListHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title string `json:"title"`
		Color string `json:"color"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	v.checkTitle(input.Title)
	v.checkCond(len(input.Color) <= 32, "color", "must be atmost 32 characters")
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	l := &todoList{
		Title:     input.Title,
		Color:     input.Color,
		CreatedBy: getUserFromRequest(r).ID,
	}
	err = app.storage.todoLists.insert(r.Context(), l)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, l)
}

func (app *application) listTodoListsHandler(w http.ResponseWriter, r *http.Request) {
	v := newValidator()
	p := readPagination(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	lists, err := app.storage.todoLists.list(r.Context(), p)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, lists)
}

func (app *application) readTodoListParam(r *http.Request) (*todoList, error) {
	id, err := readIDParam(r, "id")
	if err != nil {
		return nil, err
	}
	return app.storage.todoLists.getByID(r.Context(), id)
}

func (app *application) getTodoListHandler(w http.ResponseWriter, r *http.Request) {
	l, err := app.readTodoListParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, l)
}

func (app *application) deleteTodoListHandler(w http.ResponseWriter, r *http.Request) {
	l, err := app.readTodoListParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.storage.todoLists.delete(r.Context(), l.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"message": "todo list successfully deleted"})
}

func (app *application) listTodoListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	l, err := app.readTodoListParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	v := newValidator()
	f := readProjectFilter(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	f.TodoListID = l.ID
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

func (app *application) createTodoListProjectHandler(w http.ResponseWriter, r *http.Request) {
	l, err := app.readTodoListParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var input projectInput
	err = readJSON(w, r, &input)
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
	p.TodoListID = &l.ID
	app.insertProject(w, r, p)
}

func (app *application) updateTodoListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	l, err := app.readTodoListParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var patch projectPatch
	err = readJSON(w, r, &patch)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	f := readProjectFilter(r.URL.Query(), v)
	v.checkCond(!patch.empty(), "body", "must contain at least one field")
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	f.TodoListID = l.ID
	f.pagination = pagination{}

	n, err := app.storage.projects.updateMany(r.Context(), f, patch)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, countResponse{Count: n})
}

func (app *application) deleteTodoListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	l, err := app.readTodoListParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	v := newValidator()
	f := readProjectFilter(r.URL.Query(), v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	f.TodoListID = l.ID
	f.pagination = pagination{}

	n, err := app.storage.projects.deleteMany(r.Context(), f)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, countResponse{Count: n})
}
