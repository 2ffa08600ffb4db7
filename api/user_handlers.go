package main

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	v := newValidator()
	f := userFilter{pagination: readPagination(r.URL.Query(), v)}
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	users, err := app.storage.users.list(r.Context(), f)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, users)
}

// readUserParam loads the user named by the id path value once the actor is
// allowed to access it.
func (app *application) readUserParam(r *http.Request) (*user, error) {
	id, err := readIDParam(r, "id")
	if err != nil {
		return nil, err
	}
	if err := canAccessUser(getUserFromRequest(r), id); err != nil {
		return nil, err
	}
	return app.storage.users.getByID(r.Context(), id)
}

func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	u, err := app.readUserParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, u)
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	u, err := app.readUserParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var input struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Gender   *string `json:"gender"`
	}
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	v := newValidator()
	if input.Name != nil {
		u.Name = *input.Name
		v.checkName(u.Name)
	}
	if input.Email != nil {
		u.Email = normalizeEmail(*input.Email)
		v.checkEmail(u.Email)
	}
	if input.Password != nil {
		v.checkPassword(*input.Password)
	}
	if input.Gender != nil {
		u.Gender = *input.Gender
		v.checkCond(len(u.Gender) <= 50, "gender", "must be atmost 50 characters")
	}
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	if input.Password != nil {
		u.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
	}

	err = app.storage.users.update(r.Context(), u)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, u)
}

func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	u, err := app.readUserParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	err = app.storage.users.delete(r.Context(), u.ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"message": "user successfully deleted"})
}

func (app *application) updateUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	u, err := app.readUserParam(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var input struct {
		Role role `json:"role"`
	}
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	v := newValidator()
	v.checkRole("role", input.Role)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}

	u.Role = input.Role
	err = app.storage.users.update(r.Context(), u)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, u)
}

func (app *application) listUserTasksHandler(w http.ResponseWriter, r *http.Request) {
	u, err := app.readUserParam(r)
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
	f.UserID = u.ID
	app.writeTasks(w, r, f)
}

func (app *application) createUserTaskHandler(w http.ResponseWriter, r *http.Request) {
	u, err := app.readUserParam(r)
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
	actor := getUserFromRequest(r)
	v := newValidator()
	t := input.toTask(v)
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}
	t.UserID = u.ID
	t.CreatedBy = &actor.ID
	t.IsCreatedByAdmin = actor.isAdmin()
	if t.ProjectID != nil && !actor.isAdmin() {
		err = app.policy.canViewProject(r.Context(), actor, *t.ProjectID)
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}
	}
	app.insertTask(w, r, t)
}

func (app *application) listUserTodosHandler(w http.ResponseWriter, r *http.Request) {
	u, err := app.readUserParam(r)
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
	f.UserID = u.ID
	todos, err := app.storage.todos.list(r.Context(), f)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, todos)
}

func (app *application) createUserTodoHandler(w http.ResponseWriter, r *http.Request) {
	u, err := app.readUserParam(r)
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
	t.UserID = &u.ID
	app.insertTodo(w, r, t)
}
