package main

import (
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /v1/auth/signup", app.signupHandler)
	mux.HandleFunc("POST /v1/auth/login", app.loginHandler)
	mux.HandleFunc("GET /v1/auth/me", app.requireAuthenticatedUser(app.meHandler))
	mux.HandleFunc("POST /v1/users/{id}/activate", app.sendActivationCodeHandler)
	mux.HandleFunc("PUT /v1/users/{id}/activate", app.activateUserHandler)

	mux.HandleFunc("GET /v1/users", app.requireAdmin(app.listUsersHandler))
	mux.HandleFunc("GET /v1/users/{id}", app.requireActivatedUser(app.getUserHandler))
	mux.HandleFunc("PATCH /v1/users/{id}", app.requireActivatedUser(app.updateUserHandler))
	mux.HandleFunc("DELETE /v1/users/{id}", app.requireActivatedUser(app.deleteUserHandler))
	mux.HandleFunc("PUT /v1/users/{id}/role", app.requireAdmin(app.updateUserRoleHandler))
	mux.HandleFunc("GET /v1/users/{id}/tasks", app.requireActivatedUser(app.listUserTasksHandler))
	mux.HandleFunc("POST /v1/users/{id}/tasks", app.requireActivatedUser(app.createUserTaskHandler))
	mux.HandleFunc("GET /v1/users/{id}/todos", app.requireActivatedUser(app.listUserTodosHandler))
	mux.HandleFunc("POST /v1/users/{id}/todos", app.requireActivatedUser(app.createUserTodoHandler))

	mux.HandleFunc("POST /v1/projects", app.requireAdmin(app.createProjectHandler))
	mux.HandleFunc("GET /v1/projects", app.requireActivatedUser(app.listProjectsHandler))
	mux.HandleFunc("GET /v1/projects/{id}", app.requireActivatedUser(app.getProjectHandler))
	mux.HandleFunc("PATCH /v1/projects/{id}", app.requireActivatedUser(app.updateProjectHandler))
	mux.HandleFunc("DELETE /v1/projects/{id}", app.requireAdmin(app.deleteProjectHandler))
	mux.HandleFunc("GET /v1/projects/{id}/project-users", app.requireActivatedUser(app.listProjectUsersHandler))
	mux.HandleFunc("POST /v1/projects/{id}/project-users", app.requireActivatedUser(app.addProjectUserHandler))
	mux.HandleFunc("DELETE /v1/projects/{id}/project-users/{userId}", app.requireActivatedUser(app.removeProjectUserHandler))
	mux.HandleFunc("GET /v1/projects/{id}/tasks", app.requireActivatedUser(app.listProjectTasksHandler))
	mux.HandleFunc("GET /v1/projects/{id}/todos", app.requireActivatedUser(app.listProjectTodosHandler))
	mux.HandleFunc("POST /v1/projects/{id}/todos", app.requireActivatedUser(app.createProjectTodoHandler))
	mux.HandleFunc("PATCH /v1/projects/{id}/todos", app.requireActivatedUser(app.updateProjectTodosHandler))
	mux.HandleFunc("DELETE /v1/projects/{id}/todos", app.requireActivatedUser(app.deleteProjectTodosHandler))
	mux.HandleFunc("GET /v1/projects/{id}/todo-list", app.requireActivatedUser(app.getProjectTodoListHandler))

	mux.HandleFunc("POST /v1/project-users/{id}/tasks", app.requireActivatedUser(app.createMemberTaskHandler))
	mux.HandleFunc("GET /v1/project-users/{id}/tasks", app.requireActivatedUser(app.listMemberTasksHandler))

	mux.HandleFunc("POST /v1/tasks", app.requireActivatedUser(app.createTaskHandler))
	mux.HandleFunc("GET /v1/tasks", app.requireActivatedUser(app.listTasksHandler))
	mux.HandleFunc("POST /v1/tasks/link", app.requireActivatedUser(app.linkTaskHandler))
	mux.HandleFunc("GET /v1/tasks/projects/{projectId}/users/{userId}", app.requireActivatedUser(app.listProjectUserTasksHandler))
	mux.HandleFunc("GET /v1/tasks/{id}", app.requireActivatedUser(app.getTaskHandler))
	mux.HandleFunc("PATCH /v1/tasks/{id}", app.requireActivatedUser(app.updateTaskHandler))
	mux.HandleFunc("DELETE /v1/tasks/{id}", app.requireActivatedUser(app.deleteTaskHandler))
	mux.HandleFunc("GET /v1/tasks/{id}/tasks", app.requireActivatedUser(app.listSubtasksHandler))
	mux.HandleFunc("DELETE /v1/tasks/{id}/tasks", app.requireActivatedUser(app.deleteSubtasksHandler))

	mux.HandleFunc("GET /v1/todos/{id}", app.requireActivatedUser(app.getTodoHandler))
	mux.HandleFunc("PATCH /v1/todos/{id}", app.requireActivatedUser(app.updateTodoHandler))
	mux.HandleFunc("DELETE /v1/todos/{id}", app.requireActivatedUser(app.deleteTodoHandler))
	mux.HandleFunc("GET /v1/todos/{id}/todo", app.requireActivatedUser(app.getParentTodoHandler))

	mux.HandleFunc("POST /v1/todo-lists", app.requireAdmin(app.createTodoListHandler))
	mux.HandleFunc("GET /v1/todo-lists", app.requireActivatedUser(app.listTodoListsHandler))
	mux.HandleFunc("GET /v1/todo-lists/{id}", app.requireActivatedUser(app.getTodoListHandler))
	mux.HandleFunc("DELETE /v1/todo-lists/{id}", app.requireAdmin(app.deleteTodoListHandler))
	mux.HandleFunc("GET /v1/todo-lists/{id}/projects", app.requireActivatedUser(app.listTodoListProjectsHandler))
	mux.HandleFunc("POST /v1/todo-lists/{id}/projects", app.requireAdmin(app.createTodoListProjectHandler))
	mux.HandleFunc("PATCH /v1/todo-lists/{id}/projects", app.requireAdmin(app.updateTodoListProjectsHandler))
	mux.HandleFunc("DELETE /v1/todo-lists/{id}/projects", app.requireAdmin(app.deleteTodoListProjectsHandler))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.rateLimit(mux))))
}
