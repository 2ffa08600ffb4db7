package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

func composeJSONError(message any) string {
	jsonError := map[string]any{
		"error": message,
	}
	result, err := json.Marshal(jsonError)
	if err != nil {
		return `{"error":"internal server error"}`
	}
	return string(result)
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	writeErrorMessage(w, err.Error(), statusCode)
}

func writeErrorMessage(w http.ResponseWriter, message any, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	fmt.Fprintln(w, composeJSONError(message))
}

func (app *application) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(), "method", r.Method, "uri", r.URL.RequestURI())
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	writeError(w, errors.New("the server encountered a problem and could not process your request"), http.StatusInternalServerError)
}

func failedValidationResponse(w http.ResponseWriter, v *validator) {
	writeErrorMessage(w, v.errors, http.StatusUnprocessableEntity)
}

func badRequestResponse(w http.ResponseWriter, err error) {
	writeError(w, err, http.StatusBadRequest)
}

func notFoundResponse(w http.ResponseWriter) {
	writeError(w, errors.New("the requested resource could not be found"), http.StatusNotFound)
}

func unauthorizedResponse(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, err, http.StatusUnauthorized)
}

// errorResponse writes the status matching a storage or policy error.
// Errors it does not recognise are logged and reported as 500.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errRecordNotFound):
		notFoundResponse(w)
	case errors.Is(err, errEditConflict),
		errors.Is(err, errDuplicateEmail),
		errors.Is(err, errDuplicateTitle),
		errors.Is(err, errDuplicateMember):
		writeError(w, err, http.StatusConflict)
	case errors.Is(err, errForbidden),
		errors.Is(err, errNotMember),
		errors.Is(err, errAdminTasks),
		errors.Is(err, errAdminCreatedTask):
		writeError(w, err, http.StatusForbidden)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
