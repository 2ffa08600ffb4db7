package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorResponse(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		err    error
		status int
	}{
		{errRecordNotFound, http.StatusNotFound},
		{fmt.Errorf("load task: %w", errRecordNotFound), http.StatusNotFound},
		{errEditConflict, http.StatusConflict},
		{errDuplicateEmail, http.StatusConflict},
		{errDuplicateTitle, http.StatusConflict},
		{errDuplicateMember, http.StatusConflict},
		{errForbidden, http.StatusForbidden},
		{errNotMember, http.StatusForbidden},
		{errAdminTasks, http.StatusForbidden},
		{errAdminCreatedTask, http.StatusForbidden},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.errorResponse(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestFailedValidationResponse(t *testing.T) {
	v := newValidator()
	v.addError("title", "must be provided")

	rr := httptest.NewRecorder()
	failedValidationResponse(rr, v)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"error":{"title":"must be provided"}}`, rr.Body.String())
}
