package main

import (
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

type validator struct {
	errors map[string]string
}

func newValidator() *validator {
	return &validator{
		errors: make(map[string]string),
	}
}

func (v *validator) hasErrors() bool {
	return len(v.errors) != 0
}

func (v *validator) addError(key, msg string) {
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *validator) checkCond(cond bool, key, msg string) {
	if !cond {
		v.addError(key, msg)
	}
}

func permittedValue[T comparable](value T, permitted ...T) bool {
	return slices.Contains(permitted, value)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (v *validator) checkEmail(email string) {
	v.checkCond(email != "", "email", "must be provided")
	v.checkCond(emailRegexp.MatchString(email), "email", "must be a valid email address")
	v.checkCond(len(email) >= 8, "email", "must be atleast 8 characters long")
}

func (v *validator) checkPassword(password string) {
	v.checkCond(password != "", "password", "must be provided")
	v.checkCond(len(password) >= 8, "password", "must be atleast 8 characters long")
	v.checkCond(len(password) <= 72, "password", "must be atmost 72 characters long")
}

func (v *validator) checkName(name string) {
	v.checkCond(len(name) <= 255, "name", "must be atmost 255 characters")
}

func (v *validator) checkTitle(title string) {
	v.checkCond(strings.TrimSpace(title) != "", "title", "must be provided")
	v.checkCond(len(title) <= 500, "title", "must be atmost 500 characters")
}

func (v *validator) checkRole(key string, r role) {
	v.checkCond(r.valid(), key, "must be one of user, admin")
}

func (v *validator) checkStatus(s taskStatus) {
	v.checkCond(s.valid(), "status", "must be one of todo, in progress, coding done")
}

func (v *validator) checkPriority(p taskPriority) {
	v.checkCond(p.valid(), "priority", "must be one of low, medium, high, highest")
}

func (v *validator) checkID(key, id string) {
	_, err := uuid.Parse(id)
	v.checkCond(err == nil, key, "must be a valid id")
}

func (v *validator) checkPagination(p pagination) {
	v.checkCond(p.Page >= 1 && p.Page <= 10_000_000, "page", "must be between 1 and 10000000")
	v.checkCond(p.PageSize >= 0 && p.PageSize <= 100, "page_size", "must be between 0 and 100")
}
