package main

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("invalid email or password")

func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Gender   string `json:"gender"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	input.Email = normalizeEmail(input.Email)

	v := newValidator()
	v.checkName(input.Name)
	v.checkEmail(input.Email)
	v.checkPassword(input.Password)
	v.checkCond(len(input.Gender) <= 50, "gender", "must be atmost 50 characters")
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	u := &user{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Gender:       input.Gender,
		Role:         roleUser,
	}
	if u.Gender == "" {
		u.Gender = "Male"
	}
	err = app.storage.users.insert(r.Context(), u)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, u)
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	input.Email = normalizeEmail(input.Email)

	v := newValidator()
	v.checkCond(input.Email != "", "email", "must be provided")
	v.checkCond(input.Password != "", "password", "must be provided")
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}

	u, err := app.storage.users.getByEmail(r.Context(), input.Email)
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			unauthorizedResponse(w, errInvalidCredentials)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}
	err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			unauthorizedResponse(w, errInvalidCredentials)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	token, expiresAt, err := app.tokens.issue(u)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	res := struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}{
		Token:     token,
		ExpiresAt: expiresAt,
	}
	app.writeJSON(w, r, http.StatusOK, res)
}

func (app *application) meHandler(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, getUserFromRequest(r))
}

func (app *application) sendActivationCodeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "id")
	if err != nil {
		notFoundResponse(w)
		return
	}
	u, err := app.storage.users.getByID(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if u.IsActive {
		v := newValidator()
		v.addError("user", "is already activated")
		failedValidationResponse(w, v)
		return
	}

	code, err := generateActivationCode()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	ttl := app.config.activation.ttl
	err = app.activation.set(r.Context(), u.ID, code, ttl)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.background(func() {
		data := map[string]any{
			"name":      u.Name,
			"code":      code,
			"expiresIn": ttl.String(),
			"userID":    u.ID,
		}
		if err := app.mailer.send(u.Email, "user_activation.tmpl", data); err != nil {
			app.logger.Error("send activation email failed", "user_id", u.ID, "error", err)
		}
	})

	res := map[string]string{
		"message": "an email will be sent to you containing the activation code",
	}
	app.writeJSON(w, r, http.StatusAccepted, res)
}

func (app *application) activateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "id")
	if err != nil {
		notFoundResponse(w)
		return
	}
	var input struct {
		Code string `json:"code"`
	}
	err = readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	v := newValidator()
	v.checkCond(len(input.Code) == activationCodeLength, "code", "must be 6 digits long")
	if v.hasErrors() {
		failedValidationResponse(w, v)
		return
	}

	u, err := app.storage.users.getByID(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	expected, err := app.activation.get(r.Context(), u.ID)
	if err != nil && !errors.Is(err, errActivationCodeNotFound) {
		app.serverErrorResponse(w, r, err)
		return
	}
	if err != nil || !activationCodesMatch(expected, input.Code) {
		v.addError("code", "invalid or expired activation code")
		failedValidationResponse(w, v)
		return
	}

	u.IsActive = true
	err = app.storage.users.update(r.Context(), u)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if err := app.activation.clear(r.Context(), u.ID); err != nil {
		app.logError(r, err)
	}
	app.writeJSON(w, r, http.StatusOK, u)
}
