package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "pa55word123"

type sentMail struct {
	to       string
	template string
	data     any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) send(to string, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, template: templateFile, data: data})
	return nil
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	var cfg config
	cfg.env = "testing"
	cfg.jwt.secret = "test-secret"
	cfg.jwt.ttl = time.Hour
	cfg.activation.ttl = 15 * time.Minute

	store := newMemoryStorage()
	codes := newMemoryActivationStore(time.Minute)
	t.Cleanup(codes.close)

	return &application{
		config:     cfg,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:    store,
		policy:     policy{members: store.members},
		tokens:     newTokenIssuer(cfg.jwt.secret, cfg.jwt.ttl),
		mailer:     &fakeMailer{},
		activation: codes,
		events:     noopPublisher{},
	}
}

func seedUser(t *testing.T, app *application, email string, r role) *user {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user{
		Name:         email,
		Email:        email,
		PasswordHash: hash,
		Gender:       "Male",
		Role:         r,
		IsActive:     true,
	}
	require.NoError(t, app.storage.users.insert(context.Background(), u))
	return u
}

func seedProject(t *testing.T, app *application, title string) *project {
	t.Helper()
	p := &project{Title: title, IsActive: true}
	require.NoError(t, app.storage.projects.insert(context.Background(), p))
	return p
}

func seedMember(t *testing.T, app *application, p *project, u *user, r role) *projectUser {
	t.Helper()
	pu := &projectUser{ProjectID: p.ID, UserID: u.ID, Role: r}
	require.NoError(t, app.storage.members.insert(context.Background(), pu))
	return pu
}

func seedTask(t *testing.T, app *application, tk *task) *task {
	t.Helper()
	if tk.Priority == "" {
		tk.Priority = priorityLow
	}
	if tk.Status == "" {
		tk.Status = statusTodo
	}
	require.NoError(t, app.storage.tasks.insert(context.Background(), tk))
	return tk
}

// do sends a request through the full route table. A nil actor sends no
// Authorization header.
func do(t *testing.T, app *application, method, path string, body any, actor *user) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewReader(js)
	}
	req := httptest.NewRequest(method, path, buf)
	if actor != nil {
		token, _, err := app.tokens.issue(actor)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func ptr[T any](v T) *T {
	return &v
}
