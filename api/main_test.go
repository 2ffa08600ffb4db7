package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStorage()

	t.Run("Creates", func(t *testing.T) {
		u, err := createAdmin(ctx, store.users, "Root", " Root@Example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, "root@example.com", u.Email)
		assert.Equal(t, roleAdmin, u.Role)
		assert.True(t, u.IsActive)
		assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(testPassword)))
	})

	t.Run("Promotes", func(t *testing.T) {
		existing := &user{Email: "alice@example.com", PasswordHash: []byte("hash"), Role: roleUser}
		require.NoError(t, store.users.insert(ctx, existing))

		u, err := createAdmin(ctx, store.users, "", "alice@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, u.ID)

		stored, err := store.users.getByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, roleAdmin, stored.Role)
		assert.True(t, stored.IsActive)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := createAdmin(ctx, store.users, "", "new@example.com", "short")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password")
	})
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version, strings.TrimSpace(out.String()))
}

func TestNewApplicationMemory(t *testing.T) {
	var cfg config
	cfg.storage = "memory"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := newApplication(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(app.close)

	assert.NotEmpty(t, app.config.jwt.secret)
	assert.IsType(t, &memoryActivationStore{}, app.activation)
	assert.IsType(t, noopPublisher{}, app.events)
	require.NoError(t, app.storage.ping(context.Background()))

	cfg.storage = "sqlite"
	_, err = newApplication(cfg, logger)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestBackground(t *testing.T) {
	app := newTestApplication(t)
	done := make(chan struct{})
	app.background(func() {
		defer close(done)
		panic("boom")
	})
	<-done
	app.wg.Wait()
}

func TestOneShotCommandsRequirePostgres(t *testing.T) {
	for _, args := range [][]string{
		{"create-admin", "--storage=memory", "--email", "root@example.com"},
		{"migrate", "--storage=memory"},
	} {
		t.Run(args[0], func(t *testing.T) {
			cmd := newRootCommand()
			var stderr bytes.Buffer
			cmd.SetErr(&stderr)
			cmd.SetOut(io.Discard)
			cmd.SetArgs(args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.ErrorContains(t, err, "requires --storage=postgres")
			assert.Contains(t, stderr.String(), `"memory"`)
		})
	}
}
