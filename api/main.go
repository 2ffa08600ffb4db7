package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const version = "1.0.0"

type application struct {
	config     config
	logger     *slog.Logger
	storage    *storage
	policy     policy
	tokens     tokenIssuer
	mailer     mailSender
	activation activationStore
	events     publisher
	wg         sync.WaitGroup
	closers    []func()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfg config
	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Task and project management API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	bindDBFlags(root.PersistentFlags(), &cfg)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	bindServeFlags(serveCmd.Flags(), &cfg)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  "Apply the database schema. Requires --storage=postgres.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePostgres(cfg, cmd.Name()); err != nil {
				return err
			}
			logger := newLogger(cfg)
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			applied, err := migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			logger.Info("database schema applied", "migrations", applied)
			return nil
		},
	}

	var admin struct {
		name     string
		email    string
		password string
	}
	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user, or promote an existing one",
		Long:  "Create an admin user, or promote the user that already owns the email. Requires --storage=postgres.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePostgres(cfg, cmd.Name()); err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			u, err := createAdmin(cmd.Context(), newPostgresStorage(db).users, admin.name, admin.email, admin.password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (%s) ready\n", u.Email, u.ID)
			return nil
		},
	}
	createAdminCmd.Flags().StringVar(&admin.name, "name", "", "Admin name")
	createAdminCmd.Flags().StringVar(&admin.email, "email", "", "Admin email")
	createAdminCmd.Flags().StringVar(&admin.password, "password", os.Getenv("ADMIN_PASSWORD"), "Admin password")
	createAdminCmd.MarkFlagRequired("email")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serveCmd, migrateCmd, createAdminCmd, versionCmd)
	return root
}

// requirePostgres rejects one-shot commands that would otherwise write to a
// backend that does not outlive the process.
func requirePostgres(cfg config, command string) error {
	if cfg.storage != "postgres" {
		return fmt.Errorf("%s requires --storage=postgres, got %q", command, cfg.storage)
	}
	return nil
}

func newLogger(cfg config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.env == "development" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// createAdmin creates an admin account, or promotes the account that already
// uses the email.
func createAdmin(ctx context.Context, users userStore, name, email, password string) (*user, error) {
	email = normalizeEmail(email)
	u, err := users.getByEmail(ctx, email)
	switch {
	case err == nil:
		u.Role = roleAdmin
		u.IsActive = true
		return u, users.update(ctx, u)
	case !errors.Is(err, errRecordNotFound):
		return nil, err
	}

	v := newValidator()
	v.checkEmail(email)
	v.checkPassword(password)
	v.checkName(name)
	if v.hasErrors() {
		var problems []string
		for k, msg := range v.errors {
			problems = append(problems, k+" "+msg)
		}
		return nil, errors.New(strings.Join(problems, "; "))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u = &user{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Gender:       "Male",
		Role:         roleAdmin,
		IsActive:     true,
	}
	return u, users.insert(ctx, u)
}

func newApplication(cfg config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		mailer: newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		events: noopPublisher{},
	}

	switch cfg.storage {
	case "memory":
		app.storage = newMemoryStorage()
		logger.Warn("using in-memory storage, data is lost on exit")
	case "postgres":
		db, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("established a connection with database")
		if cfg.autoMigrate {
			if _, err := migrate(context.Background(), db); err != nil {
				db.Close()
				return nil, err
			}
		}
		app.storage = newPostgresStorage(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.storage)
	}
	app.closers = append(app.closers, func() { app.storage.close() })
	app.policy = policy{members: app.storage.members}

	if cfg.jwt.secret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		app.config.jwt.secret = hex.EncodeToString(secret)
		logger.Warn("no JWT secret configured, tokens will not survive a restart")
	}
	app.tokens = newTokenIssuer(app.config.jwt.secret, cfg.jwt.ttl)

	if cfg.redis.url != "" {
		store, err := newRedisActivationStore(cfg.redis.url)
		if err != nil {
			app.close()
			return nil, err
		}
		app.activation = store
		app.closers = append(app.closers, func() { store.client.Close() })
	} else {
		store := newMemoryActivationStore(time.Minute)
		app.activation = store
		app.closers = append(app.closers, store.close)
	}

	if cfg.nats.url != "" {
		p, err := newNatsPublisher(cfg.nats.url)
		if err != nil {
			app.close()
			return nil, err
		}
		app.events = p
		app.closers = append(app.closers, p.close)
	}
	return app, nil
}

func (app *application) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
}

// background runs fn in a goroutine that shutdown waits for.
func (app *application) background(fn func()) {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				app.logger.Error(fmt.Sprintf("%v", err))
			}
		}()
		fn()
	}()
}

func serve(ctx context.Context, cfg config) error {
	logger := newLogger(cfg)
	app, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", "env", cfg.env, "port", cfg.port)
	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	app.wg.Wait()
	logger.Info("stopped server")
	return nil
}
