package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alnah/go-textbook"
	"github.com/alnah/go-textbook/internal/auth"
	"github.com/alnah/go-textbook/internal/config"
	"github.com/alnah/go-textbook/internal/hints"
	"github.com/alnah/go-textbook/internal/httpapi"
	"github.com/alnah/go-textbook/internal/logger"
	"github.com/alnah/go-textbook/internal/store"
)

// ErrMigrate wraps schema migration failures.
var ErrMigrate = errors.New("database migration failed")

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// app is a fully wired server and everything it must release.
type app struct {
	server *http.Server
	store  *store.Store
	pool   *textbook.CompilerPool
	log    *logger.Logger
}

func (a *app) Close() error {
	errs := []error{a.pool.Close(), a.store.Close()}
	a.log.Sync()
	return errors.Join(errs...)
}

func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.common.verbose {
		cfg.Log.Mode = "dev"
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", "addr", cfg.Server.Addr, "engine", cfg.PDF.Engine, "workers", a.pool.Size())
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// newApp validates the config and wires logger, store, auth, compiler pool
// and router. It does not start listening.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(strings.ToLower(cfg.Log.Mode), "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("%w%s", err, hints.ForDatabase(cfg.Database.Driver))
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("%w: %w%s", ErrMigrate, err, hints.ForDatabase(cfg.Database.Driver))
	}

	tokens, err := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Std())
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	opts := compilerOptions(cfg)
	if err := checkCompilerOptions(opts); err != nil {
		_ = st.Close()
		return nil, withHint(err, cfg)
	}
	pool := textbook.NewCompilerPool(textbook.ResolvePoolSize(cfg.PDF.Workers), opts...)

	router := httpapi.NewRouter(httpapi.Config{
		Store:       st,
		Tokens:      tokens,
		Compiler:    pool,
		Log:         log,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	return &app{
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		store: st,
		pool:  pool,
		log:   log,
	}, nil
}
