package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gistda/internhub/internal/client"
	"github.com/gistda/internhub/internal/docstore"
	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/featureflags"
	"github.com/gistda/internhub/internal/infrastructure/backend"
	"github.com/gistda/internhub/internal/storage"
	"github.com/gistda/internhub/pkg/config"
)

// source is the part of the data API that the remote client and the local
// document store both provide
type source interface {
	Login(ctx context.Context, email, password string) (domain.LoginResult, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
	ListSubmissions(ctx context.Context) ([]domain.Submission, error)
	ListEvaluations(ctx context.Context) ([]domain.Evaluation, error)
}

var (
	_ source = (*client.APIClient)(nil)
	_ source = (*docstore.Store)(nil)
)

type env struct {
	cfg    *config.Config
	log    *slog.Logger
	api    *client.APIClient
	local  *docstore.Store
	closer func() error
}

func newEnv(cfg *config.Config, log *slog.Logger) *env {
	api := client.New(client.Config{BaseURL: cfg.APIURL}, log)
	api.SetToken(loadToken())
	return &env{cfg: cfg, log: log, api: api}
}

// forceLocal skips the remote service entirely
func forceLocal() bool {
	v := strings.ToLower(os.Getenv("INTERNHUB_LOCAL"))
	return v != "" && v != "0" && v != "false"
}

// openLocal opens the document store the CLI falls back to. An in-memory
// backend would forget everything between runs, so it becomes a file store.
func (e *env) openLocal(ctx context.Context) (*docstore.Store, error) {
	if e.local != nil {
		return e.local, nil
	}
	cfg := *e.cfg
	if cfg.StorageBackend == config.BackendMemory {
		cfg.StorageBackend = config.BackendFile
	}
	b, err := backend.Open(ctx, &cfg, e.log)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	e.closer = b.Close
	e.local = docstore.New(storage.Prefixed(b.KV, "data:"), docstore.Config{
		Key:  cfg.DocumentKey,
		Seed: featureflags.EnabledOr(featureflags.SeedData, true),
	}, e.log)
	return e.local, nil
}

// run calls fn against the remote service, retrying against the local
// store when the service cannot be reached
func (e *env) run(ctx context.Context, fn func(source) error) error {
	if !forceLocal() {
		err := fn(e.api)
		if err == nil || !client.Unreachable(err) {
			return err
		}
		e.log.Warn("remote api unreachable, using local store",
			slog.String("api", e.cfg.APIURL),
			slog.String("error", err.Error()),
		)
	}
	local, err := e.openLocal(ctx)
	if err != nil {
		return err
	}
	return fn(local)
}

// remoteOnly fails with a clear message for commands that need the server
func (e *env) remoteOnly(err error) error {
	if err != nil && client.Unreachable(err) {
		return fmt.Errorf("%s is unreachable and this command has no local fallback: %w", e.cfg.APIURL, err)
	}
	return err
}

func (e *env) Close() {
	if e.closer != nil {
		if err := e.closer(); err != nil {
			e.log.Warn("close local store", slog.String("error", err.Error()))
		}
	}
}

func tokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".internhub", "token")
	}
	return filepath.Join(home, ".internhub", "token")
}

func saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(tokenFile()), 0o700); err != nil {
		return err
	}
	return os.WriteFile(tokenFile(), []byte(token), 0o600)
}

func loadToken() string {
	data, err := os.ReadFile(tokenFile())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func clearToken() error {
	if err := os.Remove(tokenFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
