// Package docstore keeps users, courses, submissions and evaluations in a
// single JSON document behind a storage.KV. Every operation loads the whole
// document, changes it and writes the whole document back.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/observability/metrics"
	"github.com/gistda/internhub/internal/storage"
)

// DefaultKey is the KV key holding the document
const DefaultKey = "internhub:document"

// Document is the persisted aggregate. A nil collection has never been
// written, an empty one has been emptied.
type Document struct {
	Users       []domain.User       `json:"users"`
	Courses     []domain.Course     `json:"courses"`
	Submissions []domain.Submission `json:"submissions"`
	Evaluations []domain.Evaluation `json:"evaluations"`
}

// Config tunes a Store
type Config struct {
	Key string
	// Latency simulates a network round trip on every call
	Latency time.Duration
	// Seed fills absent collections with example data on first access
	Seed bool
	Now  func() time.Time
}

// Store is the local persistence store
type Store struct {
	kv      storage.KV
	key     string
	latency time.Duration
	seed    bool
	now     func() time.Time
	logger  *slog.Logger
	tracer  trace.Tracer

	// serialises load-modify-save within the process
	mu sync.Mutex
}

// New creates a Store over kv
func New(kv storage.KV, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		kv:      kv,
		key:     cfg.Key,
		latency: cfg.Latency,
		seed:    cfg.Seed,
		now:     cfg.Now,
		logger:  logger,
		tracer:  otel.Tracer("github.com/gistda/internhub/internal/docstore"),
	}
}

// view runs fn against the current document without saving it
func (s *Store) view(ctx context.Context, entity, op string, fn func(doc *Document) error) error {
	start := time.Now()
	err := s.run(ctx, func() error {
		doc, err := s.load(ctx)
		if err != nil {
			return err
		}
		return fn(doc)
	})
	metrics.ObserveDocstore(entity, op, resultLabel(err), time.Since(start))
	return err
}

// update runs fn against the current document and saves it when fn succeeds
func (s *Store) update(ctx context.Context, entity, op string, fn func(doc *Document) error) error {
	ctx, span := s.tracer.Start(ctx, "docstore."+op, trace.WithAttributes(
		attribute.String("docstore.entity", entity),
	))
	defer span.End()

	start := time.Now()
	err := s.run(ctx, func() error {
		doc, err := s.load(ctx)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return s.save(ctx, doc)
	})
	metrics.ObserveDocstore(entity, op, resultLabel(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidation) {
			s.logger.Error("docstore operation failed",
				slog.String("entity", entity),
				slog.String("op", op),
				slog.String("error", err.Error()),
			)
		}
	}
	return err
}

func (s *Store) run(ctx context.Context, fn func() error) error {
	if err := s.delay(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) delay(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// load reads the document and seeds absent collections. Caller holds mu.
func (s *Store) load(ctx context.Context) (*Document, error) {
	doc := &Document{}
	fresh := false
	raw, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fresh = true
	case err != nil:
		return nil, fmt.Errorf("failed to load document: %w", err)
	default:
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	}

	if !s.seed {
		return doc, nil
	}
	seeded := false
	if fresh && doc.Users == nil {
		doc.Users = seedUsers()
		seeded = true
	}
	if doc.Courses == nil {
		doc.Courses = seedCourses()
		seeded = true
	}
	if doc.Submissions == nil {
		doc.Submissions = seedSubmissions(s.now())
		seeded = true
	}
	if seeded {
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		s.logger.Info("document seeded", slog.String("key", s.key))
	}
	return doc, nil
}

// save writes the whole document. Caller holds mu.
func (s *Store) save(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Snapshot returns the whole document, seeding it if needed
func (s *Store) Snapshot(ctx context.Context) (Document, error) {
	var out Document
	err := s.view(ctx, "document", "snapshot", func(doc *Document) error {
		out = *doc
		return nil
	})
	return out, err
}

// Reset deletes the document so the next access starts over
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to reset document: %w", err)
	}
	return nil
}

// nextID returns prefix plus the creation time in milliseconds, bumped
// until no record in the collection uses it.
func (s *Store) nextID(prefix string, taken func(id string) bool) string {
	n := s.now().UnixMilli()
	for {
		id := prefix + strconv.FormatInt(n, 10)
		if !taken(id) {
			return id
		}
		n++
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// orEmpty keeps List results non-nil for unseeded collections
func orEmpty[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}
