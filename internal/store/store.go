package store

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/safar/go-storefront/internal/database"
)

const tracerName = "github.com/safar/go-storefront/internal/store"

// Cache is the read-through cache used for catalog reads. Entries belong to
// a generation; Invalidate starts a new one and nothing written under an
// older generation is read again.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, gen int64, key string, value interface{}) error
	Invalidate(ctx context.Context) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Store struct {
	db     *sql.DB
	cache  Cache
	tracer trace.Tracer
}

type Option func(*Store)

// WithCache enables read-through caching of catalog queries.
func WithCache(c Cache) Option {
	return func(s *Store) {
		s.cache = c
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping runs the database liveness query.
func (s *Store) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.db)
}
