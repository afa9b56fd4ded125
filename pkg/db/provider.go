package db

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Provider owns the connection pool for one configured backend and yields
// unit-of-work sessions. Safe for concurrent use; sessions themselves are
// never shared across units of work.
type Provider struct {
	db  *gorm.DB
	cfg Config
}

// Open validates cfg, connects to the selected backend, and sizes the
// pool. The embedded-file engine gets single-writer settings; the
// client/server engine gets the derived pool size plus overflow. An
// unsupported backend fails here, at startup.
func Open(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.Backend {
	case BackendSQLite:
		dialector = sqlite.Open(cfg.DSN())
	case BackendPostgres:
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackendUnknown, cfg.Backend)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newStatementLogger(cfg.verbose()),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrapping connection pool: %w", err)
	}

	switch cfg.Backend {
	case BackendSQLite:
		// Single connection keeps the file engine single-writer.
		sqlDB.SetMaxOpenConns(1)
	case BackendPostgres:
		pool := cfg.EffectivePoolSize()
		sqlDB.SetMaxOpenConns(pool + cfg.MaxOverflow)
		sqlDB.SetMaxIdleConns(pool)
	}

	return &Provider{db: gdb, cfg: cfg}, nil
}

// Session yields a fresh unit-of-work handle bound to ctx. Callers obtain
// one session per logical operation and pass it into every CRUD engine
// call for that operation; sessions must not be shared across concurrent
// units of work.
func (p *Provider) Session(ctx context.Context) *gorm.DB {
	return p.db.Session(&gorm.Session{Context: ctx, NewDB: true})
}

// WithSession runs fn inside a transaction-scoped session. The session is
// released on every exit path: fn returning an error, or panicking, rolls
// back any uncommitted work; returning nil commits.
func (p *Provider) WithSession(ctx context.Context, fn func(sess *gorm.DB) error) error {
	return p.Session(ctx).Transaction(fn)
}

// Ping verifies the backend is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates storage tables for the given entity
// types. Schema evolution is an out-of-band operator action; this is the
// hook the CLI uses.
func (p *Provider) AutoMigrate(entities ...any) error {
	return p.db.AutoMigrate(entities...)
}

// Close releases the connection pool.
func (p *Provider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
