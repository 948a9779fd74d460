package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/residential-billing-ledger/internal/config"
)

// ErrConnection marks bootstrap failures to reach PostgreSQL. These are not retried.
var ErrConnection = errors.New("database connection failed")

const applicationName = "residential-billing-ledger"

// Querier supports database operations for both pool and transactions
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Transactor runs fn inside a database transaction. Services depend on this rather than
// on *PostgresDB so they can be tested without a database.
type Transactor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Querier = (*pgxpool.Pool)(nil)
var _ Querier = (pgx.Tx)(nil)
var _ Transactor = (*PostgresDB)(nil)

type PostgresDB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresDB opens the pool, checks it answers and brings the schema up to date.
// Failing to reach the server is reported as ErrConnection.
func NewPostgresDB(ctx context.Context, logger *slog.Logger, cfg *config.PostgresConfig) (*PostgresDB, error) {
	poolCfg, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create PostgreSQL connection pool: %w", ErrConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: failed to ping PostgreSQL: %w", ErrConnection, err)
	}

	version, err := MigrateSchema(logger, cfg.URL, cfg.MigrationsPath)
	if err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
		"schema_version", version,
	)
	return &PostgresDB{pool: pool, logger: logger}, nil
}

// newPoolConfig applies pool sizing and session settings on top of the URL. Sessions run
// in UTC so timestamptz values and CURRENT_DATE agree with the rent schedule.
func newPoolConfig(cfg *config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	params := poolCfg.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = applicationName
	}
	params["timezone"] = "UTC"
	return poolCfg, nil
}

func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping backs the readiness probe.
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *PostgresDB) Close() {
	db.pool.Close()
	db.logger.Info("Closed PostgreSQL connection")
}

// ExecuteTx runs function in a transaction, rolling back on error or panic
func (db *PostgresDB) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return executeTx(ctx, db.pool, fn)
}

func executeTx(ctx context.Context, b txBeginner, fn func(tx pgx.Tx) error) (err error) {
	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback(ctx)
		if p := recover(); p != nil {
			panic(p)
		}
		if rbErr != nil && err != nil {
			err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		committed = true
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}
