package postgres

// Package postgres provides a pgx-backed storage implementation of the
// storage contract. Migrations that create the expected schema live
// under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows and running the necessary
// statements/transactions.

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/storage"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so
// every query below runs identically inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store holds a pgx connection pool. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// Begin starts a transaction satisfying storage.Tx.
func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errs.PersistenceRetryable(err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx.Tx behind the storage contract.
type Tx struct{ tx pgx.Tx }

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return mapErr(err)
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// SeedDev inserts a user, a credit card, and a checking account for
// quick local testing.
func (s *Store) SeedDev(ctx context.Context) (billing.User, []billing.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return billing.User{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	user := billing.User{ID: uuid.New()}
	if _, err := tx.Exec(ctx, `insert into users (id, email) values ($1, null)`, user.ID); err != nil {
		return billing.User{}, nil, err
	}
	closing, due := 15, 22
	card := billing.Account{ID: uuid.New(), UserID: user.ID, Name: "Main Card", Kind: billing.AccountCreditCard, Currency: "USD", ClosingDay: &closing, PaymentDueDay: &due}
	checking := billing.Account{ID: uuid.New(), UserID: user.ID, Name: "Checking", Kind: billing.AccountChecking, Currency: "USD"}
	accs := []billing.Account{card, checking}
	for _, a := range accs {
		if _, err := createAccount(ctx, tx, a); err != nil {
			return billing.User{}, nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return billing.User{}, nil, err
	}
	return user, accs, nil
}

// mapErr translates pgx errors into the domain taxonomy. Unique
// violations become ErrConflict; connection-class failures are marked
// retryable so the HTTP layer can answer 503.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return errs.ErrConflict
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			// serialization failure / deadlock
			return errs.PersistenceRetryable(err)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			return errs.PersistenceRetryable(err)
		}
		return errs.Persistence(err)
	}
	return errs.Persistence(err)
}
