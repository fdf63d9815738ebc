// Package storage defines the persistence contract shared by the
// in-memory and postgres backends. Services depend on these interfaces
// only; every multi-row mutation runs through a Tx so partial failures
// roll back as one unit.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
)

// Reader groups all read operations. Every lookup is scoped to the
// owning user; missing or cross-tenant rows surface errs.ErrNotFound.
type Reader interface {
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (billing.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]billing.Account, error)

	GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (billing.Purchase, error)
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]billing.Purchase, error)
	// FindPurchaseByExternalID resolves an imported bank record to an
	// existing purchase, if any.
	FindPurchaseByExternalID(ctx context.Context, userID uuid.UUID, externalID string) (billing.Purchase, bool, error)

	GetInstallment(ctx context.Context, userID, installmentID uuid.UUID) (billing.Installment, error)
	ListInstallmentsByPurchase(ctx context.Context, userID, purchaseID uuid.UUID) ([]billing.Installment, error)
	// ListInstallmentsByStatementMonth returns the installments tagged
	// with one (account, month) billing cycle, ordered by number.
	ListInstallmentsByStatementMonth(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) ([]billing.Installment, error)
	ListInstallmentsByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Installment, error)

	GetStatement(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (billing.Statement, error)
	GetStatementByID(ctx context.Context, userID, statementID uuid.UUID) (billing.Statement, error)
	ListStatements(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Statement, error)
	// UncoveredStatementKeys returns every distinct (account, month) pair
	// present among credit-card installments with no matching statement.
	UncoveredStatementKeys(ctx context.Context, userID uuid.UUID) ([]billing.StatementKey, error)

	ListTransfers(ctx context.Context, userID uuid.UUID) ([]billing.Transfer, error)
	ListTransfersByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Transfer, error)
	// LatestStatementPayment returns the most recent statement_payment
	// transfer recorded against a statement.
	LatestStatementPayment(ctx context.Context, userID, statementID uuid.UUID) (billing.Transfer, bool, error)
}

// Writer groups all write operations.
type Writer interface {
	CreateAccount(ctx context.Context, a billing.Account) (billing.Account, error)
	// UpdateAccountBalance rewrites the derived balance cache.
	UpdateAccountBalance(ctx context.Context, userID, accountID uuid.UUID, balanceCents int64) error

	CreatePurchase(ctx context.Context, p billing.Purchase) (billing.Purchase, error)
	UpdatePurchase(ctx context.Context, p billing.Purchase) (billing.Purchase, error)
	// DeletePurchase removes a purchase and cascades to its installments.
	DeletePurchase(ctx context.Context, userID, purchaseID uuid.UUID) error

	CreateInstallments(ctx context.Context, ins []billing.Installment) error
	DeleteInstallmentsByPurchase(ctx context.Context, userID, purchaseID uuid.UUID) error
	UpdateInstallmentPurchaseDate(ctx context.Context, userID, installmentID uuid.UUID, date time.Time) error
	// SetInstallmentsPaid stamps (or clears, when paidAt is nil) paid-at
	// on every installment of one (account, month) cycle.
	SetInstallmentsPaid(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth, paidAt *time.Time) error

	// CreateStatement inserts a statement row. A second insert for the
	// same (account, month) fails with errs.ErrConflict; the caller reads
	// the winner's row instead.
	CreateStatement(ctx context.Context, st billing.Statement) (billing.Statement, error)
	UpdateStatement(ctx context.Context, st billing.Statement) (billing.Statement, error)

	CreateTransfer(ctx context.Context, t billing.Transfer) (billing.Transfer, error)
}

// Queries is the read/write surface without transaction control,
// satisfied by both Store and Tx. Helpers that must compose inside a
// caller's transaction take Queries.
type Queries interface {
	Reader
	Writer
}

// Tx is one atomic unit of work. Reads inside the Tx observe its own
// writes; Commit publishes everything or nothing.
type Tx interface {
	Reader
	Writer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the full backend contract.
type Store interface {
	Reader
	Writer
	Begin(ctx context.Context) (Tx, error)
}
