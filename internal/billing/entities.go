package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/meta"
)

// AccountKind enumerates the supported account instruments.
type AccountKind string

const (
	// AccountCreditCard accrues purchases onto monthly statements.
	AccountCreditCard AccountKind = "credit_card"
	// AccountChecking settles expenses immediately.
	AccountChecking AccountKind = "checking"
	AccountSavings  AccountKind = "savings"
	AccountCash     AccountKind = "cash"
)

// Valid reports whether k is one of the supported kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountCreditCard, AccountChecking, AccountSavings, AccountCash:
		return true
	}
	return false
}

// TransferKind tags how money moved on a Transfer.
type TransferKind string

const (
	TransferInternal         TransferKind = "internal_transfer"
	TransferDeposit          TransferKind = "deposit"
	TransferWithdrawal       TransferKind = "withdrawal"
	TransferStatementPayment TransferKind = "statement_payment"
)

// User captures the owner of billing data. All lookups are scoped by user.
type User struct {
	ID    uuid.UUID
	Email *string
}

// Account represents a money account belonging to a user.
// CurrentBalance is a derived cache maintained by the reconciler; it is
// never the source of truth.
type Account struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Kind     AccountKind
	Currency string
	// ClosingDay and PaymentDueDay configure the billing cycle (1-28).
	// Both are nil for anything that is not a credit card.
	ClosingDay     *int
	PaymentDueDay  *int
	CurrentBalance int64
}

// Billed reports whether the account carries billing-cycle configuration.
func (a Account) Billed() bool {
	return a.Kind == AccountCreditCard && a.ClosingDay != nil && a.PaymentDueDay != nil
}

// Purchase is a user-entered expense. Identity is immutable; editing the
// amount or installment count regenerates its installments wholesale.
type Purchase struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	AccountID        uuid.UUID
	Description      string
	TotalAmountCents int64
	InstallmentCount int
	Category         string
	// ExternalID carries the bank-record id from an import so a reimport
	// of the same record is recognised as a duplicate.
	ExternalID string
	Metadata   meta.Metadata
}

// Installment is one dated obligation of a Purchase on an Account.
// The sum of a purchase's installment amounts equals its total exactly;
// the split absorbs any remainder into the last installment.
type Installment struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	PurchaseID     uuid.UUID
	AccountID      uuid.UUID
	AmountCents    int64
	PurchaseDate   time.Time
	StatementMonth YearMonth
	DueDate        time.Time
	// Number is 1-based. Number 1 carries the user-entered purchase date
	// and is never rewritten by window recalculation.
	Number int
	PaidAt *time.Time
}

// Statement is one monthly billing cycle of a credit-card account.
// TotalAmountCents caches the sum of installments tagged with this
// (account, month); RefreshTotal rewrites it unconditionally.
type Statement struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	AccountID   uuid.UUID
	YearMonth   YearMonth
	ClosingDate time.Time
	// StartDate is an explicit window-start override; nil means derived.
	StartDate         *time.Time
	TotalAmountCents  int64
	DueDate           time.Time
	PaidAt            *time.Time
	PaidFromAccountID *uuid.UUID
}

// Paid reports whether the statement has been settled.
func (s Statement) Paid() bool { return s.PaidAt != nil }

// Transfer records money movement between accounts, or between an
// account and the outside world (nil on one side). History is
// append-only: reversals add a compensating entry instead of mutating.
type Transfer struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	FromAccountID *uuid.UUID
	ToAccountID   *uuid.UUID
	AmountCents   int64
	Date          time.Time
	Kind          TransferKind
	StatementID   *uuid.UUID
	ExternalID    string
	Metadata      meta.Metadata
}

// StatementKey identifies one (account, month) billing cycle.
type StatementKey struct {
	AccountID uuid.UUID
	YearMonth YearMonth
}
