// Package payment implements the payment ledger: settling a statement
// from a funding account, reversing a settlement with a compensating
// transfer, and converting a one-off credit-card expense into an
// immediate expense on another account. Each operation is one atomic
// transaction that re-checks its preconditions on the rows it is about
// to mutate and reconciles every touched balance before committing.
package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/meta"
	"github.com/tinoosan/billing/internal/reconcile"
	"github.com/tinoosan/billing/internal/storage"
	"github.com/tinoosan/billing/internal/views"
)

// Service exposes the payment-ledger operations.
type Service interface {
	Pay(ctx context.Context, userID, statementID, fromAccountID uuid.UUID, paidAt time.Time) (billing.Statement, error)
	Unpay(ctx context.Context, userID, statementID uuid.UUID) (billing.Statement, error)
	Convert(ctx context.Context, userID, installmentID, statementID uuid.UUID) (billing.Transfer, error)
}

type service struct {
	store storage.Store
	rec   *reconcile.Reconciler
	inv   views.Invalidator
}

func New(store storage.Store, rec *reconcile.Reconciler, inv views.Invalidator) Service {
	return &service{store: store, rec: rec, inv: inv}
}

// Pay settles a statement from a funding account. Inside the
// transaction the statement is re-read and checked unpaid, so two
// concurrent payments cannot both apply. The settlement stamps the
// statement, stamps every installment in its cycle, records a
// statement_payment transfer, and reconciles both accounts.
func (s *service) Pay(ctx context.Context, userID, statementID, fromAccountID uuid.UUID, paidAt time.Time) (billing.Statement, error) {
	if userID == uuid.Nil || statementID == uuid.Nil || fromAccountID == uuid.Nil || paidAt.IsZero() {
		return billing.Statement{}, errs.ErrInvalid
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return billing.Statement{}, errs.PersistenceRetryable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	st, err := tx.GetStatementByID(ctx, userID, statementID)
	if err != nil {
		return billing.Statement{}, err
	}
	if st.Paid() {
		return billing.Statement{}, errs.ErrAlreadyPaid
	}

	from, err := tx.GetAccount(ctx, userID, fromAccountID)
	if err != nil {
		return billing.Statement{}, err
	}
	if from.Kind == billing.AccountCreditCard {
		return billing.Statement{}, errs.ErrInvalidAccount
	}

	st.PaidAt = &paidAt
	st.PaidFromAccountID = &fromAccountID
	if st, err = tx.UpdateStatement(ctx, st); err != nil {
		return billing.Statement{}, err
	}
	if err := tx.SetInstallmentsPaid(ctx, userID, st.AccountID, st.YearMonth, &paidAt); err != nil {
		return billing.Statement{}, err
	}

	card := st.AccountID
	if _, err := tx.CreateTransfer(ctx, billing.Transfer{
		ID:            uuid.New(),
		UserID:        userID,
		FromAccountID: &fromAccountID,
		ToAccountID:   &card,
		AmountCents:   st.TotalAmountCents,
		Date:          paidAt,
		Kind:          billing.TransferStatementPayment,
		StatementID:   &st.ID,
	}); err != nil {
		return billing.Statement{}, err
	}

	if err := s.rec.Reconcile(ctx, tx, userID, fromAccountID); err != nil {
		return billing.Statement{}, err
	}
	if err := s.rec.Reconcile(ctx, tx, userID, st.AccountID); err != nil {
		return billing.Statement{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return billing.Statement{}, errs.PersistenceRetryable(err)
	}

	s.inv.Invalidate(userID, views.StatementList, views.TransferList, views.AccountList, views.Dashboard)
	return st, nil
}

// Unpay reverses a settlement. The payment transfer is never deleted;
// a compensating internal_transfer in the opposite direction is
// appended and linked back via metadata, keeping the ledger append-only.
func (s *service) Unpay(ctx context.Context, userID, statementID uuid.UUID) (billing.Statement, error) {
	if userID == uuid.Nil || statementID == uuid.Nil {
		return billing.Statement{}, errs.ErrInvalid
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return billing.Statement{}, errs.PersistenceRetryable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	st, err := tx.GetStatementByID(ctx, userID, statementID)
	if err != nil {
		return billing.Statement{}, err
	}

	// unpaying an unpaid statement is a harmless no-op; only an actual
	// settlement gets a compensating entry
	orig, ok, err := tx.LatestStatementPayment(ctx, userID, st.ID)
	if err != nil {
		return billing.Statement{}, err
	}
	if ok && st.Paid() {
		md := meta.Metadata{}
		md.Set(meta.KeyReverses, orig.ID.String())
		if _, err := tx.CreateTransfer(ctx, billing.Transfer{
			ID:            uuid.New(),
			UserID:        userID,
			FromAccountID: orig.ToAccountID,
			ToAccountID:   orig.FromAccountID,
			AmountCents:   orig.AmountCents,
			Date:          time.Now().UTC(),
			Kind:          billing.TransferInternal,
			StatementID:   &st.ID,
			Metadata:      md,
		}); err != nil {
			return billing.Statement{}, err
		}
	}

	payer := st.PaidFromAccountID
	st.PaidAt = nil
	st.PaidFromAccountID = nil
	if st, err = tx.UpdateStatement(ctx, st); err != nil {
		return billing.Statement{}, err
	}
	if err := tx.SetInstallmentsPaid(ctx, userID, st.AccountID, st.YearMonth, nil); err != nil {
		return billing.Statement{}, err
	}

	if payer != nil {
		if err := s.rec.Reconcile(ctx, tx, userID, *payer); err != nil {
			return billing.Statement{}, err
		}
	}
	if err := s.rec.Reconcile(ctx, tx, userID, st.AccountID); err != nil {
		return billing.Statement{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return billing.Statement{}, errs.PersistenceRetryable(err)
	}

	s.inv.Invalidate(userID, views.StatementList, views.TransferList, views.AccountList, views.Dashboard)
	return st, nil
}

// Convert reinterprets an already-recorded cash/checking expense as
// the payment of a credit-card statement. The expense must be a one-off
// purchase on a non-credit account, the statement must still be unpaid,
// and the installment amount must equal the statement total exactly.
// The original purchase is deleted and replaced by a statement_payment
// transfer dated on the expense; the purchase's external id carries
// over so a reimport of the same bank record is seen as a duplicate.
func (s *service) Convert(ctx context.Context, userID, installmentID, statementID uuid.UUID) (billing.Transfer, error) {
	if userID == uuid.Nil || installmentID == uuid.Nil || statementID == uuid.Nil {
		return billing.Transfer{}, errs.ErrInvalid
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return billing.Transfer{}, errs.PersistenceRetryable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ins, err := tx.GetInstallment(ctx, userID, installmentID)
	if err != nil {
		return billing.Transfer{}, err
	}
	p, err := tx.GetPurchase(ctx, userID, ins.PurchaseID)
	if err != nil {
		return billing.Transfer{}, err
	}
	if p.InstallmentCount != 1 {
		return billing.Transfer{}, errs.ErrInvalidConversion
	}
	source, err := tx.GetAccount(ctx, userID, ins.AccountID)
	if err != nil {
		return billing.Transfer{}, err
	}
	if source.Kind == billing.AccountCreditCard {
		return billing.Transfer{}, errs.ErrInvalidConversion
	}

	st, err := tx.GetStatementByID(ctx, userID, statementID)
	if err != nil {
		return billing.Transfer{}, err
	}
	if st.Paid() {
		return billing.Transfer{}, errs.ErrAlreadyPaid
	}
	if ins.AmountCents != st.TotalAmountCents {
		return billing.Transfer{}, errs.ErrAmountMismatch
	}

	paidAt := ins.PurchaseDate
	card := st.AccountID
	md := p.Metadata.Clone()
	md.Set(meta.KeyNote, p.Description)
	tr, err := tx.CreateTransfer(ctx, billing.Transfer{
		ID:            uuid.New(),
		UserID:        userID,
		FromAccountID: &ins.AccountID,
		ToAccountID:   &card,
		AmountCents:   ins.AmountCents,
		Date:          paidAt,
		Kind:          billing.TransferStatementPayment,
		StatementID:   &st.ID,
		ExternalID:    p.ExternalID,
		Metadata:      md,
	})
	if err != nil {
		return billing.Transfer{}, err
	}

	st.PaidAt = &paidAt
	st.PaidFromAccountID = &ins.AccountID
	if _, err := tx.UpdateStatement(ctx, st); err != nil {
		return billing.Transfer{}, err
	}
	if err := tx.SetInstallmentsPaid(ctx, userID, st.AccountID, st.YearMonth, &paidAt); err != nil {
		return billing.Transfer{}, err
	}
	// the converted expense is replaced by the transfer above
	if err := tx.DeletePurchase(ctx, userID, p.ID); err != nil {
		return billing.Transfer{}, err
	}

	if err := s.rec.Reconcile(ctx, tx, userID, ins.AccountID); err != nil {
		return billing.Transfer{}, err
	}
	if err := s.rec.Reconcile(ctx, tx, userID, st.AccountID); err != nil {
		return billing.Transfer{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return billing.Transfer{}, errs.PersistenceRetryable(err)
	}

	s.inv.Invalidate(userID, views.ExpenseList, views.StatementList, views.TransferList, views.AccountList, views.Dashboard)
	return tr, nil
}
