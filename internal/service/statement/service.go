// Package statement implements the statement lifecycle: idempotent
// get-or-create per (account, month), the derived total as an explicit
// recompute-on-write aggregate, window corrections with a bounded
// one-hop cascade into the following month, and the backfill sweep.
package statement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/cycle"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/storage"
	"github.com/tinoosan/billing/internal/views"
)

// Overrides optionally pins dates on a statement being created.
type Overrides struct {
	ClosingDate *time.Time
	DueDate     *time.Time
	StartDate   *time.Time
}

// DateChanges carries corrections applied to an existing statement.
type DateChanges struct {
	ClosingDate *time.Time
	DueDate     *time.Time
	StartDate   *time.Time
}

// Service exposes the statement lifecycle operations.
type Service interface {
	EnsureExists(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth, ov *Overrides) (billing.Statement, error)
	RefreshTotal(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (int64, error)
	UpdateDates(ctx context.Context, userID, statementID uuid.UUID, ch DateChanges) (billing.Statement, error)
	RecalculateInstallmentDates(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) error
	WindowStart(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (time.Time, error)
	Backfill(ctx context.Context, userID uuid.UUID) (int, error)
	Get(ctx context.Context, userID, statementID uuid.UUID) (billing.Statement, error)
	List(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Statement, error)
}

type service struct {
	store storage.Store
	inv   views.Invalidator
	// limiter paces backfill, the only bulk operation in the core.
	limiter *rate.Limiter
}

// BackfillRate caps backfilled statements per second.
const BackfillRate = 50

// New constructs the statement service. burst sizes the backfill
// limiter; values below 1 fall back to 1.
func New(store storage.Store, inv views.Invalidator, burst int) Service {
	if burst < 1 {
		burst = 1
	}
	return &service{
		store:   store,
		inv:     inv,
		limiter: rate.NewLimiter(rate.Limit(BackfillRate), burst),
	}
}

// EnsureExists returns the statement for (account, month), creating it
// when missing. Creation computes the closing date (override or the
// account's configured day) and the due date (override, +7 days from an
// overridden closing date, or the default formula). A concurrent
// creator winning the unique-constraint race is handled by re-reading
// the winner's row.
func (s *service) EnsureExists(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth, ov *Overrides) (billing.Statement, error) {
	if userID == uuid.Nil || accountID == uuid.Nil || ym.IsZero() {
		return billing.Statement{}, errs.ErrInvalid
	}
	st, err := ensure(ctx, s.store, userID, accountID, ym, ov)
	if err != nil {
		return billing.Statement{}, err
	}
	s.inv.Invalidate(userID, views.StatementList)
	return st, nil
}

func ensure(ctx context.Context, q storage.Queries, userID, accountID uuid.UUID, ym billing.YearMonth, ov *Overrides) (billing.Statement, error) {
	if existing, err := q.GetStatement(ctx, userID, accountID, ym); err == nil {
		return existing, nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return billing.Statement{}, err
	}

	acc, err := q.GetAccount(ctx, userID, accountID)
	if err != nil {
		return billing.Statement{}, err
	}
	if !acc.Billed() {
		return billing.Statement{}, errs.ErrInvalidAccount
	}

	closing := cycle.ClosingDate(ym, *acc.ClosingDay)
	due := cycle.DueDate(ym, *acc.PaymentDueDay, *acc.ClosingDay)
	var start *time.Time
	if ov != nil {
		if ov.ClosingDate != nil {
			closing = *ov.ClosingDate
			due = closing.AddDate(0, 0, 7)
		}
		if ov.DueDate != nil {
			due = *ov.DueDate
		}
		start = ov.StartDate
	}

	st := billing.Statement{
		ID:          uuid.New(),
		UserID:      userID,
		AccountID:   accountID,
		YearMonth:   ym,
		ClosingDate: closing,
		StartDate:   start,
		DueDate:     due,
	}
	created, err := q.CreateStatement(ctx, st)
	if errors.Is(err, errs.ErrConflict) {
		// lost the race; the winner's row is the statement
		return q.GetStatement(ctx, userID, accountID, ym)
	}
	if err != nil {
		return billing.Statement{}, err
	}
	return created, nil
}

// RefreshTotal recomputes the statement total from its installments and
// writes the result unconditionally. It is deliberately not
// incremental: recompute-on-write cannot drift after partial failures.
func (s *service) RefreshTotal(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (int64, error) {
	if userID == uuid.Nil || accountID == uuid.Nil || ym.IsZero() {
		return 0, errs.ErrInvalid
	}
	return refreshTotal(ctx, s.store, userID, accountID, ym)
}

func refreshTotal(ctx context.Context, q storage.Queries, userID, accountID uuid.UUID, ym billing.YearMonth) (int64, error) {
	st, err := q.GetStatement(ctx, userID, accountID, ym)
	if err != nil {
		return 0, err
	}
	ins, err := q.ListInstallmentsByStatementMonth(ctx, userID, accountID, ym)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, i := range ins {
		total += i.AmountCents
	}
	st.TotalAmountCents = total
	if _, err := q.UpdateStatement(ctx, st); err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateDates applies date corrections to one statement and cascades:
// this month's installment dates are always recalculated, and when the
// closing date changed the following month is recalculated too, because
// its window start derives from this statement's closing date. The
// cascade is exactly one hop forward.
func (s *service) UpdateDates(ctx context.Context, userID, statementID uuid.UUID, ch DateChanges) (billing.Statement, error) {
	if userID == uuid.Nil || statementID == uuid.Nil {
		return billing.Statement{}, errs.ErrInvalid
	}
	if ch.ClosingDate == nil && ch.DueDate == nil && ch.StartDate == nil {
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

	closingChanged := ch.ClosingDate != nil && !ch.ClosingDate.Equal(st.ClosingDate)
	if ch.ClosingDate != nil {
		st.ClosingDate = *ch.ClosingDate
	}
	if ch.DueDate != nil {
		st.DueDate = *ch.DueDate
	}
	if ch.StartDate != nil {
		st.StartDate = ch.StartDate
	}
	if st, err = tx.UpdateStatement(ctx, st); err != nil {
		return billing.Statement{}, err
	}

	if err := recalcInstallmentDates(ctx, tx, userID, st.AccountID, st.YearMonth); err != nil {
		return billing.Statement{}, err
	}
	if closingChanged {
		next := st.YearMonth.Next()
		if _, err := tx.GetStatement(ctx, userID, st.AccountID, next); err == nil {
			if err := recalcInstallmentDates(ctx, tx, userID, st.AccountID, next); err != nil {
				return billing.Statement{}, err
			}
		} else if !errors.Is(err, errs.ErrNotFound) {
			return billing.Statement{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return billing.Statement{}, errs.PersistenceRetryable(err)
	}
	s.inv.Invalidate(userID, views.StatementList, views.ExpenseList, views.Dashboard)
	return st, nil
}

// RecalculateInstallmentDates rewrites the purchase date of every
// installment in one (account, month) cycle to the resolved window
// start — except installment number 1, whose date is the user-entered
// actual purchase date and stays authoritative.
func (s *service) RecalculateInstallmentDates(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) error {
	if userID == uuid.Nil || accountID == uuid.Nil || ym.IsZero() {
		return errs.ErrInvalid
	}
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return errs.PersistenceRetryable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := recalcInstallmentDates(ctx, tx, userID, accountID, ym); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errs.PersistenceRetryable(err)
	}
	return nil
}

func recalcInstallmentDates(ctx context.Context, q storage.Queries, userID, accountID uuid.UUID, ym billing.YearMonth) error {
	start, err := windowStart(ctx, q, userID, accountID, ym)
	if err != nil {
		return err
	}
	ins, err := q.ListInstallmentsByStatementMonth(ctx, userID, accountID, ym)
	if err != nil {
		return err
	}
	multi := make(map[uuid.UUID]bool)
	for _, i := range ins {
		if i.Number <= 1 {
			continue
		}
		isMulti, ok := multi[i.PurchaseID]
		if !ok {
			p, err := q.GetPurchase(ctx, userID, i.PurchaseID)
			if err != nil {
				return err
			}
			isMulti = p.InstallmentCount > 1
			multi[i.PurchaseID] = isMulti
		}
		if !isMulti {
			continue
		}
		if err := q.UpdateInstallmentPurchaseDate(ctx, userID, i.ID, start); err != nil {
			return err
		}
	}
	return nil
}

// WindowStart resolves the first day of a statement's billing window.
// Three tiers, first match wins: an explicit start-date override on the
// statement, one day after the previous month's statement closing date,
// or the computed default.
func (s *service) WindowStart(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (time.Time, error) {
	if userID == uuid.Nil || accountID == uuid.Nil || ym.IsZero() {
		return time.Time{}, errs.ErrInvalid
	}
	return windowStart(ctx, s.store, userID, accountID, ym)
}

func windowStart(ctx context.Context, q storage.Queries, userID, accountID uuid.UUID, ym billing.YearMonth) (time.Time, error) {
	if st, err := q.GetStatement(ctx, userID, accountID, ym); err == nil && st.StartDate != nil {
		return *st.StartDate, nil
	} else if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return time.Time{}, err
	}
	if prev, err := q.GetStatement(ctx, userID, accountID, ym.Prev()); err == nil {
		return prev.ClosingDate.AddDate(0, 0, 1), nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return time.Time{}, err
	}
	acc, err := q.GetAccount(ctx, userID, accountID)
	if err != nil {
		return time.Time{}, err
	}
	if !acc.Billed() {
		return time.Time{}, errs.ErrInvalidAccount
	}
	return cycle.DefaultWindowStart(ym, *acc.ClosingDay), nil
}

// Backfill creates the missing statement for every (account, month)
// pair present among credit-card installments, refreshing each total.
// Safe to run repeatedly: covered pairs are skipped at the source.
func (s *service) Backfill(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, errs.ErrInvalid
	}
	keys, err := s.store.UncoveredStatementKeys(ctx, userID)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, key := range keys {
		if err := s.limiter.Wait(ctx); err != nil {
			return created, err
		}
		if _, err := ensure(ctx, s.store, userID, key.AccountID, key.YearMonth, nil); err != nil {
			return created, err
		}
		if _, err := refreshTotal(ctx, s.store, userID, key.AccountID, key.YearMonth); err != nil {
			return created, err
		}
		created++
	}
	if created > 0 {
		s.inv.Invalidate(userID, views.StatementList, views.Dashboard)
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, userID, statementID uuid.UUID) (billing.Statement, error) {
	if userID == uuid.Nil || statementID == uuid.Nil {
		return billing.Statement{}, errs.ErrInvalid
	}
	return s.store.GetStatementByID(ctx, userID, statementID)
}

func (s *service) List(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Statement, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.store.ListStatements(ctx, userID, accountID)
}

// Ensure and Refresh are the tx-composable forms used by the purchase
// flow to keep statements consistent with freshly written installments.
func Ensure(ctx context.Context, q storage.Queries, userID, accountID uuid.UUID, ym billing.YearMonth) (billing.Statement, error) {
	return ensure(ctx, q, userID, accountID, ym, nil)
}

func Refresh(ctx context.Context, q storage.Queries, userID, accountID uuid.UUID, ym billing.YearMonth) (int64, error) {
	return refreshTotal(ctx, q, userID, accountID, ym)
}
