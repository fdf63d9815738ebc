// Package purchase implements expense intake: creating purchases with
// their installment plans, wholesale regeneration on edit, deletion,
// and import deduplication by external id.
package purchase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/meta"
	"github.com/tinoosan/billing/internal/reconcile"
	"github.com/tinoosan/billing/internal/service/statement"
	"github.com/tinoosan/billing/internal/slug"
	"github.com/tinoosan/billing/internal/split"
	"github.com/tinoosan/billing/internal/storage"
	"github.com/tinoosan/billing/internal/views"
)

// CreateInput carries a new expense. Category is slugified before
// storage; ExternalID is the bank-record id of an import, empty for
// manual entry.
type CreateInput struct {
	AccountID        uuid.UUID
	Description      string
	TotalAmountCents int64
	InstallmentCount int
	PurchaseDate     time.Time
	Category         string
	ExternalID       string
	Metadata         meta.Metadata
}

// UpdateInput carries edits to an existing purchase. Nil fields keep
// their current value. Any change to amount, count, or date regenerates
// the installment plan wholesale.
type UpdateInput struct {
	Description      *string
	TotalAmountCents *int64
	InstallmentCount *int
	PurchaseDate     *time.Time
	Category         *string
	Metadata         meta.Metadata
}

// Service exposes the purchase operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateInput) (billing.Purchase, []billing.Installment, error)
	Update(ctx context.Context, userID, purchaseID uuid.UUID, in UpdateInput) (billing.Purchase, error)
	Delete(ctx context.Context, userID, purchaseID uuid.UUID) error
	Get(ctx context.Context, userID, purchaseID uuid.UUID) (billing.Purchase, []billing.Installment, error)
	List(ctx context.Context, userID uuid.UUID) ([]billing.Purchase, error)
}

type service struct {
	store storage.Store
	rec   *reconcile.Reconciler
	inv   views.Invalidator
}

func New(store storage.Store, rec *reconcile.Reconciler, inv views.Invalidator) Service {
	return &service{store: store, rec: rec, inv: inv}
}

// Create validates the input, splits the total into installments, and
// writes purchase plus installments in one transaction. Statements for
// every affected month are then ensured and their totals refreshed.
// When ExternalID matches an existing purchase the existing one is
// returned untouched, so reimports are idempotent.
func (s *service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (billing.Purchase, []billing.Installment, error) {
	if userID == uuid.Nil || in.AccountID == uuid.Nil || in.Description == "" ||
		in.TotalAmountCents <= 0 || in.InstallmentCount < 1 || in.PurchaseDate.IsZero() {
		return billing.Purchase{}, nil, errs.ErrInvalid
	}
	if err := in.Metadata.Validate(); err != nil {
		return billing.Purchase{}, nil, err
	}

	if in.ExternalID != "" {
		existing, ok, err := s.store.FindPurchaseByExternalID(ctx, userID, in.ExternalID)
		if err != nil {
			return billing.Purchase{}, nil, err
		}
		if ok {
			ins, err := s.store.ListInstallmentsByPurchase(ctx, userID, existing.ID)
			if err != nil {
				return billing.Purchase{}, nil, err
			}
			return existing, ins, nil
		}
	}

	category := in.Category
	if category != "" && !slug.IsSlug(category) {
		category = slug.Slugify(category)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return billing.Purchase{}, nil, errs.PersistenceRetryable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	acc, err := tx.GetAccount(ctx, userID, in.AccountID)
	if err != nil {
		return billing.Purchase{}, nil, err
	}

	p := billing.Purchase{
		ID:               uuid.New(),
		UserID:           userID,
		AccountID:        in.AccountID,
		Description:      in.Description,
		TotalAmountCents: in.TotalAmountCents,
		InstallmentCount: in.InstallmentCount,
		Category:         category,
		ExternalID:       in.ExternalID,
		Metadata:         in.Metadata.Clone(),
	}
	if p, err = tx.CreatePurchase(ctx, p); err != nil {
		return billing.Purchase{}, nil, err
	}

	ins, err := split.Split(in.TotalAmountCents, in.InstallmentCount, in.PurchaseDate, acc)
	if err != nil {
		return billing.Purchase{}, nil, err
	}
	for i := range ins {
		ins[i].PurchaseID = p.ID
	}
	if err := tx.CreateInstallments(ctx, ins); err != nil {
		return billing.Purchase{}, nil, err
	}

	if acc.Billed() {
		for _, ym := range affectedMonths(ins) {
			if _, err := statement.Ensure(ctx, tx, userID, acc.ID, ym); err != nil {
				return billing.Purchase{}, nil, err
			}
			if _, err := statement.Refresh(ctx, tx, userID, acc.ID, ym); err != nil {
				return billing.Purchase{}, nil, err
			}
		}
	}
	if err := s.rec.Reconcile(ctx, tx, userID, acc.ID); err != nil {
		return billing.Purchase{}, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return billing.Purchase{}, nil, errs.PersistenceRetryable(err)
	}

	s.inv.Invalidate(userID, views.ExpenseList, views.StatementList, views.AccountList, views.Dashboard)
	return p, ins, nil
}

// Update edits a purchase. Financial edits regenerate the installment
// plan wholesale from the (possibly overridden) base date; the base
// date defaults to the existing first installment's purchase date, the
// user-entered anchor that window recalculation never rewrites.
func (s *service) Update(ctx context.Context, userID, purchaseID uuid.UUID, in UpdateInput) (billing.Purchase, error) {
	if userID == uuid.Nil || purchaseID == uuid.Nil {
		return billing.Purchase{}, errs.ErrInvalid
	}
	if in.TotalAmountCents != nil && *in.TotalAmountCents <= 0 {
		return billing.Purchase{}, errs.ErrInvalid
	}
	if in.InstallmentCount != nil && *in.InstallmentCount < 1 {
		return billing.Purchase{}, errs.ErrInvalid
	}
	if err := in.Metadata.Validate(); err != nil {
		return billing.Purchase{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return billing.Purchase{}, errs.PersistenceRetryable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := tx.GetPurchase(ctx, userID, purchaseID)
	if err != nil {
		return billing.Purchase{}, err
	}
	old, err := tx.ListInstallmentsByPurchase(ctx, userID, purchaseID)
	if err != nil {
		return billing.Purchase{}, err
	}

	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		c := *in.Category
		if c != "" && !slug.IsSlug(c) {
			c = slug.Slugify(c)
		}
		p.Category = c
	}
	if in.Metadata != nil {
		p.Metadata = in.Metadata.Clone()
	}

	regenerate := in.TotalAmountCents != nil || in.InstallmentCount != nil || in.PurchaseDate != nil
	if in.TotalAmountCents != nil {
		p.TotalAmountCents = *in.TotalAmountCents
	}
	if in.InstallmentCount != nil {
		p.InstallmentCount = *in.InstallmentCount
	}
	if p, err = tx.UpdatePurchase(ctx, p); err != nil {
		return billing.Purchase{}, err
	}

	acc, err := tx.GetAccount(ctx, userID, p.AccountID)
	if err != nil {
		return billing.Purchase{}, err
	}

	if regenerate {
		base := in.PurchaseDate
		if base == nil {
			for _, i := range old {
				if i.Number == 1 {
					d := i.PurchaseDate
					base = &d
					break
				}
			}
		}
		if base == nil {
			return billing.Purchase{}, errs.ErrInvalid
		}
		if err := tx.DeleteInstallmentsByPurchase(ctx, userID, purchaseID); err != nil {
			return billing.Purchase{}, err
		}
		ins, err := split.Split(p.TotalAmountCents, p.InstallmentCount, *base, acc)
		if err != nil {
			return billing.Purchase{}, err
		}
		for i := range ins {
			ins[i].PurchaseID = p.ID
		}
		if err := tx.CreateInstallments(ctx, ins); err != nil {
			return billing.Purchase{}, err
		}
		if acc.Billed() {
			for _, ym := range affectedMonths(append(old, ins...)) {
				if _, err := statement.Ensure(ctx, tx, userID, acc.ID, ym); err != nil {
					return billing.Purchase{}, err
				}
				if _, err := statement.Refresh(ctx, tx, userID, acc.ID, ym); err != nil {
					return billing.Purchase{}, err
				}
			}
		}
		if err := s.rec.Reconcile(ctx, tx, userID, acc.ID); err != nil {
			return billing.Purchase{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return billing.Purchase{}, errs.PersistenceRetryable(err)
	}
	s.inv.Invalidate(userID, views.ExpenseList, views.StatementList, views.AccountList, views.Dashboard)
	return p, nil
}

// Delete removes a purchase and its installments, then refreshes the
// totals of every statement that covered them.
func (s *service) Delete(ctx context.Context, userID, purchaseID uuid.UUID) error {
	if userID == uuid.Nil || purchaseID == uuid.Nil {
		return errs.ErrInvalid
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return errs.PersistenceRetryable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := tx.GetPurchase(ctx, userID, purchaseID)
	if err != nil {
		return err
	}
	old, err := tx.ListInstallmentsByPurchase(ctx, userID, purchaseID)
	if err != nil {
		return err
	}
	if err := tx.DeletePurchase(ctx, userID, purchaseID); err != nil {
		return err
	}

	for _, ym := range affectedMonths(old) {
		if _, err := tx.GetStatement(ctx, userID, p.AccountID, ym); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			return err
		}
		if _, err := statement.Refresh(ctx, tx, userID, p.AccountID, ym); err != nil {
			return err
		}
	}
	if err := s.rec.Reconcile(ctx, tx, userID, p.AccountID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errs.PersistenceRetryable(err)
	}

	s.inv.Invalidate(userID, views.ExpenseList, views.StatementList, views.AccountList, views.Dashboard)
	return nil
}

func (s *service) Get(ctx context.Context, userID, purchaseID uuid.UUID) (billing.Purchase, []billing.Installment, error) {
	if userID == uuid.Nil || purchaseID == uuid.Nil {
		return billing.Purchase{}, nil, errs.ErrInvalid
	}
	p, err := s.store.GetPurchase(ctx, userID, purchaseID)
	if err != nil {
		return billing.Purchase{}, nil, err
	}
	ins, err := s.store.ListInstallmentsByPurchase(ctx, userID, purchaseID)
	if err != nil {
		return billing.Purchase{}, nil, err
	}
	return p, ins, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]billing.Purchase, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.store.ListPurchases(ctx, userID)
}

func affectedMonths(ins []billing.Installment) []billing.YearMonth {
	seen := make(map[billing.YearMonth]bool, len(ins))
	out := make([]billing.YearMonth, 0, len(ins))
	for _, i := range ins {
		if seen[i.StatementMonth] {
			continue
		}
		seen[i.StatementMonth] = true
		out = append(out, i.StatementMonth)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Before(out[b]) })
	return out
}
