// Package account implements account rules: supported kinds, ISO-4217
// currency validation, and the billing-cycle day constraints carried by
// credit cards.
package account

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/storage"
)

// Service exposes the account operations.
type Service interface {
	ValidateCreate(a billing.Account) error
	Create(ctx context.Context, a billing.Account) (billing.Account, error)
	Get(ctx context.Context, userID, accountID uuid.UUID) (billing.Account, error)
	List(ctx context.Context, userID uuid.UUID) ([]billing.Account, error)
}

type service struct {
	store storage.Store
}

func New(store storage.Store) Service { return &service{store: store} }

// ValidateCreate checks the identity fields of a new account. Billing
// days stay within 1..28 so the configured day exists in every month.
func (s *service) ValidateCreate(a billing.Account) error {
	if a.UserID == uuid.Nil || strings.TrimSpace(a.Name) == "" {
		return errs.ErrInvalid
	}
	if !a.Kind.Valid() {
		return errs.ErrInvalid
	}
	if _, err := money.ParseCurr(a.Currency); err != nil {
		return errs.ErrInvalid
	}
	if a.Kind == billing.AccountCreditCard {
		if a.ClosingDay == nil || a.PaymentDueDay == nil {
			return errs.ErrInvalid
		}
		if *a.ClosingDay < 1 || *a.ClosingDay > 28 || *a.PaymentDueDay < 1 || *a.PaymentDueDay > 28 {
			return errs.ErrInvalid
		}
	} else if a.ClosingDay != nil || a.PaymentDueDay != nil {
		return errs.ErrInvalid
	}
	return nil
}

func (s *service) Create(ctx context.Context, a billing.Account) (billing.Account, error) {
	if err := s.ValidateCreate(a); err != nil {
		return billing.Account{}, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Currency = strings.ToUpper(a.Currency)
	a.CurrentBalance = 0
	return s.store.CreateAccount(ctx, a)
}

func (s *service) Get(ctx context.Context, userID, accountID uuid.UUID) (billing.Account, error) {
	if userID == uuid.Nil || accountID == uuid.Nil {
		return billing.Account{}, errs.ErrInvalid
	}
	return s.store.GetAccount(ctx, userID, accountID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]billing.Account, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.store.ListAccounts(ctx, userID)
}
