package account

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/storage/memory"
)

func intPtr(v int) *int { return &v }

func TestValidateCreate(t *testing.T) {
	svc := New(memory.New())
	userID := uuid.New()
	cases := []struct {
		name    string
		acc     billing.Account
		wantErr bool
	}{
		{"valid checking", billing.Account{UserID: userID, Name: "Checking", Kind: billing.AccountChecking, Currency: "USD"}, false},
		{"valid card", billing.Account{UserID: userID, Name: "Card", Kind: billing.AccountCreditCard, Currency: "EUR", ClosingDay: intPtr(15), PaymentDueDay: intPtr(22)}, false},
		{"missing user", billing.Account{Name: "X", Kind: billing.AccountChecking, Currency: "USD"}, true},
		{"blank name", billing.Account{UserID: userID, Name: "  ", Kind: billing.AccountChecking, Currency: "USD"}, true},
		{"unknown kind", billing.Account{UserID: userID, Name: "X", Kind: "wallet", Currency: "USD"}, true},
		{"bad currency", billing.Account{UserID: userID, Name: "X", Kind: billing.AccountChecking, Currency: "DOUBLOONS"}, true},
		{"card missing days", billing.Account{UserID: userID, Name: "X", Kind: billing.AccountCreditCard, Currency: "USD"}, true},
		{"card day out of range", billing.Account{UserID: userID, Name: "X", Kind: billing.AccountCreditCard, Currency: "USD", ClosingDay: intPtr(31), PaymentDueDay: intPtr(22)}, true},
		{"checking with cycle days", billing.Account{UserID: userID, Name: "X", Kind: billing.AccountChecking, Currency: "USD", ClosingDay: intPtr(15)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ValidateCreate(tc.acc)
			if tc.wantErr && !errors.Is(err, errs.ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestCreateNormalizes(t *testing.T) {
	store := memory.New()
	svc := New(store)
	ctx := context.Background()
	userID := uuid.New()
	store.SeedUser(billing.User{ID: userID})

	created, err := svc.Create(ctx, billing.Account{
		UserID: userID, Name: "Checking", Kind: billing.AccountChecking,
		Currency: "usd", CurrentBalance: 999,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if created.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", created.Currency)
	}
	// balances are derived, never accepted from input
	if created.CurrentBalance != 0 {
		t.Fatalf("balance = %d, want 0", created.CurrentBalance)
	}
}
