package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
)

func seeded(t *testing.T) (*Store, uuid.UUID, billing.Account) {
	t.Helper()
	s := New()
	userID := uuid.New()
	s.SeedUser(billing.User{ID: userID})
	closing, due := 15, 22
	card := billing.Account{
		ID: uuid.New(), UserID: userID, Name: "Card",
		Kind: billing.AccountCreditCard, Currency: "USD",
		ClosingDay: &closing, PaymentDueDay: &due,
	}
	s.SeedAccount(card)
	return s, userID, card
}

func TestTxCommitPublishes(t *testing.T) {
	s, userID, card := seeded(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p := billing.Purchase{ID: uuid.New(), UserID: userID, AccountID: card.ID, Description: "tv", TotalAmountCents: 100, InstallmentCount: 1}
	if _, err := tx.CreatePurchase(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPurchase(ctx, userID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "tv" {
		t.Fatalf("description = %q", got.Description)
	}
}

func TestTxRollbackDiscards(t *testing.T) {
	s, userID, card := seeded(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p := billing.Purchase{ID: uuid.New(), UserID: userID, AccountID: card.ID, Description: "tv", TotalAmountCents: 100, InstallmentCount: 1}
	if _, err := tx.CreatePurchase(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetPurchase(ctx, userID, p.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateStatementDuplicateConflicts(t *testing.T) {
	s, userID, card := seeded(t)
	ctx := context.Background()
	ym := billing.YearMonth{Year: 2025, Month: time.February}
	st := billing.Statement{
		ID: uuid.New(), UserID: userID, AccountID: card.ID, YearMonth: ym,
		ClosingDate: time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2025, time.February, 22, 0, 0, 0, 0, time.UTC),
	}
	if _, err := s.CreateStatement(ctx, st); err != nil {
		t.Fatal(err)
	}

	dup := st
	dup.ID = uuid.New()
	if _, err := s.CreateStatement(ctx, dup); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// the winner is still readable by its cycle key
	got, err := s.GetStatement(ctx, userID, card.ID, ym)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != st.ID {
		t.Fatalf("statement id = %v, want original %v", got.ID, st.ID)
	}
}

func TestDeletePurchaseCascades(t *testing.T) {
	s, userID, card := seeded(t)
	ctx := context.Background()
	p := billing.Purchase{ID: uuid.New(), UserID: userID, AccountID: card.ID, Description: "tv", TotalAmountCents: 200, InstallmentCount: 2}
	if _, err := s.CreatePurchase(ctx, p); err != nil {
		t.Fatal(err)
	}
	d := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	ins := []billing.Installment{
		{ID: uuid.New(), UserID: userID, PurchaseID: p.ID, AccountID: card.ID, AmountCents: 100, PurchaseDate: d, StatementMonth: billing.YearMonthOf(d), DueDate: d, Number: 1},
		{ID: uuid.New(), UserID: userID, PurchaseID: p.ID, AccountID: card.ID, AmountCents: 100, PurchaseDate: d.AddDate(0, 1, 0), StatementMonth: billing.YearMonthOf(d).Next(), DueDate: d.AddDate(0, 1, 0), Number: 2},
	}
	if err := s.CreateInstallments(ctx, ins); err != nil {
		t.Fatal(err)
	}

	if err := s.DeletePurchase(ctx, userID, p.ID); err != nil {
		t.Fatal(err)
	}
	for _, i := range ins {
		if _, err := s.GetInstallment(ctx, userID, i.ID); !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("installment %d survived delete: %v", i.Number, err)
		}
	}
}

func TestUncoveredStatementKeys(t *testing.T) {
	s, userID, card := seeded(t)
	ctx := context.Background()
	p := billing.Purchase{ID: uuid.New(), UserID: userID, AccountID: card.ID, Description: "tv", TotalAmountCents: 100, InstallmentCount: 1}
	if _, err := s.CreatePurchase(ctx, p); err != nil {
		t.Fatal(err)
	}
	ym := billing.YearMonth{Year: 2025, Month: time.January}
	d := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	ins := billing.Installment{ID: uuid.New(), UserID: userID, PurchaseID: p.ID, AccountID: card.ID, AmountCents: 100, PurchaseDate: d, StatementMonth: ym, DueDate: d, Number: 1}
	if err := s.CreateInstallments(ctx, []billing.Installment{ins}); err != nil {
		t.Fatal(err)
	}

	keys, err := s.UncoveredStatementKeys(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0].AccountID != card.ID || keys[0].YearMonth != ym {
		t.Fatalf("keys = %+v", keys)
	}

	st := billing.Statement{
		ID: uuid.New(), UserID: userID, AccountID: card.ID, YearMonth: ym,
		ClosingDate: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2025, time.January, 22, 0, 0, 0, 0, time.UTC),
	}
	if _, err := s.CreateStatement(ctx, st); err != nil {
		t.Fatal(err)
	}
	keys, err = s.UncoveredStatementKeys(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys = %+v, want none", keys)
	}
}
