package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/meta"
	"github.com/tinoosan/billing/internal/reconcile"
	"github.com/tinoosan/billing/internal/storage/memory"
	"github.com/tinoosan/billing/internal/views"
)

type fixture struct {
	store    *memory.Store
	svc      Service
	userID   uuid.UUID
	card     billing.Account
	checking billing.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	store.SeedUser(billing.User{ID: userID})
	closing, due := 15, 22
	card := billing.Account{
		ID: uuid.New(), UserID: userID, Name: "Card",
		Kind: billing.AccountCreditCard, Currency: "USD",
		ClosingDay: &closing, PaymentDueDay: &due,
	}
	checking := billing.Account{ID: uuid.New(), UserID: userID, Name: "Checking", Kind: billing.AccountChecking, Currency: "USD"}
	store.SeedAccount(card)
	store.SeedAccount(checking)
	return &fixture{
		store:    store,
		svc:      New(store, reconcile.New(), views.Noop{}),
		userID:   userID,
		card:     card,
		checking: checking,
	}
}

// seedStatement creates a card purchase, its installment, and a
// statement whose total matches.
func (f *fixture) seedStatement(t *testing.T, total int64) (billing.Statement, billing.Installment) {
	t.Helper()
	ctx := context.Background()
	ym := billing.YearMonth{Year: 2025, Month: time.February}
	p := billing.Purchase{
		ID: uuid.New(), UserID: f.userID, AccountID: f.card.ID,
		Description: "groceries", TotalAmountCents: total, InstallmentCount: 1,
	}
	_, err := f.store.CreatePurchase(ctx, p)
	require.NoError(t, err)
	ins := billing.Installment{
		ID: uuid.New(), UserID: f.userID, PurchaseID: p.ID, AccountID: f.card.ID,
		AmountCents: total, PurchaseDate: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		StatementMonth: ym, DueDate: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), Number: 1,
	}
	require.NoError(t, f.store.CreateInstallments(ctx, []billing.Installment{ins}))
	st := billing.Statement{
		ID: uuid.New(), UserID: f.userID, AccountID: f.card.ID, YearMonth: ym,
		ClosingDate:      time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC),
		TotalAmountCents: total,
		DueDate:          time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
	created, err := f.store.CreateStatement(ctx, st)
	require.NoError(t, err)
	return created, ins
}

func TestPayMarksEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, ins := f.seedStatement(t, 5000)
	paidAt := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	paid, err := f.svc.Pay(ctx, f.userID, st.ID, f.checking.ID, paidAt)
	require.NoError(t, err)
	require.True(t, paid.Paid())
	require.Equal(t, f.checking.ID, *paid.PaidFromAccountID)

	gotIns, err := f.store.GetInstallment(ctx, f.userID, ins.ID)
	require.NoError(t, err)
	require.NotNil(t, gotIns.PaidAt)

	transfers, err := f.store.ListTransfers(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	require.Equal(t, billing.TransferStatementPayment, transfers[0].Kind)
	require.EqualValues(t, 5000, transfers[0].AmountCents)
	require.Equal(t, st.ID, *transfers[0].StatementID)

	// checking paid the bill; the card's debt is settled
	checking, err := f.store.GetAccount(ctx, f.userID, f.checking.ID)
	require.NoError(t, err)
	require.EqualValues(t, -5000, checking.CurrentBalance)
	card, err := f.store.GetAccount(ctx, f.userID, f.card.ID)
	require.NoError(t, err)
	require.Zero(t, card.CurrentBalance)
}

func TestPayAlreadyPaidNoWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, _ := f.seedStatement(t, 5000)
	paidAt := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Pay(ctx, f.userID, st.ID, f.checking.ID, paidAt)
	require.NoError(t, err)
	_, err = f.svc.Pay(ctx, f.userID, st.ID, f.checking.ID, paidAt)
	require.ErrorIs(t, err, errs.ErrAlreadyPaid)

	transfers, err := f.store.ListTransfers(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
}

func TestPayFromCreditCardRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, _ := f.seedStatement(t, 5000)

	_, err := f.svc.Pay(ctx, f.userID, st.ID, f.card.ID, time.Now().UTC())
	require.ErrorIs(t, err, errs.ErrInvalidAccount)
}

func TestPayUnpayRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, ins := f.seedStatement(t, 5000)
	paidAt := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Pay(ctx, f.userID, st.ID, f.checking.ID, paidAt)
	require.NoError(t, err)
	unpaid, err := f.svc.Unpay(ctx, f.userID, st.ID)
	require.NoError(t, err)
	require.False(t, unpaid.Paid())
	require.Nil(t, unpaid.PaidFromAccountID)

	gotIns, err := f.store.GetInstallment(ctx, f.userID, ins.ID)
	require.NoError(t, err)
	require.Nil(t, gotIns.PaidAt)

	// the payment is never erased; a compensating transfer reverses it
	transfers, err := f.store.ListTransfers(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	orig, reversal := transfers[0], transfers[1]
	require.Equal(t, billing.TransferStatementPayment, orig.Kind)
	require.Equal(t, billing.TransferInternal, reversal.Kind)
	require.Equal(t, orig.AmountCents, reversal.AmountCents)
	require.Equal(t, *orig.FromAccountID, *reversal.ToAccountID)
	require.Equal(t, *orig.ToAccountID, *reversal.FromAccountID)
	ref, ok := reversal.Metadata.Get(meta.KeyReverses)
	require.True(t, ok)
	require.Equal(t, orig.ID.String(), ref)

	// balances return to their pre-payment state
	checking, err := f.store.GetAccount(ctx, f.userID, f.checking.ID)
	require.NoError(t, err)
	require.Zero(t, checking.CurrentBalance)
	card, err := f.store.GetAccount(ctx, f.userID, f.card.ID)
	require.NoError(t, err)
	require.EqualValues(t, -5000, card.CurrentBalance)
}

func TestUnpayUnpaidStatementIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, _ := f.seedStatement(t, 5000)

	got, err := f.svc.Unpay(ctx, f.userID, st.ID)
	require.NoError(t, err)
	require.False(t, got.Paid())

	transfers, err := f.store.ListTransfers(ctx, f.userID)
	require.NoError(t, err)
	require.Empty(t, transfers)
}

// seedExpense creates a one-off purchase with its installment on the
// checking account, as an imported bank record would.
func (f *fixture) seedExpense(t *testing.T, amount int64, externalID string) (billing.Purchase, billing.Installment) {
	t.Helper()
	ctx := context.Background()
	p := billing.Purchase{
		ID: uuid.New(), UserID: f.userID, AccountID: f.checking.ID,
		Description: "card bill via import", TotalAmountCents: amount,
		InstallmentCount: 1, ExternalID: externalID,
	}
	_, err := f.store.CreatePurchase(ctx, p)
	require.NoError(t, err)
	d := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	ins := billing.Installment{
		ID: uuid.New(), UserID: f.userID, PurchaseID: p.ID, AccountID: f.checking.ID,
		AmountCents: amount, PurchaseDate: d, StatementMonth: billing.YearMonthOf(d),
		DueDate: d, Number: 1,
	}
	require.NoError(t, f.store.CreateInstallments(ctx, []billing.Installment{ins}))
	return p, ins
}

func TestConvertExpenseToPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, cardIns := f.seedStatement(t, 5000)
	p, expenseIns := f.seedExpense(t, 5000, "bank-row-42")

	tr, err := f.svc.Convert(ctx, f.userID, expenseIns.ID, st.ID)
	require.NoError(t, err)
	require.Equal(t, billing.TransferStatementPayment, tr.Kind)
	require.Equal(t, expenseIns.PurchaseDate, tr.Date)
	require.Equal(t, "bank-row-42", tr.ExternalID)
	require.Equal(t, f.checking.ID, *tr.FromAccountID)
	require.Equal(t, f.card.ID, *tr.ToAccountID)

	got, err := f.store.GetStatementByID(ctx, f.userID, st.ID)
	require.NoError(t, err)
	require.True(t, got.Paid())
	require.Equal(t, expenseIns.PurchaseDate, *got.PaidAt)

	gotCardIns, err := f.store.GetInstallment(ctx, f.userID, cardIns.ID)
	require.NoError(t, err)
	require.NotNil(t, gotCardIns.PaidAt)

	// the expense purchase is replaced by the transfer
	_, err = f.store.GetPurchase(ctx, f.userID, p.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.store.GetInstallment(ctx, f.userID, expenseIns.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestConvertAmountMismatchLeavesRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, _ := f.seedStatement(t, 4999)
	p, expenseIns := f.seedExpense(t, 5000, "")

	_, err := f.svc.Convert(ctx, f.userID, expenseIns.ID, st.ID)
	require.ErrorIs(t, err, errs.ErrAmountMismatch)

	got, err := f.store.GetStatementByID(ctx, f.userID, st.ID)
	require.NoError(t, err)
	require.False(t, got.Paid())
	_, err = f.store.GetPurchase(ctx, f.userID, p.ID)
	require.NoError(t, err)
}

func TestConvertMultiInstallmentRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, _ := f.seedStatement(t, 5000)

	p := billing.Purchase{
		ID: uuid.New(), UserID: f.userID, AccountID: f.checking.ID,
		Description: "split expense", TotalAmountCents: 5000, InstallmentCount: 2,
	}
	_, err := f.store.CreatePurchase(ctx, p)
	require.NoError(t, err)
	d := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	ins := billing.Installment{
		ID: uuid.New(), UserID: f.userID, PurchaseID: p.ID, AccountID: f.checking.ID,
		AmountCents: 2500, PurchaseDate: d, StatementMonth: billing.YearMonthOf(d), DueDate: d, Number: 1,
	}
	require.NoError(t, f.store.CreateInstallments(ctx, []billing.Installment{ins}))

	_, err = f.svc.Convert(ctx, f.userID, ins.ID, st.ID)
	require.ErrorIs(t, err, errs.ErrInvalidConversion)
}

func TestConvertFromCreditCardRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, cardIns := f.seedStatement(t, 5000)

	_, err := f.svc.Convert(ctx, f.userID, cardIns.ID, st.ID)
	require.ErrorIs(t, err, errs.ErrInvalidConversion)
}
