package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
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

func TestCreateSplitsAndEnsuresStatements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, ins, err := f.svc.Create(ctx, f.userID, CreateInput{
		AccountID:        f.card.ID,
		Description:      "tv",
		TotalAmountCents: 10000,
		InstallmentCount: 3,
		PurchaseDate:     time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, ins, 3)
	require.EqualValues(t, 10000, p.TotalAmountCents)
	require.Equal(t, []int64{3333, 3333, 3334}, []int64{ins[0].AmountCents, ins[1].AmountCents, ins[2].AmountCents})

	// one statement per covered month, each totalling its installment
	statements, err := f.store.ListStatements(ctx, f.userID, f.card.ID)
	require.NoError(t, err)
	require.Len(t, statements, 3)
	totals := map[billing.YearMonth]int64{}
	for _, st := range statements {
		totals[st.YearMonth] = st.TotalAmountCents
	}
	require.EqualValues(t, 3333, totals[billing.YearMonth{Year: 2025, Month: time.January}])
	require.EqualValues(t, 3333, totals[billing.YearMonth{Year: 2025, Month: time.February}])
	require.EqualValues(t, 3334, totals[billing.YearMonth{Year: 2025, Month: time.March}])

	// all installments unpaid, so the card owes the full amount
	card, err := f.store.GetAccount(ctx, f.userID, f.card.ID)
	require.NoError(t, err)
	require.EqualValues(t, -10000, card.CurrentBalance)
}

func TestCreateUnbilledAccountSkipsStatements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ins, err := f.svc.Create(ctx, f.userID, CreateInput{
		AccountID:        f.checking.ID,
		Description:      "rent",
		TotalAmountCents: 90000,
		InstallmentCount: 1,
		PurchaseDate:     time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, ins, 1)

	statements, err := f.store.ListStatements(ctx, f.userID, f.checking.ID)
	require.NoError(t, err)
	require.Empty(t, statements)

	checking, err := f.store.GetAccount(ctx, f.userID, f.checking.ID)
	require.NoError(t, err)
	require.EqualValues(t, -90000, checking.CurrentBalance)
}

func TestCreateDedupesByExternalID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateInput{
		AccountID:        f.card.ID,
		Description:      "imported row",
		TotalAmountCents: 4200,
		InstallmentCount: 1,
		PurchaseDate:     time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		ExternalID:       "bank-row-7",
	}

	first, firstIns, err := f.svc.Create(ctx, f.userID, in)
	require.NoError(t, err)
	second, secondIns, err := f.svc.Create(ctx, f.userID, in)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, firstIns[0].ID, secondIns[0].ID)

	all, err := f.svc.List(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCreateSlugifiesCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _, err := f.svc.Create(ctx, f.userID, CreateInput{
		AccountID:        f.card.ID,
		Description:      "lunch",
		TotalAmountCents: 1500,
		InstallmentCount: 1,
		PurchaseDate:     time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		Category:         "Eating Out",
	})
	require.NoError(t, err)
	require.Equal(t, "eating_out", p.Category)
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := CreateInput{
		AccountID:        f.card.ID,
		Description:      "x",
		TotalAmountCents: 100,
		InstallmentCount: 1,
		PurchaseDate:     time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	}

	bad := base
	bad.TotalAmountCents = 0
	_, _, err := f.svc.Create(ctx, f.userID, bad)
	require.ErrorIs(t, err, errs.ErrInvalid)

	bad = base
	bad.InstallmentCount = 0
	_, _, err = f.svc.Create(ctx, f.userID, bad)
	require.ErrorIs(t, err, errs.ErrInvalid)

	bad = base
	bad.Description = ""
	_, _, err = f.svc.Create(ctx, f.userID, bad)
	require.ErrorIs(t, err, errs.ErrInvalid)
}

func TestUpdateRegeneratesPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	p, _, err := f.svc.Create(ctx, f.userID, CreateInput{
		AccountID:        f.card.ID,
		Description:      "tv",
		TotalAmountCents: 10000,
		InstallmentCount: 3,
		PurchaseDate:     base,
	})
	require.NoError(t, err)

	count := 2
	total := int64(8000)
	updated, err := f.svc.Update(ctx, f.userID, p.ID, UpdateInput{TotalAmountCents: &total, InstallmentCount: &count})
	require.NoError(t, err)
	require.EqualValues(t, 8000, updated.TotalAmountCents)

	ins, err := f.store.ListInstallmentsByPurchase(ctx, f.userID, p.ID)
	require.NoError(t, err)
	require.Len(t, ins, 2)
	// the plan re-anchors on the original first installment's date
	require.Equal(t, base, ins[0].PurchaseDate)
	require.Equal(t, []int64{4000, 4000}, []int64{ins[0].AmountCents, ins[1].AmountCents})

	// march no longer carries an installment; its statement drops to zero
	stMar, err := f.store.GetStatement(ctx, f.userID, f.card.ID, billing.YearMonth{Year: 2025, Month: time.March})
	require.NoError(t, err)
	require.Zero(t, stMar.TotalAmountCents)
}

func TestUpdateDescriptionKeepsPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, ins, err := f.svc.Create(ctx, f.userID, CreateInput{
		AccountID:        f.card.ID,
		Description:      "tv",
		TotalAmountCents: 10000,
		InstallmentCount: 3,
		PurchaseDate:     time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	desc := "bigger tv"
	updated, err := f.svc.Update(ctx, f.userID, p.ID, UpdateInput{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "bigger tv", updated.Description)

	after, err := f.store.ListInstallmentsByPurchase(ctx, f.userID, p.ID)
	require.NoError(t, err)
	require.Len(t, after, 3)
	require.Equal(t, ins[0].ID, after[0].ID)
}

func TestDeleteRefreshesStatements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _, err := f.svc.Create(ctx, f.userID, CreateInput{
		AccountID:        f.card.ID,
		Description:      "tv",
		TotalAmountCents: 10000,
		InstallmentCount: 3,
		PurchaseDate:     time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.userID, p.ID))

	_, err = f.store.GetPurchase(ctx, f.userID, p.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	statements, err := f.store.ListStatements(ctx, f.userID, f.card.ID)
	require.NoError(t, err)
	require.Len(t, statements, 3)
	for _, st := range statements {
		require.Zero(t, st.TotalAmountCents)
	}

	card, err := f.store.GetAccount(ctx, f.userID, f.card.ID)
	require.NoError(t, err)
	require.Zero(t, card.CurrentBalance)
}

func TestDeleteMissingPurchase(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Delete(context.Background(), f.userID, uuid.New())
	require.ErrorIs(t, err, errs.ErrNotFound)
}
