package split

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
)

func creditCard(closing, due int) billing.Account {
	return billing.Account{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Name:          "Card",
		Kind:          billing.AccountCreditCard,
		Currency:      "USD",
		ClosingDay:    &closing,
		PaymentDueDay: &due,
	}
}

func TestSplitExactSum(t *testing.T) {
	base := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	acc := creditCard(15, 22)
	totals := []int64{1, 99, 100, 10000, 99999, 123457}
	for _, total := range totals {
		for count := 1; count <= 24; count++ {
			ins, err := Split(total, count, base, acc)
			if err != nil {
				t.Fatalf("Split(%d, %d): %v", total, count, err)
			}
			if len(ins) != count {
				t.Fatalf("Split(%d, %d) returned %d installments", total, count, len(ins))
			}
			var sum int64
			for _, i := range ins {
				sum += i.AmountCents
			}
			if sum != total {
				t.Fatalf("Split(%d, %d) sums to %d", total, count, sum)
			}
		}
	}
}

func TestSplitRemainderOnLast(t *testing.T) {
	acc := creditCard(15, 22)
	base := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	ins, err := Split(10000, 3, base, acc)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{3333, 3333, 3334}
	for i, w := range want {
		if ins[i].AmountCents != w {
			t.Fatalf("installment %d amount = %d, want %d", i+1, ins[i].AmountCents, w)
		}
	}
}

func TestSplitDatesAndMonths(t *testing.T) {
	acc := creditCard(15, 22)
	base := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	ins, err := Split(9000, 3, base, acc)
	if err != nil {
		t.Fatal(err)
	}
	for i, in := range ins {
		if in.Number != i+1 {
			t.Fatalf("installment %d has number %d", i, in.Number)
		}
		wantDate := base.AddDate(0, i, 0)
		if !in.PurchaseDate.Equal(wantDate) {
			t.Fatalf("installment %d date = %v, want %v", in.Number, in.PurchaseDate, wantDate)
		}
	}
	// day 10 is on or before closing day 15, so each installment stays
	// in its own calendar month
	months := []billing.YearMonth{
		{Year: 2025, Month: time.January},
		{Year: 2025, Month: time.February},
		{Year: 2025, Month: time.March},
	}
	for i, in := range ins {
		if in.StatementMonth != months[i] {
			t.Fatalf("installment %d month = %v, want %v", in.Number, in.StatementMonth, months[i])
		}
	}
}

func TestSplitAfterCutoffRolls(t *testing.T) {
	acc := creditCard(15, 22)
	base := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)
	ins, err := Split(5000, 1, base, acc)
	if err != nil {
		t.Fatal(err)
	}
	if want := (billing.YearMonth{Year: 2025, Month: time.February}); ins[0].StatementMonth != want {
		t.Fatalf("statement month = %v, want %v", ins[0].StatementMonth, want)
	}
}

func TestSplitUnbilledAccount(t *testing.T) {
	acc := billing.Account{ID: uuid.New(), UserID: uuid.New(), Name: "Checking", Kind: billing.AccountChecking, Currency: "USD"}
	base := time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC)
	ins, err := Split(4200, 2, base, acc)
	if err != nil {
		t.Fatal(err)
	}
	for _, in := range ins {
		if in.StatementMonth != billing.YearMonthOf(in.PurchaseDate) {
			t.Fatalf("unbilled installment month = %v, want purchase month %v", in.StatementMonth, billing.YearMonthOf(in.PurchaseDate))
		}
		if !in.DueDate.Equal(in.PurchaseDate) {
			t.Fatalf("unbilled installment due = %v, want %v", in.DueDate, in.PurchaseDate)
		}
	}
}

func TestSplitRejectsBadInput(t *testing.T) {
	acc := creditCard(15, 22)
	base := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	if _, err := Split(0, 3, base, acc); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("zero total: err = %v", err)
	}
	if _, err := Split(-100, 1, base, acc); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("negative total: err = %v", err)
	}
	if _, err := Split(1000, 0, base, acc); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("zero count: err = %v", err)
	}
}
