// Package split divides a purchase total into dated installments.
package split

import (
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/cycle"
	"github.com/tinoosan/billing/internal/errs"
)

// Split divides totalCents into count dated installments for the given
// account. Every installment except the last gets the floored
// per-installment amount; the last absorbs the remainder so the sum is
// exact. Installment i is dated i-1 calendar months after baseDate
// (day-of-month clamped). Credit-card accounts with billing
// configuration derive each installment's statement month and due date
// from its own date; anything else settles in the purchase month with
// the purchase date as due date.
func Split(totalCents int64, count int, baseDate time.Time, acc billing.Account) ([]billing.Installment, error) {
	if totalCents <= 0 || count < 1 {
		return nil, errs.ErrInvalid
	}
	per := totalCents / int64(count)
	last := totalCents - per*int64(count-1)

	out := make([]billing.Installment, 0, count)
	for i := 1; i <= count; i++ {
		amount := per
		if i == count {
			amount = last
		}
		date := cycle.AddMonths(baseDate, i-1)
		ins := billing.Installment{
			ID:           uuid.New(),
			UserID:       acc.UserID,
			AccountID:    acc.ID,
			AmountCents:  amount,
			PurchaseDate: date,
			Number:       i,
		}
		if acc.Billed() {
			ym := cycle.StatementMonth(date, *acc.ClosingDay)
			ins.StatementMonth = ym
			ins.DueDate = cycle.DueDate(ym, *acc.PaymentDueDay, *acc.ClosingDay)
		} else {
			ins.StatementMonth = billing.YearMonthOf(date)
			ins.DueDate = date
		}
		out = append(out, ins)
	}
	return out, nil
}
