// Package cycle holds the pure date arithmetic of the billing cycle:
// which statement month a purchase lands in, where a statement closes,
// when it falls due, and where its window starts by default. Everything
// stateful (overrides, neighbouring statements) lives in the statement
// service; this package only computes.
package cycle

import (
	"time"

	"github.com/tinoosan/billing/internal/billing"
)

// StatementMonth maps a purchase date to its owning statement month.
// The closing day is a rolling cutoff, not a calendar boundary: a
// purchase after the closing day rolls into the following month's
// statement.
func StatementMonth(purchaseDate time.Time, closingDay int) billing.YearMonth {
	ym := billing.YearMonthOf(purchaseDate)
	if purchaseDate.Day() > closingDay {
		return ym.Next()
	}
	return ym
}

// ClosingDate returns the default closing date of a statement month:
// the closingDay-th calendar day of that month.
func ClosingDate(ym billing.YearMonth, closingDay int) time.Time {
	return ym.Date(closingDay)
}

// DueDate returns the payment due date for a statement month. The due
// date must fall after the closing date: when the configured due day is
// later in the month than the closing day it stays in the statement
// month, otherwise it rolls into the following month. Ties roll
// forward, keeping the grace period non-negative.
func DueDate(ym billing.YearMonth, paymentDueDay, closingDay int) time.Time {
	if paymentDueDay > closingDay {
		return ym.Date(paymentDueDay)
	}
	return ym.Next().Date(paymentDueDay)
}

// DefaultWindowStart returns the first day of a statement's billing
// window when no override or neighbouring statement informs it: the day
// after the previous month's default closing date.
func DefaultWindowStart(ym billing.YearMonth, closingDay int) time.Time {
	return ClosingDate(ym.Prev(), closingDay).AddDate(0, 0, 1)
}

// AddMonths shifts d forward by n calendar months keeping the
// day-of-month, clamped to the target month's length (Jan 31 + 1 month
// is Feb 28, or Feb 29 in a leap year).
func AddMonths(d time.Time, n int) time.Time {
	ym := billing.YearMonthOf(d)
	for i := 0; i < n; i++ {
		ym = ym.Next()
	}
	day := d.Day()
	if max := ym.Days(); day > max {
		day = max
	}
	return time.Date(ym.Year, ym.Month, day,
		d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}
