// Package reconcile recomputes the derived balance cache of an
// account from its obligations and transfers. It is invoked as the last
// step of every payment-ledger transaction so it observes the rows just
// written.
package reconcile

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/storage"
)

// Reconciler recomputes account balances from first principles. The
// balance column is a cache; this is the only writer of it.
type Reconciler struct{}

func New() *Reconciler { return &Reconciler{} }

// Reconcile rewrites the CurrentBalance of one account.
//
// Credit-card accounts carry the negated sum of their unpaid
// installments: outstanding debt shrinks as statements are paid, and
// the payment transfer itself is accounted on the paying side only.
// Every other account sums incoming minus outgoing transfers minus its
// own immediately-settled installment obligations.
func (r *Reconciler) Reconcile(ctx context.Context, q storage.Queries, userID, accountID uuid.UUID) error {
	acc, err := q.GetAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}

	var balance int64
	if acc.Kind == billing.AccountCreditCard {
		ins, err := q.ListInstallmentsByAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		for _, i := range ins {
			if i.PaidAt == nil {
				balance -= i.AmountCents
			}
		}
	} else {
		transfers, err := q.ListTransfersByAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		for _, t := range transfers {
			if t.ToAccountID != nil && *t.ToAccountID == accountID {
				balance += t.AmountCents
			}
			if t.FromAccountID != nil && *t.FromAccountID == accountID {
				balance -= t.AmountCents
			}
		}
		ins, err := q.ListInstallmentsByAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		for _, i := range ins {
			balance -= i.AmountCents
		}
	}

	return q.UpdateAccountBalance(ctx, userID, accountID, balance)
}
