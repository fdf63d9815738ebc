package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. Transactions stage a full copy of the state
// and publish it on Commit, so services observe the same all-or-nothing
// behaviour the postgres backend gives them.
import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/storage"
)

// Store is an in-memory implementation of storage.Store. A single mutex
// serializes transactions; plain reads and single-row writes take the
// same lock per call.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	users        map[uuid.UUID]struct{}
	accounts     map[uuid.UUID]billing.Account
	purchases    map[uuid.UUID]billing.Purchase
	installments map[uuid.UUID]billing.Installment
	statements   map[uuid.UUID]billing.Statement
	// transfers are append-only, kept in insertion order.
	transfers []billing.Transfer
}

func newState() *state {
	return &state{
		users:        make(map[uuid.UUID]struct{}),
		accounts:     make(map[uuid.UUID]billing.Account),
		purchases:    make(map[uuid.UUID]billing.Purchase),
		installments: make(map[uuid.UUID]billing.Installment),
		statements:   make(map[uuid.UUID]billing.Statement),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k := range s.users {
		out.users[k] = struct{}{}
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.purchases {
		out.purchases[k] = v
	}
	for k, v := range s.installments {
		out.installments[k] = v
	}
	for k, v := range s.statements {
		out.statements[k] = v
	}
	out.transfers = append(out.transfers, s.transfers...)
	return out
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{st: newState()}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u billing.User) {
	s.mu.Lock()
	s.st.users[u.ID] = struct{}{}
	s.mu.Unlock()
}

func (s *Store) SeedAccount(a billing.Account) {
	s.mu.Lock()
	s.st.accounts[a.ID] = a
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.st = newState()
	s.mu.Unlock()
}

// Begin starts a transaction. The store mutex is held until Commit or
// Rollback, serializing writers; the staged state is discarded unless
// committed.
func (s *Store) Begin(_ context.Context) (storage.Tx, error) {
	s.mu.Lock()
	return &Tx{store: s, st: s.st.clone()}, nil
}

// Tx operates on a staged copy of the store state.
type Tx struct {
	store *Store
	st    *state
	done  bool
}

func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return errs.Persistence(errTxDone)
	}
	t.done = true
	t.store.st = t.st
	t.store.mu.Unlock()
	return nil
}

func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

var errTxDone = errorString("transaction already finished")

type errorString string

func (e errorString) Error() string { return string(e) }

// --- Accounts ---

func (s *state) getAccount(userID, accountID uuid.UUID) (billing.Account, error) {
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return billing.Account{}, errs.ErrNotFound
	}
	return a, nil
}

func (s *state) listAccounts(userID uuid.UUID) []billing.Account {
	out := make([]billing.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *state) createAccount(a billing.Account) billing.Account {
	s.accounts[a.ID] = a
	return a
}

func (s *state) updateAccountBalance(userID, accountID uuid.UUID, balance int64) error {
	a, err := s.getAccount(userID, accountID)
	if err != nil {
		return err
	}
	a.CurrentBalance = balance
	s.accounts[accountID] = a
	return nil
}

// --- Purchases ---

func (s *state) getPurchase(userID, purchaseID uuid.UUID) (billing.Purchase, error) {
	p, ok := s.purchases[purchaseID]
	if !ok || p.UserID != userID {
		return billing.Purchase{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *state) listPurchases(userID uuid.UUID) []billing.Purchase {
	out := make([]billing.Purchase, 0)
	for _, p := range s.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *state) findPurchaseByExternalID(userID uuid.UUID, externalID string) (billing.Purchase, bool) {
	if externalID == "" {
		return billing.Purchase{}, false
	}
	for _, p := range s.purchases {
		if p.UserID == userID && p.ExternalID == externalID {
			return p, true
		}
	}
	return billing.Purchase{}, false
}

func (s *state) deletePurchase(userID, purchaseID uuid.UUID) error {
	if _, err := s.getPurchase(userID, purchaseID); err != nil {
		return err
	}
	delete(s.purchases, purchaseID)
	for id, ins := range s.installments {
		if ins.PurchaseID == purchaseID {
			delete(s.installments, id)
		}
	}
	return nil
}

// --- Installments ---

func (s *state) getInstallment(userID, installmentID uuid.UUID) (billing.Installment, error) {
	ins, ok := s.installments[installmentID]
	if !ok || ins.UserID != userID {
		return billing.Installment{}, errs.ErrNotFound
	}
	return ins, nil
}

func (s *state) listInstallmentsByPurchase(userID, purchaseID uuid.UUID) []billing.Installment {
	out := make([]billing.Installment, 0)
	for _, ins := range s.installments {
		if ins.UserID == userID && ins.PurchaseID == purchaseID {
			out = append(out, ins)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (s *state) listInstallmentsByStatementMonth(userID, accountID uuid.UUID, ym billing.YearMonth) []billing.Installment {
	out := make([]billing.Installment, 0)
	for _, ins := range s.installments {
		if ins.UserID == userID && ins.AccountID == accountID && ins.StatementMonth == ym {
			out = append(out, ins)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PurchaseID != out[j].PurchaseID {
			return out[i].PurchaseID.String() < out[j].PurchaseID.String()
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func (s *state) listInstallmentsByAccount(userID, accountID uuid.UUID) []billing.Installment {
	out := make([]billing.Installment, 0)
	for _, ins := range s.installments {
		if ins.UserID == userID && ins.AccountID == accountID {
			out = append(out, ins)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.Before(out[j].PurchaseDate) })
	return out
}

func (s *state) createInstallments(ins []billing.Installment) {
	for _, i := range ins {
		s.installments[i.ID] = i
	}
}

func (s *state) deleteInstallmentsByPurchase(userID, purchaseID uuid.UUID) {
	for id, ins := range s.installments {
		if ins.UserID == userID && ins.PurchaseID == purchaseID {
			delete(s.installments, id)
		}
	}
}

func (s *state) updateInstallmentPurchaseDate(userID, installmentID uuid.UUID, date time.Time) error {
	ins, err := s.getInstallment(userID, installmentID)
	if err != nil {
		return err
	}
	ins.PurchaseDate = date
	s.installments[installmentID] = ins
	return nil
}

func (s *state) setInstallmentsPaid(userID, accountID uuid.UUID, ym billing.YearMonth, paidAt *time.Time) {
	for id, ins := range s.installments {
		if ins.UserID == userID && ins.AccountID == accountID && ins.StatementMonth == ym {
			ins.PaidAt = paidAt
			s.installments[id] = ins
		}
	}
}

// --- Statements ---

func (s *state) getStatement(userID, accountID uuid.UUID, ym billing.YearMonth) (billing.Statement, error) {
	for _, st := range s.statements {
		if st.UserID == userID && st.AccountID == accountID && st.YearMonth == ym {
			return st, nil
		}
	}
	return billing.Statement{}, errs.ErrNotFound
}

func (s *state) getStatementByID(userID, statementID uuid.UUID) (billing.Statement, error) {
	st, ok := s.statements[statementID]
	if !ok || st.UserID != userID {
		return billing.Statement{}, errs.ErrNotFound
	}
	return st, nil
}

func (s *state) listStatements(userID, accountID uuid.UUID) []billing.Statement {
	out := make([]billing.Statement, 0)
	for _, st := range s.statements {
		if st.UserID == userID && st.AccountID == accountID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].YearMonth.Before(out[j].YearMonth) })
	return out
}

func (s *state) createStatement(st billing.Statement) (billing.Statement, error) {
	// unique (account, month) backstop
	for _, other := range s.statements {
		if other.AccountID == st.AccountID && other.YearMonth == st.YearMonth {
			return billing.Statement{}, errs.ErrConflict
		}
	}
	s.statements[st.ID] = st
	return st, nil
}

func (s *state) updateStatement(st billing.Statement) (billing.Statement, error) {
	if _, err := s.getStatementByID(st.UserID, st.ID); err != nil {
		return billing.Statement{}, err
	}
	s.statements[st.ID] = st
	return st, nil
}

func (s *state) uncoveredStatementKeys(userID uuid.UUID) []billing.StatementKey {
	seen := make(map[billing.StatementKey]struct{})
	out := make([]billing.StatementKey, 0)
	for _, ins := range s.installments {
		if ins.UserID != userID {
			continue
		}
		acc, ok := s.accounts[ins.AccountID]
		if !ok || acc.Kind != billing.AccountCreditCard {
			continue
		}
		key := billing.StatementKey{AccountID: ins.AccountID, YearMonth: ins.StatementMonth}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, err := s.getStatement(userID, key.AccountID, key.YearMonth); err == nil {
			continue
		}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID.String() < out[j].AccountID.String()
		}
		return out[i].YearMonth.Before(out[j].YearMonth)
	})
	return out
}

// --- Transfers ---

func (s *state) listTransfers(userID uuid.UUID) []billing.Transfer {
	out := make([]billing.Transfer, 0)
	for _, t := range s.transfers {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (s *state) listTransfersByAccount(userID, accountID uuid.UUID) []billing.Transfer {
	out := make([]billing.Transfer, 0)
	for _, t := range s.transfers {
		if t.UserID != userID {
			continue
		}
		if (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
			(t.ToAccountID != nil && *t.ToAccountID == accountID) {
			out = append(out, t)
		}
	}
	return out
}

func (s *state) latestStatementPayment(userID, statementID uuid.UUID) (billing.Transfer, bool) {
	for i := len(s.transfers) - 1; i >= 0; i-- {
		t := s.transfers[i]
		if t.UserID == userID && t.Kind == billing.TransferStatementPayment &&
			t.StatementID != nil && *t.StatementID == statementID {
			return t, true
		}
	}
	return billing.Transfer{}, false
}

func (s *state) createTransfer(t billing.Transfer) billing.Transfer {
	s.transfers = append(s.transfers, t)
	return t
}
