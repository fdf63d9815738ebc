package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
)

// Store methods take the lock per call; Tx methods run against the
// staged state while the lock is held by Begin.

func (s *Store) GetAccount(_ context.Context, userID, accountID uuid.UUID) (billing.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getAccount(userID, accountID)
}

func (s *Store) ListAccounts(_ context.Context, userID uuid.UUID) ([]billing.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listAccounts(userID), nil
}

func (s *Store) CreateAccount(_ context.Context, a billing.Account) (billing.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createAccount(a), nil
}

func (s *Store) UpdateAccountBalance(_ context.Context, userID, accountID uuid.UUID, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.updateAccountBalance(userID, accountID, balance)
}

func (s *Store) GetPurchase(_ context.Context, userID, purchaseID uuid.UUID) (billing.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getPurchase(userID, purchaseID)
}

func (s *Store) ListPurchases(_ context.Context, userID uuid.UUID) ([]billing.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listPurchases(userID), nil
}

func (s *Store) FindPurchaseByExternalID(_ context.Context, userID uuid.UUID, externalID string) (billing.Purchase, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.findPurchaseByExternalID(userID, externalID)
	return p, ok, nil
}

func (s *Store) CreatePurchase(_ context.Context, p billing.Purchase) (billing.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.purchases[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePurchase(_ context.Context, p billing.Purchase) (billing.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.st.getPurchase(p.UserID, p.ID); err != nil {
		return billing.Purchase{}, err
	}
	s.st.purchases[p.ID] = p
	return p, nil
}

func (s *Store) DeletePurchase(_ context.Context, userID, purchaseID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deletePurchase(userID, purchaseID)
}

func (s *Store) GetInstallment(_ context.Context, userID, installmentID uuid.UUID) (billing.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getInstallment(userID, installmentID)
}

func (s *Store) ListInstallmentsByPurchase(_ context.Context, userID, purchaseID uuid.UUID) ([]billing.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listInstallmentsByPurchase(userID, purchaseID), nil
}

func (s *Store) ListInstallmentsByStatementMonth(_ context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) ([]billing.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listInstallmentsByStatementMonth(userID, accountID, ym), nil
}

func (s *Store) ListInstallmentsByAccount(_ context.Context, userID, accountID uuid.UUID) ([]billing.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listInstallmentsByAccount(userID, accountID), nil
}

func (s *Store) CreateInstallments(_ context.Context, ins []billing.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.createInstallments(ins)
	return nil
}

func (s *Store) DeleteInstallmentsByPurchase(_ context.Context, userID, purchaseID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.deleteInstallmentsByPurchase(userID, purchaseID)
	return nil
}

func (s *Store) UpdateInstallmentPurchaseDate(_ context.Context, userID, installmentID uuid.UUID, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.updateInstallmentPurchaseDate(userID, installmentID, date)
}

func (s *Store) SetInstallmentsPaid(_ context.Context, userID, accountID uuid.UUID, ym billing.YearMonth, paidAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.setInstallmentsPaid(userID, accountID, ym, paidAt)
	return nil
}

func (s *Store) GetStatement(_ context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (billing.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getStatement(userID, accountID, ym)
}

func (s *Store) GetStatementByID(_ context.Context, userID, statementID uuid.UUID) (billing.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getStatementByID(userID, statementID)
}

func (s *Store) ListStatements(_ context.Context, userID, accountID uuid.UUID) ([]billing.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listStatements(userID, accountID), nil
}

func (s *Store) CreateStatement(_ context.Context, st billing.Statement) (billing.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createStatement(st)
}

func (s *Store) UpdateStatement(_ context.Context, st billing.Statement) (billing.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.updateStatement(st)
}

func (s *Store) UncoveredStatementKeys(_ context.Context, userID uuid.UUID) ([]billing.StatementKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.uncoveredStatementKeys(userID), nil
}

func (s *Store) ListTransfers(_ context.Context, userID uuid.UUID) ([]billing.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listTransfers(userID), nil
}

func (s *Store) ListTransfersByAccount(_ context.Context, userID, accountID uuid.UUID) ([]billing.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listTransfersByAccount(userID, accountID), nil
}

func (s *Store) LatestStatementPayment(_ context.Context, userID, statementID uuid.UUID) (billing.Transfer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.latestStatementPayment(userID, statementID)
	return t, ok, nil
}

func (s *Store) CreateTransfer(_ context.Context, t billing.Transfer) (billing.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createTransfer(t), nil
}

// --- Tx delegations ---

func (t *Tx) GetAccount(_ context.Context, userID, accountID uuid.UUID) (billing.Account, error) {
	return t.st.getAccount(userID, accountID)
}

func (t *Tx) ListAccounts(_ context.Context, userID uuid.UUID) ([]billing.Account, error) {
	return t.st.listAccounts(userID), nil
}

func (t *Tx) CreateAccount(_ context.Context, a billing.Account) (billing.Account, error) {
	return t.st.createAccount(a), nil
}

func (t *Tx) UpdateAccountBalance(_ context.Context, userID, accountID uuid.UUID, balance int64) error {
	return t.st.updateAccountBalance(userID, accountID, balance)
}

func (t *Tx) GetPurchase(_ context.Context, userID, purchaseID uuid.UUID) (billing.Purchase, error) {
	return t.st.getPurchase(userID, purchaseID)
}

func (t *Tx) ListPurchases(_ context.Context, userID uuid.UUID) ([]billing.Purchase, error) {
	return t.st.listPurchases(userID), nil
}

func (t *Tx) FindPurchaseByExternalID(_ context.Context, userID uuid.UUID, externalID string) (billing.Purchase, bool, error) {
	p, ok := t.st.findPurchaseByExternalID(userID, externalID)
	return p, ok, nil
}

func (t *Tx) CreatePurchase(_ context.Context, p billing.Purchase) (billing.Purchase, error) {
	t.st.purchases[p.ID] = p
	return p, nil
}

func (t *Tx) UpdatePurchase(_ context.Context, p billing.Purchase) (billing.Purchase, error) {
	if _, err := t.st.getPurchase(p.UserID, p.ID); err != nil {
		return billing.Purchase{}, err
	}
	t.st.purchases[p.ID] = p
	return p, nil
}

func (t *Tx) DeletePurchase(_ context.Context, userID, purchaseID uuid.UUID) error {
	return t.st.deletePurchase(userID, purchaseID)
}

func (t *Tx) GetInstallment(_ context.Context, userID, installmentID uuid.UUID) (billing.Installment, error) {
	return t.st.getInstallment(userID, installmentID)
}

func (t *Tx) ListInstallmentsByPurchase(_ context.Context, userID, purchaseID uuid.UUID) ([]billing.Installment, error) {
	return t.st.listInstallmentsByPurchase(userID, purchaseID), nil
}

func (t *Tx) ListInstallmentsByStatementMonth(_ context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) ([]billing.Installment, error) {
	return t.st.listInstallmentsByStatementMonth(userID, accountID, ym), nil
}

func (t *Tx) ListInstallmentsByAccount(_ context.Context, userID, accountID uuid.UUID) ([]billing.Installment, error) {
	return t.st.listInstallmentsByAccount(userID, accountID), nil
}

func (t *Tx) CreateInstallments(_ context.Context, ins []billing.Installment) error {
	t.st.createInstallments(ins)
	return nil
}

func (t *Tx) DeleteInstallmentsByPurchase(_ context.Context, userID, purchaseID uuid.UUID) error {
	t.st.deleteInstallmentsByPurchase(userID, purchaseID)
	return nil
}

func (t *Tx) UpdateInstallmentPurchaseDate(_ context.Context, userID, installmentID uuid.UUID, date time.Time) error {
	return t.st.updateInstallmentPurchaseDate(userID, installmentID, date)
}

func (t *Tx) SetInstallmentsPaid(_ context.Context, userID, accountID uuid.UUID, ym billing.YearMonth, paidAt *time.Time) error {
	t.st.setInstallmentsPaid(userID, accountID, ym, paidAt)
	return nil
}

func (t *Tx) GetStatement(_ context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (billing.Statement, error) {
	return t.st.getStatement(userID, accountID, ym)
}

func (t *Tx) GetStatementByID(_ context.Context, userID, statementID uuid.UUID) (billing.Statement, error) {
	return t.st.getStatementByID(userID, statementID)
}

func (t *Tx) ListStatements(_ context.Context, userID, accountID uuid.UUID) ([]billing.Statement, error) {
	return t.st.listStatements(userID, accountID), nil
}

func (t *Tx) CreateStatement(_ context.Context, st billing.Statement) (billing.Statement, error) {
	return t.st.createStatement(st)
}

func (t *Tx) UpdateStatement(_ context.Context, st billing.Statement) (billing.Statement, error) {
	return t.st.updateStatement(st)
}

func (t *Tx) UncoveredStatementKeys(_ context.Context, userID uuid.UUID) ([]billing.StatementKey, error) {
	return t.st.uncoveredStatementKeys(userID), nil
}

func (t *Tx) ListTransfers(_ context.Context, userID uuid.UUID) ([]billing.Transfer, error) {
	return t.st.listTransfers(userID), nil
}

func (t *Tx) ListTransfersByAccount(_ context.Context, userID, accountID uuid.UUID) ([]billing.Transfer, error) {
	return t.st.listTransfersByAccount(userID, accountID), nil
}

func (t *Tx) LatestStatementPayment(_ context.Context, userID, statementID uuid.UUID) (billing.Transfer, bool, error) {
	tr, ok := t.st.latestStatementPayment(userID, statementID)
	return tr, ok, nil
}

func (t *Tx) CreateTransfer(_ context.Context, tr billing.Transfer) (billing.Transfer, error) {
	return t.st.createTransfer(tr), nil
}
