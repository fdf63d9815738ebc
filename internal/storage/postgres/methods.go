package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
)

// Store methods run against the pool; Tx methods run against the open
// transaction. Both delegate to the shared query functions.

func (s *Store) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (billing.Account, error) {
	return getAccount(ctx, s.pool, userID, accountID)
}

func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID) ([]billing.Account, error) {
	return listAccounts(ctx, s.pool, userID)
}

func (s *Store) CreateAccount(ctx context.Context, a billing.Account) (billing.Account, error) {
	return createAccount(ctx, s.pool, a)
}

func (s *Store) UpdateAccountBalance(ctx context.Context, userID, accountID uuid.UUID, balanceCents int64) error {
	return updateAccountBalance(ctx, s.pool, userID, accountID, balanceCents)
}

func (s *Store) GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (billing.Purchase, error) {
	return getPurchase(ctx, s.pool, userID, purchaseID)
}

func (s *Store) ListPurchases(ctx context.Context, userID uuid.UUID) ([]billing.Purchase, error) {
	return listPurchases(ctx, s.pool, userID)
}

func (s *Store) FindPurchaseByExternalID(ctx context.Context, userID uuid.UUID, externalID string) (billing.Purchase, bool, error) {
	return findPurchaseByExternalID(ctx, s.pool, userID, externalID)
}

func (s *Store) CreatePurchase(ctx context.Context, p billing.Purchase) (billing.Purchase, error) {
	return createPurchase(ctx, s.pool, p)
}

func (s *Store) UpdatePurchase(ctx context.Context, p billing.Purchase) (billing.Purchase, error) {
	return updatePurchase(ctx, s.pool, p)
}

func (s *Store) DeletePurchase(ctx context.Context, userID, purchaseID uuid.UUID) error {
	return deletePurchase(ctx, s.pool, userID, purchaseID)
}

func (s *Store) GetInstallment(ctx context.Context, userID, installmentID uuid.UUID) (billing.Installment, error) {
	return getInstallment(ctx, s.pool, userID, installmentID)
}

func (s *Store) ListInstallmentsByPurchase(ctx context.Context, userID, purchaseID uuid.UUID) ([]billing.Installment, error) {
	return listInstallmentsByPurchase(ctx, s.pool, userID, purchaseID)
}

func (s *Store) ListInstallmentsByStatementMonth(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) ([]billing.Installment, error) {
	return listInstallmentsByStatementMonth(ctx, s.pool, userID, accountID, ym)
}

func (s *Store) ListInstallmentsByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Installment, error) {
	return listInstallmentsByAccount(ctx, s.pool, userID, accountID)
}

func (s *Store) CreateInstallments(ctx context.Context, ins []billing.Installment) error {
	return createInstallments(ctx, s.pool, ins)
}

func (s *Store) DeleteInstallmentsByPurchase(ctx context.Context, userID, purchaseID uuid.UUID) error {
	return deleteInstallmentsByPurchase(ctx, s.pool, userID, purchaseID)
}

func (s *Store) UpdateInstallmentPurchaseDate(ctx context.Context, userID, installmentID uuid.UUID, date time.Time) error {
	return updateInstallmentPurchaseDate(ctx, s.pool, userID, installmentID, date)
}

func (s *Store) SetInstallmentsPaid(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth, paidAt *time.Time) error {
	return setInstallmentsPaid(ctx, s.pool, userID, accountID, ym, paidAt)
}

func (s *Store) GetStatement(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (billing.Statement, error) {
	return getStatement(ctx, s.pool, userID, accountID, ym)
}

func (s *Store) GetStatementByID(ctx context.Context, userID, statementID uuid.UUID) (billing.Statement, error) {
	return getStatementByID(ctx, s.pool, userID, statementID)
}

func (s *Store) ListStatements(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Statement, error) {
	return listStatements(ctx, s.pool, userID, accountID)
}

func (s *Store) UncoveredStatementKeys(ctx context.Context, userID uuid.UUID) ([]billing.StatementKey, error) {
	return uncoveredStatementKeys(ctx, s.pool, userID)
}

func (s *Store) CreateStatement(ctx context.Context, st billing.Statement) (billing.Statement, error) {
	return createStatement(ctx, s.pool, st)
}

func (s *Store) UpdateStatement(ctx context.Context, st billing.Statement) (billing.Statement, error) {
	return updateStatement(ctx, s.pool, st)
}

func (s *Store) ListTransfers(ctx context.Context, userID uuid.UUID) ([]billing.Transfer, error) {
	return listTransfers(ctx, s.pool, userID)
}

func (s *Store) ListTransfersByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Transfer, error) {
	return listTransfersByAccount(ctx, s.pool, userID, accountID)
}

func (s *Store) LatestStatementPayment(ctx context.Context, userID, statementID uuid.UUID) (billing.Transfer, bool, error) {
	return latestStatementPayment(ctx, s.pool, userID, statementID)
}

func (s *Store) CreateTransfer(ctx context.Context, t billing.Transfer) (billing.Transfer, error) {
	return createTransfer(ctx, s.pool, t)
}

func (t *Tx) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (billing.Account, error) {
	return getAccount(ctx, t.tx, userID, accountID)
}

func (t *Tx) ListAccounts(ctx context.Context, userID uuid.UUID) ([]billing.Account, error) {
	return listAccounts(ctx, t.tx, userID)
}

func (t *Tx) CreateAccount(ctx context.Context, a billing.Account) (billing.Account, error) {
	return createAccount(ctx, t.tx, a)
}

func (t *Tx) UpdateAccountBalance(ctx context.Context, userID, accountID uuid.UUID, balanceCents int64) error {
	return updateAccountBalance(ctx, t.tx, userID, accountID, balanceCents)
}

func (t *Tx) GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (billing.Purchase, error) {
	return getPurchase(ctx, t.tx, userID, purchaseID)
}

func (t *Tx) ListPurchases(ctx context.Context, userID uuid.UUID) ([]billing.Purchase, error) {
	return listPurchases(ctx, t.tx, userID)
}

func (t *Tx) FindPurchaseByExternalID(ctx context.Context, userID uuid.UUID, externalID string) (billing.Purchase, bool, error) {
	return findPurchaseByExternalID(ctx, t.tx, userID, externalID)
}

func (t *Tx) CreatePurchase(ctx context.Context, p billing.Purchase) (billing.Purchase, error) {
	return createPurchase(ctx, t.tx, p)
}

func (t *Tx) UpdatePurchase(ctx context.Context, p billing.Purchase) (billing.Purchase, error) {
	return updatePurchase(ctx, t.tx, p)
}

func (t *Tx) DeletePurchase(ctx context.Context, userID, purchaseID uuid.UUID) error {
	return deletePurchase(ctx, t.tx, userID, purchaseID)
}

func (t *Tx) GetInstallment(ctx context.Context, userID, installmentID uuid.UUID) (billing.Installment, error) {
	return getInstallment(ctx, t.tx, userID, installmentID)
}

func (t *Tx) ListInstallmentsByPurchase(ctx context.Context, userID, purchaseID uuid.UUID) ([]billing.Installment, error) {
	return listInstallmentsByPurchase(ctx, t.tx, userID, purchaseID)
}

func (t *Tx) ListInstallmentsByStatementMonth(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) ([]billing.Installment, error) {
	return listInstallmentsByStatementMonth(ctx, t.tx, userID, accountID, ym)
}

func (t *Tx) ListInstallmentsByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Installment, error) {
	return listInstallmentsByAccount(ctx, t.tx, userID, accountID)
}

func (t *Tx) CreateInstallments(ctx context.Context, ins []billing.Installment) error {
	return createInstallments(ctx, t.tx, ins)
}

func (t *Tx) DeleteInstallmentsByPurchase(ctx context.Context, userID, purchaseID uuid.UUID) error {
	return deleteInstallmentsByPurchase(ctx, t.tx, userID, purchaseID)
}

func (t *Tx) UpdateInstallmentPurchaseDate(ctx context.Context, userID, installmentID uuid.UUID, date time.Time) error {
	return updateInstallmentPurchaseDate(ctx, t.tx, userID, installmentID, date)
}

func (t *Tx) SetInstallmentsPaid(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth, paidAt *time.Time) error {
	return setInstallmentsPaid(ctx, t.tx, userID, accountID, ym, paidAt)
}

func (t *Tx) GetStatement(ctx context.Context, userID, accountID uuid.UUID, ym billing.YearMonth) (billing.Statement, error) {
	return getStatement(ctx, t.tx, userID, accountID, ym)
}

func (t *Tx) GetStatementByID(ctx context.Context, userID, statementID uuid.UUID) (billing.Statement, error) {
	return getStatementByID(ctx, t.tx, userID, statementID)
}

func (t *Tx) ListStatements(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Statement, error) {
	return listStatements(ctx, t.tx, userID, accountID)
}

func (t *Tx) UncoveredStatementKeys(ctx context.Context, userID uuid.UUID) ([]billing.StatementKey, error) {
	return uncoveredStatementKeys(ctx, t.tx, userID)
}

func (t *Tx) CreateStatement(ctx context.Context, st billing.Statement) (billing.Statement, error) {
	return createStatement(ctx, t.tx, st)
}

func (t *Tx) UpdateStatement(ctx context.Context, st billing.Statement) (billing.Statement, error) {
	return updateStatement(ctx, t.tx, st)
}

func (t *Tx) ListTransfers(ctx context.Context, userID uuid.UUID) ([]billing.Transfer, error) {
	return listTransfers(ctx, t.tx, userID)
}

func (t *Tx) ListTransfersByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]billing.Transfer, error) {
	return listTransfersByAccount(ctx, t.tx, userID, accountID)
}

func (t *Tx) LatestStatementPayment(ctx context.Context, userID, statementID uuid.UUID) (billing.Transfer, bool, error) {
	return latestStatementPayment(ctx, t.tx, userID, statementID)
}

func (t *Tx) CreateTransfer(ctx context.Context, tr billing.Transfer) (billing.Transfer, error) {
	return createTransfer(ctx, t.tx, tr)
}
