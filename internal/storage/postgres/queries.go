package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/errs"
	"github.com/tinoosan/billing/internal/meta"
)

// Year-months travel as "YYYY-MM" text, matching the year_month and
// statement_month columns.

// --- Accounts ---

const accountCols = `id, user_id, name, kind, currency, closing_day, payment_due_day, balance_cents`

func scanAccount(row pgx.Row) (billing.Account, error) {
	var a billing.Account
	var kind string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &kind, &a.Currency, &a.ClosingDay, &a.PaymentDueDay, &a.CurrentBalance)
	if err != nil {
		return billing.Account{}, err
	}
	a.Kind = billing.AccountKind(kind)
	return a, nil
}

func getAccount(ctx context.Context, q querier, userID, accountID uuid.UUID) (billing.Account, error) {
	a, err := scanAccount(q.QueryRow(ctx, `
		select `+accountCols+` from accounts where id = $1 and user_id = $2
	`, accountID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return billing.Account{}, mapErr(err)
	}
	return a, nil
}

func listAccounts(ctx context.Context, q querier, userID uuid.UUID) ([]billing.Account, error) {
	rows, err := q.Query(ctx, `
		select `+accountCols+` from accounts where user_id = $1 order by name, id
	`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]billing.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}

func createAccount(ctx context.Context, q querier, a billing.Account) (billing.Account, error) {
	_, err := q.Exec(ctx, `
		insert into accounts (id, user_id, name, kind, currency, closing_day, payment_due_day, balance_cents)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, a.ID, a.UserID, a.Name, string(a.Kind), strings.ToUpper(a.Currency), a.ClosingDay, a.PaymentDueDay, a.CurrentBalance)
	if err != nil {
		return billing.Account{}, mapErr(err)
	}
	return a, nil
}

func updateAccountBalance(ctx context.Context, q querier, userID, accountID uuid.UUID, balanceCents int64) error {
	ct, err := q.Exec(ctx, `
		update accounts set balance_cents = $1 where id = $2 and user_id = $3
	`, balanceCents, accountID, userID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Purchases ---

const purchaseCols = `id, user_id, account_id, description, total_amount_cents, installment_count, category, external_id, metadata`

func scanPurchase(row pgx.Row) (billing.Purchase, error) {
	var p billing.Purchase
	var mdBytes []byte
	err := row.Scan(&p.ID, &p.UserID, &p.AccountID, &p.Description, &p.TotalAmountCents, &p.InstallmentCount, &p.Category, &p.ExternalID, &mdBytes)
	if err != nil {
		return billing.Purchase{}, err
	}
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			p.Metadata = m
		}
	}
	return p, nil
}

func getPurchase(ctx context.Context, q querier, userID, purchaseID uuid.UUID) (billing.Purchase, error) {
	p, err := scanPurchase(q.QueryRow(ctx, `
		select `+purchaseCols+` from purchases where id = $1 and user_id = $2
	`, purchaseID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Purchase{}, errs.ErrNotFound
	}
	if err != nil {
		return billing.Purchase{}, mapErr(err)
	}
	return p, nil
}

func listPurchases(ctx context.Context, q querier, userID uuid.UUID) ([]billing.Purchase, error) {
	rows, err := q.Query(ctx, `
		select `+purchaseCols+` from purchases where user_id = $1 order by id
	`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]billing.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}

func findPurchaseByExternalID(ctx context.Context, q querier, userID uuid.UUID, externalID string) (billing.Purchase, bool, error) {
	p, err := scanPurchase(q.QueryRow(ctx, `
		select `+purchaseCols+` from purchases where user_id = $1 and external_id = $2
	`, userID, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Purchase{}, false, nil
	}
	if err != nil {
		return billing.Purchase{}, false, mapErr(err)
	}
	return p, true, nil
}

func createPurchase(ctx context.Context, q querier, p billing.Purchase) (billing.Purchase, error) {
	md, _ := p.Metadata.MarshalStableJSON()
	_, err := q.Exec(ctx, `
		insert into purchases (id, user_id, account_id, description, total_amount_cents, installment_count, category, external_id, metadata)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, p.ID, p.UserID, p.AccountID, p.Description, p.TotalAmountCents, p.InstallmentCount, p.Category, p.ExternalID, md)
	if err != nil {
		return billing.Purchase{}, mapErr(err)
	}
	return p, nil
}

func updatePurchase(ctx context.Context, q querier, p billing.Purchase) (billing.Purchase, error) {
	md, _ := p.Metadata.MarshalStableJSON()
	ct, err := q.Exec(ctx, `
		update purchases
		set description=$1, total_amount_cents=$2, installment_count=$3, category=$4, metadata=$5
		where id=$6 and user_id=$7
	`, p.Description, p.TotalAmountCents, p.InstallmentCount, p.Category, md, p.ID, p.UserID)
	if err != nil {
		return billing.Purchase{}, mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return billing.Purchase{}, errs.ErrNotFound
	}
	return p, nil
}

func deletePurchase(ctx context.Context, q querier, userID, purchaseID uuid.UUID) error {
	// installments cascade via FK
	ct, err := q.Exec(ctx, `
		delete from purchases where id = $1 and user_id = $2
	`, purchaseID, userID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Installments ---

const installmentCols = `id, user_id, purchase_id, account_id, amount_cents, purchase_date, statement_month, due_date, number, paid_at`

func scanInstallment(row pgx.Row) (billing.Installment, error) {
	var i billing.Installment
	var ym string
	err := row.Scan(&i.ID, &i.UserID, &i.PurchaseID, &i.AccountID, &i.AmountCents, &i.PurchaseDate, &ym, &i.DueDate, &i.Number, &i.PaidAt)
	if err != nil {
		return billing.Installment{}, err
	}
	m, err := billing.ParseYearMonth(ym)
	if err != nil {
		return billing.Installment{}, err
	}
	i.StatementMonth = m
	return i, nil
}

func installmentRows(rows pgx.Rows, err error) ([]billing.Installment, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]billing.Installment, 0)
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, i)
	}
	return out, mapErr(rows.Err())
}

func getInstallment(ctx context.Context, q querier, userID, installmentID uuid.UUID) (billing.Installment, error) {
	i, err := scanInstallment(q.QueryRow(ctx, `
		select `+installmentCols+` from installments where id = $1 and user_id = $2
	`, installmentID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Installment{}, errs.ErrNotFound
	}
	if err != nil {
		return billing.Installment{}, mapErr(err)
	}
	return i, nil
}

func listInstallmentsByPurchase(ctx context.Context, q querier, userID, purchaseID uuid.UUID) ([]billing.Installment, error) {
	return installmentRows(q.Query(ctx, `
		select `+installmentCols+` from installments
		where user_id = $1 and purchase_id = $2
		order by number
	`, userID, purchaseID))
}

func listInstallmentsByStatementMonth(ctx context.Context, q querier, userID, accountID uuid.UUID, ym billing.YearMonth) ([]billing.Installment, error) {
	return installmentRows(q.Query(ctx, `
		select `+installmentCols+` from installments
		where user_id = $1 and account_id = $2 and statement_month = $3
		order by purchase_id, number
	`, userID, accountID, ym.String()))
}

func listInstallmentsByAccount(ctx context.Context, q querier, userID, accountID uuid.UUID) ([]billing.Installment, error) {
	return installmentRows(q.Query(ctx, `
		select `+installmentCols+` from installments
		where user_id = $1 and account_id = $2
		order by statement_month, purchase_id, number
	`, userID, accountID))
}

func createInstallments(ctx context.Context, q querier, ins []billing.Installment) error {
	for _, i := range ins {
		if _, err := q.Exec(ctx, `
			insert into installments (id, user_id, purchase_id, account_id, amount_cents, purchase_date, statement_month, due_date, number, paid_at)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, i.ID, i.UserID, i.PurchaseID, i.AccountID, i.AmountCents, i.PurchaseDate, i.StatementMonth.String(), i.DueDate, i.Number, i.PaidAt); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func deleteInstallmentsByPurchase(ctx context.Context, q querier, userID, purchaseID uuid.UUID) error {
	_, err := q.Exec(ctx, `
		delete from installments where user_id = $1 and purchase_id = $2
	`, userID, purchaseID)
	return mapErr(err)
}

func updateInstallmentPurchaseDate(ctx context.Context, q querier, userID, installmentID uuid.UUID, date time.Time) error {
	ct, err := q.Exec(ctx, `
		update installments set purchase_date = $1 where id = $2 and user_id = $3
	`, date, installmentID, userID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func setInstallmentsPaid(ctx context.Context, q querier, userID, accountID uuid.UUID, ym billing.YearMonth, paidAt *time.Time) error {
	_, err := q.Exec(ctx, `
		update installments set paid_at = $1
		where user_id = $2 and account_id = $3 and statement_month = $4
	`, paidAt, userID, accountID, ym.String())
	return mapErr(err)
}

// --- Statements ---

const statementCols = `id, user_id, account_id, year_month, closing_date, start_date, total_amount_cents, due_date, paid_at, paid_from_account_id`

func scanStatement(row pgx.Row) (billing.Statement, error) {
	var st billing.Statement
	var ym string
	err := row.Scan(&st.ID, &st.UserID, &st.AccountID, &ym, &st.ClosingDate, &st.StartDate, &st.TotalAmountCents, &st.DueDate, &st.PaidAt, &st.PaidFromAccountID)
	if err != nil {
		return billing.Statement{}, err
	}
	m, err := billing.ParseYearMonth(ym)
	if err != nil {
		return billing.Statement{}, err
	}
	st.YearMonth = m
	return st, nil
}

func getStatement(ctx context.Context, q querier, userID, accountID uuid.UUID, ym billing.YearMonth) (billing.Statement, error) {
	st, err := scanStatement(q.QueryRow(ctx, `
		select `+statementCols+` from statements
		where user_id = $1 and account_id = $2 and year_month = $3
	`, userID, accountID, ym.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Statement{}, errs.ErrNotFound
	}
	if err != nil {
		return billing.Statement{}, mapErr(err)
	}
	return st, nil
}

func getStatementByID(ctx context.Context, q querier, userID, statementID uuid.UUID) (billing.Statement, error) {
	st, err := scanStatement(q.QueryRow(ctx, `
		select `+statementCols+` from statements where id = $1 and user_id = $2
	`, statementID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Statement{}, errs.ErrNotFound
	}
	if err != nil {
		return billing.Statement{}, mapErr(err)
	}
	return st, nil
}

func listStatements(ctx context.Context, q querier, userID, accountID uuid.UUID) ([]billing.Statement, error) {
	rows, err := q.Query(ctx, `
		select `+statementCols+` from statements
		where user_id = $1 and account_id = $2
		order by year_month
	`, userID, accountID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]billing.Statement, 0)
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, st)
	}
	return out, mapErr(rows.Err())
}

func uncoveredStatementKeys(ctx context.Context, q querier, userID uuid.UUID) ([]billing.StatementKey, error) {
	rows, err := q.Query(ctx, `
		select distinct i.account_id, i.statement_month
		from installments i
		join accounts a on a.id = i.account_id and a.kind = 'credit_card'
		where i.user_id = $1
		  and not exists (
			select 1 from statements s
			where s.user_id = i.user_id and s.account_id = i.account_id and s.year_month = i.statement_month
		  )
		order by i.account_id, i.statement_month
	`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]billing.StatementKey, 0)
	for rows.Next() {
		var key billing.StatementKey
		var ym string
		if err := rows.Scan(&key.AccountID, &ym); err != nil {
			return nil, mapErr(err)
		}
		m, err := billing.ParseYearMonth(ym)
		if err != nil {
			return nil, err
		}
		key.YearMonth = m
		out = append(out, key)
	}
	return out, mapErr(rows.Err())
}

func createStatement(ctx context.Context, q querier, st billing.Statement) (billing.Statement, error) {
	// the unique (account_id, year_month) index is the concurrency
	// backstop; 23505 surfaces as ErrConflict via mapErr
	_, err := q.Exec(ctx, `
		insert into statements (id, user_id, account_id, year_month, closing_date, start_date, total_amount_cents, due_date, paid_at, paid_from_account_id)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, st.ID, st.UserID, st.AccountID, st.YearMonth.String(), st.ClosingDate, st.StartDate, st.TotalAmountCents, st.DueDate, st.PaidAt, st.PaidFromAccountID)
	if err != nil {
		return billing.Statement{}, mapErr(err)
	}
	return st, nil
}

func updateStatement(ctx context.Context, q querier, st billing.Statement) (billing.Statement, error) {
	ct, err := q.Exec(ctx, `
		update statements
		set closing_date=$1, start_date=$2, total_amount_cents=$3, due_date=$4, paid_at=$5, paid_from_account_id=$6
		where id=$7 and user_id=$8
	`, st.ClosingDate, st.StartDate, st.TotalAmountCents, st.DueDate, st.PaidAt, st.PaidFromAccountID, st.ID, st.UserID)
	if err != nil {
		return billing.Statement{}, mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return billing.Statement{}, errs.ErrNotFound
	}
	return st, nil
}

// --- Transfers ---

const transferCols = `id, user_id, from_account_id, to_account_id, amount_cents, date, kind, statement_id, external_id, metadata`

func scanTransfer(row pgx.Row) (billing.Transfer, error) {
	var t billing.Transfer
	var kind string
	var mdBytes []byte
	err := row.Scan(&t.ID, &t.UserID, &t.FromAccountID, &t.ToAccountID, &t.AmountCents, &t.Date, &kind, &t.StatementID, &t.ExternalID, &mdBytes)
	if err != nil {
		return billing.Transfer{}, err
	}
	t.Kind = billing.TransferKind(kind)
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			t.Metadata = m
		}
	}
	return t, nil
}

func transferRows(rows pgx.Rows, err error) ([]billing.Transfer, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]billing.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, t)
	}
	return out, mapErr(rows.Err())
}

func listTransfers(ctx context.Context, q querier, userID uuid.UUID) ([]billing.Transfer, error) {
	return transferRows(q.Query(ctx, `
		select `+transferCols+` from transfers where user_id = $1 order by seq
	`, userID))
}

func listTransfersByAccount(ctx context.Context, q querier, userID, accountID uuid.UUID) ([]billing.Transfer, error) {
	return transferRows(q.Query(ctx, `
		select `+transferCols+` from transfers
		where user_id = $1 and (from_account_id = $2 or to_account_id = $2)
		order by seq
	`, userID, accountID))
}

func latestStatementPayment(ctx context.Context, q querier, userID, statementID uuid.UUID) (billing.Transfer, bool, error) {
	t, err := scanTransfer(q.QueryRow(ctx, `
		select `+transferCols+` from transfers
		where user_id = $1 and statement_id = $2 and kind = 'statement_payment'
		order by seq desc
		limit 1
	`, userID, statementID))
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Transfer{}, false, nil
	}
	if err != nil {
		return billing.Transfer{}, false, mapErr(err)
	}
	return t, true, nil
}

func createTransfer(ctx context.Context, q querier, t billing.Transfer) (billing.Transfer, error) {
	md, _ := t.Metadata.MarshalStableJSON()
	_, err := q.Exec(ctx, `
		insert into transfers (id, user_id, from_account_id, to_account_id, amount_cents, date, kind, statement_id, external_id, metadata)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, t.ID, t.UserID, t.FromAccountID, t.ToAccountID, t.AmountCents, t.Date, string(t.Kind), t.StatementID, t.ExternalID, md)
	if err != nil {
		return billing.Transfer{}, mapErr(err)
	}
	return t, nil
}
