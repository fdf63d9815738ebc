package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/billing/internal/billing"
)

// Requests

type postAccountRequest struct {
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	Currency      string    `json:"currency"`
	ClosingDay    *int      `json:"closing_day,omitempty"`
	PaymentDueDay *int      `json:"payment_due_day,omitempty"`
}

type postPurchaseRequest struct {
	UserID           uuid.UUID         `json:"user_id"`
	AccountID        uuid.UUID         `json:"account_id"`
	Description      string            `json:"description"`
	TotalAmountCents int64             `json:"total_amount_cents"`
	InstallmentCount int               `json:"installment_count"`
	PurchaseDate     time.Time         `json:"purchase_date"`
	Category         string            `json:"category,omitempty"`
	ExternalID       string            `json:"external_id,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type patchPurchaseRequest struct {
	UserID           uuid.UUID         `json:"user_id"`
	Description      *string           `json:"description,omitempty"`
	TotalAmountCents *int64            `json:"total_amount_cents,omitempty"`
	InstallmentCount *int              `json:"installment_count,omitempty"`
	PurchaseDate     *time.Time        `json:"purchase_date,omitempty"`
	Category         *string           `json:"category,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type payStatementRequest struct {
	UserID        uuid.UUID  `json:"user_id"`
	FromAccountID uuid.UUID  `json:"from_account_id"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type userRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type convertStatementRequest struct {
	UserID        uuid.UUID `json:"user_id"`
	InstallmentID uuid.UUID `json:"installment_id"`
}

type patchStatementDatesRequest struct {
	UserID      uuid.UUID  `json:"user_id"`
	ClosingDate *time.Time `json:"closing_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
}

// Responses

type accountResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	Currency       string    `json:"currency"`
	ClosingDay     *int      `json:"closing_day,omitempty"`
	PaymentDueDay  *int      `json:"payment_due_day,omitempty"`
	BalanceCents   int64     `json:"balance_cents"`
	BalanceDisplay string    `json:"balance_display,omitempty"`
}

type installmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	PurchaseID     uuid.UUID  `json:"purchase_id"`
	AccountID      uuid.UUID  `json:"account_id"`
	AmountCents    int64      `json:"amount_cents"`
	PurchaseDate   time.Time  `json:"purchase_date"`
	StatementMonth string     `json:"statement_month"`
	DueDate        time.Time  `json:"due_date"`
	Number         int        `json:"number"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
}

type purchaseResponse struct {
	ID               uuid.UUID             `json:"id"`
	UserID           uuid.UUID             `json:"user_id"`
	AccountID        uuid.UUID             `json:"account_id"`
	Description      string                `json:"description"`
	TotalAmountCents int64                 `json:"total_amount_cents"`
	InstallmentCount int                   `json:"installment_count"`
	Category         string                `json:"category,omitempty"`
	ExternalID       string                `json:"external_id,omitempty"`
	Metadata         map[string]string     `json:"metadata,omitempty"`
	Installments     []installmentResponse `json:"installments,omitempty"`
}

type statementResponse struct {
	ID               uuid.UUID  `json:"id"`
	AccountID        uuid.UUID  `json:"account_id"`
	YearMonth        string     `json:"year_month"`
	ClosingDate      time.Time  `json:"closing_date"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	TotalAmountCents int64      `json:"total_amount_cents"`
	TotalDisplay     string     `json:"total_display,omitempty"`
	DueDate          time.Time  `json:"due_date"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	PaidFromAccount  *uuid.UUID `json:"paid_from_account_id,omitempty"`
}

type transferResponse struct {
	ID            uuid.UUID         `json:"id"`
	FromAccountID *uuid.UUID        `json:"from_account_id,omitempty"`
	ToAccountID   *uuid.UUID        `json:"to_account_id,omitempty"`
	AmountCents   int64             `json:"amount_cents"`
	Date          time.Time         `json:"date"`
	Kind          string            `json:"kind"`
	StatementID   *uuid.UUID        `json:"statement_id,omitempty"`
	ExternalID    string            `json:"external_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// formatAmount renders minor units in their currency for display, e.g.
// "USD 12.34". Empty on unknown currency; cents stay authoritative.
func formatAmount(currency string, cents int64) string {
	amt, err := money.NewAmountFromMinorUnits(currency, cents)
	if err != nil {
		return ""
	}
	return amt.String()
}

func toAccountResponse(a billing.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		Name:           a.Name,
		Kind:           string(a.Kind),
		Currency:       a.Currency,
		ClosingDay:     a.ClosingDay,
		PaymentDueDay:  a.PaymentDueDay,
		BalanceCents:   a.CurrentBalance,
		BalanceDisplay: formatAmount(a.Currency, a.CurrentBalance),
	}
}

func toInstallmentResponse(i billing.Installment) installmentResponse {
	return installmentResponse{
		ID:             i.ID,
		PurchaseID:     i.PurchaseID,
		AccountID:      i.AccountID,
		AmountCents:    i.AmountCents,
		PurchaseDate:   i.PurchaseDate,
		StatementMonth: i.StatementMonth.String(),
		DueDate:        i.DueDate,
		Number:         i.Number,
		PaidAt:         i.PaidAt,
	}
}

func toPurchaseResponse(p billing.Purchase, ins []billing.Installment) purchaseResponse {
	resp := purchaseResponse{
		ID:               p.ID,
		UserID:           p.UserID,
		AccountID:        p.AccountID,
		Description:      p.Description,
		TotalAmountCents: p.TotalAmountCents,
		InstallmentCount: p.InstallmentCount,
		Category:         p.Category,
		ExternalID:       p.ExternalID,
		Metadata:         p.Metadata,
	}
	for _, i := range ins {
		resp.Installments = append(resp.Installments, toInstallmentResponse(i))
	}
	return resp
}

func toStatementResponse(st billing.Statement, currency string) statementResponse {
	return statementResponse{
		ID:               st.ID,
		AccountID:        st.AccountID,
		YearMonth:        st.YearMonth.String(),
		ClosingDate:      st.ClosingDate,
		StartDate:        st.StartDate,
		TotalAmountCents: st.TotalAmountCents,
		TotalDisplay:     formatAmount(currency, st.TotalAmountCents),
		DueDate:          st.DueDate,
		PaidAt:           st.PaidAt,
		PaidFromAccount:  st.PaidFromAccountID,
	}
}

func toTransferResponse(t billing.Transfer) transferResponse {
	return transferResponse{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		AmountCents:   t.AmountCents,
		Date:          t.Date,
		Kind:          string(t.Kind),
		StatementID:   t.StatementID,
		ExternalID:    t.ExternalID,
		Metadata:      t.Metadata,
	}
}
