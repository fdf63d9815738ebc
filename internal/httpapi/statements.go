package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/service/statement"
)

func (s *Server) listStatements(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(ctxKeyUserID).(uuid.UUID)
	raw := r.URL.Query().Get("account_id")
	if raw == "" {
		badRequest(w, "account_id is required")
		return
	}
	accountID, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid account_id")
		return
	}
	statements, err := s.statementSvc.List(r.Context(), userID, accountID)
	if err != nil {
		respondErr(w, err)
		return
	}
	currency := s.accountCurrency(r, userID, accountID)
	out := make([]statementResponse, 0, len(statements))
	for _, st := range statements {
		out = append(out, toStatementResponse(st, currency))
	}
	toJSON(w, http.StatusOK, struct {
		Items []statementResponse `json:"items"`
	}{Items: out})
}

func (s *Server) getStatement(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.userAndPathID(w, r)
	if !ok {
		return
	}
	st, err := s.statementSvc.Get(r.Context(), userID, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementResponse(st, s.accountCurrency(r, userID, st.AccountID)))
}

func (s *Server) payStatement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req payStatementRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}
	st, err := s.paymentSvc.Pay(r.Context(), req.UserID, id, req.FromAccountID, paidAt)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementResponse(st, s.accountCurrency(r, req.UserID, st.AccountID)))
}

func (s *Server) unpayStatement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req userRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	st, err := s.paymentSvc.Unpay(r.Context(), req.UserID, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementResponse(st, s.accountCurrency(r, req.UserID, st.AccountID)))
}

func (s *Server) convertStatement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req convertStatementRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	tr, err := s.paymentSvc.Convert(r.Context(), req.UserID, req.InstallmentID, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransferResponse(tr))
}

func (s *Server) patchStatementDates(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req patchStatementDatesRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	st, err := s.statementSvc.UpdateDates(r.Context(), req.UserID, id, statement.DateChanges{
		ClosingDate: req.ClosingDate,
		DueDate:     req.DueDate,
		StartDate:   req.StartDate,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementResponse(st, s.accountCurrency(r, req.UserID, st.AccountID)))
}

func (s *Server) backfillStatements(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	created, err := s.statementSvc.Backfill(r.Context(), req.UserID)
	if err != nil {
		respondErr(w, err)
		return
	}
	statementsBackfilled.Add(float64(created))
	toJSON(w, http.StatusOK, struct {
		Created int `json:"created"`
	}{Created: created})
}

// accountCurrency resolves the currency for display formatting; empty
// on lookup failure, the response then carries cents only.
func (s *Server) accountCurrency(r *http.Request, userID, accountID uuid.UUID) string {
	a, err := s.store.GetAccount(r.Context(), userID, accountID)
	if err != nil {
		return ""
	}
	return a.Currency
}
