package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
)

func (s *Server) listTransfers(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(ctxKeyUserID).(uuid.UUID)
	var transfers []billing.Transfer
	var err error
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		accountID, perr := uuid.Parse(raw)
		if perr != nil {
			badRequest(w, "invalid account_id")
			return
		}
		transfers, err = s.store.ListTransfersByAccount(r.Context(), userID, accountID)
	} else {
		transfers, err = s.store.ListTransfers(r.Context(), userID)
	}
	if err != nil {
		respondErr(w, err)
		return
	}
	out := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, toTransferResponse(t))
	}
	toJSON(w, http.StatusOK, struct {
		Items []transferResponse `json:"items"`
	}{Items: out})
}
