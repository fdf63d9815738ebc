package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := r.Context().Value(ctxKeyPostAccount).(billing.Account)
	if !ok {
		badRequest(w, "missing validated payload")
		return
	}
	created, err := s.accountSvc.Create(r.Context(), a)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(ctxKeyUserID).(uuid.UUID)
	accounts, err := s.accountSvc.List(r.Context(), userID)
	if err != nil {
		respondErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, struct {
		Items []accountResponse `json:"items"`
	}{Items: out})
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.userAndPathID(w, r)
	if !ok {
		return
	}
	a, err := s.accountSvc.Get(r.Context(), userID, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

// userAndPathID parses the user_id query param and the {id} path param.
func (s *Server) userAndPathID(w http.ResponseWriter, r *http.Request) (userID, id uuid.UUID, ok bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		badRequest(w, "user_id is required")
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid user_id")
		return
	}
	id, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	return userID, id, true
}
