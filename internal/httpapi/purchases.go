package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/meta"
	"github.com/tinoosan/billing/internal/service/purchase"
)

func (s *Server) postPurchase(w http.ResponseWriter, r *http.Request) {
	pc, ok := r.Context().Value(ctxKeyPostPurchase).(postPurchaseCtx)
	if !ok {
		badRequest(w, "missing validated payload")
		return
	}
	p, ins, err := s.purchaseSvc.Create(r.Context(), pc.UserID, pc.Input)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toPurchaseResponse(p, ins))
}

func (s *Server) listPurchases(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(ctxKeyUserID).(uuid.UUID)
	purchases, err := s.purchaseSvc.List(r.Context(), userID)
	if err != nil {
		respondErr(w, err)
		return
	}
	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p, nil))
	}
	toJSON(w, http.StatusOK, struct {
		Items []purchaseResponse `json:"items"`
	}{Items: out})
}

func (s *Server) getPurchase(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.userAndPathID(w, r)
	if !ok {
		return
	}
	p, ins, err := s.purchaseSvc.Get(r.Context(), userID, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toPurchaseResponse(p, ins))
}

func (s *Server) patchPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req patchPurchaseRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	in := purchase.UpdateInput{
		Description:      req.Description,
		TotalAmountCents: req.TotalAmountCents,
		InstallmentCount: req.InstallmentCount,
		Category:         req.Category,
	}
	if req.PurchaseDate != nil {
		d := req.PurchaseDate.UTC()
		in.PurchaseDate = &d
	}
	if req.Metadata != nil {
		in.Metadata = meta.New(req.Metadata)
	}
	p, err := s.purchaseSvc.Update(r.Context(), req.UserID, id, in)
	if err != nil {
		respondErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toPurchaseResponse(p, nil))
}

func (s *Server) deletePurchase(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.userAndPathID(w, r)
	if !ok {
		return
	}
	if err := s.purchaseSvc.Delete(r.Context(), userID, id); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
