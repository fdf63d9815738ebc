package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/meta"
	"github.com/tinoosan/billing/internal/service/purchase"
)

type ctxKey string

const ctxKeyPostAccount ctxKey = "validatedPostAccount"
const ctxKeyPostPurchase ctxKey = "validatedPostPurchase"
const ctxKeyUserID ctxKey = "validatedUserID"

// validatePostAccount parses and validates POST /accounts body and
// stores the domain Account in the request context for the handler.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postAccountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			a := billing.Account{
				UserID:        req.UserID,
				Name:          req.Name,
				Kind:          billing.AccountKind(req.Kind),
				Currency:      req.Currency,
				ClosingDay:    req.ClosingDay,
				PaymentDueDay: req.PaymentDueDay,
			}
			if err := s.accountSvc.ValidateCreate(a); err != nil {
				respondErr(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostPurchase parses POST /purchases and stores a CreateInput.
func (s *Server) validatePostPurchase() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postPurchaseRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.UserID == uuid.Nil || req.AccountID == uuid.Nil {
				badRequest(w, "user_id and account_id are required")
				return
			}
			if req.Metadata != nil {
				if err := meta.New(req.Metadata).Validate(); err != nil {
					writeErr(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
					return
				}
			}
			in := purchase.CreateInput{
				AccountID:        req.AccountID,
				Description:      req.Description,
				TotalAmountCents: req.TotalAmountCents,
				InstallmentCount: req.InstallmentCount,
				PurchaseDate:     req.PurchaseDate.UTC(),
				Category:         req.Category,
				ExternalID:       req.ExternalID,
				Metadata:         meta.New(req.Metadata),
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostPurchase, postPurchaseCtx{UserID: req.UserID, Input: in})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type postPurchaseCtx struct {
	UserID uuid.UUID
	Input  purchase.CreateInput
}

// validateUserQuery requires a parseable user_id query parameter and
// stores it in the context for list handlers.
func (s *Server) validateUserQuery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
