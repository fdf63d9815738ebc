// Package httpapi wires the HTTP surface of the billing service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"log/slog"

	"github.com/tinoosan/billing/internal/service/account"
	"github.com/tinoosan/billing/internal/service/payment"
	"github.com/tinoosan/billing/internal/service/purchase"
	"github.com/tinoosan/billing/internal/service/statement"
	"github.com/tinoosan/billing/internal/storage"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	accountSvc   account.Service
	purchaseSvc  purchase.Service
	statementSvc statement.Service
	paymentSvc   payment.Service
	store        storage.Store
	log          *slog.Logger
	rt           *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(store storage.Store, accountSvc account.Service, purchaseSvc purchase.Service, statementSvc statement.Service, paymentSvc payment.Service, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		accountSvc:   accountSvc,
		purchaseSvc:  purchaseSvc,
		statementSvc: statementSvc,
		paymentSvc:   paymentSvc,
		store:        store,
		rt:           r,
		log:          logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Accounts (v1)
	s.rt.With(s.validatePostAccount()).Post("/v1/accounts", s.postAccount)
	s.rt.With(s.validateUserQuery()).Get("/v1/accounts", s.listAccounts)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	// Purchases (v1)
	s.rt.With(s.validatePostPurchase()).Post("/v1/purchases", s.postPurchase)
	s.rt.With(s.validateUserQuery()).Get("/v1/purchases", s.listPurchases)
	s.rt.Get("/v1/purchases/{id}", s.getPurchase)
	s.rt.Patch("/v1/purchases/{id}", s.patchPurchase)
	s.rt.Delete("/v1/purchases/{id}", s.deletePurchase)
	// Statements (v1)
	s.rt.With(s.validateUserQuery()).Get("/v1/statements", s.listStatements)
	s.rt.Get("/v1/statements/{id}", s.getStatement)
	s.rt.Post("/v1/statements/{id}/pay", s.payStatement)
	s.rt.Post("/v1/statements/{id}/unpay", s.unpayStatement)
	s.rt.Post("/v1/statements/{id}/convert", s.convertStatement)
	s.rt.Patch("/v1/statements/{id}/dates", s.patchStatementDates)
	s.rt.Post("/v1/statements/backfill", s.backfillStatements)
	// Transfers (v1)
	s.rt.With(s.validateUserQuery()).Get("/v1/transfers", s.listTransfers)
	// Dictionary (v1)
	s.rt.Get("/v1/dictionary/categories", s.getCategoriesDictionary)
	// Health + metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
