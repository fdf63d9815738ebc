package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"log/slog"

	"github.com/tinoosan/billing/internal/billing"
	"github.com/tinoosan/billing/internal/config"
	"github.com/tinoosan/billing/internal/httpapi"
	"github.com/tinoosan/billing/internal/reconcile"
	"github.com/tinoosan/billing/internal/service/account"
	"github.com/tinoosan/billing/internal/service/payment"
	"github.com/tinoosan/billing/internal/service/purchase"
	"github.com/tinoosan/billing/internal/service/statement"
	"github.com/tinoosan/billing/internal/storage"
	"github.com/tinoosan/billing/internal/storage/memory"
	pgstore "github.com/tinoosan/billing/internal/storage/postgres"
	"github.com/tinoosan/billing/internal/views"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	var store storage.Store
	var closeFn func()

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		if cfg.SeedDemoData {
			user, accs, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logDevSeed(logger, "postgres", user, accs)
			}
		}
		store = pg
		logger.Info("storage backend: postgres")
	} else {
		mem := memory.New()
		user := billing.User{ID: uuid.New()}
		mem.SeedUser(user)
		closing, due := 15, 22
		card := billing.Account{ID: uuid.New(), UserID: user.ID, Name: "Main Card", Kind: billing.AccountCreditCard, Currency: "USD", ClosingDay: &closing, PaymentDueDay: &due}
		checking := billing.Account{ID: uuid.New(), UserID: user.ID, Name: "Checking", Kind: billing.AccountChecking, Currency: "USD"}
		mem.SeedAccount(card)
		mem.SeedAccount(checking)
		logDevSeed(logger, "memory", user, []billing.Account{card, checking})
		store = mem
		logger.Info("storage backend: memory")
	}

	rec := reconcile.New()
	inv := views.NewRecorder()
	accountSvc := account.New(store)
	purchaseSvc := purchase.New(store, rec, inv)
	statementSvc := statement.New(store, inv, cfg.BackfillBurst)
	paymentSvc := payment.New(store, rec, inv)
	handler := httpapi.New(store, accountSvc, purchaseSvc, statementSvc, paymentSvc, logger).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("billing service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// logDevSeed emits the seeded ids so they can be copied into requests.
func logDevSeed(l *slog.Logger, backend string, user billing.User, accs []billing.Account) {
	attrs := []any{"user_id", user.ID.String()}
	for _, a := range accs {
		attrs = append(attrs, strings.ToLower(strings.ReplaceAll(a.Name, " ", "_"))+"_account_id", a.ID.String())
	}
	l.Info("DEV seed ("+backend+")", attrs...)
}

// parseLogLevel maps config values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if strings.ToLower(strings.TrimSpace(cfg.LogFormat)) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
