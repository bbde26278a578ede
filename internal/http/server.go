// Package http exposes the ledger as a JSON API under /api.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
)

// Ledger is the set of ledger operations the API serves.
// *services.Ledger implements it.
type Ledger interface {
	ListAccountsWithCards(ctx context.Context, scope core.Scope) ([]core.Account, error)
	CreateAccount(ctx context.Context, scope core.Scope, name string, opening core.Money) (core.Account, error)
	DeleteAccount(ctx context.Context, scope core.Scope, id string) error
	GetAccountBalance(ctx context.Context, scope core.Scope, accountID string) (services.AccountBalanceView, error)
	GetHouseholdBalance(ctx context.Context, scope core.Scope) (services.HouseholdBalance, error)

	CreateCard(ctx context.Context, scope core.Scope, accountID, name string, limit core.Money, closingDay, dueDay int) (core.CreditCard, error)
	DeleteCard(ctx context.Context, scope core.Scope, id string) error
	GetCardAvailableLimit(ctx context.Context, scope core.Scope, cardID string) (services.CardLimit, error)
	GetCardInvoice(ctx context.Context, scope core.Scope, cardID string, month core.Date) (core.CardInvoice, error)
	PayCardInvoice(ctx context.Context, scope core.Scope, cardID string, month, paidOn core.Date) (core.CardInvoice, error)

	ListCategories(ctx context.Context, scope core.Scope) ([]core.Category, error)
	CreateCategory(ctx context.Context, scope core.Scope, name string, kind core.CategoryKind) (core.Category, error)
	DeleteCategory(ctx context.Context, scope core.Scope, id string) error

	CreateExpense(ctx context.Context, scope core.Scope, in services.NewExpense) (services.CreatedExpense, error)
	DeleteExpense(ctx context.Context, scope core.Scope, id string) error
	CreateIncome(ctx context.Context, scope core.Scope, in services.NewIncome) (core.Income, error)
	DeleteTransaction(ctx context.Context, scope core.Scope, id string, kind core.EntryType) error

	ListFixedExpenses(ctx context.Context, scope core.Scope) ([]core.FixedExpense, error)
	CreateFixedExpense(ctx context.Context, scope core.Scope, in services.NewFixedExpense) (core.FixedExpense, error)
	SetFixedExpenseActive(ctx context.Context, scope core.Scope, id string, active bool) (core.FixedExpense, error)
	DeleteFixedExpense(ctx context.Context, scope core.Scope, id string) error
	MarkFixedExpensePaid(ctx context.Context, scope core.Scope, templateID string, date core.Date, accountID string) (services.CreatedExpense, error)
	MarkFixedExpenseUnpaid(ctx context.Context, scope core.Scope, expenseID string) error
	ListFixedExpensesForMonth(ctx context.Context, scope core.Scope, month core.Date) (core.FixedMonthOverview, error)

	GetStatement(ctx context.Context, scope core.Scope, start, end core.Date) ([]core.LedgerEntry, error)
	GetMonthSummary(ctx context.Context, scope core.Scope, month core.Date) (core.MonthSummary, error)
}

var _ Ledger = (*services.Ledger)(nil)

// Config tunes the API server.
type Config struct {
	Addr               string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	// JWTSecret enables bearer token identity. Empty trusts the
	// X-User-ID and X-Household-ID headers.
	JWTSecret string
	// Now is the clock used for default dates. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger   Ledger
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	identity *identity
	timeout  time.Duration
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires the router and the middleware chain:
// trace, logging, security headers, rate limit, timeout, then /api.
func NewServer(cfg Config, ledger Ledger, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		ledger:   ledger,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		tracer:   trace.NewMiddleware(),
		identity: newIdentity(cfg.JWTSecret),
		timeout:  cfg.RequestTimeout,
		now:      cfg.Now,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.identity.middleware)
	s.routes(api)

	var h http.Handler = r
	h = s.withTimeout(h)
	if cfg.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
		h = s.limiter.Middleware(security.NewClientIP().Extract, func(w http.ResponseWriter, r *http.Request) {
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
		})(h)
	}
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = applog.Middleware(s.logger, trace.FromRequest)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(api *mux.Router) {
	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.handleDeleteAccount).Methods(http.MethodDelete)
	api.HandleFunc("/accounts/{id}/balance", s.handleAccountBalance).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/cards", s.handleCreateCard).Methods(http.MethodPost)
	api.HandleFunc("/balance", s.handleHouseholdBalance).Methods(http.MethodGet)

	api.HandleFunc("/cards/{id}", s.handleDeleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{id}/limit", s.handleCardLimit).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}/invoice", s.handleCardInvoice).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}/invoice/pay", s.handlePayCardInvoice).Methods(http.MethodPost)

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)

	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)
	api.HandleFunc("/incomes", s.handleCreateIncome).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{kind}/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	// Literal paths are registered before /fixed-expenses/{id} so they win.
	api.HandleFunc("/fixed-expenses", s.handleListFixed).Methods(http.MethodGet)
	api.HandleFunc("/fixed-expenses", s.handleCreateFixed).Methods(http.MethodPost)
	api.HandleFunc("/fixed-expenses/month", s.handleFixedMonth).Methods(http.MethodGet)
	api.HandleFunc("/fixed-expenses/payments/{expenseID}", s.handleUnpayFixed).Methods(http.MethodDelete)
	api.HandleFunc("/fixed-expenses/{id}/pay", s.handlePayFixed).Methods(http.MethodPost)
	api.HandleFunc("/fixed-expenses/{id}", s.handleSetFixedActive).Methods(http.MethodPatch)
	api.HandleFunc("/fixed-expenses/{id}", s.handleDeleteFixed).Methods(http.MethodDelete)

	api.HandleFunc("/statement", s.handleStatement).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
}

// withTimeout bounds every request's context by the configured timeout.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Shutdown drains in-flight requests and stops background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		m := s.tracer.GetMetrics()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			"total_requests", m.TotalRequests,
			"server_errors", m.ServerErrors)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
