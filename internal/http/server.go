// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/auth"
	"github.com/yann-pourcenoux/expense-manager/internal/cache"
	"github.com/yann-pourcenoux/expense-manager/internal/core"
	applog "github.com/yann-pourcenoux/expense-manager/internal/log"
	"github.com/yann-pourcenoux/expense-manager/internal/middleware/trace"
	"github.com/yann-pourcenoux/expense-manager/internal/services"
)

// Services bundles everything the API serves.
type Services struct {
	Expenses   *services.ExpenseService
	Transfers  *services.TransferService
	Income     *services.IncomeService
	Categories *services.CategoryService
	Profiles   *services.ProfileService
	Balances   *services.BalanceEngine
	Auth       *auth.Service
}

// CacheConfig sizes the balance read caches.
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

type Server struct {
	http.Server
	svc Services

	// Balance reads are memoized until the next mutation.
	balanceCache   *cache.LRU[core.Balance]
	breakdownCache *cache.LRU[[]core.CounterpartyBalance]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and starts cache maintenance.
func NewServer(addr string, svc Services, cacheCfg CacheConfig) *Server {
	if cacheCfg.Size <= 0 {
		cacheCfg.Size = 128
	}
	if cacheCfg.TTL <= 0 {
		cacheCfg.TTL = 30 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		svc:            svc,
		balanceCache:   cache.NewLRU[core.Balance](cacheCfg.Size, cacheCfg.TTL),
		breakdownCache: cache.NewLRU[[]core.CounterpartyBalance](cacheCfg.Size, cacheCfg.TTL),
		cacheManager:   cache.NewManager(),
	}
	logger := applog.New(applog.Config{Component: applog.ComponentHTTP})
	s.Server.Addr = addr
	s.Server.Handler = trace.Middleware(applog.Middleware(logger)(mux))

	s.cacheManager.Register(s.balanceCache)
	s.cacheManager.Register(s.breakdownCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	mux.HandleFunc("PUT /api/profiles/{id}", s.handleRenameProfile)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("GET /api/expenses/{id}/splits", s.handleGetExpenseSplits)
	mux.HandleFunc("PATCH /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("POST /api/transfers", s.handleCreateTransfer)
	mux.HandleFunc("GET /api/transfers", s.handleListTransfers)
	mux.HandleFunc("DELETE /api/transfers/{id}", s.handleDeleteTransfer)

	mux.HandleFunc("GET /api/balances/{id}", s.handleGetBalance)
	mux.HandleFunc("GET /api/balances/{id}/breakdown", s.handleGetBalanceBreakdown)

	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("PUT /api/income", s.handleSetIncome)
	mux.HandleFunc("GET /api/income", s.handleGetIncome)
	mux.HandleFunc("GET /api/income/history", s.handleIncomeHistory)
	mux.HandleFunc("DELETE /api/income/{id}", s.handleDeleteIncome)

	return s
}

// invalidateBalances drops memoized balances after any mutation that can move
// money between profiles.
func (s *Server) invalidateBalances() {
	s.balanceCache.Purge()
	s.breakdownCache.Purge()
}

// Shutdown stops the HTTP server and cache maintenance.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
