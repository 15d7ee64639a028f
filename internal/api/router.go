package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marketpay/fund-custody/internal/api/handler"
	"github.com/marketpay/fund-custody/internal/api/middleware"
	"github.com/marketpay/fund-custody/internal/config"
	"github.com/marketpay/fund-custody/internal/repository"
	"github.com/marketpay/fund-custody/internal/service"
)

type Router struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *pgxpool.Pool
	redis    redis.Cmdable
	store    repository.Store
	accounts *service.FundAccountService
	trades   *service.TradeService
	settle   *service.TradeSettlementService
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *pgxpool.Pool,
	redisClient redis.Cmdable,
	store repository.Store,
	accounts *service.FundAccountService,
	trades *service.TradeService,
	settle *service.TradeSettlementService,
) *Router {
	return &Router{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		redis:    redisClient,
		store:    store,
		accounts: accounts,
		trades:   trades,
		settle:   settle,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	authHandler := handler.NewAuthHandler(api.store)
	accountHandler := handler.NewAccountHandler(api.accounts)
	tradeHandler := handler.NewTradeHandler(api.trades, api.settle)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/auth/login", authHandler.Login)
	})

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Merchant routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		// Accounts
		r.Post("/v1/accounts", accountHandler.CreateAccount)
		r.Get("/v1/accounts/{id}", accountHandler.GetAccount)
		r.Delete("/v1/accounts/{id}", accountHandler.Unregister)
		r.Get("/v1/accounts/{id}/fund", accountHandler.GetFund)
		r.Get("/v1/accounts/{id}/statement", accountHandler.GetStatement)
		r.Post("/v1/accounts/{id}/freeze", accountHandler.Freeze)
		r.Post("/v1/accounts/{id}/unfreeze", accountHandler.Unfreeze)
		r.Put("/v1/accounts/{id}/password", accountHandler.ResetPassword)
		r.Post("/v1/accounts/{id}/deposit", accountHandler.Deposit)

		// Trades
		r.Post("/v1/trades", tradeHandler.CreateTrade)
		r.Get("/v1/trades/{id}", tradeHandler.GetTrade)
		r.Post("/v1/trades/{id}/commit", tradeHandler.Commit)
		r.Post("/v1/trades/{id}/cancel", tradeHandler.Cancel)
	})

	return r
}
