package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "stayalloc/internal/adapters/http_server"
	"stayalloc/internal/adapters/observability"
	"stayalloc/internal/adapters/rediscache"
	"stayalloc/internal/adapters/redishold"
	"stayalloc/internal/app"
	"stayalloc/internal/availability"
	"stayalloc/internal/domain"
	"stayalloc/internal/holds"
	"stayalloc/internal/resilience"
	"stayalloc/internal/shared"
	mysqlrepo "stayalloc/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// ports behind resilience guards
	repo := resilience.GuardInventory(
		mysqlrepo.New(db),
		resilience.New("mysql", cfg.RetryAttempts, cfg.RetryBaseWait, cfg.CallTimeout),
	)

	var holdStore domain.HoldStore
	switch cfg.HoldBackend {
	case "redis":
		holdStore = redishold.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	default:
		holdStore = holds.NewMemoryStore()
	}
	holdStore = resilience.GuardHoldStore(
		holdStore,
		resilience.New("holds", cfg.RetryAttempts, cfg.RetryBaseWait, cfg.CallTimeout),
	)

	cache := rediscache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	index := availability.NewIndex(repo, holdStore)
	manager := holds.NewManager(holdStore, cfg.HoldTTL)
	svc := app.NewService(repo, index, manager, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.RateLimitRPS)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Svc: svc})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
