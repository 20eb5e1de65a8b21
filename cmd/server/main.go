package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/opsledger/internal/adapter/http"
	"github.com/iho/opsledger/internal/adapter/http/handler"
	"github.com/iho/opsledger/internal/adapter/mailrouting"
	postgresRepo "github.com/iho/opsledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/opsledger/internal/adapter/repository/redis"
	"github.com/iho/opsledger/internal/infrastructure/config"
	"github.com/iho/opsledger/internal/infrastructure/logger"
	"github.com/iho/opsledger/internal/infrastructure/metrics"
	"github.com/iho/opsledger/internal/infrastructure/postgres"
	"github.com/iho/opsledger/internal/infrastructure/redis"
	"github.com/iho/opsledger/internal/usecase"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	router := newRouter(cfg, log, pool, redisClient, m)
	router.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	server := newHTTPServer(cfg, httpAdapter.NewRouter(*router))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// newRouter wires repositories, use cases and handlers. redisClient may be
// nil, which disables account locks and idempotency keys.
func newRouter(cfg *config.Config, log zerolog.Logger, pool *pgxpool.Pool, redisClient *goredis.Client, m *metrics.Metrics) *httpAdapter.RouterConfig {
	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	openingRepo := postgresRepo.NewOpeningBalanceRepository(pool)
	flowRepo := postgresRepo.NewCashFlowRepository(pool)
	snapshotRepo := postgresRepo.NewAccountTransactionRepository(pool)
	assetRepo := postgresRepo.NewAssetRepository(pool)
	rentalRepo := postgresRepo.NewRentalRepository(pool)
	billRepo := postgresRepo.NewBillRepository(pool)
	employeeRepo := postgresRepo.NewEmployeeRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	changeLogRepo := postgresRepo.NewChangeLogRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	clock := usecase.SystemClock{}

	engine := usecase.NewPostingEngine(usecase.PostingDeps{
		TxManager:  txManager,
		Accounts:   accountRepo,
		Openings:   openingRepo,
		Flows:      flowRepo,
		Snapshots:  snapshotRepo,
		ChangeLogs: changeLogRepo,
		IDGen:      idGen,
		Clock:      clock,
		Retrier:    postgresRepo.NewRetrier(cfg.VoucherMaxRetries, log),
		Locker:     newLocker(cfg, redisClient),
		Metrics:    m,
		Logger:     log,
	})

	// Initialize use cases
	assetUC := usecase.NewAssetUseCase(engine, txManager, assetRepo, changeLogRepo, idGen, clock)
	rentUC := usecase.NewRentUseCase(engine, rentalRepo, idGen)
	billUC := usecase.NewBillUseCase(engine, billRepo)
	transferUC := usecase.NewTransferUseCase(engine, idGen)
	ledgerUC := usecase.NewLedgerUseCase(accountRepo, openingRepo, snapshotRepo, clock)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, openingRepo, snapshotRepo, clock)
	saga := usecase.NewSaga(log, m, cfg.MailRoutingTimeout)
	employeeUC := usecase.NewEmployeeUseCase(txManager, employeeRepo, userRepo, changeLogRepo,
		newMailRouter(cfg, log), saga, idGen, clock, cfg.CompanyEmailDomain)

	routerCfg := &httpAdapter.RouterConfig{
		AssetHandler:    handler.NewAssetHandler(assetUC),
		RentHandler:     handler.NewRentHandler(rentUC),
		BillHandler:     handler.NewBillHandler(billUC),
		TransferHandler: handler.NewTransferHandler(transferUC),
		EmployeeHandler: handler.NewEmployeeHandler(employeeUC),
		LedgerHandler:   handler.NewLedgerHandler(ledgerUC, reconciliationUC),
		HealthHandler:   handler.NewHealthHandler(pool, redisPinger(redisClient)),
		IdempotencyTTL:  cfg.IdempotencyTTL,
		Logger:          log,
		Metrics:         m,
	}
	if redisClient != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	return routerCfg
}

// newLocker returns nil when locks are disabled or there is no Redis.
func newLocker(cfg *config.Config, client *goredis.Client) usecase.Locker {
	if client == nil || !cfg.RedisLocksEnabled {
		return nil
	}
	return redisRepo.NewLocker(client, cfg.LockTTL)
}

// newMailRouter returns nil when mail routing is not configured.
func newMailRouter(cfg *config.Config, log zerolog.Logger) usecase.MailRouter {
	if !cfg.MailRoutingEnabled() {
		log.Warn().Msg("mail routing disabled, onboarding will skip forwarding rules")
		return nil
	}
	return mailrouting.NewClient(mailrouting.Config{
		BaseURL:   cfg.MailRoutingBaseURL,
		Token:     cfg.MailRoutingToken,
		ZoneID:    cfg.MailRoutingZoneID,
		AccountID: cfg.MailRoutingAccountID,
		Timeout:   cfg.MailRoutingTimeout,
	}, log)
}

func redisPinger(client *goredis.Client) handler.Pinger {
	if client == nil {
		return nil
	}
	return handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
