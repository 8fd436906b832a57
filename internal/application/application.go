package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nft_market/internal/config"
	"nft_market/internal/domain/service/market"
	"nft_market/internal/infrastructure/custody"
	"nft_market/internal/infrastructure/deposit"
	"nft_market/internal/infrastructure/notifier"
	"nft_market/internal/infrastructure/persistence"
	"nft_market/internal/infrastructure/persistence/memory"
	"nft_market/internal/server"
	"nft_market/internal/transport/bot"
	"nft_market/internal/worker"
	"nft_market/pkg/application/connectors"
	"nft_market/pkg/application/modules"
	"nft_market/pkg/contextx"
	"nft_market/pkg/httpx"
	"nft_market/pkg/logx"
	"nft_market/pkg/middlewarex"
)

func Run(ctx context.Context, log *slog.Logger) error {
	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	log = log.With(
		slog.String(logx.FieldAppName, cfg.App.Name),
		slog.String(logx.FieldAppVersion, cfg.App.Version),
	)
	ctx = contextx.WithLogger(ctx, log)

	g, ctx := errgroup.WithContext(ctx)

	// 2. Custody
	custodyClient := custody.NewClient(cfg.Custody.URL, newCustodyHTTPClient(cfg))

	// 3. Storage and settlement workers
	var svc *market.Service

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pg := &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}
		db := pg.Client(ctx)
		defer pg.Close(ctx)

		if err := persistence.Migrate(ctx, db); err != nil {
			return fmt.Errorf("persistence.Migrate: %w", err)
		}

		rd := &connectors.Redis{
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			Address:            cfg.Redis.Address,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}
		redisClient := rd.Client(ctx)
		defer rd.Close(ctx)

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DatabaseNumber,
		})
		defer asynqClient.Close()

		scheduler := worker.NewAsynqScheduler(asynqClient, cfg.Settlement.Queue)

		svc = market.NewService(
			persistence.NewSaleRepository(db),
			persistence.NewSettlementRepository(db),
			deposit.NewRedisLedger(redisClient, cfg.Deposit.Key, cfg.Deposit.CacheTTL),
			custodyClient,
			scheduler,
		)

		zapLogger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("zap.NewProduction: %w", err)
		}
		defer zapLogger.Sync() //nolint:errcheck

		settlementHandler := worker.NewSettlementHandler(svc, custodyClient, cfg.Settlement.TransferBudget).
			WithResolveRetrier(scheduler)

		// Начатые расчёты доживают до конца при остановке: бюджет перевода плюс запас на запись.
		modules.AsynqServer{
			RedisUsername:   cfg.Redis.Username,
			RedisPassword:   cfg.Redis.Password,
			RedisAddress:    cfg.Redis.Address,
			RedisDB:         cfg.Redis.DatabaseNumber,
			Concurrency:     cfg.Settlement.Concurrency,
			ShutdownTimeout: cfg.Settlement.TransferBudget + cfg.Settlement.ResolveGrace,
			Logger:          zapLogger.Sugar(),
		}.Run(
			ctx,
			g,
			modules.AsynqQueues{cfg.Settlement.Queue: 1},
			modules.AsynqHandler{Pattern: worker.TypeSettlementTransfer, Handle: settlementHandler.ProcessTask},
			modules.AsynqHandler{Pattern: worker.TypeSettlementResolve, Handle: settlementHandler.ProcessResolveTask},
		)
	case config.StorageMemory:
		store := memory.NewStore()

		svc = market.NewService(store.Sales(), store.Settlements(), deposit.NewMemoryLedger(), custodyClient, nil)

		scheduler := worker.NewLocalScheduler(
			worker.NewSettlementHandler(svc, custodyClient, cfg.Settlement.TransferBudget),
		)
		svc.WithScheduler(scheduler)

		g.Go(func() error {
			return scheduler.Run(ctx)
		})

		log.Warn("memory storage: sales and settlements are lost on restart")
	}

	// 4. Telegram
	if cfg.Bot.Enabled() {
		if err := runTelegram(ctx, g, cfg.Bot, svc); err != nil {
			return err
		}
	}

	// 5. Settlements left reserved by a previous run
	if _, err := svc.RecoverReserved(ctx); err != nil {
		return fmt.Errorf("svc.RecoverReserved: %w", err)
	}

	// 6. HTTP
	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.AccountID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, cfg.App.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.App.LogFieldMaxLen),
	)

	server.NewServer(server.NewSaleServer(svc), server.NewSettlementServer(svc)).RegisterRoutes(router)

	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(ctx, g, &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	})

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.HTTP.ProbeListenAddress,
	}.Run(ctx, g)

	modules.MetricServer{ListenAddress: cfg.HTTP.MetricsListenAddress}.Run(ctx, g)

	log.Info("application started", slog.String("storage", cfg.Storage.Driver))

	if err := g.Wait(); err != nil {
		return fmt.Errorf("errgroup.Wait: %w", err)
	}

	log.Info("application stopping...")

	return nil
}

func newCustodyHTTPClient(cfg config.Config) *http.Client {
	var transport http.RoundTripper = httpx.NewLoggingRoundTripper(
		http.DefaultTransport,
		httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
		httpx.WithLogFieldMaxLen(cfg.App.LogFieldMaxLen),
	)

	if cfg.Custody.APIToken != "" {
		transport = httpx.NewAuthBearerRoundTripper(transport, httpx.NewStaticToken(cfg.Custody.APIToken))
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Custody.Timeout,
	}
}

// runTelegram запускает уведомления в чат и операторского бота, если они
// настроены.
func runTelegram(ctx context.Context, g *errgroup.Group, cfg config.Bot, svc *market.Service) error {
	if cfg.ChatID != 0 {
		alertBot, err := notifier.NewTelegramBot(cfg.Token, cfg.ChatID)
		if err != nil {
			return fmt.Errorf("notifier.NewTelegramBot: %w", err)
		}

		svc.WithNotifier(alertBot)

		g.Go(func() error {
			return alertBot.Run(ctx)
		})
	}

	if cfg.AdminID != 0 {
		opsBot, err := bot.New(cfg.Token, cfg.AdminID, svc)
		if err != nil {
			return fmt.Errorf("bot.New: %w", err)
		}

		g.Go(func() error {
			return opsBot.Run(ctx)
		})
	}

	return nil
}
