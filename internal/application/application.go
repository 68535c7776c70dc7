package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"nft_auction/internal/config"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/service/fee"
	"nft_auction/internal/domain/value"
	"nft_auction/internal/infrastructure/custody"
	"nft_auction/internal/infrastructure/eventbus"
	"nft_auction/internal/infrastructure/notifier"
	"nft_auction/internal/infrastructure/persistence"
	"nft_auction/internal/server"
	"nft_auction/internal/transport/bot"
	"nft_auction/internal/transport/bot/handler"
	"nft_auction/internal/worker"
	"nft_auction/pkg/application/connectors"
	"nft_auction/pkg/application/modules"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/logx"
	"nft_auction/pkg/middlewarex"
	"nft_auction/pkg/probe"
)

const notifierBuffer = 256

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Run собирает зависимости и блокируется до отмены контекста или падения
// одного из модулей.
func Run(ctx context.Context, cfg config.Config) error { //nolint:funlen,cyclop
	registryAddress, err := cfg.Auction.RegistryAddr()
	if err != nil {
		return fmt.Errorf("AUCTION_REGISTRY_ADDRESS: %w", err)
	}

	admin, err := cfg.Auction.AdminAddr()
	if err != nil {
		return fmt.Errorf("AUCTION_ADMIN: %w", err)
	}

	checks := make(map[string]probe.Check)

	// 1. Хранилище
	store, closeStore, err := newStore(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. Активы и оракулы
	vault := custody.NewVault()

	if err := registerTokens(cfg.Oracle, vault); err != nil {
		return err
	}

	hub := eventbus.NewHub()

	oracles, err := newOracles(ctx, cfg, admin, hub)
	if err != nil {
		return err
	}

	// 3. Реестр
	registry := auction.NewRegistry(
		auction.Config{
			Address:        registryAddress,
			NativeDecimals: cfg.Auction.NativeDecimals,
			MinDuration:    cfg.Auction.MinDuration,
			RefundTimeout:  cfg.Auction.RefundTimeout,
		},
		store,
		auction.FromDirectory(oracles.directory),
		vault,
		vault,
		vault,
	)
	vault.OnReceive(registryAddress, registry.Receive)

	if err := registry.Initialize(ctx, admin); err != nil {
		return fmt.Errorf("registry.Initialize: %w", err)
	}

	if err := applyFeePolicy(ctx, cfg.Fee, registry, admin); err != nil {
		return err
	}

	// 4. События и фоновые задачи
	g, ctx := errgroup.WithContext(ctx)

	publishers := eventbus.Fanout{}

	var redisConnector *connectors.Redis
	if cfg.Redis.Enabled() {
		redisConnector = &connectors.Redis{
			Address:            cfg.Redis.Address,
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConns,
			MaxIdleConnections: cfg.Redis.MaxIdleConns,
		}
		redisClient := redisConnector.Client(ctx)
		defer redisConnector.Close(ctx)

		checks["redis"] = redisConnector.Ready

		relay := eventbus.NewRedisRelay(redisClient, cfg.Redis.EventsChannel, hub)
		g.Go(func() error {
			return relay.Run(ctx)
		})

		publishers = append(publishers, eventbus.NewRedisPublisher(redisClient, cfg.Redis.EventsChannel))
	} else {
		publishers = append(publishers, hub)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DatabaseNumber,
	}

	if cfg.Asynq.Enabled {
		queueClient := asynq.NewClient(redisOpt)
		defer func() {
			if err := queueClient.Close(); err != nil {
				logger(ctx).Error("asynqClient.Close", logx.Error(err))
			}
		}()

		scheduler := worker.NewSettlementScheduler(queueClient, registry).WithQueue(cfg.Asynq.Queue)
		publishers = append(publishers, scheduler)

		modules.AsynqServer{
			RedisUsername: cfg.Redis.Username,
			RedisPassword: cfg.Redis.Password,
			RedisAddress:  cfg.Redis.Address,
			RedisDB:       cfg.Redis.DatabaseNumber,

			Concurrency:     cfg.Asynq.Concurrency,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
			RetryDelay:      worker.RetryDelay,
		}.Run(
			ctx,
			g,
			modules.AsynqQueues{cfg.Asynq.Queue: cfg.Asynq.Priority},
			modules.AsynqHandler{
				Pattern: worker.TaskSettleAuction,
				Handle:  worker.NewSettlementHandler(registry).Handle,
			},
		)
	}

	registry.WithPublisher(publishers)
	oracles.withPublisher(publishers)

	sweeper := worker.NewExpirySweeper(registry).WithInterval(cfg.Auction.SweepInterval)
	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("sweeper.Start: %w", err)
	}
	defer sweeper.Stop()

	oracles.runHeartbeats(ctx, g, cfg.Oracle.Heartbeat)

	// 5. Telegram
	if cfg.Bot.NotifierEnabled() {
		alertBot, err := notifier.NewTelegramBot(cfg.Bot.Token, cfg.Bot.ChatID)
		if err != nil {
			return fmt.Errorf("notifier bot: %w", err)
		}

		sub := hub.Subscribe(nil, notifierBuffer)
		g.Go(func() error {
			defer sub.Close()
			return alertBot.Run(ctx, sub.C)
		})
	}

	if cfg.Bot.AdminEnabled() {
		adminBot, err := bot.New(ctx, cfg.Bot, handler.New(ctx, registry, sweeper, oracles.botReaders()))
		if err != nil {
			return fmt.Errorf("admin bot: %w", err)
		}

		g.Go(func() error {
			return adminBot.Run(ctx)
		})
	}

	// 6. HTTP
	srv := server.NewServer(
		server.NewAuctionServer(registry),
		server.NewFeeServer(registry),
		server.NewOracleServer(oracles.serverReaders()),
		server.NewStreamServer(registry, hub),
	)
	if cfg.Store.Driver == config.StoreMemory {
		srv = srv.WithCustody(server.NewCustodyServer(vault))
	}

	principals, err := cfg.Auth.Principals()
	if err != nil {
		return err
	}
	if len(principals) == 0 {
		logger(ctx).Warn("AUTH_TOKENS is empty, mutating routes are closed")
	}

	tokens := make(map[string]contextx.UserID, len(principals))
	for token, addr := range principals {
		tokens[token] = contextx.UserID(addr.Hex())
	}
	srv = srv.WithAuthenticator(middlewarex.Authenticate(tokens))

	masker := logx.NewSensitiveDataMasker(cfg.HTTP.SensitiveFields...)

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, cfg.HTTP.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.HTTP.LogFieldMaxLen),
	)
	srv.RegisterRoutes(router)

	modules.HTTPServer{
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}.Run(ctx, g, &http.Server{ //nolint:exhaustruct
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	})

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.HTTP.ProbeListenAddress,
		Checks:        checks,
	}.Run(ctx, g)

	modules.MetricServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.HTTP.MetricsListenAddress,
	}.Run(ctx, g)

	logger(ctx).Info("application started",
		slog.String("registry", registryAddress.Hex()),
		slog.String("admin", admin.Hex()),
		slog.String("store", cfg.Store.Driver),
		slog.Bool("redis", cfg.Redis.Enabled()),
		slog.Bool("asynq", cfg.Asynq.Enabled),
		slog.Int("principals", len(principals)),
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("errgroup.Wait: %w", err)
	}

	logger(ctx).Info("application stopped")

	return nil
}

func newStore(ctx context.Context, cfg config.Config, checks map[string]probe.Check) (auction.Store, func(), error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger(ctx).Warn("memory store: state is lost on restart")
		return persistence.NewMemoryStore(), func() {}, nil
	}

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)

	if err := persistence.Migrate(ctx, db); err != nil {
		pg.Close(ctx)
		return nil, nil, fmt.Errorf("persistence.Migrate: %w", err)
	}

	checks["postgres"] = pg.Ready

	return persistence.NewPostgresStore(db), func() { pg.Close(ctx) }, nil
}

func registerTokens(cfg config.Oracle, vault *custody.Vault) error {
	for address, decimals := range cfg.Tokens {
		token, err := config.ParseCurrency(address)
		if err != nil {
			return fmt.Errorf("ORACLE_TOKENS: %w", err)
		}

		if err := vault.RegisterToken(token, tokenSymbol(token), decimals); err != nil {
			return fmt.Errorf("vault.RegisterToken %s: %w", address, err)
		}
	}

	return nil
}

func applyFeePolicy(ctx context.Context, cfg config.Fee, registry *auction.Registry, admin value.Address) error {
	recipient, err := cfg.RecipientAddr()
	if err != nil {
		return fmt.Errorf("FEE_RECIPIENT: %w", err)
	}

	var policy auction.FeePolicy

	switch {
	case cfg.BasisPoints > 0:
		bps, err := fee.NewBasisPoints(cfg.BasisPoints, recipient)
		if err != nil {
			return fmt.Errorf("FEE_BPS: %w", err)
		}
		policy = bps
	case len(cfg.FlatAmounts) > 0:
		amounts, err := cfg.Flat()
		if err != nil {
			return err
		}
		policy = fee.NewFlat(recipient, amounts)
	}

	current, err := registry.FeePolicy(ctx)
	if err != nil {
		return fmt.Errorf("registry.FeePolicy: %w", err)
	}

	// Сохранённая политика без конфигурации не может быть восстановлена,
	// завершение аукционов с ней упадёт. Отключаем комиссию явно.
	if policy == nil {
		if current == "" {
			return nil
		}

		logger(ctx).Warn("stored fee policy is not configured, disabling", slog.String("policy", current))

		if err := registry.SetFeePolicy(ctx, admin, nil); err != nil {
			return fmt.Errorf("registry.SetFeePolicy: %w", err)
		}
		return nil
	}

	registry.WithFeePolicies(policy)

	if current == policy.Name() {
		return nil
	}

	if err := registry.SetFeePolicy(ctx, admin, policy); err != nil {
		return fmt.Errorf("registry.SetFeePolicy: %w", err)
	}

	return nil
}

func tokenSymbol(token value.Currency) string {
	hex := token.Hex()
	return "TKN-" + hex[len(hex)-4:]
}
