package watcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/canopy-network/stakewatch/app/watcher/types"
	"github.com/canopy-network/stakewatch/pkg/config"
	"github.com/canopy-network/stakewatch/pkg/db/history"
	"github.com/canopy-network/stakewatch/pkg/logging"
	"github.com/canopy-network/stakewatch/pkg/notify"
	"github.com/canopy-network/stakewatch/pkg/poller"
	redispkg "github.com/canopy-network/stakewatch/pkg/redis"
	"github.com/canopy-network/stakewatch/pkg/rpc"
	"github.com/canopy-network/stakewatch/pkg/status"
	"github.com/canopy-network/stakewatch/pkg/token"
	"github.com/canopy-network/stakewatch/pkg/utils"
	"github.com/canopy-network/stakewatch/pkg/wallet"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	cfg, cfgErr := config.Load(utils.Env("WATCHLIST_FILE", ""))
	if cfgErr != nil {
		logger.Fatal("Unable to load configuration", zap.Error(cfgErr))
	}

	client := rpc.NewHTTPFactory(rpc.Opts{}).NewClient(cfg.Endpoints)
	builder := status.NewBuilder(client, cfg.CreatorAddress, token.NewFormatter(cfg.TokenLocale))
	registry := wallet.NewRegistry()
	provider := status.NewProvider(logger.Named("provider"))

	// Redis is optional: without it the wallet event feed, the notification
	// backlog and cross-instance fan-out are unavailable, but the watcher
	// still polls and serves snapshots from memory.
	var redisClient *redispkg.Client
	if cfg.RedisEnabled {
		redisClient, err = redispkg.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - event feed and fan-out will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized for event feed and fan-out")
		}
	} else {
		logger.Info("Redis disabled - event feed and fan-out will not be available")
	}

	hub := notify.NewHub()
	sink := notify.MultiSink{notify.NewLogSink(logger.Named("notify")), hub}
	if redisClient != nil {
		sink = append(sink, notify.NewRedisSink(redisClient, logger.Named("notify")))
		provider.AttachRedis(redisClient)
	}

	// The ClickHouse archive is optional the same way.
	var historyDB *history.DB
	if cfg.HistoryEnabled {
		historyDB, err = history.New(ctx, logger, history.DefaultDBName)
		if err != nil {
			logger.Warn("Failed to initialize snapshot history - archiving will be disabled",
				zap.Error(err))
			historyDB = nil
		} else {
			provider.AttachArchiver(historyDB)
		}
	}

	app := &types.App{
		Context:  ctx,
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Provider: provider,
		Poller: poller.New(logger.Named("poller"), registry, builder, provider, sink, poller.Options{
			Spec:        cfg.RefreshSpec,
			MaxParallel: cfg.MaxParallel,
		}),
		Sink:        sink,
		Hub:         hub,
		RedisClient: redisClient,
		HistoryDB:   historyDB,
	}

	seedWatchlist(ctx, app)

	return app
}

// seedWatchlist connects the configured boot accounts so they are watched
// before any wallet shows up.
func seedWatchlist(ctx context.Context, app *types.App) {
	for _, address := range app.Config.Accounts {
		s, err := app.Registry.Connect(address)
		if err != nil {
			app.Logger.Warn("Skipping watchlist entry",
				zap.String("address", address),
				zap.Error(err))
			continue
		}
		app.Poller.Kick(ctx, s)
	}
	if len(app.Config.Accounts) > 0 {
		app.Logger.Info("Watchlist seeded", zap.Int("sessions", app.Registry.Len()))
	}
}
