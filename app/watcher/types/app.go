package types

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/canopy-network/stakewatch/pkg/config"
	"github.com/canopy-network/stakewatch/pkg/db/history"
	"github.com/canopy-network/stakewatch/pkg/notify"
	"github.com/canopy-network/stakewatch/pkg/poller"
	redispkg "github.com/canopy-network/stakewatch/pkg/redis"
	"github.com/canopy-network/stakewatch/pkg/status"
	"github.com/canopy-network/stakewatch/pkg/wallet"
)

type App struct {
	// Context is the process lifecycle context. Background work kicked off by
	// request handlers runs under it, not under the request.
	Context context.Context
	Config  config.Config
	// Zap Logger
	Logger *zap.Logger

	Registry *wallet.Registry
	Provider *status.Provider
	Poller   *poller.Poller
	Sink     notify.Sink
	// Hub feeds live notifications to WebSocket clients.
	Hub *notify.Hub

	// RedisClient is nil when Redis is disabled; the wallet event feed and
	// cross-instance fan-out degrade to in-process delivery.
	RedisClient *redispkg.Client
	// HistoryDB is nil when the ClickHouse snapshot archive is disabled.
	HistoryDB *history.DB

	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start starts the application: the refresh scheduler, the wallet event feed
// when Redis is available, and the HTTP server. It blocks until ctx is
// cancelled, then shuts everything down in order.
func (a *App) Start(ctx context.Context) {
	if err := a.Poller.Start(ctx); err != nil {
		a.Logger.Fatal("Unable to start refresh scheduler", zap.Error(err))
	}

	if a.RedisClient != nil {
		go a.consumeWalletEvents(ctx)
	}

	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop producing updates before tearing down the delivery surfaces.
	a.Poller.Stop()

	_ = a.Server.Shutdown(shutdownCtx)

	if a.HistoryDB != nil {
		if err := a.HistoryDB.Close(); err != nil {
			a.Logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
