package types

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redispkg "github.com/canopy-network/stakewatch/pkg/redis"
	"github.com/canopy-network/stakewatch/pkg/wallet"
)

// WalletEventsStream is the Redis stream external wallet infrastructure
// publishes session lifecycle events on.
const WalletEventsStream = "stakewatch:wallet.events"

// walletEventsGroup is the consumer group the watcher reads the feed with.
const walletEventsGroup = "stakewatch-watcher"

// consumeWalletEvents replays the wallet event feed onto the session registry
// until ctx is cancelled. Connects and address changes schedule an immediate
// refresh; disconnects drop the session's published state.
func (a *App) consumeWalletEvents(ctx context.Context) {
	name, _ := os.Hostname()
	if name == "" {
		name = uuid.NewString()
	}

	consumer, err := redispkg.NewStreamConsumer(a.RedisClient, redispkg.StreamConsumerConfig{
		Stream:   WalletEventsStream,
		Group:    walletEventsGroup,
		Consumer: name,
		Logger:   a.Logger.Named("wallet-feed"),
	})
	if err != nil {
		a.Logger.Error("Unable to start wallet event consumer", zap.Error(err))
		return
	}

	a.Logger.Info("Wallet event feed attached",
		zap.String("stream", WalletEventsStream),
		zap.String("consumer", name))

	if err := consumer.Run(ctx, a.handleWalletEvent); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Warn("Wallet event consumer stopped", zap.Error(err))
	}
}

// handleWalletEvent applies one feed entry. Malformed entries are logged and
// acknowledged; replaying them would fail the same way forever.
func (a *App) handleWalletEvent(ctx context.Context, msg redispkg.Message) error {
	ev := wallet.Event{
		Kind:    msg.GetString("event"),
		Session: msg.GetString("session"),
		Address: msg.GetString("address"),
	}

	s, err := a.Registry.Apply(ev)
	if err != nil {
		a.Logger.Warn("Ignoring wallet event",
			zap.String("id", msg.ID),
			zap.String("kind", ev.Kind),
			zap.Error(err))
		return nil
	}

	switch {
	case ev.Kind == wallet.EventDisconnected:
		a.Provider.Remove(ctx, ev.Session, ev.Address)
	case s.Resolvable():
		a.Poller.Kick(a.Context, s)
	default:
		// The wallet dropped its account: polling is disabled until it
		// resolves a new one, so consumers see the default state.
		a.Provider.Reset(ctx, s.ID, ev.Address)
	}
	return nil
}
