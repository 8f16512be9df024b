package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"

	redispkg "github.com/canopy-network/stakewatch/pkg/redis"
	"github.com/canopy-network/stakewatch/pkg/wallet"
)

// SnapshotChannel is the Redis Pub/Sub channel updates for a session are
// published on.
func SnapshotChannel(sessionID string) string {
	return fmt.Sprintf("stakewatch:%s:snapshot.updated", sessionID)
}

// SnapshotChannelPattern matches every session's snapshot channel.
const SnapshotChannelPattern = "stakewatch:*:snapshot.updated"

// Archiver persists published updates for later inspection.
type Archiver interface {
	Archive(ctx context.Context, u Update) error
}

// Subscription receives every published update. Slow consumers lose updates
// rather than blocking the publish path.
type Subscription struct {
	C chan Update
}

func (s *Subscription) push(u Update, logger *zap.Logger) {
	select {
	case s.C <- u:
	default:
		logger.Warn("Subscriber lagging, dropping update",
			zap.String("session", u.SessionID))
	}
}

// sessionState is the last resolved build for one session.
type sessionState struct {
	key  Key
	snap AccountSnapshot
	at   time.Time
}

// Provider is the state container: it holds the last-known snapshot per
// session and publishes every change to its subscribers. Consumers get a
// read-only view; all writes come from the poller.
type Provider struct {
	logger *zap.Logger

	mu     sync.Mutex
	states map[string]sessionState
	subs   map[*Subscription]struct{}

	redis    *redispkg.Client // optional, best-effort fan-out
	archiver Archiver         // optional, best-effort history
}

// NewProvider creates an empty state container.
func NewProvider(logger *zap.Logger) *Provider {
	return &Provider{
		logger: logger,
		states: map[string]sessionState{},
		subs:   map[*Subscription]struct{}{},
	}
}

// AttachRedis enables Pub/Sub fan-out of published updates.
func (p *Provider) AttachRedis(client *redispkg.Client) {
	p.redis = client
}

// AttachArchiver enables history archiving of published updates.
func (p *Provider) AttachArchiver(a Archiver) {
	p.archiver = a
}

// Subscribe registers a consumer for published updates. The caller must
// Unsubscribe when done.
func (p *Provider) Subscribe() *Subscription {
	sub := &Subscription{C: make(chan Update, 64)}
	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()
	return sub
}

// Unsubscribe deregisters and closes a subscription.
func (p *Provider) Unsubscribe(sub *Subscription) {
	p.mu.Lock()
	if _, ok := p.subs[sub]; ok {
		delete(p.subs, sub)
		close(sub.C)
	}
	p.mu.Unlock()
}

// Current returns the session's last published snapshot, the default when
// nothing has been published yet.
func (p *Provider) Current(sessionID string) AccountSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.states[sessionID]; ok {
		return st.snap
	}
	return DefaultSnapshot()
}

// Last returns the full envelope of the session's last published update.
func (p *Provider) Last(sessionID string) (Update, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.states[sessionID]
	if !ok {
		return Update{}, false
	}
	return Update{SessionID: sessionID, Address: st.key.Address, Snapshot: st.snap, At: st.at}, true
}

// Apply publishes a resolved build for the session, unless it went stale:
// the session's generation must still match the one captured when the build
// started. Returns false when the result was dismissed.
func (p *Provider) Apply(ctx context.Context, s *wallet.Session, gen uint64, key Key, snap AccountSnapshot) bool {
	p.mu.Lock()
	if s.Generation() != gen {
		p.mu.Unlock()
		p.logger.Debug("Dismissed stale snapshot",
			zap.String("session", s.ID),
			zap.String("address", key.Address))
		return false
	}

	u := Update{SessionID: s.ID, Address: key.Address, Snapshot: snap, At: time.Now().UTC()}
	p.states[s.ID] = sessionState{key: key, snap: snap, at: u.At}
	p.notifyLocked(u)
	p.mu.Unlock()

	p.fanOut(ctx, u)
	return true
}

// Reset publishes the default snapshot for a session whose polling got
// disabled (no address resolvable) so downstream state stays well-defined.
func (p *Provider) Reset(ctx context.Context, sessionID, address string) {
	u := Update{SessionID: sessionID, Address: address, Snapshot: DefaultSnapshot(), At: time.Now().UTC()}

	p.mu.Lock()
	p.states[sessionID] = sessionState{key: Key{Address: address}, snap: u.Snapshot, at: u.At}
	p.notifyLocked(u)
	p.mu.Unlock()

	p.fanOut(ctx, u)
}

// Remove drops a disconnected session's state and publishes a final default
// update for it.
func (p *Provider) Remove(ctx context.Context, sessionID, address string) {
	u := Update{SessionID: sessionID, Address: address, Snapshot: DefaultSnapshot(), At: time.Now().UTC()}

	p.mu.Lock()
	delete(p.states, sessionID)
	p.notifyLocked(u)
	p.mu.Unlock()

	p.fanOut(ctx, u)
}

// notifyLocked pushes to all subscribers. Callers hold p.mu; pushes never
// block, so holding the lock through them is safe.
func (p *Provider) notifyLocked(u Update) {
	for sub := range p.subs {
		sub.push(u, p.logger)
	}
}

// fanOut handles the best-effort deliveries that leave the process.
func (p *Provider) fanOut(ctx context.Context, u Update) {
	if p.redis != nil {
		if payload, err := json.Marshal(u); err == nil {
			p.redis.Publish(ctx, SnapshotChannel(u.SessionID), payload)
		} else {
			p.logger.Warn("Failed to encode update", zap.Error(err))
		}
	}

	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, u); err != nil {
			p.logger.Warn("Failed to archive update",
				zap.String("session", u.SessionID),
				zap.Error(err))
		}
	}
}
