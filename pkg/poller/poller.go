package poller

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/canopy-network/stakewatch/pkg/notify"
	"github.com/canopy-network/stakewatch/pkg/status"
	"github.com/canopy-network/stakewatch/pkg/wallet"
)

// DefaultSpec refreshes every session twice a minute.
const DefaultSpec = "*/30 * * * * *"

// Options tunes the refresh scheduler.
type Options struct {
	// Spec is the cron expression (with a seconds field) driving refresh cycles.
	Spec string
	// MaxParallel bounds concurrent session refreshes. Zero picks a CPU-based default.
	MaxParallel int
	// CycleBudget is the wall-clock bound for one full refresh cycle. It must stay
	// below the cron interval so cycles never overlap.
	CycleBudget time.Duration
}

// Parallelism calculates the refresh pool size.
func Parallelism(override int) int {
	if override > 0 {
		if override > 64 {
			return 64
		}
		return override
	}

	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}

	parallelism := n * 4
	if parallelism < 2 {
		parallelism = 2
	}
	if parallelism > 64 {
		parallelism = 64
	}

	return parallelism
}

// Poller drives the periodic snapshot refresh: every cron tick it probes the
// chain-wide facts once, then rebuilds a snapshot for every resolvable session
// in parallel. Builds for sessions watching the same account under the same
// schedule state are coalesced into one set of chain reads.
type Poller struct {
	logger   *zap.Logger
	registry *wallet.Registry
	builder  *status.Builder
	provider *status.Provider
	sink     notify.Sink

	cron   *cron.Cron
	spec   string
	budget time.Duration
	pool   pond.Pool
	flight singleflight.Group

	mu      sync.RWMutex
	ambient status.Ambient
	probed  bool
}

// New assembles a poller. The sink receives one notification per failed build.
func New(logger *zap.Logger, registry *wallet.Registry, builder *status.Builder, provider *status.Provider, sink notify.Sink, opts Options) *Poller {
	if opts.Spec == "" {
		opts.Spec = DefaultSpec
	}
	if opts.CycleBudget <= 0 {
		opts.CycleBudget = 25 * time.Second
	}
	maxWorkers := Parallelism(opts.MaxParallel)
	queueSize := maxWorkers * 4
	if queueSize < 256 {
		queueSize = 256
	}

	return &Poller{
		logger:   logger,
		registry: registry,
		builder:  builder,
		provider: provider,
		sink:     sink,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		spec:     opts.Spec,
		budget:   opts.CycleBudget,
		pool:     pond.NewPool(maxWorkers, pond.WithQueueSize(queueSize)),
	}
}

// Start registers the refresh job and starts the scheduler.
func (p *Poller) Start(ctx context.Context) error {
	_, err := p.cron.AddFunc(p.spec, func() {
		// keep each cycle bounded
		rctx, cancel := context.WithTimeout(ctx, p.budget)
		defer cancel()
		p.RefreshCycle(rctx)
	})
	if err != nil {
		return fmt.Errorf("schedule refresh job: %w", err)
	}

	p.cron.Start()
	p.logger.Info("poller started", zap.String("cronSpec", p.spec))
	return nil
}

// Stop waits for the running cycle and drains the refresh pool.
func (p *Poller) Stop() {
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
	p.pool.StopAndWait()
}

// Ambient returns the last probed chain-wide facts.
func (p *Poller) Ambient() status.Ambient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ambient
}

// RefreshCycle runs one full refresh: probe once, then rebuild every
// resolvable session.
func (p *Poller) RefreshCycle(ctx context.Context) {
	amb := p.probeAmbient(ctx)

	sessions := make([]*wallet.Session, 0, p.registry.Len())
	p.registry.Range(func(s *wallet.Session) bool {
		if s.Resolvable() {
			sessions = append(sessions, s)
		}
		return true
	})
	if len(sessions) == 0 {
		return
	}

	group := p.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, s := range sessions {
		s := s
		// Generation before address: if the session re-points in between, the
		// captured generation is already stale and the result gets dismissed.
		gen := s.Generation()
		key := status.Key{Address: s.Address(), RewardSchedule: amb.RewardScheduleExists}

		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			p.refreshSession(groupCtx, s, gen, key, amb)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		p.logger.Warn("some session refreshes failed", zap.Error(err))
	}
}

// Kick schedules an immediate refresh for one session, used when a wallet
// connects or re-points instead of waiting out the current cron interval.
func (p *Poller) Kick(ctx context.Context, s *wallet.Session) {
	if s == nil || !s.Resolvable() {
		return
	}

	gen := s.Generation()
	addr := s.Address()

	p.pool.Submit(func() {
		rctx, cancel := context.WithTimeout(ctx, p.budget)
		defer cancel()

		amb := p.ensureAmbient(rctx)
		key := status.Key{Address: addr, RewardSchedule: amb.RewardScheduleExists}
		p.refreshSession(rctx, s, gen, key, amb)
	})
}

// probeAmbient refreshes the chain-wide facts, falling back to the last known
// values when the probe fails. Before the first successful probe that fallback
// is the zero state: no reward schedule, zero decimals.
func (p *Poller) probeAmbient(ctx context.Context) status.Ambient {
	amb, err := p.builder.Probe(ctx)
	if err != nil {
		p.logger.Warn("chain probe failed, using last known ambient state", zap.Error(err))
		return p.Ambient()
	}

	p.mu.Lock()
	p.ambient, p.probed = amb, true
	p.mu.Unlock()
	return amb
}

// ensureAmbient returns the cached ambient state, probing first if no cycle
// has populated it yet.
func (p *Poller) ensureAmbient(ctx context.Context) status.Ambient {
	p.mu.RLock()
	amb, probed := p.ambient, p.probed
	p.mu.RUnlock()
	if probed {
		return amb
	}
	return p.probeAmbient(ctx)
}

// refreshSession rebuilds one session's snapshot and publishes it. Failed
// builds publish the default snapshot; stale results are dismissed by the
// provider's generation check.
func (p *Poller) refreshSession(ctx context.Context, s *wallet.Session, gen uint64, key status.Key, amb status.Ambient) {
	snap, err := p.build(ctx, key, amb)
	if err != nil {
		p.logger.Warn("snapshot build failed",
			zap.String("session", s.ID),
			zap.String("address", key.Address),
			zap.Error(err))
	}

	p.provider.Apply(ctx, s, gen, key, snap)
}

// build coalesces concurrent builds for the same key into one set of chain
// reads. The error notification fires inside the shared call, so a failed
// build notifies exactly once no matter how many sessions share it.
func (p *Poller) build(ctx context.Context, key status.Key, amb status.Ambient) (status.AccountSnapshot, error) {
	v, err, _ := p.flight.Do(key.String(), func() (any, error) {
		snap, buildErr := p.buildOnce(ctx, key.Address, amb)
		if buildErr != nil {
			p.sink.Notify(ctx, notify.NewError(buildErr))
			return status.DefaultSnapshot(), buildErr
		}
		return snap, nil
	})

	snap, ok := v.(status.AccountSnapshot)
	if !ok {
		snap = status.DefaultSnapshot()
	}
	return snap, err
}

// buildOnce shields the refresh pool from panicking builds.
func (p *Poller) buildOnce(ctx context.Context, address string, amb status.Ambient) (snap status.AccountSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = status.DefaultSnapshot()
			err = fmt.Errorf("snapshot build panicked: %s", notify.Describe(r))
		}
	}()
	return p.builder.Build(ctx, address, amb)
}
