package rpc

import (
	"context"
	"sync/atomic"
	"time"
)

// Fake is an in-memory Client for tests and local development. Responses
// are fixed fields; per-read call counters let callers assert on which
// reads actually ran.
type Fake struct {
	// Delay stalls each account-scoped read, letting tests hold a build in
	// flight while concurrent triggers pile up on it.
	Delay time.Duration

	ScheduleExists bool
	ScheduleErr    error
	Meta           *TokenMeta
	MetaErr        error
	Claimable      float64
	ClaimableErr   error
	Staked         bool
	StakedErr      error
	Record         *Stake
	RecordErr      error
	Balance        uint64
	BalanceErr     error

	ClaimableCalls atomic.Int64
	StakedCalls    atomic.Int64
	RecordCalls    atomic.Int64
	BalanceCalls   atomic.Int64
	ScheduleCalls  atomic.Int64
	MetaCalls      atomic.Int64
}

var _ Client = (*Fake)(nil)

func (f *Fake) ClaimableRewards(ctx context.Context, _ string) (float64, error) {
	f.ClaimableCalls.Add(1)
	f.stall(ctx)
	return f.Claimable, f.ClaimableErr
}

func (f *Fake) HasStake(ctx context.Context, _ string) (bool, error) {
	f.StakedCalls.Add(1)
	f.stall(ctx)
	return f.Staked, f.StakedErr
}

func (f *Fake) StakeRecord(ctx context.Context, _ string) (*Stake, error) {
	f.RecordCalls.Add(1)
	f.stall(ctx)
	return f.Record, f.RecordErr
}

func (f *Fake) TokenBalance(ctx context.Context, _ string) (uint64, error) {
	f.BalanceCalls.Add(1)
	f.stall(ctx)
	return f.Balance, f.BalanceErr
}

func (f *Fake) RewardScheduleExists(_ context.Context) (bool, error) {
	f.ScheduleCalls.Add(1)
	return f.ScheduleExists, f.ScheduleErr
}

func (f *Fake) TokenMetadata(_ context.Context) (*TokenMeta, error) {
	f.MetaCalls.Add(1)
	return f.Meta, f.MetaErr
}

// ReadCalls sums every account-scoped read issued. Ambient probes are
// excluded: they run per cycle, not per account.
func (f *Fake) ReadCalls() int64 {
	return f.ClaimableCalls.Load() + f.StakedCalls.Load() + f.RecordCalls.Load() + f.BalanceCalls.Load()
}

func (f *Fake) stall(ctx context.Context) {
	if f.Delay <= 0 {
		return
	}
	select {
	case <-time.After(f.Delay):
	case <-ctx.Done():
	}
}
