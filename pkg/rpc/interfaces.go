package rpc

import (
	"context"
)

// Client captures the chain reads the watcher issues when building account
// snapshots. All calls go over JSON (the RPC only speaks JSON) and every one
// of them may fail; the snapshot builder treats any failure as fatal for the
// build in progress.
type Client interface {
	// ClaimableRewards returns the human-readable amount the address can claim.
	ClaimableRewards(ctx context.Context, address string) (float64, error)
	// HasStake returns whether the address currently holds a staked position.
	HasStake(ctx context.Context, address string) (bool, error)
	// StakeRecord returns the address's stake record, nil when it has none.
	StakeRecord(ctx context.Context, address string) (*Stake, error)
	// TokenBalance returns the address's balance in raw on-chain units.
	TokenBalance(ctx context.Context, address string) (uint64, error)
	// RewardScheduleExists reports whether an active reward schedule is configured.
	RewardScheduleExists(ctx context.Context) (bool, error)
	// TokenMetadata returns the chain token's metadata, nil when unpublished.
	TokenMetadata(ctx context.Context) (*TokenMeta, error)
}

// Factory produces RPC clients for a given set of endpoints.
type Factory interface {
	NewClient(endpoints []string) Client
}

type httpFactory struct {
	opts Opts
}

// NewHTTPFactory returns a factory that builds HTTP clients with shared defaults.
func NewHTTPFactory(opts Opts) Factory {
	return &httpFactory{opts: opts}
}

func (f *httpFactory) NewClient(endpoints []string) Client {
	o := f.opts
	o.Endpoints = endpoints
	return NewHTTPWithOpts(o)
}
