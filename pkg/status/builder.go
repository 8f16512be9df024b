package status

import (
	"context"
	"fmt"
	"strings"

	"github.com/canopy-network/stakewatch/pkg/rpc"
	"github.com/canopy-network/stakewatch/pkg/token"
)

// Ambient carries the poll-cycle context a build runs under: chain-wide
// facts refreshed once per cycle, not per account.
type Ambient struct {
	// RewardScheduleExists gates the claimable-rewards read.
	RewardScheduleExists bool
	// TokenDecimals is the token's precision; zero when the chain publishes
	// no metadata.
	TokenDecimals int32
}

// Builder assembles account snapshots from chain reads.
type Builder struct {
	client  rpc.Client
	creator string
	format  *token.Formatter
}

// NewBuilder creates a Builder. creatorAddress may be empty, in which case
// no account is ever flagged as the creator.
func NewBuilder(client rpc.Client, creatorAddress string, formatter *token.Formatter) *Builder {
	return &Builder{client: client, creator: creatorAddress, format: formatter}
}

// Build performs the reads for address in order and assembles the snapshot.
// Any failure aborts the whole build: the caller gets the error together
// with the default snapshot, never a half-populated one.
func (b *Builder) Build(ctx context.Context, address string, amb Ambient) (AccountSnapshot, error) {
	// Without a schedule there is nothing to claim, so the read is skipped.
	var claimable float64
	if amb.RewardScheduleExists {
		var err error
		claimable, err = b.client.ClaimableRewards(ctx, address)
		if err != nil {
			return DefaultSnapshot(), fmt.Errorf("claimable rewards: %w", err)
		}
	}

	hasStake, err := b.client.HasStake(ctx, address)
	if err != nil {
		return DefaultSnapshot(), fmt.Errorf("stake flag: %w", err)
	}

	var stakeAmount float64
	if hasStake {
		record, err := b.client.StakeRecord(ctx, address)
		if err != nil {
			return DefaultSnapshot(), fmt.Errorf("stake record: %w", err)
		}
		// A missing record or empty amount counts as raw zero.
		raw := ""
		if record != nil {
			raw = record.Amount
		}
		amount, err := token.FromRawString(raw, amb.TokenDecimals)
		if err != nil {
			return DefaultSnapshot(), fmt.Errorf("stake amount: %w", err)
		}
		stakeAmount = amount.InexactFloat64()
	}

	isCreator := b.creator != "" && strings.EqualFold(address, b.creator)

	rawBalance, err := b.client.TokenBalance(ctx, address)
	if err != nil {
		return DefaultSnapshot(), fmt.Errorf("token balance: %w", err)
	}
	balance := b.format.Balance(token.FromRaw(rawBalance, amb.TokenDecimals))

	return AccountSnapshot{
		HasStake:            hasStake,
		HasRewards:          claimable > 0,
		ClaimableRewards:    claimable,
		AccountStakeAmount:  stakeAmount,
		IsCreator:           isCreator,
		AccountTokenBalance: balance,
	}, nil
}

// Probe refreshes the ambient facts builds run under. The token metadata
// defaulting lives here: a chain without metadata means zero decimals.
func (b *Builder) Probe(ctx context.Context) (Ambient, error) {
	exists, err := b.client.RewardScheduleExists(ctx)
	if err != nil {
		return Ambient{}, fmt.Errorf("reward schedule: %w", err)
	}

	meta, err := b.client.TokenMetadata(ctx)
	if err != nil {
		return Ambient{}, fmt.Errorf("token metadata: %w", err)
	}

	amb := Ambient{RewardScheduleExists: exists}
	if meta != nil {
		amb.TokenDecimals = meta.Decimals
	}
	return amb, nil
}
