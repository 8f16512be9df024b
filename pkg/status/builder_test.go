package status

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-network/stakewatch/pkg/rpc"
	"github.com/canopy-network/stakewatch/pkg/token"
)

const (
	testAddr    = "aabbccddeeff00112233445566778899aabbccdd"
	creatorAddr = "00112233445566778899aabbccddeeff00112233"
)

func newTestBuilder(client rpc.Client, creator string) *Builder {
	return NewBuilder(client, creator, token.NewFormatter("en"))
}

// TestBuilder_Build_StakedWithRewards covers the staked-and-earning path:
// claimable 5, stake raw "200000" at 6 decimals.
func TestBuilder_Build_StakedWithRewards(t *testing.T) {
	client := &rpc.Fake{
		Claimable: 5,
		Staked:    true,
		Record:    &rpc.Stake{Address: testAddr, Amount: "200000"},
		Balance:   3456789,
	}

	snap, err := newTestBuilder(client, "").Build(context.Background(), testAddr,
		Ambient{RewardScheduleExists: true, TokenDecimals: 6})

	require.NoError(t, err)
	assert.True(t, snap.HasStake)
	assert.True(t, snap.HasRewards)
	assert.Equal(t, float64(5), snap.ClaimableRewards)
	assert.Equal(t, 0.2, snap.AccountStakeAmount)
	assert.Equal(t, "3.4568", snap.AccountTokenBalance)
}

// TestBuilder_Build_BalanceFormatting covers the fixed four-digit rendering:
// raw 123456789 at 4 decimals reads "12345.6789".
func TestBuilder_Build_BalanceFormatting(t *testing.T) {
	client := &rpc.Fake{Balance: 123456789}

	snap, err := newTestBuilder(client, "").Build(context.Background(), testAddr,
		Ambient{RewardScheduleExists: false, TokenDecimals: 4})

	require.NoError(t, err)
	assert.Equal(t, "12345.6789", snap.AccountTokenBalance)
}

// TestBuilder_Build_NoSchedule verifies that without a reward schedule the
// claimable read is skipped entirely and rewards stay zero.
func TestBuilder_Build_NoSchedule(t *testing.T) {
	client := &rpc.Fake{Claimable: 99} // must never be read

	snap, err := newTestBuilder(client, "").Build(context.Background(), testAddr,
		Ambient{RewardScheduleExists: false, TokenDecimals: 6})

	require.NoError(t, err)
	assert.Zero(t, snap.ClaimableRewards)
	assert.False(t, snap.HasRewards)
	assert.Equal(t, int64(0), client.ClaimableCalls.Load())
}

// TestBuilder_Build_RewardsDerivation verifies hasRewards is true iff the
// claimable amount is positive.
func TestBuilder_Build_RewardsDerivation(t *testing.T) {
	tests := []struct {
		name       string
		claimable  float64
		hasRewards bool
	}{
		{name: "zero claimable", claimable: 0, hasRewards: false},
		{name: "dust claimable", claimable: 0.0001, hasRewards: true},
		{name: "whole claimable", claimable: 12, hasRewards: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &rpc.Fake{Claimable: tt.claimable}
			snap, err := newTestBuilder(client, "").Build(context.Background(), testAddr,
				Ambient{RewardScheduleExists: true})
			require.NoError(t, err)
			assert.Equal(t, tt.hasRewards, snap.HasRewards)
			assert.Equal(t, tt.claimable, snap.ClaimableRewards)
		})
	}
}

// TestBuilder_Build_NoStake verifies unstaked accounts skip the record read
// and report a zero stake amount.
func TestBuilder_Build_NoStake(t *testing.T) {
	client := &rpc.Fake{
		Staked: false,
		Record: &rpc.Stake{Amount: "999999"}, // must never be read
	}

	snap, err := newTestBuilder(client, "").Build(context.Background(), testAddr, Ambient{TokenDecimals: 6})

	require.NoError(t, err)
	assert.False(t, snap.HasStake)
	assert.Zero(t, snap.AccountStakeAmount)
	assert.Equal(t, int64(0), client.RecordCalls.Load())
}

// TestBuilder_Build_MissingStakeRecord verifies a staked flag with no record
// behind it counts as raw zero instead of failing.
func TestBuilder_Build_MissingStakeRecord(t *testing.T) {
	client := &rpc.Fake{Staked: true, Record: nil}

	snap, err := newTestBuilder(client, "").Build(context.Background(), testAddr, Ambient{TokenDecimals: 6})

	require.NoError(t, err)
	assert.True(t, snap.HasStake)
	assert.Zero(t, snap.AccountStakeAmount)
}

// TestBuilder_Build_ZeroDecimals verifies the precision default: unknown
// metadata means raw units pass through unshifted.
func TestBuilder_Build_ZeroDecimals(t *testing.T) {
	client := &rpc.Fake{
		Staked: true,
		Record: &rpc.Stake{Amount: "200000"},
	}

	snap, err := newTestBuilder(client, "").Build(context.Background(), testAddr, Ambient{})

	require.NoError(t, err)
	assert.Equal(t, float64(200000), snap.AccountStakeAmount)
}

// TestBuilder_Build_Creator verifies the case-insensitive creator match and
// its unset default.
func TestBuilder_Build_Creator(t *testing.T) {
	tests := []struct {
		name      string
		creator   string
		address   string
		isCreator bool
	}{
		{name: "exact match", creator: creatorAddr, address: creatorAddr, isCreator: true},
		{name: "case-insensitive match", creator: creatorAddr, address: strings.ToUpper(creatorAddr), isCreator: true},
		{name: "different address", creator: creatorAddr, address: testAddr, isCreator: false},
		{name: "creator unset", creator: "", address: creatorAddr, isCreator: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := newTestBuilder(&rpc.Fake{}, tt.creator).Build(context.Background(), tt.address, Ambient{})
			require.NoError(t, err)
			assert.Equal(t, tt.isCreator, snap.IsCreator)
		})
	}
}

// TestBuilder_Build_ErrorAborts verifies any read failure aborts the build
// and yields the default snapshot, never a half-populated one.
func TestBuilder_Build_ErrorAborts(t *testing.T) {
	boom := errors.New("rpc unreachable")

	tests := []struct {
		name   string
		client *rpc.Fake
	}{
		{name: "claimable read fails", client: &rpc.Fake{ClaimableErr: boom}},
		{name: "stake flag fails", client: &rpc.Fake{StakedErr: boom}},
		{name: "stake record fails", client: &rpc.Fake{Staked: true, RecordErr: boom}},
		{name: "stake amount malformed", client: &rpc.Fake{Staked: true, Record: &rpc.Stake{Amount: "not-a-number"}}},
		{name: "balance read fails", client: &rpc.Fake{BalanceErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := newTestBuilder(tt.client, creatorAddr).Build(context.Background(), testAddr,
				Ambient{RewardScheduleExists: true, TokenDecimals: 6})
			require.Error(t, err)
			assert.Equal(t, DefaultSnapshot(), snap)
		})
	}
}

// TestBuilder_Probe verifies ambient refresh and the zero-decimals default.
func TestBuilder_Probe(t *testing.T) {
	client := &rpc.Fake{ScheduleExists: true, Meta: &rpc.TokenMeta{Decimals: 6}}
	amb, err := newTestBuilder(client, "").Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, amb.RewardScheduleExists)
	assert.Equal(t, int32(6), amb.TokenDecimals)

	client = &rpc.Fake{ScheduleExists: false, Meta: nil}
	amb, err = newTestBuilder(client, "").Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, amb.RewardScheduleExists)
	assert.Zero(t, amb.TokenDecimals)

	client = &rpc.Fake{ScheduleErr: errors.New("down")}
	_, err = newTestBuilder(client, "").Probe(context.Background())
	require.Error(t, err)
}

// TestDefaultSnapshot pins the deterministic defaults.
func TestDefaultSnapshot(t *testing.T) {
	snap := DefaultSnapshot()
	assert.False(t, snap.HasStake)
	assert.False(t, snap.HasRewards)
	assert.Zero(t, snap.ClaimableRewards)
	assert.Zero(t, snap.AccountStakeAmount)
	assert.False(t, snap.IsCreator)
	assert.Equal(t, "0", snap.AccountTokenBalance)
}
