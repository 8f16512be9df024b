package rpc

// RPC endpoint paths for the chain queries the watcher issues.
// All paths are consolidated here so an upstream route change lands in one place.

const (
	// Staking queries
	claimableRewardsPath = "/v1/query/claimable-rewards"
	isStakedPath         = "/v1/query/is-staked"
	stakePath            = "/v1/query/stake"

	// Token queries
	tokenBalancePath = "/v1/query/token-balance"
	tokenMetaPath    = "/v1/query/token-meta"

	// Stake-pool queries
	rewardSchedulePath = "/v1/query/reward-schedule"
)
