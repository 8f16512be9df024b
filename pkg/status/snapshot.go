package status

import "time"

// AccountSnapshot is the immutable bundle of an account's staking and token
// status at one observation. A new snapshot fully replaces the previous one;
// no snapshot is ever partially updated.
type AccountSnapshot struct {
	// HasStake reports whether the account holds a staked position.
	HasStake bool `json:"hasStake"`
	// HasRewards is derived: true iff ClaimableRewards > 0.
	HasRewards bool `json:"hasRewards"`
	// ClaimableRewards is the claimable amount in human-readable units.
	ClaimableRewards float64 `json:"claimableRewards"`
	// AccountStakeAmount is the staked amount in human-readable units.
	AccountStakeAmount float64 `json:"accountStakeAmount"`
	// IsCreator reports whether the account is the configured creator.
	IsCreator bool `json:"isCreator"`
	// AccountTokenBalance is the balance rendered with four fraction digits.
	AccountTokenBalance string `json:"accountTokenBalance"`
}

// DefaultSnapshot returns the deterministic zero snapshot: the initial state
// of every session and the fallback after a failed build.
func DefaultSnapshot() AccountSnapshot {
	return AccountSnapshot{AccountTokenBalance: "0"}
}

// Update is the envelope a published snapshot travels in.
type Update struct {
	SessionID string          `json:"sessionId"`
	Address   string          `json:"address"`
	Snapshot  AccountSnapshot `json:"snapshot"`
	At        time.Time       `json:"at"`
}

// Key identifies one logical subscription. Its parts are exactly the inputs
// whose change invalidates previous results: fetches started under an old
// key must never become visible under a new one.
type Key struct {
	Address        string
	RewardSchedule bool
}

// String renders the key for deduplication maps.
func (k Key) String() string {
	if k.RewardSchedule {
		return k.Address + "|scheduled"
	}
	return k.Address + "|unscheduled"
}
