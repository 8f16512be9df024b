package rpc

import (
	"context"
	"fmt"
	"net/http"
)

// RpcRewards represents the claimable-rewards response from /v1/query/claimable-rewards.
// The amount is already denominated in human-readable token units.
type RpcRewards struct {
	Address string  `json:"address"` // Hex bytes from RPC
	Amount  float64 `json:"amount"`  // Claimable amount in token units
}

// ClaimableRewards queries the /v1/query/claimable-rewards endpoint for the
// amount the address can currently claim from the active reward schedule.
//
// Returns 0 when the schedule has distributed nothing to the address yet, and
// an error if the endpoint is unreachable or returns invalid data.
func (c *HTTPClient) ClaimableRewards(ctx context.Context, address string) (float64, error) {
	var rewards RpcRewards
	if err := c.doJSON(ctx, http.MethodPost, claimableRewardsPath, NewAddressRequest(address), &rewards); err != nil {
		return 0, fmt.Errorf("fetch claimable rewards for %s: %w", address, err)
	}
	return rewards.Amount, nil
}
