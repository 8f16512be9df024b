package rpc

import (
	"context"
	"fmt"
	"net/http"
)

// Stake represents a stake record returned from /v1/query/stake.
// The amount is a decimal string of raw on-chain units because staked
// positions can exceed the integer range JSON numbers survive.
type Stake struct {
	Address string `json:"address"` // Hex bytes from RPC
	Amount  string `json:"amount"`  // Raw staked units as a decimal string
	Since   uint64 `json:"since"`   // Height the position was created at
}

// stakedResponse is the wire shape of /v1/query/is-staked.
type stakedResponse struct {
	Staked bool `json:"staked"`
}

// HasStake queries /v1/query/is-staked for whether the address currently
// holds a staked position.
func (c *HTTPClient) HasStake(ctx context.Context, address string) (bool, error) {
	var out stakedResponse
	if err := c.doJSON(ctx, http.MethodPost, isStakedPath, NewAddressRequest(address), &out); err != nil {
		return false, fmt.Errorf("fetch stake flag for %s: %w", address, err)
	}
	return out.Staked, nil
}

// StakeRecord queries /v1/query/stake for the address's stake record.
// The endpoint answers JSON null when the address holds no position, which
// surfaces here as a nil record without an error.
func (c *HTTPClient) StakeRecord(ctx context.Context, address string) (*Stake, error) {
	var stake *Stake
	if err := c.doJSON(ctx, http.MethodPost, stakePath, NewAddressRequest(address), &stake); err != nil {
		return nil, fmt.Errorf("fetch stake record for %s: %w", address, err)
	}
	return stake, nil
}
