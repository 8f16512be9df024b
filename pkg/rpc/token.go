package rpc

import (
	"context"
	"fmt"
	"net/http"
)

// RpcBalance represents the token-balance response from /v1/query/token-balance.
type RpcBalance struct {
	Address string `json:"address"` // Hex bytes from RPC
	Amount  uint64 `json:"amount"`  // Balance in raw on-chain units
}

// TokenMeta represents token metadata returned from /v1/query/token-meta.
type TokenMeta struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"` // Precision used to derive human-readable units
}

// TokenBalance queries /v1/query/token-balance for the address's balance in
// raw on-chain integer units.
func (c *HTTPClient) TokenBalance(ctx context.Context, address string) (uint64, error) {
	var balance RpcBalance
	if err := c.doJSON(ctx, http.MethodPost, tokenBalancePath, NewAddressRequest(address), &balance); err != nil {
		return 0, fmt.Errorf("fetch token balance for %s: %w", address, err)
	}
	return balance.Amount, nil
}

// TokenMetadata queries /v1/query/token-meta for the chain token's metadata.
// Chains that publish no metadata answer JSON null, which surfaces as a nil
// record without an error; callers fall back to zero decimals.
func (c *HTTPClient) TokenMetadata(ctx context.Context) (*TokenMeta, error) {
	var meta *TokenMeta
	if err := c.doJSON(ctx, http.MethodPost, tokenMetaPath, nil, &meta); err != nil {
		return nil, fmt.Errorf("fetch token metadata: %w", err)
	}
	return meta, nil
}
