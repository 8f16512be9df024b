package rpc

// --- Query types

// AddressRequest is the payload for account-scoped queries.
// Addresses are hex-encoded, as handed over by the wallet.
type AddressRequest struct {
	Address string `json:"address"`
}

// NewAddressRequest builds the payload for an account-scoped query.
func NewAddressRequest(address string) AddressRequest {
	return AddressRequest{Address: address}
}
