package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
)

// addressBytes is the byte length of an account address (hex-encoded on the wire).
const addressBytes = 20

// IsValidAddress reports whether s looks like a hex-encoded account address.
func IsValidAddress(s string) bool {
	if len(s) != addressBytes*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Registry tracks connected wallet sessions. Connection state is membership:
// a session exists while its wallet is connected, and the poller only touches
// sessions whose address is resolvable.
type Registry struct {
	sessions *xsync.Map[string, *Session]
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: xsync.NewMap[string, *Session]()}
}

// Connect registers a new session for the given address under a generated ID.
// An empty address is allowed: it describes a connected wallet that has not
// resolved an account yet; the poller skips it until SetAddress.
func (r *Registry) Connect(address string) (*Session, error) {
	return r.ConnectWithID("", address)
}

// ConnectWithID registers a session under an external identifier (the wallet
// event feed names its own sessions). Reconnecting an existing ID re-points
// that session at the new address instead of duplicating it.
func (r *Registry) ConnectWithID(id, address string) (*Session, error) {
	if address != "" && !IsValidAddress(address) {
		return nil, fmt.Errorf("invalid account address %q", address)
	}
	s := newSession(id, address)
	if prev, loaded := r.sessions.LoadOrStore(s.ID, s); loaded {
		prev.setAddress(address)
		return prev, nil
	}
	return s, nil
}

// SetAddress swaps the account behind an existing session, bumping its
// generation so in-flight snapshot builds for the old account are dismissed.
func (r *Registry) SetAddress(id, address string) (*Session, error) {
	if address != "" && !IsValidAddress(address) {
		return nil, fmt.Errorf("invalid account address %q", address)
	}
	s, ok := r.sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	s.setAddress(address)
	return s, nil
}

// Disconnect removes a session and invalidates its in-flight work.
// Returns false when the session was not connected.
func (r *Registry) Disconnect(id string) bool {
	s, ok := r.sessions.LoadAndDelete(id)
	if !ok {
		return false
	}
	s.invalidate()
	return true
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, bool) {
	return r.sessions.Load(id)
}

// Range calls fn for every connected session until it returns false.
func (r *Registry) Range(fn func(s *Session) bool) {
	r.sessions.Range(func(_ string, s *Session) bool {
		return fn(s)
	})
}

// Len returns the number of connected sessions.
func (r *Registry) Len() int {
	return r.sessions.Size()
}
