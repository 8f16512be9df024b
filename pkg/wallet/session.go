package wallet

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is one connected wallet identity being watched.
type Session struct {
	ID          string
	ConnectedAt time.Time

	address atomic.Value // string
	gen     atomic.Uint64
}

func newSession(id, address string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{ID: id, ConnectedAt: time.Now().UTC()}
	s.address.Store(address)
	s.gen.Store(1)
	return s
}

// Address returns the session's current account address, empty while the
// wallet has not resolved one.
func (s *Session) Address() string {
	v, _ := s.address.Load().(string)
	return v
}

// Generation returns the session's current generation. It moves every time
// the identity behind the session changes; results stamped with an older
// generation are stale and must be dismissed.
func (s *Session) Generation() uint64 {
	return s.gen.Load()
}

// Resolvable reports whether the session can be polled.
func (s *Session) Resolvable() bool {
	return s.Address() != ""
}

// setAddress swaps the account behind the session and bumps the generation.
func (s *Session) setAddress(address string) {
	s.address.Store(address)
	s.gen.Add(1)
}

// invalidate bumps the generation so in-flight work for the session lands stale.
func (s *Session) invalidate() {
	s.gen.Add(1)
}
