package wallet

import "fmt"

// External wallet infrastructure publishes connection lifecycle events to a
// stream; the watcher replays them onto the registry. Event kinds form a
// closed set.
const (
	EventConnected     = "connected"
	EventDisconnected  = "disconnected"
	EventAddressChange = "address.changed"
)

// Event is one entry of the wallet event feed.
type Event struct {
	Kind    string `json:"event"`
	Session string `json:"session"`
	Address string `json:"address,omitempty"`
}

// Apply mutates the registry according to the event. The returned session is
// nil for disconnects.
func (r *Registry) Apply(ev Event) (*Session, error) {
	if ev.Session == "" {
		return nil, fmt.Errorf("wallet event %q without session id", ev.Kind)
	}
	switch ev.Kind {
	case EventConnected:
		return r.ConnectWithID(ev.Session, ev.Address)
	case EventAddressChange:
		return r.SetAddress(ev.Session, ev.Address)
	case EventDisconnected:
		r.Disconnect(ev.Session)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown wallet event %q", ev.Kind)
	}
}
