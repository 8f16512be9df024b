package controller

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"

	"github.com/canopy-network/stakewatch/pkg/status"
	"github.com/canopy-network/stakewatch/pkg/wallet"
)

// sessionView is the wire shape of one watched session.
type sessionView struct {
	ID          string                 `json:"id"`
	Address     string                 `json:"address"`
	ConnectedAt time.Time              `json:"connectedAt"`
	Snapshot    status.AccountSnapshot `json:"snapshot"`
}

func (c *Controller) viewOf(s *wallet.Session) sessionView {
	return sessionView{
		ID:          s.ID,
		Address:     s.Address(),
		ConnectedAt: s.ConnectedAt,
		Snapshot:    c.App.Provider.Current(s.ID),
	}
}

// HandleSessionConnect registers a wallet session and schedules its first
// refresh right away instead of waiting out the current tick.
func (c *Controller) HandleSessionConnect(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID      string `json:"id,omitempty"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	var (
		s   *wallet.Session
		err error
	)
	if in.ID != "" {
		s, err = c.App.Registry.ConnectWithID(in.ID, in.Address)
	} else {
		s, err = c.App.Registry.Connect(in.Address)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Kicks run under the app context: the build must not die with this request.
	c.App.Poller.Kick(c.App.Context, s)

	writeJSON(w, http.StatusCreated, c.viewOf(s))
}

// HandleSessionList returns every watched session with its current snapshot.
func (c *Controller) HandleSessionList(w http.ResponseWriter, _ *http.Request) {
	views := make([]sessionView, 0, c.App.Registry.Len())
	c.App.Registry.Range(func(s *wallet.Session) bool {
		views = append(views, c.viewOf(s))
		return true
	})
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(views),
		"sessions": views,
	})
}

// HandleSessionDisconnect removes a session; its published state resolves to
// the default snapshot.
func (c *Controller) HandleSessionDisconnect(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s, ok := c.App.Registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	address := s.Address()

	c.App.Registry.Disconnect(id)
	c.App.Provider.Remove(c.App.Context, id, address)

	w.WriteHeader(http.StatusNoContent)
}

// HandleSessionRepoint swaps the account behind a session. In-flight builds
// for the old account are dismissed by the generation bump.
func (c *Controller) HandleSessionRepoint(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	s, err := c.App.Registry.SetAddress(id, in.Address)
	if err != nil {
		if strings.Contains(err.Error(), "unknown session") {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if s.Resolvable() {
		c.App.Poller.Kick(c.App.Context, s)
	} else {
		// The wallet dropped its account: polling is disabled until the next
		// re-point, and consumers see the default snapshot meanwhile.
		c.App.Provider.Reset(c.App.Context, s.ID, in.Address)
	}

	writeJSON(w, http.StatusOK, c.viewOf(s))
}
