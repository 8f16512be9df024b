package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/canopy-network/stakewatch/pkg/status"
)

// HandleSnapshot returns the last published update for one session. Before
// the first build lands the snapshot is the all-default one.
func (c *Controller) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s, ok := c.App.Registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if u, published := c.App.Provider.Last(id); published {
		writeJSON(w, http.StatusOK, u)
		return
	}

	writeJSON(w, http.StatusOK, status.Update{
		SessionID: id,
		Address:   s.Address(),
		Snapshot:  status.DefaultSnapshot(),
	})
}
