package controller

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/canopy-network/stakewatch/pkg/db/history"
	"github.com/canopy-network/stakewatch/pkg/wallet"
)

// HandleHistory returns recently archived snapshots for an address, newest
// first. Requires the ClickHouse archive.
func (c *Controller) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if c.App.HistoryDB == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot history not available (ClickHouse disabled)")
		return
	}

	address := mux.Vars(r)["address"]
	if !wallet.IsValidAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	limit := history.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	rows, err := c.App.HistoryDB.History(r.Context(), address, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":   address,
		"count":     len(rows),
		"snapshots": rows,
	})
}

// HandleHistoryLatest returns the most recent archived snapshot for an address.
func (c *Controller) HandleHistoryLatest(w http.ResponseWriter, r *http.Request) {
	if c.App.HistoryDB == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot history not available (ClickHouse disabled)")
		return
	}

	address := mux.Vars(r)["address"]
	if !wallet.IsValidAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	row, err := c.App.HistoryDB.Latest(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "no archived snapshot")
		return
	}

	writeJSON(w, http.StatusOK, row)
}
