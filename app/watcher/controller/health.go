package controller

import (
	"net/http"
)

// HandleLiveness reports the process is up.
func (c *Controller) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReadiness reports per-component state. The watcher serves snapshots
// from memory even with Redis and ClickHouse down, so degraded optional
// backends show up in the body without failing the probe.
func (c *Controller) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overall := "ok"
	components := map[string]string{
		"scheduler": "ok",
	}

	if c.App.HistoryDB != nil {
		if err := c.App.HistoryDB.Db.Ping(ctx); err != nil {
			components["clickhouse"] = "degraded"
			overall = "degraded"
		} else {
			components["clickhouse"] = "ok"
		}
	} else {
		components["clickhouse"] = "disabled"
	}

	if c.App.RedisClient != nil {
		if err := c.App.RedisClient.Health(ctx); err != nil {
			components["redis"] = "degraded"
			overall = "degraded"
		} else {
			components["redis"] = "ok"
		}
	} else {
		components["redis"] = "disabled"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     overall,
		"components": components,
		"sessions":   c.App.Registry.Len(),
	})
}
