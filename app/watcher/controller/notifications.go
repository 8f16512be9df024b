package controller

import (
	"net/http"
	"strconv"

	"github.com/go-jose/go-jose/v4/json"

	"github.com/canopy-network/stakewatch/pkg/notify"
)

const (
	defaultNoticeLimit = 50
	maxNoticeLimit     = 500
)

// HandleNotifications returns the notification backlog, newest first. The
// backlog lives in the capped Redis stream, so it needs Redis.
func (c *Controller) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		writeError(w, http.StatusServiceUnavailable, "notification backlog not available (Redis disabled)")
		return
	}

	limit := defaultNoticeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > maxNoticeLimit {
		limit = maxNoticeLimit
	}

	msgs, err := c.App.RedisClient.XRevRange(r.Context(), notify.Stream, "+", "-", int64(limit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	notices := make([]notify.Notification, 0, len(msgs))
	for _, msg := range msgs {
		data, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var n notify.Notification
		if unmarshalErr := json.Unmarshal([]byte(data), &n); unmarshalErr != nil {
			continue
		}
		notices = append(notices, n)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":         len(notices),
		"notifications": notices,
	})
}
