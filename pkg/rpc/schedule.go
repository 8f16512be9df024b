package rpc

import (
	"context"
	"fmt"
	"net/http"
)

// scheduleResponse is the wire shape of /v1/query/reward-schedule.
type scheduleResponse struct {
	Exists bool `json:"exists"`
}

// RewardScheduleExists queries /v1/query/reward-schedule for whether the
// stake pool currently runs an active reward schedule. The flag scopes the
// claimable-rewards read: without a schedule there is nothing to claim.
func (c *HTTPClient) RewardScheduleExists(ctx context.Context) (bool, error) {
	var out scheduleResponse
	if err := c.doJSON(ctx, http.MethodPost, rewardSchedulePath, nil, &out); err != nil {
		return false, fmt.Errorf("fetch reward schedule: %w", err)
	}
	return out.Exists, nil
}
