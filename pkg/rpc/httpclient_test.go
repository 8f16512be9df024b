package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPClient_FailoverOnServerError verifies a 5xx from the first endpoint
// fails over to the next one.
func TestHTTPClient_FailoverOnServerError(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(stakedResponse{Staked: true})
	}))
	defer good.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{bad.URL, good.URL}})
	staked, err := client.HasStake(context.Background(), "a1b2c3")

	require.NoError(t, err)
	assert.True(t, staked)
}

// TestHTTPClient_BreakerOpensAfterFailures verifies repeated failures open the
// breaker and subsequent calls skip the endpoint entirely.
func TestHTTPClient_BreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int64
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{bad.URL}, BreakerFailures: 2})

	for i := 0; i < 4; i++ {
		_, err := client.HasStake(context.Background(), "a1b2c3")
		require.Error(t, err)
	}

	// Two failures trip the breaker; the last two calls never reach the server.
	assert.Equal(t, int64(2), hits.Load())
}

// TestHTTPClient_NoEndpoints verifies the client refuses to run unconfigured.
func TestHTTPClient_NoEndpoints(t *testing.T) {
	client := NewHTTPWithOpts(Opts{})
	_, err := client.TokenBalance(context.Background(), "a1b2c3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoints configured")
}
