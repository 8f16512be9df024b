package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPClient_TokenBalance tests the token-balance read.
func TestHTTPClient_TokenBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v1/query/token-balance")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(RpcBalance{Address: "a1b2c3", Amount: 123456789})
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	amount, err := client.TokenBalance(context.Background(), "a1b2c3")

	require.NoError(t, err)
	assert.Equal(t, uint64(123456789), amount)
}

// TestHTTPClient_TokenMetadata tests the token-meta read.
func TestHTTPClient_TokenMetadata(t *testing.T) {
	response := TokenMeta{Name: "Canopy", Symbol: "CNPY", Decimals: 6}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v1/query/token-meta")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	meta, err := client.TokenMetadata(context.Background())

	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, int32(6), meta.Decimals)
	assert.Equal(t, "CNPY", meta.Symbol)
}

// TestHTTPClient_TokenMetadata_Null tests that chains without metadata answer null.
func TestHTTPClient_TokenMetadata_Null(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("null"))
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	meta, err := client.TokenMetadata(context.Background())

	require.NoError(t, err)
	assert.Nil(t, meta)
}

// TestHTTPClient_RewardScheduleExists tests the reward-schedule read.
func TestHTTPClient_RewardScheduleExists(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
	}{
		{name: "schedule configured", exists: true},
		{name: "no schedule", exists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.URL.Path, "/v1/query/reward-schedule")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(scheduleResponse{Exists: tt.exists})
			}))
			defer server.Close()

			client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
			exists, err := client.RewardScheduleExists(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.exists, exists)
		})
	}
}
