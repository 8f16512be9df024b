package controller

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNextBackoff tests the exponential backoff calculation with jitter
func TestNextBackoff(t *testing.T) {
	tests := []struct {
		name         string
		current      time.Duration
		max          time.Duration
		factor       float64
		jitterFactor float64
		expectMin    time.Duration
		expectMax    time.Duration
	}{
		{
			name:         "initial backoff doubles",
			current:      1 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.1,
			expectMin:    1800 * time.Millisecond, // 2s - 10% jitter
			expectMax:    2200 * time.Millisecond, // 2s + 10% jitter
		},
		{
			name:         "respects maximum",
			current:      20 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.1,
			expectMin:    27 * time.Second, // 30s - 10% jitter
			expectMax:    30 * time.Second, // capped at max
		},
		{
			name:         "no jitter produces exact value",
			current:      5 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.0,
			expectMin:    10 * time.Second, // exactly 2x
			expectMax:    10 * time.Second, // exactly 2x
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Run multiple times to account for randomness in jitter
			for i := 0; i < 10; i++ {
				result := nextBackoff(tt.current, tt.max, tt.factor, tt.jitterFactor)
				assert.GreaterOrEqual(t, result, tt.expectMin, "backoff should be >= minimum")
				assert.LessOrEqual(t, result, tt.expectMax, "backoff should be <= maximum")
			}
		})
	}
}

// TestSessionFromChannel tests parsing session IDs from Redis channel names
func TestSessionFromChannel(t *testing.T) {
	tests := []struct {
		name     string
		channel  string
		expected string
	}{
		{
			name:     "valid channel format",
			channel:  "stakewatch:abc123:snapshot.updated",
			expected: "abc123",
		},
		{
			name:     "valid channel with uuid session",
			channel:  "stakewatch:bb2cf9f5-6a9f-4dbd-85b3-5d3c801f6f52:snapshot.updated",
			expected: "bb2cf9f5-6a9f-4dbd-85b3-5d3c801f6f52",
		},
		{
			name:     "invalid format - too few parts",
			channel:  "stakewatch:snapshot.updated",
			expected: "",
		},
		{
			name:     "invalid format - too many parts",
			channel:  "stakewatch:session:extra:snapshot.updated",
			expected: "",
		},
		{
			name:     "empty channel",
			channel:  "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sessionFromChannel(tt.channel)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestSessionWatchlist tests the per-client subscription tracking logic
func TestSessionWatchlist(t *testing.T) {
	t.Run("add and check", func(t *testing.T) {
		wl := newSessionWatchlist()

		wl.add("session1")
		assert.True(t, wl.contains("session1"))
		assert.False(t, wl.contains("session2"))
	})

	t.Run("wildcard matches all sessions", func(t *testing.T) {
		wl := newSessionWatchlist()

		wl.add("*")
		assert.True(t, wl.contains("*"))
		assert.True(t, wl.contains("session1"))
		assert.True(t, wl.contains("any-session"))
	})

	t.Run("remove", func(t *testing.T) {
		wl := newSessionWatchlist()

		wl.add("session1")
		assert.True(t, wl.contains("session1"))

		wl.remove("session1")
		assert.False(t, wl.contains("session1"))
	})

	t.Run("concurrent access", func(t *testing.T) {
		wl := newSessionWatchlist()
		done := make(chan bool)

		// Concurrent writes
		go func() {
			for i := 0; i < 100; i++ {
				wl.add("session1")
			}
			done <- true
		}()

		go func() {
			for i := 0; i < 100; i++ {
				wl.remove("session1")
			}
			done <- true
		}()

		// Concurrent reads
		go func() {
			for i := 0; i < 100; i++ {
				_ = wl.contains("session1")
			}
			done <- true
		}()

		// Wait for all goroutines
		<-done
		<-done
		<-done

		// Should not panic or race
	})
}

// TestServerMessageSerialization tests JSON serialization of outgoing messages
func TestServerMessageSerialization(t *testing.T) {
	tests := []struct {
		name    string
		message serverMessage
	}{
		{
			name: "snapshot updated message",
			message: serverMessage{
				Type: "snapshot.updated",
				Payload: map[string]interface{}{
					"sessionId": "abc123",
					"address":   "aabbccddeeff00112233445566778899aabbccdd",
				},
			},
		},
		{
			name: "error message with reconnect info",
			message: serverMessage{
				Type: "error",
				Payload: map[string]interface{}{
					"message":     "Redis connection lost, attempting to reconnect...",
					"retryIn":     2.5,
					"attempt":     3,
					"recoverable": true,
				},
			},
		},
		{
			name: "notification message",
			message: serverMessage{
				Type: "notification",
				Payload: map[string]interface{}{
					"title":   "Error",
					"variant": "destructive",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.message)
			require.NoError(t, err)

			var decoded serverMessage
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.message.Type, decoded.Type)
		})
	}
}

// TestClientMessageParsing tests parsing of incoming client messages
func TestClientMessageParsing(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    clientMessage
		wantErr bool
	}{
		{
			name: "subscribe to one session",
			json: `{"action":"subscribe","sessionId":"abc123"}`,
			want: clientMessage{
				Action:    "subscribe",
				SessionID: "abc123",
			},
		},
		{
			name: "subscribe to all sessions",
			json: `{"action":"subscribe","sessionId":"*"}`,
			want: clientMessage{
				Action:    "subscribe",
				SessionID: "*",
			},
		},
		{
			name: "unsubscribe",
			json: `{"action":"unsubscribe","sessionId":"abc123"}`,
			want: clientMessage{
				Action:    "unsubscribe",
				SessionID: "abc123",
			},
		},
		{
			name:    "invalid json",
			json:    `{invalid}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg clientMessage
			err := json.Unmarshal([]byte(tt.json), &msg)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.Action, msg.Action)
			assert.Equal(t, tt.want.SessionID, msg.SessionID)
		})
	}
}
