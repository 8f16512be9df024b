package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/canopy-network/stakewatch/pkg/status"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: In production, restrict to specific origins
		return true
	},
}

// clientMessage represents messages sent by WebSocket clients.
type clientMessage struct {
	Action    string `json:"action"`    // "subscribe" or "unsubscribe"
	SessionID string `json:"sessionId"` // Session ID to watch, or "*" for all sessions
}

// serverMessage represents messages sent to WebSocket clients.
type serverMessage struct {
	Type    string      `json:"type"`    // "snapshot.updated", "notification", "subscribed", "unsubscribed", "info", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

// sessionWatchlist tracks which sessions a client wants updates for.
type sessionWatchlist struct {
	mu  sync.RWMutex
	ids map[string]bool // sessionID -> watched
}

func newSessionWatchlist() *sessionWatchlist {
	return &sessionWatchlist{ids: make(map[string]bool)}
}

func (wl *sessionWatchlist) add(sessionID string) {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	wl.ids[sessionID] = true
}

func (wl *sessionWatchlist) remove(sessionID string) {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	delete(wl.ids, sessionID)
}

// contains checks if a session is watched. Wildcard (*) matches all sessions.
func (wl *sessionWatchlist) contains(sessionID string) bool {
	wl.mu.RLock()
	defer wl.mu.RUnlock()
	if wl.ids["*"] {
		return true
	}
	return wl.ids[sessionID]
}

// HandleWebSocket upgrades the HTTP connection and streams real-time events.
//
// Protocol:
// Client sends: {"action": "subscribe", "sessionId": "abc123"}  // Watch one session
// Client sends: {"action": "subscribe", "sessionId": "*"}       // Watch ALL sessions
// Client sends: {"action": "unsubscribe", "sessionId": "abc123"}
//
// Server sends:
// - {"type": "snapshot.updated", "payload": {...}}
// - {"type": "notification", "payload": {...}}
// - {"type": "subscribed", "payload": {"sessionId": "abc123"}}
// - {"type": "unsubscribed", "payload": {"sessionId": "abc123"}}
// - {"type": "error", "payload": {"message": "..."}}
//
// Snapshot updates and notifications come from the in-process provider and
// hub, so the endpoint works without Redis. With Redis attached, updates
// published by peer watcher instances are relayed too.
//
// IMPORTANT: All goroutines have panic recovery to prevent crashes.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func(conn *websocket.Conn) {
		if closeErr := conn.Close(); closeErr != nil {
			c.App.Logger.Error("Failed to close WebSocket connection", zap.Error(closeErr))
		}
	}(conn)

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	// Create cancellable context for this connection
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	watched := newSessionWatchlist()

	// Channel for outgoing messages
	send := make(chan serverMessage, 256)

	// Senders stop before send closes; the writer drains what is left.
	var senders sync.WaitGroup

	run := func(name string, fn func()) {
		senders.Add(1)
		go func() {
			defer senders.Done()
			defer func() {
				if rec := recover(); rec != nil {
					c.App.Logger.Error("Panic in WebSocket goroutine",
						zap.String("goroutine", name),
						zap.Any("panic", rec),
						zap.String("stack", string(debug.Stack())),
						zap.String("remote_addr", r.RemoteAddr))
					// Signal shutdown on panic
					cancel()
				}
			}()
			fn()
		}()
	}

	run("updates", func() { c.forwardUpdates(ctx, send, watched) })
	run("notifications", func() { c.forwardNotifications(ctx, send) })
	if c.App.RedisClient != nil {
		run("peer-updates", func() { c.forwardPeerUpdates(ctx, send, watched) })
	}
	run("pings", func() { c.sendPings(ctx, conn) })

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in WebSocket writer",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", r.RemoteAddr))
				cancel()
			}
		}()
		c.writeMessages(conn, send)
	}()

	// Read messages from client (for subscriptions and close detection)
	// This blocks until the connection closes
	c.readClientMessages(ctx, conn, cancel, watched, send)

	// Connection closed - stop the senders, then let the writer drain out.
	cancel()
	senders.Wait()
	close(send)
	<-writerDone

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// forwardUpdates relays published snapshot updates matching the watchlist.
func (c *Controller) forwardUpdates(ctx context.Context, send chan<- serverMessage, watched *sessionWatchlist) {
	sub := c.App.Provider.Subscribe()
	defer c.App.Provider.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub.C:
			if !ok {
				return
			}
			if !watched.contains(u.SessionID) {
				continue
			}
			select {
			case send <- serverMessage{Type: "snapshot.updated", Payload: u}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// forwardNotifications relays live notifications. Notifications are global,
// not per-session, so the watchlist does not apply.
func (c *Controller) forwardNotifications(ctx context.Context, send chan<- serverMessage) {
	sub := c.App.Hub.Subscribe()
	defer c.App.Hub.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-sub.C:
			if !ok {
				return
			}
			select {
			case send <- serverMessage{Type: "notification", Payload: n}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// forwardPeerUpdates subscribes to the Redis snapshot pattern and relays
// updates published by other watcher instances.
//
// This function implements automatic reconnection with exponential backoff:
// - If the Redis connection is lost, it retries with increasing delays
// - Clients are notified when Redis is unavailable
// - Automatically restores the subscription when Redis recovers
// - Respects context cancellation for clean shutdown
func (c *Controller) forwardPeerUpdates(ctx context.Context, send chan<- serverMessage, watched *sessionWatchlist) {
	pattern := status.SnapshotChannelPattern

	// Retry configuration
	const (
		initialBackoff = 1 * time.Second
		maxBackoff     = 30 * time.Second
		backoffFactor  = 2.0
		jitterFactor   = 0.1 // 10% jitter
	)

	backoff := initialBackoff
	attemptNum := 0

	for {
		// Check if context is cancelled before attempting connection
		select {
		case <-ctx.Done():
			c.App.Logger.Info("Redis subscription cancelled")
			return
		default:
		}

		attemptNum++

		subscriptionErr := c.attemptPeerSubscription(ctx, pattern, send, watched, attemptNum)

		// If context was cancelled, exit cleanly
		if ctx.Err() != nil {
			c.App.Logger.Info("Redis subscription cancelled")
			return
		}

		// Subscription ended (either due to error or channel closure)
		// Log the reason and prepare to retry
		if subscriptionErr != nil {
			c.App.Logger.Warn("Redis subscription failed, will retry",
				zap.Error(subscriptionErr),
				zap.Int("attempt", attemptNum),
				zap.Duration("backoff", backoff))
		} else {
			c.App.Logger.Warn("Redis subscription channel closed, will retry",
				zap.Int("attempt", attemptNum),
				zap.Duration("backoff", backoff))
		}

		// Notify client that Redis is unavailable
		select {
		case send <- serverMessage{
			Type: "error",
			Payload: map[string]interface{}{
				"message":     "Redis connection lost, attempting to reconnect...",
				"retryIn":     backoff.Seconds(),
				"attempt":     attemptNum,
				"recoverable": true,
			},
		}:
		case <-ctx.Done():
			return
		}

		// Wait before retrying (with context cancellation check)
		select {
		case <-time.After(backoff):
			// Continue to retry
		case <-ctx.Done():
			c.App.Logger.Info("Redis subscription cancelled during backoff")
			return
		}

		backoff = nextBackoff(backoff, maxBackoff, backoffFactor, jitterFactor)
	}
}

// attemptPeerSubscription attempts a single Redis subscription and relays
// messages until the subscription fails or the context is cancelled. Returns
// an error if subscription setup fails, nil if the subscription was
// established but the channel closed.
func (c *Controller) attemptPeerSubscription(
	ctx context.Context,
	pattern string,
	send chan<- serverMessage,
	watched *sessionWatchlist,
	attemptNum int,
) error {
	c.App.Logger.Info("Attempting Redis subscription",
		zap.String("pattern", pattern),
		zap.Int("attempt", attemptNum))

	pubsub := c.App.RedisClient.PSubscribe(ctx, pattern)
	defer func() {
		if err := pubsub.Close(); err != nil {
			c.App.Logger.Error("Error closing Redis subscription", zap.Error(err))
		}
	}()

	// Wait for confirmation of subscription with timeout
	receiveCtx, receiveCancel := context.WithTimeout(ctx, 5*time.Second)
	defer receiveCancel()

	if _, err := pubsub.Receive(receiveCtx); err != nil {
		return fmt.Errorf("failed to confirm Redis subscription: %w", err)
	}

	c.App.Logger.Info("Successfully subscribed to Redis pattern",
		zap.String("pattern", pattern),
		zap.Int("attempt", attemptNum))

	// Notify client that Redis connection is restored
	select {
	case send <- serverMessage{
		Type: "info",
		Payload: map[string]interface{}{
			"message": "Redis connection established",
			"attempt": attemptNum,
		},
	}:
	case <-ctx.Done():
		return ctx.Err()
	}

	return c.relayPeerMessages(ctx, pubsub, send, watched)
}

// relayPeerMessages relays messages from the Redis PubSub channel until it
// closes or the context is cancelled. Returns nil when the channel closes,
// the context error when cancelled.
func (c *Controller) relayPeerMessages(
	ctx context.Context,
	pubsub *redis.PubSub,
	send chan<- serverMessage,
	watched *sessionWatchlist,
) error {
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				// Channel closed - this is the normal Redis disconnection case
				return nil
			}

			// Extract the session from the channel name: "stakewatch:session:snapshot.updated"
			sessionID := sessionFromChannel(msg.Channel)
			if sessionID == "" {
				c.App.Logger.Warn("Failed to extract session from channel",
					zap.String("channel", msg.Channel))
				continue
			}

			// Local sessions already arrive through the provider feed.
			if _, local := c.App.Registry.Get(sessionID); local {
				continue
			}

			if !watched.contains(sessionID) {
				continue
			}

			var u status.Update
			if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
				c.App.Logger.Error("Failed to parse Redis message",
					zap.Error(err),
					zap.String("channel", msg.Channel))
				continue
			}

			select {
			case send <- serverMessage{Type: "snapshot.updated", Payload: u}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// nextBackoff calculates the next backoff duration with exponential growth
// and jitter.
func nextBackoff(current, max time.Duration, factor, jitterFactor float64) time.Duration {
	next := time.Duration(float64(current) * factor)

	if next > max {
		next = max
	}

	// Add jitter: random value between -jitterFactor and +jitterFactor
	// This prevents all clients from retrying at exactly the same time
	jitter := float64(next) * jitterFactor * (2*rand.Float64() - 1)
	nextWithJitter := time.Duration(float64(next) + jitter)

	if nextWithJitter < current {
		nextWithJitter = current
	}
	if nextWithJitter > max {
		nextWithJitter = max
	}

	return nextWithJitter
}

// sessionFromChannel extracts the session ID from a Redis channel name.
func sessionFromChannel(channel string) string {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// sendPings sends periodic WebSocket ping frames to keep the connection alive.
// The client will automatically respond with pong frames, which resets the read deadline.
func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Send WebSocket PING frame (not a JSON message)
			// Client will automatically respond with PONG, resetting read deadline
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.App.Logger.Error("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages writes messages from the send channel to the WebSocket connection.
func (c *Controller) writeMessages(conn *websocket.Conn, send <-chan serverMessage) {
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			c.App.Logger.Error("Failed to write WebSocket message", zap.Error(err))
			return
		}
	}
}

// readClientMessages reads messages from the WebSocket connection.
// Handles subscription requests and detects connection closure.
func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, watched *sessionWatchlist, send chan<- serverMessage) {
	// Set a read deadline for detecting dead connections
	if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.App.Logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}

	// Set pong handler to reset read deadline
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.App.Logger.Error("Failed to reset read deadline", zap.Error(err))
			return err
		}
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.App.Logger.Error("WebSocket read error", zap.Error(err))
				}
				cancel() // Signal shutdown
				return
			}

			// Reset read deadline after successful read
			if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
				c.App.Logger.Error("Failed to reset read deadline", zap.Error(err))
				return
			}

			switch msg.Action {
			case "subscribe":
				if msg.SessionID == "" {
					send <- serverMessage{Type: "error", Payload: map[string]string{"message": "sessionId is required"}}
					continue
				}
				watched.add(msg.SessionID)
				c.App.Logger.Debug("Client subscribed", zap.String("sessionId", msg.SessionID))
				send <- serverMessage{Type: "subscribed", Payload: map[string]string{"sessionId": msg.SessionID}}

			case "unsubscribe":
				if msg.SessionID == "" {
					send <- serverMessage{Type: "error", Payload: map[string]string{"message": "sessionId is required"}}
					continue
				}
				watched.remove(msg.SessionID)
				c.App.Logger.Debug("Client unsubscribed", zap.String("sessionId", msg.SessionID))
				send <- serverMessage{Type: "unsubscribed", Payload: map[string]string{"sessionId": msg.SessionID}}

			default:
				send <- serverMessage{Type: "error", Payload: map[string]string{"message": "unknown action: " + msg.Action}}
			}
		}
	}
}
