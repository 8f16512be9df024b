package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Sink delivers notifications to a user-facing surface. Delivery is
// best-effort everywhere: a sink never fails the caller.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that writes to logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{
		zap.String("id", n.ID),
		zap.String("variant", string(n.Variant)),
		zap.String("title", n.Title),
		zap.String("description", n.Description),
	}
	if n.Variant == VariantDestructive {
		s.logger.Error("Notification", fields...)
		return
	}
	s.logger.Info("Notification", fields...)
}

// MultiSink fans a notification out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, n Notification) {
	for _, s := range m {
		s.Notify(ctx, n)
	}
}

// CaptureSink records notifications in memory so tests can assert on
// emission counts.
type CaptureSink struct {
	mu      sync.Mutex
	notices []Notification
}

func (s *CaptureSink) Notify(_ context.Context, n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

// Notices returns a copy of everything captured so far.
func (s *CaptureSink) Notices() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.notices))
	copy(out, s.notices)
	return out
}

// Reset clears the capture buffer.
func (s *CaptureSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = nil
}
