// Package alert handles sending notifications about the trading loop.
package alert

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notifier is the interface for sending alert messages.
type Notifier interface {
	Send(message string) error
	Close() error
}

// NoOpNotifier is a notifier that does nothing. It is used when alerting is disabled.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Send does nothing and returns nil.
func (n *NoOpNotifier) Send(message string) error {
	return nil
}

// Close does nothing and returns nil.
func (n *NoOpNotifier) Close() error {
	return nil
}

// LogNotifier writes alerts to a zap logger at error level. Identical
// messages within the cooldown window are dropped.
type LogNotifier struct {
	logger   *zap.Logger
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewLogNotifier creates a LogNotifier. A zero cooldown sends every message.
func NewLogNotifier(logger *zap.Logger, cooldown time.Duration) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{
		logger:   logger,
		cooldown: cooldown,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Send logs message unless it was sent within the cooldown.
func (n *LogNotifier) Send(message string) error {
	n.mu.Lock()
	now := n.now()
	if prev, ok := n.last[message]; ok && n.cooldown > 0 && now.Sub(prev) < n.cooldown {
		n.mu.Unlock()
		return nil
	}
	n.last[message] = now
	n.mu.Unlock()

	n.logger.Error("ALERT", zap.String("message", message))
	return nil
}

// Close flushes the logger.
func (n *LogNotifier) Close() error {
	_ = n.logger.Sync()
	return nil
}
