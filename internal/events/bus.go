// Package events implements the optimizer's notification bus: named
// channels delivering immutable payloads to registered handlers.
package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coregx/queryopt/internal/logger"
)

// Channel names a notification stream.
type Channel string

// Channels published by the optimizer.
const (
	ChannelSlowQuery           Channel = "slow-query"
	ChannelQueryError          Channel = "query-error"
	ChannelPerformanceAnalysis Channel = "performance-analysis"
	ChannelDeepAnalysis        Channel = "deep-analysis"
)

// Handler receives a published payload. Payloads are value copies; a
// handler cannot mutate optimizer state through them.
type Handler func(payload any)

// subscription pairs a handler with its cancellation token.
type subscription struct {
	id      uuid.UUID
	handler Handler
}

// Bus is a synchronous publish/subscribe dispatcher. Handlers run in
// registration order on the publisher's goroutine; a panicking handler is
// recovered and logged so the remaining handlers still run.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Channel][]subscription
	log      logger.Logger
}

// NewBus creates a bus that reports handler panics through log.
func NewBus(log logger.Logger) *Bus {
	if log == nil {
		log = &logger.NoopLogger{}
	}
	return &Bus{
		handlers: make(map[Channel][]subscription),
		log:      log,
	}
}

// Subscribe registers a handler on a channel and returns a token for
// Unsubscribe.
func (b *Bus) Subscribe(ch Channel, h Handler) uuid.UUID {
	id := uuid.New()
	b.mu.Lock()
	b.handlers[ch] = append(b.handlers[ch], subscription{id: id, handler: h})
	b.mu.Unlock()
	return id
}

// Unsubscribe removes a previously registered handler. It reports whether
// the token was found.
func (b *Bus) Unsubscribe(ch Channel, id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[ch]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[ch] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers a payload to every handler on a channel. Handler
// panics are isolated per handler.
func (b *Bus) Publish(ch Channel, payload any) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[ch]))
	copy(subs, b.handlers[ch])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(ch, sub, payload)
	}
}

func (b *Bus) deliver(ch Channel, sub subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				"channel", string(ch),
				"subscription", sub.id.String(),
				"panic", fmt.Sprintf("%v", r))
		}
	}()
	sub.handler(payload)
}
