package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSubscriberBuffer = 16

// Subscription is the handle returned by Hub.Subscribe. Receive from C();
// the channel is closed on unsubscribe and on hub shutdown.
type Subscription struct {
	ID        uuid.UUID
	SessionID string
	ch        chan Notification
}

// C returns the subscriber's notification channel
func (s *Subscription) C() <-chan Notification {
	return s.ch
}

// Hub bridges one upstream order change-stream to any number of admin
// listeners. Each subscriber has its own buffered channel; delivery is
// at-most-once per event per subscriber, and a full buffer drops the
// notification for that subscriber only. Subscribers registered after an
// event was dispatched never see it.
type Hub struct {
	stream ChangeStream
	logger *zap.Logger
	buffer int

	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription
	closed bool
}

// Option is a functional option for Hub configuration
type Option func(*Hub)

// WithLogger sets the hub logger
func WithLogger(logger *zap.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithSubscriberBuffer sets the per-subscriber channel capacity
func WithSubscriberBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// NewHub creates a hub over the given change-stream
func NewHub(stream ChangeStream, opts ...Option) *Hub {
	h := &Hub{
		stream: stream,
		logger: zap.NewNop(),
		buffer: defaultSubscriberBuffer,
		subs:   make(map[uuid.UUID]*Subscription),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a listener for the given admin session. On a hub
// that has already shut down the returned subscription is valid but its
// channel is closed.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	sub, _ := h.TrySubscribe(sessionID, 0)
	return sub
}

// TrySubscribe registers a listener unless the hub already has max
// subscribers; the cap check and registration happen under one lock so
// concurrent connects cannot exceed the limit. A max of zero means no
// limit. Returns false, with no subscription, when the cap is hit.
func (h *Hub) TrySubscribe(sessionID string, max int) (*Subscription, bool) {
	sub := &Subscription{
		ID:        uuid.New(),
		SessionID: sessionID,
		ch:        make(chan Notification, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub, true
	}
	if max > 0 && len(h.subs) >= max {
		return nil, false
	}
	h.subs[sub.ID] = sub

	h.logger.Debug("subscriber registered",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("session_id", sessionID),
	)
	return sub, true
}

// Unsubscribe deregisters a listener and closes its channel. Idempotent;
// once it returns no further notifications reach the handle.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.ID]; !ok {
		return
	}
	delete(h.subs, sub.ID)
	close(sub.ch)

	h.logger.Debug("subscriber deregistered",
		zap.String("subscription_id", sub.ID.String()),
	)
}

// SubscriberCount returns the number of registered listeners
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Run consumes the upstream change-stream and fans events out until the
// context is cancelled or the stream terminates. On return all subscriber
// channels are closed and the upstream connection is released.
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-h.stream.Events():
			if !ok {
				h.logger.Info("change-stream terminated, stopping hub")
				return nil
			}
			h.dispatch(ev)
		}
	}
}

// dispatch delivers one event to every currently registered subscriber.
// Sends never block: a subscriber whose buffer is full loses this
// notification (and only this one), keeping slow listeners from stalling
// the rest.
func (h *Hub) dispatch(ev Event) {
	n := Notification{
		Kind:    ev.Kind,
		OrderID: ev.Payload,
		At:      time.Now(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- n:
		default:
			h.logger.Warn("subscriber buffer full, dropping notification",
				zap.String("subscription_id", sub.ID.String()),
				zap.String("session_id", sub.SessionID),
				zap.String("kind", string(n.Kind)),
			)
		}
	}

	if ev.Kind == KindConnectionLost {
		h.logger.Warn("upstream change-stream disconnected, listeners degraded")
	}
}

func (h *Hub) shutdown() {
	if err := h.stream.Close(); err != nil {
		h.logger.Error("closing change-stream", zap.Error(err))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
	h.logger.Info("notification hub stopped")
}
