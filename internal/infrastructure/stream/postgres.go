// Package stream implements the order change-stream over Postgres
// LISTEN/NOTIFY. An insert trigger on the orders table (see migrations)
// fires NOTIFY with the order id as payload; pq.Listener maintains the
// connection and reconnects with exponential backoff between the
// configured min and max intervals. pq's backoff itself is deterministic,
// so the minimum interval is jittered at construction to keep replicas
// from reconnecting in lockstep.
package stream

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/notify"
)

const (
	defaultMinReconnect = time.Second
	defaultMaxReconnect = time.Minute
	eventBuffer         = 64
)

// Config holds listener settings
type Config struct {
	Channel      string
	MinReconnect time.Duration
	MaxReconnect time.Duration
}

// OrderListener adapts pq.Listener to the notify.ChangeStream interface
type OrderListener struct {
	listener *pq.Listener
	logger   *zap.Logger
	events   chan notify.Event
	done     chan struct{}
	once     sync.Once
}

// NewOrderListener connects to the database and starts listening on the
// configured NOTIFY channel. Connection drops are surfaced as degraded
// events, not errors; pq keeps retrying in the background.
func NewOrderListener(dsn string, cfg Config, logger *zap.Logger) (*OrderListener, error) {
	if cfg.Channel == "" {
		return nil, fmt.Errorf("notify channel name is required")
	}
	if cfg.MinReconnect <= 0 {
		cfg.MinReconnect = defaultMinReconnect
	}
	if cfg.MaxReconnect <= 0 {
		cfg.MaxReconnect = defaultMaxReconnect
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &OrderListener{
		logger: logger,
		events: make(chan notify.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	minReconnect := jitter(cfg.MinReconnect, cfg.MaxReconnect)
	l.listener = pq.NewListener(dsn, minReconnect, cfg.MaxReconnect, l.connectionEvent)

	if err := l.listener.Listen(cfg.Channel); err != nil {
		_ = l.listener.Close()
		return nil, fmt.Errorf("listen on %q: %w", cfg.Channel, err)
	}

	go l.run()

	logger.Info("order change-stream listening",
		zap.String("channel", cfg.Channel),
		zap.Duration("min_reconnect", minReconnect),
		zap.Duration("max_reconnect", cfg.MaxReconnect),
	)
	return l, nil
}

// jitter spreads the base reconnect interval over [min, 1.5*min) so that
// replicas restarted together do not retry in lockstep, clamped to max.
func jitter(min, max time.Duration) time.Duration {
	d := min + time.Duration(rand.Int63n(int64(min)/2+1))
	if d > max {
		return max
	}
	return d
}

// Events returns the change-stream event channel
func (l *OrderListener) Events() <-chan notify.Event {
	return l.events
}

// Close tears down the upstream connection. Idempotent.
func (l *OrderListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.listener.Close()
	})
	return err
}

func (l *OrderListener) run() {
	for {
		select {
		case <-l.done:
			return
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// pq delivers nil after a reconnect to flag possibly
				// missed notifications; one refresh covers the gap.
				l.emit(notify.Event{Kind: notify.KindReconnected})
				continue
			}
			l.emit(notify.Event{Kind: notify.KindOrderCreated, Payload: n.Extra})
		}
	}
}

// connectionEvent runs on pq's internal goroutine for every connection
// state change
func (l *OrderListener) connectionEvent(ev pq.ListenerEventType, err error) {
	mapped, ok := mapListenerEvent(ev)
	if err != nil {
		l.logger.Warn("change-stream connection event",
			zap.Int("event", int(ev)),
			zap.Error(err),
		)
	}
	if !ok {
		return
	}

	select {
	case <-l.done:
	default:
		l.emit(mapped)
	}
}

func (l *OrderListener) emit(ev notify.Event) {
	select {
	case l.events <- ev:
	default:
		l.logger.Warn("change-stream buffer full, dropping event",
			zap.String("kind", string(ev.Kind)),
		)
	}
}

// mapListenerEvent translates pq connection lifecycle events into the
// hub's degraded/recovered signals. Connected and failed-attempt events
// produce nothing: the initial connect is not a recovery, and every failed
// attempt follows a disconnect that was already surfaced.
func mapListenerEvent(ev pq.ListenerEventType) (notify.Event, bool) {
	switch ev {
	case pq.ListenerEventDisconnected:
		return notify.Event{Kind: notify.KindConnectionLost}, true
	case pq.ListenerEventReconnected:
		return notify.Event{Kind: notify.KindReconnected}, true
	}
	return notify.Event{}, false
}
