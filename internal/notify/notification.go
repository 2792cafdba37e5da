package notify

import "time"

// Kind discriminates hub notifications
type Kind string

const (
	// KindOrderCreated signals that a new order row was inserted upstream.
	// The payload carries only the order id; listeners re-fetch their list.
	KindOrderCreated Kind = "order_created"
	// KindConnectionLost signals that the upstream change-stream dropped.
	// Listeners should fall back to on-demand refresh until KindReconnected.
	KindConnectionLost Kind = "connection_lost"
	// KindReconnected signals that the upstream connection is live again.
	// Events emitted while disconnected were not buffered; refresh once.
	KindReconnected Kind = "reconnected"
)

// Notification is the sparse refresh-on-notify signal delivered to
// subscribers. It intentionally carries no order body.
type Notification struct {
	Kind    Kind      `json:"kind"`
	OrderID string    `json:"order_id,omitempty"`
	At      time.Time `json:"at"`
}

// Event is a raw upstream change-stream event before fan-out
type Event struct {
	Kind    Kind
	Payload string
}

// ChangeStream is the single upstream source of order-insert events.
// Implementations own reconnection; they surface drops and recoveries as
// events of the corresponding kind rather than terminating the stream.
type ChangeStream interface {
	// Events returns the upstream event channel. A closed channel means the
	// stream has terminally shut down.
	Events() <-chan Event
	Close() error
}
