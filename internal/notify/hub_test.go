package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStream is a channel-backed ChangeStream for tests
type memoryStream struct {
	ch        chan Event
	closeOnce sync.Once
	closed    chan struct{}
}

func newMemoryStream() *memoryStream {
	return &memoryStream{
		ch:     make(chan Event),
		closed: make(chan struct{}),
	}
}

func (m *memoryStream) Events() <-chan Event { return m.ch }

func (m *memoryStream) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *memoryStream) emit(t *testing.T, ev Event) {
	t.Helper()
	select {
	case m.ch <- ev:
	case <-time.After(time.Second):
		t.Fatal("hub did not consume event")
	}
}

func startHub(t *testing.T, opts ...Option) (*Hub, *memoryStream) {
	t.Helper()
	stream := newMemoryStream()
	hub := NewHub(stream, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("hub did not stop")
		}
	})
	return hub, stream
}

func recv(t *testing.T, sub *Subscription) Notification {
	t.Helper()
	select {
	case n, ok := <-sub.C():
		require.True(t, ok, "subscription channel closed unexpectedly")
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return Notification{}
	}
}

func assertNothingBuffered(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case n, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected notification: %+v", n)
		}
	default:
	}
}

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub, stream := startHub(t)

	admin1 := hub.Subscribe("admin-1")
	admin2 := hub.Subscribe("admin-2")

	stream.emit(t, Event{Kind: KindOrderCreated, Payload: "order-1"})

	for _, sub := range []*Subscription{admin1, admin2} {
		n := recv(t, sub)
		assert.Equal(t, KindOrderCreated, n.Kind)
		assert.Equal(t, "order-1", n.OrderID)
		assertNothingBuffered(t, sub)
	}
}

func TestHubLateSubscriberSeesNoReplay(t *testing.T) {
	hub, stream := startHub(t)

	early := hub.Subscribe("admin-1")
	stream.emit(t, Event{Kind: KindOrderCreated, Payload: "order-1"})
	recv(t, early)

	late := hub.Subscribe("admin-2")
	stream.emit(t, Event{Kind: KindOrderCreated, Payload: "order-2"})

	n := recv(t, late)
	assert.Equal(t, "order-2", n.OrderID, "late subscriber must only see events after registration")
	assert.Equal(t, "order-2", recv(t, early).OrderID)
}

func TestHubUnsubscribe(t *testing.T) {
	hub, stream := startHub(t)

	sub := hub.Subscribe("admin-1")
	other := hub.Subscribe("admin-2")

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // idempotent
	hub.Unsubscribe(nil) // harmless

	stream.emit(t, Event{Kind: KindOrderCreated, Payload: "order-1"})
	recv(t, other)

	_, ok := <-sub.C()
	assert.False(t, ok, "unsubscribed channel must be closed without pending events")
	assert.Equal(t, 1, hub.SubscriberCount())
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub, stream := startHub(t, WithSubscriberBuffer(1))

	slow := hub.Subscribe("admin-slow") // never reads
	fast := hub.Subscribe("admin-fast")

	// First event fills the slow subscriber's buffer, the rest are dropped
	// for it; the fast subscriber must still see every event promptly.
	for i := 0; i < 5; i++ {
		stream.emit(t, Event{Kind: KindOrderCreated, Payload: "order"})
		n := recv(t, fast)
		assert.Equal(t, KindOrderCreated, n.Kind)
	}

	assert.Len(t, slow.C(), 1, "slow subscriber holds only its buffered notification")
}

func TestHubForwardsDegradedSignals(t *testing.T) {
	hub, stream := startHub(t)
	sub := hub.Subscribe("admin-1")

	stream.emit(t, Event{Kind: KindConnectionLost})
	assert.Equal(t, KindConnectionLost, recv(t, sub).Kind)

	stream.emit(t, Event{Kind: KindReconnected})
	assert.Equal(t, KindReconnected, recv(t, sub).Kind)
}

func TestHubShutdownClosesSubscribersAndStream(t *testing.T) {
	stream := newMemoryStream()
	hub := NewHub(stream)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	sub := hub.Subscribe("admin-1")
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	select {
	case <-stream.closed:
	default:
		t.Fatal("upstream stream was not closed on shutdown")
	}

	_, ok := <-sub.C()
	assert.False(t, ok, "subscriber channel must be closed on shutdown")
	assert.Equal(t, 0, hub.SubscriberCount())

	// Subscribing after shutdown yields an already-closed handle.
	sub = hub.Subscribe("admin-2")
	_, ok = <-sub.C()
	assert.False(t, ok)
}

func TestHubStopsWhenStreamTerminates(t *testing.T) {
	stream := newMemoryStream()
	hub := NewHub(stream)

	done := make(chan error, 1)
	go func() { done <- hub.Run(context.Background()) }()

	close(stream.ch)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after stream termination")
	}
}

func TestHubConcurrentSubscribeUnsubscribe(t *testing.T) {
	hub, stream := startHub(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe("admin")
			hub.Unsubscribe(sub)
		}()
	}

	stayer := hub.Subscribe("admin-stayer")
	wg.Wait()

	stream.emit(t, Event{Kind: KindOrderCreated, Payload: "order-1"})
	assert.Equal(t, "order-1", recv(t, stayer).OrderID)
	assert.Equal(t, 1, hub.SubscriberCount())
}

func TestHubTrySubscribeEnforcesCap(t *testing.T) {
	hub, _ := startHub(t)

	const max = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted []*Subscription
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sub, ok := hub.TrySubscribe("admin", max); ok {
				mu.Lock()
				admitted = append(admitted, sub)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, admitted, max, "cap check and registration must be atomic")
	assert.Equal(t, max, hub.SubscriberCount())

	_, ok := hub.TrySubscribe("admin-late", max)
	assert.False(t, ok)

	hub.Unsubscribe(admitted[0])
	sub, ok := hub.TrySubscribe("admin-late", max)
	require.True(t, ok)
	hub.Unsubscribe(sub)
}
