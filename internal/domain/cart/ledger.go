package cart

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

// LineItem is one (product, size, quantity) entry in a cart.
// The product is a read-only snapshot taken at add time; the ledger never
// mutates it.
type LineItem struct {
	ID       uuid.UUID       `json:"id"`
	Product  catalog.Product `json:"product"`
	Size     Size            `json:"size"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns unit price times quantity for this line
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Observer receives the committed item snapshot after every ledger
// mutation. Observers are invoked synchronously while the ledger lock is
// held; they must not call back into the ledger.
type Observer func(items []LineItem)

// Ledger holds the working set of line items for a single shopper session.
// All mutations are serialized by an internal mutex; reads return snapshot
// copies. Items are kept newest-first: adding or merging a line moves it to
// the front, while plain quantity updates leave positions untouched.
//
// At most one line exists per (product id, size) pair; adds for an existing
// pair merge into it instead of creating a duplicate. A line whose quantity
// reaches zero is removed, never stored at zero.
type Ledger struct {
	mu        sync.Mutex
	items     []LineItem
	observers map[int]Observer
	nextObs   int
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		observers: make(map[int]Observer),
	}
}

// AddItem adds one unit of (product, size) to the ledger. If a line for the
// same product id and size already exists, its quantity is incremented and
// the line moves to the front; otherwise a new line with a fresh unique id
// and quantity 1 is prepended.
//
// The only failure mode is unique-id generation, which is surfaced to the
// caller rather than papered over.
func (l *Ledger) AddItem(product catalog.Product, size Size) (LineItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, it := range l.items {
		if it.Product.ID == product.ID && it.Size == size {
			it.Quantity++
			// Most recently merged line surfaces first.
			l.items = append(l.items[:i], l.items[i+1:]...)
			l.items = append([]LineItem{it}, l.items...)
			l.notifyLocked()
			return it, nil
		}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return LineItem{}, fmt.Errorf("generate line item id: %w", err)
	}

	item := LineItem{
		ID:       id,
		Product:  product,
		Size:     size,
		Quantity: 1,
	}
	l.items = append([]LineItem{item}, l.items...)
	l.notifyLocked()
	return item, nil
}

// UpdateQuantity adds delta to the quantity of the identified line. A
// resulting quantity of zero or below removes the line entirely. An unknown
// id is a no-op, never an error. The relative order of all remaining lines
// is preserved.
func (l *Ledger) UpdateQuantity(itemID uuid.UUID, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	next := l.items[:0]
	for _, it := range l.items {
		if it.ID == itemID {
			it.Quantity += delta
			changed = true
			if it.Quantity <= 0 {
				continue
			}
		}
		next = append(next, it)
	}
	l.items = next

	if changed {
		l.notifyLocked()
	}
}

// Items returns a consistent snapshot of the current lines, newest first
func (l *Ledger) Items() []LineItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Len returns the number of distinct lines
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Total returns the sum of all line subtotals
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for _, it := range l.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Clear removes all lines. Used on successful checkout and on session end.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) == 0 {
		return
	}
	l.items = nil
	l.notifyLocked()
}

// Observe registers an observer and returns a cancel function. Cancellation
// is idempotent.
func (l *Ledger) Observe(fn Observer) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.observers, id)
	}
}

func (l *Ledger) snapshotLocked() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) notifyLocked() {
	if len(l.observers) == 0 {
		return
	}
	snapshot := l.snapshotLocked()
	for _, fn := range l.observers {
		fn(snapshot)
	}
}
