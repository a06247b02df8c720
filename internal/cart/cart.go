// Package cart implements the shopping cart ledger. Every mutation is written
// through to a store before it returns; store failures are logged and the
// in-memory ledger stays authoritative.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/emoshop/internal/metrics"
	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/store"
)

// Key is the store key holding the cart snapshot.
const Key = "cart"

// ErrEmpty is returned by Checkout when there is nothing to buy.
var ErrEmpty = errors.New("cart: empty")

// Receipt summarizes a simulated checkout.
type Receipt struct {
	OrderID   string            `json:"orderId"`
	Items     []model.CartEntry `json:"items"`
	ItemCount int               `json:"itemCount"`
	Total     float64           `json:"total"`
	PlacedAt  time.Time         `json:"placedAt"`
}

// Ledger is a cart of unique product entries, safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries []model.CartEntry
	store   store.Store
	logger  *slog.Logger
	now     func() time.Time
}

// Open restores the ledger from s. A missing or unreadable snapshot yields an
// empty cart. A nil store keeps the cart in memory only.
func Open(ctx context.Context, s store.Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{store: s, logger: logger, now: time.Now}
	if s == nil {
		return l
	}

	var saved []model.CartEntry
	found, err := store.GetJSON(ctx, s, Key, &saved)
	if err != nil {
		logger.Warn("cart: ignoring unreadable snapshot", "error", err)
		return l
	}
	if found {
		l.entries = sanitize(saved)
	}
	return l
}

// sanitize drops entries a hand-edited or stale snapshot could carry: empty
// IDs, non-positive quantities and duplicates.
func sanitize(in []model.CartEntry) []model.CartEntry {
	seen := make(map[string]bool, len(in))
	out := make([]model.CartEntry, 0, len(in))
	for _, e := range in {
		if e.ProductID == "" || e.Quantity < 1 || seen[e.ProductID] {
			continue
		}
		if e.Price < 0 {
			e.Price = 0
		}
		seen[e.ProductID] = true
		out = append(out, e)
	}
	return out
}

// Add puts one unit of p in the cart, incrementing the quantity when the
// product is already present. It returns the resulting entry.
func (l *Ledger) Add(ctx context.Context, p model.Product) model.CartEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entry model.CartEntry
	if i := l.index(p.ID); i >= 0 {
		l.entries[i].Quantity++
		entry = l.entries[i]
	} else {
		entry = model.CartEntry{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Quantity:  1,
		}
		l.entries = append(l.entries, entry)
	}
	l.persist(ctx, "add")
	return entry
}

// Remove deletes the entry for id. It reports whether an entry was removed.
func (l *Ledger) Remove(ctx context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.persist(ctx, "remove")
	return true
}

// UpdateQuantity adds delta to the entry's quantity and removes the entry
// when the result drops to zero or below. It returns the new quantity (0 when
// removed) and whether id was in the cart.
func (l *Ledger) UpdateQuantity(ctx context.Context, id string, delta int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return 0, false
	}
	q := l.entries[i].Quantity + delta
	if q <= 0 {
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
		l.persist(ctx, "remove")
		return 0, true
	}
	l.entries[i].Quantity = q
	l.persist(ctx, "update")
	return q, true
}

// Clear empties the cart.
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.persist(ctx, "clear")
}

// Checkout simulates placing an order: it returns a receipt for the current
// contents and clears the cart. No payment is taken.
func (l *Ledger) Checkout(ctx context.Context) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return Receipt{}, ErrEmpty
	}
	r := Receipt{
		OrderID:   uuid.NewString(),
		Items:     l.entries,
		ItemCount: itemCount(l.entries),
		Total:     total(l.entries),
		PlacedAt:  l.now().UTC(),
	}
	l.entries = nil
	l.persist(ctx, "checkout")
	l.logger.Info("cart: order placed", "order_id", r.OrderID, "items", r.ItemCount, "total", r.Total)
	return r, nil
}

// Entries returns a copy of the cart lines in insertion order.
func (l *Ledger) Entries() []model.CartEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.CartEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Total is the sum of price times quantity.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return total(l.entries)
}

// ItemCount is the sum of quantities.
func (l *Ledger) ItemCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return itemCount(l.entries)
}

func (l *Ledger) index(id string) int {
	for i, e := range l.entries {
		if e.ProductID == id {
			return i
		}
	}
	return -1
}

// persist must be called with l.mu held.
func (l *Ledger) persist(ctx context.Context, op string) {
	metrics.CartMutations.WithLabelValues(op).Inc()
	if l.store == nil {
		return
	}
	snapshot := l.entries
	if snapshot == nil {
		snapshot = []model.CartEntry{}
	}
	if err := store.PutJSON(ctx, l.store, Key, snapshot); err != nil {
		metrics.CartPersistErrors.Inc()
		l.logger.Warn("cart: snapshot write failed", "op", op, "error", err)
	}
}

func total(entries []model.CartEntry) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.Subtotal()
	}
	return sum
}

func itemCount(entries []model.CartEntry) int {
	n := 0
	for _, e := range entries {
		n += e.Quantity
	}
	return n
}
