package domain

import (
	"fmt"
	"time"
)

// Ledger maps sequence ids to instants in insertion order. It is append-only
// and not safe for concurrent use; each ledger has a single owner.
type Ledger struct {
	ids []uint64
	at  map[uint64]time.Time
}

// NewLedger creates an empty ledger sized for capacity entries.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{
		ids: make([]uint64, 0, capacity),
		at:  make(map[uint64]time.Time, capacity),
	}
}

// Append records id at t. The instant must be strictly after the last
// recorded one and the id must be new; rejected entries are not stored.
func (l *Ledger) Append(id uint64, t time.Time) error {
	if _, ok := l.at[id]; ok {
		return fmt.Errorf("id %d: %w", id, ErrDuplicateID)
	}
	if n := len(l.ids); n > 0 {
		prevID := l.ids[n-1]
		if prev := l.at[prevID]; !t.After(prev) {
			return fmt.Errorf("id %d after id %d (%s <= %s): %w",
				id, prevID, t.Format(time.RFC3339Nano), prev.Format(time.RFC3339Nano), ErrNonMonotonic)
		}
	}
	l.ids = append(l.ids, id)
	l.at[id] = t
	return nil
}

// Get returns the instant recorded for id.
func (l *Ledger) Get(id uint64) (time.Time, bool) {
	t, ok := l.at[id]
	return t, ok
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.ids) }

// Range calls fn for each entry in insertion order until fn returns false.
func (l *Ledger) Range(fn func(id uint64, t time.Time) bool) {
	for _, id := range l.ids {
		if !fn(id, l.at[id]) {
			return
		}
	}
}
