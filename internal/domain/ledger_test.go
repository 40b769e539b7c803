package domain

import (
	"errors"
	"testing"
	"time"
)

func TestLedger_AppendInOrder(t *testing.T) {
	base := time.Now()
	l := NewLedger(3)

	for i := uint64(1); i <= 3; i++ {
		if err := l.Append(i, base.Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}

	var got []uint64
	var prev time.Time
	l.Range(func(id uint64, at time.Time) bool {
		if !prev.IsZero() && !at.After(prev) {
			t.Errorf("instant for id %d does not advance", id)
		}
		prev = at
		got = append(got, id)
		return true
	})
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Range order = %v, want [1 2 3]", got)
	}

	if at, ok := l.Get(3); !ok || !at.Equal(base.Add(3*time.Millisecond)) {
		t.Errorf("Get(3) = %v, %v", at, ok)
	}
}

func TestLedger_AppendRejects(t *testing.T) {
	base := time.Now()

	tests := []struct {
		name    string
		id      uint64
		at      time.Time
		wantErr error
	}{
		{"equal instant", 2, base, ErrNonMonotonic},
		{"earlier instant", 2, base.Add(-time.Millisecond), ErrNonMonotonic},
		{"duplicate id", 1, base.Add(time.Millisecond), ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(0)
			if err := l.Append(1, base); err != nil {
				t.Fatalf("seed Append error = %v", err)
			}
			err := l.Append(tt.id, tt.at)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Append error = %v, want %v", err, tt.wantErr)
			}
			if l.Len() != 1 {
				t.Errorf("rejected entry was stored, Len() = %d", l.Len())
			}
		})
	}
}

func TestLedger_Empty(t *testing.T) {
	l := NewLedger(-1)
	if _, ok := l.Get(1); ok {
		t.Error("Get(1) on empty ledger reported ok")
	}
}

func TestLedger_RangeStops(t *testing.T) {
	base := time.Now()
	l := NewLedger(0)
	for i := uint64(1); i <= 5; i++ {
		_ = l.Append(i, base.Add(time.Duration(i)))
	}
	calls := 0
	l.Range(func(uint64, time.Time) bool {
		calls++
		return calls < 2
	})
	if calls != 2 {
		t.Errorf("Range visited %d entries after stop, want 2", calls)
	}
}
