package app

import (
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// stepClock returns strictly increasing instants, one microsecond apart.
type stepClock struct {
	base time.Time
	n    atomic.Int64
}

func newStepClock() *stepClock { return &stepClock{base: time.Unix(1700000000, 0)} }

func (c *stepClock) Now() time.Time {
	return c.base.Add(time.Duration(c.n.Add(1)) * time.Microsecond)
}

// fakeNotifier is a ports.Notifier driven by the simulated channel.
type fakeNotifier struct {
	ready chan os.Signal
	done  chan struct{}
	once  sync.Once
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		ready: make(chan os.Signal, 1024),
		done:  make(chan struct{}),
	}
}

func (n *fakeNotifier) Ready() <-chan os.Signal { return n.ready }
func (n *fakeNotifier) Done() <-chan struct{}   { return n.done }

func (n *fakeNotifier) Close() error {
	n.once.Do(func() { close(n.done) })
	return nil
}

func (n *fakeNotifier) notify() {
	select {
	case n.ready <- syscall.SIGIO:
	default:
	}
}

// echoChannel is an in-memory endpoint that echoes every written frame and
// raises a notification, with per-write fault injection (1-based indices).
type echoChannel struct {
	notifier *fakeNotifier

	mu      sync.Mutex
	pending [][]byte
	writes  int

	drop          map[int]bool
	corrupt       map[int]bool
	garbageBefore map[int]bool
	shortWrite    map[int]bool
	dropAll       bool
}

func newEchoChannel(n *fakeNotifier) *echoChannel {
	return &echoChannel{
		notifier:      n,
		drop:          map[int]bool{},
		corrupt:       map[int]bool{},
		garbageBefore: map[int]bool{},
		shortWrite:    map[int]bool{},
	}
}

func (c *echoChannel) WriteFrame(frame []byte) (int, error) {
	c.mu.Lock()
	c.writes++
	n := c.writes
	if c.shortWrite[n] {
		c.mu.Unlock()
		return len(frame) - 1, nil
	}
	if c.dropAll || c.drop[n] {
		c.mu.Unlock()
		return len(frame), nil
	}
	if c.garbageBefore[n] {
		c.pending = append(c.pending, []byte{0xde, 0xad, 0xbe, 0xef})
		c.mu.Unlock()
		c.notifier.notify()
		c.mu.Lock()
	}
	echo := append([]byte(nil), frame...)
	if c.corrupt[n] {
		echo = echo[:5]
	}
	c.pending = append(c.pending, echo)
	c.mu.Unlock()

	c.notifier.notify()
	return len(frame), nil
}

func (c *echoChannel) ReadAvailable() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil, nil
	}
	frame := c.pending[0]
	c.pending = c.pending[1:]
	return frame, nil
}

// memSink collects records in memory and renders them like the TSV sink.
type memSink struct {
	records []domain.Record
	begins  int
	closed  bool
}

func (s *memSink) Begin() error {
	s.begins++
	s.records = nil
	s.closed = false
	return nil
}

func (s *memSink) Write(rec domain.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}
