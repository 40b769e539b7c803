package app

import (
	"context"
	"testing"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/adapters/codec"
	"github.com/bft-labs/rpmsgbench/internal/domain"
)

func startBridge(t *testing.T) (*Bridge, *echoChannel, *fakeNotifier, *DeliveryQueue, chan struct{}) {
	t.Helper()
	notifier := newFakeNotifier()
	ch := newEchoChannel(notifier)
	queue := NewDeliveryQueue()
	clock := newStepClock()
	b := NewBridge(ch, notifier, codec.Bincode{}, queue, clock.Now, &mockLogger{}, nil)

	stopped := make(chan struct{})
	go func() {
		b.Run(context.Background())
		close(stopped)
	}()
	t.Cleanup(func() {
		_ = notifier.Close()
		<-stopped
	})
	return b, ch, notifier, queue, stopped
}

func receiveOne(t *testing.T, q *DeliveryQueue) domain.DeliveryEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive error = %v", err)
	}
	return ev
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 1s")
		}
		time.Sleep(time.Millisecond)
	}
}

func writePayload(t *testing.T, ch *echoChannel, id uint64) {
	t.Helper()
	frame, err := codec.Bincode{}.Encode(domain.NewPayload(id, domain.DefaultPayloadSize, domain.DefaultFill))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ch.WriteFrame(frame); err != nil {
		t.Fatal(err)
	}
}

func TestBridge_DeliversDecodedFrames(t *testing.T) {
	_, ch, _, queue, _ := startBridge(t)

	writePayload(t, ch, 1)
	writePayload(t, ch, 2)

	first := receiveOne(t, queue)
	second := receiveOne(t, queue)
	if first.SequenceID != 1 || second.SequenceID != 2 {
		t.Errorf("delivered ids = %d, %d; want 1, 2", first.SequenceID, second.SequenceID)
	}
	if !second.ReceivedAt.After(first.ReceivedAt) {
		t.Error("second delivery not stamped after the first")
	}
}

func TestBridge_SpuriousNotification(t *testing.T) {
	b, _, notifier, queue, _ := startBridge(t)

	notifier.notify()
	waitFor(t, func() bool { return b.Stats().Spurious == 1 })

	if queue.Len() != 0 {
		t.Errorf("queue length = %d after spurious notification", queue.Len())
	}
}

func TestBridge_DropsUndecodableFrame(t *testing.T) {
	b, ch, _, queue, _ := startBridge(t)
	ch.garbageBefore[1] = true

	writePayload(t, ch, 7)

	ev := receiveOne(t, queue)
	if ev.SequenceID != 7 {
		t.Errorf("delivered id = %d, want 7", ev.SequenceID)
	}
	waitFor(t, func() bool { return b.Stats().DecodeErrors == 1 })
}

func TestBridge_StopsWhenNotifierClosed(t *testing.T) {
	b, ch, notifier, queue, stopped := startBridge(t)

	_ = notifier.Close()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop after notifier close")
	}

	writePayload(t, ch, 1)
	time.Sleep(10 * time.Millisecond)
	if queue.Len() != 0 || b.Stats().Delivered != 0 {
		t.Error("bridge delivered after being stopped")
	}
}
