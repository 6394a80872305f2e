package events

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeN(n int) Envelope {
	return Envelope{
		Source:    "roomop",
		Timestamp: time.Now().UTC(),
		Type:      TypeReconcileCompleted,
		Data:      map[string]interface{}{"seq": n},
	}
}

func drain(sub Subscription) []Envelope {
	var got []Envelope
	for {
		select {
		case env := <-sub.C:
			got = append(got, env)
		default:
			return got
		}
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster(16)
	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Broadcast(envelopeN(1))

	require.Len(t, drain(s1), 1)
	require.Len(t, drain(s2), 1)
	assert.Equal(t, 2, b.SubscriberCount())
}

func TestDropOldestBackpressure(t *testing.T) {
	b := NewBroadcaster(256)
	sub := b.Subscribe()

	for i := 0; i < 300; i++ {
		b.Broadcast(envelopeN(i))
	}

	got := drain(sub)
	require.Len(t, got, 256, "queue must retain exactly its capacity")

	// The most recent 256 events, still in original order.
	for i, env := range got {
		assert.Equal(t, 44+i, env.Data["seq"])
	}
	assert.Equal(t, int64(44), b.Dropped())
}

func TestUnsubscribeClosesQueue(t *testing.T) {
	b := NewBroadcaster(4)
	sub := b.Subscribe()

	b.Unsubscribe(sub.ID)

	_, open := <-sub.C
	assert.False(t, open, "unsubscribed queue must be closed")
	assert.Equal(t, 0, b.SubscriberCount())

	// Unsubscribing twice is harmless.
	b.Unsubscribe(sub.ID)
}

func TestBroadcastTearsDownClosedSubscription(t *testing.T) {
	b := NewBroadcaster(4)
	sub := b.Subscribe()

	// Close the subscriber behind the broadcaster's back, then broadcast.
	b.mu.RLock()
	b.subscribers[sub.ID].close()
	b.mu.RUnlock()

	b.Broadcast(envelopeN(1))

	assert.Equal(t, 0, b.SubscriberCount(), "failed write must tear the subscription down")
}

func TestBroadcastDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := NewBroadcaster(2)
	slow := b.Subscribe()
	fast := b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Broadcast(envelopeN(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}

	assert.Len(t, drain(slow), 2)
	assert.Len(t, drain(fast), 2)
}

func TestConcurrentSubscribeBroadcastUnsubscribe(t *testing.T) {
	b := NewBroadcaster(8)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				sub := b.Subscribe()
				b.Unsubscribe(sub.ID)
			}
		}()
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b.Broadcast(envelopeN(g*50 + i))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 0, b.SubscriberCount())
}

func TestClose(t *testing.T) {
	b := NewBroadcaster(4)
	subs := []Subscription{b.Subscribe(), b.Subscribe(), b.Subscribe()}

	b.Close()

	for i, sub := range subs {
		_, open := <-sub.C
		assert.False(t, open, fmt.Sprintf("subscription %d still open after Close", i))
	}
	assert.Equal(t, 0, b.SubscriberCount())
}
