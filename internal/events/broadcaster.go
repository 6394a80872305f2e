package events

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"roomop/pkg/logging"
)

// DefaultQueueCapacity bounds each subscriber queue.
const DefaultQueueCapacity = 256

// Subscription is one subscriber's view of the broadcast stream. Receive
// from C until it is closed; always Unsubscribe when done.
type Subscription struct {
	ID uuid.UUID
	C  <-chan Envelope
}

type subscriber struct {
	mu     sync.Mutex
	queue  chan Envelope
	closed bool
}

// publish enqueues env, dropping the oldest buffered envelope when the
// queue is full. It reports false once the subscription is closed.
func (s *subscriber) publish(env Envelope) (delivered, dropped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, false
	}
	for {
		select {
		case s.queue <- env:
			return true, dropped
		default:
		}
		select {
		case <-s.queue:
			dropped = true
		default:
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.queue)
	}
}

// Broadcaster fans envelopes out to bounded per-subscriber queues. All
// methods are safe for concurrent use; Broadcast never blocks on a slow
// subscriber.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*subscriber
	capacity    int
	dropped     atomic.Int64
}

// NewBroadcaster creates a broadcaster with the given per-subscriber queue
// capacity; capacity <= 0 selects DefaultQueueCapacity.
func NewBroadcaster(capacity int) *Broadcaster {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Broadcaster{
		subscribers: make(map[uuid.UUID]*subscriber),
		capacity:    capacity,
	}
}

// Subscribe registers a new subscriber and returns its subscription.
func (b *Broadcaster) Subscribe() Subscription {
	sub := &subscriber{queue: make(chan Envelope, b.capacity)}
	id := uuid.New()

	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	logging.Debug("Events", "subscriber %s connected", id)
	return Subscription{ID: id, C: sub.queue}
}

// Unsubscribe closes and removes one subscription. Unknown ids are ignored.
func (b *Broadcaster) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	delete(b.subscribers, id)
	b.mu.Unlock()

	if ok {
		sub.close()
		logging.Debug("Events", "subscriber %s disconnected", id)
	}
}

// Broadcast pushes env to every live subscriber. A subscription whose write
// fails outright (already closed) is torn down as a side effect.
func (b *Broadcaster) Broadcast(env Envelope) {
	b.mu.RLock()
	targets := make(map[uuid.UUID]*subscriber, len(b.subscribers))
	for id, sub := range b.subscribers {
		targets[id] = sub
	}
	b.mu.RUnlock()

	for id, sub := range targets {
		delivered, dropped := sub.publish(env)
		if dropped {
			b.dropped.Add(1)
		}
		if !delivered {
			b.Unsubscribe(id)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns the total number of envelopes discarded by backpressure.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// Close tears down every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[uuid.UUID]*subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
