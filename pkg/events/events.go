// Package events is a small topic-based publish/subscribe bus. Components
// receive a *Bus through their constructors; there is no process-wide
// instance.
package events

import (
	"context"
	"sync"
	"time"
)

// Topic names a stream of notifications.
type Topic string

const (
	ClashDetectionStarted  Topic = "clash.detection.started"
	ClashDetectionProgress Topic = "clash.detection.progress"
	ClashDetectionComplete Topic = "clash.detection.complete"
	ClashStatusChanged     Topic = "clash.status.changed"
	RoomsUpdated           Topic = "rooms.updated"
)

// defaultBuffer is the per-subscription channel capacity.
const defaultBuffer = 256

// DetectionStarted is published when a clash run begins.
type DetectionStarted struct {
	RuleIDs []string
	At      time.Time
}

// DetectionProgress is published periodically while set A is walked.
type DetectionProgress struct {
	RuleID    string
	RuleName  string
	Processed int
	Total     int
}

// Percent returns progress through the current rule in [0, 100].
func (p DetectionProgress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// DetectionComplete is published when a clash run ends.
type DetectionComplete struct {
	RuleIDs  []string
	Clashes  int
	Duration time.Duration
}

// StatusChanged is published when a user moves a clash to a new status.
type StatusChanged struct {
	ClashID string
	From    string
	To      string
}

// RoomsChanged is published after room detection re-runs.
type RoomsChanged struct {
	Rooms int
}

// Bus delivers messages to subscribers of a topic. Delivery is
// fire-and-forget: a subscriber whose buffer is full misses the message.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Topic]map[*Subscription]struct{}
	closed      bool
}

// Subscription receives messages for one topic.
type Subscription struct {
	topic   Topic
	channel chan any
	bus     *Bus
	once    sync.Once
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[Topic]map[*Subscription]struct{})}
}

// Subscribe registers for messages on topic. The subscription is removed
// when ctx is cancelled or Unsubscribe is called. Subscribing to a closed
// bus returns a subscription whose channel is already closed.
func (b *Bus) Subscribe(ctx context.Context, topic Topic) *Subscription {
	sub := &Subscription{
		topic:   topic,
		channel: make(chan any, defaultBuffer),
		bus:     b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub
	}
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]struct{})
	}
	b.subscribers[topic][sub] = struct{}{}
	b.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Unsubscribe()
		}()
	}
	return sub
}

// Publish sends message to every current subscriber of topic without
// blocking. A nil bus is a valid no-op publisher.
func (b *Bus) Publish(topic Topic, message any) {
	if b == nil {
		return
	}
	// Sends happen under the read lock so a concurrent Unsubscribe cannot
	// close a channel mid-send; sends never block.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers[topic] {
		select {
		case sub.channel <- message:
		default:
		}
	}
}

// SubscriberCount returns the number of subscribers for topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Close closes every subscription. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
}

// C returns the channel messages arrive on.
func (s *Subscription) C() <-chan any {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if subs := s.bus.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	s.close()
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.channel) })
}

// Drain returns every message currently buffered on the subscription
// without waiting for more.
func (s *Subscription) Drain() []any {
	var out []any
	for {
		select {
		case m, ok := <-s.channel:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}
