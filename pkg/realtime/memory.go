package realtime

import (
	"context"
	"sync"
)

// MemoryBroker fans events out inside one process. It backs deployments
// without Redis and tests.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[*memorySubscription]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, event Event) error {
	b.mu.Lock()
	targets := make([]*memorySubscription, 0, len(b.subs[channel]))
	for sub := range b.subs[channel] {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		if err := sub.send(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBroker) Open(ctx context.Context, channel string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &memorySubscription{
		broker:  b,
		channel: channel,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySubscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	b.mu.Unlock()

	return sub, nil
}

// Subscribers reports how many open subscriptions a channel has.
func (b *MemoryBroker) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

type memorySubscription struct {
	broker  *MemoryBroker
	channel string
	events  chan Event
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

func (s *memorySubscription) send(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.events <- event:
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *memorySubscription) Events() <-chan Event {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs[s.channel], s)
		if len(s.broker.subs[s.channel]) == 0 {
			delete(s.broker.subs, s.channel)
		}
		s.broker.mu.Unlock()

		close(s.done)

		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
	})
	return nil
}
