package events

import (
	"context"
	"sync"
)

// Handler receives published events.
type Handler func(e Event)

type subscriber struct {
	id uint64
	fn Handler
}

// Bus is a synchronous publish/subscribe channel for lifecycle events.
// Handlers run on the publishing goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID uint64
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers evs, in order, to every current subscriber.
func (b *Bus) Publish(evs ...Event) {
	if len(evs) == 0 {
		return
	}

	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, e := range evs {
		for _, s := range subs {
			s.fn(e)
		}
	}
}

// Channel subscribes to the bus and delivers events on the returned channel
// until ctx is done, after which the channel is closed.  A publisher blocks
// while the channel buffer is full.
func (b *Bus) Channel(ctx context.Context, buf int) (ch <-chan Event) {
	out := make(chan Event, buf)

	var mu sync.Mutex
	closed := false
	unsubscribe := b.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()

		if closed {
			return
		}

		select {
		case out <- e:
		case <-ctx.Done():
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()

		mu.Lock()
		defer mu.Unlock()

		closed = true
		close(out)
	}()

	return out
}
