package split

import (
	"context"
	"sync"
)

// SplitChanged announces that a receipt's split was saved. Sessions for the
// same receipt in another part of the process use it to re-fetch instead of
// showing a stale breakdown.
type SplitChanged struct {
	ReceiptID string
}

// Bus is a small synchronous fan-out for split change events.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(context.Context, SplitChanged)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(context.Context, SplitChanged))}
}

// Subscribe registers a handler and returns its cancel function. Handlers run
// synchronously on the publishing goroutine.
func (b *Bus) Subscribe(fn func(context.Context, SplitChanged)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(ctx context.Context, ev SplitChanged) {
	b.mu.RLock()
	handlers := make([]func(context.Context, SplitChanged), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(ctx, ev)
	}
}
