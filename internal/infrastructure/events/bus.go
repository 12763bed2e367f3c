// Package events implements ports.EventBus: a synchronous, in-process
// publish/subscribe broadcaster (§4.I).
package events

import (
	"context"
	"sync"

	"github.com/morinoparty/mpm/internal/application/ports"
)

// Bus is the synchronous EventBus. Publish blocks until every subscriber of
// the event's kind has run, in subscription order.
type Bus struct {
	mu          sync.Mutex
	subscribers map[ports.EventKind][]subscription
	nextID      int
}

type subscription struct {
	id      int
	handler func(ctx context.Context, event *ports.LifecycleEvent)
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[ports.EventKind][]subscription)}
}

// Publish broadcasts event to every subscriber of its kind, in subscription
// order, then returns.
func (b *Bus) Publish(ctx context.Context, event *ports.LifecycleEvent) {
	b.mu.Lock()
	handlers := make([]subscription, len(b.subscribers[event.Kind]))
	copy(handlers, b.subscribers[event.Kind])
	b.mu.Unlock()

	for _, sub := range handlers {
		sub.handler(ctx, event)
	}
}

// Subscribe registers handler for kind and returns an unsubscribe func.
func (b *Bus) Subscribe(kind ports.EventKind, handler func(ctx context.Context, event *ports.LifecycleEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[kind] = append(b.subscribers[kind], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[kind]
		for i, sub := range subs {
			if sub.id == id {
				b.subscribers[kind] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SynchronousDispatcher is the default HostThreadDispatcher: it runs fn
// synchronously on the calling goroutine. Host integrations that have a
// real main thread (e.g. a Bukkit/Paper server's primary tick thread) wrap
// this with one that bounces onto it.
type SynchronousDispatcher struct{}

// DispatchOnHostThread runs fn immediately on the calling goroutine.
func (SynchronousDispatcher) DispatchOnHostThread(ctx context.Context, fn func()) { fn() }
