package runtime

import (
	"context"
	"sync"
)

// Observable is a last-value broadcast cell. Every subscriber receives the
// value held at subscribe time (if any) followed by all subsequent values.
// Slow subscribers are conflated to the newest value rather than blocking
// the publisher.
type Observable[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
	subs  map[int]chan T
	next  int
}

// NewObservable creates an empty Observable. Subscribers attached before the
// first Set receive nothing until it happens.
func NewObservable[T any]() *Observable[T] {
	return &Observable[T]{subs: make(map[int]chan T)}
}

// Set stores v as the latest value and broadcasts it to all subscribers.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.value = v
	o.set = true
	for _, sub := range o.subs {
		send(sub, v)
	}
}

// Get returns the latest value and whether one has been set.
func (o *Observable[T]) Get() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value, o.set
}

// Subscribe registers a new subscriber. The returned channel first yields
// the latest value (when one exists), then every later Set. It is closed
// when ctx is cancelled.
func (o *Observable[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	o.mu.Lock()
	if o.set {
		ch <- o.value
	}
	id := o.next
	o.next++
	o.subs[id] = ch
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
		close(ch)
	}()

	return ch
}

// send delivers v to a buffered subscriber channel, replacing a pending
// value instead of blocking.
func send[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
