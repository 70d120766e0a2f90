// Package events provides small typed pub/sub primitives used to push state
// changes from the model out to views and background listeners.
package events

import "sync"

type subscriber[T any] struct {
	id uint64
	ch chan<- T
}

// ChannelEvent fans a value out to registered channels. Sends never block:
// a listener whose channel is full misses that notification. With
// replayLast set, the most recent value is delivered to new listeners on
// registration, so late subscribers see current state immediately.
type ChannelEvent[T any] struct {
	mu         sync.RWMutex
	subs       []subscriber[T]
	nextID     uint64
	replayLast bool
	last       T
	notified   bool
}

// NewChannelEvent creates a ChannelEvent. replayLast controls whether new
// listeners immediately receive the most recently notified value.
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{replayLast: replayLast}
}

// Listen registers ch and returns an unregister func. Channels should be
// buffered; delivery is best-effort.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("events: channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs = append(e.subs, subscriber[T]{id: id, ch: ch})
	replay := e.replayLast && e.notified
	last := e.last
	e.mu.Unlock()

	if replay {
		select {
		case ch <- last:
		default:
		}
	}

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, sub := range e.subs {
			if sub.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify delivers value to every registered channel without blocking.
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.replayLast {
		e.last = value
		e.notified = true
	}
	targets := make([]chan<- T, len(e.subs))
	for i, sub := range e.subs {
		targets[i] = sub.ch
	}
	e.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- value:
		default:
		}
	}
}

// ListenerCount reports how many channels are registered.
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

type callbackSub[T any] struct {
	id uint64
	fn func(T)
}

// CallbackEvent is the synchronous sibling of ChannelEvent: Notify invokes
// every registered callback on the caller's goroutine, outside the internal
// lock. Callbacks must be fast and must not re-enter the event.
type CallbackEvent[T any] struct {
	mu         sync.RWMutex
	subs       []callbackSub[T]
	nextID     uint64
	replayLast bool
	last       T
	notified   bool
}

// NewCallbackEvent creates a CallbackEvent; replayLast as for ChannelEvent.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{replayLast: replayLast}
}

// Listen registers fn and returns an unregister func.
func (e *CallbackEvent[T]) Listen(fn func(T)) func() {
	if fn == nil {
		panic("events: callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs = append(e.subs, callbackSub[T]{id: id, fn: fn})
	replay := e.replayLast && e.notified
	last := e.last
	e.mu.Unlock()

	if replay {
		fn(last)
	}

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, sub := range e.subs {
			if sub.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify invokes all registered callbacks with value.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.replayLast {
		e.last = value
		e.notified = true
	}
	targets := make([]func(T), len(e.subs))
	for i, sub := range e.subs {
		targets[i] = sub.fn
	}
	e.mu.Unlock()

	for _, fn := range targets {
		fn(value)
	}
}

// ListenerCount reports how many callbacks are registered.
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}
