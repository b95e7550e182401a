// Package emitter provides a small synchronous publish/subscribe primitive.
package emitter

import "sync"

// Listener is called when the event it was registered for is emitted
type Listener func()

// Emitter dispatches named events to registered listeners.
// The zero value is ready to use.
type Emitter[E comparable] struct {
	mu        sync.RWMutex
	listeners map[E][]Listener
}

// On registers a listener for name. Listeners are called in the order they
// were registered and the same listener may be registered more than once.
func (e *Emitter[E]) On(name E, l Listener) {
	if l == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[E][]Listener)
	}
	e.listeners[name] = append(e.listeners[name], l)
}

// Off removes every listener registered for name
func (e *Emitter[E]) Off(name E) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.listeners, name)
}

// Emit synchronously invokes the listeners of name.
// Listeners run without the emitter lock held so they may call back into it.
func (e *Emitter[E]) Emit(name E) {
	e.mu.RLock()
	snapshot := append([]Listener(nil), e.listeners[name]...)
	e.mu.RUnlock()

	for _, l := range snapshot {
		l()
	}
}

// Count returns the number of listeners registered for name
func (e *Emitter[E]) Count(name E) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.listeners[name])
}
