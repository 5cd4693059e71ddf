package event

import "sync"

// Sink consumes domain events (journal, feed, log).
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// Bus fans one emitted event out to every attached sink, in attach order.
// Sinks must not block; the engine emits synchronously inside its
// transaction boundary.
type Bus struct {
	mu    sync.RWMutex
	sinks []Sink
}

func NewBus() *Bus {
	return &Bus{}
}

// Attach registers a sink. Attachment order is delivery order.
func (b *Bus) Attach(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Emit delivers ev to all sinks. The Bus itself satisfies Sink.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()

	for _, s := range sinks {
		s.Emit(ev)
	}
}
