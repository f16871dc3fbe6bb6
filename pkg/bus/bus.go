// Package bus provides an in-process typed publish/subscribe hub.
//
// The bus is a fan-out mechanism, not a message queue: delivery is
// synchronous, on the publisher's call stack, with no backpressure and no
// queueing. Subscribers of one event type are invoked in registration order;
// no ordering is guaranteed across different event types and none should be
// relied upon.
//
// Every callback invocation is isolated. A panic in one subscriber is
// recovered, counted, and logged; it never prevents later subscribers from
// running and never reaches the publisher.
package bus

import (
	"reflect"
	"runtime/debug"
	"sync"

	appdebug "github.com/ampdesk/ampdesk/pkg/debug"
)

// Bus routes events to subscribers by the event's dynamic type.
// All methods are safe for concurrent use.
type Bus struct {
	mu    sync.RWMutex
	subs  map[reflect.Type][]func(any)
	stats map[reflect.Type]*typeStats
}

type typeStats struct {
	delivered uint64
	panicked  uint64
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subs:  make(map[reflect.Type][]func(any)),
		stats: make(map[reflect.Type]*typeStats),
	}
}

// Subscribe registers fn for events of type T. Callbacks for the same type
// run in registration order.
func Subscribe[T any](b *Bus, fn func(T)) {
	if b == nil || fn == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], func(ev any) {
		fn(ev.(T))
	})
	if _, ok := b.stats[t]; !ok {
		b.stats[t] = &typeStats{}
	}
}

// Publish delivers event to every subscriber registered for its dynamic type.
// Publishing a type nobody subscribed to is a valid no-op.
func (b *Bus) Publish(event any) {
	if b == nil || event == nil {
		return
	}
	t := reflect.TypeOf(event)

	b.mu.RLock()
	callbacks := b.subs[t]
	st := b.stats[t]
	b.mu.RUnlock()

	for _, cb := range callbacks {
		b.deliver(t, st, cb, event)
	}
}

func (b *Bus) deliver(t reflect.Type, st *typeStats, cb func(any), event any) {
	defer func() {
		if r := recover(); r != nil {
			if st != nil {
				b.mu.Lock()
				st.panicked++
				b.mu.Unlock()
			}
			appdebug.LogEvent("bus", "handler_panic", map[string]any{
				"event": t.String(),
				"panic": r,
				"stack": string(debug.Stack()),
			})
		}
	}()
	cb(event)
	if st != nil {
		b.mu.Lock()
		st.delivered++
		b.mu.Unlock()
	}
}

// Stats contains per-event-type delivery counters.
type Stats struct {
	// Delivered is the number of callback invocations that returned normally.
	Delivered map[string]uint64
	// Panicked is the number of callback invocations that panicked.
	Panicked map[string]uint64
}

// Stats returns a snapshot of delivery counters keyed by event type name.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := Stats{
		Delivered: make(map[string]uint64, len(b.stats)),
		Panicked:  make(map[string]uint64, len(b.stats)),
	}
	for t, st := range b.stats {
		out.Delivered[t.String()] = st.delivered
		out.Panicked[t.String()] = st.panicked
	}
	return out
}
