// Package event implements the lifecycle event model used across the SDK.
// Producers emit named events; observers subscribe to single names or to
// every event through the wildcard channel. Names are case-insensitive and
// normalized to upper case.
package event

import (
	"strings"
	"sync"
)

// WildcardName receives every event after its named handlers ran.
const WildcardName = "__ALL__"

// Event is what handlers receive.
type Event struct {
	Name string
	Data interface{}
}

// Handler handles one event. Handlers run synchronously in the goroutine
// calling Emit, in registration order.
type Handler func(Event)

type listener struct {
	id uint64
	fn Handler
}

// Emitter dispatches named events to subscribed handlers. The zero value is
// not usable; call NewEmitter. Safe for concurrent use.
type Emitter struct {
	mu       sync.RWMutex
	seq      uint64
	handlers map[string][]listener
	ignored  map[string]struct{}
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		handlers: make(map[string][]listener),
		ignored:  make(map[string]struct{}),
	}
}

// On subscribes a handler to one event name and returns its cancel func.
// Cancel is idempotent.
func (e *Emitter) On(name string, h Handler) (cancel func()) {
	if h == nil {
		return func() {}
	}
	key := normalize(name)

	e.mu.Lock()
	e.seq++
	id := e.seq
	e.handlers[key] = append(e.handlers[key], listener{id: id, fn: h})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		ls := e.handlers[key]
		for i, l := range ls {
			if l.id == id {
				e.handlers[key] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
	}
}

// OnAll subscribes a handler to every event.
func (e *Emitter) OnAll(h Handler) (cancel func()) {
	return e.On(WildcardName, h)
}

// Ignore drops the given event names at emit time, wildcard included.
func (e *Emitter) Ignore(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range names {
		e.ignored[normalize(name)] = struct{}{}
	}
}

// Unignore re-enables previously ignored names.
func (e *Emitter) Unignore(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range names {
		delete(e.ignored, normalize(name))
	}
}

// RemoveAll drops every subscription. Ignored names are kept.
func (e *Emitter) RemoveAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = make(map[string][]listener)
}

// Emit dispatches an event to its named handlers, then to the wildcard
// handlers. Emitting an ignored name is a no-op. The handler set is
// snapshotted first, so handlers may subscribe or cancel re-entrantly.
func (e *Emitter) Emit(name string, data interface{}) {
	key := normalize(name)

	e.mu.RLock()
	if _, skip := e.ignored[key]; skip {
		e.mu.RUnlock()
		return
	}
	named := snapshot(e.handlers[key])
	var wild []listener
	if key != WildcardName {
		wild = snapshot(e.handlers[WildcardName])
	}
	e.mu.RUnlock()

	ev := Event{Name: key, Data: data}
	for _, l := range named {
		l.fn(ev)
	}
	for _, l := range wild {
		l.fn(ev)
	}
}

func snapshot(ls []listener) []listener {
	if len(ls) == 0 {
		return nil
	}
	out := make([]listener, len(ls))
	copy(out, ls)
	return out
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
