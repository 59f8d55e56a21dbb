package rules

import (
	"sync"

	"github.com/nmurphy101/arena/grid"
)

// EventKind names the discrete signals the simulation emits. Sound effects
// and metrics hang off these.
type EventKind string

// Event kinds.
const (
	EventSpawn    EventKind = "spawn"
	EventDeath    EventKind = "death"
	EventPickup   EventKind = "pickup"
	EventPortal   EventKind = "portal"
	EventGameOver EventKind = "game-over"
)

// Event is emitted once per occurrence, after the tick it happened in.
type Event struct {
	Kind     EventKind  `json:"kind"`
	Turn     int64      `json:"turn"`
	EntityID string     `json:"entityId,omitempty"`
	Entity   Kind       `json:"entity,omitempty"`
	Cell     grid.Point `json:"cell"`
	Cause    string     `json:"cause,omitempty"`
}

// Handler reacts to an event.
type Handler func(Event)

// Dispatcher routes events to the handlers registered for their kind.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
	all      []Handler
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[EventKind][]Handler{}}
}

// On registers h for one kind of event.
func (d *Dispatcher) On(kind EventKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// OnAll registers h for every event.
func (d *Dispatcher) OnAll(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.all = append(d.all, h)
}

// Emit calls the handlers of e's kind, then the catch-all handlers.
func (d *Dispatcher) Emit(e Event) {
	d.mu.RLock()
	handlers := d.handlers[e.Kind]
	all := d.all
	d.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
	for _, h := range all {
		h(e)
	}
}
