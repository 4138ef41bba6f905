package events

import (
	"sync"
	"sync/atomic"

	"github.com/autopilot-hq/autopilot/backend/internal/shared/id"
)

// Type names an event on the UI push channel
type Type string

const (
	TerminalOutput  Type = "terminal-output"
	TerminalClosed  Type = "terminal-closed"
	GitHeadChanged  Type = "git-head-changed"
	GitIndexChanged Type = "git-index-changed"
	WorktreeChanged Type = "worktree-changed"
)

// Event is a single push notification to the UI
type Event struct {
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Sink accepts events from resource pump goroutines. Publish is
// fire-and-forget: it never blocks and never reports delivery.
type Sink interface {
	Publish(Event)
}

// Observer receives publish/drop notifications, typically for metrics
type Observer interface {
	EventPublished(eventType string)
	EventDropped(eventType string)
}

// Dispatcher decouples resource lifetime from sink lifetime: producers
// publish onto a buffered channel and a single goroutine fans events out
// to subscribers. A slow subscriber loses events rather than stalling a
// reader thread.
type Dispatcher struct {
	in       chan Event
	mu       sync.RWMutex
	subs     map[id.ConnID]chan Event
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
	dropped  atomic.Uint64
	observer Observer
}

// NewDispatcher creates a dispatcher with the given inbound buffer size
// and starts its forwarding goroutine.
func NewDispatcher(buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 1024
	}
	d := &Dispatcher{
		in:      make(chan Event, buffer),
		subs:    make(map[id.ConnID]chan Event),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

// WithObserver attaches a metrics observer. Must be called before any
// Publish.
func (d *Dispatcher) WithObserver(o Observer) *Dispatcher {
	d.observer = o
	return d
}

// Publish enqueues an event for delivery. Non-blocking: if the inbound
// buffer is full the event is dropped and counted.
func (d *Dispatcher) Publish(ev Event) {
	select {
	case <-d.done:
		return
	default:
	}

	select {
	case d.in <- ev:
		if d.observer != nil {
			d.observer.EventPublished(string(ev.Type))
		}
	default:
		d.dropped.Add(1)
		if d.observer != nil {
			d.observer.EventDropped(string(ev.Type))
		}
	}
}

// Subscribe registers a new subscriber and returns its channel. The
// channel is closed on Unsubscribe or when the dispatcher shuts down.
func (d *Dispatcher) Subscribe(connID id.ConnID) <-chan Event {
	ch := make(chan Event, 256)

	d.mu.Lock()
	defer d.mu.Unlock()

	select {
	case <-d.done:
		close(ch)
		return ch
	default:
	}

	d.subs[connID] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (d *Dispatcher) Unsubscribe(connID id.ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ch, ok := d.subs[connID]; ok {
		delete(d.subs, connID)
		close(ch)
	}
}

// Subscribers returns the current subscriber count
func (d *Dispatcher) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Dropped returns the number of events discarded due to backpressure
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops the forwarding goroutine and closes all subscriber
// channels. Publishes after Close are silently discarded.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.done)
		<-d.stopped

		d.mu.Lock()
		defer d.mu.Unlock()
		for connID, ch := range d.subs {
			delete(d.subs, connID)
			close(ch)
		}
	})
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case ev := <-d.in:
			d.forward(ev)
		case <-d.done:
			// Drain what producers already enqueued
			for {
				select {
				case ev := <-d.in:
					d.forward(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) forward(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, ch := range d.subs {
		select {
		case ch <- ev:
		default:
			d.dropped.Add(1)
			if d.observer != nil {
				d.observer.EventDropped(string(ev.Type))
			}
		}
	}
}
