package events

import (
	"context"
	"sync"
)

// MemoryPublisher retains events in memory. It backs unit tests and the
// dev-mode server. With an async buffer it mirrors the production
// publisher's fire-and-forget behavior; Close drains the buffer.
type MemoryPublisher struct {
	mu     sync.RWMutex
	events []Event

	buf  chan Event
	done chan struct{}
}

// MemoryOption configures a MemoryPublisher.
type MemoryOption func(*MemoryPublisher)

// WithAsyncBuffer makes Emit enqueue instead of append synchronously.
func WithAsyncBuffer(size int) MemoryOption {
	return func(p *MemoryPublisher) {
		p.buf = make(chan Event, size)
	}
}

// NewMemoryPublisher builds a memory publisher, synchronous by default.
func NewMemoryPublisher(opts ...MemoryOption) *MemoryPublisher {
	p := &MemoryPublisher{}
	for _, opt := range opts {
		opt(p)
	}
	if p.buf != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

func (p *MemoryPublisher) drain() {
	defer close(p.done)
	for ev := range p.buf {
		p.mu.Lock()
		p.events = append(p.events, ev)
		p.mu.Unlock()
	}
}

// Emit records the event.
func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	if p.buf != nil {
		p.buf <- event
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Event{}, p.events...)
}

// ByType returns emitted events matching the given type.
func (p *MemoryPublisher) ByType(eventType Type) []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []Event
	for _, ev := range p.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// Close drains the async buffer, if any.
func (p *MemoryPublisher) Close() {
	if p.buf == nil {
		return
	}
	close(p.buf)
	<-p.done
}
