package audit

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryPublisher collects events in memory. Tests assert on them; dev runs
// without kafka use it together with the log.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	logger *slog.Logger
}

// NewMemory constructs a memory publisher. Pass a logger to also log each
// event, or nil to collect silently.
func NewMemory(logger *slog.Logger) *MemoryPublisher {
	return &MemoryPublisher{logger: logger}
}

// Emit records the event.
func (p *MemoryPublisher) Emit(ctx context.Context, event Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	if p.logger != nil {
		p.logger.InfoContext(ctx, "audit event",
			"type", event.Type,
			"registration_id", event.RegistrationID,
		)
	}
	return nil
}

// Events returns a copy of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the event types in emission order. Test helper.
func (p *MemoryPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
