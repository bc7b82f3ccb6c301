package events

import (
	"context"
	"sync"
)

// NoOpPublisher is a publisher that does nothing.
type NoOpPublisher struct{}

// Publish does nothing.
func (p *NoOpPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}

// Close does nothing.
func (p *NoOpPublisher) Close() error {
	return nil
}

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event.
func (p *RecordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Close does nothing.
func (p *RecordingPublisher) Close() error {
	return nil
}

// Types returns the types of the recorded events in publish order.
func (p *RecordingPublisher) Types() []Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]Type, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}
