// Package local delivers domain events to in-process handlers.
package local

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindgraph/domain/events"
)

// AllEvents subscribes a handler to every event type
const AllEvents = "*"

// Handler reacts to one delivered event
type Handler func(ctx context.Context, event events.DomainEvent) error

// Publisher implements ports.EventPublisher by logging each event and handing
// it to the registered handlers. Handler failures are logged and never
// reported to the publishing side.
type Publisher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewPublisher creates a publisher with no handlers
func NewPublisher(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{handlers: make(map[string][]Handler), logger: logger}
}

// Subscribe registers a handler for an event type, or AllEvents
func (p *Publisher) Subscribe(eventType string, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], handler)
}

// Publish dispatches one event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	startTime := time.Now()

	p.mu.RLock()
	handlers := append(append([]Handler(nil), p.handlers[event.GetEventType()]...), p.handlers[AllEvents]...)
	p.mu.RUnlock()

	failures := 0
	for _, handle := range handlers {
		if err := handle(ctx, event); err != nil {
			failures++
			p.logger.Warn("Failed to dispatch event locally",
				zap.String("eventType", event.GetEventType()),
				zap.String("aggregateID", event.GetAggregateID()),
				zap.Error(err),
			)
		}
	}

	p.logger.Debug("Event dispatched locally",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Int("handlers", len(handlers)),
		zap.Int("failures", failures),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// PublishBatch dispatches events in order
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
