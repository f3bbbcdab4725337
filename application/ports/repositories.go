package ports

import (
	"context"
	"time"

	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	"mindgraph/domain/events"
)

// DocumentRepository defines the interface for document persistence.
// This is a port in hexagonal architecture: the store does not know which medium backs it.
// Implementations report a missing document with a NOT_FOUND AppError and
// medium failures with a STORAGE AppError.
type DocumentRepository interface {
	// Put persists a document, replacing any previous version with the same id
	Put(ctx context.Context, doc *entities.Document) error

	// GetByID retrieves a document by its id regardless of owner
	GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error)

	// ListByOwner retrieves every document created by the owner, in no particular order
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error)

	// Delete removes a document. Deleting an absent id is not an error.
	Delete(ctx context.Context, id valueobjects.DocumentID) error
}

// KeywordRepository defines the interface for the per-owner keyword index
type KeywordRepository interface {
	// ListKeywords retrieves every keyword entry of the owner
	ListKeywords(ctx context.Context, ownerID string) ([]*entities.KeywordEntry, error)

	// SaveKeywords upserts the given entries and removes the named keywords
	SaveKeywords(ctx context.Context, ownerID string, upserts []*entities.KeywordEntry, removals []string) error
}

// HealthChecker is implemented by repositories that can report medium reachability
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching derived results
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock supplies the current time; tests substitute a fixed clock
type Clock func() time.Time
