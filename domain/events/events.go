package events

import (
	"time"

	"mindgraph/domain/core/valueobjects"
)

// Source identifies this service on the event bus
const Source = "mindgraph.store"

// Event types
const (
	TypeDocumentSaved   = "document.saved"
	TypeDocumentUpdated = "document.updated"
	TypeDocumentDeleted = "document.deleted"
	TypeOwnerImported   = "owner.imported"
	TypeOwnerCleared    = "owner.cleared"
)

// DomainEvent is the base interface for all domain events.
// Events represent something that has happened in the past.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// DocumentSaved is raised when a new document is stored
type DocumentSaved struct {
	BaseEvent
	DocumentID valueobjects.DocumentID   `json:"document_id"`
	OwnerID    string                    `json:"owner_id"`
	Kind       valueobjects.DocumentKind `json:"kind"`
	Category   string                    `json:"category,omitempty"`
	Tags       []string                  `json:"tags,omitempty"`
	Keywords   []string                  `json:"keywords,omitempty"`
}

// NewDocumentSaved creates a DocumentSaved event
func NewDocumentSaved(id valueobjects.DocumentID, owner string, kind valueobjects.DocumentKind, category string, tags, keywords []string, timestamp time.Time) DocumentSaved {
	return DocumentSaved{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   TypeDocumentSaved,
			Timestamp:   timestamp,
			Version:     1,
		},
		DocumentID: id,
		OwnerID:    owner,
		Kind:       kind,
		Category:   category,
		Tags:       tags,
		Keywords:   keywords,
	}
}

// DocumentUpdated is raised after a partial update was merged
type DocumentUpdated struct {
	BaseEvent
	DocumentID valueobjects.DocumentID `json:"document_id"`
	OwnerID    string                  `json:"owner_id"`
}

// NewDocumentUpdated creates a DocumentUpdated event carrying the new document version
func NewDocumentUpdated(id valueobjects.DocumentID, owner string, version int, timestamp time.Time) DocumentUpdated {
	return DocumentUpdated{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   TypeDocumentUpdated,
			Timestamp:   timestamp,
			Version:     version,
		},
		DocumentID: id,
		OwnerID:    owner,
	}
}

// DocumentDeleted is raised when a document is removed
type DocumentDeleted struct {
	BaseEvent
	DocumentID     valueobjects.DocumentID `json:"document_id"`
	OwnerID        string                  `json:"owner_id"`
	PrunedKeywords []string                `json:"pruned_keywords,omitempty"`
}

// NewDocumentDeleted creates a DocumentDeleted event
func NewDocumentDeleted(id valueobjects.DocumentID, owner string, pruned []string, timestamp time.Time) DocumentDeleted {
	return DocumentDeleted{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   TypeDocumentDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		DocumentID:     id,
		OwnerID:        owner,
		PrunedKeywords: pruned,
	}
}

// OwnerDataChanged is raised when an owner's whole collection is replaced or cleared
type OwnerDataChanged struct {
	BaseEvent
	OwnerID   string `json:"owner_id"`
	Documents int    `json:"documents"`
}

// NewOwnerImported creates an event for a completed import
func NewOwnerImported(owner string, documents int, timestamp time.Time) OwnerDataChanged {
	return newOwnerDataChanged(TypeOwnerImported, owner, documents, timestamp)
}

// NewOwnerCleared creates an event for a cleared collection
func NewOwnerCleared(owner string, documents int, timestamp time.Time) OwnerDataChanged {
	return newOwnerDataChanged(TypeOwnerCleared, owner, documents, timestamp)
}

func newOwnerDataChanged(eventType, owner string, documents int, timestamp time.Time) OwnerDataChanged {
	return OwnerDataChanged{
		BaseEvent: BaseEvent{
			AggregateID: owner,
			EventType:   eventType,
			Timestamp:   timestamp,
			Version:     1,
		},
		OwnerID:   owner,
		Documents: documents,
	}
}
