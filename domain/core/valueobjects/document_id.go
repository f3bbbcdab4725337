package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

const maxDocumentIDLength = 128

// DocumentID is a value object representing a unique document identifier.
// Freshly saved documents receive a UUID; imported documents may carry any
// identifier that is non-empty and free of whitespace and key separators.
type DocumentID struct {
	value string
}

// NewDocumentID creates a new random DocumentID
func NewDocumentID() DocumentID {
	return DocumentID{value: uuid.New().String()}
}

// NewDocumentIDFromString creates a DocumentID from an existing string
func NewDocumentIDFromString(id string) (DocumentID, error) {
	if id == "" {
		return DocumentID{}, errors.New("document ID cannot be empty")
	}
	if len(id) > maxDocumentIDLength {
		return DocumentID{}, errors.New("document ID is too long")
	}
	if strings.ContainsAny(id, " \t\r\n#:") {
		return DocumentID{}, errors.New("document ID contains reserved characters")
	}
	return DocumentID{value: id}, nil
}

// MustDocumentID is NewDocumentIDFromString for literals known to be valid
func MustDocumentID(id string) DocumentID {
	docID, err := NewDocumentIDFromString(id)
	if err != nil {
		panic(err)
	}
	return docID
}

// String returns the string representation of the DocumentID
func (id DocumentID) String() string {
	return id.value
}

// Equals checks if two DocumentIDs are equal
func (id DocumentID) Equals(other DocumentID) bool {
	return id.value == other.value
}

// IsZero checks if the DocumentID is the zero value
func (id DocumentID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id DocumentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *DocumentID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("DocumentID must be a string")
	}
	if raw == "" {
		id.value = ""
		return nil
	}
	parsed, err := NewDocumentIDFromString(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
