package entities

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"mindgraph/domain/config"
	pkgerrors "mindgraph/pkg/errors"
	"mindgraph/pkg/utils"
)

// DocumentUpdate is a partial update. Nil fields are left untouched; the id,
// owner and creation time of a document can never be changed through it.
type DocumentUpdate struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string    `json:"description,omitempty"`
	Nodes       *[]Node    `json:"nodes,omitempty"`
	Connections *[]Edge    `json:"connections,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Settings    *Settings  `json:"settings,omitempty"`
	Story       *StoryData `json:"storyData,omitempty"`
}

// DecodeDocumentUpdate reads a JSON update, rejecting fields it does not know
func DecodeDocumentUpdate(r io.Reader) (DocumentUpdate, error) {
	var update DocumentUpdate
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&update); err != nil {
		return DocumentUpdate{}, pkgerrors.NewValidationError(fmt.Sprintf("invalid update: %v", err))
	}
	if err := update.Validate(); err != nil {
		return DocumentUpdate{}, err
	}
	return update, nil
}

// Validate checks the update in isolation
func (u DocumentUpdate) Validate() error {
	if err := utils.ValidateStruct(u); err != nil {
		return err
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return pkgerrors.NewValidationError("title cannot be blank")
	}
	return nil
}

// TouchesStory reports whether applying the update changes story content
func (u DocumentUpdate) TouchesStory() bool {
	return u.Story != nil
}

// ApplyUpdate merges the update, restamps updatedAt and bumps the version by
// exactly one. updatedAt never moves backwards even if the clock does.
func (d *Document) ApplyUpdate(u DocumentUpdate, now time.Time, cfg *config.DomainConfig) error {
	if u.Title != nil {
		d.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Nodes != nil {
		d.Nodes = append([]Node{}, (*u.Nodes)...)
	}
	if u.Connections != nil {
		d.Connections = append([]Edge{}, (*u.Connections)...)
	}
	if u.Category != nil {
		d.Metadata.Category = *u.Category
	}
	if u.Tags != nil {
		d.Metadata.Tags = NormalizeTags(*u.Tags)
	}
	if u.Settings != nil {
		d.Settings = *u.Settings
	}
	if u.Story != nil {
		story := *u.Story
		d.Story = &story
	}

	if err := assignElementIDs(d); err != nil {
		return err
	}
	if u.Story != nil {
		d.refreshKeywords(cfg)
	}

	if now.After(d.Metadata.UpdatedAt) {
		d.Metadata.UpdatedAt = now
	}
	d.Metadata.Version++
	return nil
}
