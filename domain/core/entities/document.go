package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"mindgraph/domain/config"
	"mindgraph/domain/core/valueobjects"
	pkgerrors "mindgraph/pkg/errors"
	"mindgraph/pkg/utils"
)

// Document is a mindmap or story owned by exactly one user
type Document struct {
	ID          valueobjects.DocumentID   `json:"id"`
	Kind        valueobjects.DocumentKind `json:"kind"`
	Title       string                    `json:"title"`
	Description string                    `json:"description,omitempty"`
	Nodes       []Node                    `json:"nodes" validate:"dive"`
	Connections []Edge                    `json:"connections" validate:"dive"`
	Metadata    Metadata                  `json:"metadata"`
	Settings    Settings                  `json:"settings"`
	Story       *StoryData                `json:"storyData,omitempty"`
	Keywords    []string                  `json:"keywords,omitempty"`
}

// Metadata holds ownership, classification and versioning of a document
type Metadata struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags"`
	Version   int       `json:"version"`
}

// Settings are rendering preferences with no behavioral meaning
type Settings struct {
	Layout          valueobjects.Layout `json:"layout,omitempty" validate:"omitempty,oneof=force hierarchy circular timeline"`
	Theme           valueobjects.Theme  `json:"theme,omitempty" validate:"omitempty,oneof=light dark"`
	AutoLayout      bool                `json:"autoLayout"`
	ShowLabels      bool                `json:"showLabels"`
	ShowConnections bool                `json:"showConnections"`
}

// DefaultSettings returns the settings given to documents that carry none
func DefaultSettings() Settings {
	return Settings{
		Layout:          valueobjects.LayoutForce,
		Theme:           valueobjects.ThemeLight,
		AutoLayout:      true,
		ShowLabels:      true,
		ShowConnections: true,
	}
}

// Owner returns the identity that created the document
func (d *Document) Owner() string {
	return d.Metadata.CreatedBy
}

// IsStory reports whether the document belongs to the story variant
func (d *Document) IsStory() bool {
	return d.Kind == valueobjects.KindStory
}

// Initialize prepares a draft for its first save: it assigns the id, stamps
// both timestamps, resets the version and fills in element ids. Story
// documents get their keywords extracted here.
func (d *Document) Initialize(id valueobjects.DocumentID, owner string, now time.Time, cfg *config.DomainConfig) error {
	d.ID = id
	d.Metadata.CreatedBy = strings.TrimSpace(owner)
	d.Metadata.CreatedAt = now
	d.Metadata.UpdatedAt = now
	d.Metadata.Version = 1
	return d.fillDefaults(cfg)
}

// Adopt prepares an imported document for owner. It keeps the identity,
// timestamps and version the document arrives with and fills in whatever is
// missing, so exported documents come back unchanged.
func (d *Document) Adopt(owner string, now time.Time, cfg *config.DomainConfig) error {
	if d.ID.IsZero() {
		d.ID = valueobjects.NewDocumentID()
	}
	d.Metadata.CreatedBy = strings.TrimSpace(owner)
	if d.Metadata.CreatedAt.IsZero() {
		d.Metadata.CreatedAt = now
	}
	if d.Metadata.UpdatedAt.Before(d.Metadata.CreatedAt) {
		d.Metadata.UpdatedAt = d.Metadata.CreatedAt
	}
	if d.Metadata.Version < 1 {
		d.Metadata.Version = 1
	}
	return d.fillDefaults(cfg)
}

func (d *Document) fillDefaults(cfg *config.DomainConfig) error {
	d.Metadata.Tags = NormalizeTags(d.Metadata.Tags)
	d.Title = strings.TrimSpace(d.Title)

	if d.Kind == "" {
		d.Kind = valueobjects.KindMindmap
	}
	if d.Settings == (Settings{}) {
		d.Settings = DefaultSettings()
	}
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Connections == nil {
		d.Connections = []Edge{}
	}

	if err := assignElementIDs(d); err != nil {
		return err
	}

	d.refreshKeywords(cfg)
	return nil
}

// refreshKeywords recomputes extracted story keywords; mindmaps carry none
func (d *Document) refreshKeywords(cfg *config.DomainConfig) {
	if d.IsStory() && d.Story != nil {
		d.Keywords = ExtractStoryKeywords(*d.Story, cfg.MaxStoryKeywords)
		if d.Metadata.Category == "" {
			d.Metadata.Category = d.Story.Category
		}
		return
	}
	d.Keywords = nil
}

// Validate enforces the document invariants
func (d *Document) Validate(cfg *config.DomainConfig) error {
	if err := utils.ValidateStruct(d); err != nil {
		return err
	}

	if d.ID.IsZero() {
		return pkgerrors.NewValidationError("id is required")
	}
	if strings.TrimSpace(d.Title) == "" {
		return pkgerrors.NewValidationError("title is required")
	}
	if utf8.RuneCountInString(d.Title) > cfg.MaxTitleLength {
		return pkgerrors.NewValidationErrorf("title exceeds maximum length of %d characters", cfg.MaxTitleLength)
	}
	if d.Metadata.CreatedBy == "" {
		return pkgerrors.NewValidationError("owner is required")
	}
	if !d.Kind.IsValid() {
		return pkgerrors.NewValidationErrorf("unknown document kind %q", d.Kind)
	}
	if d.IsStory() && d.Story == nil {
		return pkgerrors.NewValidationError("story documents require storyData")
	}
	if len(d.Metadata.Tags) > cfg.MaxTags {
		return pkgerrors.NewValidationErrorf("a document may carry at most %d tags", cfg.MaxTags)
	}
	if len(d.Nodes) > cfg.MaxNodes {
		return pkgerrors.NewValidationErrorf("a document may carry at most %d nodes", cfg.MaxNodes)
	}

	nodeIDs := mapset.NewThreadUnsafeSetWithSize[string](len(d.Nodes))
	for i, node := range d.Nodes {
		if node.ID == "" {
			return pkgerrors.NewValidationErrorf("nodes[%d]: id is required", i)
		}
		if !node.Type.IsValid() {
			return pkgerrors.NewValidationErrorf("nodes[%d]: unknown node type %q", i, node.Type)
		}
		if !nodeIDs.Add(node.ID) {
			return pkgerrors.NewValidationErrorf("nodes[%d]: duplicate node id %q", i, node.ID)
		}
	}

	for i, edge := range d.Connections {
		if !edge.Type.IsValid() {
			return pkgerrors.NewValidationErrorf("connections[%d]: unknown edge type %q", i, edge.Type)
		}
		if !nodeIDs.Contains(edge.Source) {
			return pkgerrors.NewValidationErrorf("connections[%d]: source %q is not a node of this document", i, edge.Source)
		}
		if !nodeIDs.Contains(edge.Target) {
			return pkgerrors.NewValidationErrorf("connections[%d]: target %q is not a node of this document", i, edge.Target)
		}
	}

	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Nodes = make([]Node, len(d.Nodes))
	for i, n := range d.Nodes {
		out.Nodes[i] = n.clone()
	}
	out.Connections = make([]Edge, len(d.Connections))
	for i, e := range d.Connections {
		out.Connections[i] = e.clone()
	}
	out.Metadata.Tags = append([]string(nil), d.Metadata.Tags...)
	out.Keywords = append([]string(nil), d.Keywords...)
	if d.Story != nil {
		story := *d.Story
		out.Story = &story
	}
	return &out
}

// NodeLabels returns the non-empty node labels of the document
func (d *Document) NodeLabels() []string {
	labels := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.Label != "" {
			labels = append(labels, n.Label)
		}
	}
	return labels
}

// NormalizeTags trims tags and drops empty and duplicate entries, keeping first occurrence order
func NormalizeTags(tags []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || !seen.Add(tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func assignElementIDs(d *Document) error {
	for i := range d.Nodes {
		if d.Nodes[i].ID != "" {
			continue
		}
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate node id: %w", err)
		}
		d.Nodes[i].ID = id
	}
	for i := range d.Connections {
		if d.Connections[i].Type == "" {
			d.Connections[i].Type = valueobjects.EdgeTypeDirect
		}
		if d.Connections[i].ID != "" {
			continue
		}
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate edge id: %w", err)
		}
		d.Connections[i].ID = id
	}
	return nil
}
