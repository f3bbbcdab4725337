package entities

import (
	"time"

	"mindgraph/domain/core/valueobjects"
)

// Node is a typed, positioned element inside a document
type Node struct {
	ID          string                `json:"id"`
	Label       string                `json:"label" validate:"max=500"`
	Type        valueobjects.NodeType `json:"type"`
	Position    valueobjects.Position `json:"position"`
	Size        valueobjects.Size     `json:"size"`
	Color       string                `json:"color,omitempty"`
	Description string                `json:"description,omitempty"`
	Metadata    *NodeMetadata         `json:"metadata,omitempty"`
}

// NodeMetadata carries optional bookkeeping for a node
type NodeMetadata struct {
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
	Category  string                `json:"category,omitempty"`
	Priority  valueobjects.Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

// Edge is a weighted relationship. Inside a document it links two node ids;
// edges derived by the analyzer link two document ids instead.
type Edge struct {
	ID        string                `json:"id"`
	Source    string                `json:"source" validate:"required"`
	Target    string                `json:"target" validate:"required"`
	Type      valueobjects.EdgeType `json:"type"`
	Label     string                `json:"label,omitempty"`
	Strength  float64               `json:"strength" validate:"gte=0,lte=1"`
	Condition string                `json:"condition,omitempty"`
	Style     *EdgeStyle            `json:"style,omitempty"`
}

// EdgeStyle is the presentational style of an edge
type EdgeStyle struct {
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	DashArray string  `json:"dashArray,omitempty"`
	Animated  bool    `json:"animated"`
}

func (n Node) clone() Node {
	if n.Metadata != nil {
		meta := *n.Metadata
		n.Metadata = &meta
	}
	return n
}

func (e Edge) clone() Edge {
	if e.Style != nil {
		style := *e.Style
		e.Style = &style
	}
	return e
}
