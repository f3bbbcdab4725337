package valueobjects

// DocumentKind distinguishes mindmap documents from guided story documents
type DocumentKind string

const (
	KindMindmap DocumentKind = "mindmap"
	KindStory   DocumentKind = "story"
)

// IsValid reports whether the kind is known
func (k DocumentKind) IsValid() bool {
	return k == KindMindmap || k == KindStory
}

// NodeType is the role of a node inside a workflow-style mindmap
type NodeType string

const (
	NodeTypeStart        NodeType = "start"
	NodeTypeProcess      NodeType = "process"
	NodeTypeDecision     NodeType = "decision"
	NodeTypeEnd          NodeType = "end"
	NodeTypeNotification NodeType = "notification"
	NodeTypeWait         NodeType = "wait"
	NodeTypeAction       NodeType = "action"
)

// IsValid reports whether the node type is known
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeStart, NodeTypeProcess, NodeTypeDecision, NodeTypeEnd,
		NodeTypeNotification, NodeTypeWait, NodeTypeAction:
		return true
	}
	return false
}

// IsFlowStep reports whether nodes of this type sit between start and end in a process flow
func (t NodeType) IsFlowStep() bool {
	return t == NodeTypeProcess || t == NodeTypeDecision || t == NodeTypeAction
}

// EdgeType is the kind of relationship an edge represents
type EdgeType string

const (
	EdgeTypeDirect      EdgeType = "direct"
	EdgeTypeConditional EdgeType = "conditional"
	EdgeTypeKeyword     EdgeType = "keyword"
	EdgeTypeTemporal    EdgeType = "temporal"
	EdgeTypeCategory    EdgeType = "category"
)

// IsValid reports whether the edge type is known
func (t EdgeType) IsValid() bool {
	switch t {
	case EdgeTypeDirect, EdgeTypeConditional, EdgeTypeKeyword, EdgeTypeTemporal, EdgeTypeCategory:
		return true
	}
	return false
}

// Priority of a node
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Layout is the rendering layout preference of a document
type Layout string

const (
	LayoutForce     Layout = "force"
	LayoutHierarchy Layout = "hierarchy"
	LayoutCircular  Layout = "circular"
	LayoutTimeline  Layout = "timeline"
)

// Theme is the color theme preference of a document
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)
