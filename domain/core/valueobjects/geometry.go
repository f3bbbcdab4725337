package valueobjects

// Position is a point on the document canvas
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the rendered size of a node
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
