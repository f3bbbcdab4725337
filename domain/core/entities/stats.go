package entities

import "time"

// DocumentStats aggregates an owner's documents
type DocumentStats struct {
	TotalDocuments   int            `json:"totalDocuments"`
	TotalNodes       int            `json:"totalNodes"`
	TotalConnections int            `json:"totalConnections"`
	Categories       map[string]int `json:"categories"`
	TopKeywords      []KeywordCount `json:"topKeywords"`
	RecentActivity   []time.Time    `json:"recentActivity"`
}

// KeywordCount is a tag and the number of documents carrying it
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}
