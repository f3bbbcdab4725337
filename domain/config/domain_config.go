package config

import "time"

// DomainConfig holds the tunable rules of the store and the connection analyzer
type DomainConfig struct {
	// Connection filtering
	MinConnectionStrength float64
	MaxConnections        int

	// Keyword connection weights
	SharedTagWeight     float64
	SharedKeywordWeight float64
	NodeCountWeight     float64
	MinKeywordLength    int // tokens of this length or shorter are discarded

	// Temporal connection
	TemporalWindow      time.Duration
	MinTemporalStrength float64

	// Fixed strengths
	CategoryStrength float64
	FlowStrength     float64

	// Story keyword index
	MaxStoryKeywords       int
	NewKeywordImportance   float64
	KeywordImportanceStep  float64
	NetworkKeywordLimit    int
	DefaultKeywordCategory string

	// Stats
	TopKeywords    int
	RecentActivity int

	// Document constraints
	MaxTitleLength int
	MaxTags        int
	MaxNodes       int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MinConnectionStrength: 0.3,
		MaxConnections:        50,

		SharedTagWeight:     0.3,
		SharedKeywordWeight: 0.2,
		NodeCountWeight:     0.1,
		MinKeywordLength:    2,

		TemporalWindow:      24 * time.Hour,
		MinTemporalStrength: 0.3,

		CategoryStrength: 0.6,
		FlowStrength:     0.8,

		MaxStoryKeywords:       20,
		NewKeywordImportance:   0.5,
		KeywordImportanceStep:  0.1,
		NetworkKeywordLimit:    100,
		DefaultKeywordCategory: "general",

		TopKeywords:    10,
		RecentActivity: 30,

		MaxTitleLength: 200,
		MaxTags:        50,
		MaxNodes:       1000,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Pairwise analysis is quadratic; keep rendered edge counts small
	config.MaxConnections = 30
	config.MaxNodes = 500

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.MaxConnections = 200
	config.MaxNodes = 10000
	return config
}

// ForEnvironment picks the domain configuration matching a deployment environment
func ForEnvironment(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
