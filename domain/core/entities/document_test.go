package entities

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindgraph/domain/config"
	"mindgraph/domain/core/valueobjects"
	pkgerrors "mindgraph/pkg/errors"
)

func newDraft() *Document {
	return &Document{
		Title: "  Launch plan ",
		Nodes: []Node{
			{ID: "n1", Label: "Start", Type: valueobjects.NodeTypeStart},
			{ID: "n2", Label: "Ship", Type: valueobjects.NodeTypeEnd},
		},
		Connections: []Edge{{Source: "n1", Target: "n2", Strength: 0.5}},
		Metadata:    Metadata{Tags: []string{"biz", " biz", "", "growth"}},
	}
}

func TestDocument_Initialize(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := newDraft()
	doc.Metadata.Version = 7

	require.NoError(t, doc.Initialize(valueobjects.MustDocumentID("doc-1"), "a@x.com", now, cfg))

	assert.Equal(t, "doc-1", doc.ID.String())
	assert.Equal(t, "Launch plan", doc.Title)
	assert.Equal(t, "a@x.com", doc.Owner())
	assert.Equal(t, now, doc.Metadata.CreatedAt)
	assert.Equal(t, now, doc.Metadata.UpdatedAt)
	assert.Equal(t, 1, doc.Metadata.Version)
	assert.Equal(t, []string{"biz", "growth"}, doc.Metadata.Tags)
	assert.Equal(t, valueobjects.KindMindmap, doc.Kind)
	assert.Equal(t, DefaultSettings(), doc.Settings)
	assert.NotEmpty(t, doc.Connections[0].ID)
	assert.Equal(t, valueobjects.EdgeTypeDirect, doc.Connections[0].Type)
	assert.NoError(t, doc.Validate(cfg))
}

func TestDocument_InitializeStoryExtractsKeywords(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	doc := &Document{
		Title: "My story",
		Kind:  valueobjects.KindStory,
		Story: &StoryData{Category: "career", Step1: "grow my startup", Step2: "no customers"},
	}

	require.NoError(t, doc.Initialize(valueobjects.NewDocumentID(), "a@x.com", time.Now(), cfg))

	assert.Equal(t, []string{"career", "grow", "my", "startup", "no", "customers"}, doc.Keywords)
	assert.Equal(t, "career", doc.Metadata.Category)
}

func TestDocument_Validate(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	tests := []struct {
		name   string
		mutate func(d *Document)
		want   string
	}{
		{"missing title", func(d *Document) { d.Title = "   " }, "title is required"},
		{"missing owner", func(d *Document) { d.Metadata.CreatedBy = "" }, "owner is required"},
		{"unknown node type", func(d *Document) { d.Nodes[0].Type = "bogus" }, "unknown node type"},
		{"duplicate node id", func(d *Document) { d.Nodes[1].ID = "n1" }, "duplicate node id"},
		{"dangling edge", func(d *Document) { d.Connections[0].Target = "missing" }, "is not a node of this document"},
		{"strength out of range", func(d *Document) { d.Connections[0].Strength = 1.5 }, "strength"},
		{"story without data", func(d *Document) { d.Kind = valueobjects.KindStory }, "storyData"},
		{"title too long", func(d *Document) { d.Title = strings.Repeat("x", cfg.MaxTitleLength+1) }, "maximum length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDraft()
			require.NoError(t, doc.Initialize(valueobjects.NewDocumentID(), "a@x.com", time.Now(), cfg))
			tt.mutate(doc)

			err := doc.Validate(cfg)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDocument_ApplyUpdate(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := newDraft()
	require.NoError(t, doc.Initialize(valueobjects.NewDocumentID(), "a@x.com", created, cfg))

	title := "Renamed"
	tags := []string{"ops"}
	require.NoError(t, doc.ApplyUpdate(DocumentUpdate{Title: &title, Tags: &tags}, created.Add(time.Hour), cfg))

	assert.Equal(t, "Renamed", doc.Title)
	assert.Equal(t, []string{"ops"}, doc.Metadata.Tags)
	assert.Equal(t, 2, doc.Metadata.Version)
	assert.Equal(t, created.Add(time.Hour), doc.Metadata.UpdatedAt)
	assert.Equal(t, created, doc.Metadata.CreatedAt)
	assert.Equal(t, "a@x.com", doc.Owner())

	t.Run("clock moving backwards keeps updatedAt", func(t *testing.T) {
		previous := doc.Metadata.UpdatedAt
		require.NoError(t, doc.ApplyUpdate(DocumentUpdate{}, created.Add(-time.Hour), cfg))
		assert.Equal(t, previous, doc.Metadata.UpdatedAt)
		assert.Equal(t, 3, doc.Metadata.Version)
	})
}

func TestDecodeDocumentUpdate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"title only", `{"title":"New"}`, false},
		{"tags and settings", `{"tags":["a"],"settings":{"layout":"circular","theme":"dark"}}`, false},
		{"unknown field", `{"title":"New","createdBy":"mallory@x.com"}`, true},
		{"blank title", `{"title":"  "}`, true},
		{"bad layout", `{"settings":{"layout":"spiral"}}`, true},
		{"not json", `title=New`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDocumentUpdate(strings.NewReader(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := newDraft()
	doc.Story = &StoryData{Step1: "a"}
	clone := doc.Clone()

	clone.Nodes[0].Label = "changed"
	clone.Metadata.Tags[0] = "changed"
	clone.Story.Step1 = "changed"

	assert.Equal(t, "Start", doc.Nodes[0].Label)
	assert.Equal(t, "biz", doc.Metadata.Tags[0])
	assert.Equal(t, "a", doc.Story.Step1)
}
