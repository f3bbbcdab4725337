// Package repotest holds the behavior every document and keyword repository
// must show, so each backend runs the same checks.
package repotest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindgraph/application/ports"
	"mindgraph/domain/config"
	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
	pkgerrors "mindgraph/pkg/errors"
)

// Factory returns fresh, empty repositories for one test
type Factory func(t *testing.T) (ports.DocumentRepository, ports.KeywordRepository)

// Run executes the repository contract against the backend built by factory
func Run(t *testing.T, factory Factory) {
	t.Run("put then get returns an equal document", func(t *testing.T) {
		docs, _ := factory(t)
		ctx := context.Background()

		doc := NewDocument(t, "alice", "Roadmap", valueobjects.KindMindmap)
		require.NoError(t, docs.Put(ctx, doc))

		got, err := docs.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assertSameDocument(t, doc, got)
	})

	t.Run("story documents keep their content", func(t *testing.T) {
		docs, _ := factory(t)
		ctx := context.Background()

		doc := NewDocument(t, "alice", "Bakery", valueobjects.KindStory)
		require.NoError(t, docs.Put(ctx, doc))

		got, err := docs.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Story)
		assert.Equal(t, doc.Story.Step1, got.Story.Step1)
		assert.Equal(t, doc.Keywords, got.Keywords)
	})

	t.Run("get of an unknown id is not found", func(t *testing.T) {
		docs, _ := factory(t)

		_, err := docs.GetByID(context.Background(), valueobjects.NewDocumentID())
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("put replaces the previous version", func(t *testing.T) {
		docs, _ := factory(t)
		ctx := context.Background()

		doc := NewDocument(t, "alice", "Draft", valueobjects.KindMindmap)
		require.NoError(t, docs.Put(ctx, doc))

		doc.Title = "Final"
		doc.Metadata.Version = 2
		require.NoError(t, docs.Put(ctx, doc))

		got, err := docs.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Final", got.Title)
		assert.Equal(t, 2, got.Metadata.Version)

		listed, err := docs.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, listed, 1)
	})

	t.Run("list is scoped to the owner", func(t *testing.T) {
		docs, _ := factory(t)
		ctx := context.Background()

		a1 := NewDocument(t, "alice", "One", valueobjects.KindMindmap)
		a2 := NewDocument(t, "alice", "Two", valueobjects.KindStory)
		b1 := NewDocument(t, "bob", "Other", valueobjects.KindMindmap)
		for _, d := range []*entities.Document{a1, a2, b1} {
			require.NoError(t, docs.Put(ctx, d))
		}

		listed, err := docs.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a1.ID.String(), a2.ID.String()}, ids(listed))

		listed, err = docs.ListByOwner(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		docs, _ := factory(t)
		ctx := context.Background()

		doc := NewDocument(t, "alice", "Gone", valueobjects.KindMindmap)
		require.NoError(t, docs.Put(ctx, doc))

		require.NoError(t, docs.Delete(ctx, doc.ID))
		require.NoError(t, docs.Delete(ctx, doc.ID))

		_, err := docs.GetByID(ctx, doc.ID)
		assert.True(t, pkgerrors.IsNotFound(err))

		listed, err := docs.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("keyword entries are saved, updated and removed per owner", func(t *testing.T) {
		_, keywords := factory(t)
		ctx := context.Background()

		bakery := &entities.KeywordEntry{OwnerID: "alice", Keyword: "bakery", Frequency: 1, DocumentIDs: []string{"d1"}, Importance: 0.5, Category: "general"}
		bread := &entities.KeywordEntry{OwnerID: "alice", Keyword: "bread", Frequency: 2, DocumentIDs: []string{"d1", "d2"}, Importance: 0.6, Category: "general"}
		other := &entities.KeywordEntry{OwnerID: "bob", Keyword: "bakery", Frequency: 1, DocumentIDs: []string{"d9"}, Importance: 0.5, Category: "general"}

		require.NoError(t, keywords.SaveKeywords(ctx, "alice", []*entities.KeywordEntry{bakery, bread}, nil))
		require.NoError(t, keywords.SaveKeywords(ctx, "bob", []*entities.KeywordEntry{other}, nil))

		entries, err := keywords.ListKeywords(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		byKeyword := index(entries)
		assert.Equal(t, []string{"d1", "d2"}, byKeyword["bread"].DocumentIDs)
		assert.InDelta(t, 0.6, byKeyword["bread"].Importance, 1e-9)
		assert.Equal(t, "alice", byKeyword["bakery"].OwnerID)

		updated := *bakery
		updated.Frequency = 2
		updated.DocumentIDs = []string{"d1", "d3"}
		require.NoError(t, keywords.SaveKeywords(ctx, "alice", []*entities.KeywordEntry{&updated}, []string{"bread"}))

		entries, err = keywords.ListKeywords(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 2, entries[0].Frequency)
		assert.Equal(t, []string{"d1", "d3"}, entries[0].DocumentIDs)

		entries, err = keywords.ListKeywords(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, []string{"d9"}, entries[0].DocumentIDs)
	})

	t.Run("keywords of an unknown owner are empty", func(t *testing.T) {
		_, keywords := factory(t)

		entries, err := keywords.ListKeywords(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

// NewDocument builds a valid, initialized document
func NewDocument(t *testing.T, owner, title string, kind valueobjects.DocumentKind) *entities.Document {
	t.Helper()

	doc := &entities.Document{
		Kind:        kind,
		Title:       title,
		Description: "about " + title,
		Nodes: []entities.Node{
			{ID: "start", Label: "Begin", Type: valueobjects.NodeTypeStart, Position: valueobjects.Position{X: 0, Y: 10}},
			{ID: "end", Label: "Finish", Type: valueobjects.NodeTypeEnd, Position: valueobjects.Position{X: 200, Y: 10}},
		},
		Connections: []entities.Edge{{ID: "e1", Source: "start", Target: "end", Strength: 0.5}},
		Metadata:    entities.Metadata{Category: "work", Tags: []string{"plan", "q1"}},
	}
	if kind == valueobjects.KindStory {
		doc.Story = &entities.StoryData{
			Category: "business",
			Step1:    "Open a neighbourhood bakery",
			Step2:    "Rent is expensive downtown",
		}
	}

	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, doc.Initialize(valueobjects.NewDocumentID(), owner, created, config.DefaultDomainConfig()))
	return doc
}

func assertSameDocument(t *testing.T, want, got *entities.Document) {
	t.Helper()

	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
	assert.True(t, want.ID.Equals(got.ID))
}

func ids(docs []*entities.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID.String()
	}
	return out
}

func index(entries []*entities.KeywordEntry) map[string]*entities.KeywordEntry {
	out := make(map[string]*entities.KeywordEntry, len(entries))
	for _, e := range entries {
		out[e.Keyword] = e
	}
	return out
}
