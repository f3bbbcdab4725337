package analysis

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindgraph/domain/config"
	"mindgraph/domain/core/entities"
	"mindgraph/domain/core/valueobjects"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newAnalyzer() *Analyzer {
	return NewAnalyzer(config.DefaultDomainConfig(), zap.NewNop())
}

func doc(id string, opts ...func(*entities.Document)) *entities.Document {
	d := &entities.Document{
		ID:    valueobjects.MustDocumentID(id),
		Kind:  valueobjects.KindMindmap,
		Title: id,
		Metadata: entities.Metadata{
			CreatedBy: "a@x.com",
			CreatedAt: baseTime,
			UpdatedAt: baseTime,
			Version:   1,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func withTags(tags ...string) func(*entities.Document) {
	return func(d *entities.Document) { d.Metadata.Tags = tags }
}

func withCategory(category string) func(*entities.Document) {
	return func(d *entities.Document) { d.Metadata.Category = category }
}

func createdAt(t time.Time) func(*entities.Document) {
	return func(d *entities.Document) { d.Metadata.CreatedAt = t }
}

func withNodes(nodes ...entities.Node) func(*entities.Document) {
	return func(d *entities.Document) { d.Nodes = nodes }
}

func node(id string, typ valueobjects.NodeType, x float64, label string) entities.Node {
	return entities.Node{ID: id, Type: typ, Label: label, Position: valueobjects.Position{X: x}}
}

func TestKeywordConnections_SharedTagScenario(t *testing.T) {
	a := newAnalyzer()
	docs := []*entities.Document{
		doc("d1", withTags("biz")),
		doc("d2", withTags("biz", "growth")),
	}

	edges := a.KeywordConnections(docs)

	require.Len(t, edges, 1)
	edge := edges[0]
	assert.Equal(t, "keyword-d1-d2", edge.ID)
	assert.Equal(t, "d1", edge.Source)
	assert.Equal(t, "d2", edge.Target)
	assert.Equal(t, valueobjects.EdgeTypeKeyword, edge.Type)
	assert.Equal(t, "biz", edge.Label)
	assert.InDelta(t, 0.3, edge.Strength, 1e-9)
	require.NotNil(t, edge.Style)
	assert.Equal(t, "#8B5CF6", edge.Style.Color)
	assert.InDelta(t, 1.2, edge.Style.Width, 1e-9)
	assert.Equal(t, "5,5", edge.Style.DashArray)
	assert.False(t, edge.Style.Animated)
}

func TestKeywordConnections(t *testing.T) {
	tests := []struct {
		name         string
		docs         []*entities.Document
		wantEdges    int
		wantLabel    string
		wantStrength float64
	}{
		{
			name: "shared node keyword only",
			docs: []*entities.Document{
				doc("d1", withNodes(node("n1", valueobjects.NodeTypeProcess, 0, "Marketing plan"))),
				doc("d2", withNodes(node("n2", valueobjects.NodeTypeProcess, 0, "marketing budget"))),
			},
			wantEdges:    1,
			wantLabel:    "marketing",
			wantStrength: 0.2 + 0.1,
		},
		{
			name: "short tokens are ignored",
			docs: []*entities.Document{
				doc("d1", withNodes(node("n1", valueobjects.NodeTypeProcess, 0, "go to it"))),
				doc("d2", withNodes(node("n2", valueobjects.NodeTypeProcess, 0, "go to it"))),
			},
			wantEdges: 0,
		},
		{
			name: "strength is capped at one",
			docs: []*entities.Document{
				doc("d1", withTags("a", "b", "c", "d")),
				doc("d2", withTags("a", "b", "c", "d")),
			},
			wantEdges:    1,
			wantLabel:    "a",
			wantStrength: 1,
		},
		{
			name: "documents without tags or nodes never connect",
			docs: []*entities.Document{
				doc("d1"),
				doc("d2"),
			},
			wantEdges: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := newAnalyzer().KeywordConnections(tt.docs)
			require.Len(t, edges, tt.wantEdges)
			if tt.wantEdges == 0 {
				return
			}
			assert.Equal(t, tt.wantLabel, edges[0].Label)
			assert.InDelta(t, tt.wantStrength, edges[0].Strength, 1e-9)
		})
	}
}

func TestKeywordConnections_OneEdgePerPair(t *testing.T) {
	docs := []*entities.Document{
		doc("d1", withTags("x")),
		doc("d2", withTags("x")),
		doc("d3", withTags("x")),
		doc("d4", withTags("y")),
	}

	edges := newAnalyzer().KeywordConnections(docs)

	require.Len(t, edges, 3)
	seen := map[string]bool{}
	for _, e := range edges {
		pair := e.Source + "|" + e.Target
		reverse := e.Target + "|" + e.Source
		assert.False(t, seen[pair] || seen[reverse], "duplicate edge for %s", pair)
		seen[pair] = true
		assert.GreaterOrEqual(t, e.Strength, 0.0)
		assert.LessOrEqual(t, e.Strength, 1.0)
	}
}

func TestExtractKeywords(t *testing.T) {
	nodes := []entities.Node{
		{Label: "Grow Revenue", Description: "grow the revenue fast"},
		{Label: "an ox"},
	}

	assert.Equal(t, []string{"grow", "revenue", "the", "fast"}, newAnalyzer().ExtractKeywords(nodes))
}

func TestTemporalConnections_ChainOnly(t *testing.T) {
	docs := []*entities.Document{
		doc("d3", createdAt(baseTime.Add(50*time.Hour))),
		doc("d1", createdAt(baseTime)),
		doc("d2", createdAt(baseTime.Add(time.Hour))),
	}

	edges := newAnalyzer().TemporalConnections(docs)

	require.Len(t, edges, 1)
	edge := edges[0]
	assert.Equal(t, "step-d1-d2", edge.ID)
	assert.Equal(t, "d1", edge.Source)
	assert.Equal(t, "d2", edge.Target)
	assert.Equal(t, "1h", edge.Label)
	assert.InDelta(t, 1-1.0/24, edge.Strength, 1e-9)
	assert.Equal(t, valueobjects.EdgeTypeTemporal, edge.Type)
	assert.True(t, edge.Style.Animated)
}

func TestTemporalConnections_StrengthFloor(t *testing.T) {
	docs := []*entities.Document{
		doc("d1", createdAt(baseTime)),
		doc("d2", createdAt(baseTime.Add(23*time.Hour+40*time.Minute))),
	}

	edges := newAnalyzer().TemporalConnections(docs)

	require.Len(t, edges, 1)
	assert.Equal(t, 0.3, edges[0].Strength)
	assert.Equal(t, "24h", edges[0].Label)
}

func TestCategoryConnections(t *testing.T) {
	docs := []*entities.Document{
		doc("d1", withCategory("work")),
		doc("d2", withCategory("life")),
		doc("d3", withCategory("work")),
		doc("d4", withCategory("work")),
		doc("d5"),
	}

	edges := newAnalyzer().CategoryConnections(docs)

	require.Len(t, edges, 3)
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
		assert.Equal(t, "work", e.Label)
		assert.Equal(t, 0.6, e.Strength)
		assert.Equal(t, "10,5", e.Style.DashArray)
	}
	assert.Equal(t, []string{"category-d1-d3", "category-d1-d4", "category-d3-d4"}, ids)
}

func TestProcessFlow(t *testing.T) {
	t.Run("start decision end", func(t *testing.T) {
		d := doc("d1", withNodes(
			node("end", valueobjects.NodeTypeEnd, 200, "Done"),
			node("start", valueobjects.NodeTypeStart, 0, "Begin"),
			node("check", valueobjects.NodeTypeDecision, 100, "Check"),
		))

		edges := newAnalyzer().ProcessFlow(d)

		require.Len(t, edges, 2)
		assert.Equal(t, "start", edges[0].Source)
		assert.Equal(t, "check", edges[0].Target)
		assert.Equal(t, "check", edges[1].Source)
		assert.Equal(t, "end", edges[1].Target)
		for _, e := range edges {
			assert.Equal(t, 0.8, e.Strength)
			assert.Equal(t, valueobjects.EdgeTypeDirect, e.Type)
		}
		assert.Equal(t, "flow-start-check", edges[0].ID)
	})

	t.Run("ignores notification and wait nodes and extra starts", func(t *testing.T) {
		d := doc("d1", withNodes(
			node("s1", valueobjects.NodeTypeStart, 0, ""),
			node("s2", valueobjects.NodeTypeStart, 10, ""),
			node("w", valueobjects.NodeTypeWait, 20, ""),
			node("a", valueobjects.NodeTypeAction, 30, ""),
			node("e", valueobjects.NodeTypeEnd, 40, ""),
		))

		edges := newAnalyzer().ProcessFlow(d)

		require.Len(t, edges, 2)
		assert.Equal(t, "s1", edges[0].Source)
		assert.Equal(t, "a", edges[0].Target)
		assert.Equal(t, "e", edges[1].Target)
	})

	t.Run("no end node", func(t *testing.T) {
		d := doc("d1", withNodes(node("s", valueobjects.NodeTypeStart, 0, "")))
		assert.Empty(t, newAnalyzer().ProcessFlow(d))
	})

	t.Run("nil document", func(t *testing.T) {
		assert.Nil(t, newAnalyzer().ProcessFlow(nil))
	})
}

func TestFilterConnections_Bound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	edges := make([]entities.Edge, 100)
	for i := range edges {
		edges[i] = entities.Edge{ID: fmt.Sprintf("e%d", i), Strength: rng.Float64()}
	}

	filtered := FilterConnections(edges, 0.3, 50)

	assert.LessOrEqual(t, len(filtered), 50)
	for i, e := range filtered {
		assert.GreaterOrEqual(t, e.Strength, 0.3)
		if i > 0 {
			assert.GreaterOrEqual(t, filtered[i-1].Strength, e.Strength)
		}
	}
	assert.Len(t, edges, 100, "input is untouched")
}

func TestFilterConnections_KeepsEqualToMinimum(t *testing.T) {
	edges := []entities.Edge{{ID: "a", Strength: 0.3}, {ID: "b", Strength: 0.29}}
	filtered := FilterConnections(edges, 0.3, 0)
	require.Len(t, filtered, 1)
	assert.Equal(t, "a", filtered[0].ID)
}

func TestConnectedDocuments(t *testing.T) {
	target := doc("t", withTags("biz"), withNodes(node("n", valueobjects.NodeTypeProcess, 0, "Marketing")))
	docs := []*entities.Document{
		target,
		doc("tag", withTags("biz")),
		doc("label", withNodes(node("n", valueobjects.NodeTypeProcess, 0, "digital marketing plan"))),
		doc("contained", withNodes(node("n", valueobjects.NodeTypeProcess, 0, "market"))),
		doc("unrelated", withTags("other"), withNodes(node("n", valueobjects.NodeTypeProcess, 0, "cooking"))),
		doc("blank", withNodes(node("n", valueobjects.NodeTypeProcess, 0, ""))),
	}

	related := newAnalyzer().ConnectedDocuments(target, docs)

	ids := make([]string, len(related))
	for i, d := range related {
		ids[i] = d.ID.String()
	}
	assert.Equal(t, []string{"tag", "label", "contained"}, ids)
	assert.Nil(t, newAnalyzer().ConnectedDocuments(nil, docs))
}

func TestStoryNetwork(t *testing.T) {
	story := func(id string, keywords ...string) *entities.Document {
		return doc(id, func(d *entities.Document) {
			d.Kind = valueobjects.KindStory
			d.Keywords = keywords
		})
	}
	docs := []*entities.Document{
		story("s1", "growth", "startup", "funding", "team"),
		story("s2", "growth", "team"),
		story("s3", "cooking"),
		doc("m1", withTags("growth")),
	}

	network := newAnalyzer().StoryNetwork(docs)

	require.Len(t, network, 1)
	assert.Equal(t, "s1", network[0].From)
	assert.Equal(t, "s2", network[0].To)
	assert.Equal(t, []string{"growth", "team"}, network[0].SharedKeywords)
	assert.InDelta(t, 0.5, network[0].Strength, 1e-9)
}

func TestAnalyzeAll_SkipsMissingDocuments(t *testing.T) {
	docs := []*entities.Document{
		doc("d1", withTags("biz"), withCategory("work"), withNodes(
			node("s", valueobjects.NodeTypeStart, 0, "Start"),
			node("e", valueobjects.NodeTypeEnd, 10, "End"),
		)),
		nil,
		doc("d2", withTags("biz"), withCategory("work"), createdAt(baseTime.Add(2*time.Hour))),
	}

	a := newAnalyzer()
	result := a.AnalyzeAll(docs)

	assert.Len(t, result.Keyword, 1)
	assert.Len(t, result.Temporal, 1)
	assert.Len(t, result.Category, 1)
	assert.Len(t, result.Flows["d1"], 1)
	assert.Equal(t, 4, result.Total())

	minStrength, maxCount := a.Defaults()
	filtered := a.Filtered(result, minStrength, maxCount)
	assert.Len(t, filtered.Category, 1)
}
