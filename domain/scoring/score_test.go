package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreStep_Empty(t *testing.T) {
	result := ScoreStep("   ", 0)

	assert.Equal(t, 1, result.Score)
	assert.Len(t, result.Suggestions, 1)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Breakdown
	}{
		{
			name: "short vague text",
			text: "maybe somehow",
			want: Breakdown{Length: 1, Quality: 2, Systematic: 1},
		},
		{
			name: "specific plan covering several aspects",
			text: "Our team will ship a specific product to the online market before the deadline because customers need a measurable result, using a clear process.",
			want: Breakdown{Length: 4, Quality: 5, Systematic: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyze(tt.text))
		})
	}
}

func TestScoreStep_WeightsAndSuggestions(t *testing.T) {
	weak := ScoreStep("maybe somehow", 3)
	assert.Equal(t, 1, weak.Score)
	assert.LessOrEqual(t, len(weak.Suggestions), 3)
	assert.Contains(t, weak.Suggestions, "Write in more detail.")

	strong := ScoreStep(strings.Repeat("Our team sets a specific, measurable goal for the online market by the deadline because it matters, with a clear process. ", 2), 3)
	assert.Equal(t, 5, strong.Score)
	assert.Empty(t, strong.Suggestions)
	assert.NotEmpty(t, strong.Feedback)

	assert.Equal(t, strong, ScoreStep(strings.Repeat("Our team sets a specific, measurable goal for the online market by the deadline because it matters, with a clear process. ", 2), 3))
}
