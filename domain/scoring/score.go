// Package scoring rates the text of a story step on a 1 to 5 scale.
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Result is the score of one story step with feedback for the author
type Result struct {
	Score       int      `json:"score"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
}

// Breakdown exposes the partial scores that make up a Result
type Breakdown struct {
	Length     int `json:"length"`
	Quality    int `json:"quality"`
	Systematic int `json:"systematic"`
}

const (
	lengthWeight     = 0.3
	qualityWeight    = 0.4
	systematicWeight = 0.3
	maxSuggestions   = 3
)

// Five-W-and-one-H patterns, Korean and English
var aspects = [][]string{
	{"누가", "사람", "고객", "나", "우리", "팀", "회사", "개인", "파트너", "who", "customer", "team", "partner"},
	{"무엇", "제품", "서비스", "목표", "결과", "성과", "가치", "혜택", "what", "product", "service", "goal"},
	{"어디", "장소", "시장", "온라인", "오프라인", "현장", "지역", "국가", "where", "market", "online", "offline"},
	{"언제", "시간", "기간", "일정", "마감", "단계", "순서", "타이밍", "when", "deadline", "schedule", "timeline"},
	{"왜", "이유", "목적", "동기", "필요", "원인", "배경", "가치", "why", "because", "purpose", "reason"},
	{"어떻게", "방법", "과정", "절차", "단계", "방식", "수단", "도구", "how", "method", "process", "tool"},
}

var qualityKeywords = []string{
	"구체적", "명확한", "체계적", "전략적", "계획적", "실행 가능한", "측정 가능한",
	"목표", "성과", "결과", "효과", "가치", "혜택", "해결", "개선", "발전", "성장",
	"specific", "measurable", "concrete", "strategy", "improve", "growth", "result",
}

var vagueKeywords = []string{
	"좀", "뭔가", "그냥", "아무튼", "대충", "적당히", "그럭저럭", "어쩌면", "아마도",
	"maybe", "somehow", "kind of", "sort of", "whatever",
}

var feedbackByScore = map[int][]string{
	5: {"An excellent, well structured plan.", "Very specific and systematic.", "Outstanding analysis and planning."},
	4: {"A very good plan.", "Clearly organised and practical.", "Specific and actionable."},
	3: {"A solid plan.", "The essentials are in place.", "A balanced approach, keep developing it."},
	2: {"A good start, try to be more specific.", "The outline is there, add more detail.", "The direction is right, fill in the content."},
	1: {"Every plan starts somewhere, write more.", "A promising idea, develop it further.", "There is potential here, plan it in more detail."},
}

var stepSuggestions = map[int]string{
	0: "Describe concretely what you truly want.",
	1: "Define the problem you face and give a concrete example.",
	2: "Look for a specific guide or mentor who can help.",
	3: "Lay out an actionable step-by-step plan.",
	4: "Find the concrete motivation that gets you moving.",
	5: "List specific ways to prevent failure.",
	6: "Picture vividly what success looks like.",
}

// ScoreStep rates the text of the story step at stepIndex (0-based)
func ScoreStep(content string, stepIndex int) Result {
	if strings.TrimSpace(content) == "" {
		return Result{
			Score:       1,
			Feedback:    "Nothing has been entered yet.",
			Suggestions: []string{"Enter the content for this step."},
		}
	}

	b := Analyze(content)
	final := int(math.Round(float64(b.Length)*lengthWeight + float64(b.Quality)*qualityWeight + float64(b.Systematic)*systematicWeight))

	return Result{
		Score:       final,
		Feedback:    feedback(final, b),
		Suggestions: suggestions(final, b, stepIndex),
	}
}

// Analyze computes the partial scores of a text
func Analyze(content string) Breakdown {
	return Breakdown{
		Length:     lengthScore(content),
		Quality:    qualityScore(content),
		Systematic: systematicScore(content),
	}
}

func lengthScore(text string) int {
	length := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case length < 20:
		return 1
	case length < 50:
		return 2
	case length < 100:
		return 3
	case length < 200:
		return 4
	default:
		return 5
	}
}

func qualityScore(text string) int {
	score := 3.0
	score += math.Min(float64(countPatterns(text, qualityKeywords))*0.5, 2)
	score -= math.Min(float64(countPatterns(text, vagueKeywords))*0.5, 2)
	return clamp(int(math.Round(score)), 1, 5)
}

func systematicScore(text string) int {
	covered := 0
	for _, patterns := range aspects {
		if countPatterns(text, patterns) > 0 {
			covered++
		}
	}
	return clamp(covered, 1, 5)
}

func countPatterns(text string, patterns []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			count++
		}
	}
	return count
}

// feedback picks a message deterministically so identical input yields identical output
func feedback(score int, b Breakdown) string {
	messages := feedbackByScore[clamp(score, 1, 5)]
	return messages[(b.Length+b.Quality+b.Systematic)%len(messages)]
}

func suggestions(score int, b Breakdown, stepIndex int) []string {
	var out []string
	if b.Length < 3 {
		out = append(out, "Write in more detail.")
	}
	if b.Quality < 3 {
		out = append(out, "Use specific, measurable wording.", "Replace vague expressions with clear language.")
	}
	if b.Systematic < 3 {
		out = append(out, "Cover who, what, when, where, why and how.")
	}
	if s, ok := stepSuggestions[stepIndex]; ok && score < 4 {
		out = append(out, s)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
