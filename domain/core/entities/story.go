package entities

import (
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// StoryStepCount is the number of guided steps in a story
const StoryStepCount = 7

// StoryData is the content of a guided seven-step story
type StoryData struct {
	Category string `json:"category"`
	Step1    string `json:"step1"` // desire
	Step2    string `json:"step2"` // problem
	Step3    string `json:"step3"` // guide
	Step4    string `json:"step4"` // plan
	Step5    string `json:"step5"` // call to action
	Step6    string `json:"step6"` // avoiding failure
	Step7    string `json:"step7"` // success
}

// Steps returns the step texts in order
func (s StoryData) Steps() [StoryStepCount]string {
	return [StoryStepCount]string{s.Step1, s.Step2, s.Step3, s.Step4, s.Step5, s.Step6, s.Step7}
}

// Text joins the category and all steps
func (s StoryData) Text() string {
	steps := s.Steps()
	parts := make([]string, 0, StoryStepCount+1)
	parts = append(parts, s.Category)
	parts = append(parts, steps[:]...)
	return strings.Join(parts, " ")
}

var storyWordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

var commonStoryWords = mapset.NewThreadUnsafeSet(
	"것이", "때문", "그것", "이것", "저것", "무엇", "어떤", "그런", "이런", "저런",
)

// ExtractStoryKeywords returns the distinct words of two or more characters in
// a story, minus filler words, in order of first appearance and capped at limit.
func ExtractStoryKeywords(story StoryData, limit int) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	keywords := make([]string, 0, limit)

	for _, word := range storyWordPattern.FindAllString(story.Text(), -1) {
		if len(keywords) >= limit {
			break
		}
		if commonStoryWords.Contains(word) || !seen.Add(word) {
			continue
		}
		keywords = append(keywords, word)
	}

	return keywords
}
