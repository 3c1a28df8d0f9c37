// Package intent classifies free-text event queries by keyword membership.
package intent

import (
	"regexp"
	"strings"
)

type QuestionType string

const (
	QuestionWhat    QuestionType = "what"
	QuestionWhere   QuestionType = "where"
	QuestionWhen    QuestionType = "when"
	QuestionHow     QuestionType = "how"
	QuestionWhy     QuestionType = "why"
	QuestionWho     QuestionType = "who"
	QuestionGeneral QuestionType = "general"
)

// Intent is the classification of one query. It is fully determined by
// the query string.
type Intent struct {
	QuestionType       QuestionType `json:"questionType"`
	HasTimeIntent      bool         `json:"hasTimeIntent"`
	HasFoodIntent      bool         `json:"hasFoodIntent"`
	HasAcademicIntent  bool         `json:"hasAcademicIntent"`
	HasCareerIntent    bool         `json:"hasCareerIntent"`
	HasSocialIntent    bool         `json:"hasSocialIntent"`
	HasLocationIntent  bool         `json:"hasLocationIntent"`
	ExtractedLocations []string     `json:"extractedLocations"`
	ExtractedDates     []string     `json:"extractedDates"`
	ExtractedFoodTypes []string     `json:"extractedFoodTypes"`
	Keywords           []string     `json:"keywords"`
}

// nonWord matches ASCII punctuation and any non-ASCII rune.
var nonWord = regexp.MustCompile(`[^\w\s]`)

// Normalize lower-cases and trims a query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Analyze classifies query. Matching is substring containment, so a term
// inside a longer word still counts ("eat" matches "great").
func Analyze(query string) Intent {
	q := Normalize(query)

	return Intent{
		QuestionType:       questionType(q),
		HasTimeIntent:      containsAny(q, timeKeywords),
		HasFoodIntent:      containsAny(q, foodKeywords),
		HasAcademicIntent:  containsAny(q, academicKeywords),
		HasCareerIntent:    containsAny(q, careerKeywords),
		HasSocialIntent:    containsAny(q, socialKeywords),
		HasLocationIntent:  containsAny(q, locationKeywords),
		ExtractedLocations: collect(q, campusLocations),
		ExtractedDates:     collect(q, timeKeywords),
		ExtractedFoodTypes: collect(q, foodTypes),
		Keywords:           keywords(q),
	}
}

func questionType(q string) QuestionType {
	for _, p := range questionPrefixes {
		if strings.HasPrefix(q, string(p)) {
			return p
		}
	}
	return QuestionGeneral
}

func containsAny(q string, vocab []string) bool {
	for _, term := range vocab {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}

// collect returns the vocabulary terms found in q, in vocabulary order.
func collect(q string, vocab []string) []string {
	found := []string{}
	for _, term := range vocab {
		if strings.Contains(q, term) {
			found = append(found, term)
		}
	}
	return found
}

func keywords(q string) []string {
	out := []string{}
	for _, word := range strings.Fields(q) {
		clean := nonWord.ReplaceAllString(word, "")
		if len(clean) > 2 && !IsStopWord(clean) {
			out = append(out, clean)
		}
	}
	return out
}

// Filters lists the search filters implied by the intent, in the order
// food, academic, career, social, today.
func (i Intent) Filters() []string {
	filters := []string{}
	if i.HasFoodIntent {
		filters = append(filters, "food")
	}
	if i.HasAcademicIntent {
		filters = append(filters, "academic")
	}
	if i.HasCareerIntent {
		filters = append(filters, "career")
	}
	if i.HasSocialIntent {
		filters = append(filters, "social")
	}
	for _, d := range i.ExtractedDates {
		if d == "today" {
			filters = append(filters, "today")
			break
		}
	}
	return filters
}
