// Package suggest filters and ranks search box suggestions.
package suggest

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed suggestions.yaml
var embeddedSuggestions []byte

const (
	PersonaCommuter = "commuter"
	MaxResults      = 5
)

var commuterKeywords = []string{"commuter", "parking", "between classes", "during day", "common hour"}

type Suggestion struct {
	Text string `yaml:"text" json:"text"`
	Type string `yaml:"type" json:"type"`
}

type Service struct {
	suggestions []Suggestion
}

func NewService() (*Service, error) {
	var doc struct {
		Suggestions []Suggestion `yaml:"suggestions"`
	}
	if err := yaml.Unmarshal(embeddedSuggestions, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	return &Service{suggestions: doc.Suggestions}, nil
}

// Suggest returns at most MaxResults suggestions whose text contains q
// (case-insensitive). For the commuter persona, commuter-relevant
// entries move ahead of the rest with relative order kept.
func (s *Service) Suggest(q, persona string) []Suggestion {
	if persona == "" {
		persona = PersonaCommuter
	}
	needle := strings.ToLower(q)

	matched := []Suggestion{}
	for _, sg := range s.suggestions {
		if strings.Contains(strings.ToLower(sg.Text), needle) {
			matched = append(matched, sg)
		}
	}

	if persona == PersonaCommuter {
		sort.SliceStable(matched, func(i, j int) bool {
			return isCommuterRelevant(matched[i].Text) && !isCommuterRelevant(matched[j].Text)
		})
	}

	if len(matched) > MaxResults {
		matched = matched[:MaxResults]
	}
	return matched
}

func isCommuterRelevant(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range commuterKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
