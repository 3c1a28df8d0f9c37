package events

import (
	"context"
	"sort"
	"strings"
	"time"

	"campus-engage/internal/common/logger"
)

const (
	PersonaCommuter = "commuter"

	MessageNoEvents       = "No events found. Please try a different search or check back later."
	MessageNoFilteredHits = "No events match your filters. Try adjusting your search criteria."

	residenceQuery = "residence"
	maxRelevance   = 100
)

// Searcher is the upstream event source used by Service.
type Searcher interface {
	Search(ctx context.Context, query string) (*UpstreamPage, error)
}

// Service turns upstream event pages into filtered, persona-scored results.
type Service struct {
	searcher Searcher
	location *time.Location
	logger   logger.Logger
	now      func() time.Time
}

func NewService(cfg *Config, searcher Searcher, log logger.Logger) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		searcher: searcher,
		location: loc,
		logger:   log.WithFields(map[string]interface{}{"component": "event-search"}),
		now:      time.Now,
	}
}

// Search fetches events matching req.Query, filters and scores them.
// Upstream failures are returned as-is.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	query := strings.ToLower(strings.TrimSpace(req.Query))

	page, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	evs := NormalizeAll(page, s.location)
	if len(evs) == 0 {
		return emptyResult(MessageNoEvents), nil
	}

	filters := req.Filters
	if len(filters) > 0 {
		evs = s.filter(evs, filters)
		if len(evs) == 0 {
			return emptyResult(MessageNoFilteredHits), nil
		}
	}

	persona := req.Persona
	if persona == "" {
		persona = PersonaCommuter
	}
	if persona == PersonaCommuter {
		for i := range evs {
			evs[i].RelevanceScore = commuterScore(evs[i])
		}
	}
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].RelevanceScore > evs[j].RelevanceScore
	})

	s.logger.Debug("event search completed", map[string]interface{}{
		"query":   query,
		"filters": filters,
		"persona": persona,
		"count":   len(evs),
	})
	return &SearchResult{Events: evs}, nil
}

// ResidenceLife returns upcoming residence-life events tagged for housing
// and ranked above the default score.
func (s *Service) ResidenceLife(ctx context.Context) (*SearchResult, error) {
	page, err := s.searcher.Search(ctx, residenceQuery)
	if err != nil {
		return nil, err
	}

	out := []Event{}
	for _, ev := range NormalizeAll(page, s.location) {
		if !IsResidenceLife(ev) {
			continue
		}
		ev.Tags = appendUnique(ev.Tags, "residence", "housing")
		ev.RelevanceScore = min(ev.RelevanceScore+20, maxRelevance)
		out = append(out, ev)
	}
	if len(out) == 0 {
		return emptyResult(MessageNoEvents), nil
	}
	return &SearchResult{Events: out}, nil
}

// ParseFilters splits a comma-separated filters value. An empty or
// absent value yields nil, which disables filtering.
func ParseFilters(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (s *Service) filter(evs []Event, filters []string) []Event {
	wanted := make(map[string]bool, len(filters))
	for _, f := range filters {
		wanted[f] = true
	}
	today := s.now().In(s.location).Format(dateLayout)

	out := evs[:0]
	for _, ev := range evs {
		switch {
		case wanted[string(ev.Category)]:
		case wanted["food"] && ev.HasFood:
		case wanted["today"] && !ev.StartsAt.IsZero() && ev.Date == today:
		default:
			continue
		}
		out = append(out, ev)
	}
	return out
}

func commuterScore(ev Event) int {
	score := ev.RelevanceScore
	if ev.HasFood {
		score += 10
	}
	if !ev.StartsAt.IsZero() {
		if h := ev.StartsAt.Hour(); h >= 9 && h <= 16 {
			score += 8
		}
	}
	for _, t := range ev.Tags {
		if t == PersonaCommuter {
			score += 15
			break
		}
	}
	return min(score, maxRelevance)
}

func appendUnique(tags []string, extra ...string) []string {
	for _, e := range extra {
		found := false
		for _, t := range tags {
			if t == e {
				found = true
				break
			}
		}
		if !found {
			tags = append(tags, e)
		}
	}
	return tags
}

func emptyResult(msg string) *SearchResult {
	return &SearchResult{Events: []Event{}, Message: &msg}
}
