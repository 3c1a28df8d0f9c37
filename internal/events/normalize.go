package events

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	defaultDescription = "No description available"
	defaultLocation    = "NJIT Campus"
	defaultOrganizer   = "NJIT"
	defaultRelevance   = 70

	dateLayout = "January 2, 2006"
	timeLayout = "3:04 PM"
)

var (
	academicCategoryTerms = []string{"academic", "education", "lecture", "study", "workshop"}
	careerCategoryTerms   = []string{"career", "job", "professional"}
	socialCategoryTerms   = []string{"social", "community", "cultural"}

	foodMentionTerms = []string{"food", "refreshment", "snack", "lunch", "dinner", "breakfast", "pizza", "drinks"}
	foodTypeTerms    = []string{"pizza", "sandwich", "lunch", "dinner", "breakfast", "refreshment", "snack", "coffee", "catering", "buffet"}
)

// Normalize converts an upstream record into a client event, rendering
// dates in loc.
func Normalize(u UpstreamEvent, loc *time.Location) Event {
	desc := strings.ToLower(u.Description)

	hasFood := containsAny(desc, foodMentionTerms) || anyContains(u.BenefitNames, "food")

	category := categorize(u.CategoryNames)
	if hasFood && category == CategoryOther {
		category = CategoryFood
	}

	ev := Event{
		ID:             u.ID.String(),
		Title:          u.Name,
		Description:    orDefault(u.Description, defaultDescription),
		Location:       orDefault(u.Location, defaultLocation),
		HasFood:        hasFood,
		FoodType:       foodType(desc, hasFood),
		OrganizerName:  orDefault(u.OrganizationName, defaultOrganizer),
		Category:       category,
		Tags:           tags(u, desc),
		ImageURL:       u.ImagePath,
		RelevanceScore: defaultRelevance,
	}

	if start, err := time.Parse(time.RFC3339, u.StartsOn); err == nil {
		ev.StartsAt = start.In(loc)
		ev.Date = ev.StartsAt.Format(dateLayout)
		ev.Time = ev.StartsAt.Format(timeLayout)
	}
	return ev
}

// NormalizeAll preserves upstream order.
func NormalizeAll(page *UpstreamPage, loc *time.Location) []Event {
	out := make([]Event, 0, len(page.Value))
	for _, u := range page.Value {
		out = append(out, Normalize(u, loc))
	}
	return out
}

func categorize(names []string) Category {
	switch {
	case anyContainsAny(names, academicCategoryTerms):
		return CategoryAcademic
	case anyContainsAny(names, careerCategoryTerms):
		return CategoryCareer
	case anyContainsAny(names, socialCategoryTerms):
		return CategorySocial
	default:
		return CategoryOther
	}
}

func foodType(desc string, hasFood bool) string {
	for _, term := range foodTypeTerms {
		if strings.Contains(desc, term) {
			return capitalize(term)
		}
	}
	if hasFood {
		return "Food & Refreshments"
	}
	return ""
}

// tags lists lower-cased categories then benefits without duplicates,
// plus "commuter" when the event targets commuters.
func tags(u UpstreamEvent, desc string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, c := range u.CategoryNames {
		add(strings.ToLower(c))
	}
	for _, b := range u.BenefitNames {
		add(strings.ToLower(b))
	}

	if strings.Contains(desc, "commuter") || anyContains(out, "commuter") {
		add("commuter")
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func anyContains(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func anyContainsAny(values, terms []string) bool {
	for _, v := range values {
		if containsAny(strings.ToLower(v), terms) {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
