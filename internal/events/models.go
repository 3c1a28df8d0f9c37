package events

import (
	"time"

	"campus-engage/internal/engage"
)

// UpstreamEvent is the decoded shape of one discovery event record.
type UpstreamEvent struct {
	ID               engage.ID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location,omitempty"`
	StartsOn         string    `json:"startsOn,omitempty"`
	EndsOn           string    `json:"endsOn,omitempty"`
	OrganizationName string    `json:"organizationName,omitempty"`
	ImagePath        string    `json:"imagePath,omitempty"`
	CategoryNames    []string  `json:"categoryNames,omitempty"`
	BenefitNames     []string  `json:"benefitNames,omitempty"`
}

// UpstreamPage is the validated event search envelope.
type UpstreamPage struct {
	Value []UpstreamEvent `json:"value"`
}

type Category string

const (
	CategoryAcademic Category = "academic"
	CategorySocial   Category = "social"
	CategoryCareer   Category = "career"
	CategoryFood     Category = "food"
	CategoryOther    Category = "other"
)

// Event is the normalized event returned to clients.
type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	HasFood        bool      `json:"hasFood"`
	FoodType       string    `json:"foodType,omitempty"`
	OrganizerName  string    `json:"organizerName"`
	Category       Category  `json:"category"`
	Tags           []string  `json:"tags"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	RelevanceScore int       `json:"relevanceScore"`
	StartsAt       time.Time `json:"-"`
}

// SearchRequest carries the parsed query string of an event search.
// A nil Filters slice means the caller sent none.
type SearchRequest struct {
	Query   string
	Filters []string
	Persona string
}

type SearchResult struct {
	Events  []Event `json:"events"`
	Message *string `json:"message"`
}
