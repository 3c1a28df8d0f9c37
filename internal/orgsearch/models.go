package orgsearch

import "campus-engage/internal/engage"

// Document is the indexed form of an organization.
type Document struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Summary        string   `json:"summary,omitempty"`
	WebsiteKey     string   `json:"websiteKey,omitempty"`
	ProfilePicture string   `json:"profilePicture,omitempty"`
	CategoryNames  []string `json:"categoryNames,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Query is one organization search. An empty Text matches everything.
type Query struct {
	Text     string
	Category string
	Size     int
}

type Result struct {
	Organizations []Document `json:"organizations"`
	Total         int64      `json:"total"`
	Took          int64      `json:"took"`
}

// NewDocument builds the index document for an aggregated organization.
func NewDocument(org engage.Organization, tags []string) Document {
	return Document{
		ID:             org.ID.String(),
		Name:           org.Name,
		Summary:        org.Summary,
		WebsiteKey:     org.WebsiteKey,
		ProfilePicture: org.ProfilePicture,
		CategoryNames:  org.CategoryNames,
		Tags:           tags,
	}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}
