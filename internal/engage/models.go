package engage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID accepts either a JSON string or a JSON number and keeps the text.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Organization is the decoded shape of one discovery search record.
// Fields the upstream adds beyond these are dropped.
type Organization struct {
	ID             ID       `json:"Id"`
	Name           string   `json:"Name"`
	WebsiteKey     string   `json:"WebsiteKey,omitempty"`
	ProfilePicture string   `json:"ProfilePicture,omitempty"`
	Summary        string   `json:"Summary,omitempty"`
	CategoryNames  []string `json:"CategoryNames,omitempty"`
}

type organizationPage struct {
	Value []Organization `json:"value"`
}

// Status is the terminal state of an aggregation.
type Status string

const (
	StatusComplete         Status = "complete"
	StatusPartial          Status = "partial-error"
	StatusAbortedFirstPage Status = "aborted-first-page"
)

// PageRequest describes one paginated walk.
type PageRequest struct {
	BaseURL  string
	Params   map[string]string
	PageSize int
	MaxPages int
}

// Result is the flattened output of a walk.
type Result struct {
	Records []Organization `json:"records"`
	Status  Status         `json:"status"`
	Fetches int            `json:"fetches"`
}
