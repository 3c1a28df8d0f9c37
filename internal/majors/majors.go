// Package majors serves the degree catalog used during onboarding.
package majors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrUnavailable = errors.New("MAJORS_UNAVAILABLE")

// Source reads the catalog file on every call so edits show up without a restart.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

// Load returns the catalog as raw JSON after checking that it parses.
func (s *Source) Load() (json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrUnavailable, s.path)
	}
	return json.RawMessage(data), nil
}
