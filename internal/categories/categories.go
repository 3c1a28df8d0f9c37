// Package categories serves the organization taxonomy.
package categories

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var embeddedTaxonomy []byte

// OtherCategory collects organizations that fit nowhere else.
const OtherCategory = "Other / Needs Review"

type Category struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// OrganizationTags maps one organization to its categories.
type OrganizationTags struct {
	Name string   `yaml:"name" json:"name"`
	Tags []string `yaml:"tags" json:"tags"`
}

type Taxonomy struct {
	Categories    []Category         `yaml:"categories"`
	Organizations []OrganizationTags `yaml:"organizations"`

	byOrg map[string][]string
}

// Response is the JSON body of the categories route.
type Response struct {
	Categories             []string           `json:"categories"`
	OrganizationCategories []OrganizationTags `json:"organizationCategories"`
	CategoryDescriptions   map[string]string  `json:"categoryDescriptions"`
}

// Load parses the embedded taxonomy.
func Load() (*Taxonomy, error) {
	return Parse(embeddedTaxonomy)
}

// Parse decodes and checks a taxonomy document. Every organization tag
// must name a declared category.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}

	known := make(map[string]struct{}, len(t.Categories))
	for _, c := range t.Categories {
		known[c.Name] = struct{}{}
	}

	t.byOrg = make(map[string][]string, len(t.Organizations))
	for _, o := range t.Organizations {
		for _, tag := range o.Tags {
			if _, ok := known[tag]; !ok {
				return nil, fmt.Errorf("organization %q has unknown category %q", o.Name, tag)
			}
		}
		t.byOrg[strings.ToLower(o.Name)] = o.Tags
	}
	return &t, nil
}

// Names lists the categories in display order.
func (t *Taxonomy) Names() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

func (t *Taxonomy) Descriptions() map[string]string {
	out := make(map[string]string, len(t.Categories))
	for _, c := range t.Categories {
		out[c.Name] = c.Description
	}
	return out
}

// TagsFor returns the categories of an organization, matched
// case-insensitively by name, or OtherCategory when it is not listed.
func (t *Taxonomy) TagsFor(orgName string) []string {
	if tags, ok := t.byOrg[strings.ToLower(strings.TrimSpace(orgName))]; ok {
		return tags
	}
	return []string{OtherCategory}
}

func (t *Taxonomy) Response() Response {
	return Response{
		Categories:             t.Names(),
		OrganizationCategories: t.Organizations,
		CategoryDescriptions:   t.Descriptions(),
	}
}
