// Package buildings resolves campus building names to coordinates.
package buildings

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed buildings.yaml
var embeddedBuildings []byte

var ErrNameRequired = errors.New("BUILDING_NAME_REQUIRED")

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Building struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// Directory is an ordered building table.
type Directory struct {
	buildings []Building
	exact     map[string]Coordinates
}

func Load() (*Directory, error) {
	return Parse(embeddedBuildings)
}

func Parse(data []byte) (*Directory, error) {
	var doc struct {
		Buildings []Building `yaml:"buildings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse buildings: %w", err)
	}

	d := &Directory{
		buildings: doc.Buildings,
		exact:     make(map[string]Coordinates, len(doc.Buildings)),
	}
	for _, b := range doc.Buildings {
		d.exact[b.Name] = Coordinates{Lat: b.Lat, Lng: b.Lng}
	}
	return d, nil
}

// Lookup tries an exact, case-sensitive name first, then the first
// building whose lower-cased name contains the lower-cased query.
// A nil result with a nil error means no building matched.
func (d *Directory) Lookup(name string) (*Coordinates, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if c, ok := d.exact[name]; ok {
		return &c, nil
	}

	needle := strings.ToLower(name)
	for _, b := range d.buildings {
		if strings.Contains(strings.ToLower(b.Name), needle) {
			return &Coordinates{Lat: b.Lat, Lng: b.Lng}, nil
		}
	}
	return nil, nil
}
