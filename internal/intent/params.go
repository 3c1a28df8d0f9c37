package intent

import (
	"net/url"
	"strings"
)

// Param is one key/value pair of a query string.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter set. Unlike url.Values it keeps the
// order in which keys were added.
type Params []Param

// Get returns the first value for key, or "".
func (p Params) Get(key string) string {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	for _, kv := range p {
		if kv.Key == key {
			return true
		}
	}
	return false
}

// Encode renders the set as a form-encoded query string in insertion order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Values converts to url.Values for use with net/url.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Add(kv.Key, kv.Value)
	}
	return v
}

// GenerateQueryParams renders the analysis of query as search parameters:
// q (raw query), then filters, locations and foodTypes when non-empty.
func GenerateQueryParams(query string) Params {
	in := Analyze(query)

	params := Params{{Key: "q", Value: query}}
	if filters := in.Filters(); len(filters) > 0 {
		params = append(params, Param{Key: "filters", Value: strings.Join(filters, ",")})
	}
	if len(in.ExtractedLocations) > 0 {
		params = append(params, Param{Key: "locations", Value: strings.Join(in.ExtractedLocations, ",")})
	}
	if len(in.ExtractedFoodTypes) > 0 {
		params = append(params, Param{Key: "foodTypes", Value: strings.Join(in.ExtractedFoodTypes, ",")})
	}
	return params
}
