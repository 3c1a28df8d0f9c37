package orgsearch

// indexMapping is the mapping EnsureIndex creates.
const indexMapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "name":           {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "summary":        {"type": "text"},
      "websiteKey":     {"type": "keyword"},
      "profilePicture": {"type": "keyword", "index": false},
      "categoryNames":  {"type": "keyword"},
      "tags":           {"type": "keyword"}
    }
  }
}`

// buildSearchQuery renders q as a bool query: multi_match over name and
// summary (match_all without text), filtered to organizations whose
// upstream category or taxonomy tag equals q.Category.
func buildSearchQuery(q Query) map[string]interface{} {
	must := []interface{}{}
	if q.Text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"name^3", "summary"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": must}
	if q.Category != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"bool": map[string]interface{}{
					"should": []interface{}{
						map[string]interface{}{"term": map[string]interface{}{"categoryNames": q.Category}},
						map[string]interface{}{"term": map[string]interface{}{"tags": q.Category}},
					},
					"minimum_should_match": 1,
				},
			},
		}
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
	if q.Text == "" {
		query["sort"] = []map[string]interface{}{{"name.raw": "asc"}}
	}
	return query
}
