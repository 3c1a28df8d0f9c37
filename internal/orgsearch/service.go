// Package orgsearch indexes aggregated organizations in Elasticsearch and
// serves full-text search over them.
package orgsearch

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"campus-engage/internal/common/errors"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/engage"
)

var ErrIndexNotFound = stderrors.New("INDEX_NOT_FOUND")

// Tagger assigns taxonomy tags to an organization by name.
type Tagger interface {
	TagsFor(orgName string) []string
}

type Service struct {
	config *Config
	client *elasticsearch.Client
	tagger Tagger
	logger logger.Logger
}

func NewService(cfg *Config, client *elasticsearch.Client, tagger Tagger, log logger.Logger) *Service {
	return &Service{
		config: cfg,
		client: client,
		tagger: tagger,
		logger: log.WithFields(map[string]interface{}{"component": "orgsearch", "index": cfg.Index}),
	}
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (s *Service) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.config.Index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewIndexingFailedError(s.config.Index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = s.client.Indices.Create(
		s.config.Index,
		s.client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return errors.NewIndexingFailedError(s.config.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewIndexingFailedError(s.config.Index, fmt.Errorf("create index: %s", res.String()))
	}
	s.logger.Info("index created", nil)
	return nil
}

// IndexOrganizations bulk-indexes orgs keyed by organization id and
// returns how many documents were accepted.
func (s *Service) IndexOrganizations(ctx context.Context, orgs []engage.Organization) (int, error) {
	if len(orgs) == 0 {
		return 0, nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, org := range orgs {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.config.Index, "_id": org.ID.String()},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, errors.NewIndexingFailedError(s.config.Index, err)
		}
		if err := enc.Encode(NewDocument(org, s.tagger.TagsFor(org.Name))); err != nil {
			return 0, errors.NewIndexingFailedError(s.config.Index, err)
		}
	}

	req := esapi.BulkRequest{
		Index:   s.config.Index,
		Body:    &body,
		Refresh: "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, errors.NewIndexingFailedError(s.config.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, errors.NewIndexingFailedError(s.config.Index, fmt.Errorf("bulk: %s", res.String()))
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return 0, errors.NewIndexingFailedError(s.config.Index, err)
	}

	indexed := 0
	for _, item := range br.Items {
		for _, op := range item {
			if op.Error != nil || op.Status >= 300 {
				reason := ""
				if op.Error != nil {
					reason = op.Error.Reason
				}
				s.logger.Warn("document rejected", map[string]interface{}{
					"id":     op.ID,
					"status": op.Status,
					"reason": reason,
				})
				continue
			}
			indexed++
		}
	}

	s.logger.Info("organizations indexed", map[string]interface{}{
		"submitted": len(orgs),
		"indexed":   indexed,
	})
	return indexed, nil
}

// Search runs q against the index. Size is clamped to [1, MaxSize] with
// DefaultSize for non-positive values.
func (s *Service) Search(ctx context.Context, q Query) (*Result, error) {
	size := q.Size
	if size <= 0 {
		size = s.config.DefaultSize
	}
	if size > s.config.MaxSize {
		size = s.config.MaxSize
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	payload, err := json.Marshal(buildSearchQuery(q))
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.config.Index},
		Body:  bytes.NewReader(payload),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewUpstreamTimeoutError("elasticsearch", err)
		}
		return nil, errors.NewSearchQueryFailedError(s.config.Index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewSearchQueryFailedError(s.config.Index, ErrIndexNotFound)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(s.config.Index, fmt.Errorf("search: %s", res.String()))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, errors.NewSearchQueryFailedError(s.config.Index, err)
	}

	out := &Result{
		Organizations: make([]Document, 0, len(sr.Hits.Hits)),
		Total:         sr.Hits.Total.Value,
		Took:          sr.Took,
	}
	for _, hit := range sr.Hits.Hits {
		out.Organizations = append(out.Organizations, hit.Source)
	}

	s.logger.Debug("organization search", map[string]interface{}{
		"query":    q.Text,
		"category": q.Category,
		"hits":     len(out.Organizations),
		"total":    out.Total,
	})
	return out, nil
}
