package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"campus-engage/internal/common/errors"
	httpclient "campus-engage/internal/common/http"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/common/metrics"
	"campus-engage/internal/common/validation"
)

const upstreamTarget = "events"

// Client queries the upstream event search for approved events that have
// not ended yet.
type Client struct {
	config    *Config
	doer      httpclient.Doer
	validator *validation.Validator
	logger    logger.Logger
	now       func() time.Time
}

func NewClient(cfg *Config, doer httpclient.Doer, validator *validation.Validator, log logger.Logger) *Client {
	return &Client{
		config:    cfg,
		doer:      doer,
		validator: validator,
		logger:    log.WithFields(map[string]interface{}{"component": "events-client"}),
		now:       time.Now,
	}
}

// SearchURL builds the upstream query for an optional free-text query.
func (c *Client) SearchURL(query string) string {
	q := url.Values{}
	q.Set("endsAfter", c.now().UTC().Format(time.RFC3339))
	q.Set("orderByField", "endsOn")
	q.Set("orderByDirection", "ascending")
	q.Set("status", "Approved")
	q.Set("take", strconv.Itoa(c.config.Take))
	if query != "" {
		q.Set("query", query)
	}
	return c.config.SearchURL + "?" + q.Encode()
}

// Search fetches one page of events. Non-2xx responses come back as
// UPSTREAM_UNAVAILABLE carrying the upstream status; bodies that fail
// the envelope schema as UPSTREAM_MALFORMED.
func (c *Client) Search(ctx context.Context, query string) (*UpstreamPage, error) {
	target := c.SearchURL(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTransport)
		return nil, errors.NewUpstreamUnavailableError(upstreamTarget, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeStatus)
		c.logger.Warn("event search returned error status", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return nil, errors.NewUpstreamUnavailableError(upstreamTarget, resp.StatusCode, "")
	}

	body, err := httpclient.ReadLimited(resp.Body, c.config.MaxBodyBytes)
	if stderrors.Is(err, httpclient.ErrBodyTooLarge) {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTooLarge)
		return nil, errors.NewUpstreamBodyTooLargeError(upstreamTarget, c.config.MaxBodyBytes)
	}
	if err != nil {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTransport)
		return nil, errors.NewUpstreamUnavailableError(upstreamTarget, 0, err.Error())
	}

	vr, err := c.validator.Validate(validation.SchemaEvents, body)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !vr.Valid {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeMalformed)
		return nil, errors.NewUpstreamMalformedError(upstreamTarget, vr.Summary())
	}

	var page UpstreamPage
	if err := json.Unmarshal(body, &page); err != nil {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeMalformed)
		return nil, errors.NewUpstreamMalformedError(upstreamTarget, err.Error())
	}

	metrics.RecordUpstream(upstreamTarget, metrics.OutcomeOK)
	c.logger.Debug("event search fetched", map[string]interface{}{
		"query": query,
		"count": len(page.Value),
	})
	return &page, nil
}
