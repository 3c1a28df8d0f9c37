// Package engage walks the campus-engagement discovery API.
package engage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"campus-engage/internal/common/errors"
	httpclient "campus-engage/internal/common/http"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/common/metrics"
	"campus-engage/internal/common/observability"
	"campus-engage/internal/common/validation"
)

const upstreamTarget = "organizations"

// Aggregator issues sequential page fetches and concatenates the results.
type Aggregator struct {
	config    *Config
	client    httpclient.Doer
	validator *validation.Validator
	obs       *observability.Observability
	logger    logger.Logger
}

func NewAggregator(cfg *Config, client httpclient.Doer, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Aggregator {
	return &Aggregator{
		config:    cfg,
		client:    client,
		validator: validator,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "engage-aggregator"}),
	}
}

// FetchOrganizations walks the configured organizations endpoint.
func (a *Aggregator) FetchOrganizations(ctx context.Context) (*Result, error) {
	return a.FetchAllPages(ctx, PageRequest{
		BaseURL:  a.config.OrganizationsURL,
		PageSize: a.config.PageSize,
		MaxPages: a.config.MaxPages,
	})
}

// FetchAllPages requests pages 0..MaxPages-1 in order. An empty page ends
// the walk, a short page is kept and ends it. A failure on the first page
// is returned as an error with no records; a failure on a later page ends
// the walk with what was collected and StatusPartial.
func (a *Aggregator) FetchAllPages(ctx context.Context, req PageRequest) (*Result, error) {
	if req.PageSize <= 0 || req.MaxPages <= 0 {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("page size and max pages must be positive (got %d, %d)", req.PageSize, req.MaxPages))
	}

	start := time.Now()
	result := &Result{Records: []Organization{}, Status: StatusComplete}
	defer func() {
		metrics.AggregatorPagesFetched.Observe(float64(result.Fetches))
		a.obs.RecordAggregation(ctx, string(result.Status), time.Since(start))
	}()

	for page := 0; page < req.MaxPages; page++ {
		skip := page * req.PageSize
		result.Fetches++

		records, err := a.fetchPage(ctx, pageURL(req, skip))
		if err != nil {
			if page == 0 {
				a.logger.Error("first page failed, aborting", map[string]interface{}{
					"error": err.Error(),
				})
				result.Status = StatusAbortedFirstPage
				return result, err
			}
			a.logger.Warn("page failed, returning partial results", map[string]interface{}{
				"page":      page + 1,
				"skip":      skip,
				"collected": len(result.Records),
				"error":     err.Error(),
			})
			result.Status = StatusPartial
			break
		}

		a.logger.Debug("page fetched", map[string]interface{}{
			"page":  page + 1,
			"skip":  skip,
			"count": len(records),
		})

		if len(records) == 0 {
			break
		}
		result.Records = append(result.Records, records...)
		if len(records) < req.PageSize {
			break
		}
	}

	for i := range result.Records {
		result.Records[i].ProfilePicture = RewriteImageRef(result.Records[i].ProfilePicture)
	}

	a.logger.Info("aggregation finished", map[string]interface{}{
		"status":  string(result.Status),
		"fetches": result.Fetches,
		"records": len(result.Records),
	})
	return result, nil
}

func pageURL(req PageRequest, skip int) string {
	q := url.Values{}
	for k, v := range req.Params {
		q.Set(k, v)
	}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("take", strconv.Itoa(req.PageSize))
	return req.BaseURL + "?" + q.Encode()
}

// fetchPage performs one request and decodes a validated page.
func (a *Aggregator) fetchPage(ctx context.Context, target string) ([]Organization, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTransport)
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewUpstreamTimeoutError(upstreamTarget, err)
		}
		return nil, errors.NewUpstreamUnavailableError(upstreamTarget, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeStatus)
		return nil, errors.NewUpstreamUnavailableError(upstreamTarget, resp.StatusCode, "")
	}

	body, err := httpclient.ReadLimited(resp.Body, a.maxBodyBytes())
	if stderrors.Is(err, httpclient.ErrBodyTooLarge) {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTooLarge)
		return nil, errors.NewUpstreamBodyTooLargeError(upstreamTarget, a.maxBodyBytes())
	}
	if err != nil {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTransport)
		return nil, errors.NewUpstreamUnavailableError(upstreamTarget, 0, err.Error())
	}

	vr, err := a.validator.Validate(validation.SchemaOrganizations, body)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !vr.Valid {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeMalformed)
		return nil, errors.NewUpstreamMalformedError(upstreamTarget, vr.Summary())
	}

	var page organizationPage
	if err := json.Unmarshal(body, &page); err != nil {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeMalformed)
		return nil, errors.NewUpstreamMalformedError(upstreamTarget, err.Error())
	}

	metrics.RecordUpstream(upstreamTarget, metrics.OutcomeOK)
	return page.Value, nil
}

func (a *Aggregator) maxBodyBytes() int64 {
	if a.config != nil && a.config.MaxBodyBytes > 0 {
		return a.config.MaxBodyBytes
	}
	return defaultMaxBodyBytes
}
