// Package imageproxy fetches organization images from the upstream hosts
// with a single fallback.
package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"campus-engage/internal/common/config"
	httpclient "campus-engage/internal/common/http"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/common/metrics"
	"campus-engage/internal/engage"
)

const (
	PlaceholderPath    = "/organization-placeholder.svg"
	defaultContentType = "image/jpeg"
	upstreamTarget     = "organization_image"
)

var (
	ErrMissingRef       = errors.New("IMAGE_REF_MISSING")
	ErrAllSourcesFailed = errors.New("IMAGE_SOURCES_FAILED")
	errTooLarge         = httpclient.ErrBodyTooLarge
)

// statusError is a non-OK upstream answer, the only failure that moves on
// to the fallback source.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.code)
}

type Config struct {
	PrimaryURL  string
	FallbackURL string
	Referer     string
	MaxBytes    int64
}

func NewConfig(cfg config.EngageConfig) *Config {
	return &Config{
		PrimaryURL:  cfg.ImageURL(),
		FallbackURL: strings.TrimSuffix(cfg.ImageFallbackURL, "/"),
		Referer:     cfg.BaseURL,
		MaxBytes:    cfg.MaxImageBytes,
	}
}

// Image is a fetched image body.
type Image struct {
	Body        []byte
	ContentType string
	Source      string
}

type Proxy struct {
	config *Config
	client httpclient.Doer
	logger logger.Logger
}

func NewProxy(cfg *Config, client httpclient.Doer, log logger.Logger) *Proxy {
	return &Proxy{
		config: cfg,
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "image-proxy"}),
	}
}

// Fetch tries the primary template, then the fallback when the primary
// answers with a non-OK status. Transport and read failures end the fetch.
// There is no retry.
func (p *Proxy) Fetch(ctx context.Context, ref string) (*Image, error) {
	if ref == "" {
		return nil, ErrMissingRef
	}

	sources := []string{p.PrimaryURL(ref), p.FallbackURL(ref)}
	var lastErr error
	for i, src := range sources {
		img, err := p.fetchOne(ctx, src)
		if err == nil {
			img.Source = src
			return img, nil
		}
		p.logger.Warn("image source failed", map[string]interface{}{
			"attempt": i + 1,
			"url":     src,
			"error":   err.Error(),
		})
		var se *statusError
		if !errors.As(err, &se) {
			return nil, fmt.Errorf("fetch image %s: %w", src, err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrAllSourcesFailed, lastErr)
}

// PrimaryURL builds the organizationImage URL for ref.
func (p *Proxy) PrimaryURL(ref string) string {
	return p.config.PrimaryURL + "?imageUrl=" + engage.EncodeComponent(ref)
}

// FallbackURL builds the image host URL for ref, keeping its path segments.
func (p *Proxy) FallbackURL(ref string) string {
	segments := strings.Split(strings.TrimPrefix(ref, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return p.config.FallbackURL + "/" + strings.Join(segments, "/") + "?preset=med-sq"
}

func (p *Proxy) fetchOne(ctx context.Context, src string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	if p.config.Referer != "" {
		req.Header.Set("Referer", p.config.Referer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTransport)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeStatus)
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := httpclient.ReadLimited(resp.Body, p.config.MaxBytes)
	if errors.Is(err, errTooLarge) {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTooLarge)
		return nil, err
	}
	if err != nil {
		metrics.RecordUpstream(upstreamTarget, metrics.OutcomeTransport)
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	metrics.RecordUpstream(upstreamTarget, metrics.OutcomeOK)
	return &Image{Body: body, ContentType: contentType}, nil
}
