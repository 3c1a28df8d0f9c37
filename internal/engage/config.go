package engage

import (
	"time"

	"campus-engage/internal/common/config"
)

// Config drives the organization walk.
type Config struct {
	OrganizationsURL string
	PageSize         int
	MaxPages         int
	Timeout          time.Duration
	MaxBodyBytes     int64
}

const (
	DefaultPageSize     = 25
	DefaultMaxPages     = 12
	defaultMaxBodyBytes = 10 << 20
)

// NewConfig derives the aggregator settings from the application config.
func NewConfig(cfg config.EngageConfig) *Config {
	c := &Config{
		OrganizationsURL: cfg.OrganizationsURL(),
		PageSize:         cfg.PageSize,
		MaxPages:         cfg.MaxPages,
		Timeout:          config.GetDuration(cfg.Timeout),
		MaxBodyBytes:     defaultMaxBodyBytes,
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	return c
}
