package orgsearch

import (
	"time"

	"campus-engage/internal/common/config"
)

type Config struct {
	Index       string
	Timeout     time.Duration
	DefaultSize int
	MaxSize     int
}

func NewConfig(cfg config.SearchConfig) *Config {
	index := cfg.OrganizationIndex
	if index == "" {
		index = "organizations"
	}
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Config{
		Index:       index,
		Timeout:     timeout,
		DefaultSize: 20,
		MaxSize:     100,
	}
}
