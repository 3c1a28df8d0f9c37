package events

import (
	"time"

	"campus-engage/internal/common/config"
)

type Config struct {
	SearchURL    string
	Take         int
	Location     *time.Location
	MaxBodyBytes int64
}

func NewConfig(cfg config.EngageConfig) *Config {
	take := cfg.EventTake
	if take <= 0 {
		take = 100
	}
	return &Config{
		SearchURL:    cfg.EventsURL(),
		Take:         take,
		Location:     cfg.Location(),
		MaxBodyBytes: 10 << 20,
	}
}
