// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engage   EngageConfig   `mapstructure:"engage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Search   SearchConfig   `mapstructure:"search"`
	Data     DataConfig     `mapstructure:"data"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	BaseURL     string `mapstructure:"base_url"`
}

// IsDevelopment reports whether the app runs with development relaxations.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngageConfig describes the upstream campus-engagement platform.
type EngageConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	ImageFallbackURL  string  `mapstructure:"image_fallback_url"`
	PageSize          int     `mapstructure:"page_size"`
	MaxPages          int     `mapstructure:"max_pages"`
	EventTake         int     `mapstructure:"event_take"`
	Timeout           int     `mapstructure:"timeout"` // milliseconds
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxImageBytes     int64   `mapstructure:"max_image_bytes"`
	UserAgent         string  `mapstructure:"user_agent"`
	TimeZone          string  `mapstructure:"time_zone"`
}

// OrganizationsURL is the discovery endpoint walked by the aggregator.
func (e EngageConfig) OrganizationsURL() string {
	return e.BaseURL + "/api/discovery/search/organizations"
}

// EventsURL is the discovery endpoint for event search.
func (e EngageConfig) EventsURL() string {
	return e.BaseURL + "/api/discovery/event/search"
}

// ImageURL is the primary organization image endpoint.
func (e EngageConfig) ImageURL() string {
	return e.BaseURL + "/api/organizationImage"
}

// Location resolves the campus time zone, falling back to UTC.
func (e EngageConfig) Location() *time.Location {
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// --- Specific Configuration Sections ---

// AuthConfig holds session and OAuth provider settings.
type AuthConfig struct {
	Session struct {
		CookieName string `mapstructure:"cookie_name"`
		MaxAge     int    `mapstructure:"max_age"` // seconds
		Secure     bool   `mapstructure:"secure"`
	} `mapstructure:"session"`

	BcryptCost int `mapstructure:"bcrypt_cost"`

	OAuthProviders struct {
		Google struct {
			ClientID     string `mapstructure:"client_id"`
			ClientSecret string `mapstructure:"client_secret"`
			RedirectURL  string `mapstructure:"redirect_uri"`
		} `mapstructure:"google"`
		LinkedIn struct {
			ClientID     string `mapstructure:"client_id"`
			ClientSecret string `mapstructure:"client_secret"`
			RedirectURL  string `mapstructure:"redirect_uri"`
		} `mapstructure:"linkedin"`
	} `mapstructure:"oauth_providers"`
}

// SessionMaxAge returns the session lifetime as a duration.
func (a AuthConfig) SessionMaxAge() time.Duration {
	return time.Duration(a.Session.MaxAge) * time.Second
}

// SearchConfig toggles the Elasticsearch-backed organization search.
type SearchConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	OrganizationIndex string `mapstructure:"organization_index"`
	Timeout           int    `mapstructure:"timeout"` // milliseconds
}

// DataConfig points at static data files read at request time.
type DataConfig struct {
	MajorsPath string `mapstructure:"majors_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
