// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top and applies env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.GetViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Auth.OAuthProviders.Google.ClientID, "GOOGLE_CLIENT_ID")
	setIfEmpty(&cfg.Auth.OAuthProviders.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setIfEmpty(&cfg.Auth.OAuthProviders.Google.RedirectURL, "GOOGLE_REDIRECT_URI")

	setIfEmpty(&cfg.Auth.OAuthProviders.LinkedIn.ClientID, "LINKEDIN_CLIENT_ID")
	setIfEmpty(&cfg.Auth.OAuthProviders.LinkedIn.ClientSecret, "LINKEDIN_CLIENT_SECRET")
	setIfEmpty(&cfg.Auth.OAuthProviders.LinkedIn.RedirectURL, "LINKEDIN_REDIRECT_URI")

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "campus-engage"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Engage.BaseURL == "" {
		cfg.Engage.BaseURL = "https://njit.campuslabs.com/engage"
	}
	cfg.Engage.BaseURL = strings.TrimRight(cfg.Engage.BaseURL, "/")
	if cfg.Engage.ImageFallbackURL == "" {
		cfg.Engage.ImageFallbackURL = "https://se-images.campuslabs.com/clink/images"
	}
	if cfg.Engage.PageSize == 0 {
		cfg.Engage.PageSize = 25
	}
	if cfg.Engage.MaxPages == 0 {
		cfg.Engage.MaxPages = 12
	}
	if cfg.Engage.EventTake == 0 {
		cfg.Engage.EventTake = 100
	}
	if cfg.Engage.Timeout == 0 {
		cfg.Engage.Timeout = 15000
	}
	if cfg.Engage.RequestsPerSecond == 0 {
		cfg.Engage.RequestsPerSecond = 5
	}
	if cfg.Engage.Burst == 0 {
		cfg.Engage.Burst = 2
	}
	if cfg.Engage.MaxImageBytes == 0 {
		cfg.Engage.MaxImageBytes = 5 << 20
	}
	if cfg.Engage.UserAgent == "" {
		cfg.Engage.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if cfg.Engage.TimeZone == "" {
		cfg.Engage.TimeZone = "America/New_York"
	}

	if cfg.Auth.Session.CookieName == "" {
		cfg.Auth.Session.CookieName = "campus_session"
	}
	if cfg.Auth.Session.MaxAge == 0 {
		cfg.Auth.Session.MaxAge = 30 * 24 * 60 * 60
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 12
	}

	if cfg.Search.OrganizationIndex == "" {
		cfg.Search.OrganizationIndex = "organizations"
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 5000
	}

	if cfg.Data.MajorsPath == "" {
		cfg.Data.MajorsPath = "data/njit_degrees.json"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Search.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when search is enabled")
	}

	if cfg.Engage.PageSize < 1 {
		return fmt.Errorf("engage.page_size must be positive")
	}
	if cfg.Engage.MaxPages < 1 {
		return fmt.Errorf("engage.max_pages must be positive")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
