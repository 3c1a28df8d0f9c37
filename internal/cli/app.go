package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"campus-engage/internal/api"
	"campus-engage/internal/auth"
	"campus-engage/internal/buildings"
	"campus-engage/internal/categories"
	"campus-engage/internal/common/config"
	"campus-engage/internal/common/database"
	httpclient "campus-engage/internal/common/http"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/common/observability"
	"campus-engage/internal/common/validation"
	"campus-engage/internal/engage"
	"campus-engage/internal/events"
	"campus-engage/internal/imageproxy"
	"campus-engage/internal/majors"
	"campus-engage/internal/orgsearch"
	"campus-engage/internal/profile"
	"campus-engage/internal/suggest"
	"campus-engage/internal/users"
)

const (
	connectRetries    = 5
	connectRetryDelay = 2 * time.Second
	oauthTimeout      = 10 * time.Second
)

// application owns the connections and shared services of one process.
type application struct {
	cfg       *config.Config
	logger    logger.Logger
	postgres  *database.PostgresClient
	redis     *database.RedisClient
	elastic   *database.ElasticsearchClient
	obs       *observability.Observability
	validator *validation.Validator
	taxonomy  *categories.Taxonomy
	engage    *httpclient.Client
}

// newApplication connects to Postgres and Redis, retrying while they come
// up, and to Elasticsearch when search is enabled.
func newApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: log}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("observability init failed, aggregation metrics disabled", map[string]interface{}{"error": err.Error()})
	}
	app.obs = obs

	if app.validator, err = validation.NewValidator(); err != nil {
		return nil, err
	}
	if app.taxonomy, err = categories.Load(); err != nil {
		return nil, err
	}

	if app.postgres, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
		return nil, err
	}
	if err := retryWithBackoff(ctx, app.postgres.Ping, connectRetries, connectRetryDelay, log, "Postgres connection"); err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.redis = database.NewRedis(cfg.Database.Redis)
	if err := retryWithBackoff(ctx, app.redis.Ping, connectRetries, connectRetryDelay, log, "Redis connection"); err != nil {
		app.Close(ctx)
		return nil, err
	}

	if cfg.Search.Enabled {
		if app.elastic, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
			app.Close(ctx)
			return nil, err
		}
	}

	app.engage = httpclient.NewClient(config.GetDuration(cfg.Engage.Timeout),
		httpclient.WithRateLimit(cfg.Engage.RequestsPerSecond, cfg.Engage.Burst),
		httpclient.WithUserAgent(cfg.Engage.UserAgent),
	)

	log.Info("application initialized", map[string]interface{}{
		"environment":   cfg.App.Environment,
		"searchEnabled": cfg.Search.Enabled,
	})
	return app, nil
}

func (a *application) aggregator() *engage.Aggregator {
	return engage.NewAggregator(engage.NewConfig(a.cfg.Engage), a.engage, a.validator, a.obs, a.logger)
}

func (a *application) organizationSearch() *orgsearch.Service {
	if a.elastic == nil {
		return nil
	}
	return orgsearch.NewService(orgsearch.NewConfig(a.cfg.Search), a.elastic.Client, a.taxonomy, a.logger)
}

func (a *application) authenticator(store auth.UserStore) *auth.Authenticator {
	oauthClient := &http.Client{Timeout: oauthTimeout}
	verifiers := []auth.Verifier{auth.NewCredentialsVerifier(store, a.logger)}
	for _, p := range []auth.ProviderConfig{auth.GoogleProvider(a.cfg.Auth), auth.LinkedInProvider(a.cfg.Auth)} {
		if !p.Enabled() {
			a.logger.Info("oauth provider disabled", map[string]interface{}{"provider": p.Method})
			continue
		}
		verifiers = append(verifiers, auth.NewOAuthVerifier(p, store, oauthClient, a.logger))
	}
	return auth.NewAuthenticator(verifiers...)
}

// dependencies builds everything the router needs.
func (a *application) dependencies() (api.Dependencies, error) {
	cfg := a.cfg

	dir, err := buildings.Load()
	if err != nil {
		return api.Dependencies{}, err
	}
	suggestions, err := suggest.NewService()
	if err != nil {
		return api.Dependencies{}, err
	}

	userStore := users.NewRepository(a.postgres.DB, a.logger)
	sessions := auth.NewSessionStore(a.redis.Client, cfg.Auth.SessionMaxAge(), a.logger)
	eventsCfg := events.NewConfig(cfg.Engage)
	eventClient := events.NewClient(eventsCfg, a.engage, a.validator, a.logger)
	imageClient := httpclient.NewClient(config.GetDuration(cfg.Engage.Timeout), httpclient.WithUserAgent(cfg.Engage.UserAgent))

	deps := api.Dependencies{
		Organizations: a.aggregator(),
		Images:        imageproxy.NewProxy(imageproxy.NewConfig(cfg.Engage), imageClient, a.logger),
		EventSource:   eventClient,
		Events:        events.NewService(eventsCfg, eventClient, a.logger),
		Suggestions:   suggestions,
		Buildings:     dir,
		Categories:    a.taxonomy,
		Majors:        majors.NewSource(cfg.Data.MajorsPath),
		Auth:          a.authenticator(userStore),
		Registrar:     auth.NewRegistrar(userStore, cfg.Auth.BcryptCost, a.logger),
		Sessions:      sessions,
		Profiles:      profile.NewRepository(a.postgres.DB, a.logger),
		Readiness: map[string]api.ReadinessCheck{
			"postgres": a.postgres.Ping,
			"redis":    a.redis.Ping,
		},
		Cookie: auth.CookieConfig{
			Name:   cfg.Auth.Session.CookieName,
			MaxAge: sessions.MaxAge(),
			Secure: cfg.Auth.Session.Secure,
		},
		BaseURL:     cfg.App.BaseURL,
		Development: cfg.App.IsDevelopment(),
		Logger:      a.logger,
	}
	if search := a.organizationSearch(); search != nil {
		deps.Search = search
		deps.Readiness["elasticsearch"] = a.elastic.Ping
	}
	return deps, nil
}

// Close releases connections. It is safe on a partly built application.
func (a *application) Close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			a.logger.Warn("postgres close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.obs != nil {
		if err := a.obs.Shutdown(ctx); err != nil {
			a.logger.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func requireElasticsearch(cfg *config.Config) error {
	if cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}
	return nil
}
