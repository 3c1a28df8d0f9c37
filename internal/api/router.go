// Package api is the HTTP surface of the service: JSON routes over the
// engagement platform, auth, profiles and the operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campus-engage/internal/auth"
	"campus-engage/internal/buildings"
	"campus-engage/internal/categories"
	apperrors "campus-engage/internal/common/errors"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/engage"
	"campus-engage/internal/events"
	"campus-engage/internal/imageproxy"
	"campus-engage/internal/models"
	"campus-engage/internal/orgsearch"
	"campus-engage/internal/suggest"
)

type OrganizationSource interface {
	FetchOrganizations(ctx context.Context) (*engage.Result, error)
}

type OrganizationSearcher interface {
	Search(ctx context.Context, q orgsearch.Query) (*orgsearch.Result, error)
}

type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) (*imageproxy.Image, error)
}

type EventFinder interface {
	Search(ctx context.Context, req events.SearchRequest) (*events.SearchResult, error)
	ResidenceLife(ctx context.Context) (*events.SearchResult, error)
}

type Suggester interface {
	Suggest(q, persona string) []suggest.Suggestion
}

type BuildingLocator interface {
	Lookup(name string) (*buildings.Coordinates, error)
}

type CategorySource interface {
	Response() categories.Response
}

type MajorsSource interface {
	Load() (json.RawMessage, error)
}

type Authenticator interface {
	Verify(ctx context.Context, attempt auth.Attempt) (*auth.Identity, error)
	OAuthProvider(m auth.Method) (*auth.OAuthVerifier, bool)
}

type Registrar interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*models.User, error)
}

// SessionStore is the part of auth.SessionStore the routes use.
type SessionStore interface {
	auth.SessionLoader
	Create(ctx context.Context, id *auth.Identity) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	SaveState(ctx context.Context, st auth.OAuthState) (string, error)
	ConsumeState(ctx context.Context, state string) (*auth.OAuthState, error)
}

type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error)
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Dependencies wires the router. A nil Search disables organization search.
type Dependencies struct {
	Organizations OrganizationSource
	Search        OrganizationSearcher
	Images        ImageFetcher
	EventSource   events.Searcher
	Events        EventFinder
	Suggestions   Suggester
	Buildings     BuildingLocator
	Categories    CategorySource
	Majors        MajorsSource
	Auth          Authenticator
	Registrar     Registrar
	Sessions      SessionStore
	Profiles      ProfileStore
	Readiness     map[string]ReadinessCheck

	Cookie      auth.CookieConfig
	BaseURL     string
	Development bool
	Logger      logger.Logger
}

type Server struct {
	deps   Dependencies
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	s := &Server{
		deps:   deps,
		errors: apperrors.NewErrorHandler(deps.Logger.WithFields(map[string]interface{}{"component": "api-errors"})),
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(deps.Logger), instrument())
	r.Use(auth.SessionMiddleware(deps.Sessions, deps.Cookie, deps.Logger))
	r.Use(auth.PageGuard(deps.Development))

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET(imageproxy.PlaceholderPath, s.placeholder)

	api := r.Group("/api")
	{
		api.GET("/organizations", s.listOrganizations)
		api.GET("/organizations/search", s.searchOrganizations)
		api.GET("/organizationImage", s.organizationImage)
		api.GET("/organizationAvatar", s.organizationAvatar)
		api.GET("/organizationCategories", s.organizationCategories)
		api.GET("/building-location", s.buildingLocation)
		api.GET("/onboarding/majors", s.majors)

		api.GET("/proxy", s.proxyEvents)
		api.GET("/search-events", s.searchEvents)
		api.GET("/residence-events", s.residenceEvents)
		api.GET("/suggest", s.suggest)
		api.GET("/intent", s.analyzeIntent)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.GET("/oauth/:provider", s.oauthRedirect)
		authGroup.GET("/callback/:provider", s.oauthCallback)
		authGroup.POST("/logout", s.logout)
		authGroup.GET("/session", s.session)

		profile := api.Group("/profile", auth.RequireSession())
		profile.GET("/sync", s.getProfile)
		profile.POST("/sync", s.syncProfile)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}
