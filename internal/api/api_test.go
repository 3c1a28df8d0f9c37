package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

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

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// ==========================================
// Fakes
// ==========================================

type orgSourceFunc func(ctx context.Context) (*engage.Result, error)

func (f orgSourceFunc) FetchOrganizations(ctx context.Context) (*engage.Result, error) {
	return f(ctx)
}

type orgSearchFunc func(ctx context.Context, q orgsearch.Query) (*orgsearch.Result, error)

func (f orgSearchFunc) Search(ctx context.Context, q orgsearch.Query) (*orgsearch.Result, error) {
	return f(ctx, q)
}

type imageFetcherFunc func(ctx context.Context, ref string) (*imageproxy.Image, error)

func (f imageFetcherFunc) Fetch(ctx context.Context, ref string) (*imageproxy.Image, error) {
	return f(ctx, ref)
}

type eventSourceFunc func(ctx context.Context, query string) (*events.UpstreamPage, error)

func (f eventSourceFunc) Search(ctx context.Context, query string) (*events.UpstreamPage, error) {
	return f(ctx, query)
}

type majorsFunc func() (json.RawMessage, error)

func (f majorsFunc) Load() (json.RawMessage, error) { return f() }

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) Search(ctx context.Context, req events.SearchRequest) (*events.SearchResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*events.SearchResult)
	return res, args.Error(1)
}

func (m *mockEvents) ResidenceLife(ctx context.Context) (*events.SearchResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*events.SearchResult)
	return res, args.Error(1)
}

type mockRegistrar struct {
	mock.Mock
}

func (m *mockRegistrar) Register(ctx context.Context, req auth.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type fakeAuth struct {
	verify    func(ctx context.Context, attempt auth.Attempt) (*auth.Identity, error)
	providers map[auth.Method]*auth.OAuthVerifier
}

func (f *fakeAuth) Verify(ctx context.Context, attempt auth.Attempt) (*auth.Identity, error) {
	return f.verify(ctx, attempt)
}

func (f *fakeAuth) OAuthProvider(m auth.Method) (*auth.OAuthVerifier, bool) {
	v, ok := f.providers[m]
	return v, ok
}

type fakeSessions struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	states    map[string]auth.OAuthState
	createErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: make(map[string]*models.Session),
		states:   make(map[string]auth.OAuthState),
	}
}

func (f *fakeSessions) Get(_ context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[token]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	return sess, nil
}

func (f *fakeSessions) Create(_ context.Context, id *auth.Identity) (*models.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := &models.Session{
		Token:     uuid.New().String(),
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		Provider:  id.Provider,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.sessions[sess.Token] = sess
	return sess, nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessions) SaveState(_ context.Context, st auth.OAuthState) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := uuid.New().String()
	f.states[state] = st
	return state, nil
}

func (f *fakeSessions) ConsumeState(_ context.Context, state string) (*auth.OAuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[state]
	if !ok {
		return nil, auth.ErrStateNotFound
	}
	delete(f.states, state)
	return &st, nil
}

// signIn stores a session and returns its token.
func (f *fakeSessions) signIn(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := uuid.New().String()
	f.sessions[token] = &models.Session{
		Token:     token,
		UserID:    userID,
		Email:     userID + "@njit.edu",
		Name:      "Test User",
		Provider:  models.ProviderCredentials,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return token
}

type fakeProfiles struct {
	stored *models.Profile
	err    error
}

func (f *fakeProfiles) Get(_ context.Context, userID string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.stored == nil || f.stored.UserID != userID {
		return nil, nil
	}
	return f.stored, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p *models.Profile) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p.Normalize()
	f.stored = p
	return p, nil
}

// ==========================================
// Helpers
// ==========================================

func createTestDeps(t *testing.T) Dependencies {
	t.Helper()

	dir, err := buildings.Load()
	require.NoError(t, err)
	taxonomy, err := categories.Load()
	require.NoError(t, err)
	suggestions, err := suggest.NewService()
	require.NoError(t, err)

	return Dependencies{
		Organizations: orgSourceFunc(func(context.Context) (*engage.Result, error) {
			return &engage.Result{Records: []engage.Organization{}, Status: engage.StatusComplete, Fetches: 1}, nil
		}),
		Images: imageFetcherFunc(func(context.Context, string) (*imageproxy.Image, error) {
			return nil, imageproxy.ErrAllSourcesFailed
		}),
		EventSource: eventSourceFunc(func(context.Context, string) (*events.UpstreamPage, error) {
			return &events.UpstreamPage{}, nil
		}),
		Events:      &mockEvents{},
		Suggestions: suggestions,
		Buildings:   dir,
		Categories:  taxonomy,
		Majors: majorsFunc(func() (json.RawMessage, error) {
			return json.RawMessage(`[{"name":"Computer Science"}]`), nil
		}),
		Auth: &fakeAuth{
			verify: func(context.Context, auth.Attempt) (*auth.Identity, error) {
				return nil, &auth.AuthError{Reason: "Invalid email or password"}
			},
		},
		Registrar: &mockRegistrar{},
		Sessions:  newFakeSessions(),
		Profiles:  &fakeProfiles{},
		Cookie:    auth.CookieConfig{Name: auth.DefaultCookieName, MaxAge: time.Hour},
		BaseURL:   "http://campus.test",
		Logger:    logger.NewTestLogger(t),
	}
}

func serve(t *testing.T, deps Dependencies, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(deps).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func withSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.DefaultCookieName, Value: token})
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.DefaultCookieName {
			return c
		}
	}
	return nil
}

// ==========================================
// Operational routes
// ==========================================

func TestHealth(t *testing.T) {
	rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestReady(t *testing.T) {
	deps := createTestDeps(t)
	deps.Readiness = map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}

	rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not ready", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["postgres"])
	assert.Equal(t, "connection refused", checks["redis"])
}

func TestReady_AllHealthy(t *testing.T) {
	deps := createTestDeps(t)
	deps.Readiness = map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
	}

	rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestPlaceholderAndMetrics(t *testing.T) {
	deps := createTestDeps(t)

	rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/organization-placeholder.svg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = serve(t, deps, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestNoRoute(t *testing.T) {
	rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================================
// Organizations
// ==========================================

func TestListOrganizations(t *testing.T) {
	tests := []struct {
		name       string
		result     *engage.Result
		err        error
		wantStatus int
		wantHeader engage.Status
		wantBody   string
	}{
		{
			name: "complete walk",
			result: &engage.Result{
				Records: []engage.Organization{{ID: "1", Name: "Chess Club"}},
				Status:  engage.StatusComplete,
				Fetches: 1,
			},
			wantStatus: http.StatusOK,
			wantHeader: engage.StatusComplete,
			wantBody:   `[{"Id":"1","Name":"Chess Club"}]`,
		},
		{
			name: "partial walk still answers 200",
			result: &engage.Result{
				Records: []engage.Organization{},
				Status:  engage.StatusPartial,
				Fetches: 2,
			},
			wantStatus: http.StatusOK,
			wantHeader: engage.StatusPartial,
			wantBody:   `[]`,
		},
		{
			name:       "first page upstream status",
			result:     &engage.Result{Records: []engage.Organization{}, Status: engage.StatusAbortedFirstPage, Fetches: 1},
			err:        apperrors.NewUpstreamUnavailableError("organizations", http.StatusServiceUnavailable, ""),
			wantStatus: http.StatusServiceUnavailable,
			wantHeader: engage.StatusAbortedFirstPage,
			wantBody:   `{"message":"Failed to fetch organizations: 503 Service Unavailable"}`,
		},
		{
			name:       "first page malformed",
			err:        apperrors.NewUpstreamMalformedError("organizations", "value missing"),
			wantStatus: http.StatusInternalServerError,
			wantHeader: engage.StatusAbortedFirstPage,
			wantBody:   `{"message":"Unexpected API response format"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := createTestDeps(t)
			deps.Organizations = orgSourceFunc(func(context.Context) (*engage.Result, error) {
				return tt.result, tt.err
			})

			rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/organizations", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, string(tt.wantHeader), rec.Header().Get(headerAggregationStatus))
			assert.Equal(t, "no-store, no-cache, must-revalidate, proxy-revalidate", rec.Header().Get("Cache-Control"))
			assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
			assert.Equal(t, "0", rec.Header().Get("Expires"))
		})
	}
}

func TestSearchOrganizations(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/organizations/search?q=chess", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, string(apperrors.ErrCodeSearchDisabled), decode(t, rec)["code"])
	})

	t.Run("enabled", func(t *testing.T) {
		deps := createTestDeps(t)
		var got orgsearch.Query
		deps.Search = orgSearchFunc(func(_ context.Context, q orgsearch.Query) (*orgsearch.Result, error) {
			got = q
			return &orgsearch.Result{Organizations: []orgsearch.Document{{ID: "7", Name: "Chess Club"}}, Total: 1}, nil
		})

		rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/organizations/search?q=chess&category=Hobbies&size=5", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, orgsearch.Query{Text: "chess", Category: "Hobbies", Size: 5}, got)
		assert.EqualValues(t, 1, decode(t, rec)["total"])
	})

	t.Run("index failure", func(t *testing.T) {
		deps := createTestDeps(t)
		deps.Search = orgSearchFunc(func(context.Context, orgsearch.Query) (*orgsearch.Result, error) {
			return nil, apperrors.NewSearchQueryFailedError("organizations", errors.New("index_not_found"))
		})

		rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/organizations/search?q=chess", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestOrganizationImage(t *testing.T) {
	t.Run("missing ref", func(t *testing.T) {
		deps := createTestDeps(t)
		deps.Images = imageFetcherFunc(func(_ context.Context, ref string) (*imageproxy.Image, error) {
			return nil, imageproxy.ErrMissingRef
		})

		rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/organizationImage", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"No URL provided"}`, rec.Body.String())
	})

	t.Run("all sources failed", func(t *testing.T) {
		rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/organizationImage?imageUrl=abc.png", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, imageproxy.PlaceholderPath, rec.Header().Get("Location"))
	})

	t.Run("streams image", func(t *testing.T) {
		deps := createTestDeps(t)
		var gotRef string
		deps.Images = imageFetcherFunc(func(_ context.Context, ref string) (*imageproxy.Image, error) {
			gotRef = ref
			return &imageproxy.Image{Body: []byte("PNGDATA"), ContentType: "image/png"}, nil
		})

		rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/organizationImage?imageUrl="+url.QueryEscape("a b/c.png"), nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "a b/c.png", gotRef)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "PNGDATA", rec.Body.String())
	})
}

func TestOrganizationAvatar(t *testing.T) {
	rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/organizationAvatar?name=Chess+Club&size=64", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `width="64"`)
	assert.Contains(t, rec.Body.String(), ">CC</text>")
}

func TestOrganizationCategories(t *testing.T) {
	rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/organizationCategories", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	body := decode(t, rec)
	assert.NotEmpty(t, body["categories"])
	assert.Contains(t, body, "organizationCategories")
	assert.Contains(t, body, "categoryDescriptions")
}

// ==========================================
// Campus data
// ==========================================

func TestBuildingLocation(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"missing name", "", http.StatusBadRequest, `{"error":"Building name is required"}`},
		{"exact match", "?name=" + url.QueryEscape("Campbell Hall"), http.StatusOK, `{"coordinates":{"lat":40.7431,"lng":-74.1789}}`},
		{"partial match", "?name=king", http.StatusOK, `{"coordinates":{"lat":40.7414,"lng":-74.1789}}`},
		{"unknown", "?name=nowhere", http.StatusOK, `{"coordinates":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/building-location"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestMajors(t *testing.T) {
	t.Run("served as stored", func(t *testing.T) {
		rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/onboarding/majors", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"name":"Computer Science"}]`, rec.Body.String())
	})

	t.Run("unreadable", func(t *testing.T) {
		deps := createTestDeps(t)
		deps.Majors = majorsFunc(func() (json.RawMessage, error) {
			return nil, errors.New("MAJORS_UNAVAILABLE: open data/njit_degrees.json: no such file")
		})

		rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/onboarding/majors", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Could not load majors"}`, rec.Body.String())
	})
}

// ==========================================
// Events
// ==========================================

func TestProxyEvents(t *testing.T) {
	tests := []struct {
		name       string
		page       *events.UpstreamPage
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "passes page through",
			page:       &events.UpstreamPage{Value: []events.UpstreamEvent{{ID: "42", Name: "Study Jam"}}},
			wantStatus: http.StatusOK,
			wantBody:   `{"value":[{"id":"42","name":"Study Jam"}]}`,
		},
		{
			name:       "empty page",
			page:       &events.UpstreamPage{},
			wantStatus: http.StatusOK,
			wantBody:   `{"value":[]}`,
		},
		{
			name:       "upstream status",
			err:        apperrors.NewUpstreamUnavailableError("events", http.StatusNotFound, ""),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Failed to fetch data from NJIT API"}`,
		},
		{
			name:       "transport failure",
			err:        apperrors.NewUpstreamUnavailableError("events", 0, "dial tcp: refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to fetch data"}`,
		},
		{
			name:       "malformed body",
			err:        apperrors.NewUpstreamMalformedError("events", "value is required"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to fetch data"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := createTestDeps(t)
			var gotQuery string
			deps.EventSource = eventSourceFunc(func(_ context.Context, q string) (*events.UpstreamPage, error) {
				gotQuery = q
				return tt.page, tt.err
			})

			rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/proxy?query=pizza", nil))

			assert.Equal(t, "pizza", gotQuery)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestSearchEvents(t *testing.T) {
	msg := events.MessageNoEvents

	tests := []struct {
		name    string
		query   string
		wantReq events.SearchRequest
	}{
		{
			name:    "filters absent",
			query:   "?q=free+pizza",
			wantReq: events.SearchRequest{Query: "free pizza"},
		},
		{
			name:    "filters present but empty",
			query:   "?q=pizza&filters=",
			wantReq: events.SearchRequest{Query: "pizza"},
		},
		{
			name:    "filters and persona",
			query:   "?q=pizza&filters=food,today&persona=resident",
			wantReq: events.SearchRequest{Query: "pizza", Filters: []string{"food", "today"}, Persona: "resident"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := createTestDeps(t)
			m := &mockEvents{}
			m.On("Search", mock.Anything, tt.wantReq).Return(&events.SearchResult{Events: []events.Event{}, Message: &msg}, nil)
			deps.Events = m

			rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/search-events"+tt.query, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"events":[],"message":"`+msg+`"}`, rec.Body.String())
			m.AssertExpectations(t)
		})
	}
}

func TestSearchEvents_UpstreamDown(t *testing.T) {
	deps := createTestDeps(t)
	m := &mockEvents{}
	m.On("Search", mock.Anything, mock.Anything).Return(nil, apperrors.NewUpstreamUnavailableError("events", 0, "timeout"))
	deps.Events = m

	rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/search-events?q=study", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"events":[],"message":"Could not connect to NJIT events API."}`, rec.Body.String())
}

func TestResidenceEvents(t *testing.T) {
	deps := createTestDeps(t)
	m := &mockEvents{}
	m.On("ResidenceLife", mock.Anything).Return(&events.SearchResult{Events: []events.Event{{
		ID:             "9",
		Title:          "Floor Meeting",
		Tags:           []string{"residence", "housing"},
		RelevanceScore: 90,
	}}}, nil)
	deps.Events = m

	rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/residence-events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	evs := body["events"].([]interface{})
	require.Len(t, evs, 1)
	assert.EqualValues(t, 90, evs[0].(map[string]interface{})["relevanceScore"])
	assert.Nil(t, body["message"])
}

func TestSuggest(t *testing.T) {
	rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/suggest?q=", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []suggest.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), suggest.MaxResults)

	rec = serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/suggest?q=zzzzqqq", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAnalyzeIntent(t *testing.T) {
	rec := serve(t, createTestDeps(t), httptest.NewRequest(http.MethodGet, "/api/intent?q="+url.QueryEscape("free pizza today"), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	in := body["intent"].(map[string]interface{})
	assert.Equal(t, true, in["hasFoodIntent"])
	assert.Equal(t, true, in["hasTimeIntent"])
	assert.Contains(t, body["params"], "filters=")
}

// ==========================================
// Auth
// ==========================================

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		regErr     error
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{"created", `{"email":"new@njit.edu","password":"longenough"}`, nil, http.StatusCreated, ""},
		{"short password", `{"email":"new@njit.edu","password":"short"}`, apperrors.NewValidationError("Password must be at least 8 characters", ""), http.StatusBadRequest, apperrors.ErrCodeValidationFailed},
		{"duplicate", `{"email":"taken@njit.edu","password":"longenough"}`, apperrors.NewDuplicateUserError("taken@njit.edu"), http.StatusConflict, apperrors.ErrCodeDuplicateUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := createTestDeps(t)
			reg := &mockRegistrar{}
			if tt.regErr != nil {
				reg.On("Register", mock.Anything, mock.Anything).Return(nil, tt.regErr)
			} else {
				reg.On("Register", mock.Anything, auth.RegisterRequest{Email: "new@njit.edu", Password: "longenough"}).
					Return(&models.User{ID: "u-1", Email: "new@njit.edu", Name: "new"}, nil)
			}
			deps.Registrar = reg

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := serve(t, deps, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			if tt.wantCode != "" {
				assert.Equal(t, string(tt.wantCode), body["code"])
				return
			}
			assert.Equal(t, "User created successfully", body["message"])
			user := body["user"].(map[string]interface{})
			assert.Equal(t, "u-1", user["id"])
			assert.NotContains(t, user, "password")
			assert.NotContains(t, user, "PasswordHash")
		})
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(t, createTestDeps(t), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	deps := createTestDeps(t)
	deps.Auth = &fakeAuth{verify: func(_ context.Context, attempt auth.Attempt) (*auth.Identity, error) {
		ca := attempt.(auth.CredentialsAttempt)
		if ca.Password != "correct-horse" {
			return nil, &auth.AuthError{Method: auth.MethodCredentials, Reason: "Invalid email or password"}
		}
		return &auth.Identity{UserID: "u-1", Email: ca.Email, Provider: auth.MethodCredentials}, nil
	}}

	t.Run("success sets cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"a@njit.edu","password":"correct-horse","callbackUrl":"https://evil.example/x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(t, deps, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.NotEmpty(t, cookie.Value)
		assert.Equal(t, "/", decode(t, rec)["url"])
	})

	t.Run("bad password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"a@njit.edu","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(t, deps, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid email or password"}`, rec.Body.String())
		assert.Nil(t, sessionCookie(rec))
	})
}

func TestLogin_SessionStoreDown(t *testing.T) {
	deps := createTestDeps(t)
	deps.Auth = &fakeAuth{verify: func(context.Context, auth.Attempt) (*auth.Identity, error) {
		return &auth.Identity{UserID: "u-1"}, nil
	}}
	sessions := newFakeSessions()
	sessions.createErr = errors.New("redis: connection refused")
	deps.Sessions = sessions

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@njit.edu","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(t, deps, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, string(apperrors.ErrCodeSessionFailed), decode(t, rec)["code"])
}

func newGoogleVerifier(t *testing.T) *auth.OAuthVerifier {
	return auth.NewOAuthVerifier(auth.ProviderConfig{
		Method:       auth.MethodGoogle,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://campus.test/api/auth/callback/google",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.test/auth", TokenURL: "https://accounts.test/token"},
		Scopes:       []string{"openid", "email"},
	}, nil, http.DefaultClient, logger.NewTestLogger(t))
}

func TestOAuthRedirect(t *testing.T) {
	deps := createTestDeps(t)
	sessions := newFakeSessions()
	deps.Sessions = sessions
	deps.Auth = &fakeAuth{providers: map[auth.Method]*auth.OAuthVerifier{auth.MethodGoogle: newGoogleVerifier(t)}}

	t.Run("unknown provider", func(t *testing.T) {
		rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/auth/oauth/github", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("google", func(t *testing.T) {
		rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/auth/oauth/google?callbackUrl=%2Fdashboard", nil))

		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "accounts.test", loc.Host)
		assert.Equal(t, "client-id", loc.Query().Get("client_id"))

		state := loc.Query().Get("state")
		require.NotEmpty(t, state)
		st, err := sessions.ConsumeState(context.Background(), state)
		require.NoError(t, err)
		assert.Equal(t, auth.OAuthState{Provider: auth.MethodGoogle, CallbackURL: "/dashboard"}, *st)
	})
}

func TestOAuthCallback(t *testing.T) {
	tests := []struct {
		name         string
		stateFor     auth.Method
		callbackURL  string
		isNew        bool
		verifyErr    error
		query        string
		wantLocation string
		wantCookie   bool
	}{
		{"returning user", auth.MethodGoogle, "/dashboard", false, nil, "", "/dashboard", true},
		{"new user goes to onboarding", auth.MethodGoogle, "/dashboard", true, nil, "", "/onboarding/step1", true},
		{"foreign callback", auth.MethodGoogle, "https://evil.example/steal", false, nil, "", "/", true},
		{"same-origin absolute callback", auth.MethodGoogle, "http://campus.test/profile", false, nil, "", "http://campus.test/profile", true},
		{"state for other provider", auth.MethodLinkedIn, "/dashboard", false, nil, "", "/auth/error?error=OAuthState", false},
		{"verify failure", auth.MethodGoogle, "/dashboard", false, &auth.AuthError{Method: auth.MethodGoogle, Reason: "Failed to exchange authorization code"}, "", "/auth/error?error=OAuthCallback", false},
		{"provider denied", auth.MethodGoogle, "/dashboard", false, nil, "&error=access_denied", "/auth/error?error=AccessDenied", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := createTestDeps(t)
			sessions := newFakeSessions()
			deps.Sessions = sessions
			deps.Auth = &fakeAuth{verify: func(_ context.Context, attempt auth.Attempt) (*auth.Identity, error) {
				oa := attempt.(auth.OAuthAttempt)
				assert.Equal(t, "the-code", oa.Code)
				if tt.verifyErr != nil {
					return nil, tt.verifyErr
				}
				return &auth.Identity{UserID: "u-9", Provider: oa.Provider, IsNewUser: tt.isNew}, nil
			}}

			state, err := sessions.SaveState(context.Background(), auth.OAuthState{Provider: tt.stateFor, CallbackURL: tt.callbackURL})
			require.NoError(t, err)

			target := "/api/auth/callback/google?code=the-code&state=" + state + tt.query
			rec := serve(t, deps, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantCookie, sessionCookie(rec) != nil)
		})
	}
}

func TestOAuthCallback_StateReplay(t *testing.T) {
	deps := createTestDeps(t)
	deps.Auth = &fakeAuth{verify: func(context.Context, auth.Attempt) (*auth.Identity, error) {
		return &auth.Identity{UserID: "u-9"}, nil
	}}
	state, err := deps.Sessions.SaveState(context.Background(), auth.OAuthState{Provider: auth.MethodGoogle, CallbackURL: "/"})
	require.NoError(t, err)

	target := "/api/auth/callback/google?code=c&state=" + state
	first := serve(t, deps, httptest.NewRequest(http.MethodGet, target, nil))
	second := serve(t, deps, httptest.NewRequest(http.MethodGet, target, nil))

	assert.Equal(t, "/", first.Header().Get("Location"))
	assert.Equal(t, "/auth/error?error=OAuthState", second.Header().Get("Location"))
}

func TestLogoutAndSession(t *testing.T) {
	deps := createTestDeps(t)
	sessions := newFakeSessions()
	deps.Sessions = sessions
	token := sessions.signIn("u-1")

	rec := serve(t, deps, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), token))
	assert.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "u-1", user["id"])

	rec = serve(t, deps, withSession(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), token))
	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)

	_, err := sessions.Get(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	rec = serve(t, deps, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), token))
	assert.JSONEq(t, `{}`, rec.Body.String())
}

// ==========================================
// Profile
// ==========================================

func TestProfileSync_RequiresSession(t *testing.T) {
	deps := createTestDeps(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := serve(t, deps, httptest.NewRequest(method, "/api/profile/sync", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, method)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	}
}

func TestProfileSync(t *testing.T) {
	deps := createTestDeps(t)
	sessions := newFakeSessions()
	deps.Sessions = sessions
	profiles := &fakeProfiles{}
	deps.Profiles = profiles
	token := sessions.signIn("u-1")

	rec := serve(t, deps, withSession(httptest.NewRequest(http.MethodGet, "/api/profile/sync", nil), token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Profile not found","profile":null}`, rec.Body.String())

	for _, bad := range []string{`[1,2]`, `"text"`, `{"major_name":`, ``} {
		rec = serve(t, deps, withSession(httptest.NewRequest(http.MethodPost, "/api/profile/sync", strings.NewReader(bad)), token))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", bad)
	}

	body := `{"userId":"someone-else","bagel_type":"everything","major_name":"Computer Science","substance_clubs":["chess"],"onboarding_completed":true}`
	rec = serve(t, deps, withSession(httptest.NewRequest(http.MethodPost, "/api/profile/sync", strings.NewReader(body)), token))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "Profile synced successfully", resp["message"])
	saved := resp["profile"].(map[string]interface{})
	assert.Equal(t, "u-1", saved["userId"])
	assert.Equal(t, []interface{}{"chess"}, saved["substance_clubs"])
	assert.Equal(t, []interface{}{}, saved["substance_events"])

	rec = serve(t, deps, withSession(httptest.NewRequest(http.MethodGet, "/api/profile/sync", nil), token))
	assert.Equal(t, "everything", decode(t, rec)["profile"].(map[string]interface{})["bagel_type"])
}

func TestProfileSync_StoreFailure(t *testing.T) {
	deps := createTestDeps(t)
	sessions := newFakeSessions()
	deps.Sessions = sessions
	deps.Profiles = &fakeProfiles{err: errors.New("connection reset")}
	token := sessions.signIn("u-1")

	rec := serve(t, deps, withSession(httptest.NewRequest(http.MethodGet, "/api/profile/sync", nil), token))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ==========================================
// Page guard
// ==========================================

func TestPageGuard(t *testing.T) {
	deps := createTestDeps(t)
	sessions := newFakeSessions()
	deps.Sessions = sessions
	token := sessions.signIn("u-1")

	rec := serve(t, deps, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/auth/login?callbackUrl=%2Fdashboard", rec.Header().Get("Location"))

	rec = serve(t, deps, withSession(httptest.NewRequest(http.MethodGet, "/auth/login", nil), token))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = serve(t, deps, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
