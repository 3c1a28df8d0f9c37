package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"campus-engage/internal/common/config"
	"campus-engage/internal/common/logger"
	"campus-engage/internal/models"
)

const (
	GoogleUserInfoURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	LinkedInUserInfoURL = "https://api.linkedin.com/v2/userinfo"
)

// ProviderConfig describes one OAuth provider.
type ProviderConfig struct {
	Method       Method
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	Scopes       []string
	// RequireEmail rejects profiles without an email address.
	RequireEmail bool
	// AuthParams are appended to the authorization URL.
	AuthParams []oauth2.AuthCodeOption
}

func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

func GoogleProvider(cfg config.AuthConfig) ProviderConfig {
	g := cfg.OAuthProviders.Google
	return ProviderConfig{
		Method:       MethodGoogle,
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
		Endpoint:     endpoints.Google,
		UserInfoURL:  GoogleUserInfoURL,
		Scopes:       []string{"openid", "email", "profile"},
		RequireEmail: true,
		AuthParams:   []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce},
	}
}

func LinkedInProvider(cfg config.AuthConfig) ProviderConfig {
	l := cfg.OAuthProviders.LinkedIn
	return ProviderConfig{
		Method:       MethodLinkedIn,
		ClientID:     l.ClientID,
		ClientSecret: l.ClientSecret,
		RedirectURL:  l.RedirectURL,
		Endpoint:     endpoints.LinkedIn,
		UserInfoURL:  LinkedInUserInfoURL,
		Scopes:       []string{"openid", "profile", "email"},
		RequireEmail: true,
	}
}

// UserInfo is the OpenID Connect userinfo response of both providers.
type UserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// OAuthVerifier exchanges an authorization code, loads the provider profile
// and resolves it to a local user.
type OAuthVerifier struct {
	provider   ProviderConfig
	oauth      *oauth2.Config
	users      UserStore
	httpClient *http.Client
	logger     logger.Logger
}

func NewOAuthVerifier(p ProviderConfig, store UserStore, httpClient *http.Client, log logger.Logger) *OAuthVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OAuthVerifier{
		provider: p,
		oauth: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			Endpoint:     p.Endpoint,
			Scopes:       p.Scopes,
		},
		users:      store,
		httpClient: httpClient,
		logger:     log.WithFields(map[string]interface{}{"component": "auth-oauth", "provider": p.Method}),
	}
}

func (v *OAuthVerifier) Method() Method { return v.provider.Method }

// AuthCodeURL is the provider consent URL for state.
func (v *OAuthVerifier) AuthCodeURL(state string) string {
	return v.oauth.AuthCodeURL(state, v.provider.AuthParams...)
}

func (v *OAuthVerifier) Verify(ctx context.Context, attempt Attempt) (*Identity, error) {
	oa, ok := attempt.(OAuthAttempt)
	if !ok || oa.Provider != v.provider.Method {
		return nil, &AuthError{Method: v.provider.Method, Reason: "unexpected attempt type"}
	}
	if oa.Code == "" {
		return nil, &AuthError{Method: v.provider.Method, Reason: "missing authorization code"}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	token, err := v.oauth.Exchange(ctx, oa.Code)
	if err != nil {
		return nil, &AuthError{Method: v.provider.Method, Reason: "Failed to exchange authorization code", Err: err}
	}

	info, err := v.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, &AuthError{Method: v.provider.Method, Reason: "Failed to retrieve user profile", Err: err}
	}
	if info.Subject == "" {
		return nil, &AuthError{Method: v.provider.Method, Reason: "profile has no subject"}
	}
	if v.provider.RequireEmail && info.Email == "" {
		return nil, &AuthError{Method: v.provider.Method, Reason: "No email address returned by provider"}
	}

	name := info.Name
	if name == "" {
		name = strings.TrimSpace(info.GivenName + " " + info.FamilyName)
	}

	u, isNew, err := v.users.FindOrCreateOAuth(ctx, models.OAuthAccount{
		Provider:          v.provider.Method,
		ProviderAccountID: info.Subject,
		Email:             info.Email,
		Name:              name,
		Image:             info.Picture,
		EmailVerified:     info.EmailVerified,
	})
	if err != nil {
		return nil, &AuthError{Method: v.provider.Method, Reason: "Failed to resolve user", Err: err}
	}

	v.logger.Info("oauth sign-in verified", map[string]interface{}{
		"userId":    u.ID,
		"isNewUser": isNew,
	})
	return identityFromUser(u, v.provider.Method, isNew), nil
}

func (v *OAuthVerifier) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.provider.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute userinfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return &info, nil
}
