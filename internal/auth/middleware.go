package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"campus-engage/internal/common/logger"
	"campus-engage/internal/models"
)

const (
	DefaultCookieName = "campus_session"

	sessionContextKey = "auth.session"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// SessionLoader resolves a session token.
type SessionLoader interface {
	Get(ctx context.Context, token string) (*models.Session, error)
}

// SessionMiddleware attaches the session named by the cookie, if any, to
// the request context. It never rejects a request.
func SessionMiddleware(loader SessionLoader, cookie CookieConfig, log logger.Logger) gin.HandlerFunc {
	log = log.WithFields(map[string]interface{}{"component": "session-middleware"})
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sess, err := loader.Get(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(sessionContextKey, sess)
		case !errors.Is(err, ErrSessionNotFound):
			log.Warn("session lookup failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
		}
		c.Next()
	}
}

// CurrentSession returns the session attached by SessionMiddleware.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*models.Session)
	return sess, ok && sess != nil
}

// RequireSession rejects requests without a session with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func SetSessionCookie(c *gin.Context, cookie CookieConfig, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(c *gin.Context, cookie CookieConfig) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

var (
	protectedPrefixes = []string{"/onboarding", "/dashboard", "/profile"}
	signInPages       = []string{"/auth/login", "/auth/register"}
	diagnosticPages   = []string{"/auth/debug", "/auth/error", "/auth/linkedin-config-checker"}
	unguardedPrefixes = []string{"/api", "/_next/static", "/_next/image", "/favicon.ico", "/images", "/health", "/ready", "/metrics", "/organization-placeholder.svg"}
)

// PageGuard redirects page requests by session state: protected pages
// without a session go to the login page, sign-in pages with a session go
// to the dashboard. In development the checks only run when the query has
// auth_check. It must run after SessionMiddleware.
func PageGuard(development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if hasAnyPrefix(path, unguardedPrefixes) {
			c.Next()
			return
		}
		if development && !c.Request.URL.Query().Has("auth_check") {
			c.Next()
			return
		}
		if contains(diagnosticPages, path) {
			c.Next()
			return
		}

		_, signedIn := CurrentSession(c)

		if hasAnyPrefix(path, protectedPrefixes) && !signedIn {
			if strings.HasPrefix(path, "/onboarding") && (path != "/onboarding" || development) {
				c.Next()
				return
			}
			target := url.URL{Path: "/auth/login", RawQuery: url.Values{"callbackUrl": {path}}.Encode()}
			c.Redirect(http.StatusTemporaryRedirect, target.String())
			c.Abort()
			return
		}
		if contains(signInPages, path) && signedIn {
			c.Redirect(http.StatusTemporaryRedirect, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SafeRedirect returns target when it is a relative path or shares
// origin's scheme and host, otherwise "/".
func SafeRedirect(target, origin string) string {
	if target == "" {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil {
		return "/"
	}
	if !u.IsAbs() && u.Host == "" {
		if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
			return "/"
		}
		return target
	}
	o, err := url.Parse(origin)
	if err != nil || o.Host == "" {
		return "/"
	}
	if strings.EqualFold(u.Scheme, o.Scheme) && strings.EqualFold(u.Host, o.Host) {
		return target
	}
	return "/"
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
