package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"campus-engage/internal/auth"
	apperrors "campus-engage/internal/common/errors"
)

const (
	newUserLanding = "/onboarding/step1"
	authErrorPage  = "/auth/error"
)

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl"`
}

func (s *Server) register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errors.Respond(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	user, err := s.deps.Registrar.Register(c.Request.Context(), req)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errors.Respond(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	id, err := s.deps.Auth.Verify(c.Request.Context(), auth.CredentialsAttempt{Email: req.Email, Password: req.Password})
	if err != nil {
		s.rejectSignIn(c, err)
		return
	}
	if !s.startSession(c, id) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": id,
		"url":  auth.SafeRedirect(req.CallbackURL, s.origin(c)),
	})
}

// oauthRedirect remembers where to return and sends the browser to the
// provider's consent page.
func (s *Server) oauthRedirect(c *gin.Context) {
	method := auth.Method(c.Param("provider"))
	provider, ok := s.deps.Auth.OAuthProvider(method)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unsupported provider"})
		return
	}

	state, err := s.deps.Sessions.SaveState(c.Request.Context(), auth.OAuthState{
		Provider:    method,
		CallbackURL: c.Query("callbackUrl"),
	})
	if err != nil {
		s.errors.Respond(c, apperrors.NewSessionStoreError(err))
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, provider.AuthCodeURL(state))
}

// oauthCallback completes a provider sign-in. Failures land on the auth
// error page with a short code.
func (s *Server) oauthCallback(c *gin.Context) {
	method := auth.Method(c.Param("provider"))
	if providerErr := c.Query("error"); providerErr != "" {
		s.logger.Warn("provider denied sign-in", map[string]interface{}{
			"provider": method,
			"error":    providerErr,
		})
		s.redirectAuthError(c, "AccessDenied")
		return
	}

	st, err := s.deps.Sessions.ConsumeState(c.Request.Context(), c.Query("state"))
	if err != nil || st.Provider != method {
		fields := map[string]interface{}{"provider": method}
		if err != nil {
			fields["error"] = err.Error()
		}
		s.logger.Warn("oauth state rejected", fields)
		s.redirectAuthError(c, "OAuthState")
		return
	}

	id, err := s.deps.Auth.Verify(c.Request.Context(), auth.OAuthAttempt{Provider: method, Code: c.Query("code")})
	if err != nil {
		s.logger.Warn("oauth sign-in failed", map[string]interface{}{
			"provider": method,
			"error":    err.Error(),
		})
		s.redirectAuthError(c, "OAuthCallback")
		return
	}
	if !s.startSession(c, id) {
		return
	}

	target := auth.SafeRedirect(st.CallbackURL, s.origin(c))
	if id.IsNewUser {
		target = newUserLanding
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(s.deps.Cookie.Name); err == nil && token != "" {
		if err := s.deps.Sessions.Delete(c.Request.Context(), token); err != nil {
			s.errors.Respond(c, apperrors.NewSessionStoreError(err))
			return
		}
	}
	auth.ClearSessionCookie(c, s.deps.Cookie)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// session describes the signed-in user, or answers an empty object.
func (s *Server) session(c *gin.Context) {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       sess.UserID,
			"email":    sess.Email,
			"name":     sess.Name,
			"image":    sess.Image,
			"provider": sess.Provider,
		},
		"expires": sess.ExpiresAt,
	})
}

func (s *Server) startSession(c *gin.Context, id *auth.Identity) bool {
	sess, err := s.deps.Sessions.Create(c.Request.Context(), id)
	if err != nil {
		s.errors.Respond(c, apperrors.NewSessionStoreError(err))
		return false
	}
	auth.SetSessionCookie(c, s.deps.Cookie, sess.Token)
	return true
}

func (s *Server) rejectSignIn(c *gin.Context, err error) {
	var authErr *auth.AuthError
	if !errors.As(err, &authErr) {
		s.errors.Respond(c, err)
		return
	}
	if authErr.Err != nil {
		s.logger.Error("sign-in failed", map[string]interface{}{
			"method": authErr.Method,
			"error":  authErr.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-in is temporarily unavailable"})
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Reason})
}

func (s *Server) redirectAuthError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, authErrorPage+"?"+url.Values{"error": {code}}.Encode())
}

// origin is the configured base URL, or the scheme and host of the request.
func (s *Server) origin(c *gin.Context) string {
	if s.deps.BaseURL != "" {
		return s.deps.BaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
