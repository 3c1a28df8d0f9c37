package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-engage/internal/auth"
	apperrors "campus-engage/internal/common/errors"
	"campus-engage/internal/models"
)

func (s *Server) getProfile(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)

	p, err := s.deps.Profiles.Get(c.Request.Context(), sess.UserID)
	if err != nil {
		s.errors.Respond(c, apperrors.NewQueryExecutionFailedError("get_profile", err))
		return
	}
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Profile not found", "profile": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// syncProfile upserts the onboarding profile of the signed-in user. The
// body must be a JSON object.
func (s *Server) syncProfile(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)

	body, err := c.GetRawData()
	body = bytes.TrimSpace(body)
	if err != nil || len(body) == 0 || body[0] != '{' || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var p models.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	p.UserID = sess.UserID

	saved, err := s.deps.Profiles.Upsert(c.Request.Context(), &p)
	if err != nil {
		s.errors.Respond(c, apperrors.NewDatabaseInsertFailedError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile synced successfully",
		"profile": saved,
	})
}
