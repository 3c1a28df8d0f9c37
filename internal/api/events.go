package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "campus-engage/internal/common/errors"
	"campus-engage/internal/events"
	"campus-engage/internal/intent"
)

const messageEventsUnreachable = "Could not connect to NJIT events API."

// proxyEvents passes the validated upstream event page through.
func (s *Server) proxyEvents(c *gin.Context) {
	page, err := s.deps.EventSource.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		var stdErr *apperrors.StandardError
		if errors.As(err, &stdErr) && stdErr.Code == apperrors.ErrCodeUpstreamUnavailable {
			if status, ok := stdErr.Metadata[apperrors.MetaHTTPStatus].(int); ok {
				c.JSON(status, gin.H{"error": "Failed to fetch data from NJIT API"})
				return
			}
		}
		s.logger.Error("event proxy failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data"})
		return
	}

	if page.Value == nil {
		page.Value = []events.UpstreamEvent{}
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) searchEvents(c *gin.Context) {
	res, err := s.deps.Events.Search(c.Request.Context(), events.SearchRequest{
		Query:   c.Query("q"),
		Filters: events.ParseFilters(c.Query("filters")),
		Persona: c.Query("persona"),
	})
	if err != nil {
		s.eventsUnavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) residenceEvents(c *gin.Context) {
	res, err := s.deps.Events.ResidenceLife(c.Request.Context())
	if err != nil {
		s.eventsUnavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) eventsUnavailable(c *gin.Context, err error) {
	s.logger.Error("event search failed", map[string]interface{}{"error": err.Error()})
	c.JSON(http.StatusBadGateway, gin.H{
		"events":  []events.Event{},
		"message": messageEventsUnreachable,
	})
}

func (s *Server) suggest(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Suggestions.Suggest(c.Query("q"), c.Query("persona")))
}

func (s *Server) analyzeIntent(c *gin.Context) {
	q := c.Query("q")
	c.JSON(http.StatusOK, gin.H{
		"intent": intent.Analyze(q),
		"params": intent.GenerateQueryParams(q).Encode(),
	})
}
