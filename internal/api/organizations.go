package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-engage/internal/avatar"
	"campus-engage/internal/buildings"
	apperrors "campus-engage/internal/common/errors"
	"campus-engage/internal/engage"
	"campus-engage/internal/imageproxy"
	"campus-engage/internal/orgsearch"
)

const (
	headerAggregationStatus = "X-Aggregation-Status"
	publicDayCache          = "public, max-age=86400"
)

// listOrganizations returns every organization as a JSON array. Later page
// failures still answer 200 with the status in a header; a first page
// failure answers with the upstream status.
func (s *Server) listOrganizations(c *gin.Context) {
	noStore(c)

	result, err := s.deps.Organizations.FetchOrganizations(c.Request.Context())
	if err != nil {
		stdErr := apperrors.Normalize(err)
		c.Header(headerAggregationStatus, string(engage.StatusAbortedFirstPage))
		s.logger.Error("organization aggregation failed", map[string]interface{}{
			"code":    string(stdErr.Code),
			"details": stdErr.Details,
		})
		c.JSON(apperrors.HTTPStatus(stdErr), gin.H{"message": stdErr.Message})
		return
	}

	c.Header(headerAggregationStatus, string(result.Status))
	c.JSON(http.StatusOK, result.Records)
}

func (s *Server) searchOrganizations(c *gin.Context) {
	if s.deps.Search == nil {
		s.errors.Respond(c, apperrors.NewSearchDisabledError())
		return
	}

	size, _ := strconv.Atoi(c.Query("size"))
	res, err := s.deps.Search.Search(c.Request.Context(), orgsearch.Query{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		Size:     size,
	})
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// organizationImage streams the image behind imageUrl, or sends the client
// to the placeholder when no source works.
func (s *Server) organizationImage(c *gin.Context) {
	img, err := s.deps.Images.Fetch(c.Request.Context(), c.Query("imageUrl"))
	if errors.Is(err, imageproxy.ErrMissingRef) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No URL provided"})
		return
	}
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, imageproxy.PlaceholderPath)
		return
	}

	c.Header("Cache-Control", publicDayCache)
	c.Data(http.StatusOK, img.ContentType, img.Body)
}

func (s *Server) organizationAvatar(c *gin.Context) {
	svg := avatar.SVG(c.Query("name"), avatar.ParseSize(c.Query("size")))
	c.Header("Cache-Control", publicDayCache)
	c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
}

func (s *Server) organizationCategories(c *gin.Context) {
	noStore(c)
	c.JSON(http.StatusOK, s.deps.Categories.Response())
}

func (s *Server) buildingLocation(c *gin.Context) {
	coords, err := s.deps.Buildings.Lookup(c.Query("name"))
	if errors.Is(err, buildings.ErrNameRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Building name is required"})
		return
	}
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coordinates": coords})
}

func (s *Server) majors(c *gin.Context) {
	data, err := s.deps.Majors.Load()
	if err != nil {
		s.logger.Error("majors unavailable", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load majors"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
