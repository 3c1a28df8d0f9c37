package api

import (
	"context"
	_ "embed"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

//go:embed assets/organization-placeholder.svg
var placeholderSVG []byte

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// ready runs every readiness check concurrently and reports each result.
func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(s.deps.Readiness))
	for name := range s.deps.Readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, check ReadinessCheck) {
			defer wg.Done()
			if err := check(ctx); err != nil {
				results[i] = err.Error()
				return
			}
			results[i] = "ok"
		}(i, s.deps.Readiness[name])
	}
	wg.Wait()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(names))
	for i, name := range names {
		checks[name] = results[i]
		if results[i] != "ok" {
			status, code = "not ready", http.StatusServiceUnavailable
		}
	}
	if code != http.StatusOK {
		s.logger.Warn("readiness check failed", map[string]interface{}{"checks": checks})
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) placeholder(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/svg+xml", placeholderSVG)
}
