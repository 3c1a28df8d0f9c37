// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns errors returned by services into HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorBody is the JSON shape written for a failed request.
type ErrorBody struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable,omitempty"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond normalizes err, logs it and writes the status and body.
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr)

	h.logError(c, stdErr, status)

	c.AbortWithStatusJSON(status, ErrorBody{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Retryable: stdErr.Retryable,
	})
}

// Normalize ensures we always have a StandardError
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal server error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"path":          c.Request.URL.Path,
		"method":        c.Request.Method,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= 500 {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
