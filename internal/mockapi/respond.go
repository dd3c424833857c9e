package mockapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/logger"
)

// respondData writes a successful envelope.
func respondData[T any](c *gin.Context, status int, data T) {
	c.JSON(status, api.Envelope[T]{Success: true, Data: data})
}

// respondError writes a failed envelope and logs it by severity.
func respondError(c *gin.Context, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		logger.Error("API error", "code", code, "message", message, "status", status, "path", c.Request.URL.Path)
	} else {
		logger.Debug("API error", "code", code, "message", message, "status", status, "path", c.Request.URL.Path)
	}
	c.JSON(status, api.Envelope[any]{
		Success: false,
		Error:   &api.ErrorBody{Code: code, Message: message},
	})
}

func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, "NOT_FOUND", resource+" not found")
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

func respondForbidden(c *gin.Context, message string) {
	respondError(c, http.StatusForbidden, "FORBIDDEN", message)
}

func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
