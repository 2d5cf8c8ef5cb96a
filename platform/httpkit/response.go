// Package httpkit carries the HTTP plumbing shared by every module: response
// helpers and the gin middleware stack. It holds no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"crmbulk_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// OK writes the payload with status 200.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Error writes an ErrorResponse with the given status.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// HandleError writes the response for a failed operation and reports whether
// there was an error to handle. Typed domain errors map their kind to a
// status code; an untyped error is treated as a bad request.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{Error: domainErr.Message, Details: domainErr.Details})
		return true
	}

	Error(c, http.StatusBadRequest, err.Error(), nil)
	return true
}
