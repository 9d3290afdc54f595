package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencommune/mairie-api/internal/models"
)

// SendErrorResponse sends an error JSON response. The HTTP status is derived
// from the error code so the two can never disagree.
func SendErrorResponse(c *gin.Context, errCode, message, details string) {
	c.JSON(models.HTTPStatusForErrorCode(errCode), models.NewErrorResponse(errCode, message, details))
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendNoContentResponse sends a 204 No Content response
func SendNoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorResponse(c, models.ErrCodeBadRequest, message, details)
}

// SendNotFoundError sends a 404 Not Found error
func SendNotFoundError(c *gin.Context, message string) {
	SendErrorResponse(c, models.ErrCodeNotFound, message, "")
}

// SendConflictError sends a 409 Conflict error
func SendConflictError(c *gin.Context, message string) {
	SendErrorResponse(c, models.ErrCodeConflict, message, "")
}

// SendInternalServerError sends a 500 Internal Server Error. Callers must
// pass a generic details string; internal error text is logged, never
// returned to the client.
func SendInternalServerError(c *gin.Context, message, details string) {
	SendErrorResponse(c, models.ErrCodeInternalError, message, details)
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details string) {
	SendErrorResponse(c, models.ErrCodeValidationError, "Validation failed", details)
}

// GetCorrelationIDFromContext extracts the correlation ID set by middleware
func GetCorrelationIDFromContext(c *gin.Context) string {
	correlationID, exists := c.Get("correlationID")
	if !exists {
		return ""
	}
	return correlationID.(string)
}
