package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/opencommune/mairie-api/pkg/utils"
)

const correlationHeader = "X-Correlation-ID"

// CorrelationID propagates the caller's correlation id, generating one when
// the header is missing. The id is echoed back on the response.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(correlationHeader)
		if correlationID == "" {
			correlationID = utils.GenerateID()
		}

		c.Set("correlationID", correlationID)
		c.Writer.Header().Set(correlationHeader, correlationID)

		c.Next()
	}
}
