package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

// SizeLimit caps request bodies at maxBytes. Declared lengths over the cap are rejected up front;
// chunked bodies fail when the handler reads past it.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			httputil.RespondWithStatusError(c, http.StatusRequestEntityTooLarge,
				apperrors.Validation(fmt.Sprintf("request body may not be greater than %d bytes", maxBytes), nil))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
