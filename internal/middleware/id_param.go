package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/response"
)

// UUIDParam answers 404 when the named path parameter is present but is not a
// hyphenated UUID. Routes without the parameter pass through.
func UUIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Params.Get(name)
		if !ok {
			c.Next()
			return
		}
		if _, err := uuid.Parse(value); err != nil || len(value) != 36 {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "resource not found"))
			c.Abort()
			return
		}
		c.Next()
	}
}
