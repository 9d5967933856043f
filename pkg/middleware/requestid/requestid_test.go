package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, incoming string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(headerKey, incoming)
	}
	r.ServeHTTP(rec, req)
	return seen, rec.Header().Get(headerKey)
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	seen, header := serve(t, "edge-7f3a")
	assert.Equal(t, "edge-7f3a", seen)
	assert.Equal(t, "edge-7f3a", header)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	seen, header := serve(t, "")
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, header)
}

func TestMiddlewareReplacesUnsafeID(t *testing.T) {
	seen, _ := serve(t, "bad id\twith spaces")
	assert.NotEqual(t, "bad id\twith spaces", seen)

	seen, _ = serve(t, strings.Repeat("a", maxLength+1))
	assert.Len(t, seen, 36)
}
