package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestUUIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reached := 0
	r := gin.New()
	events := r.Group("/events", UUIDParam("id"))
	events.GET("", func(c *gin.Context) { reached++; c.Status(http.StatusOK) })
	events.GET("/:id", func(c *gin.Context) { reached++; c.Status(http.StatusOK) })

	cases := []struct {
		path   string
		status int
	}{
		{"/events", http.StatusOK},
		{"/events/3f6e2b1a-9c8d-4e7f-b6a5-d4c3b2a1f0e9", http.StatusOK},
		{"/events/ev-1", http.StatusNotFound},
		{"/events/3f6e2b1a9c8d4e7fb6a5d4c3b2a1f0e9", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, tc.path)
	}
	assert.Equal(t, 2, reached)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/ev-1", nil))
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}
