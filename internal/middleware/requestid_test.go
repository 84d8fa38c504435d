package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/simp-lee/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestIDEcho struct {
	Gin string `json:"gin"`
	Log string `json:"log"`
}

// serveRequestID runs one request and returns the id seen by the handler
// through gin and through the logging context, plus the response header.
func serveRequestID(t *testing.T, cfg RequestIDConfig, upstream string) (requestIDEcho, string) {
	t.Helper()
	r := gin.New()
	r.Use(RequestIDWithConfig(cfg))
	r.GET("/api/v1/crud/:namespace", func(c *gin.Context) {
		echo := requestIDEcho{Gin: GetRequestID(c)}
		for _, a := range logger.FromContext(c.Request.Context()) {
			if a.Key == "request_id" {
				echo.Log = a.Value.String()
			}
		}
		c.JSON(http.StatusOK, echo)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/crud/ns.orders", nil)
	if upstream != "" {
		req.Header.Set(requestIDHeader, upstream)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var echo requestIDEcho
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &echo))
	return echo, w.Header().Get(requestIDHeader)
}

func TestRequestID_Generated(t *testing.T) {
	echo, header := serveRequestID(t, RequestIDConfig{}, "")

	_, err := ulid.ParseStrict(echo.Gin)
	require.NoError(t, err)
	assert.Equal(t, echo.Gin, header)
	assert.Equal(t, echo.Gin, echo.Log)
}

func TestRequestID_Upstream(t *testing.T) {
	tests := []struct {
		name     string
		trust    bool
		upstream string
		reused   bool
	}{
		{"untrusted by default", false, "edge-7f3a", false},
		{"trusted and valid", true, "edge-7f3a", true},
		{"trusted at 64 chars", true, strings.Repeat("a", 64), true},
		{"trusted but 65 chars", true, strings.Repeat("a", 65), false},
		{"trusted but underscore", true, "edge_7f3a", false},
		{"trusted but spaces", true, "edge 7f3a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			echo, header := serveRequestID(t, RequestIDConfig{TrustUpstream: tt.trust}, tt.upstream)
			assert.Equal(t, header, echo.Gin)
			assert.Equal(t, header, echo.Log)
			if tt.reused {
				assert.Equal(t, tt.upstream, header)
				return
			}
			assert.NotEqual(t, tt.upstream, header)
			_, err := ulid.ParseStrict(header)
			assert.NoError(t, err)
		})
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	seen := make(map[string]struct{}, 100)
	for range 100 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		_, dup := seen[w.Body.String()]
		require.False(t, dup, "duplicate id %q", w.Body.String())
		seen[w.Body.String()] = struct{}{}
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetRequestID(c))

	c.Set(requestIDContextKey, 42)
	assert.Empty(t, GetRequestID(c), "non-string values are ignored")
}
