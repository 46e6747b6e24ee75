package logging

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// runRequest sends a GET request through a router that uses the logging middleware.
func runRequest(log *zap.Logger, handler gin.HandlerFunc, url string) *httptest.ResponseRecorder {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(Middleware(log))
	router.GET("/test", handler)
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", url, nil)
	router.ServeHTTP(recorder, request)
	return recorder
}

// TestMiddleware expects one info entry with method, path and status for a successful request.
func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	runRequest(zap.New(core), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	}, "/test?name=ali")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/test", fields["path"])
	assert.Equal(t, "name=ali", fields["query"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
}

// TestMiddlewareServerError expects that a server error is logged at error level including the
// error attached to the gin context.
func TestMiddlewareServerError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	runRequest(zap.New(core), func(c *gin.Context) {
		_ = c.Error(errors.New("connection refused"))
		c.AbortWithStatus(http.StatusInternalServerError)
	}, "/test")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.ErrorLevel, entry.Level)
	assert.Contains(t, entry.ContextMap()["errors"], "connection refused")
}

// TestNewWithFile expects that log entries end up in the configured file.
func TestNewWithFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "service.log")
	log := New(Options{Verbose: true, File: file})
	log.Debug("written to file", zap.String("key", "value"))
	_ = log.Sync()

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to file")
	assert.Contains(t, string(content), `"key":"value"`)
}

// TestNewLevel expects that debug messages are only enabled in verbose mode.
func TestNewLevel(t *testing.T) {
	assert.False(t, New(Options{}).Core().Enabled(zap.DebugLevel))
	assert.True(t, New(Options{Verbose: true}).Core().Enabled(zap.DebugLevel))
}
