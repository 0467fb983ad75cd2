package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func loggedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/conflict", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error": "already completed"})
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("store unavailable"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
	return r, logs
}

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	r, logs := loggedRouter(t)

	for _, tc := range []struct {
		path    string
		level   zapcore.Level
		message string
	}{
		{"/ok", zap.DebugLevel, "Request served"},
		{"/conflict", zap.WarnLevel, "Request rejected"},
		{"/boom", zap.ErrorLevel, "Request failed"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

		entries := logs.TakeAll()
		require.Len(t, entries, 1, tc.path)
		assert.Equal(t, tc.level, entries[0].Level, tc.path)
		assert.Equal(t, tc.message, entries[0].Message, tc.path)
	}
}

func TestRequestLoggerFields(t *testing.T) {
	r, logs := loggedRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?window=morning", nil))

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ok", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "window=morning", fields["query"])
	assert.Greater(t, fields["bytes"], int64(0))
	assert.NotContains(t, fields, "errors")
}

func TestRequestLoggerAttachesHandlerErrors(t *testing.T) {
	r, logs := loggedRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["errors"], "store unavailable")
}
