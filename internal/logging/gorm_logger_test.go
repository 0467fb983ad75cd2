package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func traceQuery() (string, int64) {
	return "SELECT 1", 1
}

func TestGormLoggerSlowThresholdFromConfig(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, 50*time.Millisecond)

	l.Trace(context.Background(), time.Now().Add(-100*time.Millisecond), traceQuery, nil)

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "Slow database query", entries[0].Message)
	assert.Equal(t, (50 * time.Millisecond).String(),
		entries[0].ContextMap()["threshold"].(time.Duration).String())
}

func TestGormLoggerFastQueryBelowWarn(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, 50*time.Millisecond)

	l.Trace(context.Background(), time.Now(), traceQuery, nil)

	assert.Empty(t, logs.TakeAll(), "fast queries are below the Warn level")
}

func TestGormLoggerDefaultThreshold(t *testing.T) {
	l := NewGormLogger(zap.NewNop(), gormlogger.Warn, 0)
	assert.Equal(t, defaultSlowQueryThreshold, l.slowThreshold)
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, 50*time.Millisecond)

	l.Trace(context.Background(), time.Now(), traceQuery, gorm.ErrRecordNotFound)
	assert.Empty(t, logs.TakeAll())

	l.Trace(context.Background(), time.Now(), traceQuery, errors.New("connection reset"))
	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Database query failed", entries[0].Message)
}
