package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newGormTestLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func selectVouchers() (string, int64) {
	return "SELECT * FROM disbursements WHERE check_voucher_number = $1", 1
}

func TestGormLoggerTrace(t *testing.T) {
	ctx := context.Background()

	t.Run("failed query logs at error", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Error)

		gl.Trace(ctx, time.Now(), selectVouchers, errors.New("connection reset"))

		entries := logs.FilterMessage("query failed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Contains(t, fields["sql"], "disbursements")
		assert.Equal(t, "connection reset", fields["error"])
	})

	t.Run("record not found is ignored by default", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Error)

		gl.Trace(ctx, time.Now(), selectVouchers, gormlogger.ErrRecordNotFound)

		assert.Zero(t, logs.Len())
	})

	t.Run("record not found logs when the option is disabled", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Error, WithIgnoreRecordNotFoundError(false))

		gl.Trace(ctx, time.Now(), selectVouchers, gormlogger.ErrRecordNotFound)

		assert.Equal(t, 1, logs.FilterMessage("query failed").Len())
	})

	t.Run("slow query warns with the threshold", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))

		gl.Trace(ctx, time.Now().Add(-50*time.Millisecond), selectVouchers, nil)

		entries := logs.FilterMessage("slow query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Contains(t, entries[0].ContextMap(), "slow_threshold")
	})

	t.Run("info level logs queries at debug", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Info)

		gl.Trace(ctx, time.Now(), selectVouchers, nil)

		entries := logs.FilterMessage("query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, int64(1), entries[0].ContextMap()["rows"])
	})

	t.Run("silent level suppresses everything", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Silent)

		gl.Trace(ctx, time.Now(), selectVouchers, errors.New("ignored"))

		assert.Zero(t, logs.Len())
	})

	t.Run("query logs carry the request id from context", func(t *testing.T) {
		gl, logs := newGormTestLogger(gormlogger.Info)
		reqCtx := context.WithValue(ctx, RequestIDKey, "req-123")

		gl.Trace(reqCtx, time.Now(), selectVouchers, nil)

		entries := logs.FilterMessage("query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	})
}

func TestGormLoggerLogMode(t *testing.T) {
	gl, logs := newGormTestLogger(gormlogger.Info)

	silenced := gl.LogMode(gormlogger.Silent)
	silenced.Trace(context.Background(), time.Now(), selectVouchers, nil)
	assert.Zero(t, logs.Len())

	// the original keeps its level
	gl.Trace(context.Background(), time.Now(), selectVouchers, nil)
	assert.Equal(t, 1, logs.FilterMessage("query").Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything-else"))
}
