package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextRoundTrip(t *testing.T) {
	log := zap.NewNop()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))

	assert.NotPanics(t, func() {
		FromContext(context.Background()).Info("no-op")
	})
}

func TestWithRequestIDEnrichesLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx, enriched := WithRequestID(context.Background(), zap.New(core), "req-789")

	assert.Equal(t, "req-789", GetRequestID(ctx))

	enriched.Info("voucher check")
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-789", entries[0].ContextMap()["request_id"])
}

func TestContextLoggerInjectsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	ctx := WithContext(context.Background(), zap.New(core))
	ctx = context.WithValue(ctx, RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "user-9")

	L(ctx).Info("requisition approved")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-9", fields["user_id"])
}

func TestTraceIDsEmptyWithoutSpan(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))

	log := zap.NewNop()
	assert.Same(t, log, WithTraceContext(ctx, log))
}
