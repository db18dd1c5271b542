package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextLoggerRoundTrip(t *testing.T) {
	base := zap.NewNop()

	ctx := WithContext(context.Background(), base)
	assert.Same(t, base, FromContext(ctx))

	t.Run("missing logger falls back to no-op", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	ctx, enriched := WithRequestID(context.Background(), zap.New(core), "req-42")
	enriched.Info("tracking lookup")

	assert.Equal(t, "req-42", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
}

func TestWithAdminID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	ctx, enriched := WithAdminID(context.Background(), zap.New(core), "clerk@roads.gov.na")
	enriched.Info("status updated")

	assert.Equal(t, "clerk@roads.gov.na", GetAdminID(ctx))
	assert.Equal(t, "clerk@roads.gov.na", logs.All()[0].ContextMap()["admin_id"])
}

func TestGettersOnEmptyContext(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetAdminID(context.Background()))
}
