package logctx_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/delegate-expiry/internal/observability"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l *fieldLogger) With(fields ...observability.Field) observability.Logger {
	return &fieldLogger{Logger: l.Logger, fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}

func (l *fieldLogger) value(key string) (any, bool) {
	for _, f := range l.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func TestFromOrFallsBack(t *testing.T) {
	fallback := observability.NopLogger()
	assert.Equal(t, fallback, logctx.FromOr(context.Background(), fallback))

	stored := &fieldLogger{Logger: observability.NopLogger()}
	ctx := logctx.With(context.Background(), stored)
	assert.Same(t, stored, logctx.FromOr(ctx, fallback))
}

func TestWithIgnoresNilLogger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, logctx.With(ctx, nil))
	assert.Nil(t, logctx.From(ctx))
}

func TestWithEventAddsIdentifiers(t *testing.T) {
	base := &fieldLogger{Logger: observability.NopLogger()}

	ctx, logger := logctx.WithEvent(context.Background(), base, map[string]string{
		"event":     "heartbeat",
		"component": "",
	})

	l, ok := logger.(*fieldLogger)
	require.True(t, ok)
	id, ok := l.value("event_id")
	require.True(t, ok)
	assert.NotEmpty(t, id)

	name, _ := l.value("event")
	assert.Equal(t, "heartbeat", name)
	_, ok = l.value("component")
	assert.False(t, ok)
	_, ok = l.value("trace_id")
	assert.False(t, ok)

	assert.Same(t, l, logctx.From(ctx))
}

func TestWithEventKeepsGivenID(t *testing.T) {
	base := &fieldLogger{Logger: observability.NopLogger()}
	_, logger := logctx.WithEvent(context.Background(), base, map[string]string{"event_id": "evt-1"})

	id, _ := logger.(*fieldLogger).value("event_id")
	assert.Equal(t, "evt-1", id)
}
