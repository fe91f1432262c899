package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProvider_Disabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTracer_StartsSpanWithoutProvider(t *testing.T) {
	ctx, span := Tracer().Start(context.Background(), "enrich_item")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsSampled())
}
