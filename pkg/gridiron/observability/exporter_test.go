package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracing_NoSinks(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Global provider untouched, shutdown is a no-op
	assert.Equal(t, before, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_Stdout(t *testing.T) {
	buf := &bytes.Buffer{}

	shutdown, err := InitTracing(context.Background(), TracingConfig{
		ServiceName:   "gridiron-test",
		StdoutEnabled: true,
		StdoutWriter:  buf,
	})
	require.NoError(t, err)

	// Emit one span through the installed provider
	_, span := otel.Tracer("gridiron-test").Start(context.Background(), "test-span")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "test-span")
}
