package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestTraceID_NoSpan(t *testing.T) {
	_, ok := TraceID(context.Background())
	assert.False(t, ok)
}

func TestInitExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(&buf, "test")
	require.NoError(t, err)

	ctx, span := Start(context.Background(), "review.test", attribute.String("symbol", "AAPL"))
	id, ok := TraceID(ctx)
	assert.True(t, ok)
	assert.Len(t, id, 32)

	_, child := Start(ctx, "review.child")
	Fail(child, errors.New("boom"))
	Fail(child, nil)
	child.End()
	span.End()

	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "review.test")
	assert.Contains(t, out, "review.child")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, id)
}
