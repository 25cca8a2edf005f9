package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "run-1")
	require.Equal(t, "run-1", CorrelationID(ctx))
	require.Empty(t, CorrelationID(context.Background()))
	require.Equal(t, context.Background(), WithCorrelationID(context.Background(), ""))
}

func TestLoggerAddsCorrelationField(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	Logger(WithCorrelationID(context.Background(), "req-9"), base).Info().Msg("hello")
	require.Contains(t, buf.String(), `"correlation_id":"req-9"`)

	buf.Reset()
	Logger(context.Background(), base).Info().Msg("hello")
	require.NotContains(t, buf.String(), "correlation_id")
}
