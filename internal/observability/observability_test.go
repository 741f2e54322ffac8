package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartServiceSpan(context.Background(), "post", "create")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}

func TestInitTracing_Stdout(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: true, Exporter: "stdout", SamplerRatio: 0.5})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestLikesToggledCounter(t *testing.T) {
	before := testutil.ToFloat64(LikesToggled.WithLabelValues("post", LikeResult(true)))
	LikesToggled.WithLabelValues("post", LikeResult(true)).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LikesToggled.WithLabelValues("post", "liked")))
	assert.Equal(t, "unliked", LikeResult(false))
}
