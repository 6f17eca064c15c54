package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

func TestSetup_Disabled(t *testing.T) {
	for _, cfg := range []*types.TelemetryConfig{nil, {Enabled: false, Endpoint: "localhost:4317"}} {
		shutdown, err := Setup(context.Background(), cfg, "test", nil)
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.NoError(t, shutdown(context.Background()))
	}
}

func TestSetup_Enabled(t *testing.T) {
	// gRPC exporters connect lazily, so setup succeeds without a collector.
	shutdown, err := Setup(context.Background(), &types.TelemetryConfig{
		Enabled:  true,
		Endpoint: "127.0.0.1:1",
		Insecure: true,
	}, "test", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
