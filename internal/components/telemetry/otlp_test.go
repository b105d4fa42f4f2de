package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetupOtelDisabled(t *testing.T) {
	o, err := SetupOtel(context.Background(), "test", OtlpConfig{})
	require.NoError(t, err)
	require.Nil(t, o.TracerProvider)
	require.Nil(t, o.MeterProvider)
	require.NoError(t, o.Shutdown(context.Background()))
}

func TestSetupOtelTraces(t *testing.T) {
	o, err := SetupOtel(context.Background(), "test", OtlpConfig{
		Traces: OtlpConnConfig{HttpEndpoint: "http://127.0.0.1:4318/v1/traces"},
	})
	require.NoError(t, err)
	require.NotNil(t, o.TracerProvider)
	require.Nil(t, o.MeterProvider)
	// nothing was traced so nothing has to be exported on shutdown
	require.NoError(t, o.Shutdown(context.Background()))
}

func TestInstrumentPerfStats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := NewRecorder()
	InstrumentPerfStats(ctx, 10*time.Millisecond, recorder)

	require.Eventually(t, func() bool {
		return len(recorder.Reports("count")) >= 2
	}, 5*time.Second, 10*time.Millisecond)
}
