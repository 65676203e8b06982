package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{
		Attributes: map[string]string{"contest": "regional"},
	})
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestResourceAttributes(t *testing.T) {
	r, err := newResource("boca-cli", Config{
		Attributes: map[string]string{"contest": "regional"},
	})
	require.NoError(t, err)

	value, ok := r.Set().Value(attribute.Key("service.name"))
	require.True(t, ok)
	require.Equal(t, "boca-cli", value.AsString())
	value, ok = r.Set().Value(attribute.Key("contest"))
	require.True(t, ok)
	require.Equal(t, "regional", value.AsString())
}

func TestSlogLevel(t *testing.T) {
	out := &bytes.Buffer{}
	logger := slog.New(NewSlogHandler(false, out))
	logger.Debug("hidden")
	logger.Info("shown")
	require.NotContains(t, out.String(), "hidden")
	require.Contains(t, out.String(), "shown")

	out.Reset()
	logger = slog.New(NewSlogHandler(true, out))
	logger.Debug("visible")
	require.Contains(t, out.String(), "visible")
}
