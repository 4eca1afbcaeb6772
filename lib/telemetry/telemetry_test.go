package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestSetupForTestingOnce(t *testing.T) {
	cleanup := SetupForTesting(t, "test:telemetry")
	defer cleanup()

	// a second call for the same service is a no-op
	again := SetupForTesting(t, "test:telemetry")
	again()
}

func TestZeroTelemetryShutdown(t *testing.T) {
	require.NoError(t, Telemetry{}.Shutdown(context.Background()))
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := resty.New()
	client.SetBaseURL(server.URL)
	InstrumentResty(client, "test:telemetry/resty")

	res, err := client.R().SetContext(context.Background()).Get("/")
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())

	res, err = client.R().SetContext(context.Background()).Get("/missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode())
}
