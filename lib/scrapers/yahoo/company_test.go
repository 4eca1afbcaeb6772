package yahoo

import (
	"testing"

	"dividend-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestDeriveCompanyName(t *testing.T) {
	testCases := []struct {
		title    string
		expected string
	}{
		{title: "Apple Inc. (AAPL)", expected: "Apple Inc."},
		{title: "AAPL - Apple Inc.", expected: "AAPL"},
		{title: "Coca-Cola Company", expected: "Coca-Cola Company"},
		{title: "  Microsoft Corporation  ", expected: "Microsoft Corporation"},
		{title: "Coca-Cola Company (The) (KO)", expected: "Coca-Cola Company"},
		{title: "", expected: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, DeriveCompanyName(test.title), test.title)
	}
}

func TestTitleText(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/yahoo")
	defer cleanup()

	client, err := NewClient(ClientOptions{DisableCloudflareBypass: true})
	require.NoError(t, err)

	require.Equal(t, "Apple Inc. (AAPL)", client.titleText(readFixture(t, "summary.html")))

	fallback := parseHtml(t, `<html><head><title>Tesla, Inc. (TSLA) Stock Price</title></head><body></body></html>`)
	require.Equal(t, "Tesla, Inc. (TSLA) Stock Price", client.titleText(fallback))

	empty := parseHtml(t, `<html><body></body></html>`)
	require.Equal(t, "", client.titleText(empty))
}
