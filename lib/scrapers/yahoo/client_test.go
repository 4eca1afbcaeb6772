package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"dividend-backend/lib/scraper"
	"dividend-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	historyHits atomic.Int32
	lastPeriod  atomic.Value
}

func (f *fakeSource) handler(t testing.TB) http.Handler {
	history, err := os.ReadFile("testdata/history.html")
	if err != nil {
		t.Fatal(err)
	}
	summary, err := os.ReadFile("testdata/summary.html")
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /quote/{ticker}/history/", func(w http.ResponseWriter, r *http.Request) {
		f.historyHits.Add(1)
		f.lastPeriod.Store([2]string{r.URL.Query().Get("period1"), r.URL.Query().Get("period2")})
		switch r.PathValue("ticker") {
		case "KO":
			w.Write(history)
		case "BROKEN":
			w.Write([]byte(`<html><body><p>we moved things around</p></body></html>`))
		case "DOWN":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("GET /quote/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("ticker") {
		case "AAPL":
			w.Write(summary)
		case "SLOW":
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		case "GONE":
			http.NotFound(w, r)
		default:
			http.Redirect(w, r, "/lookup?s="+r.PathValue("ticker"), http.StatusFound)
		}
	})
	mux.HandleFunc("GET /lookup", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Symbol Lookup from Yahoo Finance</title></head><body></body></html>`))
	})
	return mux
}

func newTestClient(t testing.TB) (*Client, *fakeSource, time.Time) {
	source := &fakeSource{}
	server := httptest.NewServer(source.handler(t))
	t.Cleanup(server.Close)

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	client, err := NewClient(ClientOptions{
		BaseUrl:                 server.URL,
		Timeout:                 time.Second,
		RequestsPerSecond:       100,
		Now:                     func() time.Time { return now },
		DisableCloudflareBypass: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client, source, now
}

func TestNewClientRejectsRelativeBaseUrl(t *testing.T) {
	_, err := NewClient(ClientOptions{BaseUrl: "/quote"})
	require.Error(t, err)
}

func TestHistoryWindowDefaultsToNow(t *testing.T) {
	client, err := NewClient(ClientOptions{
		BaseUrl:                 "http://127.0.0.1",
		DisableCloudflareBypass: true,
	})
	require.NoError(t, err)

	before := time.Now().Unix()
	path := client.historyPath("KO")
	after := time.Now().Unix()

	parsed, err := url.Parse(path)
	require.NoError(t, err)
	end, err := strconv.ParseInt(parsed.Query().Get("period2"), 10, 64)
	require.NoError(t, err)
	require.GreaterOrEqual(t, end, before)
	require.LessOrEqual(t, end, after)
	require.Equal(t, "86400", parsed.Query().Get("period1"))
}

func TestScrapeCompany(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/yahoo")
	defer cleanup()

	client, _, _ := newTestClient(t)
	ctx := context.Background()

	company, err := client.ScrapeCompany(ctx, " aapl ")
	require.NoError(t, err)
	require.Equal(t, scraper.Company{Ticker: "AAPL", Name: "Apple Inc."}, company)

	testCases := []struct {
		ticker   string
		expected error
	}{
		{ticker: "", expected: scraper.ErrInvalidTicker},
		{ticker: "GONE", expected: scraper.ErrNotFound},
		{ticker: "NOPE", expected: scraper.ErrNotFound},
		{ticker: "SLOW", expected: scraper.ErrTransport},
	}
	for _, test := range testCases {
		t.Run(test.ticker, func(t *testing.T) {
			_, err := client.ScrapeCompany(ctx, test.ticker)
			require.ErrorIs(t, err, test.expected)
		})
	}
}

func TestScrapeCompanyCancelled(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/yahoo")
	defer cleanup()

	client, _, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ScrapeCompany(ctx, "AAPL")
	require.ErrorIs(t, err, scraper.ErrTransport)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScrapeDividends(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/yahoo")
	defer cleanup()

	client, source, now := newTestClient(t)
	ctx := context.Background()

	company := scraper.Company{Ticker: "ko", Name: "Coca-Cola Company"}
	result, err := client.ScrapeDividends(ctx, company)
	require.NoError(t, err)
	require.Equal(t, scraper.Company{Ticker: "KO", Name: "Coca-Cola Company"}, result.Company)
	require.Len(t, result.Dividends, 4)
	require.Equal(t, "0.46", result.Dividends[0].Amount)
	require.Equal(t, "2023-11-30", result.Dividends[0].Date.String())

	period := source.lastPeriod.Load().([2]string)
	require.Equal(t, "86400", period[0])
	require.Equal(t, strconv.FormatInt(now.Unix(), 10), period[1])

	again, err := client.ScrapeDividends(ctx, company)
	require.NoError(t, err)
	require.Equal(t, result, again)
	require.EqualValues(t, 2, source.historyHits.Load())

	testCases := []struct {
		ticker   string
		expected error
	}{
		{ticker: "BROKEN", expected: scraper.ErrStructure},
		{ticker: "DOWN", expected: scraper.ErrTransport},
		{ticker: "MISSING", expected: scraper.ErrNotFound},
		{ticker: " ", expected: scraper.ErrInvalidTicker},
	}
	for _, test := range testCases {
		t.Run(test.ticker, func(t *testing.T) {
			_, err := client.ScrapeDividends(ctx, scraper.Company{Ticker: test.ticker})
			require.ErrorIs(t, err, test.expected)
		})
	}
}
