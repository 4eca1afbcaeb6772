// client.go contains the http plumbing for the listing site, it knows nothing
// about the markup of individual pages.

package yahoo

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"dividend-backend/lib/restyutil"
	"dividend-backend/lib/scraper"
	"dividend-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://finance.yahoo.com"

// Endpoints are fmt patterns relative to the base url. History receives the
// ticker, the start and the end of the window in unix seconds, Summary
// receives the ticker twice.
type Endpoints struct {
	History string `json:"history"`
	Summary string `json:"summary"`
}

// Selectors locate the elements the extractors read from.
type Selectors struct {
	HistoryTable string `json:"history_table"`
	Title        string `json:"title"`
}

var DefaultEndpoints = Endpoints{
	History: "/quote/%s/history/?frequency=1mo&period1=%d&period2=%d",
	Summary: "/quote/%s?p=%s",
}

var DefaultSelectors = Selectors{
	HistoryTable: "table.yf-ewueuo",
	Title:        ".yf-3a2v0c",
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl   string
	Endpoints Endpoints
	Selectors Selectors
	// timeout of a single request, defaults to 30 seconds
	Timeout time.Duration
	// defaults to 2
	RequestsPerSecond float64
	// unix seconds the history window starts at, defaults to 86400
	HistoryStart int64
	UserAgent    string
	// end of the history window, defaults to time.Now
	Now func() time.Time

	DisableCloudflareBypass bool
	// optional, receives every raw exchange
	InstrumentOutput restyutil.InstrumentOutput
}

// Client implements scraper.Scraper over the public listing pages.
type Client struct {
	http         *resty.Client
	endpoints    Endpoints
	selectors    Selectors
	historyStart int64
	now          func() time.Time
}

var _ scraper.Scraper = (*Client)(nil)

func withDefaults(opts ClientOptions) ClientOptions {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Endpoints.History == "" {
		opts.Endpoints.History = DefaultEndpoints.History
	}
	if opts.Endpoints.Summary == "" {
		opts.Endpoints.Summary = DefaultEndpoints.Summary
	}
	if opts.Selectors.HistoryTable == "" {
		opts.Selectors.HistoryTable = DefaultSelectors.HistoryTable
	}
	if opts.Selectors.Title == "" {
		opts.Selectors.Title = DefaultSelectors.Title
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.HistoryStart <= 0 {
		opts.HistoryStart = 86400
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

func NewClient(opts ClientOptions) (*Client, error) {
	opts = withDefaults(opts)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseUrl)
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseUrl, "/"))
	if !opts.DisableCloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml")
	client.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(baseUrl.Hostname()),
	)
	client.SetTimeout(opts.Timeout)

	// max burst >= 1 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "dividend.lib.scrapers.yahoo/http")
	restyutil.InstrumentClient(client, opts.InstrumentOutput)

	return &Client{
		http:         client,
		endpoints:    opts.Endpoints,
		selectors:    opts.Selectors,
		historyStart: opts.HistoryStart,
		now:          opts.Now,
	}, nil
}

func (c *Client) historyPath(ticker string) string {
	return fmt.Sprintf(
		c.endpoints.History,
		url.PathEscape(ticker),
		c.historyStart,
		c.now().Unix(),
	)
}

func (c *Client) summaryPath(ticker string) string {
	return fmt.Sprintf(
		c.endpoints.Summary,
		url.PathEscape(ticker),
		url.QueryEscape(ticker),
	)
}

// get performs the request and classifies the failures that are common to
// every page: transport errors, 404s and the symbol lookup redirect.
func (c *Client) get(ctx context.Context, path string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", scraper.ErrTransport, path, err)
	}

	if res.StatusCode() == 404 || redirectedToLookup(res) {
		return nil, fmt.Errorf("%w: get %s: status %d", scraper.ErrNotFound, path, res.StatusCode())
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: get %s: status %s", scraper.ErrTransport, path, res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", scraper.ErrStructure, path, err)
	}
	return doc, nil
}

// unknown symbols are redirected to the symbol search page instead of a 404
func redirectedToLookup(res *resty.Response) bool {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return false
	}
	return strings.HasPrefix(res.RawResponse.Request.URL.Path, "/lookup")
}
