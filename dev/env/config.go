package devenv

// LiveScrapeTestConfig enables the tests that hit the real listing site,
// it lives at dev/.state/live_scrape.json5.
type LiveScrapeTestConfig struct {
	BaseUrl string `json:"base_url"`
	Ticker  string `json:"ticker"`
}
