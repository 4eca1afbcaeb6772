package main

import (
	"context"
	"flag"

	"dividend-backend/lib/configutil"
	"dividend-backend/lib/scrapers/yahoo"
	"dividend-backend/lib/serviceutil"
	"dividend-backend/lib/sqliteutil"
	"dividend-backend/services/company"
	companydb "dividend-backend/services/company/db"
	"dividend-backend/services/finance"
	"dividend-backend/services/httpapi"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the config file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	t, instrumentOutput := InitTelemetry(ctx, *verbose)
	defer t.Shutdown(context.Background())

	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	db, err := sqliteutil.OpenDB(companydb.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer db.Close()

	cache, closeCache, err := InitCache(ctx, cfg.Cache)
	if err != nil {
		serviceutil.Fatal("init cache", err)
	}
	defer closeCache()

	scraper, err := yahoo.NewClient(yahoo.ClientOptions{
		BaseUrl:           cfg.Scraper.BaseUrl,
		Endpoints:         cfg.Scraper.Endpoints,
		Selectors:         cfg.Scraper.Selectors,
		Timeout:           cfg.Scraper.timeout(),
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		HistoryStart:      cfg.Scraper.HistoryStart,
		InstrumentOutput:  instrumentOutput,
	})
	if err != nil {
		serviceutil.Fatal("init scraper", err)
	}

	financeService := finance.NewService(
		scraper,
		company.NewLookup(db),
		cache,
		finance.WithScrapeTimeout(cfg.Scraper.timeout()),
	)
	companyService := company.NewService(db, financeService, financeService)

	handler := httpapi.NewHandler(financeService, companyService, httpapi.Options{
		AdminToken: cfg.AdminToken,
	})

	err = serviceutil.StartHttpServer(ctx, cfg.addr(), handler)
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}
