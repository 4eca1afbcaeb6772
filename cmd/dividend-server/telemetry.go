package main

import (
	"context"
	"log/slog"

	"dividend-backend/lib/restyutil"
	"dividend-backend/lib/serviceutil"
	"dividend-backend/lib/telemetry"
)

// InitTelemetry sets up logging and exporters, the returned output is non-nil
// only in verbose mode.
func InitTelemetry(ctx context.Context, verbose bool) (telemetry.Telemetry, restyutil.InstrumentOutput) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	t, err := telemetry.SetupFromEnv(ctx, "dividend-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return t, nil
	}

	output, err := restyutil.NewFilesystemOutput("<dev_state>/resty/yahoo")
	if err != nil {
		slog.WarnContext(ctx, "failed to create resty output, http dumps disabled", "err", err)
		return t, nil
	}
	return t, output
}
