package main

import (
	"context"
	"log/slog"
	"vigil-backend/internal/components/telemetry"
	"vigil-backend/lib/serviceutil"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	otel, err := telemetry.SetupFromEnv(ctx, "vigil-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		err := otel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx)
}
