package main

import (
	"flag"
	"log/slog"
	"vigil-backend/lib/configutil"
	"vigil-backend/lib/serviceutil"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialRescan := flag.Bool("rescan", false, "Rescan stale profiles immediately on run.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	cfg = cfg.withDefaults()

	app, err := InitApp(ctx, cfg, *verbose)
	if err != nil {
		serviceutil.Fatal("init app", err)
	}
	defer app.database.Close()

	err = InitRescanDaemon(ctx, app, cfg.Rescan, *initialRescan)
	if err != nil {
		serviceutil.Fatal("init rescan daemon", err)
	}

	go serviceutil.StartHttpServer(ctx, cfg.Port, app.router)
	<-ctx.Done()
	slog.Info("shutting down")
}
