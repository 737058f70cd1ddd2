package main

import (
	"context"
	"log/slog"
	"time"
	"vigil-backend/internal/components/chrono"
)

func InitRescanDaemon(ctx context.Context, app App, cfg RescanConfig, initialRescan bool) error {
	olderThan := time.Duration(cfg.OlderThanHours) * time.Hour

	rescan := func() {
		stats, err := app.profiles.RescanStale(ctx, olderThan, cfg.Concurrency)
		if err != nil {
			slog.Warn("rescan stale profiles", "err", err)
			return
		}
		slog.Info("rescanned stale profiles", "succeeded", stats.Succeeded, "failed", stats.Failed)
	}

	cron := chrono.NewStandardCron(ctx, app.time, app.tel)
	err := cron.Cron(cfg.Schedule, rescan)
	if err != nil {
		return err
	}

	if initialRescan {
		go rescan()
	}
	return nil
}
