package profiles

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const report_service_rescan_stale = "service.rescan-stale"

type RescanStats struct {
	Succeeded int
	Failed    int
}

// RescanStale scrapes every profile that was never scanned or was last scanned more than
// olderThan ago, with at most `concurrency` scrapes in flight.
func (s *Service) RescanStale(ctx context.Context, olderThan time.Duration, concurrency int) (RescanStats, error) {
	ctx, span := tracer.Start(ctx, "RescanStale")
	defer span.End()

	if concurrency <= 0 {
		concurrency = 1
	}

	cutoff := s.time.Now().Add(-olderThan).Unix()
	rows, err := s.qry.ListProfilesScannedBefore(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		s.tel.ReportBroken(report_service_rescan_stale, err)
		return RescanStats{}, fmt.Errorf("list stale profiles: %w", err)
	}

	var succeeded, failed atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for _, row := range rows {
		profile := fromRow(row, s.time.Location())
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			_, err := s.ScrapeAndUpdate(groupCtx, profile)
			if err != nil {
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	err = group.Wait()

	stats := RescanStats{Succeeded: int(succeeded.Load()), Failed: int(failed.Load())}
	s.tel.ReportCount(report_service_rescan_stale, int64(len(rows)))
	s.tel.ReportDebug("rescanned stale profiles", stats.Succeeded, stats.Failed)
	return stats, err
}
