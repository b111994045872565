package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*HeartbeatWorker)(nil)

type StatsSource interface {
	Snapshot() observability.Stats
}

// HeartbeatWorker logs a stats snapshot at a fixed interval.
type HeartbeatWorker struct {
	log      *slog.Logger
	source   StatsSource
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, source StatsSource, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, source: source, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats := w.source.Snapshot()
			w.log.Info("Relay heartbeat",
				"online", stats.Online,
				"connections", stats.Connections,
				"events_processed", stats.EventsProcessed,
				"events_dropped", stats.EventsDropped,
				"rss_mb", stats.RSSBytes/1024/1024,
				"cpu_percent", stats.CPUPercent,
			)
		}
	}
}
