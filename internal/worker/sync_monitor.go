package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/oncall-roster/internal/events"
	"github.com/spec-kit/oncall-roster/internal/observability"
)

// StartSyncMonitor subscribes to sync-layer events and turns them into
// logs and counters. Nothing awaits these observations; degraded mode
// and write-back failures are visible here and nowhere else.
func StartSyncMonitor(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) {
	if dispatcher == nil {
		return
	}

	dispatcher.Subscribe(events.EventSyncDegraded, func(_ context.Context, event events.Event) error {
		metrics.RecordFallback(event.Operation)
		logger.Warn("remote store unavailable; serving local fallback",
			zap.String("operation", event.Operation),
			zap.String("detail", event.Detail),
		)
		return nil
	})

	dispatcher.Subscribe(events.EventDocumentMigrated, func(_ context.Context, event events.Event) error {
		logger.Info("document migrated to canonical shape",
			zap.String("operation", event.Operation),
		)
		return nil
	})

	dispatcher.Subscribe(events.EventWriteBackFailed, func(_ context.Context, event events.Event) error {
		logger.Warn("post-migration write-back failed",
			zap.String("detail", event.Detail),
		)
		return nil
	})

	dispatcher.Subscribe(events.EventDocumentReset, func(_ context.Context, event events.Event) error {
		logger.Info("document reset", zap.String("detail", event.Detail))
		return nil
	})
}
