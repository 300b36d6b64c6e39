package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"costs/internal/amqp"
	"costs/internal/core"
	"costs/internal/export"
	applog "costs/internal/log"
	"costs/internal/report"
)

// RecordLister reads every stored record.
type RecordLister interface {
	List(ctx context.Context) ([]core.Record, error)
}

// SyncWorker keeps export targets in step with the store: every change event
// re-exports the current month's report.
type SyncWorker struct {
	records   RecordLister
	exporters []export.Exporter
	now       func() time.Time
}

func NewSyncWorker(records RecordLister, exporters ...export.Exporter) *SyncWorker {
	return &SyncWorker{
		records:   records,
		exporters: exporters,
		now:       time.Now,
	}
}

// HandleEvent processes a single change event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	logger(ctx).InfoContext(ctx, "Processing change event",
		applog.FieldEvent, ev.Type,
		applog.FieldID, ev.ID,
		applog.FieldStore, ev.Store)

	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("sync after %s: %w", ev.Type, err)
	}
	return nil
}

// Sync exports the current month's report to every target. The store is read
// directly; other processes write to it.
func (w *SyncWorker) Sync(ctx context.Context) error {
	if len(w.exporters) == 0 {
		logger(ctx).WarnContext(ctx, "No export targets configured, skipping sync")
		return nil
	}

	records, err := w.records.List(ctx)
	if err != nil {
		return fmt.Errorf("get records from storage: %w", err)
	}

	now := w.now()
	summary, err := report.Summarize(records, strconv.Itoa(now.Year()), strconv.Itoa(int(now.Month())))
	if err != nil {
		return err
	}

	if err := export.All(ctx, summary, w.exporters...); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	logger(ctx).InfoContext(ctx, "Report synced",
		applog.FieldOperation, applog.OpExport,
		applog.FieldPeriod, summary.Period.String(),
		applog.FieldCount, len(summary.Records),
		"targets", len(w.exporters))
	return nil
}

// StartupSync pushes the report once so targets catch up on changes made
// while no watcher was running.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	logger(ctx).InfoContext(ctx, "Running startup sync", applog.FieldOperation, applog.OpStartup)
	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentExport)
}
