package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"costs/internal/amqp"
	"costs/internal/cache"
	"costs/internal/core"
	applog "costs/internal/log"
	"costs/internal/report"
	"costs/internal/storage"
)

// Publisher delivers change events. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.Event) error
}

// ExpenseService orchestrates expense operations across the store, the report
// cache and change events.
type ExpenseService struct {
	table     *storage.Table
	publisher Publisher
	reports   cache.Cache[report.Summary]
	now       func() time.Time
}

// NewExpenseService wires a service around an open table. publisher and
// reports may be nil.
func NewExpenseService(table *storage.Table, publisher Publisher, reports cache.Cache[report.Summary]) *ExpenseService {
	return &ExpenseService{
		table:     table,
		publisher: publisher,
		reports:   reports,
		now:       time.Now,
	}
}

// Record defaults and validates e, stores it and announces it.
func (s *ExpenseService) Record(ctx context.Context, e core.Expense) (core.Record, error) {
	logger := applog.FromContext(ctx)

	e = e.WithDefaults(s.now())
	if err := e.Validate(); err != nil {
		logger.Logger.DebugContext(ctx, "Expense rejected",
			applog.NewFields().
				WithComponent(applog.ComponentExpense).
				WithOperation(applog.OpValidate).
				WithError(err).
				ToSlice()...)
		return core.Record{}, err
	}

	id, err := s.table.Insert(ctx, e)
	if err != nil {
		return core.Record{}, fmt.Errorf("save expense: %w", err)
	}
	s.invalidate()

	logger.Logger.InfoContext(ctx, "Expense recorded",
		applog.NewFields().
			WithComponent(applog.ComponentExpense).
			WithOperation(applog.OpInsert).
			WithExpense(id, core.FormatSum(e.Sum), e.Category.String(), e.Description, e.Date.String()).
			ToSlice()...)

	s.publish(ctx, amqp.NewExpenseRecorded(s.table.Name(), id))

	return core.Record{ID: id, Expense: e}, nil
}

// List returns every stored record ordered by date, then by ID.
func (s *ExpenseService) List(ctx context.Context) ([]core.Record, error) {
	records, err := s.table.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	slices.SortStableFunc(records, func(a, b core.Record) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	applog.FromContext(ctx).WithComponent(applog.ComponentStorage).DebugContext(ctx, "Expenses listed",
		applog.FieldOperation, applog.OpList,
		applog.FieldStore, s.table.Name(),
		applog.FieldCount, len(records))
	return records, nil
}

// Report summarizes the given month. Results are cached per month until the
// next write.
func (s *ExpenseService) Report(ctx context.Context, year, month string) (report.Summary, error) {
	p, err := report.ParsePeriod(year, month)
	if err != nil {
		return report.Summary{}, err
	}

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentReport)

	key := p.String()
	if s.reports != nil {
		if cached, ok := s.reports.Get(key); ok {
			logger.DebugContext(ctx, "Report served from cache", applog.FieldPeriod, key)
			return cached.Clone(), nil
		}
	}

	records, err := s.List(ctx)
	if err != nil {
		return report.Summary{}, err
	}

	summary, err := report.Summarize(records, year, month)
	if err != nil {
		return report.Summary{}, err
	}

	if s.reports != nil {
		s.reports.Set(key, summary.Clone())
	}

	logger.DebugContext(ctx, "Report built",
		applog.FieldOperation, applog.OpReport,
		applog.FieldPeriod, key,
		applog.FieldCount, len(summary.Records),
		"fallback", summary.Fallback,
		"cached_reports", s.cachedReports())
	return summary, nil
}

// Clear deletes every record. Confirmation is the caller's concern.
func (s *ExpenseService) Clear(ctx context.Context) error {
	if err := s.table.Clear(ctx); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	s.invalidate()

	applog.FromContext(ctx).WithComponent(applog.ComponentExpense).InfoContext(ctx, "Expenses cleared",
		applog.FieldOperation, applog.OpClear,
		applog.FieldStore, s.table.Name())

	s.publish(ctx, amqp.NewCostsCleared(s.table.Name()))
	return nil
}

func (s *ExpenseService) cachedReports() int {
	if s.reports == nil {
		return 0
	}
	return s.reports.Size()
}

func (s *ExpenseService) invalidate() {
	if s.reports != nil {
		s.reports.Purge()
	}
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.Event) {
	logger := applog.FromContext(ctx)
	if s.publisher == nil {
		logger.WithComponent(applog.ComponentAMQP).DebugContext(ctx, "Event publisher not configured, skipping event", applog.FieldEvent, ev.Type)
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The write already succeeded
		fields := applog.NewFields().
			WithComponent(applog.ComponentAMQP).
			WithOperation(applog.OpPublish).
			WithStore(s.table.Name(), s.table.Version())
		fields = append(fields, applog.FieldEvent, ev.Type, applog.FieldID, ev.ID)
		logger.Logger.ErrorContext(ctx, "Failed to publish event", fields.WithError(err).ToSlice()...)
	}
}

// Close closes the table and the publisher when it holds a connection.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.table != nil {
		if err := s.table.Close(); err != nil && !errors.Is(err, storage.ErrNotOpen) {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
