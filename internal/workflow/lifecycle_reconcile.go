package workflow

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
	"github.com/mamadbah2/caskwarehouse/internal/report"
)

// Selection modes of the reconcile workflow.
const (
	SelectWindowOldest   = "window-oldest"
	SelectLatestFallback = "latest-fallback"
)

// LifecycleReconcile replays one lifecycle event per run so the contract
// catches up with transitions it may have missed.
type LifecycleReconcile struct {
	rt     *Runtime
	logger *zap.Logger
}

// NewLifecycleReconcile builds the workflow.
func NewLifecycleReconcile(rt *Runtime) *LifecycleReconcile {
	return &LifecycleReconcile{rt: rt, logger: rt.Logger.With(zap.String("workflow", NameLifecycleReconcile))}
}

// Name implements Workflow.
func (w *LifecycleReconcile) Name() string { return NameLifecycleReconcile }

// Run implements Workflow.
func (w *LifecycleReconcile) Run(ctx context.Context, trigger Trigger) (Result, error) {
	cfg := w.rt.Config.LifecycleReconcile
	asOf := w.rt.SnapshotAsOf(trigger)

	recent, err := w.rt.API.RecentLifecycle(ctx, cfg.ScanLimit, asOf)
	if err != nil {
		return nil, err
	}

	result := Result{
		"workflow": NameLifecycleReconcile,
		"asOf":     units.FormatISO(asOf),
	}

	if len(recent.Events) == 0 {
		w.logger.Info("no lifecycle events found")
		result["scannedEvents"] = 0
		result["submitted"] = false
		result["reason"] = "no-events"
		return result, nil
	}

	window := time.Duration(cfg.ReconcileWindowHours) * time.Hour
	next, mode := SelectReconcileEvent(recent.Events, asOf, window)

	payload, err := report.MapLifecycleEvent(next)
	if err != nil {
		return nil, err
	}
	encoded, err := report.EncodeLifecycle(payload)
	if err != nil {
		return nil, err
	}
	submission, err := w.rt.SubmitReport(ctx, NameLifecycleReconcile, encoded, w.logger)
	if err != nil {
		return nil, err
	}

	w.logger.Info("lifecycle event replayed",
		zap.Int("scanned", recent.Count),
		zap.String("mode", mode),
		zap.Int("cask_id", next.CaskID),
		zap.String("to", string(next.ToState)))

	result["scannedEvents"] = recent.Count
	result["nextEvent"] = map[string]any{
		"caskId":    next.CaskID,
		"toState":   next.ToState,
		"timestamp": units.FormatISO(next.Timestamp),
	}
	result["selectionMode"] = mode
	result["reportBytes"] = len(encoded)
	return submission.mergeInto(result), nil
}

// SelectReconcileEvent picks the oldest event inside [asOf-window, ...], or the
// newest event overall when none fall inside the window. events must be non-empty.
func SelectReconcileEvent(events []models.LifecycleEvent, asOf time.Time, window time.Duration) (models.LifecycleEvent, string) {
	ordered := make([]models.LifecycleEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	windowStart := asOf.Add(-window)
	for _, event := range ordered {
		if !event.Timestamp.Before(windowStart) {
			return event, SelectWindowOldest
		}
	}
	return ordered[len(ordered)-1], SelectLatestFallback
}
