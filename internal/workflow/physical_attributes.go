package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
	"github.com/mamadbah2/caskwarehouse/internal/report"
)

// PhysicalAttributes publishes gauge and estimate data for recently changed casks.
type PhysicalAttributes struct {
	rt     *Runtime
	logger *zap.Logger
}

// NewPhysicalAttributes builds the workflow.
func NewPhysicalAttributes(rt *Runtime) *PhysicalAttributes {
	return &PhysicalAttributes{rt: rt, logger: rt.Logger.With(zap.String("workflow", NamePhysicalAttributes))}
}

// Name implements Workflow.
func (w *PhysicalAttributes) Name() string { return NamePhysicalAttributes }

// Run implements Workflow.
func (w *PhysicalAttributes) Run(ctx context.Context, trigger Trigger) (Result, error) {
	maxBatch := w.rt.Config.PhysicalAttributes.MaxBatchSize
	asOf := w.rt.SnapshotAsOf(trigger)

	summary, err := w.rt.API.Summary(ctx, asOf)
	if err != nil {
		return nil, err
	}

	targetIDs := summary.RecentlyChangedCaskIDs
	if len(targetIDs) > maxBatch {
		targetIDs = targetIDs[:maxBatch]
	}

	batch, err := w.rt.API.CaskBatch(ctx, targetIDs, maxBatch, asOf)
	if err != nil {
		return nil, err
	}

	updates := make([]report.CaskAttributesInput, 0, len(batch.Items))
	caskIDs := make([]string, 0, len(batch.Items))
	for _, item := range batch.Items {
		update, err := report.MapBatchItem(item)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
		caskIDs = append(caskIDs, update.CaskID.String())
	}

	result := Result{
		"workflow":            NamePhysicalAttributes,
		"asOf":                units.FormatISO(asOf),
		"scannedSummaryCasks": summary.TotalCasks,
		"changedHintCount":    len(summary.RecentlyChangedCaskIDs),
		"selectedBatchCount":  len(updates),
	}

	if len(updates) == 0 {
		w.logger.Info("no casks returned by /casks/batch")
		result["submitted"] = false
		result["reason"] = "no-updates"
		return result, nil
	}

	encoded, err := report.EncodeCaskBatch(updates)
	if err != nil {
		return nil, err
	}
	submission, err := w.rt.SubmitReport(ctx, NamePhysicalAttributes, encoded, w.logger)
	if err != nil {
		return nil, err
	}

	w.logger.Info("cask batch reported",
		zap.Int("batch", len(updates)),
		zap.String("chain", submission.ChainSelectorName))

	result["batchCaskIds"] = caskIDs
	result["reportBytes"] = len(encoded)
	return submission.mergeInto(result), nil
}
