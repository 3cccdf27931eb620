package workflow

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
	"github.com/mamadbah2/caskwarehouse/internal/report"
	"github.com/mamadbah2/caskwarehouse/internal/repository/sheets"
	"github.com/mamadbah2/caskwarehouse/internal/service/alerting"
	"github.com/mamadbah2/caskwarehouse/internal/service/attestation"
)

// ProofOfReserve attests that physical casks back the token supply.
type ProofOfReserve struct {
	rt       *Runtime
	ledger   sheets.AttestationLedger
	notifier alerting.Notifier
	logger   *zap.Logger
}

// NewProofOfReserve builds the workflow. ledger and notifier are optional.
func NewProofOfReserve(rt *Runtime, ledger sheets.AttestationLedger, notifier alerting.Notifier) *ProofOfReserve {
	return &ProofOfReserve{
		rt:       rt,
		ledger:   ledger,
		notifier: notifier,
		logger:   rt.Logger.With(zap.String("workflow", NameProofOfReserve)),
	}
}

// Name implements Workflow.
func (w *ProofOfReserve) Name() string { return NameProofOfReserve }

// Run implements Workflow.
func (w *ProofOfReserve) Run(ctx context.Context, trigger Trigger) (Result, error) {
	cfg := w.rt.Config
	asOf := w.rt.SnapshotAsOf(trigger)

	inventory, err := w.rt.API.Inventory(ctx, asOf)
	if err != nil {
		return nil, err
	}
	supply, err := w.rt.ResolveTotalTokenSupply(ctx, w.logger)
	if err != nil {
		return nil, err
	}
	hash, err := report.ParseBytes32(inventory.AttestationHash, "attestationHash")
	if err != nil {
		return nil, err
	}

	count := int64(inventory.PhysicalCaskCount)
	fullyReserved := attestation.FullyReserved(count, cfg.TokensPerCask, supply)
	timestamp := units.Unix(asOf)

	w.logger.Info("inventory attested",
		zap.Int("active", inventory.PhysicalCaskCount),
		zap.String("attestation", inventory.AttestationHash))

	result := Result{
		"workflow":          NameProofOfReserve,
		"mode":              cfg.AttestationMode,
		"asOf":              units.FormatISO(asOf),
		"physicalCaskCount": inventory.PhysicalCaskCount,
		"totalTokenSupply":  supply.String(),
		"attestationHash":   inventory.AttestationHash,
	}

	var encoded []byte
	if cfg.AttestationMode == config.AttestationConfidential {
		encoded, err = report.EncodeReservePrivate(report.ReservePrivatePayload{
			IsFullyReserved: fullyReserved,
			Timestamp:       timestamp,
			AttestationHash: hash,
		})
		result["isFullyReserved"] = fullyReserved
	} else {
		ratio := attestation.ReserveRatioScaled(count, cfg.TokensPerCask, supply)
		encoded, err = report.EncodeReservePublic(report.ReservePublicPayload{
			PhysicalCaskCount: big.NewInt(count),
			TotalTokenSupply:  supply,
			TokensPerCask:     big.NewInt(cfg.TokensPerCask),
			ReserveRatio:      ratio,
			Timestamp:         timestamp,
			AttestationHash:   hash,
		})
		result["tokensPerCask"] = cfg.TokensPerCask
		result["reserveRatioScaled1e18"] = ratio.String()
	}
	if err != nil {
		return nil, err
	}
	result["reportBytes"] = len(encoded)

	submission, err := w.rt.SubmitReport(ctx, NameProofOfReserve, encoded, w.logger)
	if err != nil {
		return nil, err
	}
	submission.mergeInto(result)

	w.record(ctx, models.AttestationLogEntry{
		AsOf:              asOf,
		Mode:              cfg.AttestationMode,
		PhysicalCaskCount: inventory.PhysicalCaskCount,
		TotalTokenSupply:  supply.String(),
		ReserveRatio:      strconv.FormatFloat(attestation.ReserveRatio(count, cfg.TokensPerCask, supply), 'f', 6, 64),
		FullyReserved:     fullyReserved,
		AttestationHash:   inventory.AttestationHash,
		TxHash:            submission.TxHash,
	})

	if !fullyReserved && w.notifier != nil {
		err := w.notifier.NotifyShortfall(ctx, alerting.ReserveShortfall{
			AsOf:              asOf,
			PhysicalCaskCount: count,
			TokensPerCask:     cfg.TokensPerCask,
			TotalTokenSupply:  supply,
			AttestationHash:   inventory.AttestationHash,
		})
		if err != nil {
			w.logger.Warn("reserve alert failed", zap.Error(err))
		}
		result["alerted"] = err == nil
	}

	return result, nil
}

// record appends the ledger row. Ledger failures do not fail the attestation.
func (w *ProofOfReserve) record(ctx context.Context, entry models.AttestationLogEntry) {
	if w.ledger == nil {
		return
	}
	if err := w.ledger.AppendAttestation(ctx, entry); err != nil {
		w.logger.Warn("attestation ledger append failed", zap.Error(fmt.Errorf("sheets: %w", err)))
	}
}
