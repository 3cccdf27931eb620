package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/pkg/clients/chain"
)

// Runtime carries what every workflow shares: config, API access, chain access.
type Runtime struct {
	Config *config.WorkflowConfig
	API    WarehouseAPI
	// Chain is nil when no RPC endpoint is configured.
	Chain  Chain
	Logger *zap.Logger
	Now    func() time.Time
}

// NewRuntime fills in defaults for a nil logger or clock.
func NewRuntime(cfg *config.WorkflowConfig, api WarehouseAPI, chainClient Chain, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{Config: cfg, API: api, Chain: chainClient, Logger: logger, Now: time.Now}
}

// Submission is the outcome of handing an encoded report to the chain.
type Submission struct {
	Submitted         bool
	ChainSelectorName string
	TxStatus          *uint64
	TxHash            string
}

func (s Submission) mergeInto(r Result) Result {
	r["submitted"] = s.Submitted
	r["chainSelectorName"] = s.ChainSelectorName
	if s.TxStatus != nil {
		r["txStatus"] = *s.TxStatus
	}
	if s.TxHash != "" {
		r["txHash"] = s.TxHash
	}
	return r
}

// SnapshotAsOf returns the trigger's scheduled time, or now floored to the minute.
func (rt *Runtime) SnapshotAsOf(trigger Trigger) time.Time {
	if !trigger.ScheduledTime.IsZero() {
		return trigger.ScheduledTime.UTC().Truncate(time.Millisecond)
	}
	return rt.Now().UTC().Truncate(time.Minute)
}

// ResolveTotalTokenSupply reads totalMinted() on chain. A zero contract address,
// a zero reading or a failed read fall back to tokenSupplyUnits when configured.
func (rt *Runtime) ResolveTotalTokenSupply(ctx context.Context, logger *zap.Logger) (*big.Int, error) {
	fallback := rt.Config.TokenSupplyUnits

	if chain.IsZeroAddress(rt.Config.ContractAddress) {
		if fallback == nil {
			return nil, errors.New("contractAddress is zero and tokenSupplyUnits fallback is not configured")
		}
		logger.Warn("contractAddress is zero; using tokenSupplyUnits fallback", zap.Int64("token_supply", *fallback))
		return big.NewInt(*fallback), nil
	}

	minted, err := rt.totalMinted(ctx)
	if err != nil {
		if fallback == nil {
			return nil, err
		}
		logger.Warn("totalMinted read failed; using tokenSupplyUnits fallback",
			zap.Int64("token_supply", *fallback), zap.Error(err))
		return big.NewInt(*fallback), nil
	}

	if minted.Sign() == 0 && fallback != nil {
		logger.Warn("totalMinted is zero; using tokenSupplyUnits fallback", zap.Int64("token_supply", *fallback))
		return big.NewInt(*fallback), nil
	}
	return minted, nil
}

func (rt *Runtime) totalMinted(ctx context.Context) (*big.Int, error) {
	if rt.Chain == nil {
		return nil, errors.New("no chain client configured (rpcUrl is empty)")
	}
	return rt.Chain.TotalMinted(ctx)
}

// SubmitReport broadcasts an encoded report unless submitReports is off.
func (rt *Runtime) SubmitReport(ctx context.Context, workflowName string, encoded []byte, logger *zap.Logger) (Submission, error) {
	selector, err := chain.ResolveSelector(rt.Config.ChainSelector)
	if err != nil {
		return Submission{}, err
	}

	if !rt.Config.ShouldSubmit() {
		logger.Info("submitReports=false; report prepared but not broadcast", zap.Int("report_bytes", len(encoded)))
		return Submission{ChainSelectorName: selector.Name}, nil
	}
	if chain.IsZeroAddress(rt.Config.ContractAddress) {
		return Submission{}, errors.New("submitReports=true requires a non-zero contractAddress")
	}
	if rt.Chain == nil {
		return Submission{}, errors.New("submitReports=true requires rpcUrl")
	}

	res, err := rt.Chain.WriteReport(ctx, ReportMetadata(workflowName), encoded)
	if err != nil {
		return Submission{}, fmt.Errorf("write report: %w", err)
	}

	logger.Info("report submitted",
		zap.String("chain", selector.Name),
		zap.String("tx_hash", res.TxHash),
		zap.Uint64("tx_status", res.TxStatus))

	status := res.TxStatus
	return Submission{
		Submitted:         true,
		ChainSelectorName: selector.Name,
		TxStatus:          &status,
		TxHash:            res.TxHash,
	}, nil
}

// ReportMetadata identifies the producing workflow to the receiver: keccak256 of its name.
func ReportMetadata(workflowName string) []byte {
	return crypto.Keccak256([]byte(workflowName))
}
