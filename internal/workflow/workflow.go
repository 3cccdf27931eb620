// Package workflow runs the oracle jobs that read the warehouse API and publish
// encoded reports to the receiver contract.
package workflow

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/pkg/clients/chain"
)

// Workflow names.
const (
	NameProofOfReserve     = "proof-of-reserve"
	NamePhysicalAttributes = "physical-attributes"
	NameLifecycleReconcile = "lifecycle-reconcile"
	NameLifecycleWebhook   = "lifecycle-webhook"
)

// Trigger sources.
const (
	SourceCron   = "cron"
	SourceHTTP   = "http"
	SourceManual = "manual"
)

var (
	// ErrUnknownWorkflow indicates a run request for an unregistered workflow.
	ErrUnknownWorkflow = errors.New("unknown workflow")
	// ErrInvalidTrigger indicates a trigger payload the workflow cannot accept.
	ErrInvalidTrigger = errors.New("invalid trigger payload")
)

// Trigger describes what fired a run.
type Trigger struct {
	Source string
	// ScheduledTime pins the snapshot time; zero means now floored to the minute.
	ScheduledTime time.Time
	// Payload is the raw request body of HTTP triggers.
	Payload []byte
}

// Result is the structured outcome of a run, logged and stored with the run record.
type Result map[string]any

// Workflow is a one-shot job executed per trigger firing.
type Workflow interface {
	Name() string
	Run(ctx context.Context, trigger Trigger) (Result, error)
}

// WarehouseAPI is the part of the warehouse HTTP API the workflows consume.
type WarehouseAPI interface {
	Inventory(ctx context.Context, asOf time.Time) (models.InventoryResponse, error)
	Summary(ctx context.Context, asOf time.Time) (models.PortfolioSummaryResponse, error)
	CaskBatch(ctx context.Context, ids []int, limit int, asOf time.Time) (models.CaskBatchResponse, error)
	RecentLifecycle(ctx context.Context, limit int, asOf time.Time) (models.RecentLifecycleResponse, error)
	PostLifecycle(ctx context.Context, req models.LifecycleEventRequest) (models.LifecyclePostResponse, error)
}

// Chain reads reserve supply from and writes reports to the receiver contract.
type Chain interface {
	TotalMinted(ctx context.Context) (*big.Int, error)
	WriteReport(ctx context.Context, metadata, report []byte) (chain.WriteResult, error)
}
