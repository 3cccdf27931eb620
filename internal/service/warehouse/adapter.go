// Package warehouse exposes the warehouse-of-record operations the HTTP layer serves.
package warehouse

import (
	"context"
	"time"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/service/portfolio"
)

// Adapter is the contract between the API and a warehouse-of-record backend.
type Adapter interface {
	Inventory(asOf time.Time) (models.InventoryResponse, error)
	GaugeRecord(caskID int) (models.GaugeRecordResponse, error)
	Estimate(caskID int, asOf time.Time) (models.EstimateResponse, error)
	Lifecycle(caskID int) ([]models.LifecycleEvent, error)
	CaskBatch(ids []int, limit int, asOf time.Time) (models.CaskBatchResponse, error)
	RecentLifecycle(limit int, asOf time.Time) (models.RecentLifecycleResponse, error)
	Summary(asOf time.Time) (models.PortfolioSummaryResponse, error)
	MarketData(asOf time.Time) models.MarketDataResponse
	ReferenceValuation(caskID int, asOf time.Time) (models.ReferenceValuationResponse, error)
	RecordLifecycle(ctx context.Context, req models.LifecycleEventRequest) (models.LifecycleEvent, error)
}

// MockAdapter serves the synthetic portfolio held by a portfolio.Store.
type MockAdapter struct {
	*portfolio.Store
}

// NewMockAdapter wraps store.
func NewMockAdapter(store *portfolio.Store) *MockAdapter {
	return &MockAdapter{Store: store}
}

// MarketData returns the fixed reference index movements.
func (a *MockAdapter) MarketData(asOf time.Time) models.MarketDataResponse {
	return models.MarketDataResponse{
		Source: "reference-market-index",
		AsOf:   asOf,
		IndexReference: models.IndexReference{
			RW101QuarterlyDeltaPct:    2.1,
			KnightFrankAnnualDeltaPct: 5.4,
		},
		Notes: "Reference-only market signal. Not a settlement price.",
	}
}

// RecordLifecycle appends a lifecycle event through the store.
func (a *MockAdapter) RecordLifecycle(ctx context.Context, req models.LifecycleEventRequest) (models.LifecycleEvent, error) {
	return a.AppendLifecycle(ctx, req)
}

var _ Adapter = (*MockAdapter)(nil)
