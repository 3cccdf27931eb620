package workflow

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/pkg/clients/chain"
)

var testHash = "0x" + strings.Repeat("ab", 32)

const testContract = "0x1111111111111111111111111111111111111111"

type batchCall struct {
	ids   []int
	limit int
	asOf  time.Time
}

type fakeAPI struct {
	inventory models.InventoryResponse
	summary   models.PortfolioSummaryResponse
	batch     models.CaskBatchResponse
	recent    models.RecentLifecycleResponse
	post      models.LifecyclePostResponse
	err       error

	batchCalls []batchCall
	posted     []models.LifecycleEventRequest
}

func (f *fakeAPI) Inventory(context.Context, time.Time) (models.InventoryResponse, error) {
	return f.inventory, f.err
}

func (f *fakeAPI) Summary(context.Context, time.Time) (models.PortfolioSummaryResponse, error) {
	return f.summary, f.err
}

func (f *fakeAPI) CaskBatch(_ context.Context, ids []int, limit int, asOf time.Time) (models.CaskBatchResponse, error) {
	f.batchCalls = append(f.batchCalls, batchCall{ids: ids, limit: limit, asOf: asOf})
	return f.batch, f.err
}

func (f *fakeAPI) RecentLifecycle(context.Context, int, time.Time) (models.RecentLifecycleResponse, error) {
	return f.recent, f.err
}

func (f *fakeAPI) PostLifecycle(_ context.Context, req models.LifecycleEventRequest) (models.LifecyclePostResponse, error) {
	f.posted = append(f.posted, req)
	return f.post, f.err
}

type fakeChain struct {
	minted  *big.Int
	readErr error

	mu       sync.Mutex
	metadata [][]byte
	reports  [][]byte
}

func (f *fakeChain) TotalMinted(context.Context) (*big.Int, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.minted, nil
}

func (f *fakeChain) WriteReport(_ context.Context, metadata, report []byte) (chain.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadata = append(f.metadata, metadata)
	f.reports = append(f.reports, report)
	return chain.WriteResult{TxStatus: 1, TxHash: "0xfeed"}, nil
}

func (f *fakeChain) lastReport() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reports) == 0 {
		return nil
	}
	return f.reports[len(f.reports)-1]
}

type fakeLedger struct {
	entries []models.AttestationLogEntry
	err     error
}

func (f *fakeLedger) AppendAttestation(_ context.Context, entry models.AttestationLogEntry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

func (f *fakeLedger) ReadAttestations(context.Context) ([][]interface{}, error) {
	return nil, errors.New("not implemented")
}

type fakeRuns struct {
	runs []models.WorkflowRun
}

func (f *fakeRuns) SaveWorkflowRun(_ context.Context, run models.WorkflowRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

func testConfig() *config.WorkflowConfig {
	return &config.WorkflowConfig{
		APIBaseURL:      "http://localhost:3000",
		ContractAddress: testContract,
		ChainSelector:   "ethereum-testnet-sepolia",
		TokensPerCask:   100,
		AttestationMode: config.AttestationPublic,
		PhysicalAttributes: config.PhysicalAttributesConfig{
			MaxBatchSize: 2,
		},
		LifecycleReconcile: config.LifecycleReconcileConfig{
			ScanLimit:            50,
			ReconcileWindowHours: 24,
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 10, 30, 45, 0, time.UTC)
}

func newTestRuntime(cfg *config.WorkflowConfig, api WarehouseAPI, c Chain) *Runtime {
	rt := NewRuntime(cfg, api, c, nil)
	rt.Now = fixedNow
	return rt
}

func testBatchItem(id int) models.CaskBatchItem {
	return models.CaskBatchItem{
		GaugeRecord: models.GaugeRecordResponse{
			CaskID:                id,
			SpiritType:            models.SpiritBourbon,
			CaskType:              models.CaskBourbonBarrel,
			WarehouseID:           "WH-KY-001",
			FillDate:              time.Date(2021, 4, 12, 0, 0, 0, 0, time.UTC),
			EntryProofGallons:     63.5,
			EntryWineGallons:      50.8,
			EntryProof:            125,
			LastGaugeProofGallons: 60.1,
			LastGaugeWineGallons:  49.2,
			LastGaugeProof:        122.2,
			LastGaugeDate:         time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			LastGaugeMethod:       models.GaugeWetDip,
			State:                 models.StateMaturation,
		},
		Estimate: models.EstimateResponse{CaskID: id, EstimatedCurrentProofGallons: 58.4},
	}
}
