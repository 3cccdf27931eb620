package workflow

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/report"
	"github.com/mamadbah2/caskwarehouse/internal/service/alerting"
)

type recordingNotifier struct {
	shortfalls []alerting.ReserveShortfall
}

func (n *recordingNotifier) NotifyShortfall(_ context.Context, s alerting.ReserveShortfall) error {
	n.shortfalls = append(n.shortfalls, s)
	return nil
}

func TestSnapshotAsOf(t *testing.T) {
	rt := newTestRuntime(testConfig(), &fakeAPI{}, nil)

	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), rt.SnapshotAsOf(Trigger{}))

	scheduled := time.Date(2025, 2, 1, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, scheduled, rt.SnapshotAsOf(Trigger{ScheduledTime: scheduled}))
}

func TestResolveTotalTokenSupply(t *testing.T) {
	ctx := context.Background()

	t.Run("zero address uses fallback", func(t *testing.T) {
		cfg := testConfig()
		cfg.ContractAddress = "0x0000000000000000000000000000000000000000"
		cfg.TokenSupplyUnits = int64Ptr(500)
		rt := newTestRuntime(cfg, &fakeAPI{}, nil)

		supply, err := rt.ResolveTotalTokenSupply(ctx, rt.Logger)
		require.NoError(t, err)
		assert.Equal(t, int64(500), supply.Int64())
	})

	t.Run("zero address without fallback fails", func(t *testing.T) {
		cfg := testConfig()
		cfg.ContractAddress = "0x0000000000000000000000000000000000000000"
		rt := newTestRuntime(cfg, &fakeAPI{}, nil)

		_, err := rt.ResolveTotalTokenSupply(ctx, rt.Logger)
		assert.Error(t, err)
	})

	t.Run("read failure uses fallback", func(t *testing.T) {
		cfg := testConfig()
		cfg.TokenSupplyUnits = int64Ptr(42)
		rt := newTestRuntime(cfg, &fakeAPI{}, &fakeChain{readErr: errors.New("rpc down")})

		supply, err := rt.ResolveTotalTokenSupply(ctx, rt.Logger)
		require.NoError(t, err)
		assert.Equal(t, int64(42), supply.Int64())
	})

	t.Run("read failure without fallback propagates", func(t *testing.T) {
		rt := newTestRuntime(testConfig(), &fakeAPI{}, &fakeChain{readErr: errors.New("rpc down")})

		_, err := rt.ResolveTotalTokenSupply(ctx, rt.Logger)
		assert.EqualError(t, err, "rpc down")
	})

	t.Run("zero reading uses fallback", func(t *testing.T) {
		cfg := testConfig()
		cfg.TokenSupplyUnits = int64Ptr(7)
		rt := newTestRuntime(cfg, &fakeAPI{}, &fakeChain{minted: big.NewInt(0)})

		supply, err := rt.ResolveTotalTokenSupply(ctx, rt.Logger)
		require.NoError(t, err)
		assert.Equal(t, int64(7), supply.Int64())
	})

	t.Run("chain reading wins", func(t *testing.T) {
		cfg := testConfig()
		cfg.TokenSupplyUnits = int64Ptr(7)
		rt := newTestRuntime(cfg, &fakeAPI{}, &fakeChain{minted: big.NewInt(1200)})

		supply, err := rt.ResolveTotalTokenSupply(ctx, rt.Logger)
		require.NoError(t, err)
		assert.Equal(t, int64(1200), supply.Int64())
	})
}

func TestSubmitReport(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled submission prepares only", func(t *testing.T) {
		cfg := testConfig()
		cfg.SubmitReports = boolPtr(false)
		c := &fakeChain{}
		rt := newTestRuntime(cfg, &fakeAPI{}, c)

		sub, err := rt.SubmitReport(ctx, NameProofOfReserve, []byte{1}, rt.Logger)
		require.NoError(t, err)
		assert.False(t, sub.Submitted)
		assert.Equal(t, "ethereum-testnet-sepolia", sub.ChainSelectorName)
		assert.Empty(t, c.reports)
	})

	t.Run("zero address rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.ContractAddress = "0x0000000000000000000000000000000000000000"
		rt := newTestRuntime(cfg, &fakeAPI{}, &fakeChain{})

		_, err := rt.SubmitReport(ctx, NameProofOfReserve, []byte{1}, rt.Logger)
		assert.Error(t, err)
	})

	t.Run("missing chain client rejected", func(t *testing.T) {
		rt := newTestRuntime(testConfig(), &fakeAPI{}, nil)

		_, err := rt.SubmitReport(ctx, NameProofOfReserve, []byte{1}, rt.Logger)
		assert.Error(t, err)
	})

	t.Run("unknown chain rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.ChainSelector = "moon-mainnet"
		rt := newTestRuntime(cfg, &fakeAPI{}, &fakeChain{})

		_, err := rt.SubmitReport(ctx, NameProofOfReserve, []byte{1}, rt.Logger)
		assert.Error(t, err)
	})

	t.Run("writes report with workflow metadata", func(t *testing.T) {
		c := &fakeChain{}
		rt := newTestRuntime(testConfig(), &fakeAPI{}, c)

		sub, err := rt.SubmitReport(ctx, NamePhysicalAttributes, []byte{9, 9}, rt.Logger)
		require.NoError(t, err)
		assert.True(t, sub.Submitted)
		require.NotNil(t, sub.TxStatus)
		assert.Equal(t, uint64(1), *sub.TxStatus)
		assert.Equal(t, "0xfeed", sub.TxHash)
		require.Len(t, c.metadata, 1)
		assert.Equal(t, crypto.Keccak256([]byte(NamePhysicalAttributes)), c.metadata[0])
		assert.Equal(t, []byte{9, 9}, c.lastReport())
	})
}

func TestProofOfReservePublic(t *testing.T) {
	api := &fakeAPI{inventory: models.InventoryResponse{PhysicalCaskCount: 10, AttestationHash: testHash}}
	c := &fakeChain{minted: big.NewInt(1000)}
	ledger := &fakeLedger{}
	notifier := &recordingNotifier{}
	wf := NewProofOfReserve(newTestRuntime(testConfig(), api, c), ledger, notifier)

	result, err := wf.Run(context.Background(), Trigger{Source: SourceCron})
	require.NoError(t, err)

	assert.Equal(t, true, result["submitted"])
	assert.Equal(t, "1000000000000000000", result["reserveRatioScaled1e18"])
	assert.Empty(t, notifier.shortfalls)

	reportType, payload, err := report.Unwrap(c.lastReport())
	require.NoError(t, err)
	assert.Equal(t, models.ReportReservePublic, reportType)
	decoded, err := report.DecodeReservePublic(payload)
	require.NoError(t, err)
	assert.Equal(t, int64(10), decoded.PhysicalCaskCount.Int64())
	assert.Equal(t, int64(1000), decoded.TotalTokenSupply.Int64())
	assert.Equal(t, int64(100), decoded.TokensPerCask.Int64())
	assert.Equal(t, fixedNow().Truncate(time.Minute).Unix(), decoded.Timestamp.Int64())

	require.Len(t, ledger.entries, 1)
	assert.True(t, ledger.entries[0].FullyReserved)
	assert.Equal(t, "0xfeed", ledger.entries[0].TxHash)
}

func TestProofOfReserveConfidentialShortfall(t *testing.T) {
	cfg := testConfig()
	cfg.AttestationMode = config.AttestationConfidential
	api := &fakeAPI{inventory: models.InventoryResponse{PhysicalCaskCount: 3, AttestationHash: testHash}}
	c := &fakeChain{minted: big.NewInt(1000)}
	ledger := &fakeLedger{err: errors.New("sheets unavailable")}
	notifier := &recordingNotifier{}
	wf := NewProofOfReserve(newTestRuntime(cfg, api, c), ledger, notifier)

	result, err := wf.Run(context.Background(), Trigger{})
	require.NoError(t, err, "ledger failures must not fail the run")

	assert.Equal(t, false, result["isFullyReserved"])
	assert.Equal(t, true, result["alerted"])
	require.Len(t, notifier.shortfalls, 1)
	assert.Equal(t, int64(3), notifier.shortfalls[0].PhysicalCaskCount)

	reportType, payload, err := report.Unwrap(c.lastReport())
	require.NoError(t, err)
	assert.Equal(t, models.ReportReservePrivate, reportType)
	decoded, err := report.DecodeReservePrivate(payload)
	require.NoError(t, err)
	assert.False(t, decoded.IsFullyReserved)
}

func TestProofOfReserveRejectsBadHash(t *testing.T) {
	api := &fakeAPI{inventory: models.InventoryResponse{PhysicalCaskCount: 1, AttestationHash: "0x1234"}}
	wf := NewProofOfReserve(newTestRuntime(testConfig(), api, &fakeChain{minted: big.NewInt(1)}), nil, nil)

	_, err := wf.Run(context.Background(), Trigger{})
	assert.ErrorIs(t, err, report.ErrInvalidBytes32)
}

func TestPhysicalAttributesCapsBatch(t *testing.T) {
	api := &fakeAPI{
		summary: models.PortfolioSummaryResponse{TotalCasks: 40, RecentlyChangedCaskIDs: []int{5, 9, 12}},
		batch:   models.CaskBatchResponse{Count: 2, Items: []models.CaskBatchItem{testBatchItem(5), testBatchItem(9)}},
	}
	c := &fakeChain{}
	wf := NewPhysicalAttributes(newTestRuntime(testConfig(), api, c))

	result, err := wf.Run(context.Background(), Trigger{Source: SourceCron})
	require.NoError(t, err)

	require.Len(t, api.batchCalls, 1)
	assert.Equal(t, []int{5, 9}, api.batchCalls[0].ids)
	assert.Equal(t, 2, api.batchCalls[0].limit)

	assert.Equal(t, 40, result["scannedSummaryCasks"])
	assert.Equal(t, 3, result["changedHintCount"])
	assert.Equal(t, 2, result["selectedBatchCount"])
	assert.Equal(t, []string{"5", "9"}, result["batchCaskIds"])

	reportType, payload, err := report.Unwrap(c.lastReport())
	require.NoError(t, err)
	assert.Equal(t, models.ReportCaskBatch, reportType)
	updates, err := report.DecodeCaskBatch(payload)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(9), updates[1].CaskID.Int64())
}

func TestPhysicalAttributesNoUpdates(t *testing.T) {
	api := &fakeAPI{summary: models.PortfolioSummaryResponse{TotalCasks: 4}}
	c := &fakeChain{}
	wf := NewPhysicalAttributes(newTestRuntime(testConfig(), api, c))

	result, err := wf.Run(context.Background(), Trigger{})
	require.NoError(t, err)

	assert.Equal(t, "no-updates", result["reason"])
	assert.Equal(t, false, result["submitted"])
	assert.Empty(t, c.reports)
	require.Len(t, api.batchCalls, 1)
	assert.Empty(t, api.batchCalls[0].ids)
}

func TestSelectReconcileEvent(t *testing.T) {
	asOf := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := func(id int, hoursAgo int) models.LifecycleEvent {
		return models.LifecycleEvent{CaskID: id, ToState: models.StateMaturation, Timestamp: asOf.Add(-time.Duration(hoursAgo) * time.Hour)}
	}

	t.Run("oldest inside window", func(t *testing.T) {
		events := []models.LifecycleEvent{event(1, 2), event(2, 30), event(3, 20), event(4, 5)}
		got, mode := SelectReconcileEvent(events, asOf, 24*time.Hour)
		assert.Equal(t, SelectWindowOldest, mode)
		assert.Equal(t, 3, got.CaskID)
	})

	t.Run("window boundary is inclusive", func(t *testing.T) {
		events := []models.LifecycleEvent{event(1, 24), event(2, 1)}
		got, mode := SelectReconcileEvent(events, asOf, 24*time.Hour)
		assert.Equal(t, SelectWindowOldest, mode)
		assert.Equal(t, 1, got.CaskID)
	})

	t.Run("latest when window is empty", func(t *testing.T) {
		events := []models.LifecycleEvent{event(1, 100), event(2, 48), event(3, 72)}
		got, mode := SelectReconcileEvent(events, asOf, 24*time.Hour)
		assert.Equal(t, SelectLatestFallback, mode)
		assert.Equal(t, 2, got.CaskID)
	})

	t.Run("input order is preserved", func(t *testing.T) {
		events := []models.LifecycleEvent{event(1, 2), event(2, 30)}
		SelectReconcileEvent(events, asOf, 24*time.Hour)
		assert.Equal(t, 1, events[0].CaskID)
	})
}

func TestLifecycleReconcile(t *testing.T) {
	t.Run("no events", func(t *testing.T) {
		wf := NewLifecycleReconcile(newTestRuntime(testConfig(), &fakeAPI{}, &fakeChain{}))

		result, err := wf.Run(context.Background(), Trigger{})
		require.NoError(t, err)
		assert.Equal(t, "no-events", result["reason"])
		assert.Equal(t, false, result["submitted"])
	})

	t.Run("replays selected event", func(t *testing.T) {
		asOf := fixedNow().Truncate(time.Minute)
		api := &fakeAPI{recent: models.RecentLifecycleResponse{
			Count: 2,
			Events: []models.LifecycleEvent{
				{CaskID: 8, ToState: models.StateRegauged, Timestamp: asOf.Add(-time.Hour), GaugeProofGallons: 60.5, GaugeWineGallons: 50.1, GaugeProof: 120.8},
				{CaskID: 3, ToState: models.StateTransfer, Timestamp: asOf.Add(-3 * time.Hour), GaugeProofGallons: 61, GaugeWineGallons: 50.5, GaugeProof: 120.8},
			},
		}}
		c := &fakeChain{}
		wf := NewLifecycleReconcile(newTestRuntime(testConfig(), api, c))

		result, err := wf.Run(context.Background(), Trigger{})
		require.NoError(t, err)
		assert.Equal(t, SelectWindowOldest, result["selectionMode"])
		assert.Equal(t, 2, result["scannedEvents"])

		_, payload, err := report.Unwrap(c.lastReport())
		require.NoError(t, err)
		decoded, err := report.DecodeLifecycle(payload)
		require.NoError(t, err)
		assert.Equal(t, int64(3), decoded.CaskID.Int64())
		assert.Equal(t, uint16(1208), decoded.GaugeProof)
	})
}

func TestLifecycleWebhookValidation(t *testing.T) {
	api := &fakeAPI{}
	wf := NewLifecycleWebhook(newTestRuntime(testConfig(), api, &fakeChain{}))

	payloads := map[string]string{
		"empty":        "",
		"not json":     "{",
		"missing cask": `{"toState":"maturation"}`,
		"bad state":    `{"caskId":1,"toState":"evaporated"}`,
		"bad reason":   `{"caskId":1,"toState":"transfer","reason":"fill"}`,
		"negative":     `{"caskId":1,"toState":"regauged","gaugeProof":-1}`,
	}
	for name, body := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := wf.Run(context.Background(), Trigger{Source: SourceHTTP, Payload: []byte(body)})
			assert.ErrorIs(t, err, ErrInvalidTrigger)
		})
	}
	assert.Empty(t, api.posted)
}

func TestLifecycleWebhookForwardsAndReports(t *testing.T) {
	ts := time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{post: models.LifecyclePostResponse{OK: true, Event: models.LifecycleEvent{
		CaskID: 4, FromState: models.StateMaturation, ToState: models.StateRegauged, Timestamp: ts,
		GaugeProofGallons: 55.25, GaugeWineGallons: 46.4, GaugeProof: 119.1, Reason: models.ReasonRegauge,
	}}}
	c := &fakeChain{}
	wf := NewLifecycleWebhook(newTestRuntime(testConfig(), api, c))

	result, err := wf.Run(context.Background(), Trigger{
		Source:  SourceHTTP,
		Payload: []byte(`{"caskId":4,"toState":"regauged","gaugeProof":119.1,"reason":"regauge"}`),
	})
	require.NoError(t, err)

	require.Len(t, api.posted, 1)
	assert.Equal(t, 4, api.posted[0].CaskID)
	assert.Equal(t, models.StateRegauged, result["toState"])
	assert.Equal(t, models.StateMaturation, result["fromState"])
	assert.Equal(t, true, result["submitted"])

	reportType, payload, err := report.Unwrap(c.lastReport())
	require.NoError(t, err)
	assert.Equal(t, models.ReportLifecycle, reportType)
	decoded, err := report.DecodeLifecycle(payload)
	require.NoError(t, err)
	assert.Equal(t, ts.Unix(), decoded.Timestamp.Int64())
	assert.Equal(t, int64(5525), decoded.GaugeProofGallons.Int64())
}

func TestLifecycleWebhookRequiresOK(t *testing.T) {
	api := &fakeAPI{post: models.LifecyclePostResponse{OK: false}}
	c := &fakeChain{}
	wf := NewLifecycleWebhook(newTestRuntime(testConfig(), api, c))

	_, err := wf.Run(context.Background(), Trigger{Payload: []byte(`{"caskId":4,"toState":"maturation"}`)})
	assert.EqualError(t, err, "warehouse lifecycle API returned ok=false")
	assert.Empty(t, c.reports)
}

type stubWorkflow struct {
	name   string
	result Result
	err    error
	panics bool
}

func (s stubWorkflow) Name() string { return s.name }

func (s stubWorkflow) Run(context.Context, Trigger) (Result, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func TestRunner(t *testing.T) {
	runs := &fakeRuns{}
	runner := NewRunner(runs, nil,
		stubWorkflow{name: "b-ok", result: Result{"submitted": false}},
		stubWorkflow{name: "a-fail", err: errors.New("api down")},
		stubWorkflow{name: "c-panic", panics: true},
	)
	ctx := context.Background()

	assert.Equal(t, []string{"a-fail", "b-ok", "c-panic"}, runner.Names())

	_, err := runner.Run(ctx, "missing", Trigger{})
	assert.ErrorIs(t, err, ErrUnknownWorkflow)
	assert.Empty(t, runs.runs)

	result, err := runner.Run(ctx, "b-ok", Trigger{})
	require.NoError(t, err)
	assert.Equal(t, false, result["submitted"])

	_, err = runner.Run(ctx, "a-fail", Trigger{Source: SourceCron})
	assert.EqualError(t, err, "api down")

	_, err = runner.Run(ctx, "c-panic", Trigger{})
	assert.ErrorContains(t, err, "panicked")

	require.Len(t, runs.runs, 3)
	assert.Equal(t, models.RunSucceeded, runs.runs[0].Status)
	assert.Equal(t, SourceManual, runs.runs[0].Trigger)
	assert.NotEmpty(t, runs.runs[0].ID)
	assert.Equal(t, models.RunFailed, runs.runs[1].Status)
	assert.Equal(t, "api down", runs.runs[1].Error)
	assert.Equal(t, models.RunFailed, runs.runs[2].Status)
}
