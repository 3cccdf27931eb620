package models

import "time"

const (
	// InventorySchemaVersion tags proof-of-reserve inventory snapshots.
	InventorySchemaVersion = "por-v1"
	// TTBFormReference is the monthly storage report the inventory mirrors.
	TTBFormReference = "TTB-F-5110.11"
	// EstimateModelVersion identifies the angel's share decay model.
	EstimateModelVersion = "angels_share_v1"
	// ValuationMethodology identifies the reference valuation curve.
	ValuationMethodology = "age_curve_v1"
)

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	AsOf    time.Time `json:"asOf"`
}

// InventoryTotals aggregates last-gauge volumes over active casks.
type InventoryTotals struct {
	ProofGallons float64 `json:"proof_gallons"`
	WineGallons  float64 `json:"wine_gallons"`
}

// InventoryResponse is the proof-of-reserve snapshot consumed by the reserve workflow.
type InventoryResponse struct {
	SchemaVersion       string          `json:"schema_version"`
	AsOf                string          `json:"as_of"`
	ActiveCaskIDsSorted []int           `json:"active_cask_ids_sorted"`
	PhysicalCaskCount   int             `json:"physical_cask_count"`
	TTBFormReference    string          `json:"ttb_form_reference"`
	Totals              InventoryTotals `json:"totals"`
	AttestationHash     string          `json:"attestation_hash"`
}

// GaugeRecordResponse flattens a cask's identity and gauges.
type GaugeRecordResponse struct {
	CaskID                int            `json:"caskId"`
	PackageID             string         `json:"packageId"`
	SpiritType            SpiritType     `json:"spiritType"`
	CaskType              CaskType       `json:"caskType"`
	DSPNumber             string         `json:"dspNumber"`
	WarehouseID           string         `json:"warehouseId"`
	FillDate              time.Time      `json:"fillDate"`
	EntryProofGallons     float64        `json:"entryProofGallons"`
	EntryWineGallons      float64        `json:"entryWineGallons"`
	EntryProof            float64        `json:"entryProof"`
	LastGaugeProofGallons float64        `json:"lastGaugeProofGallons"`
	LastGaugeWineGallons  float64        `json:"lastGaugeWineGallons"`
	LastGaugeProof        float64        `json:"lastGaugeProof"`
	LastGaugeDate         time.Time      `json:"lastGaugeDate"`
	LastGaugeMethod       GaugeMethod    `json:"lastGaugeMethod"`
	State                 LifecycleState `json:"state"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// EstimateResponse carries the decayed proof gallons and bottle yield.
type EstimateResponse struct {
	CaskID                       int     `json:"caskId"`
	EstimatedCurrentProofGallons float64 `json:"estimatedCurrentProofGallons"`
	EstimatedBottleYield         int     `json:"estimatedBottleYield"`
	ModelVersion                 string  `json:"modelVersion"`
	AngelShareRate               float64 `json:"angelShareRate"`
	DaysSinceLastGauge           int     `json:"daysSinceLastGauge"`
}

// CaskBatchItem pairs a gauge record with its estimate.
type CaskBatchItem struct {
	GaugeRecord GaugeRecordResponse `json:"gaugeRecord"`
	Estimate    EstimateResponse    `json:"estimate"`
}

// CaskBatchResponse is returned by the batch endpoint.
type CaskBatchResponse struct {
	AsOf  time.Time       `json:"asOf"`
	Count int             `json:"count"`
	Items []CaskBatchItem `json:"items"`
}

// RecentLifecycleResponse lists the newest lifecycle events up to asOf, oldest first.
type RecentLifecycleResponse struct {
	AsOf   time.Time        `json:"asOf"`
	Count  int              `json:"count"`
	Events []LifecycleEvent `json:"events"`
}

// LifecycleResponse lists one cask's lifecycle.
type LifecycleResponse struct {
	CaskID int              `json:"caskId"`
	Events []LifecycleEvent `json:"events"`
}

// AgeBuckets counts casks per age band in months.
type AgeBuckets struct {
	Months0To24  int `json:"0_24"`
	Months24To36 int `json:"24_36"`
	Months36To48 int `json:"36_48"`
	Months48Plus int `json:"48_plus"`
}

// PortfolioSummaryResponse aggregates the whole portfolio.
type PortfolioSummaryResponse struct {
	AsOf                       time.Time  `json:"asOf"`
	TotalCasks                 int        `json:"totalCasks"`
	TotalLastGaugeProofGallons float64    `json:"totalLastGaugeProofGallons"`
	TotalEstimatedProofGallons float64    `json:"totalEstimatedProofGallons"`
	AgeBucketsMonths           AgeBuckets `json:"ageBucketsMonths"`
	RecentlyChangedCaskIDs     []int      `json:"recentlyChangedCaskIds"`
}

// IndexReference holds reference market index movements.
type IndexReference struct {
	RW101QuarterlyDeltaPct    float64 `json:"rw101QuarterlyDeltaPct"`
	KnightFrankAnnualDeltaPct float64 `json:"knightFrankAnnualDeltaPct"`
}

// MarketDataResponse is a reference-only market signal.
type MarketDataResponse struct {
	Source         string         `json:"source"`
	AsOf           time.Time      `json:"asOf"`
	IndexReference IndexReference `json:"indexReference"`
	Notes          string         `json:"notes"`
}

// ReferenceValuationResponse is the age-curve USD estimate for a cask.
type ReferenceValuationResponse struct {
	CaskID            int       `json:"caskId"`
	EstimatedValueUSD float64   `json:"estimatedValueUsd"`
	Methodology       string    `json:"methodology"`
	Confidence        string    `json:"confidence"`
	AsOf              time.Time `json:"asOf"`
}
