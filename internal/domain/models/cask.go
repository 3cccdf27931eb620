package models

import "time"

// SchemaVersion tags persisted portfolio documents.
const SchemaVersion = "warehouse-mock-v1"

// SpiritType enumerates the mash bills tracked by the warehouse.
type SpiritType string

const (
	SpiritBourbon SpiritType = "bourbon"
	SpiritRye     SpiritType = "rye"
	SpiritMalt    SpiritType = "malt"
	SpiritWheat   SpiritType = "wheat"
)

// CaskType enumerates cooperage formats.
type CaskType string

const (
	CaskBourbonBarrel CaskType = "bourbon_barrel"
	CaskSherryButt    CaskType = "sherry_butt"
	CaskHogshead      CaskType = "hogshead"
	CaskPortPipe      CaskType = "port_pipe"
)

// GaugeMethod describes how a gauge snapshot was taken.
type GaugeMethod string

const (
	GaugeEntry    GaugeMethod = "entry"
	GaugeWetDip   GaugeMethod = "wet_dip"
	GaugeDisgorge GaugeMethod = "disgorge"
	GaugeTransfer GaugeMethod = "transfer"
)

// LifecycleState is the custody state of a cask.
type LifecycleState string

const (
	StateFilled        LifecycleState = "filled"
	StateMaturation    LifecycleState = "maturation"
	StateRegauged      LifecycleState = "regauged"
	StateTransfer      LifecycleState = "transfer"
	StateBottlingReady LifecycleState = "bottling_ready"
	StateBottled       LifecycleState = "bottled"
)

// LifecycleReason explains why a lifecycle event was recorded.
type LifecycleReason string

const (
	ReasonFill      LifecycleReason = "fill"
	ReasonRegauge   LifecycleReason = "regauge"
	ReasonTransfer  LifecycleReason = "transfer"
	ReasonBottling  LifecycleReason = "bottling"
	ReasonReconcile LifecycleReason = "reconcile"
)

// GaugeSnapshot is a single volume/proof measurement.
type GaugeSnapshot struct {
	ProofGallons float64     `json:"proofGallons" bson:"proof_gallons"`
	WineGallons  float64     `json:"wineGallons" bson:"wine_gallons"`
	Proof        float64     `json:"proof" bson:"proof"`
	Date         time.Time   `json:"date" bson:"date"`
	Method       GaugeMethod `json:"method" bson:"method"`
}

// LifecycleEvent records one state transition of a cask.
type LifecycleEvent struct {
	CaskID            int             `json:"caskId" bson:"cask_id"`
	FromState         LifecycleState  `json:"fromState" bson:"from_state"`
	ToState           LifecycleState  `json:"toState" bson:"to_state"`
	Timestamp         time.Time       `json:"timestamp" bson:"timestamp"`
	GaugeProofGallons float64         `json:"gaugeProofGallons" bson:"gauge_proof_gallons"`
	GaugeWineGallons  float64         `json:"gaugeWineGallons" bson:"gauge_wine_gallons"`
	GaugeProof        float64         `json:"gaugeProof" bson:"gauge_proof"`
	Reason            LifecycleReason `json:"reason" bson:"reason"`
}

// CaskRecord is the warehouse-of-record entry for one physical cask.
type CaskRecord struct {
	CaskID         int              `json:"caskId" bson:"cask_id"`
	PackageID      string           `json:"packageId" bson:"package_id"`
	SpiritType     SpiritType       `json:"spiritType" bson:"spirit_type"`
	CaskType       CaskType         `json:"caskType" bson:"cask_type"`
	DSPNumber      string           `json:"dspNumber" bson:"dsp_number"`
	WarehouseID    string           `json:"warehouseId" bson:"warehouse_id"`
	FillDate       time.Time        `json:"fillDate" bson:"fill_date"`
	EntryGauge     GaugeSnapshot    `json:"entryGauge" bson:"entry_gauge"`
	LastGauge      GaugeSnapshot    `json:"lastGauge" bson:"last_gauge"`
	State          LifecycleState   `json:"state" bson:"state"`
	AngelShareRate float64          `json:"angelShareRate" bson:"angel_share_rate"`
	QualityFactor  float64          `json:"qualityFactor" bson:"quality_factor"`
	Lifecycle      []LifecycleEvent `json:"lifecycle" bson:"lifecycle"`
	UpdatedAt      time.Time        `json:"updatedAt" bson:"updated_at"`
}

// PortfolioData is the whole persisted dataset.
type PortfolioData struct {
	SchemaVersion string       `json:"schemaVersion" bson:"schema_version"`
	GeneratedAt   time.Time    `json:"generatedAt" bson:"generated_at"`
	Casks         []CaskRecord `json:"casks" bson:"casks"`
}
