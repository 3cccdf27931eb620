package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
)

func gaugedCask(proofGallons, angelShare float64, gaugeDate time.Time) models.CaskRecord {
	return models.CaskRecord{
		CaskID:         12,
		CaskType:       models.CaskSherryButt,
		FillDate:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		EntryGauge:     models.GaugeSnapshot{ProofGallons: 60},
		LastGauge:      models.GaugeSnapshot{ProofGallons: proofGallons, Date: gaugeDate},
		AngelShareRate: angelShare,
		QualityFactor:  1,
	}
}

func TestEstimateOneYearDecay(t *testing.T) {
	gauge := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	est := Estimate(gaugedCask(50, 0.03, gauge), gauge.AddDate(0, 0, 365))

	assert.Equal(t, 48.5, est.EstimatedCurrentProofGallons)
	assert.Equal(t, 365, est.DaysSinceLastGauge)
	assert.Equal(t, 265, est.EstimatedBottleYield)
	assert.Equal(t, models.EstimateModelVersion, est.ModelVersion)
	assert.Equal(t, 0.03, est.AngelShareRate)
}

func TestEstimateBeforeGaugeIsUndecayed(t *testing.T) {
	gauge := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	est := Estimate(gaugedCask(50, 0.04, gauge), gauge.AddDate(0, -2, 0))

	assert.Equal(t, 50.0, est.EstimatedCurrentProofGallons)
	assert.Equal(t, 0, est.DaysSinceLastGauge)
}

func TestEstimateAtGaugeInstant(t *testing.T) {
	gauge := time.Date(2024, 6, 1, 8, 15, 0, 0, time.UTC)
	est := Estimate(gaugedCask(51.37, 0.045, gauge), gauge)

	assert.Equal(t, 51.37, est.EstimatedCurrentProofGallons)
	assert.Equal(t, 0, est.DaysSinceLastGauge)
}

func TestReferenceValuation(t *testing.T) {
	cask := gaugedCask(50, 0.03, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	val := ReferenceValuation(cask, asOf)
	assert.Equal(t, 12420.0, val.EstimatedValueUSD)
	assert.Equal(t, "low", val.Confidence)
	assert.Equal(t, models.ValuationMethodology, val.Methodology)
	assert.Equal(t, asOf, val.AsOf)

	cask.CaskType = models.CaskBourbonBarrel
	assert.Equal(t, 10800.0, ReferenceValuation(cask, asOf).EstimatedValueUSD)
}
