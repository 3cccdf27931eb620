package valuation

import (
	"time"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
)

const (
	baseUSDPerProofGallon = 120
	ageCurveMonths        = 120
	confidenceLow         = "low"
)

var caskTypePremium = map[models.CaskType]float64{
	models.CaskSherryButt:    1.15,
	models.CaskPortPipe:      1.12,
	models.CaskHogshead:      1.05,
	models.CaskBourbonBarrel: 1.0,
}

// ReferenceValuation prices a cask on a linear age curve with a cooperage premium.
// It is a reference signal only, never a settlement price.
func ReferenceValuation(cask models.CaskRecord, asOf time.Time) models.ReferenceValuationResponse {
	ageMonths := units.MonthsBetween(cask.FillDate, asOf)
	base := cask.EntryGauge.ProofGallons * baseUSDPerProofGallon
	ageMultiplier := 1 + float64(ageMonths)/ageCurveMonths

	premium, ok := caskTypePremium[cask.CaskType]
	if !ok {
		premium = 1
	}

	return models.ReferenceValuationResponse{
		CaskID:            cask.CaskID,
		EstimatedValueUSD: units.Round2(base * ageMultiplier * premium),
		Methodology:       models.ValuationMethodology,
		Confidence:        confidenceLow,
		AsOf:              asOf,
	}
}
