// Package valuation estimates current volume, bottle yield and reference value of casks.
package valuation

import (
	"math"
	"time"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
)

// BottlesPerProofGallon is the 750ml bottle count per proof gallon at 46% ABV.
const BottlesPerProofGallon = 5.48

// Estimate decays the last gauge by the cask's angel's share rate up to asOf.
// An asOf before the last gauge counts as zero elapsed time.
func Estimate(cask models.CaskRecord, asOf time.Time) models.EstimateResponse {
	days := units.DaysBetween(cask.LastGauge.Date, asOf)
	years := float64(days) / 365
	estimated := units.Round2(cask.LastGauge.ProofGallons * math.Pow(1-cask.AngelShareRate, years))

	bottles := int(math.Floor(estimated * BottlesPerProofGallon * cask.QualityFactor))
	if bottles < 0 {
		bottles = 0
	}

	return models.EstimateResponse{
		CaskID:                       cask.CaskID,
		EstimatedCurrentProofGallons: estimated,
		EstimatedBottleYield:         bottles,
		ModelVersion:                 models.EstimateModelVersion,
		AngelShareRate:               cask.AngelShareRate,
		DaysSinceLastGauge:           days,
	}
}
