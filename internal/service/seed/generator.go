// Package seed synthesizes the deterministic mock cask portfolio.
package seed

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
)

// DefaultSeed fixes the synthetic population.
const DefaultSeed = "whisky-cask-cre-ttb-v1"

const (
	dspNumber          = "DSP-OR-15001"
	primaryWarehouse   = "WH-OR-001"
	secondaryWarehouse = "WH-OR-002"
	minProof           = 95
)

type cohort struct {
	count     int
	minMonths int
	maxMonths int
}

var cohorts = []cohort{
	{count: 12, minMonths: 36, maxMonths: 48},
	{count: 18, minMonths: 24, maxMonths: 36},
	{count: 11, minMonths: 6, maxMonths: 24},
	{count: 6, minMonths: 48, maxMonths: 144},
}

var caskCapacityWineGallons = map[models.CaskType]float64{
	models.CaskBourbonBarrel: 53,
	models.CaskSherryButt:    132,
	models.CaskHogshead:      63,
	models.CaskPortPipe:      145,
}

// Generator builds portfolios from a seeded random stream.
type Generator struct {
	seed string
}

// NewGenerator returns a generator for the given seed; empty means DefaultSeed.
func NewGenerator(seed string) *Generator {
	if seed == "" {
		seed = DefaultSeed
	}
	return &Generator{seed: seed}
}

// Generate is shorthand for NewGenerator(DefaultSeed).Generate(asOf).
func Generate(asOf time.Time) models.PortfolioData {
	return NewGenerator(DefaultSeed).Generate(asOf)
}

// Generate synthesizes the full portfolio as of the given instant. The output only
// depends on the seed and asOf.
func (g *Generator) Generate(asOf time.Time) models.PortfolioData {
	asOf = asOf.UTC().Truncate(time.Millisecond)
	rng := NewRng(g.seed)

	var ages []int
	for _, c := range cohorts {
		for i := 0; i < c.count; i++ {
			ages = append(ages, rng.Int(c.minMonths, c.maxMonths))
		}
	}

	casks := make([]models.CaskRecord, 0, len(ages))
	for index, ageMonths := range ages {
		casks = append(casks, buildCask(rng, index+1, ageMonths, asOf))
	}

	return models.PortfolioData{
		SchemaVersion: models.SchemaVersion,
		GeneratedAt:   asOf,
		Casks:         casks,
	}
}

func buildCask(rng *Rng, caskID, ageMonths int, asOf time.Time) models.CaskRecord {
	caskType := randomCaskType(rng)
	spiritType := randomSpiritType(rng)
	angelShareRate := units.Round2(0.03 + rng.Next()*0.015)
	qualityFactor := units.Round2(0.95 + rng.Next()*0.04)

	fillDate := units.SubtractMonths(asOf, ageMonths)
	entryWineGallons := units.Round2(caskCapacityWineGallons[caskType] * (0.95 + rng.Next()*0.05))
	entryProof := units.Round1(118 + rng.Next()*10)
	entryProofGallons := units.ProofGallons(entryWineGallons, entryProof)

	method := selectGaugeMethod(caskID, ageMonths, rng)
	stale := caskID%4 == 0 && ageMonths >= 24

	var candidate time.Time
	if stale {
		candidate = units.SubtractDays(asOf, rng.Int(1100, 1600))
	} else {
		candidate = units.SubtractDays(asOf, rng.Int(30, 200))
	}

	lastGaugeDate := fillDate
	if method != models.GaugeEntry {
		lastGaugeDate = laterOf(candidate, units.AddDays(fillDate, 30))
	}

	lastWineGallons, lastProof, lastProofGallons := entryWineGallons, entryProof, entryProofGallons
	if method != models.GaugeEntry {
		years := float64(units.DaysBetween(fillDate, lastGaugeDate)) / 365
		lastWineGallons = units.Round2(entryWineGallons * math.Pow(1-angelShareRate, years))
		var drift float64
		if method == models.GaugeDisgorge {
			drift = rng.Next() * 2
		} else {
			drift = rng.Next() * 6
		}
		lastProof = units.Round1(math.Max(minProof, entryProof-drift))
		lastProofGallons = units.ProofGallons(lastWineGallons, lastProof)
	}

	state := models.StateMaturation
	if ageMonths < 4 {
		state = models.StateFilled
	}
	if method != models.GaugeEntry {
		state = models.StateRegauged
	}
	if ageMonths >= 120 {
		state = models.StateBottlingReady
	}
	if ageMonths >= 132 && caskID%13 == 0 {
		state = models.StateBottled
	}

	lifecycle := []models.LifecycleEvent{{
		CaskID:            caskID,
		FromState:         models.StateFilled,
		ToState:           models.StateMaturation,
		Timestamp:         fillDate,
		GaugeProofGallons: entryProofGallons,
		GaugeWineGallons:  entryWineGallons,
		GaugeProof:        entryProof,
		Reason:            models.ReasonFill,
	}}

	if method != models.GaugeEntry {
		reason := models.ReasonRegauge
		if method == models.GaugeTransfer {
			reason = models.ReasonTransfer
		}
		lifecycle = append(lifecycle, models.LifecycleEvent{
			CaskID:            caskID,
			FromState:         models.StateMaturation,
			ToState:           models.StateRegauged,
			Timestamp:         lastGaugeDate,
			GaugeProofGallons: lastProofGallons,
			GaugeWineGallons:  lastWineGallons,
			GaugeProof:        lastProof,
			Reason:            reason,
		})
	}

	// Bottling events never precede the last gauge, so the final event always
	// lands on the cask's state.
	var bottlingReadyAt time.Time
	if state == models.StateBottlingReady || state == models.StateBottled {
		from := models.StateRegauged
		if method == models.GaugeEntry {
			from = models.StateMaturation
		}
		bottlingReadyAt = laterOf(units.SubtractDays(asOf, rng.Int(10, 80)), units.AddDays(lastGaugeDate, 1))
		lifecycle = append(lifecycle, models.LifecycleEvent{
			CaskID:    caskID,
			FromState: from,
			ToState:   models.StateBottlingReady,
			Timestamp: bottlingReadyAt,
			Reason:    models.ReasonBottling,
		})
	}

	if state == models.StateBottled {
		lifecycle = append(lifecycle, models.LifecycleEvent{
			CaskID:    caskID,
			FromState: models.StateBottlingReady,
			ToState:   models.StateBottled,
			Timestamp: laterOf(units.SubtractDays(asOf, rng.Int(2, 30)), units.AddDays(bottlingReadyAt, 1)),
			Reason:    models.ReasonBottling,
		})
	}

	sort.SliceStable(lifecycle, func(i, j int) bool {
		return lifecycle[i].Timestamp.Before(lifecycle[j].Timestamp)
	})

	updatedAt := fillDate
	for _, event := range lifecycle {
		updatedAt = laterOf(updatedAt, event.Timestamp)
	}

	warehouseID := primaryWarehouse
	if caskID%3 == 0 {
		warehouseID = secondaryWarehouse
	}

	return models.CaskRecord{
		CaskID:      caskID,
		PackageID:   packageID(caskID, fillDate),
		SpiritType:  spiritType,
		CaskType:    caskType,
		DSPNumber:   dspNumber,
		WarehouseID: warehouseID,
		FillDate:    fillDate,
		EntryGauge: models.GaugeSnapshot{
			ProofGallons: entryProofGallons,
			WineGallons:  entryWineGallons,
			Proof:        entryProof,
			Date:         fillDate,
			Method:       models.GaugeEntry,
		},
		LastGauge: models.GaugeSnapshot{
			ProofGallons: lastProofGallons,
			WineGallons:  lastWineGallons,
			Proof:        lastProof,
			Date:         lastGaugeDate,
			Method:       method,
		},
		State:          state,
		AngelShareRate: angelShareRate,
		QualityFactor:  qualityFactor,
		Lifecycle:      lifecycle,
		UpdatedAt:      updatedAt,
	}
}

func randomCaskType(rng *Rng) models.CaskType {
	roll := rng.Next()
	switch {
	case roll < 0.55:
		return models.CaskBourbonBarrel
	case roll < 0.77:
		return models.CaskHogshead
	case roll < 0.93:
		return models.CaskSherryButt
	default:
		return models.CaskPortPipe
	}
}

func randomSpiritType(rng *Rng) models.SpiritType {
	roll := rng.Next()
	switch {
	case roll < 0.6:
		return models.SpiritBourbon
	case roll < 0.8:
		return models.SpiritRye
	case roll < 0.95:
		return models.SpiritMalt
	default:
		return models.SpiritWheat
	}
}

func selectGaugeMethod(caskID, ageMonths int, rng *Rng) models.GaugeMethod {
	if ageMonths < 24 {
		if caskID%5 == 0 {
			return models.GaugeWetDip
		}
		return models.GaugeEntry
	}
	switch {
	case caskID%11 == 0:
		return models.GaugeDisgorge
	case caskID%7 == 0:
		return models.GaugeTransfer
	case caskID%3 == 0:
		return models.GaugeWetDip
	}
	if rng.Next() < 0.3 {
		return models.GaugeWetDip
	}
	return models.GaugeEntry
}

// packageID renders PKG-<yy><month letter><dd>-<serial>, months lettered A..L.
func packageID(caskID int, fillDate time.Time) string {
	fillDate = fillDate.UTC()
	monthLetter := "ABCDEFGHIJKL"[int(fillDate.Month())-1]
	return fmt.Sprintf("PKG-%02d%c%02d-%04d", fillDate.Year()%100, monthLetter, fillDate.Day(), caskID)
}

func laterOf(a, b time.Time) time.Time {
	if !a.Before(b) {
		return a
	}
	return b
}
