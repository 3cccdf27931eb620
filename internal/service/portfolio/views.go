package portfolio

import (
	"slices"
	"sort"
	"time"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
	"github.com/mamadbah2/caskwarehouse/internal/service/attestation"
	"github.com/mamadbah2/caskwarehouse/internal/service/valuation"
)

const (
	// DefaultBatchLimit and MaxBatchLimit bound /casks/batch.
	DefaultBatchLimit = 20
	MaxBatchLimit     = 50
	// DefaultRecentLimit and MaxRecentLimit bound /lifecycle/recent.
	DefaultRecentLimit = 100
	MaxRecentLimit     = 200

	recentChangeWindow   = 120 * 24 * time.Hour
	maxRecentlyChangedID = 20
)

// GaugeRecord flattens a cask into its gauge record view.
func GaugeRecord(cask models.CaskRecord) models.GaugeRecordResponse {
	return models.GaugeRecordResponse{
		CaskID:                cask.CaskID,
		PackageID:             cask.PackageID,
		SpiritType:            cask.SpiritType,
		CaskType:              cask.CaskType,
		DSPNumber:             cask.DSPNumber,
		WarehouseID:           cask.WarehouseID,
		FillDate:              cask.FillDate,
		EntryProofGallons:     cask.EntryGauge.ProofGallons,
		EntryWineGallons:      cask.EntryGauge.WineGallons,
		EntryProof:            cask.EntryGauge.Proof,
		LastGaugeProofGallons: cask.LastGauge.ProofGallons,
		LastGaugeWineGallons:  cask.LastGauge.WineGallons,
		LastGaugeProof:        cask.LastGauge.Proof,
		LastGaugeDate:         cask.LastGauge.Date,
		LastGaugeMethod:       cask.LastGauge.Method,
		State:                 cask.State,
		UpdatedAt:             cask.UpdatedAt,
	}
}

// GaugeRecord returns the gauge record of one cask.
func (s *Store) GaugeRecord(caskID int) (models.GaugeRecordResponse, error) {
	cask, err := s.Cask(caskID)
	if err != nil {
		return models.GaugeRecordResponse{}, err
	}
	return GaugeRecord(cask), nil
}

// Estimate returns the angel's share estimate of one cask.
func (s *Store) Estimate(caskID int, asOf time.Time) (models.EstimateResponse, error) {
	cask, err := s.Cask(caskID)
	if err != nil {
		return models.EstimateResponse{}, err
	}
	return valuation.Estimate(cask, asOf), nil
}

// ReferenceValuation returns the age-curve valuation of one cask.
func (s *Store) ReferenceValuation(caskID int, asOf time.Time) (models.ReferenceValuationResponse, error) {
	cask, err := s.Cask(caskID)
	if err != nil {
		return models.ReferenceValuationResponse{}, err
	}
	return valuation.ReferenceValuation(cask, asOf), nil
}

// Lifecycle returns one cask's events ordered by timestamp.
func (s *Store) Lifecycle(caskID int) ([]models.LifecycleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cask, err := s.lookup(caskID)
	if err != nil {
		return nil, err
	}
	return sortedLifecycle(cask.Lifecycle), nil
}

// CaskBatch returns gauge records and estimates for the requested ids, or for the
// lowest active ids when none are given. Duplicates and unknown ids are dropped.
func (s *Store) CaskBatch(ids []int, limit int, asOf time.Time) (models.CaskBatchResponse, error) {
	maxItems := units.Clamp(limit, 1, MaxBatchLimit)

	casks, err := s.Casks()
	if err != nil {
		return models.CaskBatchResponse{}, err
	}

	var source []int
	if len(ids) > 0 {
		source = dedupe(ids)
	} else {
		source = activeIDs(casks)
		slices.Sort(source)
	}
	if len(source) > maxItems {
		source = source[:maxItems]
	}

	index := make(map[int]models.CaskRecord, len(casks))
	for _, cask := range casks {
		index[cask.CaskID] = cask
	}

	items := make([]models.CaskBatchItem, 0, len(source))
	for _, id := range source {
		cask, ok := index[id]
		if !ok {
			continue
		}
		items = append(items, models.CaskBatchItem{
			GaugeRecord: GaugeRecord(cask),
			Estimate:    valuation.Estimate(cask, asOf),
		})
	}

	return models.CaskBatchResponse{AsOf: asOf, Count: len(items), Items: items}, nil
}

// RecentLifecycle returns the newest events at or before asOf, oldest first.
func (s *Store) RecentLifecycle(limit int, asOf time.Time) (models.RecentLifecycleResponse, error) {
	maxItems := units.Clamp(limit, 1, MaxRecentLimit)

	casks, err := s.Casks()
	if err != nil {
		return models.RecentLifecycleResponse{}, err
	}

	var events []models.LifecycleEvent
	for _, cask := range casks {
		for _, event := range cask.Lifecycle {
			if !event.Timestamp.After(asOf) {
				events = append(events, event)
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > maxItems {
		events = events[:maxItems]
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	if events == nil {
		events = []models.LifecycleEvent{}
	}

	return models.RecentLifecycleResponse{AsOf: asOf, Count: len(events), Events: events}, nil
}

// Inventory builds the proof-of-reserve snapshot over active (non-bottled) casks.
func (s *Store) Inventory(asOf time.Time) (models.InventoryResponse, error) {
	casks, err := s.Casks()
	if err != nil {
		return models.InventoryResponse{}, err
	}

	var ids []int
	var proofGallons, wineGallons float64
	for _, cask := range casks {
		if cask.State == models.StateBottled {
			continue
		}
		ids = append(ids, cask.CaskID)
		proofGallons += cask.LastGauge.ProofGallons
		wineGallons += cask.LastGauge.WineGallons
	}

	return attestation.BuildInventoryResponse(attestation.InventoryInput{
		AsOf:              units.FormatISO(asOf),
		ActiveIDs:         ids,
		TotalProofGallons: units.Round2(proofGallons),
		TotalWineGallons:  units.Round2(wineGallons),
	}), nil
}

// Summary aggregates the whole portfolio, bottled casks included.
func (s *Store) Summary(asOf time.Time) (models.PortfolioSummaryResponse, error) {
	casks, err := s.Casks()
	if err != nil {
		return models.PortfolioSummaryResponse{}, err
	}

	var buckets models.AgeBuckets
	var lastGaugePG, estimatedPG float64
	var changed []int
	windowStart := asOf.Add(-recentChangeWindow)

	for _, cask := range casks {
		switch months := units.AverageMonthsBetween(cask.FillDate, asOf); {
		case months < 24:
			buckets.Months0To24++
		case months < 36:
			buckets.Months24To36++
		case months < 48:
			buckets.Months36To48++
		default:
			buckets.Months48Plus++
		}

		lastGaugePG += cask.LastGauge.ProofGallons
		estimatedPG += valuation.Estimate(cask, asOf).EstimatedCurrentProofGallons

		if !cask.UpdatedAt.After(asOf) && !cask.UpdatedAt.Before(windowStart) {
			changed = append(changed, cask.CaskID)
		}
	}

	slices.Sort(changed)
	if len(changed) > maxRecentlyChangedID {
		changed = changed[:maxRecentlyChangedID]
	}
	if changed == nil {
		changed = []int{}
	}

	return models.PortfolioSummaryResponse{
		AsOf:                       asOf,
		TotalCasks:                 len(casks),
		TotalLastGaugeProofGallons: units.Round2(lastGaugePG),
		TotalEstimatedProofGallons: units.Round2(estimatedPG),
		AgeBucketsMonths:           buckets,
		RecentlyChangedCaskIDs:     changed,
	}, nil
}

func activeIDs(casks []models.CaskRecord) []int {
	ids := make([]int, 0, len(casks))
	for _, cask := range casks {
		if cask.State != models.StateBottled {
			ids = append(ids, cask.CaskID)
		}
	}
	return ids
}

// dedupe keeps the first occurrence of each id.
func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
