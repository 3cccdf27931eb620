package seed

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
)

var testAsOf = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func TestRngIsDeterministic(t *testing.T) {
	a, b := NewRng("alpha"), NewRng("alpha")
	for i := 0; i < 100; i++ {
		x := a.Next()
		require.Equal(t, x, b.Next())
		require.GreaterOrEqual(t, x, 0.0)
		require.Less(t, x, 1.0)
	}
	assert.NotEqual(t, NewRng("alpha").Next(), NewRng("beta").Next())
}

func TestRngIntBounds(t *testing.T) {
	r := NewRng(DefaultSeed)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := r.Int(3, 6)
		require.GreaterOrEqual(t, v, 3)
		require.LessOrEqual(t, v, 6)
		seen[v] = true
	}
	assert.Len(t, seen, 4)
}

func TestGenerateIsDeterministic(t *testing.T) {
	first := Generate(testAsOf)
	second := NewGenerator("").Generate(testAsOf)
	assert.Equal(t, first, second)

	other := NewGenerator("another-seed").Generate(testAsOf)
	assert.NotEqual(t, first.Casks, other.Casks)
}

func TestGenerateInvariants(t *testing.T) {
	data := Generate(testAsOf)

	assert.Equal(t, models.SchemaVersion, data.SchemaVersion)
	assert.Equal(t, testAsOf, data.GeneratedAt)
	require.Len(t, data.Casks, 47)

	pkg := regexp.MustCompile(`^PKG-\d{2}[A-L]\d{2}-\d{4}$`)
	for i, cask := range data.Casks {
		assert.Equal(t, i+1, cask.CaskID)
		assert.Regexp(t, pkg, cask.PackageID)
		assert.False(t, cask.FillDate.After(testAsOf), "cask %d filled in the future", cask.CaskID)
		assert.False(t, cask.LastGauge.Date.Before(cask.FillDate), "cask %d gauged before fill", cask.CaskID)
		assert.Equal(t, models.GaugeEntry, cask.EntryGauge.Method)
		assert.GreaterOrEqual(t, cask.EntryGauge.Proof, 118.0)
		assert.LessOrEqual(t, cask.EntryGauge.Proof, 128.0)
		assert.GreaterOrEqual(t, cask.LastGauge.Proof, float64(minProof))
		assert.LessOrEqual(t, cask.LastGauge.WineGallons, cask.EntryGauge.WineGallons)
		assert.Equal(t, units.ProofGallons(cask.EntryGauge.WineGallons, cask.EntryGauge.Proof), cask.EntryGauge.ProofGallons,
			"cask %d entry gauge proof gallons", cask.CaskID)
		assert.Equal(t, units.ProofGallons(cask.LastGauge.WineGallons, cask.LastGauge.Proof), cask.LastGauge.ProofGallons,
			"cask %d last gauge proof gallons", cask.CaskID)

		require.NotEmpty(t, cask.Lifecycle)
		assert.Equal(t, models.ReasonFill, cask.Lifecycle[0].Reason)
		last := cask.Lifecycle[len(cask.Lifecycle)-1]
		assert.Equal(t, cask.State, last.ToState, "cask %d final event does not match state", cask.CaskID)
		assert.Equal(t, last.Timestamp, cask.UpdatedAt)
		for j := 1; j < len(cask.Lifecycle); j++ {
			assert.False(t, cask.Lifecycle[j].Timestamp.Before(cask.Lifecycle[j-1].Timestamp))
		}

		wantWarehouse := primaryWarehouse
		if cask.CaskID%3 == 0 {
			wantWarehouse = secondaryWarehouse
		}
		assert.Equal(t, wantWarehouse, cask.WarehouseID)
	}
}

func TestPackageID(t *testing.T) {
	assert.Equal(t, "PKG-21D12-0007", packageID(7, time.Date(2021, 4, 12, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "PKG-99L31-0123", packageID(123, time.Date(1999, 12, 31, 23, 0, 0, 0, time.UTC)))
}

func TestBuildCaskBottledHistory(t *testing.T) {
	rng := NewRng(DefaultSeed)
	for _, caskID := range []int{13, 26, 39, 52} {
		cask := buildCask(rng, caskID, 140, testAsOf)
		require.Equal(t, models.StateBottled, cask.State, "cask %d", caskID)

		n := len(cask.Lifecycle)
		require.GreaterOrEqual(t, n, 3)
		ready, bottled := cask.Lifecycle[n-2], cask.Lifecycle[n-1]
		assert.Equal(t, models.StateBottlingReady, ready.ToState)
		assert.Equal(t, models.StateBottlingReady, bottled.FromState)
		assert.Equal(t, models.StateBottled, bottled.ToState)
		assert.True(t, ready.Timestamp.After(cask.LastGauge.Date))
		assert.True(t, bottled.Timestamp.After(ready.Timestamp))
		assert.Equal(t, bottled.Timestamp, cask.UpdatedAt)
	}
}
