// Package attestation commits inventory snapshots to a hash and computes reserve coverage.
package attestation

import (
	"encoding/json"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
)

// ReserveRatioScale is the fixed-point scale of on-chain reserve ratios.
var ReserveRatioScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// canonical fixes the field order of the hashed document.
type canonical struct {
	SchemaVersion       string `json:"schema_version"`
	AsOf                string `json:"as_of"`
	ActiveCaskIDsSorted []int  `json:"active_cask_ids_sorted"`
}

// SortedIDs returns a sorted, deduplicated copy of ids.
func SortedIDs(ids []int) []int {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// Hash computes the keccak256 commitment over asOf and the active cask id set.
// The input order of ids does not matter.
func Hash(asOf string, ids []int) string {
	sorted := SortedIDs(ids)
	if sorted == nil {
		sorted = []int{}
	}
	payload, err := json.Marshal(canonical{
		SchemaVersion:       models.InventorySchemaVersion,
		AsOf:                asOf,
		ActiveCaskIDsSorted: sorted,
	})
	if err != nil {
		// Marshalling a struct of strings and ints cannot fail.
		panic(err)
	}
	return crypto.Keccak256Hash(payload).Hex()
}

// InventoryInput carries the aggregates needed for an inventory snapshot.
type InventoryInput struct {
	AsOf              string
	ActiveIDs         []int
	TotalProofGallons float64
	TotalWineGallons  float64
}

// BuildInventoryResponse assembles the proof-of-reserve inventory snapshot.
func BuildInventoryResponse(in InventoryInput) models.InventoryResponse {
	sorted := SortedIDs(in.ActiveIDs)
	if sorted == nil {
		sorted = []int{}
	}
	return models.InventoryResponse{
		SchemaVersion:       models.InventorySchemaVersion,
		AsOf:                in.AsOf,
		ActiveCaskIDsSorted: sorted,
		PhysicalCaskCount:   len(sorted),
		TTBFormReference:    models.TTBFormReference,
		Totals: models.InventoryTotals{
			ProofGallons: in.TotalProofGallons,
			WineGallons:  in.TotalWineGallons,
		},
		AttestationHash: Hash(in.AsOf, sorted),
	}
}

// ReserveRatio is physical backing over token supply; zero when there is no supply.
func ReserveRatio(physicalCaskCount, tokensPerCask int64, totalTokenSupply *big.Int) float64 {
	if totalTokenSupply == nil || totalTokenSupply.Sign() <= 0 {
		return 0
	}
	backing := new(big.Float).SetInt(new(big.Int).Mul(big.NewInt(physicalCaskCount), big.NewInt(tokensPerCask)))
	ratio, _ := backing.Quo(backing, new(big.Float).SetInt(totalTokenSupply)).Float64()
	return ratio
}

// ReserveRatioScaled is ReserveRatio in 1e18 fixed point, computed on integers.
func ReserveRatioScaled(physicalCaskCount, tokensPerCask int64, totalTokenSupply *big.Int) *big.Int {
	if totalTokenSupply == nil || totalTokenSupply.Sign() <= 0 {
		return new(big.Int)
	}
	backing := new(big.Int).Mul(big.NewInt(physicalCaskCount), big.NewInt(tokensPerCask))
	backing.Mul(backing, ReserveRatioScale)
	return backing.Quo(backing, totalTokenSupply)
}

// FullyReserved reports whether physical casks cover the whole token supply.
func FullyReserved(physicalCaskCount, tokensPerCask int64, totalTokenSupply *big.Int) bool {
	if totalTokenSupply == nil {
		return true
	}
	backing := new(big.Int).Mul(big.NewInt(physicalCaskCount), big.NewInt(tokensPerCask))
	return backing.Cmp(totalTokenSupply) >= 0
}
