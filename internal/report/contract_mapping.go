// Package report maps warehouse records onto the receiver contract's structs and
// ABI-encodes them into tagged oracle reports.
package report

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
)

var (
	// ErrInvalidBytes32 indicates a hash that is not 0x-prefixed 32-byte hex.
	ErrInvalidBytes32 = errors.New("value must be bytes32 hex")
	// ErrUint16Range indicates a scaled proof that does not fit the contract's uint16 slot.
	ErrUint16Range = errors.New("value out of uint16 range")
	// ErrUnsupportedEnum indicates a domain value with no contract ordinal.
	ErrUnsupportedEnum = errors.New("unsupported enum value")
)

// CaskAttributes mirrors the receiver contract's per-cask attribute struct.
type CaskAttributes struct {
	CaskType              uint8    `abi:"caskType"`
	SpiritType            uint8    `abi:"spiritType"`
	FillDate              *big.Int `abi:"fillDate"`
	EntryProofGallons     *big.Int `abi:"entryProofGallons"`
	EntryWineGallons      *big.Int `abi:"entryWineGallons"`
	EntryProof            uint16   `abi:"entryProof"`
	LastGaugeProofGallons *big.Int `abi:"lastGaugeProofGallons"`
	LastGaugeWineGallons  *big.Int `abi:"lastGaugeWineGallons"`
	LastGaugeProof        uint16   `abi:"lastGaugeProof"`
	LastGaugeDate         *big.Int `abi:"lastGaugeDate"`
	LastGaugeMethod       uint8    `abi:"lastGaugeMethod"`
	EstimatedProofGallons *big.Int `abi:"estimatedProofGallons"`
	State                 uint8    `abi:"state"`
	WarehouseCode         [16]byte `abi:"warehouseCode"`
}

// CaskAttributesInput is one element of a cask batch report.
type CaskAttributesInput struct {
	CaskID     *big.Int       `abi:"caskId"`
	Attributes CaskAttributes `abi:"attributes"`
}

// LifecyclePayload is the contract form of a lifecycle transition.
type LifecyclePayload struct {
	CaskID            *big.Int `abi:"caskId"`
	ToState           uint8    `abi:"toState"`
	Timestamp         *big.Int `abi:"timestamp"`
	GaugeProofGallons *big.Int `abi:"gaugeProofGallons"`
	GaugeWineGallons  *big.Int `abi:"gaugeWineGallons"`
	GaugeProof        uint16   `abi:"gaugeProof"`
}

// ReservePublicPayload discloses the full reserve position.
type ReservePublicPayload struct {
	PhysicalCaskCount *big.Int `abi:"physicalCaskCount"`
	TotalTokenSupply  *big.Int `abi:"totalTokenSupply"`
	TokensPerCask     *big.Int `abi:"tokensPerCask"`
	ReserveRatio      *big.Int `abi:"reserveRatio"`
	Timestamp         *big.Int `abi:"timestamp"`
	AttestationHash   [32]byte `abi:"attestationHash"`
}

// ReservePrivatePayload only discloses whether the supply is covered.
type ReservePrivatePayload struct {
	IsFullyReserved bool     `abi:"isFullyReserved"`
	Timestamp       *big.Int `abi:"timestamp"`
	AttestationHash [32]byte `abi:"attestationHash"`
}

// CaskTypeEnum returns the contract ordinal of a cask type.
func CaskTypeEnum(caskType models.CaskType) (uint8, error) {
	switch caskType {
	case models.CaskBourbonBarrel:
		return 0, nil
	case models.CaskSherryButt:
		return 1, nil
	case models.CaskHogshead:
		return 2, nil
	case models.CaskPortPipe:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: cask type %q", ErrUnsupportedEnum, caskType)
}

// SpiritTypeEnum returns the contract ordinal of a spirit type.
func SpiritTypeEnum(spiritType models.SpiritType) (uint8, error) {
	switch spiritType {
	case models.SpiritBourbon:
		return 0, nil
	case models.SpiritRye:
		return 1, nil
	case models.SpiritMalt:
		return 2, nil
	case models.SpiritWheat:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: spirit type %q", ErrUnsupportedEnum, spiritType)
}

// GaugeMethodEnum returns the contract ordinal of a gauge method.
func GaugeMethodEnum(method models.GaugeMethod) (uint8, error) {
	switch method {
	case models.GaugeEntry:
		return 0, nil
	case models.GaugeWetDip:
		return 1, nil
	case models.GaugeDisgorge:
		return 2, nil
	case models.GaugeTransfer:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: gauge method %q", ErrUnsupportedEnum, method)
}

// LifecycleStateEnum returns the contract ordinal of a lifecycle state.
func LifecycleStateEnum(state models.LifecycleState) (uint8, error) {
	switch state {
	case models.StateFilled:
		return 0, nil
	case models.StateMaturation:
		return 1, nil
	case models.StateRegauged:
		return 2, nil
	case models.StateTransfer:
		return 3, nil
	case models.StateBottlingReady:
		return 4, nil
	case models.StateBottled:
		return 5, nil
	}
	return 0, fmt.Errorf("%w: lifecycle state %q", ErrUnsupportedEnum, state)
}

// WarehouseCode packs the UTF-8 warehouse id into bytes16, truncated or zero padded.
func WarehouseCode(warehouseID string) [16]byte {
	var code [16]byte
	copy(code[:], warehouseID)
	return code
}

// ParseBytes32 decodes a 0x-prefixed 64 digit hex string.
func ParseBytes32(value, label string) ([32]byte, error) {
	var out [32]byte
	if len(value) != 66 || !strings.HasPrefix(value, "0x") {
		return out, fmt.Errorf("%s: %w", label, ErrInvalidBytes32)
	}
	raw, err := hexutil.Decode(value)
	if err != nil {
		return out, fmt.Errorf("%s: %w", label, ErrInvalidBytes32)
	}
	return common.BytesToHash(raw), nil
}

func toUint16(value *big.Int, label string) (uint16, error) {
	if value.Sign() < 0 || !value.IsUint64() || value.Uint64() > 65535 {
		return 0, fmt.Errorf("%s %s: %w", label, value, ErrUint16Range)
	}
	return uint16(value.Uint64()), nil
}

// MapBatchItem converts a batch item into the contract's attribute input.
func MapBatchItem(item models.CaskBatchItem) (CaskAttributesInput, error) {
	record := item.GaugeRecord

	caskType, err := CaskTypeEnum(record.CaskType)
	if err != nil {
		return CaskAttributesInput{}, err
	}
	spiritType, err := SpiritTypeEnum(record.SpiritType)
	if err != nil {
		return CaskAttributesInput{}, err
	}
	method, err := GaugeMethodEnum(record.LastGaugeMethod)
	if err != nil {
		return CaskAttributesInput{}, err
	}
	state, err := LifecycleStateEnum(record.State)
	if err != nil {
		return CaskAttributesInput{}, err
	}
	entryProof, err := toUint16(units.ToScaled1(record.EntryProof), "entryProof")
	if err != nil {
		return CaskAttributesInput{}, err
	}
	lastProof, err := toUint16(units.ToScaled1(record.LastGaugeProof), "lastGaugeProof")
	if err != nil {
		return CaskAttributesInput{}, err
	}

	return CaskAttributesInput{
		CaskID: big.NewInt(int64(record.CaskID)),
		Attributes: CaskAttributes{
			CaskType:              caskType,
			SpiritType:            spiritType,
			FillDate:              units.Unix(record.FillDate),
			EntryProofGallons:     units.ToScaled2(record.EntryProofGallons),
			EntryWineGallons:      units.ToScaled2(record.EntryWineGallons),
			EntryProof:            entryProof,
			LastGaugeProofGallons: units.ToScaled2(record.LastGaugeProofGallons),
			LastGaugeWineGallons:  units.ToScaled2(record.LastGaugeWineGallons),
			LastGaugeProof:        lastProof,
			LastGaugeDate:         units.Unix(record.LastGaugeDate),
			LastGaugeMethod:       method,
			EstimatedProofGallons: units.ToScaled2(item.Estimate.EstimatedCurrentProofGallons),
			State:                 state,
			WarehouseCode:         WarehouseCode(record.WarehouseID),
		},
	}, nil
}

// MapLifecycleEvent converts a lifecycle event into the contract's lifecycle report.
func MapLifecycleEvent(event models.LifecycleEvent) (LifecyclePayload, error) {
	toState, err := LifecycleStateEnum(event.ToState)
	if err != nil {
		return LifecyclePayload{}, err
	}
	proof, err := toUint16(units.ToScaled1(event.GaugeProof), "gaugeProof")
	if err != nil {
		return LifecyclePayload{}, err
	}
	return LifecyclePayload{
		CaskID:            big.NewInt(int64(event.CaskID)),
		ToState:           toState,
		Timestamp:         units.Unix(event.Timestamp),
		GaugeProofGallons: units.ToScaled2(event.GaugeProofGallons),
		GaugeWineGallons:  units.ToScaled2(event.GaugeWineGallons),
		GaugeProof:        proof,
	}, nil
}
