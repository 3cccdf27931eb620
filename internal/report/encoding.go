package report

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
)

var (
	wrapperArgs = abi.Arguments{
		{Type: mustType("uint8", nil)},
		{Type: mustType("bytes", nil)},
	}

	reservePublicArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
		{Name: "physicalCaskCount", Type: "uint256"},
		{Name: "totalTokenSupply", Type: "uint256"},
		{Name: "tokensPerCask", Type: "uint256"},
		{Name: "reserveRatio", Type: "uint256"},
		{Name: "timestamp", Type: "uint256"},
		{Name: "attestationHash", Type: "bytes32"},
	})}}

	reservePrivateArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
		{Name: "isFullyReserved", Type: "bool"},
		{Name: "timestamp", Type: "uint256"},
		{Name: "attestationHash", Type: "bytes32"},
	})}}

	caskBatchArgs = abi.Arguments{{Type: mustType("tuple[]", []abi.ArgumentMarshaling{
		{Name: "caskId", Type: "uint256"},
		{Name: "attributes", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "caskType", Type: "uint8"},
			{Name: "spiritType", Type: "uint8"},
			{Name: "fillDate", Type: "uint256"},
			{Name: "entryProofGallons", Type: "uint256"},
			{Name: "entryWineGallons", Type: "uint256"},
			{Name: "entryProof", Type: "uint16"},
			{Name: "lastGaugeProofGallons", Type: "uint256"},
			{Name: "lastGaugeWineGallons", Type: "uint256"},
			{Name: "lastGaugeProof", Type: "uint16"},
			{Name: "lastGaugeDate", Type: "uint256"},
			{Name: "lastGaugeMethod", Type: "uint8"},
			{Name: "estimatedProofGallons", Type: "uint256"},
			{Name: "state", Type: "uint8"},
			{Name: "warehouseCode", Type: "bytes16"},
		}},
	})}}

	lifecycleArgs = abi.Arguments{{Type: mustType("tuple", []abi.ArgumentMarshaling{
		{Name: "caskId", Type: "uint256"},
		{Name: "toState", Type: "uint8"},
		{Name: "timestamp", Type: "uint256"},
		{Name: "gaugeProofGallons", Type: "uint256"},
		{Name: "gaugeWineGallons", Type: "uint256"},
		{Name: "gaugeProof", Type: "uint16"},
	})}}
)

func mustType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(err)
	}
	return typ
}

func wrap(reportType models.ReportType, payload []byte) ([]byte, error) {
	encoded, err := wrapperArgs.Pack(uint8(reportType), payload)
	if err != nil {
		return nil, fmt.Errorf("wrap report type %d: %w", reportType, err)
	}
	return encoded, nil
}

// EncodeReservePublic encodes a public reserve attestation report.
func EncodeReservePublic(payload ReservePublicPayload) ([]byte, error) {
	inner, err := reservePublicArgs.Pack(payload)
	if err != nil {
		return nil, fmt.Errorf("encode reserve public payload: %w", err)
	}
	return wrap(models.ReportReservePublic, inner)
}

// EncodeReservePrivate encodes a confidential reserve attestation report.
func EncodeReservePrivate(payload ReservePrivatePayload) ([]byte, error) {
	inner, err := reservePrivateArgs.Pack(payload)
	if err != nil {
		return nil, fmt.Errorf("encode reserve private payload: %w", err)
	}
	return wrap(models.ReportReservePrivate, inner)
}

// EncodeCaskBatch encodes a batch of cask attribute updates.
func EncodeCaskBatch(updates []CaskAttributesInput) ([]byte, error) {
	if updates == nil {
		updates = []CaskAttributesInput{}
	}
	inner, err := caskBatchArgs.Pack(updates)
	if err != nil {
		return nil, fmt.Errorf("encode cask batch payload: %w", err)
	}
	return wrap(models.ReportCaskBatch, inner)
}

// EncodeLifecycle encodes a single lifecycle transition report.
func EncodeLifecycle(payload LifecyclePayload) ([]byte, error) {
	inner, err := lifecycleArgs.Pack(payload)
	if err != nil {
		return nil, fmt.Errorf("encode lifecycle payload: %w", err)
	}
	return wrap(models.ReportLifecycle, inner)
}

// Unwrap splits an encoded report into its type tag and inner payload.
func Unwrap(encoded []byte) (models.ReportType, []byte, error) {
	values, err := wrapperArgs.Unpack(encoded)
	if err != nil {
		return 0, nil, fmt.Errorf("decode report wrapper: %w", err)
	}
	reportType, ok := values[0].(uint8)
	if !ok {
		return 0, nil, errors.New("decode report wrapper: unexpected type tag")
	}
	payload, ok := values[1].([]byte)
	if !ok {
		return 0, nil, errors.New("decode report wrapper: unexpected payload")
	}
	return models.ReportType(reportType), payload, nil
}

// DecodeLifecycle reads back a lifecycle payload produced by EncodeLifecycle.
func DecodeLifecycle(payload []byte) (LifecyclePayload, error) {
	values, err := lifecycleArgs.Unpack(payload)
	if err != nil {
		return LifecyclePayload{}, fmt.Errorf("decode lifecycle payload: %w", err)
	}
	out := *abi.ConvertType(values[0], new(LifecyclePayload)).(*LifecyclePayload)
	return out, nil
}

// DecodeReservePublic reads back a payload produced by EncodeReservePublic.
func DecodeReservePublic(payload []byte) (ReservePublicPayload, error) {
	values, err := reservePublicArgs.Unpack(payload)
	if err != nil {
		return ReservePublicPayload{}, fmt.Errorf("decode reserve public payload: %w", err)
	}
	out := *abi.ConvertType(values[0], new(ReservePublicPayload)).(*ReservePublicPayload)
	return out, nil
}

// DecodeReservePrivate reads back a payload produced by EncodeReservePrivate.
func DecodeReservePrivate(payload []byte) (ReservePrivatePayload, error) {
	values, err := reservePrivateArgs.Unpack(payload)
	if err != nil {
		return ReservePrivatePayload{}, fmt.Errorf("decode reserve private payload: %w", err)
	}
	out := *abi.ConvertType(values[0], new(ReservePrivatePayload)).(*ReservePrivatePayload)
	return out, nil
}

// DecodeCaskBatch reads back a payload produced by EncodeCaskBatch.
func DecodeCaskBatch(payload []byte) ([]CaskAttributesInput, error) {
	values, err := caskBatchArgs.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("decode cask batch payload: %w", err)
	}
	out := *abi.ConvertType(values[0], new([]CaskAttributesInput)).(*[]CaskAttributesInput)
	return out, nil
}
