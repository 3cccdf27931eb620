package sheets

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
)

// AttestationRange is the ledger tab receiving one row per reserve attestation.
const AttestationRange = "Attestations!A:H"

// AttestationLedger records proof-of-reserve outcomes for operators.
type AttestationLedger interface {
	AppendAttestation(ctx context.Context, entry models.AttestationLogEntry) error
	ReadAttestations(ctx context.Context) ([][]interface{}, error)
}

// GoogleSheetRepository implements AttestationLedger using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed ledger. Extra client
// options are appended after the credentials file option.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendAttestation appends one ledger row for a reserve attestation.
func (r *GoogleSheetRepository) AppendAttestation(ctx context.Context, entry models.AttestationLogEntry) error {
	return r.writeRow(ctx, AttestationRange, AttestationRow(entry))
}

// ReadAttestations returns every ledger row, header included.
func (r *GoogleSheetRepository) ReadAttestations(ctx context.Context) ([][]interface{}, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, AttestationRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", AttestationRange, err)
	}
	return resp.Values, nil
}

// AttestationRow lays out a ledger entry in column order.
func AttestationRow(entry models.AttestationLogEntry) []interface{} {
	txHash := entry.TxHash
	if txHash == "" {
		txHash = "not-submitted"
	}
	return []interface{}{
		units.FormatISO(entry.AsOf),
		entry.Mode,
		entry.PhysicalCaskCount,
		entry.TotalTokenSupply,
		entry.ReserveRatio,
		strconv.FormatBool(entry.FullyReserved),
		entry.AttestationHash,
		txHash,
	}
}

func (r *GoogleSheetRepository) writeRow(ctx context.Context, sheetRange string, values []interface{}) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

var _ AttestationLedger = (*GoogleSheetRepository)(nil)
