// Package filestore persists the portfolio as a single JSON document on disk.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/repository"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Repository reads and rewrites the whole portfolio file on every call.
type Repository struct {
	path   string
	logger *zap.Logger
}

// NewRepository builds a file-backed repository rooted at path.
func NewRepository(path string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{path: path, logger: logger}
}

// Path returns the backing file location.
func (r *Repository) Path() string {
	return r.path
}

// Load decodes the portfolio file. A missing file yields repository.ErrNotFound.
func (r *Repository) Load(_ context.Context) (*models.PortfolioData, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("read portfolio file %s: %w", r.path, err)
	}

	var data models.PortfolioData
	if err := json.Unmarshal(bytes.TrimPrefix(raw, utf8BOM), &data); err != nil {
		return nil, fmt.Errorf("decode portfolio file %s: %w", r.path, err)
	}
	return &data, nil
}

// Save overwrites the portfolio file with the full dataset.
func (r *Repository) Save(_ context.Context, data *models.PortfolioData) error {
	if data == nil {
		return errors.New("portfolio data must not be nil")
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolio: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write portfolio file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace portfolio file: %w", err)
	}

	r.logger.Debug("portfolio persisted", zap.String("path", r.path), zap.Int("casks", len(data.Casks)))
	return nil
}
