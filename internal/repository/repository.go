// Package repository declares the persistence contracts shared by the storage backends.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
)

// ErrNotFound indicates that no portfolio snapshot has been persisted yet.
var ErrNotFound = errors.New("portfolio snapshot not found")

// PortfolioRepository loads and overwrites the whole portfolio document.
type PortfolioRepository interface {
	Load(ctx context.Context) (*models.PortfolioData, error)
	Save(ctx context.Context, data *models.PortfolioData) error
}

// RunRepository records workflow executions.
type RunRepository interface {
	SaveWorkflowRun(ctx context.Context, run models.WorkflowRun) error
}
