// Package portfolio owns the in-memory cask dataset, its read views and lifecycle mutations.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/repository"
	"github.com/mamadbah2/caskwarehouse/internal/service/seed"
)

var (
	// ErrCaskNotFound indicates no cask carries the requested id.
	ErrCaskNotFound = errors.New("cask not found")
	// ErrNotInitialized indicates the store was used before Init.
	ErrNotInitialized = errors.New("portfolio store not initialized")
	// ErrLifecycleValidation indicates a lifecycle request that would corrupt the record.
	ErrLifecycleValidation = errors.New("invalid lifecycle event")
)

// Store is the authoritative dataset handle. Every mutation is persisted through
// the repository as a whole-document write before it returns.
type Store struct {
	mu        sync.RWMutex
	repo      repository.PortfolioRepository
	generator *seed.Generator
	logger    *zap.Logger
	now       func() time.Time

	data *models.PortfolioData
	byID map[int]int
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithGenerator overrides the generator used when nothing is persisted.
func WithGenerator(g *seed.Generator) Option {
	return func(s *Store) { s.generator = g }
}

// NewStore wires a store over the given repository.
func NewStore(repo repository.PortfolioRepository, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		repo:      repo,
		generator: seed.NewGenerator(seed.DefaultSeed),
		logger:    logger,
		now:       time.Now,
		byID:      make(map[int]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the persisted dataset, or generates and persists a fresh one when
// the repository is empty.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.repo.Load(ctx)
	switch {
	case err == nil:
		s.logger.Info("portfolio loaded", zap.Int("casks", len(data.Casks)))
	case errors.Is(err, repository.ErrNotFound):
		generated := s.generator.Generate(s.now())
		data = &generated
		if err := s.repo.Save(ctx, data); err != nil {
			return fmt.Errorf("persist generated portfolio: %w", err)
		}
		s.logger.Info("portfolio generated", zap.Int("casks", len(data.Casks)), zap.Time("as_of", data.GeneratedAt))
	default:
		return fmt.Errorf("load portfolio: %w", err)
	}

	s.data = data
	s.rebuildIndex()
	return nil
}

// Load replaces the dataset in memory, for callers that already hold one.
func (s *Store) Load(data models.PortfolioData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = &data
	s.rebuildIndex()
}

func (s *Store) rebuildIndex() {
	s.byID = make(map[int]int, len(s.data.Casks))
	for i, cask := range s.data.Casks {
		s.byID[cask.CaskID] = i
	}
}

// Casks returns a copy of every cask record.
func (s *Store) Casks() ([]models.CaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, ErrNotInitialized
	}
	out := make([]models.CaskRecord, len(s.data.Casks))
	for i, cask := range s.data.Casks {
		out[i] = cloneCask(cask)
	}
	return out, nil
}

// Cask returns a copy of the cask with the given id.
func (s *Store) Cask(caskID int) (models.CaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cask, err := s.lookup(caskID)
	if err != nil {
		return models.CaskRecord{}, err
	}
	return cloneCask(*cask), nil
}

func (s *Store) lookup(caskID int) (*models.CaskRecord, error) {
	if s.data == nil {
		return nil, ErrNotInitialized
	}
	idx, ok := s.byID[caskID]
	if !ok {
		return nil, ErrCaskNotFound
	}
	return &s.data.Casks[idx], nil
}

// AppendLifecycle records a transition for a cask. Any target state is accepted.
// Regauge and transfer events carrying a proof-gallon reading also replace the
// cask's last gauge.
func (s *Store) AppendLifecycle(ctx context.Context, req models.LifecycleEventRequest) (models.LifecycleEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cask, err := s.lookup(req.CaskID)
	if err != nil {
		return models.LifecycleEvent{}, err
	}

	timestamp := s.now().UTC().Truncate(time.Millisecond)
	if req.Timestamp != nil {
		timestamp = req.Timestamp.UTC().Truncate(time.Millisecond)
	}
	if timestamp.Before(cask.FillDate) {
		return models.LifecycleEvent{}, fmt.Errorf("%w: timestamp precedes fill date of cask %d", ErrLifecycleValidation, cask.CaskID)
	}

	reason := models.ReasonRegauge
	if req.Reason != nil {
		reason = *req.Reason
	}

	event := models.LifecycleEvent{
		CaskID:            cask.CaskID,
		FromState:         cask.State,
		ToState:           req.ToState,
		Timestamp:         timestamp,
		GaugeProofGallons: valueOr(req.GaugeProofGallons, 0),
		GaugeWineGallons:  valueOr(req.GaugeWineGallons, 0),
		GaugeProof:        valueOr(req.GaugeProof, 0),
		Reason:            reason,
	}

	previous := cloneCask(*cask)
	cask.Lifecycle = append(cask.Lifecycle, event)
	cask.State = req.ToState
	cask.UpdatedAt = timestamp

	regaugeReason := req.Reason != nil && (*req.Reason == models.ReasonRegauge || *req.Reason == models.ReasonTransfer)
	if regaugeReason && req.GaugeProofGallons != nil {
		method := models.GaugeWetDip
		if *req.Reason == models.ReasonTransfer {
			method = models.GaugeTransfer
		}
		cask.LastGauge = models.GaugeSnapshot{
			ProofGallons: *req.GaugeProofGallons,
			WineGallons:  valueOr(req.GaugeWineGallons, cask.LastGauge.WineGallons),
			Proof:        valueOr(req.GaugeProof, cask.LastGauge.Proof),
			Date:         timestamp,
			Method:       method,
		}
	}

	if err := s.repo.Save(ctx, s.data); err != nil {
		// Unpersisted mutations must not stay visible to readers.
		*cask = previous
		return models.LifecycleEvent{}, fmt.Errorf("persist lifecycle event: %w", err)
	}

	s.logger.Info("lifecycle event appended",
		zap.Int("cask_id", event.CaskID),
		zap.String("from", string(event.FromState)),
		zap.String("to", string(event.ToState)),
		zap.String("reason", string(event.Reason)))

	return event, nil
}

func cloneCask(cask models.CaskRecord) models.CaskRecord {
	cask.Lifecycle = slices.Clone(cask.Lifecycle)
	return cask
}

// sortedLifecycle returns the events ordered by timestamp, ties kept in append order.
func sortedLifecycle(events []models.LifecycleEvent) []models.LifecycleEvent {
	out := slices.Clone(events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
