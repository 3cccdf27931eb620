package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/service/portfolio"
	"github.com/mamadbah2/caskwarehouse/internal/service/warehouse"
)

const serviceName = "warehouse-api"

// WarehouseHandler serves the read endpoints of the warehouse-of-record API.
type WarehouseHandler struct {
	adapter warehouse.Adapter
	logger  *zap.Logger
	now     func() time.Time
}

// NewWarehouseHandler constructs the HTTP handler adapter.
func NewWarehouseHandler(adapter warehouse.Adapter, logger *zap.Logger) *WarehouseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WarehouseHandler{adapter: adapter, logger: logger, now: time.Now}
}

// Health reports liveness.
func (h *WarehouseHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Service: serviceName,
		AsOf:    h.now().UTC().Truncate(time.Millisecond),
	})
}

// Inventory returns the proof-of-reserve snapshot.
func (h *WarehouseHandler) Inventory(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	resp, err := h.adapter.Inventory(asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GaugeRecord returns one cask's gauge record.
func (h *WarehouseHandler) GaugeRecord(c *gin.Context) {
	caskID, ok := h.caskID(c)
	if !ok {
		return
	}
	resp, err := h.adapter.GaugeRecord(caskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Estimate returns one cask's angel's share estimate.
func (h *WarehouseHandler) Estimate(c *gin.Context) {
	caskID, ok := h.caskID(c)
	if !ok {
		return
	}
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	resp, err := h.adapter.Estimate(caskID, asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Lifecycle returns one cask's lifecycle events.
func (h *WarehouseHandler) Lifecycle(c *gin.Context) {
	caskID, ok := h.caskID(c)
	if !ok {
		return
	}
	events, err := h.adapter.Lifecycle(caskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LifecycleResponse{CaskID: caskID, Events: events})
}

// CaskBatch returns gauge records and estimates for a set of casks.
func (h *WarehouseHandler) CaskBatch(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	ids := parseIDList(c.Query("ids"))
	limit := parseLimit(c.Query("limit"), portfolio.DefaultBatchLimit, 1, portfolio.MaxBatchLimit)

	resp, err := h.adapter.CaskBatch(ids, limit, asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecentLifecycle returns the newest lifecycle events across the portfolio.
func (h *WarehouseHandler) RecentLifecycle(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	limit := parseLimit(c.Query("limit"), portfolio.DefaultRecentLimit, 1, portfolio.MaxRecentLimit)

	resp, err := h.adapter.RecentLifecycle(limit, asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary returns portfolio aggregates.
func (h *WarehouseHandler) Summary(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	resp, err := h.adapter.Summary(asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarketData returns the reference market signal.
func (h *WarehouseHandler) MarketData(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.adapter.MarketData(asOf))
}

// ReferenceValuation returns one cask's reference valuation.
func (h *WarehouseHandler) ReferenceValuation(c *gin.Context) {
	caskID, ok := h.caskID(c)
	if !ok {
		return
	}
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	resp, err := h.adapter.ReferenceValuation(caskID, asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WarehouseHandler) asOf(c *gin.Context) (time.Time, bool) {
	asOf, err := parseAsOf(c, h.now)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return asOf, true
}

func (h *WarehouseHandler) caskID(c *gin.Context) (int, bool) {
	id, err := parseCaskID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

func (h *WarehouseHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, portfolio.ErrCaskNotFound) {
		respondError(c, http.StatusNotFound, "cask not found")
		return
	}
	h.logger.Error("warehouse request failed", zap.String("path", c.FullPath()), zap.Error(err))
	respondError(c, http.StatusInternalServerError, "internal error")
}
