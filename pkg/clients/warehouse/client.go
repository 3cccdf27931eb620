// Package warehouse is the HTTP client workflows use to read and write the
// warehouse-of-record API.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
)

var (
	// ErrNotFound indicates the API has no such cask.
	ErrNotFound = errors.New("warehouse resource not found")
	// ErrRejected indicates the API refused a request as invalid.
	ErrRejected = errors.New("warehouse rejected request")
)

// lifecycleKeyHeader must match the API's shared-secret header.
const lifecycleKeyHeader = "x-lifecycle-key"

// Client is a resty-backed warehouse API client.
type Client struct {
	httpClient *resty.Client
}

// NewClient builds a client against baseURL. lifecycleKey is sent with lifecycle
// writes when non-empty.
func NewClient(baseURL, lifecycleKey string) *Client {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)
	if lifecycleKey != "" {
		restyClient.SetHeader(lifecycleKeyHeader, lifecycleKey)
	}
	return &Client{httpClient: restyClient}
}

// Inventory fetches the proof-of-reserve snapshot at asOf.
func (c *Client) Inventory(ctx context.Context, asOf time.Time) (models.InventoryResponse, error) {
	var out models.InventoryResponse
	err := c.get(ctx, "/inventory", map[string]string{"asOf": units.FormatISO(asOf)}, &out)
	return out, err
}

// Summary fetches portfolio aggregates at asOf.
func (c *Client) Summary(ctx context.Context, asOf time.Time) (models.PortfolioSummaryResponse, error) {
	var out models.PortfolioSummaryResponse
	err := c.get(ctx, "/portfolio/summary", map[string]string{"asOf": units.FormatISO(asOf)}, &out)
	return out, err
}

// CaskBatch fetches gauge records and estimates. Without ids the API picks the
// lowest active ids.
func (c *Client) CaskBatch(ctx context.Context, ids []int, limit int, asOf time.Time) (models.CaskBatchResponse, error) {
	params := map[string]string{
		"limit": strconv.Itoa(limit),
		"asOf":  units.FormatISO(asOf),
	}
	if len(ids) > 0 {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.Itoa(id)
		}
		params["ids"] = strings.Join(parts, ",")
	}

	var out models.CaskBatchResponse
	err := c.get(ctx, "/casks/batch", params, &out)
	return out, err
}

// RecentLifecycle fetches the newest lifecycle events at or before asOf.
func (c *Client) RecentLifecycle(ctx context.Context, limit int, asOf time.Time) (models.RecentLifecycleResponse, error) {
	var out models.RecentLifecycleResponse
	err := c.get(ctx, "/lifecycle/recent", map[string]string{
		"limit": strconv.Itoa(limit),
		"asOf":  units.FormatISO(asOf),
	}, &out)
	return out, err
}

// CaskLifecycle fetches one cask's lifecycle.
func (c *Client) CaskLifecycle(ctx context.Context, caskID int) (models.LifecycleResponse, error) {
	var out models.LifecycleResponse
	err := c.get(ctx, fmt.Sprintf("/cask/%d/lifecycle", caskID), nil, &out)
	return out, err
}

// PostLifecycle records a lifecycle event.
func (c *Client) PostLifecycle(ctx context.Context, req models.LifecycleEventRequest) (models.LifecyclePostResponse, error) {
	var out models.LifecyclePostResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post("/events/lifecycle")
	if err != nil {
		return out, fmt.Errorf("POST /events/lifecycle: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return out, statusError(http.MethodPost, "/events/lifecycle", resp)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return statusError(http.MethodGet, path, resp)
	}
	return nil
}

func statusError(method, path string, resp *resty.Response) error {
	err := fmt.Errorf("%s %s failed: %d %s", method, path, resp.StatusCode(), truncate(resp.String(), 200))
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
