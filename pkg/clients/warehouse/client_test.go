package warehouse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/repository/filestore"
	"github.com/mamadbah2/caskwarehouse/internal/server/handlers"
	"github.com/mamadbah2/caskwarehouse/internal/server/router"
	"github.com/mamadbah2/caskwarehouse/internal/service/portfolio"
	"github.com/mamadbah2/caskwarehouse/pkg/clients/warehouse"
	warehousesvc "github.com/mamadbah2/caskwarehouse/internal/service/warehouse"
)

var seededAt = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func newAPI(t *testing.T, lifecycleKey string) *httptest.Server {
	t.Helper()
	repo := filestore.NewRepository(filepath.Join(t.TempDir(), "portfolio.json"), nil)
	store := portfolio.NewStore(repo, nil, portfolio.WithClock(func() time.Time { return seededAt }))
	require.NoError(t, store.Init(context.Background()))

	adapter := warehousesvc.NewMockAdapter(store)
	srv := httptest.NewServer(router.New(
		handlers.NewWarehouseHandler(adapter, nil),
		handlers.NewLifecycleHandler(adapter, lifecycleKey, nil),
		nil,
	))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientReadsWarehouseAPI(t *testing.T) {
	srv := newAPI(t, "")
	client := warehouse.NewClient(srv.URL+"/", "")
	ctx := context.Background()
	asOf := seededAt.Add(time.Hour)

	inv, err := client.Inventory(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, models.InventorySchemaVersion, inv.SchemaVersion)
	assert.Equal(t, "2025-01-15T01:00:00.000Z", inv.AsOf)
	assert.Equal(t, len(inv.ActiveCaskIDsSorted), inv.PhysicalCaskCount)

	summary, err := client.Summary(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 47, summary.TotalCasks)

	batch, err := client.CaskBatch(ctx, []int{3, 3, 1}, 5, asOf)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Count)
	assert.Equal(t, 3, batch.Items[0].GaugeRecord.CaskID)

	recent, err := client.RecentLifecycle(ctx, 7, asOf)
	require.NoError(t, err)
	assert.Equal(t, 7, recent.Count)

	lifecycle, err := client.CaskLifecycle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, lifecycle.CaskID)
	assert.NotEmpty(t, lifecycle.Events)
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	srv := newAPI(t, "")
	client := warehouse.NewClient(srv.URL, "")

	_, err := client.CaskLifecycle(context.Background(), 4040)
	require.ErrorIs(t, err, warehouse.ErrNotFound)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "cask not found")

	_, err = client.PostLifecycle(context.Background(), models.LifecycleEventRequest{CaskID: 4040, ToState: models.StateBottled})
	assert.ErrorIs(t, err, warehouse.ErrNotFound)

	early := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = client.PostLifecycle(context.Background(), models.LifecycleEventRequest{CaskID: 1, ToState: models.StateTransfer, Timestamp: &early})
	assert.ErrorIs(t, err, warehouse.ErrRejected)
}

func TestClientPostsLifecycleWithKey(t *testing.T) {
	srv := newAPI(t, "k3y")
	ctx := context.Background()
	req := models.LifecycleEventRequest{CaskID: 2, ToState: models.StateTransfer}

	_, err := warehouse.NewClient(srv.URL, "").PostLifecycle(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	resp, err := warehouse.NewClient(srv.URL, "k3y").PostLifecycle(ctx, req)
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 2, resp.Event.CaskID)
	assert.Equal(t, models.StateTransfer, resp.Event.ToState)
}

func TestClientHonorsContext(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer blocked.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := warehouse.NewClient(blocked.URL, "").Inventory(ctx, seededAt)
	assert.Error(t, err)
}
