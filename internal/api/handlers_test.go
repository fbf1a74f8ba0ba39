package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kosarica/pricehist/internal/domain"
	"github.com/kosarica/pricehist/internal/reconcile"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthCheck_ReportsOkWithoutTouchingDatabase(t *testing.T) {
	h := &Handlers{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	h.HealthCheck(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping api integration test in short mode")
	}
	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pricehist_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp").WithStartupTimeout(60*time.Second),
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(1).WithStartupTimeout(60*time.Second),
			),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, reconcile.EnsureSchema(ctx, pool))
	return pool
}

func seedOneStoreWithOneProduct(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	p, err := domain.NewProduct(domain.Product{ProductID: "P1", Name: "Mlijeko", Barcode: "12345678", Price: domain.NewMoney(1.99)})
	require.NoError(t, err)
	s, err := domain.NewStore(domain.Store{Chain: "acme", StoreID: "S1", Products: []domain.Product{p}})
	require.NoError(t, err)

	r := reconcile.New(pool)
	_, err = r.Reconcile(context.Background(), time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), "acme", []domain.Store{s})
	require.NoError(t, err)
}

func TestListChains_ReturnsReconciledChains(t *testing.T) {
	pool := newTestPool(t)
	seedOneStoreWithOneProduct(t, pool)
	h := New(pool)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/chains", nil)

	h.ListChains(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "acme")
}

func TestGetStorePrices_ReturnsLatestPriceForStore(t *testing.T) {
	pool := newTestPool(t)
	seedOneStoreWithOneProduct(t, pool)
	h := New(pool)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/chains/acme/stores/S1/prices", nil)
	c.Params = gin.Params{{Key: "chain", Value: "acme"}, {Key: "storeId", Value: "S1"}}

	h.GetStorePrices(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mlijeko")
	assert.Contains(t, w.Body.String(), "1.99")
}

func TestGetStorePrices_UnknownStoreReturnsEmptyNotError(t *testing.T) {
	pool := newTestPool(t)
	h := New(pool)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/chains/ghost/stores/ghost/prices", nil)
	c.Params = gin.Params{{Key: "chain", Value: "ghost"}, {Key: "storeId", Value: "ghost"}}

	h.GetStorePrices(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}
