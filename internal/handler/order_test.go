package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/service/export"
	"github.com/vladislavdragonenkov/ordersync/internal/storage/memory"
)

func newTestRouter(t *testing.T) (*gin.Engine, domain.OrderRepository) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	repo := memory.NewOrderRepository()
	exporter := export.NewCSVExporter(repo, 2, nil)
	orders := NewOrderHandler(repo, exporter, nil)

	router := gin.New()
	router.GET("/orders", orders.ListCSV)
	router.GET("/orders/:orderId", orders.GetByID)

	return router, repo
}

func seedOrders(t *testing.T, repo domain.OrderRepository) {
	t.Helper()

	_, err := repo.UpsertBatch(context.Background(), []domain.Order{
		{
			ID:    "ord-1",
			Worth: decimal.RequireFromString("12.50"),
			Lines: []domain.OrderLine{{ProductID: "7", Quantity: 2}},
		},
		{
			ID:    "ord-2",
			Worth: decimal.RequireFromString("99.00"),
			Lines: []domain.OrderLine{{ProductID: "8", Quantity: 1}},
		},
	})
	require.NoError(t, err)
}

func TestListCSV_ReturnsAttachment(t *testing.T) {
	router, repo := newTestRouter(t)
	seedOrders(t, repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=orders.csv`, w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "orderID,orderWorth,productID,quantity", lines[0])
	assert.Equal(t, "ord-1,12.50,7,2", lines[1])
	assert.Equal(t, "ord-2,99.00,8,1", lines[2])
}

func TestListCSV_WorthFilter(t *testing.T) {
	router, repo := newTestRouter(t)
	seedOrders(t, repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders?minWorth=50&maxWorth=100", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ord-2,99.00,8,1", lines[1])
}

func TestListCSV_InvalidFilterFallsBackToDefaults(t *testing.T) {
	router, repo := newTestRouter(t)
	seedOrders(t, repo)

	// Мусорные значения фильтра эквивалентны его отсутствию.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders?minWorth=abc&maxWorth=-", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestGetByID_ReturnsOrder(t *testing.T) {
	router, repo := newTestRouter(t)
	seedOrders(t, repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OrderID    string  `json:"orderID"`
		OrderWorth float64 `json:"orderWorth"`
		Products   []struct {
			ProductID string `json:"productID"`
			Quantity  int    `json:"quantity"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ord-1", body.OrderID)
	assert.InDelta(t, 12.50, body.OrderWorth, 0.0001)
	require.Len(t, body.Products, 1)
	assert.Equal(t, "7", body.Products[0].ProductID)
	assert.Equal(t, 2, body.Products[0].Quantity)
}

func TestGetByID_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/missing-id", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Order not found", body["message"])
	assert.Equal(t, "missing-id", body["orderId"])
}
