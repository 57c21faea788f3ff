package export

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/storage/memory"
)

func seedRepo(t *testing.T) domain.OrderRepository {
	t.Helper()

	repo := memory.NewOrderRepository()
	_, err := repo.UpsertBatch(context.Background(), []domain.Order{
		{
			ID:    "A",
			Worth: decimal.RequireFromString("5.00"),
			Lines: []domain.OrderLine{
				{ProductID: "101", Quantity: 1},
				{ProductID: "102", Quantity: 3},
			},
		},
		{
			ID:    "B",
			Worth: decimal.RequireFromString("15.00"),
		},
		{
			ID:    "C",
			Worth: decimal.RequireFromString("25.00"),
			Lines: []domain.OrderLine{{ProductID: "103", Quantity: 2}},
		},
	})
	require.NoError(t, err)
	return repo
}

func TestFlatten(t *testing.T) {
	rows := Flatten([]domain.Order{
		{
			ID:    "A",
			Worth: decimal.RequireFromString("5.00"),
			Lines: []domain.OrderLine{
				{ProductID: "101", Quantity: 1},
				{ProductID: "102", Quantity: 3},
			},
		},
		{ID: "B", Worth: decimal.RequireFromString("15.00")},
	})

	// Заказ без позиций не даёт строк.
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].OrderID)
	assert.Equal(t, "101", rows[0].ProductID)
	assert.Equal(t, "A", rows[1].OrderID)
	assert.Equal(t, "102", rows[1].ProductID)
	assert.Equal(t, 3, rows[1].Quantity)
}

func TestExport_WritesHeaderAndRows(t *testing.T) {
	repo := seedRepo(t)
	exporter := NewCSVExporter(repo, 2, nil)

	var out strings.Builder
	err := exporter.Export(context.Background(), &out, domain.WorthFilter{Min: decimal.Zero})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4, "header plus one row per product line")
	assert.Equal(t, []string{"orderID", "orderWorth", "productID", "quantity"}, records[0])
	assert.Equal(t, []string{"A", "5.00", "101", "1"}, records[1])
	assert.Equal(t, []string{"A", "5.00", "102", "3"}, records[2])
	assert.Equal(t, []string{"C", "25.00", "103", "2"}, records[3])
}

func TestExport_WorthRangeFilter(t *testing.T) {
	repo := seedRepo(t)
	exporter := NewCSVExporter(repo, 2, nil)

	max := decimal.RequireFromString("30.00")
	filter := domain.WorthFilter{Min: decimal.RequireFromString("10.00"), Max: &max}

	var out strings.Builder
	err := exporter.Export(context.Background(), &out, filter)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	require.NoError(t, err)

	// B (15.00) попадает в диапазон, но позиций не имеет; остаётся только C.
	require.Len(t, records, 2)
	assert.Equal(t, "C", records[1][0])
}

func TestExport_WorthAlwaysTwoDecimals(t *testing.T) {
	repo := memory.NewOrderRepository()
	_, err := repo.UpsertBatch(context.Background(), []domain.Order{
		{
			ID:    "D",
			Worth: decimal.RequireFromString("7"),
			Lines: []domain.OrderLine{{ProductID: "104", Quantity: 1}},
		},
	})
	require.NoError(t, err)

	exporter := NewCSVExporter(repo, 2, nil)

	var out strings.Builder
	require.NoError(t, exporter.Export(context.Background(), &out, domain.WorthFilter{Min: decimal.Zero}))

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Масштаб повторяет колонку хранения: всегда две цифры после точки.
	assert.Equal(t, "7.00", records[1][1])
}

func TestExport_EmptyRangeStillWritesHeader(t *testing.T) {
	repo := seedRepo(t)
	exporter := NewCSVExporter(repo, 2, nil)

	var out strings.Builder
	err := exporter.Export(context.Background(), &out, domain.WorthFilter{Min: decimal.RequireFromString("1000.00")})
	require.NoError(t, err)

	assert.Equal(t, "orderID,orderWorth,productID,quantity\n", out.String())
}

type failingWriter struct {
	wrote int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.wrote > 0 {
		return 0, errors.New("consumer disconnected")
	}
	w.wrote += len(p)
	return len(p), nil
}

func TestExport_WriterErrorAbortsStream(t *testing.T) {
	repo := seedRepo(t)
	exporter := NewCSVExporter(repo, 1, nil)

	err := exporter.Export(context.Background(), &failingWriter{}, domain.WorthFilter{Min: decimal.Zero})
	require.Error(t, err)
}
