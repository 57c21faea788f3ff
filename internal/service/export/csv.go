package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
)

const defaultBatchSize = 4

var (
	exportRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordersync_export_rows_total",
		Help: "Total number of CSV data rows written by the export pipeline.",
	})
	exportRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordersync_export_requests_total",
		Help: "Total number of CSV export runs grouped by result.",
	}, []string{"result"})
)

// csvHeader — порядок колонок табличной выгрузки.
var csvHeader = []string{"orderID", "orderWorth", "productID", "quantity"}

// FlatRow — одна строка выгрузки: заказ, развёрнутый по товарной позиции.
type FlatRow struct {
	OrderID    string
	OrderWorth decimal.Decimal
	ProductID  string
	Quantity   int
}

// Flatten разворачивает заказы в табличные строки: заказ с N позициями
// даёт N строк с повторением orderID и orderWorth, заказ без позиций —
// ни одной.
func Flatten(orders []domain.Order) []FlatRow {
	rows := make([]FlatRow, 0, len(orders))
	for _, order := range orders {
		for _, line := range order.Lines {
			rows = append(rows, FlatRow{
				OrderID:    order.ID,
				OrderWorth: order.Worth,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
			})
		}
	}
	return rows
}

// CSVExporter стримит отфильтрованные заказы в CSV, вычитывая их из
// хранилища батчами фиксированного размера.
type CSVExporter struct {
	repo      domain.OrderRepository
	batchSize int
	logger    *log.Entry
}

// NewCSVExporter создаёт экспортёр поверх хранилища заказов.
func NewCSVExporter(repo domain.OrderRepository, batchSize int, logger *log.Entry) *CSVExporter {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = log.WithField("component", "csv-export")
	}
	return &CSVExporter{repo: repo, batchSize: batchSize, logger: logger}
}

// Export пишет в w строку заголовка и по одной строке на каждую товарную
// позицию заказов из диапазона стоимости, в порядке курсора хранилища,
// без пропусков и дублей. В памяти держится не больше одного батча:
// запись в w блокируется, пока потребитель не готов принять данные, и
// тем самым притормаживает выборку из курсора. Отмена ctx (обрыв
// потребителя) прекращает выборку, не дочитывая курсор до конца.
func (e *CSVExporter) Export(ctx context.Context, w io.Writer, filter domain.WorthFilter) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		exportRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("write csv header: %w", err)
	}

	batches, orders := 0, 0
	err := e.repo.StreamByWorthRange(ctx, filter, e.batchSize, func(batch []domain.Order) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, row := range Flatten(batch) {
			record := []string{
				row.OrderID,
				row.OrderWorth.StringFixed(2),
				row.ProductID,
				strconv.Itoa(row.Quantity),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
			exportRowsTotal.Inc()
		}

		// Батч уходит потребителю сразу, строки не копятся в буфере.
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("flush csv batch: %w", err)
		}

		batches++
		orders += len(batch)
		return nil
	})
	if err != nil {
		exportRequestsTotal.WithLabelValues("error").Inc()
		return err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		exportRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("flush csv output: %w", err)
	}

	exportRequestsTotal.WithLabelValues("ok").Inc()
	e.logger.WithFields(log.Fields{"orders": orders, "batches": batches}).Info("csv export finished")
	return nil
}
