package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/service/export"
)

// OrderHandler обслуживает HTTP-эндпоинты заказов: табличную CSV-выгрузку
// и выборку одного заказа по идентификатору.
type OrderHandler struct {
	repo     domain.OrderRepository
	exporter *export.CSVExporter
	logger   *log.Entry
}

// NewOrderHandler создаёт обработчик поверх хранилища и CSV-экспортёра.
func NewOrderHandler(repo domain.OrderRepository, exporter *export.CSVExporter, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.WithField("component", "order-handler")
	}
	return &OrderHandler{repo: repo, exporter: exporter, logger: logger}
}

// ListCSV отдаёт заказы из диапазона стоимости как CSV-attachment.
// Некорректные значения фильтра не приводят к ошибке: для них действует
// значение по умолчанию (minWorth = 0, maxWorth не ограничен).
func (h *OrderHandler) ListCSV(c *gin.Context) {
	filter := parseWorthFilter(c)

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename=orders.csv`)

	if err := h.exporter.Export(c.Request.Context(), c.Writer, filter); err != nil {
		// Заголовки и часть тела уже могли уйти клиенту, статус менять поздно.
		h.logger.WithError(err).Error("csv export aborted")
	}
}

// GetByID возвращает один заказ в JSON. Отсутствующий заказ — 404 с телом,
// содержащим запрошенный идентификатор.
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID := c.Param("orderId")

	order, err := h.repo.Get(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "Order not found",
				"orderId": orderID,
			})
			return
		}
		h.logger.WithError(err).WithField("order_id", orderID).Error("failed to load order")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// parseWorthFilter читает minWorth/maxWorth из query-параметров.
func parseWorthFilter(c *gin.Context) domain.WorthFilter {
	filter := domain.WorthFilter{Min: decimal.Zero}

	if raw := c.Query("minWorth"); raw != "" {
		if min, err := decimal.NewFromString(raw); err == nil && !min.IsNegative() {
			filter.Min = min
		}
	}
	if raw := c.Query("maxWorth"); raw != "" {
		if max, err := decimal.NewFromString(raw); err == nil {
			filter.Max = &max
		}
	}

	return filter
}

type orderResponse struct {
	OrderID    string              `json:"orderID"`
	OrderWorth float64             `json:"orderWorth"`
	Products   []orderLineResponse `json:"products"`
}

type orderLineResponse struct {
	ProductID string `json:"productID"`
	Quantity  int    `json:"quantity"`
}

func toOrderResponse(order domain.Order) orderResponse {
	worth, _ := order.Worth.Float64()
	products := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		products = append(products, orderLineResponse{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return orderResponse{
		OrderID:    order.ID,
		OrderWorth: worth,
		Products:   products,
	}
}
