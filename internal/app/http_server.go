package app

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/handler"
	"github.com/vladislavdragonenkov/ordersync/internal/middleware"
	"github.com/vladislavdragonenkov/ordersync/internal/service/export"
)

// newRouter собирает gin-маршрутизатор API заказов. Оба эндпоинта закрыты
// Basic-аутентификацией.
func newRouter(cfg Config, repo domain.OrderRepository, logger *log.Entry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger.WithField("layer", "http")))

	exporter := export.NewCSVExporter(repo, cfg.BatchSize, logger.WithField("layer", "export"))
	orders := handler.NewOrderHandler(repo, exporter, logger.WithField("layer", "handler"))

	authorized := router.Group("/", middleware.BasicAuth(cfg.BasicUsername, cfg.BasicPassword, logger.WithField("layer", "auth")))
	authorized.GET("/orders", orders.ListCSV)
	authorized.GET("/orders/:orderId", orders.GetByID)

	return router
}
