package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created through the HTTP API.",
	})
	ordersDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_deleted_total",
		Help: "Orders deleted through the HTTP API.",
	})
)

// NewMetricsHandler creates the Prometheus scrape handler.
func NewMetricsHandler() http.Handler {
	return promhttp.Handler()
}
