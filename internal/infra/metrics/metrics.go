package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mis_movements_total",
		Help: "Inventory movements recorded, by direction.",
	}, []string{"direction"})

	StockRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mis_stock_rejections_total",
		Help: "Outbound requests rejected for insufficient stock.",
	})
)
