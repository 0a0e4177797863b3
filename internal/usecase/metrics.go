package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growcery_orders_created_total",
		Help: "Orders created at checkout",
	})

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growcery_order_transitions_total",
			Help: "Order status changes by previous and new status",
		},
		[]string{"from", "to"},
	)

	stockRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growcery_stock_rejections_total",
			Help: "Requests rejected because stock was insufficient",
		},
		[]string{"op"},
	)
)
