package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Provisional orders successfully created against the gateway.",
	})

	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_verifications_total",
		Help: "Terminal payment verification outcomes.",
	}, []string{"result"})
)
