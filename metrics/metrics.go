package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zap_connections_active",
		Help: "Number of open WebSocket connections",
	})

	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zap_operations_total",
		Help: "Total client operations dispatched",
	}, []string{"op"})

	NotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zap_notifications_total",
		Help: "Total notifications forwarded to clients",
	})

	PublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zap_bus_publish_failures_total",
		Help: "Total bus publishes that failed",
	})

	StoreErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zap_store_errors_total",
		Help: "Total storage errors reported by worker tasks",
	})

	ConnectionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zap_connection_failures_total",
		Help: "Connections terminated by a fatal error",
	}, []string{"reason"})
)
