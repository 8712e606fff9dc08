/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricOpenConnections   = "open_connections"
	MetricOpenBackends      = "open_backends"
	MetricLiveQueries       = "live_queries"
	MetricNotifications     = "notifications_total"
	MetricWriteTransactions = "write_transactions_total"
)

var GaugeOpenConnections = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "modelstore",
		Name:      MetricOpenConnections,
		Help:      "Connections opened and not yet closed.",
	},
)

var GaugeOpenBackends = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "modelstore",
		Name:      MetricOpenBackends,
		Help:      "Logical databases currently held open by at least one connection.",
	},
)

var GaugeLiveQueries = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "modelstore",
		Name:      MetricLiveQueries,
		Help:      "Live queries listening for changes.",
	},
)

var CounterNotifications = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "modelstore",
		Name:      MetricNotifications,
		Help:      "Change notifications delivered to live query listeners.",
	},
)

var CounterWriteTransactions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "modelstore",
		Name:      MetricWriteTransactions,
		Help:      "Write transactions by outcome.",
	},
	[]string{
		"result",
	},
)

func init() {
	prometheus.MustRegister(GaugeOpenConnections)
	prometheus.MustRegister(GaugeOpenBackends)
	prometheus.MustRegister(GaugeLiveQueries)
	prometheus.MustRegister(CounterNotifications)
	prometheus.MustRegister(CounterWriteTransactions)
}
