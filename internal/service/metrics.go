package service

import "github.com/prometheus/client_golang/prometheus"

var (
	SessionsOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bar_sessions_opened_total",
		Help: "Bar sessions opened",
	})

	TabsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bar_tabs_closed_total",
			Help: "Tabs paid, by payment method",
		},
		[]string{"payment_method"},
	)

	StockUnitsSoldTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bar_stock_units_sold_total",
		Help: "Stock units decremented by tab reconciliation",
	})
)

// InitMetrics registers the domain collectors on the default registry.
func InitMetrics() {
	prometheus.MustRegister(SessionsOpenedTotal, TabsClosedTotal, StockUnitsSoldTotal)
}
