package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Trades consumed from the market stream"},
		[]string{"coin"},
	)
	FiringsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "firings_total", Help: "Interval boundary firings handled"},
		[]string{"coin"},
	)
	SkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "skips_total", Help: "Firings that ended without an order"},
		[]string{"coin", "reason"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Order steps attempted against the venue"},
		[]string{"coin", "step", "status"},
	)
	ReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "reconnects_total", Help: "Market stream reconnect attempts"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, FiringsTotal, SkipsTotal, OrdersTotal, ReconnectsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
