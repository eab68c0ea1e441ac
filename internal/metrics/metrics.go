package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OpenStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notify_open_sse_streams",
		Help: "Active SSE push connections",
	})
	Delivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_pushes_delivered_total",
		Help: "Notifications written to a push connection",
	})
	Dropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_pushes_dropped_total",
		Help: "Push writes dropped because the connection was slow or gone",
	})
	Published = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_published_total",
		Help: "Notifications persisted, by type",
	}, []string{"type"})
)

func Init() {
	prometheus.MustRegister(OpenStreams, Delivered, Dropped, Published)
}

// Serve exposes the scrape endpoint on its own listener.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
