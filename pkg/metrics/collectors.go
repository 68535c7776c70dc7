package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nft_auction"

//nolint:gochecknoglobals
var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Published auction events by type.",
	}, []string{"type"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Rejected operations by error code.",
	}, []string{"code"})

	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Service name and version, always 1.",
	}, []string{"name", "version"})

	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Background settlement attempts by source and result.",
	}, []string{"source", "result"})
)

func ObserveEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

func ObserveRequest(route string, status int) {
	requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func ObserveError(code string) {
	errorsTotal.WithLabelValues(code).Inc()
}

func ObserveSettlement(source, result string) {
	settlementsTotal.WithLabelValues(source, result).Inc()
}
