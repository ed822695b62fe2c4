package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storegate_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storegate_http_requests_total",
		Help: "HTTP requests by route pattern.",
	}, []string{"route", "method", "status"})

	gateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storegate_auth_rejections_total",
		Help: "Requests refused by an authentication gate.",
	}, []string{"gate", "reason"})
)
