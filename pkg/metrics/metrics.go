package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DispatchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pinpoint", Name: "dispatch_requests_total", Help: "Number of dispatched API requests by route and status."},
		[]string{"method", "route", "status"},
	)
	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "pinpoint", Name: "dispatch_duration_seconds", Help: "Handler latency of dispatched API requests.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pinpoint", Name: "media_uploads_total", Help: "Number of media uploads by result."},
		[]string{"result"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pinpoint", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pinpoint", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

// Route label used when no route descriptor matched.
const NoRoute = "<none>"

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DispatchRequests)
	reg.MustRegister(DispatchDuration)
	reg.MustRegister(MediaUploads)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
