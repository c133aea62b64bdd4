package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	RecordsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "records_created_total", Help: "Number of records created by collection."},
		[]string{"collection"},
	)
	CascadeDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "cascade_deleted_total", Help: "Number of dependent records removed with their resource."},
		[]string{"collection"},
	)
	CascadeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "cascade_failures_total", Help: "Number of dependent deletes that failed after a resource was removed."},
		[]string{"collection"},
	)
	StoreErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "catalog", Name: "store_errors_total", Help: "Number of requests answered with a server error."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RecordsCreated)
	reg.MustRegister(CascadeDeleted)
	reg.MustRegister(CascadeFailures)
	reg.MustRegister(StoreErrors)
}
