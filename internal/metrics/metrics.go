package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "codeman"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Number of handled requests by route and status."},
		[]string{"method", "route", "status"},
	)
	BlobOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "blob_operations_total", Help: "Blob store operations by kind and result."},
		[]string{"op", "result"},
	)
	CodeFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "code_fetch_total", Help: "Proxy fetches by result (hit, ok, error)."},
		[]string{"result"},
	)
	ShareTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "share_tokens_total", Help: "Share token issue and verify outcomes."},
		[]string{"op", "result"},
	)
	OrphanBlobsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "orphan_blobs_deleted_total", Help: "Blobs removed by the orphan sweep."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(BlobOps)
	reg.MustRegister(CodeFetches)
	reg.MustRegister(ShareTokens)
	reg.MustRegister(OrphanBlobsDeleted)
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
