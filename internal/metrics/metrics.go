package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 查询管线指标
var (
	QueryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policygenius_query_requests_total",
		Help: "Total /hackrx/run requests by outcome.",
	}, []string{"status"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "policygenius_query_duration_seconds",
		Help:    "End-to-end processing time of /hackrx/run calls.",
		Buckets: prometheus.DefBuckets,
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policygenius_document_cache_hits_total",
		Help: "Document cache hits.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policygenius_document_cache_misses_total",
		Help: "Document cache misses (ingestions started).",
	})

	DocumentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policygenius_documents_ingested_total",
		Help: "Documents successfully ingested into the cache.",
	})
)

// Handler 返回Prometheus指标的HTTP处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
