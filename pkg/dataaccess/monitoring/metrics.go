package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MongoLatency is the duration of queries against the ticket store.
	MongoLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "lynx_mongo_latency",
			Help: "Duration of queries against the ticket store",
		},
		[]string{"dal", "query", "database", "collection"},
	)

	// MongoTotalRequests is the total number of queries against the ticket store.
	MongoTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lynx_mongo_total_requests",
			Help: "Total number of queries against the ticket store",
		},
		[]string{"dal", "query", "database", "collection"},
	)
)
