package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MongoLatency is the duration of ticket store queries.
	MongoLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "warden_dataaccess_mongo_latency",
			Help: "Duration of ticket store Mongo queries",
		},
		[]string{"dal", "query", "database", "collection"},
	)

	// MongoTotalRequests is the total number of ticket store requests.
	MongoTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_dataaccess_mongo_total_requests",
			Help: "Total number of ticket store Mongo requests",
		},
		[]string{"dal", "query", "database", "collection"},
	)
)
