package dataaccess

import (
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool.
var MongoDB *mongo.Client

const mongoDatabase = "warden"

// Collection names.
const (
	collTickets     = "tickets"
	collCategories  = "ticket_categories"
	collMappings    = "thread_mappings"
	collAuditLog    = "audit_log"
	collResolutions = "resolutions"
	collLocks       = "interaction_locks"
	collConfigs     = "guild_configs"
)

// observe starts the prometheus metrics for a query and returns the timer.
// Callers defer timer.ObserveDuration().
func observe(dal, query, collection string) *prometheus.Timer {
	monitoring.MongoTotalRequests.WithLabelValues(dal, query, mongoDatabase, collection).Inc()
	return prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(dal, query, mongoDatabase, collection))
}
