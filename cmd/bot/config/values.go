package config

import "time"

const (
	// AppName is the name of the application.
	AppName = "warden"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvTicketsPerHour is the environment variable for the per-user ticket
	// creation limit.
	EnvTicketsPerHour = `TICKETS_PER_HOUR`

	// EnvReconcileInterval is the environment variable for the reconciliation
	// sweep interval.
	EnvReconcileInterval = `RECONCILE_INTERVAL`

	// EnvAutoCloseInterval is the environment variable for the auto-close
	// sweep interval.
	EnvAutoCloseInterval = `AUTO_CLOSE_INTERVAL`

	// EnvMappingRefreshInterval is the environment variable for the mapping
	// cache refresh interval.
	EnvMappingRefreshInterval = `MAPPING_REFRESH_INTERVAL`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// TicketsPerHour is how many tickets a single user may open per rolling
	// hour.
	TicketsPerHour = 5

	// ReconcileInterval is how often tickets are reconciled against discord.
	// Zero means the job default.
	ReconcileInterval time.Duration

	// AutoCloseInterval is how often ticket inactivity is evaluated. Zero
	// means the job default.
	AutoCloseInterval time.Duration

	// MappingRefreshInterval is how often the thread mapping cache is
	// reloaded. Zero means the job default.
	MappingRefreshInterval time.Duration
)
