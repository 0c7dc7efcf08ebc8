package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/warden/pkg/logging"
)

// Parse reads the configuration from the environment and connects to the
// database. It exits when a required value is missing.
func Parse(l *slog.Logger) {
	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envMongoUri := os.Getenv(EnvMongoUri); envMongoUri != "" {
		l.Debug("Found MongoDB URI in environment", slog.String("key", EnvMongoUri))
		MongoUri = envMongoUri
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"

		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	if envLimit := os.Getenv(EnvTicketsPerHour); envLimit != "" {
		limit, err := strconv.Atoi(envLimit)
		if err != nil || limit <= 0 {
			l.Warn("Invalid ticket limit in environment, keeping default",
				slog.String("key", EnvTicketsPerHour),
				slog.String("value", envLimit),
			)
		} else {
			TicketsPerHour = limit
		}
	}

	ReconcileInterval = parseInterval(l, EnvReconcileInterval)
	AutoCloseInterval = parseInterval(l, EnvAutoCloseInterval)
	MappingRefreshInterval = parseInterval(l, EnvMappingRefreshInterval)

	if BotToken == "" ||
		ApplicationId == "" ||
		MongoUri == "" {

		l.Error("Not all required environment variables have been provided", slog.String(logging.KeyError, "Incomplete configuration"))
		os.Exit(1)
	}

	l.Debug("All required environment variables have been provided")
	connectMongo(l)
}

// parseInterval reads a duration from the environment. Zero means the caller
// should use its default.
func parseInterval(l *slog.Logger, key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		l.Warn("Invalid interval in environment, keeping default",
			slog.String("key", key),
			slog.String("value", v),
		)
		return 0
	}
	return d
}

func connectMongo(l *slog.Logger) {
	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = MongoUri

	db, err := mongoConn.Connect()
	if err != nil {
		l.Error("Error connecting to mongo", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	} else if db == nil {
		l.Error("MongoDB came back nil", slog.String(logging.KeyError, "MongoDB came back nil"))
		os.Exit(1)
	}

	dataaccess.MongoDB = db

	l.Debug("Connected to MongoDB", slog.String("key", EnvMongoUri))
}
