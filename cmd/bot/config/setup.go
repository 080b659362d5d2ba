package config

import (
	"log/slog"
	"os"

	"github.com/Jacobbrewer1/lynx/pkg/dataaccess"
	"github.com/Jacobbrewer1/lynx/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/joho/godotenv"
)

func Parse(l *slog.Logger) {
	// A .env file is optional; real deployments inject the environment.
	if err := godotenv.Load(); err != nil {
		l.Debug("No .env file found, using process environment")
	}

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

	GuildId = os.Getenv(EnvGuildId)
	TicketCategoryId = os.Getenv(EnvTicketCategoryId)
	TicketLogsChannelId = os.Getenv(EnvTicketLogsChannelId)
	SupportRoleId = os.Getenv(EnvSupportRoleId)
	AdminRoleId = os.Getenv(EnvAdminRoleId)

	if BotToken == "" || ApplicationId == "" || MongoUri == "" || GuildId == "" {
		l.Error("Missing required environment variables",
			slog.String("required", EnvBotToken+", "+EnvApplicationId+", "+EnvMongoUri+", "+EnvGuildId))
		os.Exit(1)
	}

	l.Debug("All required environment variables have been provided")
	connectMongo(l)
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
