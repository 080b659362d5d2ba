package config

const (
	// AppName is the name of the application.
	AppName = "lynx"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvGuildId is the environment variable for the guild the bot serves.
	EnvGuildId = `GUILD_ID`

	// EnvTicketCategoryId is the environment variable for the category that
	// fallback ticket channels are created under.
	EnvTicketCategoryId = `TICKET_CATEGORY_ID`

	// EnvTicketLogsChannelId is the environment variable for the ticket logs
	// channel.
	EnvTicketLogsChannelId = `TICKET_LOGS_CHANNEL_ID`

	// EnvSupportRoleId is the environment variable for the support role.
	EnvSupportRoleId = `SUPPORT_ROLE_ID`

	// EnvAdminRoleId is the environment variable for the admin role.
	EnvAdminRoleId = `ADMIN_ROLE_ID`
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

	// GuildId is the guild the bot serves.
	GuildId string

	// TicketCategoryId is the category for fallback ticket channels.
	TicketCategoryId string

	// TicketLogsChannelId is the channel that lifecycle notices are logged to.
	TicketLogsChannelId string

	// SupportRoleId is the role that handles tickets.
	SupportRoleId string

	// AdminRoleId is the administrator role.
	AdminRoleId string
)
