package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvChatServiceURL = "CHAT_SERVICE_URL"

	EnvStalenessThreshold = "STALENESS_THRESHOLD"
	EnvDebounceInterval   = "DEBOUNCE_INTERVAL"
	EnvSweepInterval      = "SWEEP_INTERVAL"

	EnvHoldExpiry        = "HOLD_EXPIRY"
	EnvHoldSweepInterval = "HOLD_SWEEP_INTERVAL"

	EnvMaxQueryRadiusMeters = "MAX_QUERY_RADIUS_METERS"
	EnvMatchLimit           = "MATCH_LIMIT"

	EnvCancellationGraceWindow = "CANCELLATION_GRACE_WINDOW"
	EnvNoShowGraceWindow       = "NO_SHOW_GRACE_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
