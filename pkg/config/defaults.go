package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "drivero"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultChatServiceURL = "http://localhost:8090"

	// Instructor clients report roughly every 15s; two missed reports
	// mark the instructor offline.
	DefaultStalenessThreshold = 30 * time.Second
	DefaultDebounceInterval   = 10 * time.Second
	DefaultSweepInterval      = 15 * time.Second

	DefaultHoldExpiry        = 2 * time.Minute
	DefaultHoldSweepInterval = 30 * time.Second

	DefaultMaxQueryRadiusMeters = 50_000.0
	DefaultMatchLimit           = 20

	DefaultCancellationGraceWindow = 15 * time.Minute
	DefaultNoShowGraceWindow       = 15 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLogLevel = "info"
)
