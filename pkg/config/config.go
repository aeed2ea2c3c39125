package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"drivero/pkg/client"
	"drivero/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	ChatServiceURL string

	// Presence tuning. An instructor whose last report is older than
	// StalenessThreshold is treated as offline; reports arriving faster
	// than DebounceInterval are coalesced.
	StalenessThreshold time.Duration
	DebounceInterval   time.Duration
	SweepInterval      time.Duration

	HoldExpiry        time.Duration
	HoldSweepInterval time.Duration

	MaxQueryRadiusMeters float64
	MatchLimit           int

	CancellationGraceWindow time.Duration
	NoShowGraceWindow       time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		ChatServiceURL: getEnvStr(EnvChatServiceURL, DefaultChatServiceURL),

		StalenessThreshold: getEnvDuration(EnvStalenessThreshold, DefaultStalenessThreshold),
		DebounceInterval:   getEnvDuration(EnvDebounceInterval, DefaultDebounceInterval),
		SweepInterval:      getEnvDuration(EnvSweepInterval, DefaultSweepInterval),

		HoldExpiry:        getEnvDuration(EnvHoldExpiry, DefaultHoldExpiry),
		HoldSweepInterval: getEnvDuration(EnvHoldSweepInterval, DefaultHoldSweepInterval),

		MaxQueryRadiusMeters: getEnvFloat(EnvMaxQueryRadiusMeters, DefaultMaxQueryRadiusMeters),
		MatchLimit:           getEnvNum(EnvMatchLimit, DefaultMatchLimit),

		CancellationGraceWindow: getEnvDuration(EnvCancellationGraceWindow, DefaultCancellationGraceWindow),
		NoShowGraceWindow:       getEnvDuration(EnvNoShowGraceWindow, DefaultNoShowGraceWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.StalenessThreshold <= 0 {
		errors = append(errors, fmt.Sprintf("StalenessThreshold must be positive, got: %s", cfg.StalenessThreshold))
	}
	if cfg.DebounceInterval < 0 {
		errors = append(errors, fmt.Sprintf("DebounceInterval cannot be negative, got: %s", cfg.DebounceInterval))
	}
	if cfg.DebounceInterval >= cfg.StalenessThreshold {
		errors = append(errors, fmt.Sprintf("DebounceInterval (%s) must be below StalenessThreshold (%s), or every instructor goes stale between applied reports", cfg.DebounceInterval, cfg.StalenessThreshold))
	}
	if cfg.SweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("SweepInterval must be positive, got: %s", cfg.SweepInterval))
	}

	if cfg.HoldExpiry <= 0 {
		errors = append(errors, fmt.Sprintf("HoldExpiry must be positive, got: %s", cfg.HoldExpiry))
	}
	if cfg.HoldSweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("HoldSweepInterval must be positive, got: %s", cfg.HoldSweepInterval))
	}

	if cfg.MaxQueryRadiusMeters <= 0 {
		errors = append(errors, fmt.Sprintf("MaxQueryRadiusMeters must be positive, got: %f", cfg.MaxQueryRadiusMeters))
	}
	if cfg.MatchLimit <= 0 {
		errors = append(errors, fmt.Sprintf("MatchLimit must be positive, got: %d", cfg.MatchLimit))
	}

	if cfg.CancellationGraceWindow < 0 {
		errors = append(errors, fmt.Sprintf("CancellationGraceWindow cannot be negative, got: %s", cfg.CancellationGraceWindow))
	}
	if cfg.NoShowGraceWindow < 0 {
		errors = append(errors, fmt.Sprintf("NoShowGraceWindow cannot be negative, got: %s", cfg.NoShowGraceWindow))
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"chat_service_url", cfg.ChatServiceURL,
		"staleness_threshold", cfg.StalenessThreshold,
		"debounce_interval", cfg.DebounceInterval,
		"sweep_interval", cfg.SweepInterval,
		"hold_expiry", cfg.HoldExpiry,
		"hold_sweep_interval", cfg.HoldSweepInterval,
		"max_query_radius_meters", cfg.MaxQueryRadiusMeters,
		"match_limit", cfg.MatchLimit,
		"cancellation_grace_window", cfg.CancellationGraceWindow,
		"no_show_grace_window", cfg.NoShowGraceWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}
