package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"carrent/internal/filter"
	"carrent/internal/pipeline"
	kafka_config "carrent/pkg/kafka/config"
	"carrent/pkg/logger"
	"carrent/pkg/sanitizer"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	AggregatorWorkers   int
	AggregatorPoolLimit int
	AggregationCeiling  int
	AggregationCooldown time.Duration

	FilterWorkers  int
	FilterBrand    string
	FilterMaxPrice string
	Criteria       filter.Criteria

	BookingWorkers        int
	BookingConfirmLatency time.Duration
	BookingCancelLatency  time.Duration

	QueueCapacity int

	Sources            []string
	UnavailableSources []string
	SourceFetchLatency time.Duration

	IntakeRate   float64
	IntakeBurst  int
	DemoRequests int

	Port            string
	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	StatsRedisAddr     string
	StatsRedisDB       int
	StatsRedisPassword string
	StatsPrefix        string
	StatsTTL           time.Duration

	Kafka *kafka_config.Config

	Log *logger.Logger
}

// Load reads the configuration from the environment and exits the process if
// it is invalid.
func Load(serviceName string) *Config {
	cfg, err := Parse(serviceName)
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Parse reads and validates the configuration. The returned Config always
// carries a usable logger, even when err is not nil.
func Parse(serviceName string) (*Config, error) {
	cfg := &Config{
		AggregatorWorkers:   getEnvNum(EnvAggregatorWorkers, DefaultAggregatorWorkers),
		AggregatorPoolLimit: getEnvNum(EnvAggregatorPoolLimit, DefaultAggregatorPoolLimit),
		AggregationCeiling:  getEnvNum(EnvAggregationCeiling, DefaultAggregationCeiling),
		AggregationCooldown: getEnvDuration(EnvAggregationCooldown, DefaultAggregationCooldown),

		FilterWorkers:  getEnvNum(EnvFilterWorkers, DefaultFilterWorkers),
		FilterBrand:    getEnvStr(EnvFilterBrand, ""),
		FilterMaxPrice: getEnvStr(EnvFilterMaxPrice, ""),

		BookingWorkers:        getEnvNum(EnvBookingWorkers, DefaultBookingWorkers),
		BookingConfirmLatency: getEnvDuration(EnvBookingConfirmLatency, DefaultBookingConfirmLatency),
		BookingCancelLatency:  getEnvDuration(EnvBookingCancelLatency, DefaultBookingCancelLatency),

		QueueCapacity: getEnvNum(EnvQueueCapacity, DefaultQueueCapacity),

		Sources:            sanitizer.NormalizeSources(getEnvList(EnvSources, DefaultSources)),
		UnavailableSources: sanitizer.NormalizeSources(getEnvList(EnvUnavailableSources, "")),
		SourceFetchLatency: getEnvDuration(EnvSourceFetchLatency, DefaultSourceFetchLatency),

		IntakeRate:   getEnvFloat(EnvIntakeRate, DefaultIntakeRate),
		IntakeBurst:  getEnvNum(EnvIntakeBurst, DefaultIntakeBurst),
		DemoRequests: getEnvNum(EnvDemoRequests, DefaultDemoRequests),

		Port:            getEnvStr(EnvPort, DefaultPort),
		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		StatsRedisAddr:     getEnvStr(EnvStatsRedisAddr, ""),
		StatsRedisDB:       getEnvNum(EnvStatsRedisDB, DefaultStatsRedisDB),
		StatsRedisPassword: getEnvStr(EnvStatsRedisPassword, ""),
		StatsPrefix:        getEnvStr(EnvStatsPrefix, DefaultStatsPrefix),
		StatsTTL:           getEnvDuration(EnvStatsTTL, DefaultStatsTTL),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
	}

	var problems []string

	criteria, err := filter.ParseCriteria(cfg.FilterBrand, cfg.FilterMaxPrice)
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg.Criteria = criteria

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg.Kafka = kafkaCfg

	if err := cfg.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return cfg, fmt.Errorf("%s", strings.Join(problems, "\n"))
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if err := cfg.PipelineSettings().Validate(); err != nil {
		errors = append(errors, strings.TrimSpace(err.Error()))
	}

	if len(cfg.Sources) == 0 {
		errors = append(errors, "Sources cannot be empty")
	}
	if cfg.SourceFetchLatency < 0 {
		errors = append(errors, fmt.Sprintf("SourceFetchLatency cannot be negative, got: %s", cfg.SourceFetchLatency))
	}
	if cfg.IntakeRate < 0 {
		errors = append(errors, fmt.Sprintf("IntakeRate cannot be negative, got: %g", cfg.IntakeRate))
	}
	if cfg.IntakeBurst <= 0 {
		errors = append(errors, fmt.Sprintf("IntakeBurst must be positive, got: %d", cfg.IntakeBurst))
	}
	if cfg.DemoRequests < 0 {
		errors = append(errors, fmt.Sprintf("DemoRequests cannot be negative, got: %d", cfg.DemoRequests))
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
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

	if cfg.StatsRedisDB < 0 {
		errors = append(errors, fmt.Sprintf("StatsRedisDB cannot be negative, got: %d", cfg.StatsRedisDB))
	}
	if cfg.StatsTTL <= 0 {
		errors = append(errors, fmt.Sprintf("StatsTTL must be positive, got: %s", cfg.StatsTTL))
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

// PipelineSettings derives the in-process pipeline settings.
func (cfg *Config) PipelineSettings() pipeline.Settings {
	return pipeline.Settings{
		AggregatorWorkers:     cfg.AggregatorWorkers,
		AggregatorPoolLimit:   cfg.AggregatorPoolLimit,
		AggregationCeiling:    cfg.AggregationCeiling,
		AggregationCooldown:   cfg.AggregationCooldown,
		FilterWorkers:         cfg.FilterWorkers,
		Criteria:              cfg.Criteria,
		BookingWorkers:        cfg.BookingWorkers,
		BookingConfirmLatency: cfg.BookingConfirmLatency,
		BookingCancelLatency:  cfg.BookingCancelLatency,
		QueueCapacity:         cfg.QueueCapacity,
	}
}

// RedisOptions returns the stats store connection options, or nil when stats
// are kept in memory only.
func (cfg *Config) RedisOptions() *redis.Options {
	if cfg.StatsRedisAddr == "" {
		return nil
	}
	return &redis.Options{
		Addr:                  cfg.StatsRedisAddr,
		Password:              cfg.StatsRedisPassword,
		DB:                    cfg.StatsRedisDB,
		ContextTimeoutEnabled: true,
	}
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"aggregator_workers", cfg.AggregatorWorkers,
		"aggregator_pool_limit", cfg.AggregatorPoolLimit,
		"aggregation_ceiling", cfg.AggregationCeiling,
		"aggregation_cooldown", cfg.AggregationCooldown,
		"filter_workers", cfg.FilterWorkers,
		"filter_criteria", cfg.Criteria.String(),
		"booking_workers", cfg.BookingWorkers,
		"booking_confirm_latency", cfg.BookingConfirmLatency,
		"booking_cancel_latency", cfg.BookingCancelLatency,
		"queue_capacity", cfg.QueueCapacity,
		"sources", cfg.Sources,
		"unavailable_sources", cfg.UnavailableSources,
		"source_fetch_latency", cfg.SourceFetchLatency,
		"intake_rate", cfg.IntakeRate,
		"intake_burst", cfg.IntakeBurst,
		"demo_requests", cfg.DemoRequests,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"stats_redis_addr", cfg.StatsRedisAddr,
		"stats_redis_password_set", cfg.StatsRedisPassword != "",
		"stats_prefix", cfg.StatsPrefix,
	)
	if cfg.Kafka != nil {
		cfg.Kafka.LogConfiguration(cfg.Log)
	}
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

func getEnvList(key, fallback string) []string {
	return strings.Split(getEnvStr(key, fallback), ",")
}
