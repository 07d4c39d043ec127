package config

import "time"

const (
	DefaultAggregatorWorkers   = 10
	DefaultAggregatorPoolLimit = 5
	DefaultAggregationCeiling  = 5
	DefaultAggregationCooldown = 10 * time.Second

	DefaultFilterWorkers = 10

	DefaultBookingWorkers        = 10
	DefaultBookingConfirmLatency = 1 * time.Second
	DefaultBookingCancelLatency  = 1 * time.Second

	DefaultQueueCapacity = 0 // unbounded

	DefaultSources            = "yandex,citydrive,delimobil"
	DefaultSourceFetchLatency = 1 * time.Second

	DefaultIntakeRate   = 0.0 // unlimited
	DefaultIntakeBurst  = 1
	DefaultDemoRequests = 3

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRequestTimeout  = 5 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultStatsRedisDB = 0
	DefaultStatsPrefix  = "carrent:stats"
	DefaultStatsTTL     = 24 * time.Hour
)
