package config

const (
	EnvAggregatorWorkers   = "AGGREGATOR_WORKERS"
	EnvAggregatorPoolLimit = "AGGREGATOR_POOL_LIMIT"
	EnvAggregationCeiling  = "AGGREGATION_CEILING"
	EnvAggregationCooldown = "AGGREGATION_COOLDOWN"

	EnvFilterWorkers  = "FILTER_WORKERS"
	EnvFilterBrand    = "FILTER_BRAND"
	EnvFilterMaxPrice = "FILTER_MAX_PRICE"

	EnvBookingWorkers        = "BOOKING_WORKERS"
	EnvBookingConfirmLatency = "BOOKING_CONFIRM_LATENCY"
	EnvBookingCancelLatency  = "BOOKING_CANCEL_LATENCY"

	EnvQueueCapacity = "QUEUE_CAPACITY"

	EnvSources            = "SOURCES"
	EnvUnavailableSources = "SOURCES_UNAVAILABLE"
	EnvSourceFetchLatency = "SOURCE_FETCH_LATENCY"

	EnvIntakeRate   = "INTAKE_RATE"
	EnvIntakeBurst  = "INTAKE_BURST"
	EnvDemoRequests = "DEMO_REQUESTS"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvStatsRedisAddr     = "STATS_REDIS_ADDR"
	EnvStatsRedisDB       = "STATS_REDIS_DB"
	EnvStatsRedisPassword = "STATS_REDIS_PASSWORD"
	EnvStatsPrefix        = "STATS_PREFIX"
	EnvStatsTTL           = "STATS_TTL"
)
