package main

import (
	"context"
	"errors"

	"carrent/internal/booking"
	"carrent/internal/intake"
	"carrent/internal/ops/handler"
	"carrent/internal/outlet"
	"carrent/internal/pipeline"
	"carrent/internal/sources"
	"carrent/pkg/app"
	"carrent/pkg/config"
	"carrent/pkg/kafka"
	kafka_middleware "carrent/pkg/kafka/middleware"
	"carrent/pkg/stats"

	"github.com/redis/go-redis/v9"
)

const ServiceName = "carrent"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Carrent booking pipeline")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	memory := stats.NewMemoryRecorder()
	recorder, sharedStats := initStats(cfg, memory)

	p, err := pipeline.Run(ctx, nil, cfg.PipelineSettings(), pipeline.Deps{
		Sources:  sources.NewSimulatedClient(cfg.SourceFetchLatency, sources.WithUnavailable(cfg.UnavailableSources...)),
		Ledger:   booking.NewMemoryLedger(),
		Recorder: recorder,
		Logger:   cfg.Log,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to start pipeline", "error", err)
	}

	kafkaMetrics := kafka_middleware.NewMetrics()
	publisher, producer := initPublisher(cfg, kafkaMetrics)

	drain := outlet.NewDrain(p.Outbound(), publisher, cfg.Log.ForStage(outlet.StageName)).Pool(cfg.BookingWorkers)
	if err := drain.Start(ctx); err != nil {
		cfg.Log.Fatal("Failed to start outlet", "error", err)
	}

	intakeCtx, stopIntake := context.WithCancel(ctx)
	feeder := intake.NewFeeder(p.Inbound(), cfg.IntakeRate, cfg.IntakeBurst, cfg.Sources, cfg.Log.ForStage("intake"))

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer = startConsumer(intakeCtx, cfg, feeder, kafkaMetrics)
	} else {
		go feedDemo(intakeCtx, cfg, feeder)
	}

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown("intake", func(context.Context) error {
		stopIntake()
		p.Inbound().Close()
		if consumer != nil {
			return consumer.Close()
		}
		return nil
	})
	serverApp.OnShutdown("pipeline", func(context.Context) error {
		p.Stop()
		return nil
	})
	serverApp.OnShutdown("outlet", func(context.Context) error {
		drain.Stop()
		return nil
	})
	if producer != nil {
		serverApp.OnShutdown("kafka producer", func(context.Context) error { return producer.Close() })
	}
	if sharedStats != nil {
		serverApp.OnShutdown("stats store", func(context.Context) error { return sharedStats.Close() })
	}

	var (
		statsPinger handler.Pinger
		statsOpts   = []handler.StatsOption{handler.WithKafkaMetrics(kafkaMetrics)}
	)
	if sharedStats != nil {
		statsPinger = sharedStats
		statsOpts = append(statsOpts, handler.WithSharedTotals(sharedStats))
	}

	serverApp.SetApp(
		handler.NewHealthHandler(p, statsPinger, cfg.Log),
		handler.NewStatsHandler(p, memory, cfg.Log, statsOpts...),
	)
	if err := serverApp.Run(ctx); err != nil {
		cfg.Log.Fatal("Application stopped with errors", "error", err)
	}
}

// initStats keeps counters in memory and, when a stats store is configured,
// mirrors them into Redis.
func initStats(cfg *config.Config, memory *stats.MemoryRecorder) (stats.Recorder, *stats.RedisRecorder) {
	opts := cfg.RedisOptions()
	if opts == nil {
		return memory, nil
	}

	shared := stats.NewRedisRecorder(redis.NewClient(opts),
		stats.WithPrefix(cfg.StatsPrefix),
		stats.WithTTL(cfg.StatsTTL),
	)
	cfg.Log.Info("Shared stats enabled", "addr", opts.Addr, "prefix", shared.Prefix())
	return stats.Tee(memory, shared), shared
}

func initPublisher(cfg *config.Config, metrics *kafka_middleware.Metrics) (outlet.Publisher, *kafka.Producer) {
	logPublisher := outlet.NewLogPublisher(cfg.Log.ForStage(outlet.StageName))
	if !cfg.Kafka.Enabled {
		return logPublisher, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Kafka.ResultTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka producer", "error", err)
	}
	producer.Use(metrics.Producer())
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	return outlet.Multi(logPublisher, outlet.NewKafkaPublisher(producer)), producer
}

func startConsumer(ctx context.Context, cfg *config.Config, feeder *intake.Feeder, metrics *kafka_middleware.Metrics) *kafka.Consumer {
	consumer, err := kafka.NewConsumer(cfg.Kafka, feeder.HandleMessage, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka consumer", "error", err)
	}
	consumer.Use(metrics.Consumer())
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Kafka consumer stopped", "error", err)
		}
	}()
	return consumer
}

func feedDemo(ctx context.Context, cfg *config.Config, feeder *intake.Feeder) {
	requests := intake.DemoRequests(cfg.DemoRequests, cfg.Sources)
	submitted, err := feeder.SubmitAll(ctx, requests)
	if err != nil {
		cfg.Log.Error("Demo intake stopped", "submitted", len(submitted), "error", err)
		return
	}
	cfg.Log.Info("Demo requests submitted", "count", len(submitted))
}
