package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minsu-dev/parceltrack/config"
	"github.com/minsu-dev/parceltrack/internal/api/trackinghttp"
	"github.com/minsu-dev/parceltrack/internal/broker/kafka"
	"github.com/minsu-dev/parceltrack/internal/cache/rediscache"
	"github.com/minsu-dev/parceltrack/internal/services/tracking"
	"github.com/minsu-dev/parceltrack/internal/storage/pgshipment"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	httpAddr := cfg.ParcelTrack.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	snapshotTTL := time.Duration(cfg.ParcelTrack.SnapshotTTLSeconds) * time.Second
	if snapshotTTL <= 0 {
		snapshotTTL = 10 * time.Minute
	}

	st := mustOpenPostgresWithRetry(cfg.Database.DSN(), 60*time.Second)
	defer st.Close()

	var rc *rediscache.RedisCache
	var limiter *rediscache.RateLimiter
	if cfg.Redis.Host != "" {
		rc = rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		if n := cfg.ParcelTrack.SubmitRateLimitPerMinute; n > 0 {
			limiter = rediscache.NewRateLimiter(rc, int64(n), time.Minute)
		}
	}

	svc := tracking.New(st, bytesCacheOrNil(rc), snapshotTTL)
	handler := trackinghttp.New(logger, svc, limiterOrNil(limiter))

	opts := appOpts{
		httpAddr:    httpAddr,
		swaggerPath: os.Getenv("swaggerPath"),
		corsOrigins: cfg.ParcelTrack.CORSAllowedOrigins,
	}

	var consumer *kafka.Consumer
	if cfg.Kafka.Host != "" {
		brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
		topic := cfg.Kafka.ShipmentSubmittedTopicName
		if topic == "" {
			topic = "shipment.submitted"
		}
		group := cfg.ParcelTrack.KafkaConsumerGroup
		if group == "" {
			group = "parcel-api"
		}
		consumer = kafka.NewConsumer(brokers, topic, group, kafka.NewProducer(brokers))
		defer func() { _ = consumer.Close() }()
		opts.topic = topic
		opts.consumerGroup = group
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Consume оборачивает ctx.Err(), поэтому сравнение через errors.Is.
	if err := run(ctx, logger, opts, svc, handler, consumer); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}

func init() {
	_ = godotenv.Load()
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgshipment.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgshipment.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}
