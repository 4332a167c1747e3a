package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/minsu-dev/parceltrack/internal/api/trackinghttp"
	"github.com/minsu-dev/parceltrack/internal/broker/kafka"
	"github.com/minsu-dev/parceltrack/internal/broker/messages"
	"github.com/minsu-dev/parceltrack/internal/cache"
	"github.com/minsu-dev/parceltrack/internal/cache/rediscache"
	"github.com/minsu-dev/parceltrack/internal/middleware"
	"github.com/minsu-dev/parceltrack/internal/models"
	"github.com/minsu-dev/parceltrack/internal/services/tracking"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
)

type appOpts struct {
	httpAddr    string
	swaggerPath string
	corsOrigins []string

	topic         string
	consumerGroup string
}

func run(ctx context.Context, logger *slog.Logger, opts appOpts, svc *tracking.Service, handler *trackinghttp.Handler, consumer *kafka.Consumer) error {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	if len(opts.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{AllowedOrigins: opts.corsOrigins}))
	}

	handler.Init(r)
	r.Handle("/metrics", promhttp.Handler())

	if opts.swaggerPath != "" {
		if _, err := os.Stat(opts.swaggerPath); err == nil {
			swaggerPath := opts.swaggerPath
			r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
				http.ServeFile(w, r, swaggerPath)
			})
			r.Get("/docs/*", httpSwagger.Handler(
				httpSwagger.URL("/swagger.json"),
			))
		} else {
			logger.Warn("swagger file not found, docs disabled", slog.String("path", opts.swaggerPath))
		}
	}

	srv := &http.Server{Addr: opts.httpAddr, Handler: r}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", opts.httpAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	})

	if consumer != nil {
		g.Go(func() error {
			logger.Info("kafka consumer started", slog.String("topic", opts.topic), slog.String("group", opts.consumerGroup))
			return consumer.Consume(ctx, opts.topic, func(_key, value []byte) error {
				var m messages.ShipmentSubmitted
				if err := json.Unmarshal(value, &m); err != nil {
					return kafka.Permanent(err)
				}
				if _, err := svc.Submit(ctx, submittedToRequest(m)); err != nil {
					// В DLQ только неисправимые сообщения; временный сбой
					// (БД, отмена контекста) оставляет сообщение в топике.
					var verr *tracking.ValidationError
					if errors.As(err, &verr) {
						return kafka.Permanent(err)
					}
					return err
				}
				return nil
			})
		})
	}

	return g.Wait()
}

func submittedToRequest(m messages.ShipmentSubmitted) models.SubmitRequest {
	history := make([]models.TrackingEvent, 0, len(m.History))
	for _, e := range m.History {
		history = append(history, models.TrackingEvent{
			Time:     e.Time,
			Location: e.Location,
			Status:   e.Status,
			Note:     e.Note,
		})
	}
	return models.SubmitRequest{
		Carrier:           m.Carrier,
		TrackingNumber:    m.TrackingNumber,
		Sender:            m.Sender,
		Recipient:         m.Recipient,
		EstimatedDelivery: m.EstimatedDelivery,
		History:           history,
	}
}

// Типизированный nil в интерфейсе не равен nil, поэтому конвертируем явно.
func bytesCacheOrNil(rc *rediscache.RedisCache) cache.BytesCache {
	if rc == nil {
		return nil
	}
	return rc
}

func limiterOrNil(rl *rediscache.RateLimiter) trackinghttp.SubmitLimiter {
	if rl == nil {
		return nil
	}
	return rl
}
