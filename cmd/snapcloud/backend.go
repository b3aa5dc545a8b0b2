package main

import (
	"fmt"
	"time"

	"github.com/cschleiden/go-workflows/backend"
	"github.com/cschleiden/go-workflows/backend/redis"
	"github.com/cschleiden/go-workflows/backend/sqlite"
	redisv9 "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/QuenumGerald/snapcloud/internal/config"
)

// newBackend builds the durable store hosting workflow state. The backend
// instance is the shared task hub all workers of this system poll.
func newBackend(cfg *config.Config, opts ...backend.BackendOption) (backend.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return sqlite.NewInMemoryBackend(sqlite.WithBackendOptions(opts...)), nil

	case config.BackendSqlite:
		return sqlite.NewSqliteBackend(cfg.SqlitePath, sqlite.WithBackendOptions(opts...)), nil

	case config.BackendRedis:
		rclient := redisv9.NewUniversalClient(&redisv9.UniversalOptions{
			Addrs:        []string{cfg.RedisAddr},
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			WriteTimeout: 30 * time.Second,
			ReadTimeout:  30 * time.Second,
		})
		return redis.NewRedisBackend(rclient, redis.WithBackendOptions(opts...))

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func newTracerProvider() (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	r := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String("snapcloud"),
		attribute.String("component", "workflow-engine"),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)

	return tp, nil
}
