package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Slot stores values as plain redis strings. Concurrent writers from
// several processes are last-writer-wins.
type Slot struct {
	client *goredis.Client
	tracer trace.Tracer
	logger *slog.Logger
}

// NewSlot creates a redis slot. addr is either a redis:// URL or host:port.
func NewSlot(addr string, tracer trace.Tracer, logger *slog.Logger) *Slot {
	opts, err := goredis.ParseURL(addr)
	if err != nil {
		opts = &goredis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
		}
	}

	return &Slot{
		client: goredis.NewClient(opts),
		tracer: tracer,
		logger: logger,
	}
}

// WaitReady pings redis until it answers, backing off exponentially up to
// maxWait between attempts.
func (s *Slot) WaitReady(ctx context.Context, attempts int, maxWait time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = s.Ping(ctx); lastErr == nil {
			s.logger.InfoContext(ctx, "Redis slot ready",
				slog.Int("attempt", i+1),
			)
			return nil
		}

		backoff := maxWait
		if i < 16 {
			if b := time.Duration(1<<uint(i)) * 100 * time.Millisecond; b < maxWait {
				backoff = b
			}
		}
		s.logger.WarnContext(ctx, "Redis not ready, retrying",
			slog.Int("attempt", i+1),
			slog.String("backoff", backoff.String()),
			slog.String("error", lastErr.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis not ready after %d attempts: %w", attempts, lastErr)
}

// Get returns the value stored under key
func (s *Slot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := s.tracer.Start(ctx, "RedisSlot.Get")
	defer span.End()

	span.SetAttributes(attribute.String("slot.key", key))

	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		span.SetStatus(codes.Ok, "Key not set")
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Redis GET failed")
		s.logger.ErrorContext(ctx, "Redis GET failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	span.SetStatus(codes.Ok, "Value found")
	return value, true, nil
}

// Set stores value under key without expiry
func (s *Slot) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "RedisSlot.Set")
	defer span.End()

	span.SetAttributes(
		attribute.String("slot.key", key),
		attribute.Int("slot.bytes", len(value)),
	)

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Redis SET failed")
		s.logger.ErrorContext(ctx, "Redis SET failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	span.SetStatus(codes.Ok, "Value stored")
	return nil
}

// Ping checks the connection with a short timeout
func (s *Slot) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(pingCtx).Err()
}

// Close releases the client's connections
func (s *Slot) Close() error {
	return s.client.Close()
}
