package memory

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Slot is an in-memory key-value slot. Values don't survive a restart.
type Slot struct {
	mu     sync.RWMutex
	values map[string][]byte
	tracer trace.Tracer
	logger *slog.Logger
}

// NewSlot creates a new in-memory slot
func NewSlot(tracer trace.Tracer, logger *slog.Logger) *Slot {
	return &Slot{
		values: make(map[string][]byte),
		tracer: tracer,
		logger: logger,
	}
}

// Get returns a copy of the value stored under key
func (s *Slot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := s.tracer.Start(ctx, "MemorySlot.Get")
	defer span.End()

	span.SetAttributes(attribute.String("slot.key", key))

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Find value in memory
	value, exists := s.values[key]
	if !exists {
		s.logger.DebugContext(ctx, "Slot key not set",
			slog.String("key", key),
		)
		span.SetStatus(codes.Ok, "Key not set")
		return nil, false, nil
	}

	span.SetStatus(codes.Ok, "Value found")
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value under key
func (s *Slot) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "MemorySlot.Set")
	defer span.End()

	span.SetAttributes(
		attribute.String("slot.key", key),
		attribute.Int("slot.bytes", len(value)),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so the caller can't mutate stored bytes
	s.values[key] = append([]byte(nil), value...)

	s.logger.DebugContext(ctx, "Slot value stored",
		slog.String("key", key),
	)

	span.SetStatus(codes.Ok, "Value stored")
	return nil
}

// Ping always succeeds
func (s *Slot) Ping(ctx context.Context) error {
	return nil
}
