package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mrops-br/cart-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCartKey is the slot key the storefront has always used for the cart
const DefaultCartKey = "@RocketShoes:cart"

// Slot is a durable key-value store holding serialized values.
// Get reports found=false for a key that was never set.
type Slot interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// CartRepository stores the cart as a JSON array under a single slot key.
// It implements domain.CartRepository.
type CartRepository struct {
	slot   Slot
	key    string
	tracer trace.Tracer
	logger *slog.Logger
}

// NewCartRepository creates a cart repository over slot
func NewCartRepository(slot Slot, key string, tracer trace.Tracer, logger *slog.Logger) *CartRepository {
	if key == "" {
		key = DefaultCartKey
	}
	return &CartRepository{
		slot:   slot,
		key:    key,
		tracer: tracer,
		logger: logger,
	}
}

// Load reads and decodes the stored cart
func (r *CartRepository) Load(ctx context.Context) (domain.Cart, bool, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Load")
	defer span.End()

	span.SetAttributes(attribute.String("slot.key", r.key))

	// Read raw snapshot from the slot
	raw, found, err := r.slot.Get(ctx, r.key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read slot")
		return nil, false, fmt.Errorf("read cart slot: %w", err)
	}
	if !found {
		span.SetStatus(codes.Ok, "Slot empty")
		return nil, false, nil
	}

	// Decode the stored JSON array
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Malformed cart snapshot")
		return nil, false, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if cart == nil {
		cart = domain.Cart{}
	}

	span.SetAttributes(attribute.Int("cart.size", len(cart)))
	r.logger.DebugContext(ctx, "Cart snapshot loaded",
		slog.String("key", r.key),
		slog.Int("items", len(cart)),
	)

	span.SetStatus(codes.Ok, "Cart snapshot loaded")
	return cart, true, nil
}

// Save encodes cart and overwrites the stored snapshot
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("slot.key", r.key),
		attribute.Int("cart.size", len(cart)),
	)

	// An empty cart is stored as [] rather than null
	if cart == nil {
		cart = domain.Cart{}
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode cart")
		return fmt.Errorf("encode cart snapshot: %w", err)
	}

	// Overwrite the slot; last writer wins
	if err := r.slot.Set(ctx, r.key, raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to write slot")
		r.logger.ErrorContext(ctx, "Failed to write cart snapshot",
			slog.String("key", r.key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("write cart slot: %w", err)
	}

	r.logger.DebugContext(ctx, "Cart snapshot saved",
		slog.String("key", r.key),
		slog.Int("bytes", len(raw)),
	)

	span.SetStatus(codes.Ok, "Cart snapshot saved")
	return nil
}

// Ping checks the underlying slot
func (r *CartRepository) Ping(ctx context.Context) error {
	return r.slot.Ping(ctx)
}
