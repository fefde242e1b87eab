package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/mrops-br/cart-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CartService owns the cart. Every mutation holds opMu from the stock
// lookup until the new cart is committed, so operations never interleave.
// mu guards cart itself and is only held briefly, so reads never wait on
// the inventory service.
type CartService struct {
	opMu       sync.Mutex
	mu         sync.RWMutex
	cart       domain.Cart
	repo       domain.CartRepository
	catalog    domain.Catalog
	stockCheck StockCheck
	subs       *subscribers

	tracer         trace.Tracer
	logger         *slog.Logger
	cartOperations metric.Int64Counter
}

// NewCartService creates the cart service and seeds it from the stored snapshot
func NewCartService(
	ctx context.Context,
	repo domain.CartRepository,
	catalog domain.Catalog,
	stockCheck StockCheck,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *CartService {
	// Initialize metrics
	cartOperations, _ := meter.Int64Counter(
		"cart.operations",
		metric.WithDescription("Total number of cart operations"),
	)

	s := &CartService{
		repo:           repo,
		catalog:        catalog,
		stockCheck:     stockCheck,
		subs:           newSubscribers(),
		tracer:         tracer,
		logger:         logger,
		cartOperations: cartOperations,
	}
	// Seed from the stored snapshot
	s.cart = s.restore(ctx)

	_, _ = meter.Int64ObservableGauge(
		"cart.items",
		metric.WithDescription("Number of units currently in the cart"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(s.Cart().TotalAmount()))
			return nil
		}),
	)

	return s
}

// restore reads the stored snapshot. A missing or unreadable snapshot
// yields an empty cart.
func (s *CartService) restore(ctx context.Context) domain.Cart {
	ctx, span := s.tracer.Start(ctx, "CartService.restore")
	defer span.End()

	// Load snapshot from repository
	cart, found, err := s.repo.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load cart snapshot")
		s.logger.WarnContext(ctx, "Failed to load cart snapshot, starting empty",
			slog.String("error", err.Error()),
		)
		return domain.Cart{}
	}
	if !found {
		s.logger.InfoContext(ctx, "No cart snapshot stored, starting empty")
		return domain.Cart{}
	}

	// Drop duplicate or empty entries a hand-edited snapshot may carry
	cart, dropped := cart.Normalize()
	if dropped {
		s.logger.WarnContext(ctx, "Dropped invalid entries from cart snapshot")
	}

	span.SetAttributes(attribute.Int("cart.size", len(cart)))
	s.logger.InfoContext(ctx, "Cart restored from snapshot",
		slog.Int("items", len(cart)),
	)

	span.SetStatus(codes.Ok, "Cart restored")
	return cart
}

// Cart returns a copy of the current cart
func (s *CartService) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Subscribe registers for committed cart changes. The channel immediately
// holds the current cart and afterwards always the latest one; cancel
// closes it. Other subscribers are not notified.
func (s *CartService) Subscribe() (<-chan domain.Cart, func()) {
	// Hold mu so no commit lands between the seed and the registration
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.subs.add(s.cart.Clone())
}

// current returns the committed cart. Callers must hold opMu.
func (s *CartService) current() domain.Cart {
	return s.cart
}

// AddProduct adds one unit of a product, fetching its details on first add
func (s *CartService) AddProduct(ctx context.Context, productID int) Result {
	ctx, span := s.tracer.Start(ctx, "CartService.AddProduct")
	defer span.End()

	span.SetAttributes(attribute.Int("product.id", productID))

	s.logger.InfoContext(ctx, "Adding product to cart",
		slog.Int("product_id", productID),
	)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	// Fetch available stock
	stock, err := s.catalog.Stock(ctx, productID)
	if err != nil {
		return s.fail(ctx, span, OperationAdd, productID, err)
	}
	span.SetAttributes(attribute.Int("stock.amount", stock.Amount))

	if stock.Amount <= 0 {
		return s.reject(ctx, span, OperationAdd, productID, OutcomeOutOfStock, domain.ErrOutOfStock)
	}

	// Compute the next cart
	var next domain.Cart
	cart := s.current()
	if existing, ok := cart.Find(productID); ok {
		if existing.Amount+1 > stock.Amount {
			return s.reject(ctx, span, OperationAdd, productID, OutcomeOutOfStock, domain.ErrOutOfStock)
		}
		next = cart.WithAmount(productID, existing.Amount+1)
	} else {
		// First unit: the cart needs the product's details
		product, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return s.fail(ctx, span, OperationAdd, productID, err)
		}
		if product.ID != productID {
			return s.fail(ctx, span, OperationAdd, productID, domain.ErrProductMismatch)
		}
		product.Amount = 1
		next = cart.Append(product)
	}

	return s.commit(ctx, span, OperationAdd, productID, next)
}

// RemoveProduct drops a product from the cart
func (s *CartService) RemoveProduct(ctx context.Context, productID int) Result {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveProduct")
	defer span.End()

	span.SetAttributes(attribute.Int("product.id", productID))

	s.logger.InfoContext(ctx, "Removing product from cart",
		slog.Int("product_id", productID),
	)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	cart := s.current()
	if _, ok := cart.Find(productID); !ok {
		return s.reject(ctx, span, OperationRemove, productID, OutcomeNotFound, domain.ErrProductNotInCart)
	}

	return s.commit(ctx, span, OperationRemove, productID, cart.Without(productID))
}

// UpdateProductAmount sets the amount of a product already in the cart.
// Non-positive amounts are ignored. An ID that isn't in the cart leaves the
// cart as it is, but the snapshot is still rewritten.
func (s *CartService) UpdateProductAmount(ctx context.Context, req *dto.UpdateProductAmountRequest) Result {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateProductAmount")
	defer span.End()

	span.SetAttributes(
		attribute.Int("product.id", req.ProductID),
		attribute.Int("product.amount", req.Amount),
		attribute.String("stock.check", string(s.stockCheck)),
	)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	// Non-positive amounts are a silent no-op
	if req.Amount <= 0 {
		s.logger.DebugContext(ctx, "Ignoring non-positive amount",
			slog.Int("product_id", req.ProductID),
			slog.Int("amount", req.Amount),
		)
		s.record(ctx, OperationUpdate, OutcomeIgnored)
		return Result{
			Operation: OperationUpdate,
			Outcome:   OutcomeIgnored,
			ProductID: req.ProductID,
			Err:       domain.ErrInvalidAmount,
			Cart:      s.current().Clone(),
		}
	}

	s.logger.InfoContext(ctx, "Updating product amount",
		slog.Int("product_id", req.ProductID),
		slog.Int("amount", req.Amount),
	)

	// Fetch available stock
	stock, err := s.catalog.Stock(ctx, req.ProductID)
	if err != nil {
		return s.fail(ctx, span, OperationUpdate, req.ProductID, err)
	}
	span.SetAttributes(attribute.Int("stock.amount", stock.Amount))

	if s.stockCheck.exceeds(req.Amount, stock.Amount) {
		return s.reject(ctx, span, OperationUpdate, req.ProductID, OutcomeOutOfStock, domain.ErrOutOfStock)
	}

	return s.commit(ctx, span, OperationUpdate, req.ProductID, s.current().WithAmount(req.ProductID, req.Amount))
}

// commit persists next and only then makes it the current cart.
// Callers must hold opMu.
func (s *CartService) commit(ctx context.Context, span trace.Span, op Operation, productID int, next domain.Cart) Result {
	// Store in repository
	if err := s.repo.Save(ctx, next); err != nil {
		return s.fail(ctx, span, op, productID, err)
	}

	// Swap the in-memory cart and tell subscribers
	s.mu.Lock()
	s.cart = next
	s.subs.publish(next.Clone())
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("cart.size", len(next)))
	s.record(ctx, op, OutcomeSuccess)

	s.logger.InfoContext(ctx, "Cart updated",
		slog.String("operation", string(op)),
		slog.Int("product_id", productID),
		slog.Int("items", len(next)),
	)

	span.SetStatus(codes.Ok, "Cart updated")
	return Result{
		Operation: op,
		Outcome:   OutcomeSuccess,
		ProductID: productID,
		Cart:      next.Clone(),
	}
}

// reject ends an operation the user asked for but the cart can't honour
func (s *CartService) reject(ctx context.Context, span trace.Span, op Operation, productID int, outcome Outcome, err error) Result {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.WarnContext(ctx, "Cart operation rejected",
		slog.String("operation", string(op)),
		slog.Int("product_id", productID),
		slog.String("reason", err.Error()),
	)
	s.record(ctx, op, outcome)

	// Out of stock has its own message; everything else reads as a failure
	msg := MessageOutOfStock
	if outcome != OutcomeOutOfStock {
		msg = failureMessage(op)
	}

	return Result{
		Operation: op,
		Outcome:   outcome,
		ProductID: productID,
		Message:   msg,
		Err:       err,
		Cart:      s.current().Clone(),
	}
}

// fail absorbs an unexpected error; the cart stays as it was
func (s *CartService) fail(ctx context.Context, span trace.Span, op Operation, productID int, err error) Result {
	span.RecordError(err)
	span.SetStatus(codes.Error, "Cart operation failed")
	s.logger.ErrorContext(ctx, "Cart operation failed",
		slog.String("operation", string(op)),
		slog.Int("product_id", productID),
		slog.String("error", err.Error()),
	)
	s.record(ctx, op, OutcomeFailure)

	return Result{
		Operation: op,
		Outcome:   OutcomeFailure,
		ProductID: productID,
		Message:   failureMessage(op),
		Err:       err,
		Cart:      s.current().Clone(),
	}
}

func (s *CartService) record(ctx context.Context, op Operation, outcome Outcome) {
	s.cartOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", string(op)),
			attribute.String("result", string(outcome)),
		),
	)
}
