package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/mrops-br/cart-api/internal/app/service"
	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/mrops-br/cart-api/internal/infrastructure/http/response"
	"github.com/mrops-br/cart-api/internal/infrastructure/notify"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// CartHandler handles HTTP requests for the cart
type CartHandler struct {
	service  *service.CartService
	notifier notify.Notifier
	feed     *notify.Feed
	store    Pinger
	logger   *slog.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

// NewCartHandler creates a new cart handler. Notifications for rejected or
// failed operations go to notifier; feed backs GET /notifications.
func NewCartHandler(
	service *service.CartService,
	notifier notify.Notifier,
	feed *notify.Feed,
	store Pinger,
	logger *slog.Logger,
) *CartHandler {
	return &CartHandler{
		service:  service,
		notifier: notifier,
		feed:     feed,
		store:    store,
		logger:   logger,
		closing:  make(chan struct{}),
	}
}

// CloseStreams ends every open cart event stream. The server calls it on
// shutdown, since http.Server.Shutdown waits for streaming handlers.
func (h *CartHandler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, dto.ToCartResponse(h.service.Cart()))
}

// AddProduct handles POST /cart/items
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := domain.ValidateProductID(req.ProductID); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	h.respond(w, r, h.service.AddProduct(r.Context(), req.ProductID))
}

// UpdateProductAmount handles PUT /cart/items/{id}
func (h *CartHandler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	var req dto.UpdateProductAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	req.ProductID = productID

	h.respond(w, r, h.service.UpdateProductAmount(r.Context(), &req))
}

// RemoveProduct handles DELETE /cart/items/{id}
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	h.respond(w, r, h.service.RemoveProduct(r.Context(), productID))
}

// StreamCart handles GET /cart/events as a Server-Sent Events stream.
// The current cart is sent first, then every committed change.
func (h *CartHandler) StreamCart(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	h.logger.DebugContext(r.Context(), "Cart subscriber connected")

	for {
		select {
		case <-r.Context().Done():
			h.logger.DebugContext(r.Context(), "Cart subscriber disconnected")
			return
		case <-h.closing:
			h.logger.DebugContext(r.Context(), "Closing cart stream for shutdown")
			return
		case cart, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(dto.ToCartResponse(cart))
			if err != nil {
				h.logger.ErrorContext(r.Context(), "Failed to encode cart event",
					slog.String("error", err.Error()),
				)
				return
			}
			if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// ListNotifications handles GET /notifications
func (h *CartHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.feed.Recent())
}

// Health handles GET /health
func (h *CartHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "Cart store unreachable",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// respond surfaces the result to the user and writes it back
func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, result service.Result) {
	if result.ShouldNotify() {
		level := notify.LevelError
		if result.Outcome == service.OutcomeOutOfStock {
			level = notify.LevelWarning
		}
		h.notifier.Notify(r.Context(), notify.New(level, result.Message, result.ProductID))
	}

	response.JSON(w, statusFor(result), ToOperationResponse(result))
}

// ToOperationResponse converts a service Result to its HTTP representation
func ToOperationResponse(result service.Result) *dto.OperationResponse {
	return &dto.OperationResponse{
		Operation: string(result.Operation),
		Outcome:   string(result.Outcome),
		ProductID: result.ProductID,
		Message:   result.Message,
		Cart:      dto.ToCartResponse(result.Cart),
	}
}

func statusFor(result service.Result) int {
	switch result.Outcome {
	case service.OutcomeSuccess, service.OutcomeIgnored:
		return http.StatusOK
	case service.OutcomeOutOfStock:
		return http.StatusConflict
	case service.OutcomeNotFound:
		return http.StatusNotFound
	}
	if errors.Is(result.Err, domain.ErrInventory) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func productIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", chi.URLParam(r, "id"))
	}
	if err := domain.ValidateProductID(id); err != nil {
		return 0, err
	}
	return id, nil
}
