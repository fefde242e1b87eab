package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mrops-br/cart-api/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// maxBodySize caps how much of a response body is read
const maxBodySize = 1 << 20

// Client reads stock levels and product details from the inventory service.
// It implements domain.Catalog.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tracer       trace.Tracer
	logger       *slog.Logger
	callDuration metric.Float64Histogram
}

// NewClient creates an inventory client for baseURL. Every request is
// bounded by timeout; zero disables the bound.
func NewClient(
	baseURL string,
	timeout time.Duration,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse inventory url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("inventory url %q must be http or https", baseURL)
	}

	callDuration, _ := meter.Float64Histogram(
		"inventory.request.duration",
		metric.WithDescription("Duration of inventory service calls"),
		metric.WithUnit("ms"),
	)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tracer:       tracer,
		logger:       logger,
		callDuration: callDuration,
	}, nil
}

// Stock fetches GET /stock/{id}
func (c *Client) Stock(ctx context.Context, productID int) (domain.Stock, error) {
	ctx, span := c.tracer.Start(ctx, "InventoryClient.Stock")
	defer span.End()

	span.SetAttributes(attribute.Int("product.id", productID))

	var stock domain.Stock
	if err := c.get(ctx, "stock", productID, &stock); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrInventory, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch stock")
		return domain.Stock{}, err
	}

	// json-server style backends sometimes omit the id on stock records
	if stock.ID == 0 {
		stock.ID = productID
	}
	if stock.ID != productID {
		err := fmt.Errorf("%w: %w: stock for %d, asked for %d", domain.ErrInventory, domain.ErrProductMismatch, stock.ID, productID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Stock id mismatch")
		return domain.Stock{}, err
	}

	span.SetAttributes(attribute.Int("stock.amount", stock.Amount))
	span.SetStatus(codes.Ok, "Stock fetched")
	return stock, nil
}

// Product fetches GET /products/{id}
func (c *Client) Product(ctx context.Context, productID int) (domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "InventoryClient.Product")
	defer span.End()

	span.SetAttributes(attribute.Int("product.id", productID))

	var product domain.Product
	if err := c.get(ctx, "products", productID, &product); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrInventory, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch product")
		return domain.Product{}, err
	}

	span.SetAttributes(attribute.String("product.title", product.Title))
	span.SetStatus(codes.Ok, "Product fetched")
	return product, nil
}

func (c *Client) get(ctx context.Context, resource string, id int, out any) error {
	endpoint := c.baseURL + "/" + resource + "/" + strconv.Itoa(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.callDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(
			attribute.String("inventory.resource", resource),
			attribute.Int("http.response.status_code", status),
		),
	)
	if err != nil {
		c.logger.ErrorContext(ctx, "Inventory request failed",
			slog.String("url", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("get %s/%d: %w", resource, id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return fmt.Errorf("get %s/%d: %w", resource, id, domain.ErrProductNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		c.logger.WarnContext(ctx, "Unexpected inventory response",
			slog.String("url", endpoint),
			slog.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("get %s/%d: %w: %d", resource, id, domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("decode %s/%d: %w", resource, id, err)
	}

	c.logger.DebugContext(ctx, "Inventory response decoded",
		slog.String("url", endpoint),
	)
	return nil
}
