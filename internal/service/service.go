// Package service provides the product catalog business logic: a degrading read path and
// pass-through writes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/internal/store/db"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	"github.com/abgdnv/catalog/pkg/resilience"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProductService defines the methods for managing products.
type ProductService interface {
	// Configured reports whether a product store is available.
	Configured() bool

	// ListAll returns all products, newest first. It never fails: any problem yields
	// an empty, degraded result.
	ListAll(ctx context.Context) ReadResult

	// Create adds a new product to the catalog.
	// Returns ErrNotConfigured when no store is available.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update applies a partial update and returns the resulting product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id uuid.UUID, update ProductUpdateDto) (*ProductDto, error)

	// DeleteByID removes a product. Deleting an unknown ID succeeds.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// ReadResult is the outcome of a listing. Degraded results never carry items.
type ReadResult struct {
	Items    []ProductDto
	Degraded bool
}

const (
	reasonNotConfigured = "not_configured"
	reasonCircuitOpen   = "circuit_open"
	reasonTimeout       = "timeout"
	reasonCanceled      = "canceled"
	reasonStoreError    = "store_error"
	reasonPanic         = "panic"
)

// Service implements ProductService.
type Service struct {
	repository    store.ProductStore
	publisher     messaging.Publisher
	breaker       *gobreaker.CircuitBreaker[[]db.Product]
	readTimeout   time.Duration
	logger        *slog.Logger
	degradedReads metric.Int64Counter
}

// NewService creates a new instance of ProductService. A nil repository puts the service in
// unconfigured mode: reads degrade and writes fail with ErrNotConfigured.
func NewService(repo store.ProductStore, publisher messaging.Publisher, cfg config.CatalogConfig, logger *slog.Logger) *Service {
	meter := otel.Meter("catalog")
	degradedReads, err := meter.Int64Counter("catalog_degraded_reads_total", metric.WithDescription("Product listings answered in degraded mode"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_degraded_reads_total counter: %v", err))
	}
	return &Service{
		repository: repo,
		publisher:  publisher,
		breaker: resilience.NewCircuitBreaker[[]db.Product]("catalog-read", cfg.CircuitBreaker, func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		}),
		readTimeout:   cfg.ReadTimeout,
		logger:        logger.With("component", "service"),
		degradedReads: degradedReads,
	}
}

func (s *Service) Configured() bool {
	return s.repository != nil
}

// ListAll reads through the circuit breaker with a deadline of readTimeout on top of ctx.
func (s *Service) ListAll(ctx context.Context) (result ReadResult) {
	if s.repository == nil {
		return s.degrade(ctx, reasonNotConfigured, catalogerrors.ErrNotConfigured)
	}
	defer func() {
		if r := recover(); r != nil {
			result = s.degrade(ctx, reasonPanic, fmt.Errorf("panic: %v", r))
		}
	}()

	readCtx := ctx
	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}

	products, err := s.breaker.Execute(func() ([]db.Product, error) {
		return s.repository.FindAll(readCtx)
	})
	if err != nil {
		return s.degrade(ctx, readFailureReason(err), err)
	}

	items := make([]ProductDto, len(products))
	for i := range products {
		items[i] = *toDto(&products[i])
	}
	return ReadResult{Items: items}
}

func readFailureReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return reasonCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, context.Canceled):
		return reasonCanceled
	default:
		return reasonStoreError
	}
}

func (s *Service) degrade(ctx context.Context, reason string, err error) ReadResult {
	s.logger.WarnContext(ctx, "Product listing degraded", "reason", reason, "error", err)
	s.degradedReads.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	return ReadResult{Items: []ProductDto{}, Degraded: true}
}

// Create inserts a product and publishes ProductCreatedEvent.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	if s.repository == nil {
		return nil, catalogerrors.ErrNotConfigured
	}
	created, err := s.repository.Create(ctx, product.toParams())
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	event := events.ProductCreatedEvent{
		ProductID: created.ID,
		Name:      created.Name,
		Price:     created.Price,
		CreatedAt: created.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ProductCreatedEvent", "ID", created.ID, "error", err)
	}
	return toDto(created), nil
}

// Update applies the fields present in update. An update without fields returns the stored row.
func (s *Service) Update(ctx context.Context, id uuid.UUID, update ProductUpdateDto) (*ProductDto, error) {
	if s.repository == nil {
		return nil, catalogerrors.ErrNotConfigured
	}
	params := update.toParams()
	params.ID = id
	updated, err := s.repository.Update(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}

	if fields := update.Fields(); len(fields) > 0 {
		event := events.ProductUpdatedEvent{ProductID: id, Fields: fields, UpdatedAt: time.Now().UTC()}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish ProductUpdatedEvent", "ID", id, "error", err)
		}
	}
	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID.
func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if s.repository == nil {
		return catalogerrors.ErrNotConfigured
	}
	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	if !deleted {
		s.logger.DebugContext(ctx, "Delete matched no product", "ID", id)
		return nil
	}

	event := events.ProductDeletedEvent{ProductID: id, DeletedAt: time.Now().UTC()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ProductDeletedEvent", "ID", id, "error", err)
	}
	return nil
}

var _ ProductService = (*Service)(nil)
