package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog/internal/cache"
	"catalog/internal/derivation"
	"catalog/internal/logging"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/telemetry"
	"catalog/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestValidator runs the ordered rule set against a create request.
type RequestValidator interface {
	Validate(ctx context.Context, req models.CreateProductRequest) (validation.Outcome, error)
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	validator RequestValidator
	cache     cache.Cache
	sink      telemetry.Sink
	recorder  *telemetry.Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a ProductService.
type Option func(*ProductService)

// WithClock overrides the time source used for CreatedAt, UpdatedAt and product age.
func WithClock(now func() time.Time) Option {
	return func(s *ProductService) { s.now = now }
}

// NewProductService creates a new ProductService.
func NewProductService(
	repo repositories.ProductRepository,
	validator RequestValidator,
	c cache.Cache,
	sink telemetry.Sink,
	logger *zap.Logger,
	opts ...Option,
) *ProductService {
	s := &ProductService{
		repo:      repo,
		validator: validator,
		cache:     c,
		sink:      sink,
		recorder:  telemetry.NewRecorder(sink),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type stage string

const (
	stageStarted    stage = "Started"
	stageValidating stage = "Validating"
	stagePersisting stage = "Persisting"
	stageCompleted  stage = "Completed"
	stageFailed     stage = "Failed"
)

// creation tracks one CreateProduct call from start to its single metrics record.
type creation struct {
	svc         *ProductService
	operationID string
	req         models.CreateProductRequest
	stage       stage

	started     time.Time
	validation  time.Duration
	persistence time.Duration
}

func newOperationID() string {
	return uuid.New().String()[:8]
}

func (c *creation) fields(extra telemetry.Fields) telemetry.Fields {
	f := telemetry.Fields{
		"operation_id": c.operationID,
		"stage":        string(c.stage),
		"product_name": c.req.Name,
		"sku":          c.req.SKU,
		"category":     string(c.req.Category),
	}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

func (c *creation) emit(ctx context.Context, kind telemetry.EventKind, extra telemetry.Fields) {
	c.svc.sink.Emit(ctx, kind, c.fields(extra))
}

func (c *creation) record(ctx context.Context, success bool, reason string) {
	c.svc.recorder.Record(ctx, telemetry.CreationMetrics{
		OperationID:         c.operationID,
		ProductName:         c.req.Name,
		SKU:                 c.req.SKU,
		Category:            string(c.req.Category),
		ValidationDuration:  c.validation,
		PersistenceDuration: c.persistence,
		TotalDuration:       time.Since(c.started),
		Success:             success,
		ErrorReason:         reason,
	})
}

// fail moves the call to Failed, records the failure metrics and returns err.
func (c *creation) fail(ctx context.Context, err error, reason string) error {
	failedAt := c.stage
	c.stage = stageFailed
	c.record(ctx, false, reason)

	log := logging.Error
	if IsValidationError(err) || IsBusinessRuleViolation(err) {
		log = logging.Warn
	}
	log(ctx, c.svc.logger, "Product creation failed",
		zap.String("operation_id", c.operationID),
		zap.String("failed_stage", string(failedAt)),
		zap.String("sku", c.req.SKU),
		zap.Error(err),
	)
	return err
}

// CreateProduct validates req, persists a new product, evicts the cached
// listing and returns the derived view of the stored record.
func (s *ProductService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*derivation.ProductView, error) {
	c := &creation{
		svc:         s,
		operationID: newOperationID(),
		req:         req,
		stage:       stageStarted,
		started:     time.Now(),
	}
	c.emit(ctx, telemetry.CreationStarted, nil)

	c.stage = stageValidating
	validationStart := time.Now()
	outcome, err := s.validator.Validate(ctx, req)
	c.validation = time.Since(validationStart)
	if err != nil {
		return nil, c.fail(ctx, &UnexpectedError{Cause: err}, err.Error())
	}
	if !outcome.Valid() {
		reason := outcome.Joined()
		c.emit(ctx, telemetry.ValidationFailed, telemetry.Fields{
			"errors":      reason,
			"error_count": len(outcome.Errors),
		})
		return nil, c.fail(ctx, validationFailure(outcome), reason)
	}
	c.emit(ctx, telemetry.SKUValidationPerformed, telemetry.Fields{"duration": c.validation})
	c.emit(ctx, telemetry.StockValidationPerformed, telemetry.Fields{"stock_quantity": req.StockQuantity})

	if err := ctx.Err(); err != nil {
		return nil, c.fail(ctx, &UnexpectedError{Cause: err}, err.Error())
	}

	c.stage = stagePersisting
	c.emit(ctx, telemetry.PersistenceStarted, nil)
	product := models.NewProduct(req, s.now())
	persistStart := time.Now()
	err = s.repo.Add(ctx, product)
	c.persistence = time.Since(persistStart)
	if err != nil {
		return nil, c.fail(ctx, persistenceFailure(err), err.Error())
	}
	c.emit(ctx, telemetry.PersistenceCompleted, telemetry.Fields{
		"product_id": product.ID,
		"duration":   c.persistence,
	})

	// The record is committed; eviction and the success events must outlive the caller.
	committed := context.WithoutCancel(ctx)
	s.cache.Invalidate(committed, cache.AllProductsKey)
	c.emit(committed, telemetry.CacheInvalidated, telemetry.Fields{"cache_key": cache.AllProductsKey})

	c.stage = stageCompleted
	c.record(committed, true, "")
	c.emit(committed, telemetry.CreationCompleted, telemetry.Fields{"product_id": product.ID})

	view := derivation.NewProductView(product, s.now())
	return &view, nil
}

func validationFailure(outcome validation.Outcome) error {
	if outcome.OnlyRequestLevel() {
		return &BusinessRuleViolation{Message: validation.BusinessRuleMessage}
	}
	return &ValidationError{Errors: outcome.Errors}
}

func persistenceFailure(err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateKey):
		return &DuplicateKeyError{Field: validation.FieldSKU}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &UnexpectedError{Cause: err}
	default:
		return &PersistenceError{Cause: err}
	}
}

// GetAllProducts returns every product, reading the stored records through
// the listing cache. Views are derived on each call.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]derivation.ProductView, error) {
	if raw, err := s.cache.Get(ctx, cache.AllProductsKey); err == nil {
		var products []models.Product
		if err := json.Unmarshal(raw, &products); err == nil {
			return derivation.NewProductViews(products, s.now()), nil
		}
		logging.Warn(ctx, s.logger, "Discarding unreadable product listing from cache")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logging.Warn(ctx, s.logger, "Product listing cache read failed", zap.Error(err))
	}

	gen, genErr := s.cache.Generation(ctx, cache.AllProductsKey)
	if genErr != nil {
		logging.Warn(ctx, s.logger, "Product listing cache generation read failed", zap.Error(genErr))
	}

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	if genErr == nil {
		s.fillListing(ctx, gen, products)
	}

	return derivation.NewProductViews(products, s.now()), nil
}

// fillListing caches products unless the listing was evicted after gen was read.
func (s *ProductService) fillListing(ctx context.Context, gen int64, products []models.Product) {
	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	stored, err := s.cache.SetAt(ctx, cache.AllProductsKey, gen, raw)
	if err != nil {
		logging.Warn(ctx, s.logger, "Product listing cache write failed", zap.Error(err))
		return
	}
	if !stored {
		logging.Debug(ctx, s.logger, "Skipped caching a listing read that raced an eviction")
	}
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*derivation.ProductView, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := derivation.NewProductView(product, s.now())
	return &view, nil
}

// UpdateProduct overwrites the editable fields of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req models.CreateProductRequest) (*derivation.ProductView, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.ApplyUpdate(req, s.now())
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, &DuplicateKeyError{Field: validation.FieldSKU}
		}
		return nil, err
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), cache.AllProductsKey)
	logging.Info(ctx, s.logger, "Product updated", zap.String("product_id", id))

	view := derivation.NewProductView(product, s.now())
	return &view, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(context.WithoutCancel(ctx), cache.AllProductsKey)
	logging.Info(ctx, s.logger, "Product deleted", zap.String("product_id", id))
	return nil
}
