package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/logging"
	"catalog/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
	logger *zap.Logger
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
// The db handle should be opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewGORMProductRepository(db *gorm.DB, logger *zap.Logger) *GORMProductRepository {
	return &GORMProductRepository{
		db:     db,
		tracer: otel.Tracer("catalog/product_repo"),
		logger: logger,
	}
}

// ExistsBySKU reports whether a product with exactly this SKU is stored.
func (r *GORMProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.ExistsBySKU")
	defer span.End()

	span.SetAttributes(attribute.String("sku", sku))

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
		span.RecordError(err)
		logging.Error(ctx, r.logger, "Failed to look up SKU", zap.String("sku", sku), zap.Error(err))
		return false, fmt.Errorf("failed to check sku %s: %w", sku, err)
	}
	return count > 0, nil
}

// ExistsByNameAndBrand reports whether a product with this exact name and brand is stored.
func (r *GORMProductRepository) ExistsByNameAndBrand(ctx context.Context, name, brand string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.ExistsByNameAndBrand")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", name),
		attribute.String("brand", brand),
	)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("name = ? AND brand = ?", name, brand).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		logging.Error(ctx, r.logger, "Failed to look up name and brand",
			zap.String("name", name),
			zap.String("brand", brand),
			zap.Error(err),
		)
		return false, fmt.Errorf("failed to check name %q and brand %q: %w", name, brand, err)
	}
	return count > 0, nil
}

// CountCreatedOn counts the products created on the UTC day of date.
func (r *GORMProductRepository) CountCreatedOn(ctx context.Context, date time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.CountCreatedOn")
	defer span.End()

	start, end := dayBounds(date)
	span.SetAttributes(attribute.String("day", start.Format(time.DateOnly)))

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		logging.Error(ctx, r.logger, "Failed to count products created today", zap.Error(err))
		return 0, fmt.Errorf("failed to count products created on %s: %w", start.Format(time.DateOnly), err)
	}
	return count, nil
}

// Add inserts a new product.
func (r *GORMProductRepository) Add(ctx context.Context, product *models.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Add")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", product.ID),
		attribute.String("sku", product.SKU),
	)

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		span.RecordError(err)
		if isUniqueViolation(err) {
			logging.Warn(ctx, r.logger, "Unique constraint rejected product", zap.String("sku", product.SKU))
			return fmt.Errorf("failed to create product with sku %s: %w", product.SKU, ErrDuplicateKey)
		}
		logging.Error(ctx, r.logger, "Error creating product", zap.Error(err))
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetAll retrieves all products ordered by creation time.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetAll")
	defer span.End()

	var products []models.Product
	if err := r.db.WithContext(ctx).Order("created_at").Find(&products).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Update saves every field of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("id", product.ID))

	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Select("*").Updates(product)
	if res.Error != nil {
		span.RecordError(res.Error)
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("failed to update product %s: %w", product.ID, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete deletes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// isUniqueViolation also matches raw driver messages for handles opened without TranslateError.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
