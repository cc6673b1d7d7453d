package repositories

import (
	"context"
	"errors"
	"time"

	"catalog/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateKey    = errors.New("duplicate key")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	ExistsByNameAndBrand(ctx context.Context, name, brand string) (bool, error)
	// CountCreatedOn counts products whose CreatedAt falls on the UTC calendar day of date.
	CountCreatedOn(ctx context.Context, date time.Time) (int64, error)
	// Add stores a new product. A uniqueness conflict is reported as ErrDuplicateKey.
	Add(ctx context.Context, product *models.Product) error

	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
