package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"catalog/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// It enforces SKU uniqueness on Add the way the database unique index does.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

func (r *MemoryProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryProductRepository) ExistsByNameAndBrand(ctx context.Context, name, brand string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name && p.Brand == brand {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryProductRepository) CountCreatedOn(ctx context.Context, date time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start, end := dayBounds(date)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, p := range r.products {
		created := p.CreatedAt.UTC()
		if !created.Before(start) && created.Before(end) {
			count++
		}
	}
	return count, nil
}

// Add stores a copy of product.
func (r *MemoryProductRepository) Add(ctx context.Context, product *models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; ok {
		return fmt.Errorf("product %s already stored: %w", product.ID, ErrDuplicateKey)
	}
	for _, p := range r.products {
		if p.SKU == product.SKU {
			return fmt.Errorf("failed to create product with sku %s: %w", product.SKU, ErrDuplicateKey)
		}
	}
	r.products[product.ID] = *product
	return nil
}

// GetAll returns all products ordered by creation time.
func (r *MemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool {
		return productList[i].CreatedAt.Before(productList[j].CreatedAt)
	})
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Update replaces an existing product.
func (r *MemoryProductRepository) Update(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return ErrProductNotFound
	}
	for id, p := range r.products {
		if id != product.ID && p.SKU == product.SKU {
			return fmt.Errorf("failed to update product %s: %w", product.ID, ErrDuplicateKey)
		}
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}
