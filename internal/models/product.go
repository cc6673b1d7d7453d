package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of product categories.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryBooks       Category = "Books"
	CategoryHome        Category = "Home"
)

// Categories lists every valid category in declaration order.
var Categories = []Category{CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a product in the catalog.
// IsAvailable always mirrors StockQuantity > 0; change stock through SetStock only.
type Product struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string     `json:"name" gorm:"type:varchar(200);not null;index:idx_products_name_brand"`
	Brand         string     `json:"brand" gorm:"type:varchar(100);not null;index:idx_products_name_brand"`
	SKU           string     `json:"sku" gorm:"column:sku;type:varchar(32);not null;uniqueIndex"`
	Category      Category   `json:"category" gorm:"type:varchar(32);not null"`
	Price         float64    `json:"price" gorm:"not null"`
	ReleaseDate   time.Time  `json:"releaseDate" gorm:"not null"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty" gorm:"autoUpdateTime:false"`
	ImageURL      string     `json:"imageUrl,omitempty" gorm:"column:image_url;type:varchar(2048)"`
	StockQuantity int        `json:"stockQuantity" gorm:"not null"`
	IsAvailable   bool       `json:"isAvailable" gorm:"not null"`
}

// NewProduct builds a fresh record from a validated request.
// It assigns a new ID and CreatedAt and leaves UpdatedAt unset.
func NewProduct(req CreateProductRequest, now time.Time) *Product {
	p := &Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Brand:       req.Brand,
		SKU:         req.SKU,
		Category:    req.Category,
		Price:       roundCents(req.Price),
		ReleaseDate: req.ReleaseDate.UTC(),
		CreatedAt:   now.UTC(),
		ImageURL:    req.ImageURL,
	}
	p.SetStock(req.StockQuantity)
	return p
}

// SetStock changes the stock quantity and recomputes availability.
func (p *Product) SetStock(quantity int) {
	p.StockQuantity = quantity
	p.IsAvailable = quantity > 0
}

// ApplyUpdate overwrites the editable fields from req and stamps UpdatedAt.
func (p *Product) ApplyUpdate(req CreateProductRequest, now time.Time) {
	p.Name = req.Name
	p.Brand = req.Brand
	p.SKU = req.SKU
	p.Category = req.Category
	p.Price = roundCents(req.Price)
	p.ReleaseDate = req.ReleaseDate.UTC()
	p.ImageURL = req.ImageURL
	p.SetStock(req.StockQuantity)
	updated := now.UTC()
	p.UpdatedAt = &updated
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
