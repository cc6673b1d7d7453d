package models

import "time"

// CreateProductRequest carries the unvalidated settable fields of a product.
// It is also the payload for full updates.
type CreateProductRequest struct {
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	SKU           string    `json:"sku"`
	Category      Category  `json:"category"`
	Price         float64   `json:"price"`
	ReleaseDate   time.Time `json:"releaseDate"`
	ImageURL      string    `json:"imageUrl"`
	StockQuantity int       `json:"stockQuantity"`
}
