package derivation

import (
	"testing"
	"time"

	"catalog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func product(category models.Category, price float64, stock int) *models.Product {
	p := models.NewProduct(models.CreateProductRequest{
		Name:          "Gaming Laptop Pro",
		Brand:         "Acme Corp",
		SKU:           "LAP-12345",
		Category:      category,
		Price:         price,
		ReleaseDate:   today.AddDate(0, -2, 0),
		ImageURL:      "https://cdn.example.com/laptop.png",
		StockQuantity: stock,
	}, today)
	return p
}

func TestCategoryLabel(t *testing.T) {
	tests := map[models.Category]string{
		models.CategoryElectronics: "Electronics & Technology",
		models.CategoryClothing:    "Clothing & Fashion",
		models.CategoryBooks:       "Books & Media",
		models.CategoryHome:        "Home & Garden",
		models.Category("Toys"):    "Uncategorized",
		models.Category(""):        "Uncategorized",
	}
	for category, want := range tests {
		assert.Equal(t, want, CategoryLabel(category), "category %q", category)
	}
}

func TestEffectivePrice(t *testing.T) {
	assert.Equal(t, 90.0, EffectivePrice(product(models.CategoryHome, 100, 1)))
	assert.Equal(t, 17.99, EffectivePrice(product(models.CategoryHome, 19.99, 1)))
	assert.Equal(t, 100.0, EffectivePrice(product(models.CategoryBooks, 100, 1)))
	assert.Equal(t, 1500.0, EffectivePrice(product(models.CategoryElectronics, 1500, 1)))
}

func TestFormattedPrice(t *testing.T) {
	assert.Equal(t, "$1,500.00", FormattedPrice(product(models.CategoryElectronics, 1500, 1)))
	assert.Equal(t, "$90.00", FormattedPrice(product(models.CategoryHome, 100, 1)))
	assert.Equal(t, "$9,999.99", FormattedPrice(product(models.CategoryBooks, 9999.99, 1)))
	assert.Equal(t, "$0.50", FormattedPrice(product(models.CategoryBooks, 0.5, 1)))
}

func TestImageURL_HiddenForHome(t *testing.T) {
	assert.Empty(t, ImageURL(product(models.CategoryHome, 100, 1)))
	assert.Equal(t, "https://cdn.example.com/laptop.png", ImageURL(product(models.CategoryElectronics, 100, 1)))
}

func TestAge(t *testing.T) {
	daysAgo := func(n int) time.Time { return today.AddDate(0, 0, -n) }

	tests := []struct {
		name    string
		release time.Time
		want    string
	}{
		{"future", today.AddDate(0, 0, 1), "Releases in the future"},
		{"later today", today.Add(2 * time.Hour), "New Release"},
		{"same day", today, "New Release"},
		{"10 days", daysAgo(10), "New Release"},
		{"29 days", daysAgo(29), "New Release"},
		{"30 days", daysAgo(30), "1 month old"},
		{"40 days", daysAgo(40), "1 month old"},
		{"60 days", daysAgo(60), "2 months old"},
		{"364 days", daysAgo(364), "12 months old"},
		{"365 days", daysAgo(365), "1 year old"},
		{"400 days", daysAgo(400), "1 year old"},
		{"730 days", daysAgo(730), "2 years old"},
		{"1824 days", daysAgo(1824), "4 years old"},
		{"1825 days", daysAgo(1825), "Classic"},
		{"1826 days", daysAgo(1826), "5 years old"},
		{"3650 days", daysAgo(3650), "10 years old"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(tt.release, today))
		})
	}
}

func TestAge_IgnoresTimeOfDay(t *testing.T) {
	release := time.Date(2025, 5, 16, 23, 59, 0, 0, time.UTC)
	morning := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, "1 month old", Age(release, morning))
}

func TestBrandInitials(t *testing.T) {
	tests := map[string]string{
		"Acme Corp":          "AC",
		"Sony":               "S",
		"":                   "?",
		"   ":                "?",
		"  acme   big corp ": "AC",
		"o'reilly media":     "OM",
		"émile":              "É",
	}
	for brand, want := range tests {
		assert.Equal(t, want, BrandInitials(brand), "brand %q", brand)
	}
}

func TestAvailabilityStatus(t *testing.T) {
	assert.Equal(t, "Last Item", AvailabilityStatus(product(models.CategoryBooks, 10, 1)))
	assert.Equal(t, "Limited Stock", AvailabilityStatus(product(models.CategoryBooks, 10, 5)))
	assert.Equal(t, "In Stock", AvailabilityStatus(product(models.CategoryBooks, 10, 6)))
	assert.Equal(t, "Out of Stock", AvailabilityStatus(product(models.CategoryBooks, 10, 0)))

	inconsistent := product(models.CategoryBooks, 10, 3)
	inconsistent.StockQuantity = 0
	assert.Equal(t, "Unavailable", AvailabilityStatus(inconsistent))
}

func TestNewProductView(t *testing.T) {
	p := product(models.CategoryElectronics, 1500, 3)

	v := NewProductView(p, today)

	assert.Equal(t, p.ID, v.ID)
	assert.Equal(t, "Electronics", v.Category)
	assert.Equal(t, "Electronics & Technology", v.CategoryDisplayName)
	assert.Equal(t, 1500.0, v.Price)
	assert.Equal(t, "$1,500.00", v.FormattedPrice)
	assert.Equal(t, "2 months old", v.ProductAge)
	assert.Equal(t, "AC", v.BrandInitials)
	assert.Equal(t, "Limited Stock", v.AvailabilityStatus)
	assert.Equal(t, p.ImageURL, v.ImageURL)
	assert.True(t, v.IsAvailable)
	assert.Nil(t, v.UpdatedAt)
}

func TestNewProductView_Home(t *testing.T) {
	p := product(models.CategoryHome, 100, 10)

	v := NewProductView(p, today)

	assert.Equal(t, 90.0, v.Price)
	assert.Equal(t, "$90.00", v.FormattedPrice)
	assert.Empty(t, v.ImageURL)
	assert.Equal(t, "https://cdn.example.com/laptop.png", p.ImageURL, "stored value is untouched")
}

func TestNewProductView_Idempotent(t *testing.T) {
	p := product(models.CategoryHome, 149.95, 2)

	first := NewProductView(p, today)
	second := NewProductView(p, today)

	assert.Equal(t, first, second)
}

func TestDisplayFieldNames(t *testing.T) {
	names := DisplayFieldNames()

	require.Len(t, names, 6)
	assert.ElementsMatch(t, []string{
		"categoryDisplayName", "formattedPrice", "imageUrl",
		"productAge", "brandInitials", "availabilityStatus",
	}, names)
}

func TestNewProductViews(t *testing.T) {
	products := []models.Product{
		*product(models.CategoryBooks, 10, 1),
		*product(models.CategoryHome, 20, 7),
	}

	views := NewProductViews(products, today)

	require.Len(t, views, 2)
	assert.Equal(t, "Books & Media", views[0].CategoryDisplayName)
	assert.Equal(t, "In Stock", views[1].AvailabilityStatus)
}
