// Package derivation computes the presentation-only fields of a product.
//
// Every function here is pure: the result depends only on the product and
// on the "today" passed in, so building a view twice from the same record
// yields the same output.
package derivation

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"catalog/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const homeDiscount = 0.9

// classicAgeDays is exactly five years of 365 days.
const classicAgeDays = 1825

var categoryLabels = map[models.Category]string{
	models.CategoryElectronics: "Electronics & Technology",
	models.CategoryClothing:    "Clothing & Fashion",
	models.CategoryBooks:       "Books & Media",
	models.CategoryHome:        "Home & Garden",
}

// ProductView is the response projection of a product. It is never stored.
type ProductView struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Brand               string     `json:"brand"`
	SKU                 string     `json:"sku"`
	Category            string     `json:"category"`
	CategoryDisplayName string     `json:"categoryDisplayName"`
	Price               float64    `json:"price"`
	FormattedPrice      string     `json:"formattedPrice"`
	ReleaseDate         time.Time  `json:"releaseDate"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
	ImageURL            string     `json:"imageUrl,omitempty"`
	IsAvailable         bool       `json:"isAvailable"`
	StockQuantity       int        `json:"stockQuantity"`
	ProductAge          string     `json:"productAge"`
	BrandInitials       string     `json:"brandInitials"`
	AvailabilityStatus  string     `json:"availabilityStatus"`
}

type displayField struct {
	name    string
	target  func(v *ProductView) *string
	resolve func(p *models.Product, today time.Time) string
}

// displayFields resolves each derived string field by its JSON name.
var displayFields = []displayField{
	{"categoryDisplayName", func(v *ProductView) *string { return &v.CategoryDisplayName }, func(p *models.Product, _ time.Time) string { return CategoryLabel(p.Category) }},
	{"formattedPrice", func(v *ProductView) *string { return &v.FormattedPrice }, func(p *models.Product, _ time.Time) string { return FormattedPrice(p) }},
	{"imageUrl", func(v *ProductView) *string { return &v.ImageURL }, func(p *models.Product, _ time.Time) string { return ImageURL(p) }},
	{"productAge", func(v *ProductView) *string { return &v.ProductAge }, func(p *models.Product, today time.Time) string { return Age(p.ReleaseDate, today) }},
	{"brandInitials", func(v *ProductView) *string { return &v.BrandInitials }, func(p *models.Product, _ time.Time) string { return BrandInitials(p.Brand) }},
	{"availabilityStatus", func(v *ProductView) *string { return &v.AvailabilityStatus }, func(p *models.Product, _ time.Time) string { return AvailabilityStatus(p) }},
}

// DisplayFieldNames lists the derived string fields in resolution order.
func DisplayFieldNames() []string {
	names := make([]string, len(displayFields))
	for i, f := range displayFields {
		names[i] = f.name
	}
	return names
}

// NewProductView projects p into its response view as of today.
func NewProductView(p *models.Product, today time.Time) ProductView {
	v := ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Brand:         p.Brand,
		SKU:           p.SKU,
		Category:      string(p.Category),
		Price:         EffectivePrice(p),
		ReleaseDate:   p.ReleaseDate,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		IsAvailable:   p.IsAvailable,
		StockQuantity: p.StockQuantity,
	}
	for _, f := range displayFields {
		*f.target(&v) = f.resolve(p, today)
	}
	return v
}

// NewProductViews projects every product in order.
func NewProductViews(products []models.Product, today time.Time) []ProductView {
	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, NewProductView(&products[i], today))
	}
	return views
}

func CategoryLabel(c models.Category) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return "Uncategorized"
}

// EffectivePrice applies the Home category discount, rounded to cents.
func EffectivePrice(p *models.Product) float64 {
	if p.Category == models.CategoryHome {
		return math.Round(p.Price*homeDiscount*100) / 100
	}
	return p.Price
}

// FormattedPrice renders the effective price as US dollar text, e.g. "$1,500.00".
func FormattedPrice(p *models.Product) string {
	printer := message.NewPrinter(language.AmericanEnglish)
	price := EffectivePrice(p)
	if price < 0 {
		return "-$" + printer.Sprintf("%.2f", -price)
	}
	return "$" + printer.Sprintf("%.2f", price)
}

// ImageURL hides the image of Home products.
func ImageURL(p *models.Product) string {
	if p.Category == models.CategoryHome {
		return ""
	}
	return p.ImageURL
}

// Age buckets the whole days between the release date and today.
func Age(releaseDate, today time.Time) string {
	release := truncateDay(releaseDate)
	day := truncateDay(today)

	if release.After(day) {
		return "Releases in the future"
	}

	days := int(day.Sub(release).Hours() / 24)

	switch {
	case days < 30:
		return "New Release"
	case days < 365:
		return plural(max(days/30, 1), "month")
	case days == classicAgeDays:
		return "Classic"
	default:
		return plural(max(days/365, 1), "year")
	}
}

// BrandInitials returns the upper-cased first letters of the first and last
// words of brand, a single letter for one word, or "?" when brand is blank.
func BrandInitials(brand string) string {
	words := strings.Fields(brand)
	switch len(words) {
	case 0:
		return "?"
	case 1:
		return initial(words[0])
	default:
		return initial(words[0]) + initial(words[len(words)-1])
	}
}

func AvailabilityStatus(p *models.Product) string {
	switch {
	case !p.IsAvailable:
		return "Out of Stock"
	case p.StockQuantity <= 0:
		return "Unavailable"
	case p.StockQuantity == 1:
		return "Last Item"
	case p.StockQuantity <= 5:
		return "Limited Stock"
	default:
		return "In Stock"
	}
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s old", unit)
	}
	return fmt.Sprintf("%d %ss old", n, unit)
}

func initial(word string) string {
	r, _ := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(r))
}
