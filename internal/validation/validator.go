// Package validation checks create-product requests against the catalog's
// field rules, uniqueness constraints and business policy.
//
// Rules run in a fixed order and every failing rule contributes its message;
// nothing short-circuits. Storage-backed rules (name/brand and SKU uniqueness,
// the daily creation cap) run even when syntactic rules already failed.
package validation

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Request fields as reported in FieldError.Field.
const (
	FieldName          = "Name"
	FieldBrand         = "Brand"
	FieldSKU           = "SKU"
	FieldCategory      = "Category"
	FieldPrice         = "Price"
	FieldReleaseDate   = "ReleaseDate"
	FieldStockQuantity = "StockQuantity"
	FieldImageURL      = "ImageUrl"
)

// BusinessRuleMessage is the single message reported for any business-rule violation.
const BusinessRuleMessage = "Product violates one or more business rules."

var (
	skuPattern   = regexp.MustCompile(`^[A-Za-z0-9-]{5,20}$`)
	brandPattern = regexp.MustCompile(`^[A-Za-z0-9 .'-]+$`)

	inappropriateWords = []string{"banned", "illegal", "inappropriate"}
	homeRestricted     = []string{"weapon", "explosive"}
	technologyKeywords = []string{"phone", "laptop", "tablet", "camera", "tv", "monitor", "console"}
	imageExtensions    = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

	earliestRelease = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
)

const (
	DailyCreationLimit     = 500
	MaxStockQuantity       = 100_000
	MaxPrice               = 10_000
	electronicsMinPrice    = 50
	electronicsMaxAgeYears = 5
	homeMaxPrice           = 200
	clothingMinBrandLength = 3
	highValuePrice         = 500
	highValueMaxStock      = 10
	expensivePrice         = 100
	expensiveMaxStock      = 20
)

// Lookup is the storage surface the uniqueness and policy rules read from.
type Lookup interface {
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	ExistsByNameAndBrand(ctx context.Context, name, brand string) (bool, error)
	CountCreatedOn(ctx context.Context, date time.Time) (int64, error)
}

type checkFunc func(ctx context.Context, req *models.CreateProductRequest) (bool, error)

// rule fails with message when check returns false. A nil when always applies.
type rule struct {
	field   string
	message string
	when    func(req *models.CreateProductRequest) bool
	check   checkFunc
}

// Validator evaluates the ordered rule list.
type Validator struct {
	lookup   Lookup
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
	rules    []rule
}

type Option func(*Validator)

// WithClock replaces time.Now for the release-date and daily-cap rules.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

func NewValidator(lookup Lookup, logger *zap.Logger, opts ...Option) *Validator {
	v := &Validator{
		lookup:   lookup,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	_ = v.validate.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
		return ValidSKU(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("brandchars", func(fl validator.FieldLevel) bool {
		return brandPattern.MatchString(fl.Field().String())
	})

	v.rules = v.buildRules()
	return v
}

// Validate runs every rule and collects the failures. The error is non-nil
// only when a storage lookup fails or ctx is done.
func (v *Validator) Validate(ctx context.Context, req models.CreateProductRequest) (Outcome, error) {
	var outcome Outcome
	for _, r := range v.rules {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if r.when != nil && !r.when(&req) {
			continue
		}
		ok, err := r.check(ctx, &req)
		if err != nil {
			return Outcome{}, fmt.Errorf("validating %s: %w", ruleName(r.field), err)
		}
		if !ok {
			outcome.Errors = append(outcome.Errors, FieldError{Field: r.field, Message: r.message})
		}
	}
	return outcome, nil
}

// ValidSKU reports whether sku is 5-20 letters, digits or hyphens once spaces are removed.
func ValidSKU(sku string) bool {
	return skuPattern.MatchString(strings.ReplaceAll(sku, " ", ""))
}

func (v *Validator) buildRules() []rule {
	nameSet := func(r *models.CreateProductRequest) bool { return !blank(r.Name) }
	brandSet := func(r *models.CreateProductRequest) bool { return !blank(r.Brand) }
	skuSet := func(r *models.CreateProductRequest) bool { return !blank(r.SKU) }
	imageSet := func(r *models.CreateProductRequest) bool { return !blank(r.ImageURL) }

	return []rule{
		{field: FieldName, message: "Name is required.", check: v.tag(func(r *models.CreateProductRequest) any { return strings.TrimSpace(r.Name) }, "required")},
		{field: FieldName, message: "Name must be between 1 and 200 characters.", when: nameSet, check: v.tag(func(r *models.CreateProductRequest) any { return r.Name }, "min=1,max=200")},
		{field: FieldName, message: "Name contains inappropriate content.", when: nameSet, check: pure(func(r *models.CreateProductRequest) bool {
			return !containsAny(r.Name, inappropriateWords)
		})},
		{field: FieldName, message: "A product with the same name and brand already exists.", check: v.uniqueNameAndBrand},

		{field: FieldBrand, message: "Brand is required.", check: v.tag(func(r *models.CreateProductRequest) any { return strings.TrimSpace(r.Brand) }, "required")},
		{field: FieldBrand, message: "Brand must be between 2 and 100 characters.", when: brandSet, check: v.tag(func(r *models.CreateProductRequest) any { return r.Brand }, "min=2,max=100")},
		{field: FieldBrand, message: "Brand contains invalid characters.", when: brandSet, check: v.tag(func(r *models.CreateProductRequest) any { return r.Brand }, "brandchars")},

		{field: FieldSKU, message: "SKU is required.", check: v.tag(func(r *models.CreateProductRequest) any { return strings.TrimSpace(r.SKU) }, "required")},
		{field: FieldSKU, message: "SKU must be alphanumeric, 5-20 characters, and may contain hyphens.", when: skuSet, check: v.tag(func(r *models.CreateProductRequest) any { return r.SKU }, "sku")},
		{field: FieldSKU, message: "SKU already exists.", check: v.uniqueSKU},

		{field: FieldCategory, message: "Category is not valid.", check: pure(func(r *models.CreateProductRequest) bool { return r.Category.IsValid() })},

		{field: FieldPrice, message: "Price must be greater than 0.", check: v.tag(func(r *models.CreateProductRequest) any { return r.Price }, "gt=0")},
		{field: FieldPrice, message: "Price must be less than 10,000.", check: v.tag(func(r *models.CreateProductRequest) any { return r.Price }, fmt.Sprintf("lt=%d", MaxPrice))},

		{field: FieldReleaseDate, message: "Release date cannot be before 1900.", check: pure(func(r *models.CreateProductRequest) bool {
			return !r.ReleaseDate.Before(earliestRelease)
		})},
		{field: FieldReleaseDate, message: "Release date cannot be in the future.", check: pure(func(r *models.CreateProductRequest) bool {
			return !r.ReleaseDate.After(v.now())
		})},

		{field: FieldStockQuantity, message: "Stock quantity cannot be negative.", check: v.tag(func(r *models.CreateProductRequest) any { return r.StockQuantity }, "gte=0")},
		{field: FieldStockQuantity, message: "Stock quantity cannot exceed 100,000.", check: v.tag(func(r *models.CreateProductRequest) any { return r.StockQuantity }, fmt.Sprintf("lte=%d", MaxStockQuantity))},

		{field: FieldImageURL, message: "ImageUrl must be a valid HTTP/HTTPS URL and point to an image file.", when: imageSet, check: v.imageURL},

		{field: "", message: BusinessRuleMessage, check: v.businessRules},
	}
}

// tag adapts a go-playground validator tag to a rule check.
func (v *Validator) tag(value func(r *models.CreateProductRequest) any, tag string) checkFunc {
	return func(_ context.Context, r *models.CreateProductRequest) (bool, error) {
		return v.validate.Var(value(r), tag) == nil, nil
	}
}

func pure(fn func(r *models.CreateProductRequest) bool) checkFunc {
	return func(_ context.Context, r *models.CreateProductRequest) (bool, error) {
		return fn(r), nil
	}
}

func (v *Validator) uniqueNameAndBrand(ctx context.Context, r *models.CreateProductRequest) (bool, error) {
	v.logger.Debug("Checking uniqueness for product name and brand", zap.String("name", r.Name), zap.String("brand", r.Brand))
	exists, err := v.lookup.ExistsByNameAndBrand(ctx, r.Name, r.Brand)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (v *Validator) uniqueSKU(ctx context.Context, r *models.CreateProductRequest) (bool, error) {
	v.logger.Debug("Checking SKU uniqueness", zap.String("sku", r.SKU))
	exists, err := v.lookup.ExistsBySKU(ctx, r.SKU)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (v *Validator) imageURL(_ context.Context, r *models.CreateProductRequest) (bool, error) {
	if v.validate.Var(r.ImageURL, "http_url") != nil {
		return false, nil
	}
	u, err := url.Parse(r.ImageURL)
	if err != nil || !u.IsAbs() {
		return false, nil
	}
	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true, nil
		}
	}
	return false, nil
}

// businessRules evaluates every policy and logs each violation; callers only
// ever see the one generic message.
func (v *Validator) businessRules(ctx context.Context, r *models.CreateProductRequest) (bool, error) {
	now := v.now().UTC()

	todays, err := v.lookup.CountCreatedOn(ctx, now)
	if err != nil {
		return false, err
	}

	var violations []string
	if todays >= DailyCreationLimit {
		violations = append(violations, fmt.Sprintf("daily product addition limit reached: %d", todays))
	}

	switch r.Category {
	case models.CategoryElectronics:
		if r.Price < electronicsMinPrice {
			violations = append(violations, fmt.Sprintf("electronics price %.2f below minimum %d", r.Price, electronicsMinPrice))
		}
		if !containsAny(r.Name, technologyKeywords) {
			violations = append(violations, "electronics name contains no technology keyword")
		}
		if r.ReleaseDate.Before(now.AddDate(-electronicsMaxAgeYears, 0, 0)) {
			violations = append(violations, "electronics product released more than 5 years ago")
		}
	case models.CategoryHome:
		if r.Price > homeMaxPrice {
			violations = append(violations, fmt.Sprintf("home price %.2f above maximum %d", r.Price, homeMaxPrice))
		}
		if containsAny(r.Name, homeRestricted) {
			violations = append(violations, "home product name contains restricted content")
		}
	case models.CategoryClothing:
		if utf8.RuneCountInString(r.Brand) < clothingMinBrandLength {
			violations = append(violations, "clothing brand shorter than 3 characters")
		}
	}

	if r.Price > highValuePrice && r.StockQuantity > highValueMaxStock {
		violations = append(violations, fmt.Sprintf("high value product stock %d above %d", r.StockQuantity, highValueMaxStock))
	}
	if r.Price > expensivePrice && r.StockQuantity > expensiveMaxStock {
		violations = append(violations, fmt.Sprintf("expensive product stock %d above %d", r.StockQuantity, expensiveMaxStock))
	}

	for _, violation := range violations {
		v.logger.Warn("Business rule violated",
			zap.String("name", r.Name),
			zap.String("sku", r.SKU),
			zap.String("category", string(r.Category)),
			zap.String("rule", violation),
		)
	}
	return len(violations) == 0, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func containsAny(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func ruleName(field string) string {
	if field == "" {
		return "business rules"
	}
	return field
}
