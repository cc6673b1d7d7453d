package validation_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func validRequest() models.CreateProductRequest {
	return models.CreateProductRequest{
		Name:          "Gaming Laptop Pro",
		Brand:         "Acme Corp",
		SKU:           "LAP-12345",
		Category:      models.CategoryElectronics,
		Price:         1500,
		ReleaseDate:   fixedNow.AddDate(0, -2, 0),
		ImageURL:      "https://cdn.example.com/img/laptop.png",
		StockQuantity: 3,
	}
}

func newValidator(t *testing.T) (*validation.Validator, *repositories.MemoryProductRepository) {
	t.Helper()
	repo := repositories.NewMemoryProductRepository()
	return validation.NewValidator(repo, zap.NewNop(), validation.WithClock(clock)), repo
}

func messagesFor(o validation.Outcome, field string) []string {
	var msgs []string
	for _, e := range o.Errors {
		if e.Field == field {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

func TestValidate_ValidRequest(t *testing.T) {
	v, _ := newValidator(t)

	outcome, err := v.Validate(context.Background(), validRequest())

	require.NoError(t, err)
	assert.True(t, outcome.Valid(), outcome.Joined())
	assert.Empty(t, outcome.Errors)
}

func TestValidSKU(t *testing.T) {
	accepted := []string{"ABCDE", "LAP-12345", "a1-b2-c3", "12345678901234567890", "LAP 12345", " AB CD E "}
	rejected := []string{"", "ABCD", "123456789012345678901", "LAP_12345", "LAP.12345", "ÄBCDE", "LAP-1234$", "    "}

	for _, sku := range accepted {
		assert.True(t, validation.ValidSKU(sku), "expected %q to be accepted", sku)
	}
	for _, sku := range rejected {
		assert.False(t, validation.ValidSKU(sku), "expected %q to be rejected", sku)
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.CreateProductRequest)
		field   string
		message string
	}{
		{"empty name", func(r *models.CreateProductRequest) { r.Name = "" }, validation.FieldName, "Name is required."},
		{"long name", func(r *models.CreateProductRequest) { r.Name = "Laptop " + strings.Repeat("x", 200) }, validation.FieldName, "Name must be between 1 and 200 characters."},
		{"denylisted name", func(r *models.CreateProductRequest) { r.Name = "ILLEGAL Laptop" }, validation.FieldName, "Name contains inappropriate content."},
		{"empty brand", func(r *models.CreateProductRequest) { r.Brand = "  " }, validation.FieldBrand, "Brand is required."},
		{"short brand", func(r *models.CreateProductRequest) { r.Brand = "A" }, validation.FieldBrand, "Brand must be between 2 and 100 characters."},
		{"brand characters", func(r *models.CreateProductRequest) { r.Brand = "Acme & Sons" }, validation.FieldBrand, "Brand contains invalid characters."},
		{"empty sku", func(r *models.CreateProductRequest) { r.SKU = "" }, validation.FieldSKU, "SKU is required."},
		{"bad sku", func(r *models.CreateProductRequest) { r.SKU = "LAP_1" }, validation.FieldSKU, "SKU must be alphanumeric, 5-20 characters, and may contain hyphens."},
		{"unknown category", func(r *models.CreateProductRequest) { r.Category = "Toys" }, validation.FieldCategory, "Category is not valid."},
		{"zero price", func(r *models.CreateProductRequest) { r.Price = 0 }, validation.FieldPrice, "Price must be greater than 0."},
		{"price at cap", func(r *models.CreateProductRequest) { r.Price = 10000 }, validation.FieldPrice, "Price must be less than 10,000."},
		{"ancient release", func(r *models.CreateProductRequest) { r.ReleaseDate = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC) }, validation.FieldReleaseDate, "Release date cannot be before 1900."},
		{"future release", func(r *models.CreateProductRequest) { r.ReleaseDate = fixedNow.Add(time.Minute) }, validation.FieldReleaseDate, "Release date cannot be in the future."},
		{"negative stock", func(r *models.CreateProductRequest) { r.StockQuantity = -1 }, validation.FieldStockQuantity, "Stock quantity cannot be negative."},
		{"excess stock", func(r *models.CreateProductRequest) { r.StockQuantity = 100001 }, validation.FieldStockQuantity, "Stock quantity cannot exceed 100,000."},
		{"ftp image", func(r *models.CreateProductRequest) { r.ImageURL = "ftp://cdn.example.com/a.png" }, validation.FieldImageURL, "ImageUrl must be a valid HTTP/HTTPS URL and point to an image file."},
		{"relative image", func(r *models.CreateProductRequest) { r.ImageURL = "/img/a.png" }, validation.FieldImageURL, "ImageUrl must be a valid HTTP/HTTPS URL and point to an image file."},
		{"non image", func(r *models.CreateProductRequest) { r.ImageURL = "https://cdn.example.com/a.pdf" }, validation.FieldImageURL, "ImageUrl must be a valid HTTP/HTTPS URL and point to an image file."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newValidator(t)
			req := validRequest()
			tt.mutate(&req)

			outcome, err := v.Validate(context.Background(), req)

			require.NoError(t, err)
			assert.False(t, outcome.Valid())
			assert.Contains(t, messagesFor(outcome, tt.field), tt.message)
		})
	}
}

func TestValidate_BoundaryValuesPass(t *testing.T) {
	v, _ := newValidator(t)
	ctx := context.Background()

	req := validRequest()
	req.Category = models.CategoryBooks
	req.Name = "N"
	req.Brand = "O'Neil-Smith Jr."
	req.Price = 0.01
	req.StockQuantity = 0
	req.ReleaseDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	req.ImageURL = "http://example.com/cover.WEBP"

	outcome, err := v.Validate(ctx, req)
	require.NoError(t, err)
	assert.True(t, outcome.Valid(), outcome.Joined())

	req.SKU = "BOOK-9"
	req.ReleaseDate = fixedNow
	req.ImageURL = ""
	req.StockQuantity = 20
	req.Price = 100
	outcome, err = v.Validate(ctx, req)
	require.NoError(t, err)
	assert.True(t, outcome.Valid(), outcome.Joined())
}

func TestValidate_EmptyFieldsReportRequiredOnce(t *testing.T) {
	v, _ := newValidator(t)

	outcome, err := v.Validate(context.Background(), models.CreateProductRequest{
		Category:    models.CategoryBooks,
		Price:       10,
		ReleaseDate: fixedNow.AddDate(-1, 0, 0),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Name is required."}, messagesFor(outcome, validation.FieldName))
	assert.Equal(t, []string{"Brand is required."}, messagesFor(outcome, validation.FieldBrand))
	assert.Equal(t, []string{"SKU is required."}, messagesFor(outcome, validation.FieldSKU))
}

func TestValidate_CollectsEveryFailureInRuleOrder(t *testing.T) {
	v, _ := newValidator(t)
	req := validRequest()
	req.Name = "banned gadget"
	req.SKU = "x"
	req.Price = -5
	req.StockQuantity = -1

	outcome, err := v.Validate(context.Background(), req)
	require.NoError(t, err)

	fields := make([]string, 0, len(outcome.Errors))
	for _, e := range outcome.Errors {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{
		validation.FieldName,
		validation.FieldSKU,
		validation.FieldPrice,
		validation.FieldStockQuantity,
		"",
	}, fields)
	assert.Equal(t, validation.BusinessRuleMessage, outcome.Errors[len(outcome.Errors)-1].Message)
	assert.False(t, outcome.OnlyRequestLevel())
}

func TestValidate_UniquenessAgainstStorage(t *testing.T) {
	v, repo := newValidator(t)
	ctx := context.Background()

	existing := validRequest()
	require.NoError(t, repo.Add(ctx, models.NewProduct(existing, fixedNow.AddDate(0, 0, -3))))

	outcome, err := v.Validate(ctx, existing)
	require.NoError(t, err)
	assert.Equal(t, []string{"A product with the same name and brand already exists."}, messagesFor(outcome, validation.FieldName))
	assert.Equal(t, []string{"SKU already exists."}, messagesFor(outcome, validation.FieldSKU))

	other := validRequest()
	other.Name = "Gaming Laptop Air"
	other.SKU = "LAP-99999"
	outcome, err = v.Validate(ctx, other)
	require.NoError(t, err)
	assert.True(t, outcome.Valid(), outcome.Joined())
}

func TestValidate_UniquenessRunsEvenWhenSyntaxFails(t *testing.T) {
	lookup := &countingLookup{skuExists: true}
	v := validation.NewValidator(lookup, zap.NewNop(), validation.WithClock(clock))
	req := validRequest()
	req.SKU = "LAP 12345 TOO-LONG-FOR-THE-RULE"

	outcome, err := v.Validate(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, lookup.skuCalls)
	assert.Equal(t, 1, lookup.nameCalls)
	assert.Equal(t, 1, lookup.countCalls)
	assert.Equal(t, []string{
		"SKU must be alphanumeric, 5-20 characters, and may contain hyphens.",
		"SKU already exists.",
	}, messagesFor(outcome, validation.FieldSKU))
}

func TestValidate_BusinessRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.CreateProductRequest)
		valid  bool
	}{
		{"electronics below 50 without keyword", func(r *models.CreateProductRequest) { r.Price = 40; r.Name = "Basic Widget" }, false},
		{"electronics below 50", func(r *models.CreateProductRequest) { r.Price = 49.99 }, false},
		{"electronics at 50", func(r *models.CreateProductRequest) { r.Price = 50 }, true},
		{"electronics without keyword", func(r *models.CreateProductRequest) { r.Name = "Gaming Rig" }, false},
		{"electronics keyword any case", func(r *models.CreateProductRequest) { r.Name = "Smart TV 55" }, true},
		{"electronics older than five years", func(r *models.CreateProductRequest) { r.ReleaseDate = fixedNow.AddDate(-5, 0, -1) }, false},
		{"home above 200", func(r *models.CreateProductRequest) {
			r.Category = models.CategoryHome
			r.Name = "Garden Chair"
			r.Price = 200.01
		}, false},
		{"home at 200", func(r *models.CreateProductRequest) {
			r.Category = models.CategoryHome
			r.Name = "Garden Chair"
			r.Price = 200
		}, true},
		{"home restricted word", func(r *models.CreateProductRequest) {
			r.Category = models.CategoryHome
			r.Name = "Explosive Fireworks Kit"
			r.Price = 20
		}, false},
		{"clothing short brand", func(r *models.CreateProductRequest) {
			r.Category = models.CategoryClothing
			r.Name = "Linen Shirt"
			r.Brand = "HM"
			r.Price = 30
		}, false},
		{"clothing three letter brand", func(r *models.CreateProductRequest) {
			r.Category = models.CategoryClothing
			r.Name = "Linen Shirt"
			r.Brand = "Gap"
			r.Price = 30
		}, true},
		{"price over 500 stock over 10", func(r *models.CreateProductRequest) { r.Price = 600; r.StockQuantity = 11 }, false},
		{"price over 500 stock 10", func(r *models.CreateProductRequest) { r.Price = 600; r.StockQuantity = 10 }, true},
		{"price over 100 stock over 20", func(r *models.CreateProductRequest) {
			r.Category = models.CategoryBooks
			r.Name = "Collected Works"
			r.Price = 150
			r.StockQuantity = 21
		}, false},
		{"price 100 stock over 20", func(r *models.CreateProductRequest) {
			r.Category = models.CategoryBooks
			r.Name = "Collected Works"
			r.Price = 100
			r.StockQuantity = 500
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newValidator(t)
			req := validRequest()
			tt.mutate(&req)

			outcome, err := v.Validate(context.Background(), req)
			require.NoError(t, err)

			business := messagesFor(outcome, "")
			if tt.valid {
				assert.Empty(t, business, outcome.Joined())
				return
			}
			assert.Equal(t, []string{validation.BusinessRuleMessage}, business)
		})
	}
}

func TestValidate_BusinessRuleViolationIsRequestLevelOnly(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	v := validation.NewValidator(repositories.NewMemoryProductRepository(), zap.New(core), validation.WithClock(clock))
	req := validRequest()
	req.Price = 40
	req.Name = "Basic Widget"

	outcome, err := v.Validate(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, outcome.OnlyRequestLevel())
	assert.Len(t, outcome.Errors, 1)
	// each violated policy is logged, only one message is reported
	assert.Equal(t, 2, logs.FilterMessage("Business rule violated").Len())
}

func TestValidate_DailyCap(t *testing.T) {
	ctx := context.Background()

	lookup := &countingLookup{todayCount: validation.DailyCreationLimit - 1}
	v := validation.NewValidator(lookup, zap.NewNop(), validation.WithClock(clock))
	outcome, err := v.Validate(ctx, validRequest())
	require.NoError(t, err)
	assert.True(t, outcome.Valid())
	assert.Equal(t, fixedNow, lookup.countedDay)

	lookup.todayCount = validation.DailyCreationLimit
	outcome, err = v.Validate(ctx, validRequest())
	require.NoError(t, err)
	assert.True(t, outcome.OnlyRequestLevel())
}

func TestValidate_LookupFailure(t *testing.T) {
	boom := errors.New("connection refused")
	v := validation.NewValidator(&countingLookup{err: boom}, zap.NewNop(), validation.WithClock(clock))

	_, err := v.Validate(context.Background(), validRequest())

	assert.ErrorIs(t, err, boom)
}

func TestValidate_CancelledContext(t *testing.T) {
	v, _ := newValidator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Validate(ctx, validRequest())

	assert.ErrorIs(t, err, context.Canceled)
}

type countingLookup struct {
	skuExists  bool
	todayCount int64
	err        error

	skuCalls   int
	nameCalls  int
	countCalls int
	countedDay time.Time
}

func (c *countingLookup) ExistsBySKU(_ context.Context, _ string) (bool, error) {
	c.skuCalls++
	return c.skuExists, c.err
}

func (c *countingLookup) ExistsByNameAndBrand(_ context.Context, _, _ string) (bool, error) {
	c.nameCalls++
	return false, c.err
}

func (c *countingLookup) CountCreatedOn(_ context.Context, day time.Time) (int64, error) {
	c.countCalls++
	c.countedDay = day
	return c.todayCount, c.err
}
