package handlers

import (
	"errors"
	"fmt"

	"catalog/internal/logging"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// defaultStockQuantity applies when a request omits stockQuantity.
const defaultStockQuantity = 1

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the product routes. Write routes run behind guard
// when one is given.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guard ...fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	write := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guard...), handler)
	}
	productRoutes.Post("/", write(h.HandleCreateProduct)...)
	productRoutes.Put("/:id", write(h.HandleUpdateProduct)...)
	productRoutes.Delete("/:id", write(h.HandleDeleteProduct)...)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	products, err := h.service.GetAllProducts(ctx)
	if err != nil {
		logging.Error(ctx, h.logger, "Error getting all products", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	ctx := c.UserContext()
	productID := c.Params("id")
	product, err := h.service.GetProductByID(ctx, productID)
	if err != nil {
		return h.lookupFailure(c, productID, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct runs the creation pipeline and answers 201 with the derived view.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()

	req, err := parseProductRequest(c)
	if err != nil {
		logging.Warn(ctx, h.logger, "Error parsing request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	view, err := h.service.CreateProduct(ctx, req)
	if err != nil {
		return h.creationFailure(c, err)
	}

	c.Location(fmt.Sprintf("/products/%s", view.ID))
	return c.Status(fiber.StatusCreated).JSON(view)
}

// HandleUpdateProduct overwrites the editable fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()
	productID := c.Params("id")

	req, err := parseProductRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	view, err := h.service.UpdateProduct(ctx, productID, req)
	if err != nil {
		var duplicate *services.DuplicateKeyError
		if errors.As(err, &duplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "A product with this SKU already exists",
				"field":   duplicate.Field,
			})
		}
		return h.lookupFailure(c, productID, err)
	}
	return c.JSON(view)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(c.UserContext(), productID); err != nil {
		return h.lookupFailure(c, productID, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseProductRequest(c *fiber.Ctx) (models.CreateProductRequest, error) {
	req := models.CreateProductRequest{StockQuantity: defaultStockQuantity}
	err := c.BodyParser(&req)
	return req, err
}

func (h *ProductHandler) lookupFailure(c *fiber.Ctx, productID string, err error) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %s not found", productID),
		})
	}
	logging.Error(c.UserContext(), h.logger, "Product request failed",
		zap.String("product_id", productID),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not process product request",
	})
}

// creationFailure maps the creation error taxonomy onto HTTP responses.
func (h *ProductHandler) creationFailure(c *fiber.Ctx, err error) error {
	var (
		validationErr *services.ValidationError
		violation     *services.BusinessRuleViolation
		duplicate     *services.DuplicateKeyError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErr.Errors,
		})
	case errors.As(err, &violation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": violation.Message,
		})
	case errors.As(err, &duplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "A product with this SKU already exists",
			"field":   duplicate.Field,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
		})
	}
}
