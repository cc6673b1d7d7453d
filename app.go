package main

import (
	"context"
	"sort"
	"time"

	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/logging"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/telemetry"
	"catalog/internal/validation"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// healthCheck reports whether one backing service is reachable.
type healthCheck func(ctx context.Context) error

// dependencies are the long-lived resources the HTTP app is built from.
type dependencies struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	cache  cache.Cache
	sinks  []telemetry.Sink
	checks map[string]healthCheck
}

// newApp wires the product pipeline into a Fiber app.
func newApp(deps dependencies) *fiber.App {
	cfg, logger := deps.cfg, deps.logger

	repo := repositories.NewGORMProductRepository(deps.db, logger)
	validator := validation.NewValidator(repo, logger)
	sink := telemetry.Multi(append([]telemetry.Sink{telemetry.NewLogSink(logger)}, deps.sinks...)...)
	productService := services.NewProductService(repo, validator, deps.cache, sink, logger)
	productHandler := handlers.NewProductHandler(productService, logger)

	app := fiber.New(fiber.Config{AppName: "catalog"})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Correlation())

	app.Get("/health", healthHandler(deps.checks))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiV1 := app.Group("/api/v1", limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests. Try again later.",
			})
		},
	}))

	if cfg.JWTSecret != "" {
		tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
		productHandler.RegisterRoutes(apiV1, middleware.AuthRequired(tokens, logger))
	} else {
		logging.Warn(context.Background(), logger, "JWT_SECRET is empty, product write routes are unauthenticated")
		productHandler.RegisterRoutes(apiV1)
	}

	return app
}

func healthHandler(checks map[string]healthCheck) fiber.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := fiber.StatusOK
		components := fiber.Map{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = fiber.StatusServiceUnavailable
				components[name] = err.Error()
				continue
			}
			components[name] = "ok"
		}

		state := "healthy"
		if status != fiber.StatusOK {
			state = "unhealthy"
		}
		return c.Status(status).JSON(fiber.Map{
			"status":     state,
			"time":       time.Now().Format(time.RFC3339),
			"components": components,
		})
	}
}
