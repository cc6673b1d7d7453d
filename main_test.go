package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(secret string) *config.Config {
	return &config.Config{
		AppPort:         ":0",
		AppEnv:          "test",
		LogLevel:        "error",
		DatabaseDriver:  "sqlite",
		CacheTTL:        time.Minute,
		JWTSecret:       secret,
		TokenTTL:        time.Hour,
		RateLimitMax:    1000,
		RateLimitWindow: time.Minute,
	}
}

func testApp(t *testing.T, cfg *config.Config, checks map[string]healthCheck) *fiber.App {
	t.Helper()
	db, err := repositories.OpenDatabase("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)

	return newApp(dependencies{
		cfg:    cfg,
		logger: zap.NewNop(),
		db:     db,
		cache:  cache.NewMemoryCache(cfg.CacheTTL),
		checks: checks,
	})
}

func TestHealthCheck(t *testing.T) {
	app := testApp(t, testConfig(""), map[string]healthCheck{
		"database": func(context.Context) error { return nil },
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"healthy"`)
	assert.Contains(t, string(body), `"database":"ok"`)
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	app := testApp(t, testConfig(""), map[string]healthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnauthenticatedWrite(t *testing.T) {
	app := testApp(t, testConfig("test_jwt_secret"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/products", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads stay public")
}

func TestCreateThenScrapeMetrics(t *testing.T) {
	app := testApp(t, testConfig(""), nil)

	body, err := json.Marshal(map[string]any{
		"name":          "Reading Lamp",
		"brand":         "Lumen Works",
		"sku":           "LMP-00042",
		"category":      "Home",
		"price":         100,
		"releaseDate":   time.Now().UTC().AddDate(-1, 0, 0).Format(time.RFC3339),
		"imageUrl":      "https://cdn.example.com/lamp.jpg",
		"stockQuantity": 8,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	assert.Equal(t, 90.0, view["price"])
	assert.Equal(t, "$90.00", view["formattedPrice"])
	assert.NotContains(t, view, "imageUrl")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	metrics, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `catalog_product_creations_total{category="Home",outcome="success"}`)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli_secret")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--subject", "ops", "--env-file", filepath.Join(t.TempDir(), "none.env")})

	require.NoError(t, cmd.Execute())

	claims, err := services.NewTokenService("cli_secret", time.Hour).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims["sub"])
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"token", "--subject", "ops", "--env-file", filepath.Join(t.TempDir(), "none.env")})

	assert.Error(t, cmd.Execute())
}
