package server_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/server"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		AppPort:             "127.0.0.1:0",
		DatabaseDriver:      "sqlite",
		DatabaseDSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()),
		SeedCatalog:         true,
		JWTSecret:           "test_jwt_secret",
		JWTTTL:              time.Hour,
		EventBroker:         config.BrokerInline,
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: "whsec_123",
		CheckoutSuccessURL:  "http://localhost/success",
		CheckoutCancelURL:   "http://localhost/cancel",
		Currency:            "usd",
		PaymentTimeout:      time.Second,
		RequestTimeout:      5 * time.Second,
	}
}

func TestServerStartupAndHealthCheck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := server.Build(ctx, testConfig())
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		if err := app.Fiber.Listener(ln); err != nil {
			log.Printf("Test server stopped: %v", err)
		}
	}()
	defer func() {
		assert.NoError(t, app.Shutdown())
	}()
	baseURL := "http://" + ln.Addr().String()

	t.Run("HealthCheck", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"status":"healthy"`)
	})

	t.Run("SeededCatalogIsPublic", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/v1/products/prod-1")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("UnauthenticatedAccess", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/v1/cart")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	app, err := server.Build(context.Background(), testConfig())
	require.NoError(t, err)
	defer app.Shutdown()

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "storefront_api_http_requests_total")
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app, err := server.Build(context.Background(), testConfig())
	require.NoError(t, err)
	defer app.Shutdown()

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"error":"NOT_FOUND"`)
}
