package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	products "github.com/floraweave/floraweave-backend/internal/products"
	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProductService struct{}

func (stubProductService) CreateProduct(context.Context, uuid.UUID, products.DraftInput, bool) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) UpdateProduct(context.Context, uuid.UUID, uuid.UUID, products.DraftInput, bool) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) DeleteProduct(context.Context, uuid.UUID, uuid.UUID) error {
	panic("unimplemented")
}

func (stubProductService) GetProduct(context.Context, uuid.UUID) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) GetProductBySlug(context.Context, string) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) ListProducts(context.Context, products.ListInput) (*products.ListResultDTO, error) {
	return &products.ListResultDTO{Items: []products.ListItemDTO{}}, nil
}

func (stubProductService) MoveVariant(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, uuid.UUID) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) MoveSlab(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, uuid.UUID) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}

	registry := prometheus.NewRegistry()
	return NewRouter(Deps{
		Config:      cfg,
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		DB:          stubPinger{},
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Registry:    registry,
		Products:    stubProductService{},
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Floraweave-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestRouterPublicCatalog(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data products.ListResultDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Data.Items == nil {
		t.Fatal("expected items array in payload")
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{
		"/api/v1/me",
		"/api/v1/cart/",
		"/api/admin/v1/products/",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
