package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/search"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	sessionOne   = "7d4c0f5e-2b1a-4c8e-9f3d-1a2b3c4d5e6f"
	sessionAlice = "0b8e6a2c-5d7f-4e1a-8c3b-9d0e1f2a3b4c"
	sessionBob   = "e3f9a1b7-6c2d-4f8e-a5b0-7c1d2e3f4a5b"
)

type catalogMock struct {
	products map[string]*domain.Product
	err      error
}

func (m catalogMock) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m catalogMock) ListProducts(context.Context) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []*domain.Product{}
	for _, id := range []string{"p1", "p2"} {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type searcherMock struct {
	fn func(ctx context.Context, q domain.ParsedQuery) (*search.Result, error)
}

func (m searcherMock) Search(ctx context.Context, q domain.ParsedQuery) (*search.Result, error) {
	return m.fn(ctx, q)
}

func defaultCatalog() catalogMock {
	return catalogMock{products: map[string]*domain.Product{
		"p1": {
			ID:       "p1",
			Name:     "Classic Oxford Shirt",
			Category: domain.CategoryShirt,
			Price:    decimal.RequireFromString("10"),
			MRP:      decimal.NewNullDecimal(decimal.RequireFromString("20")),
		},
		"p2": {
			ID:       "p2",
			Name:     "Leather Belt",
			Category: domain.CategoryBelt,
			Price:    decimal.RequireFromString("4.99"),
		},
	}}
}

func setupRouter(t *testing.T, products catalog.RepoInterface, searcher Searcher) http.Handler {
	sessions := session.NewManager(nil, time.Hour, nil)
	t.Cleanup(sessions.Close)
	return newTestRouter(5*time.Second, sessions, products, searcher)
}

func newTestRouter(timeout time.Duration, sessions *session.Manager, products catalog.RepoInterface, searcher Searcher) http.Handler {
	if searcher == nil {
		searcher = searcherMock{fn: func(context.Context, domain.ParsedQuery) (*search.Result, error) {
			return &search.Result{Products: []json.RawMessage{}}, nil
		}}
	}

	return NewRouter(
		RouterConfig{RequestTimeout: timeout, MaxRequestBodySize: 1 << 20},
		zap.NewNop(),
		NewCartHandler(sessions, products),
		NewSearchHandler(sessions, searcher),
		NewProductHandler(products),
	)
}

func do(t *testing.T, h http.Handler, method, path, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, req)
	return recorder
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartResponse {
	t.Helper()
	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	h := setupRouter(t, defaultCatalog(), nil)

	rec := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
