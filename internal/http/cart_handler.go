package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	sessions *session.Manager
	catalog  catalog.RepoInterface
}

func NewCartHandler(sessions *session.Manager, products catalog.RepoInterface) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  products,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  *int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type LineItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type CartResponse struct {
	Items     []LineItemResponse `json:"items"`
	IsOpen    bool               `json:"is_open"`
	ItemCount int                `json:"item_count"`
	Subtotal  string             `json:"subtotal"`
	Tax       string             `json:"tax"`
	Total     string             `json:"total"`
}

func toCartResponse(c *cart.Store) CartResponse {
	items := c.Items()
	resp := CartResponse{
		Items:     make([]LineItemResponse, len(items)),
		IsOpen:    c.IsOpen(),
		ItemCount: c.ItemCount(),
	}
	for i, item := range items {
		resp.Items[i] = LineItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: cart.Fixed(item.UnitPrice),
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			LineTotal: cart.Fixed(item.LineTotal()),
		}
	}

	summary := c.Summary()
	resp.Subtotal = cart.Fixed(summary.Subtotal)
	resp.Tax = cart.Fixed(summary.Tax)
	resp.Total = cart.Fixed(summary.Total)
	return resp
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resp CartResponse
	err := h.sessions.View(ctx, getSessionID(ctx), func(c *cart.Store) {
		resp = toCartResponse(c)
	})
	if err != nil {
		respondSessionError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request body
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Validate request
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).Error("catalog lookup failed", zap.String("product_id", req.ProductID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	item := domain.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Size:      req.Size,
		Color:     req.Color,
	}

	var resp CartResponse
	err = h.sessions.Mutate(ctx, getSessionID(ctx), func(c *cart.Store) {
		c.Add(item, quantity)
		resp = toCartResponse(c)
	})
	if err != nil {
		respondSessionError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// UpdateQuantity sets the quantity of every line of the product. Zero or a
// negative quantity removes them.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Get product_id from URL path
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "body must contain quantity")
		return
	}

	var resp CartResponse
	err := h.sessions.Mutate(ctx, getSessionID(ctx), func(c *cart.Store) {
		c.UpdateQuantity(productID, *req.Quantity)
		resp = toCartResponse(c)
	})
	if err != nil {
		respondSessionError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// RemoveItem drops every line of the product, whatever its size or color.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var resp CartResponse
	err := h.sessions.Mutate(ctx, getSessionID(ctx), func(c *cart.Store) {
		c.Remove(productID)
		resp = toCartResponse(c)
	})
	if err != nil {
		respondSessionError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resp CartResponse
	err := h.sessions.Mutate(ctx, getSessionID(ctx), func(c *cart.Store) {
		c.Clear()
		resp = toCartResponse(c)
	})
	if err != nil {
		respondSessionError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resp CartResponse
	err := h.sessions.Mutate(ctx, getSessionID(ctx), func(c *cart.Store) {
		c.ToggleVisibility()
		resp = toCartResponse(c)
	})
	if err != nil {
		respondSessionError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// EndSession discards the session's cart.
func (h *CartHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.End(ctx, getSessionID(ctx)); err != nil {
		logger.FromContext(ctx).Warn("cache delete failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondSessionError(ctx context.Context, w http.ResponseWriter, err error) {
	logger.FromContext(ctx).Error("session unavailable", zap.Error(err))
	respondError(w, http.StatusServiceUnavailable, "cart_unavailable", "cart is temporarily unavailable")
}
