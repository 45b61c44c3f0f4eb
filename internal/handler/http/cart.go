package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Epi-Shop/epi-shop/internal/service"
	"github.com/Epi-Shop/epi-shop/pkg/httputil"
	"github.com/Epi-Shop/epi-shop/pkg/middleware"
	"github.com/Epi-Shop/epi-shop/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints. All routes require
// an authenticated user; the user ID comes from the request context.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddCartItemRequest is the JSON request body for adding an item to the cart.
type AddCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// UpdateCartLineRequest is the JSON request body for changing a line quantity.
type UpdateCartLineRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
// @Summary Get the authenticated user's cart
// @Description Returns cart lines with current item prices and totals
// @Tags cart
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/cart [get]
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// AddItem handles POST /api/v1/cart/items/{itemID}
// @Summary Add an item to the cart
// @Description Adds the item, merging quantities with any existing line
// @Tags cart
// @Accept json
// @Produce json
// @Param itemID path string true "Item UUID"
// @Param request body AddCartItemRequest true "Quantity to add"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/cart/items/{itemID} [post]
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	itemID, ok := httputil.ParseUUID(w, chi.URLParam(r, "itemID"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	line, err := h.service.AddItem(r.Context(), userID, itemID.String(), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: line})
}

// UpdateLine handles PUT /api/v1/cart/items/{lineID}
// @Summary Replace a cart line's quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param lineID path string true "Cart line UUID"
// @Param request body UpdateCartLineRequest true "New quantity"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/cart/items/{lineID} [put]
func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	lineID, ok := httputil.ParseUUID(w, chi.URLParam(r, "lineID"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateCartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	line, err := h.service.UpdateQuantity(r.Context(), userID, lineID.String(), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: line})
}

// RemoveLine handles DELETE /api/v1/cart/items/{lineID}
// @Summary Remove a cart line
// @Tags cart
// @Produce json
// @Param lineID path string true "Cart line UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/cart/items/{lineID} [delete]
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	lineID, ok := httputil.ParseUUID(w, chi.URLParam(r, "lineID"))
	if !ok {
		return
	}

	if err := h.service.RemoveLine(r.Context(), userID, lineID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": lineID.String(), "status": "deleted"}})
}
