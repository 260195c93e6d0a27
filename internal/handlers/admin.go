package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/platform/auth"
	"github.com/chung140204/storefront-api/internal/platform/httpx"
	"github.com/chung140204/storefront-api/internal/services"
)

const maxAdminRequestBody = 16 * 1024

// AdminHandlers exposes order status management, return decisions, and
// catalog seeding for staff and admin roles.
type AdminHandlers struct {
	authn   *auth.Authenticator
	orders  services.OrderService
	returns services.ReturnService
	catalog services.CatalogService
}

// NewAdminHandlers constructs admin handlers guarded by role checks.
func NewAdminHandlers(authn *auth.Authenticator, orders services.OrderService, returns services.ReturnService, catalog services.CatalogService) *AdminHandlers {
	return &AdminHandlers{
		authn:   authn,
		orders:  orders,
		returns: returns,
		catalog: catalog,
	}
}

// Routes registers admin endpoints under the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	group := r
	if h.authn != nil {
		group = group.With(h.authn.RequireAuth(auth.RoleStaff, auth.RoleAdmin))
	}
	group.Post("/orders/{orderId}/status", h.transitionStatus)
	group.Post("/orders/{orderId}/return/approve", h.approveReturn)
	group.Post("/orders/{orderId}/return/reject", h.rejectReturn)
	group.Get("/orders/{orderId}", h.getOrder)
	group.Put("/products", h.upsertProduct)
	group.Put("/categories", h.upsertCategory)
}

type statusTransitionRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandlers) transitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req statusTransitionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	order, err := h.orders.TransitionStatus(ctx, strings.TrimSpace(chi.URLParam(r, "orderId")), req.Status)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandlers) approveReturn(w http.ResponseWriter, r *http.Request) {
	h.decideReturn(w, r, true)
}

func (h *AdminHandlers) rejectReturn(w http.ResponseWriter, r *http.Request) {
	h.decideReturn(w, r, false)
}

func (h *AdminHandlers) decideReturn(w http.ResponseWriter, r *http.Request, approve bool) {
	ctx := r.Context()
	if h.returns == nil {
		httpx.WriteError(ctx, w, httpx.NewError("returns_unavailable", "return service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	var (
		order domain.Order
		err   error
	)
	if approve {
		order, err = h.returns.Approve(ctx, orderID)
	} else {
		order, err = h.returns.Reject(ctx, orderID)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.GetOrder(ctx, strings.TrimSpace(chi.URLParam(r, "orderId")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

type upsertProductRequest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
	CategoryID string  `json:"categoryId"`
	Active     *bool   `json:"active"`
}

func (h *AdminHandlers) upsertProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req upsertProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	product, err := h.catalog.UpsertProduct(ctx, domain.Product{
		ID:         req.ID,
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
		CategoryID: req.CategoryID,
		Active:     active,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toProductResponse(product))
}

type upsertCategoryRequest struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	TaxRate float64 `json:"taxRate"`
}

func (h *AdminHandlers) upsertCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req upsertCategoryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	category, err := h.catalog.UpsertCategory(ctx, domain.Category{
		ID:      req.ID,
		Name:    req.Name,
		TaxRate: req.TaxRate,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toCategoryResponse(category))
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
}
