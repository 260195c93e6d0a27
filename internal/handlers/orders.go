package handlers

import (
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

const (
	defaultOrderListLimit = 20
	maxReturnRequestBody  = 8 * 1024 * 1024
	maxReturnPhotoCount   = 5
	maxReturnPhotoSize    = 2 * 1024 * 1024
)

// OrderHandlers exposes order reads and the return workflow for the order's
// owner.
type OrderHandlers struct {
	authn   *auth.Authenticator
	orders  services.OrderService
	returns services.ReturnService
}

// NewOrderHandlers constructs order handlers guarded by Firebase
// authentication.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, returns services.ReturnService) *OrderHandlers {
	return &OrderHandlers{
		authn:   authn,
		orders:  orders,
		returns: returns,
	}
}

// Routes registers order endpoints under the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	group := r
	if h.authn != nil {
		group = group.With(h.authn.RequireAuth())
	}
	group.Get("/", h.listOrders)
	group.Get("/{orderId}", h.getOrder)
	group.Get("/{orderId}/invoice", h.getInvoice)
	group.Post("/{orderId}/return", h.submitReturn)
	group.Get("/{orderId}/return", h.getReturn)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orders, err := h.orders.ListOrders(ctx, identity.UID, queryLimit(r, defaultOrderListLimit))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, toOrderResponse(order))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

// getInvoice returns the monetary snapshot captured at checkout, rendered as
// an invoice document.
func (h *OrderHandlers) getInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	order, err := h.orders.GetInvoice(ctx, orderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if order.UserID != identity.UID && !identity.HasAnyRole(auth.RoleStaff, auth.RoleAdmin) {
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "order does not belong to user", http.StatusForbidden))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"invoiceNumber": order.Number,
		"issuedAt":      formatTime(order.CreatedAt),
		"customer":      toOrderResponse(order).Customer,
		"lines":         toOrderResponse(order).Lines,
		"subtotal":      order.Subtotal,
		"voucherCode":   order.VoucherCode,
		"discount":      order.VoucherDiscount,
		"totalVat":      order.TotalVAT,
		"totalAmount":   order.TotalAmount,
	})
}

type submitReturnRequest struct {
	Reason string               `json:"reason"`
	Photos []returnPhotoPayload `json:"photos"`
}

type returnPhotoPayload struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

func (h *OrderHandlers) submitReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	if h.returns == nil {
		httpx.WriteError(ctx, w, httpx.NewError("returns_unavailable", "return service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxReturnRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req submitReturnRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if len(req.Photos) > maxReturnPhotoCount {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "too many photos", http.StatusBadRequest))
		return
	}

	photos := make([]services.MediaFile, 0, len(req.Photos))
	for _, photo := range req.Photos {
		if int64(len(photo.Data)) > maxReturnPhotoSize {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "photo exceeds size limit", http.StatusBadRequest))
			return
		}
		photos = append(photos, services.MediaFile{
			Name:        photo.Name,
			ContentType: photo.ContentType,
			Data:        photo.Data,
		})
	}

	request, err := h.returns.Submit(ctx, services.SubmitReturnCommand{
		OrderID: strings.TrimSpace(chi.URLParam(r, "orderId")),
		UserID:  identity.UID,
		Reason:  req.Reason,
		Photos:  photos,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toReturnRequestResponse(request))
}

func (h *OrderHandlers) getReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	if h.returns == nil {
		httpx.WriteError(ctx, w, httpx.NewError("returns_unavailable", "return service unavailable", http.StatusServiceUnavailable))
		return
	}

	request, err := h.returns.GetByOrder(ctx, strings.TrimSpace(chi.URLParam(r, "orderId")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if request.UserID != identity.UID && !identity.HasAnyRole(auth.RoleStaff, auth.RoleAdmin) {
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "return request does not belong to user", http.StatusForbidden))
		return
	}
	writeJSONResponse(w, http.StatusOK, toReturnRequestResponse(request))
}

func (h *OrderHandlers) loadOwnedOrder(w http.ResponseWriter, r *http.Request) (domain.Order, bool) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return domain.Order{}, false
	}
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return domain.Order{}, false
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return domain.Order{}, false
	}
	if order.UserID != identity.UID && !identity.HasAnyRole(auth.RoleStaff, auth.RoleAdmin) {
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "order does not belong to user", http.StatusForbidden))
		return domain.Order{}, false
	}
	return order, true
}
