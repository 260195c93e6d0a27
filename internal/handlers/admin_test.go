package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/services"
)

func TestAdminHandlerTransitionStatus(t *testing.T) {
	orders := &stubOrderService{
		transitionFunc: func(_ context.Context, orderID, nextStatus string) (domain.Order, error) {
			if orderID != "order-1" || nextStatus != "PAID" {
				t.Fatalf("unexpected transition %q -> %q", orderID, nextStatus)
			}
			order := ownedOrder()
			order.Status = domain.OrderStatusPaid
			return order, nil
		},
	}
	h := NewAdminHandlers(nil, orders, &stubReturnService{}, &stubCatalogService{})

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/status", strings.NewReader(`{"status": "PAID"}`))
	req = withURLParam(req, "orderId", "order-1")
	rr := httptest.NewRecorder()

	h.transitionStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != domain.OrderStatusPaid {
		t.Fatalf("expected PAID, got %q", resp.Status)
	}
}

func TestAdminHandlerTransitionStatusErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "unknown status", err: fmt.Errorf("%w: %q", services.ErrOrderInvalidStatus, "SHIPPED"), status: http.StatusBadRequest, code: "unknown_status"},
		{name: "illegal transition", err: fmt.Errorf("%w: COMPLETED to PAID", services.ErrOrderIllegalTransition), status: http.StatusConflict, code: "illegal_transition"},
		{name: "unchanged", err: fmt.Errorf("%w: order order-1 is already PAID", services.ErrOrderUnchanged), status: http.StatusConflict, code: "status_unchanged"},
		{name: "not found", err: fmt.Errorf("%w: order order-1", services.ErrOrderNotFound), status: http.StatusNotFound, code: "order_not_found"},
		{name: "conflict", err: fmt.Errorf("%w: concurrent update", services.ErrOrderConflict), status: http.StatusConflict, code: "conflict"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &stubOrderService{
				transitionFunc: func(context.Context, string, string) (domain.Order, error) {
					return domain.Order{}, tc.err
				},
			}
			h := NewAdminHandlers(nil, orders, &stubReturnService{}, &stubCatalogService{})

			req := httptest.NewRequest(http.MethodPost, "/orders/order-1/status", strings.NewReader(`{"status": "PAID"}`))
			req = withURLParam(req, "orderId", "order-1")
			rr := httptest.NewRecorder()

			h.transitionStatus(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			var payload map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
				t.Fatalf("unmarshal error payload: %v", err)
			}
			if payload["error"] != tc.code {
				t.Fatalf("expected error code %q, got %v", tc.code, payload["error"])
			}
		})
	}
}

func TestAdminHandlerApproveReturn(t *testing.T) {
	decidedAt := time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)
	returns := &stubReturnService{
		approveFunc: func(_ context.Context, orderID string) (domain.Order, error) {
			order := ownedOrder()
			order.Status = domain.OrderStatusCancelled
			order.ReturnStatus = domain.ReturnStatusApproved
			order.RefundedAt = &decidedAt
			return order, nil
		},
	}
	h := NewAdminHandlers(nil, &stubOrderService{}, returns, &stubCatalogService{})

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/return/approve", nil)
	req = withURLParam(req, "orderId", "order-1")
	rr := httptest.NewRecorder()

	h.approveReturn(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != domain.OrderStatusCancelled || resp.ReturnStatus != domain.ReturnStatusApproved {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.RefundedAt == "" {
		t.Fatalf("expected refundedAt set")
	}
}

func TestAdminHandlerRejectReturnWrongState(t *testing.T) {
	returns := &stubReturnService{
		rejectFunc: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, fmt.Errorf("%w: no open request", services.ErrReturnWrongState)
		},
	}
	h := NewAdminHandlers(nil, &stubOrderService{}, returns, &stubCatalogService{})

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/return/reject", nil)
	req = withURLParam(req, "orderId", "order-1")
	rr := httptest.NewRecorder()

	h.rejectReturn(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAdminHandlerUpsertProduct(t *testing.T) {
	catalog := &stubCatalogService{
		upsertProductFunc: func(_ context.Context, product domain.Product) (domain.Product, error) {
			if product.Name != "Linen Shirt" || product.Price != 350000 {
				t.Fatalf("unexpected product %+v", product)
			}
			if !product.Active {
				t.Fatalf("expected product active by default")
			}
			product.ID = "prod-1"
			return product, nil
		},
	}
	h := NewAdminHandlers(nil, &stubOrderService{}, &stubReturnService{}, catalog)

	body := `{"name": "Linen Shirt", "price": 350000, "stock": 10, "categoryId": "cat-1"}`
	req := httptest.NewRequest(http.MethodPut, "/products", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.upsertProduct(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp productResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ID != "prod-1" {
		t.Fatalf("expected minted id, got %q", resp.ID)
	}
}

func TestAdminHandlerUpsertCategory(t *testing.T) {
	catalog := &stubCatalogService{
		upsertCategoryFunc: func(_ context.Context, category domain.Category) (domain.Category, error) {
			if category.Name != "Shirts" || category.TaxRate != 0.10 {
				t.Fatalf("unexpected category %+v", category)
			}
			category.ID = "cat-1"
			return category, nil
		},
	}
	h := NewAdminHandlers(nil, &stubOrderService{}, &stubReturnService{}, catalog)

	body := `{"name": "Shirts", "taxRate": 0.10}`
	req := httptest.NewRequest(http.MethodPut, "/categories", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.upsertCategory(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}
