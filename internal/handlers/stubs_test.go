package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/platform/auth"
	"github.com/chung140204/storefront-api/internal/services"
)

type stubCheckoutService struct {
	checkoutFunc func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
	if s.checkoutFunc == nil {
		panic("unexpected Checkout call")
	}
	return s.checkoutFunc(ctx, cmd)
}

type stubOrderService struct {
	transitionFunc func(ctx context.Context, orderID, nextStatus string) (domain.Order, error)
	getFunc        func(ctx context.Context, orderID string) (domain.Order, error)
	listFunc       func(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	invoiceFunc    func(ctx context.Context, orderID string) (domain.Order, error)
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, orderID, nextStatus string) (domain.Order, error) {
	if s.transitionFunc == nil {
		panic("unexpected TransitionStatus call")
	}
	return s.transitionFunc(ctx, orderID, nextStatus)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFunc == nil {
		panic("unexpected GetOrder call")
	}
	return s.getFunc(ctx, orderID)
}

func (s *stubOrderService) ListOrders(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if s.listFunc == nil {
		panic("unexpected ListOrders call")
	}
	return s.listFunc(ctx, userID, limit)
}

func (s *stubOrderService) GetInvoice(ctx context.Context, orderID string) (domain.Order, error) {
	if s.invoiceFunc == nil {
		panic("unexpected GetInvoice call")
	}
	return s.invoiceFunc(ctx, orderID)
}

type stubReturnService struct {
	submitFunc  func(ctx context.Context, cmd services.SubmitReturnCommand) (domain.ReturnRequest, error)
	approveFunc func(ctx context.Context, orderID string) (domain.Order, error)
	rejectFunc  func(ctx context.Context, orderID string) (domain.Order, error)
	getFunc     func(ctx context.Context, orderID string) (domain.ReturnRequest, error)
}

func (s *stubReturnService) Submit(ctx context.Context, cmd services.SubmitReturnCommand) (domain.ReturnRequest, error) {
	if s.submitFunc == nil {
		panic("unexpected Submit call")
	}
	return s.submitFunc(ctx, cmd)
}

func (s *stubReturnService) Approve(ctx context.Context, orderID string) (domain.Order, error) {
	if s.approveFunc == nil {
		panic("unexpected Approve call")
	}
	return s.approveFunc(ctx, orderID)
}

func (s *stubReturnService) Reject(ctx context.Context, orderID string) (domain.Order, error) {
	if s.rejectFunc == nil {
		panic("unexpected Reject call")
	}
	return s.rejectFunc(ctx, orderID)
}

func (s *stubReturnService) GetByOrder(ctx context.Context, orderID string) (domain.ReturnRequest, error) {
	if s.getFunc == nil {
		panic("unexpected GetByOrder call")
	}
	return s.getFunc(ctx, orderID)
}

type stubCatalogService struct {
	getProductFunc     func(ctx context.Context, productID string) (domain.Product, error)
	listProductsFunc   func(ctx context.Context, limit int) ([]domain.Product, error)
	upsertProductFunc  func(ctx context.Context, product domain.Product) (domain.Product, error)
	upsertCategoryFunc func(ctx context.Context, category domain.Category) (domain.Category, error)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getProductFunc == nil {
		panic("unexpected GetProduct call")
	}
	return s.getProductFunc(ctx, productID)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if s.listProductsFunc == nil {
		panic("unexpected ListProducts call")
	}
	return s.listProductsFunc(ctx, limit)
}

func (s *stubCatalogService) UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.upsertProductFunc == nil {
		panic("unexpected UpsertProduct call")
	}
	return s.upsertProductFunc(ctx, product)
}

func (s *stubCatalogService) UpsertCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	if s.upsertCategoryFunc == nil {
		panic("unexpected UpsertCategory call")
	}
	return s.upsertCategoryFunc(ctx, category)
}

func withIdentity(r *http.Request, uid string, roles ...string) *http.Request {
	identity := &auth.Identity{UID: uid, Roles: roles}
	return r.WithContext(auth.WithIdentity(r.Context(), identity))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	if existing := chi.RouteContext(r.Context()); existing != nil {
		rctx = existing
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
