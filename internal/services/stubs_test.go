package services

import (
	"context"
	"time"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/repositories"
)

type stubOrderRepository struct {
	placeFunc  func(ctx context.Context, req repositories.PlaceOrderRequest) (domain.Order, error)
	findFunc   func(ctx context.Context, orderID string) (domain.Order, error)
	listFunc   func(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	updateFunc func(ctx context.Context, req repositories.StatusUpdateRequest) (domain.Order, error)
}

func (s *stubOrderRepository) PlaceOrder(ctx context.Context, req repositories.PlaceOrderRequest) (domain.Order, error) {
	if s.placeFunc == nil {
		panic("unexpected PlaceOrder call")
	}
	return s.placeFunc(ctx, req)
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFunc == nil {
		panic("unexpected FindByID call")
	}
	return s.findFunc(ctx, orderID)
}

func (s *stubOrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if s.listFunc == nil {
		panic("unexpected ListByUser call")
	}
	return s.listFunc(ctx, userID, limit)
}

func (s *stubOrderRepository) UpdateStatus(ctx context.Context, req repositories.StatusUpdateRequest) (domain.Order, error) {
	if s.updateFunc == nil {
		panic("unexpected UpdateStatus call")
	}
	return s.updateFunc(ctx, req)
}

type stubReturnRepository struct {
	submitFunc  func(ctx context.Context, req repositories.SubmitReturnRequest) (domain.ReturnRequest, error)
	findFunc    func(ctx context.Context, orderID string) (domain.ReturnRequest, error)
	approveFunc func(ctx context.Context, orderID string, now time.Time) (domain.Order, error)
	rejectFunc  func(ctx context.Context, orderID string, now time.Time) (domain.Order, error)
}

func (s *stubReturnRepository) Submit(ctx context.Context, req repositories.SubmitReturnRequest) (domain.ReturnRequest, error) {
	if s.submitFunc == nil {
		panic("unexpected Submit call")
	}
	return s.submitFunc(ctx, req)
}

func (s *stubReturnRepository) FindByOrder(ctx context.Context, orderID string) (domain.ReturnRequest, error) {
	if s.findFunc == nil {
		panic("unexpected FindByOrder call")
	}
	return s.findFunc(ctx, orderID)
}

func (s *stubReturnRepository) Approve(ctx context.Context, orderID string, now time.Time) (domain.Order, error) {
	if s.approveFunc == nil {
		panic("unexpected Approve call")
	}
	return s.approveFunc(ctx, orderID, now)
}

func (s *stubReturnRepository) Reject(ctx context.Context, orderID string, now time.Time) (domain.Order, error) {
	if s.rejectFunc == nil {
		panic("unexpected Reject call")
	}
	return s.rejectFunc(ctx, orderID, now)
}

type stubCatalogRepository struct {
	getProductFunc     func(ctx context.Context, productID string) (domain.Product, error)
	listProductsFunc   func(ctx context.Context, limit int) ([]domain.Product, error)
	getCategoryFunc    func(ctx context.Context, categoryID string) (domain.Category, error)
	upsertProductFunc  func(ctx context.Context, product domain.Product) (domain.Product, error)
	upsertCategoryFunc func(ctx context.Context, category domain.Category) (domain.Category, error)
}

func (s *stubCatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getProductFunc == nil {
		panic("unexpected GetProduct call")
	}
	return s.getProductFunc(ctx, productID)
}

func (s *stubCatalogRepository) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if s.listProductsFunc == nil {
		panic("unexpected ListProducts call")
	}
	return s.listProductsFunc(ctx, limit)
}

func (s *stubCatalogRepository) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	if s.getCategoryFunc == nil {
		panic("unexpected GetCategory call")
	}
	return s.getCategoryFunc(ctx, categoryID)
}

func (s *stubCatalogRepository) UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.upsertProductFunc == nil {
		panic("unexpected UpsertProduct call")
	}
	return s.upsertProductFunc(ctx, product)
}

func (s *stubCatalogRepository) UpsertCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	if s.upsertCategoryFunc == nil {
		panic("unexpected UpsertCategory call")
	}
	return s.upsertCategoryFunc(ctx, category)
}

type stubCounterRepository struct {
	nextFunc func(ctx context.Context, counterID string) (int64, error)
}

func (s *stubCounterRepository) Next(ctx context.Context, counterID string) (int64, error) {
	if s.nextFunc == nil {
		panic("unexpected Next call")
	}
	return s.nextFunc(ctx, counterID)
}

type stubNotificationSender struct {
	sendFunc func(ctx context.Context, msg OrderConfirmation) error
}

func (s *stubNotificationSender) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error {
	if s.sendFunc == nil {
		return nil
	}
	return s.sendFunc(ctx, msg)
}

type stubMediaStore struct {
	saveFunc func(ctx context.Context, orderID, requestID string, files []MediaFile) ([]string, error)
}

func (s *stubMediaStore) Save(ctx context.Context, orderID, requestID string, files []MediaFile) ([]string, error) {
	if s.saveFunc == nil {
		panic("unexpected Save call")
	}
	return s.saveFunc(ctx, orderID, requestID, files)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func sequentialIDs(ids ...string) IDGenerator {
	i := 0
	return func() string {
		if i >= len(ids) {
			panic("id generator exhausted")
		}
		id := ids[i]
		i++
		return id
	}
}
