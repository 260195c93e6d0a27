package repositories

import (
	"context"
	"time"

	"github.com/chung140204/storefront-api/internal/domain"
)

// RepositoryError allows callers to classify storage failures without
// depending on a concrete backend or matching message strings.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CheckoutItem identifies one requested product with its optional variant.
type CheckoutItem struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// QuoteFunc prices the resolved lines. It is supplied by the service layer and
// invoked inside the placement transaction against live catalog reads.
type QuoteFunc func(lines []domain.PricingLine, voucherCode string) (domain.PricingResult, error)

// PlaceOrderRequest captures everything needed to persist a checkout as one
// atomic unit: the order, its lines, and the stock decrements.
type PlaceOrderRequest struct {
	OrderID     string
	OrderNumber string
	UserID      string
	Customer    domain.CustomerInfo
	Items       []CheckoutItem
	VoucherCode string
	Quote       QuoteFunc
	Now         time.Time
}

// StatusUpdateRequest applies a validated status transition. ExpectedStatus
// guards against concurrent transitions; a mismatch fails with a conflict.
type StatusUpdateRequest struct {
	OrderID        string
	ExpectedStatus string
	NextStatus     string
	Now            time.Time
}

// OrderRepository persists orders and their line snapshots.
type OrderRepository interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, req StatusUpdateRequest) (domain.Order, error)
}

// SubmitReturnRequest records a new return request and flips the order's
// return status to REQUESTED in the same transaction.
type SubmitReturnRequest struct {
	RequestID string
	OrderID   string
	UserID    string
	Reason    string
	MediaRefs []string
	Now       time.Time
}

// ReturnRepository persists return requests and applies admin decisions.
// Approve restores stock for every order line and cancels the order in one
// transaction; Reject only records the decision.
type ReturnRepository interface {
	Submit(ctx context.Context, req SubmitReturnRequest) (domain.ReturnRequest, error)
	FindByOrder(ctx context.Context, orderID string) (domain.ReturnRequest, error)
	Approve(ctx context.Context, orderID string, now time.Time) (domain.Order, error)
	Reject(ctx context.Context, orderID string, now time.Time) (domain.Order, error)
}

// CatalogRepository provides product and category access for checkout reads
// and the admin seeding endpoints.
type CatalogRepository interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
	GetCategory(ctx context.Context, categoryID string) (domain.Category, error)
	UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpsertCategory(ctx context.Context, category domain.Category) (domain.Category, error)
}

// CounterRepository issues monotonically increasing sequence values, used for
// human-facing order numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string) (int64, error)
}
