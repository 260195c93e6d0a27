package services

import (
	"context"
	"time"

	"github.com/chung140204/storefront-api/internal/domain"
)

// Clock supplies the current time; injected so tests control it.
type Clock func() time.Time

// IDGenerator mints document identifiers.
type IDGenerator func() string

// Logger emits a structured event with contextual fields.
type Logger func(ctx context.Context, event string, fields map[string]any)

// NotificationSender delivers order confirmations after a checkout commits.
// Failures are logged by the caller and never fail the checkout.
type NotificationSender interface {
	SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error
}

// OrderConfirmation is the payload handed to the notification collaborator.
type OrderConfirmation struct {
	OrderID         string
	OrderNumber     string
	UserID          string
	Customer        domain.CustomerInfo
	Lines           []domain.OrderLine
	Subtotal        float64
	VoucherCode     string
	VoucherDiscount float64
	TotalVAT        float64
	TotalAmount     float64
}

// MediaFile is an uploaded attachment for a return request.
type MediaFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// MediaStore persists return-request attachments and returns opaque
// references recorded on the request.
type MediaStore interface {
	Save(ctx context.Context, orderID, requestID string, files []MediaFile) ([]string, error)
}

// PricingEngine computes the monetary snapshot for a set of resolved lines.
type PricingEngine interface {
	Quote(lines []domain.PricingLine, voucherCode string) (domain.PricingResult, error)
}

// CheckoutItem is one requested product with its optional variant.
type CheckoutItem struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// CheckoutCommand carries everything needed to place an order.
type CheckoutCommand struct {
	UserID      string
	Items       []CheckoutItem
	Customer    domain.CustomerInfo
	VoucherCode string
}

// CheckoutResult identifies the placed order.
type CheckoutResult struct {
	OrderID     string
	OrderNumber string
	TotalAmount float64
}

// CheckoutService converts a cart into a durably persisted order.
type CheckoutService interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
}

// OrderService exposes order reads and the admin status machine.
type OrderService interface {
	TransitionStatus(ctx context.Context, orderID, nextStatus string) (domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	GetInvoice(ctx context.Context, orderID string) (domain.Order, error)
}

// SubmitReturnCommand carries a customer's return request.
type SubmitReturnCommand struct {
	OrderID string
	UserID  string
	Reason  string
	Photos  []MediaFile
}

// ReturnService handles the time-boxed return workflow.
type ReturnService interface {
	Submit(ctx context.Context, cmd SubmitReturnCommand) (domain.ReturnRequest, error)
	Approve(ctx context.Context, orderID string) (domain.Order, error)
	Reject(ctx context.Context, orderID string) (domain.Order, error)
	GetByOrder(ctx context.Context, orderID string) (domain.ReturnRequest, error)
}

// CatalogService exposes product reads and admin catalog management.
type CatalogService interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpsertCategory(ctx context.Context, category domain.Category) (domain.Category, error)
}

func defaultClock() time.Time { return time.Now().UTC() }

func noopLogger(context.Context, string, map[string]any) {}
