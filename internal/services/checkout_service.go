package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/chung140204/storefront-api/internal/repositories"
)

// Checkout failure sentinels, matched by the HTTP layer via errors.Is.
var (
	ErrCheckoutInvalidInput      = errors.New("checkout: invalid input")
	ErrCheckoutProductNotFound   = errors.New("checkout: product not found")
	ErrCheckoutInsufficientStock = errors.New("checkout: insufficient stock")
	ErrCheckoutUnavailable       = errors.New("checkout: service unavailable")
)

const orderNumberPrefix = "SF"

// CheckoutServiceDeps wires the checkout orchestrator.
type CheckoutServiceDeps struct {
	Orders        repositories.OrderRepository
	Counters      repositories.CounterRepository
	Pricing       PricingEngine
	Notifications NotificationSender
	Clock         Clock
	IDGenerator   IDGenerator
	Logger        Logger
}

type checkoutService struct {
	orders        repositories.OrderRepository
	counters      repositories.CounterRepository
	pricing       PricingEngine
	notifications NotificationSender
	clock         Clock
	idGen         IDGenerator
	logger        Logger
}

// NewCheckoutService constructs the checkout service.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Orders == nil {
		return nil, errors.New("checkout service requires order repository")
	}
	if deps.Counters == nil {
		return nil, errors.New("checkout service requires counter repository")
	}
	if deps.Pricing == nil {
		return nil, errors.New("checkout service requires pricing engine")
	}
	svc := &checkoutService{
		orders:        deps.Orders,
		counters:      deps.Counters,
		pricing:       deps.Pricing,
		notifications: deps.Notifications,
		clock:         deps.Clock,
		idGen:         deps.IDGenerator,
		logger:        deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	if svc.idGen == nil {
		svc.idGen = NewULIDGenerator()
	}
	if svc.logger == nil {
		svc.logger = noopLogger
	}
	return svc, nil
}

// Checkout validates the command, places the order atomically, and then
// dispatches the confirmation notification best-effort.
func (s *checkoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	if err := validateCheckoutCommand(cmd); err != nil {
		return CheckoutResult{}, err
	}

	now := s.clock().UTC()
	orderNumber, err := s.nextOrderNumber(ctx, now)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("allocate order number: %w", err)
	}

	items := make([]repositories.CheckoutItem, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		items = append(items, repositories.CheckoutItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
			Size:      strings.TrimSpace(item.Size),
			Color:     strings.TrimSpace(item.Color),
		})
	}

	order, err := s.orders.PlaceOrder(ctx, repositories.PlaceOrderRequest{
		OrderID:     s.idGen(),
		OrderNumber: orderNumber,
		UserID:      strings.TrimSpace(cmd.UserID),
		Customer:    cmd.Customer,
		Items:       items,
		VoucherCode: cmd.VoucherCode,
		Quote:       s.pricing.Quote,
		Now:         now,
	})
	if err != nil {
		return CheckoutResult{}, s.translateCheckoutError(err)
	}

	s.logger(ctx, "checkout.order_placed", map[string]any{
		"order_id":     order.ID,
		"order_number": order.Number,
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount,
	})

	s.notifyConfirmation(ctx, order.ID, order.Number, OrderConfirmation{
		OrderID:         order.ID,
		OrderNumber:     order.Number,
		UserID:          order.UserID,
		Customer:        order.Customer,
		Lines:           order.Lines,
		Subtotal:        order.Subtotal,
		VoucherCode:     order.VoucherCode,
		VoucherDiscount: order.VoucherDiscount,
		TotalVAT:        order.TotalVAT,
		TotalAmount:     order.TotalAmount,
	})

	return CheckoutResult{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		TotalAmount: order.TotalAmount,
	}, nil
}

func (s *checkoutService) nextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, fmt.Sprintf("orders-%04d", now.Year()))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d-%06d", orderNumberPrefix, now.Year(), seq), nil
}

// notifyConfirmation dispatches the post-commit notification. Failures are
// logged and swallowed; they never fail the checkout.
func (s *checkoutService) notifyConfirmation(ctx context.Context, orderID, orderNumber string, msg OrderConfirmation) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.SendOrderConfirmation(ctx, msg); err != nil {
		s.logger(ctx, "checkout.notification_failed", map[string]any{
			"order_id":     orderID,
			"order_number": orderNumber,
			"error":        err.Error(),
		})
	}
}

func (s *checkoutService) translateCheckoutError(err error) error {
	if errors.Is(err, ErrPricingInvalidInput) {
		return fmt.Errorf("%w: %v", ErrCheckoutInvalidInput, err)
	}

	var orderErr *repositories.OrderError
	if errors.As(err, &orderErr) {
		switch orderErr.Code {
		case repositories.OrderErrorInvalidInput:
			return fmt.Errorf("%w: %s", ErrCheckoutInvalidInput, orderErr.Message)
		case repositories.OrderErrorProductNotFound:
			return fmt.Errorf("%w: %s", ErrCheckoutProductNotFound, orderErr.Message)
		case repositories.OrderErrorInsufficientStock:
			return fmt.Errorf("%w: %s", ErrCheckoutInsufficientStock, orderErr.Message)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
		return fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}
	return fmt.Errorf("checkout: %w", err)
}

// validateCheckoutCommand fails fast before any storage work starts.
func validateCheckoutCommand(cmd CheckoutCommand) error {
	if strings.TrimSpace(cmd.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrCheckoutInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrCheckoutInvalidInput)
	}
	for i, item := range cmd.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: item %d is missing a product id", ErrCheckoutInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrCheckoutInvalidInput, i)
		}
	}
	if strings.TrimSpace(cmd.Customer.Name) == "" {
		return fmt.Errorf("%w: customer name is required", ErrCheckoutInvalidInput)
	}
	if strings.TrimSpace(cmd.Customer.Email) == "" {
		return fmt.Errorf("%w: customer email is required", ErrCheckoutInvalidInput)
	}
	if strings.TrimSpace(cmd.Customer.Address) == "" {
		return fmt.Errorf("%w: customer address is required", ErrCheckoutInvalidInput)
	}
	return nil
}

// NewULIDGenerator returns an IDGenerator producing lexicographically sortable
// ULIDs from a locked entropy source.
func NewULIDGenerator() IDGenerator {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String())
	}
}
