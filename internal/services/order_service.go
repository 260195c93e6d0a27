package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/repositories"
)

// Order failure sentinels, matched by the HTTP layer via errors.Is.
var (
	ErrOrderInvalidInput      = errors.New("orders: invalid input")
	ErrOrderNotFound          = errors.New("orders: order not found")
	ErrOrderInvalidStatus     = errors.New("orders: unknown status")
	ErrOrderUnchanged         = errors.New("orders: status unchanged")
	ErrOrderIllegalTransition = errors.New("orders: illegal status transition")
	ErrOrderConflict          = errors.New("orders: order modified concurrently")
)

// OrderServiceDeps wires the order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  Clock
	Logger Logger
}

type orderService struct {
	orders repositories.OrderRepository
	clock  Clock
	logger Logger
}

// NewOrderService constructs the order service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service requires order repository")
	}
	svc := &orderService{orders: deps.Orders, clock: deps.Clock, logger: deps.Logger}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	if svc.logger == nil {
		svc.logger = noopLogger
	}
	return svc, nil
}

// TransitionStatus validates the requested move against the status table and
// persists it. The repository re-checks the current status inside its
// transaction, so a concurrent transition surfaces as ErrOrderConflict.
func (s *orderService) TransitionStatus(ctx context.Context, orderID, nextStatus string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	next := domain.NormalizeOrderStatus(nextStatus)
	if !domain.IsKnownOrderStatus(next) {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrOrderInvalidStatus, nextStatus)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, mapOrderRepositoryError(err)
	}
	if order.Status == next {
		return domain.Order{}, fmt.Errorf("%w: order %s is already %s", ErrOrderUnchanged, orderID, next)
	}
	if !domain.CanTransitionOrderStatus(order.Status, next) {
		return domain.Order{}, fmt.Errorf("%w: %s to %s", ErrOrderIllegalTransition, order.Status, next)
	}

	updated, err := s.orders.UpdateStatus(ctx, repositories.StatusUpdateRequest{
		OrderID:        orderID,
		ExpectedStatus: order.Status,
		NextStatus:     next,
		Now:            s.clock().UTC(),
	})
	if err != nil {
		return domain.Order{}, mapOrderRepositoryError(err)
	}

	s.logger(ctx, "orders.status_transitioned", map[string]any{
		"order_id": orderID,
		"from":     order.Status,
		"to":       next,
	})
	return updated, nil
}

// GetOrder loads an order with its line snapshots.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, mapOrderRepositoryError(err)
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	orders, err := s.orders.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, mapOrderRepositoryError(err)
	}
	return orders, nil
}

// GetInvoice returns the immutable monetary and line snapshot captured at
// checkout. Nothing is recomputed from live catalog data.
func (s *orderService) GetInvoice(ctx context.Context, orderID string) (domain.Order, error) {
	return s.GetOrder(ctx, orderID)
}

func mapOrderRepositoryError(err error) error {
	var orderErr *repositories.OrderError
	if errors.As(err, &orderErr) {
		switch orderErr.Code {
		case repositories.OrderErrorNotFound:
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderErr.Message)
		case repositories.OrderErrorConflict:
			return fmt.Errorf("%w: %s", ErrOrderConflict, orderErr.Message)
		case repositories.OrderErrorInvalidInput:
			return fmt.Errorf("%w: %s", ErrOrderInvalidInput, orderErr.Message)
		}
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		}
		if repoErr.IsConflict() {
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		}
	}
	return err
}
