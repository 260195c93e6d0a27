package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/repositories"
)

// Return workflow sentinels, matched by the HTTP layer via errors.Is.
var (
	ErrReturnInvalidInput     = errors.New("returns: invalid input")
	ErrReturnOrderNotFound    = errors.New("returns: order not found")
	ErrReturnNotFound         = errors.New("returns: return request not found")
	ErrReturnForbidden        = errors.New("returns: order does not belong to user")
	ErrReturnIneligible       = errors.New("returns: order is not completed")
	ErrReturnAlreadyProcessed = errors.New("returns: return already requested")
	ErrReturnWindowExpired    = errors.New("returns: return window has expired")
	ErrReturnWrongState       = errors.New("returns: return request is not awaiting review")
)

const defaultReturnWindow = 7 * 24 * time.Hour

// ReturnServiceDeps wires the return workflow.
type ReturnServiceDeps struct {
	Orders      repositories.OrderRepository
	Returns     repositories.ReturnRepository
	Media       MediaStore
	Window      time.Duration
	Clock       Clock
	IDGenerator IDGenerator
	Logger      Logger
}

type returnService struct {
	orders    repositories.OrderRepository
	returns   repositories.ReturnRepository
	media     MediaStore
	window    time.Duration
	clock     Clock
	idGen     IDGenerator
	logger    Logger
	sanitizer *bluemonday.Policy
}

// NewReturnService constructs the return workflow service.
func NewReturnService(deps ReturnServiceDeps) (ReturnService, error) {
	if deps.Orders == nil {
		return nil, errors.New("return service requires order repository")
	}
	if deps.Returns == nil {
		return nil, errors.New("return service requires return repository")
	}
	svc := &returnService{
		orders:    deps.Orders,
		returns:   deps.Returns,
		media:     deps.Media,
		window:    deps.Window,
		clock:     deps.Clock,
		idGen:     deps.IDGenerator,
		logger:    deps.Logger,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if svc.window <= 0 {
		svc.window = defaultReturnWindow
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

// Submit validates eligibility and records the return request. Checks run in
// the documented order: existence, ownership, completed status, the NONE
// gate, the submission window, then the reason. The submission instant
// exactly at the window boundary is still accepted.
func (s *returnService) Submit(ctx context.Context, cmd SubmitReturnCommand) (domain.ReturnRequest, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	userID := strings.TrimSpace(cmd.UserID)
	if orderID == "" {
		return domain.ReturnRequest{}, fmt.Errorf("%w: order id is required", ErrReturnInvalidInput)
	}
	if userID == "" {
		return domain.ReturnRequest{}, fmt.Errorf("%w: user id is required", ErrReturnInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.ReturnRequest{}, s.translateReturnError(err)
	}
	if order.UserID != userID {
		return domain.ReturnRequest{}, fmt.Errorf("%w: order %s", ErrReturnForbidden, orderID)
	}
	if order.Status != domain.OrderStatusCompleted {
		return domain.ReturnRequest{}, fmt.Errorf("%w: order %s is %s", ErrReturnIneligible, orderID, order.Status)
	}
	if order.ReturnStatus != domain.ReturnStatusNone {
		return domain.ReturnRequest{}, fmt.Errorf("%w: order %s return status is %s", ErrReturnAlreadyProcessed, orderID, order.ReturnStatus)
	}

	anchor := order.CreatedAt
	if order.CompletedAt != nil {
		anchor = *order.CompletedAt
	}
	deadline := anchor.Add(s.window)
	now := s.clock().UTC()
	if now.After(deadline) {
		return domain.ReturnRequest{}, fmt.Errorf("%w: deadline was %s", ErrReturnWindowExpired, deadline.UTC().Format(time.RFC3339))
	}

	reason := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Reason))
	if reason == "" {
		return domain.ReturnRequest{}, fmt.Errorf("%w: reason is required", ErrReturnInvalidInput)
	}

	requestID := s.idGen()
	var mediaRefs []string
	if len(cmd.Photos) > 0 {
		if s.media == nil {
			return domain.ReturnRequest{}, errors.New("returns: media store not configured")
		}
		mediaRefs, err = s.media.Save(ctx, orderID, requestID, cmd.Photos)
		if err != nil {
			return domain.ReturnRequest{}, fmt.Errorf("returns: store media: %w", err)
		}
	}

	request, err := s.returns.Submit(ctx, repositories.SubmitReturnRequest{
		RequestID: requestID,
		OrderID:   orderID,
		UserID:    userID,
		Reason:    reason,
		MediaRefs: mediaRefs,
		Now:       now,
	})
	if err != nil {
		return domain.ReturnRequest{}, s.translateReturnError(err)
	}

	s.logger(ctx, "returns.submitted", map[string]any{
		"order_id":   orderID,
		"request_id": request.ID,
		"user_id":    userID,
	})
	return request, nil
}

// Approve cancels the order, stamps the refund time, and restores stock for
// every line, all in one repository transaction.
func (s *returnService) Approve(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrReturnInvalidInput)
	}
	order, err := s.returns.Approve(ctx, orderID, s.clock().UTC())
	if err != nil {
		return domain.Order{}, s.translateReturnError(err)
	}
	s.logger(ctx, "returns.approved", map[string]any{"order_id": orderID})
	return order, nil
}

// Reject records the decision without touching order status or stock.
func (s *returnService) Reject(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrReturnInvalidInput)
	}
	order, err := s.returns.Reject(ctx, orderID, s.clock().UTC())
	if err != nil {
		return domain.Order{}, s.translateReturnError(err)
	}
	s.logger(ctx, "returns.rejected", map[string]any{"order_id": orderID})
	return order, nil
}

// GetByOrder loads the most recent return request for the order.
func (s *returnService) GetByOrder(ctx context.Context, orderID string) (domain.ReturnRequest, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.ReturnRequest{}, fmt.Errorf("%w: order id is required", ErrReturnInvalidInput)
	}
	request, err := s.returns.FindByOrder(ctx, orderID)
	if err != nil {
		var orderErr *repositories.OrderError
		if errors.As(err, &orderErr) && orderErr.Code == repositories.OrderErrorNotFound {
			return domain.ReturnRequest{}, fmt.Errorf("%w: order %s", ErrReturnNotFound, orderID)
		}
		return domain.ReturnRequest{}, err
	}
	return request, nil
}

func (s *returnService) translateReturnError(err error) error {
	var orderErr *repositories.OrderError
	if errors.As(err, &orderErr) {
		switch orderErr.Code {
		case repositories.OrderErrorNotFound:
			return fmt.Errorf("%w: %s", ErrReturnOrderNotFound, orderErr.Message)
		case repositories.OrderErrorInvalidInput:
			return fmt.Errorf("%w: %s", ErrReturnInvalidInput, orderErr.Message)
		case repositories.OrderErrorInvalidState:
			return fmt.Errorf("%w: %s", ErrReturnWrongState, orderErr.Message)
		}
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrReturnOrderNotFound, err)
	}
	return err
}
