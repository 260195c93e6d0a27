package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/repositories"
)

func completedOrder(completedAt time.Time) domain.Order {
	createdAt := completedAt.Add(-48 * time.Hour)
	return domain.Order{
		ID:           "order-1",
		UserID:       "user-1",
		Status:       domain.OrderStatusCompleted,
		ReturnStatus: domain.ReturnStatusNone,
		CreatedAt:    createdAt,
		CompletedAt:  &completedAt,
	}
}

func newSubmitService(t *testing.T, order domain.Order, now time.Time, returns *stubReturnRepository) ReturnService {
	t.Helper()
	orders := &stubOrderRepository{
		findFunc: func(context.Context, string) (domain.Order, error) {
			return order, nil
		},
	}
	svc, err := NewReturnService(ReturnServiceDeps{
		Orders:      orders,
		Returns:     returns,
		Clock:       fixedClock(now),
		IDGenerator: sequentialIDs("req-1"),
	})
	if err != nil {
		t.Fatalf("NewReturnService: %v", err)
	}
	return svc
}

func TestReturnServiceSubmitWithinWindow(t *testing.T) {
	ctx := context.Background()
	completedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	now := completedAt.Add(3 * 24 * time.Hour)

	var submitted repositories.SubmitReturnRequest
	returns := &stubReturnRepository{
		submitFunc: func(_ context.Context, req repositories.SubmitReturnRequest) (domain.ReturnRequest, error) {
			submitted = req
			return domain.ReturnRequest{
				ID:        req.RequestID,
				OrderID:   req.OrderID,
				UserID:    req.UserID,
				Reason:    req.Reason,
				Status:    domain.ReturnStatusRequested,
				CreatedAt: req.Now,
			}, nil
		},
	}
	svc := newSubmitService(t, completedOrder(completedAt), now, returns)

	request, err := svc.Submit(ctx, SubmitReturnCommand{
		OrderID: "order-1",
		UserID:  "user-1",
		Reason:  "wrong size delivered",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if request.Status != domain.ReturnStatusRequested {
		t.Fatalf("expected REQUESTED, got %q", request.Status)
	}
	if submitted.RequestID != "req-1" || submitted.Reason != "wrong size delivered" {
		t.Fatalf("unexpected submit request %+v", submitted)
	}
	if !submitted.Now.Equal(now) {
		t.Fatalf("expected submit time %v, got %v", now, submitted.Now)
	}
}

func TestReturnServiceSubmitWindowBoundary(t *testing.T) {
	ctx := context.Background()
	completedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	returns := &stubReturnRepository{
		submitFunc: func(_ context.Context, req repositories.SubmitReturnRequest) (domain.ReturnRequest, error) {
			return domain.ReturnRequest{ID: req.RequestID, Status: domain.ReturnStatusRequested}, nil
		},
	}

	// Exactly at the deadline is still accepted.
	svc := newSubmitService(t, completedOrder(completedAt), completedAt.Add(7*24*time.Hour), returns)
	if _, err := svc.Submit(ctx, SubmitReturnCommand{OrderID: "order-1", UserID: "user-1", Reason: "damaged"}); err != nil {
		t.Fatalf("Submit at boundary: %v", err)
	}

	// One second past the deadline is rejected.
	svc = newSubmitService(t, completedOrder(completedAt), completedAt.Add(7*24*time.Hour+time.Second), returns)
	if _, err := svc.Submit(ctx, SubmitReturnCommand{OrderID: "order-1", UserID: "user-1", Reason: "damaged"}); !errors.Is(err, ErrReturnWindowExpired) {
		t.Fatalf("expected ErrReturnWindowExpired, got %v", err)
	}
}

func TestReturnServiceSubmitWindowFallsBackToCreatedAt(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	order := domain.Order{
		ID:           "order-1",
		UserID:       "user-1",
		Status:       domain.OrderStatusCompleted,
		ReturnStatus: domain.ReturnStatusNone,
		CreatedAt:    createdAt,
	}
	returns := &stubReturnRepository{}

	svc := newSubmitService(t, order, createdAt.Add(8*24*time.Hour), returns)
	if _, err := svc.Submit(ctx, SubmitReturnCommand{OrderID: "order-1", UserID: "user-1", Reason: "damaged"}); !errors.Is(err, ErrReturnWindowExpired) {
		t.Fatalf("expected ErrReturnWindowExpired from createdAt anchor, got %v", err)
	}
}

func TestReturnServiceSubmitEligibilityChecks(t *testing.T) {
	ctx := context.Background()
	completedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	now := completedAt.Add(time.Hour)

	cases := []struct {
		name     string
		order    domain.Order
		cmd      SubmitReturnCommand
		sentinel error
	}{
		{
			name:     "wrong owner",
			order:    completedOrder(completedAt),
			cmd:      SubmitReturnCommand{OrderID: "order-1", UserID: "user-2", Reason: "damaged"},
			sentinel: ErrReturnForbidden,
		},
		{
			name: "not completed",
			order: func() domain.Order {
				o := completedOrder(completedAt)
				o.Status = domain.OrderStatusPaid
				return o
			}(),
			cmd:      SubmitReturnCommand{OrderID: "order-1", UserID: "user-1", Reason: "damaged"},
			sentinel: ErrReturnIneligible,
		},
		{
			name: "already requested",
			order: func() domain.Order {
				o := completedOrder(completedAt)
				o.ReturnStatus = domain.ReturnStatusRequested
				return o
			}(),
			cmd:      SubmitReturnCommand{OrderID: "order-1", UserID: "user-1", Reason: "damaged"},
			sentinel: ErrReturnAlreadyProcessed,
		},
		{
			name: "already decided",
			order: func() domain.Order {
				o := completedOrder(completedAt)
				o.ReturnStatus = domain.ReturnStatusRejected
				return o
			}(),
			cmd:      SubmitReturnCommand{OrderID: "order-1", UserID: "user-1", Reason: "damaged"},
			sentinel: ErrReturnAlreadyProcessed,
		},
		{
			name:     "empty reason",
			order:    completedOrder(completedAt),
			cmd:      SubmitReturnCommand{OrderID: "order-1", UserID: "user-1", Reason: "   "},
			sentinel: ErrReturnInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newSubmitService(t, tc.order, now, &stubReturnRepository{})
			if _, err := svc.Submit(ctx, tc.cmd); !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected %v, got %v", tc.sentinel, err)
			}
		})
	}
}

func TestReturnServiceSubmitSanitizesReason(t *testing.T) {
	ctx := context.Background()
	completedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	var submitted repositories.SubmitReturnRequest
	returns := &stubReturnRepository{
		submitFunc: func(_ context.Context, req repositories.SubmitReturnRequest) (domain.ReturnRequest, error) {
			submitted = req
			return domain.ReturnRequest{ID: req.RequestID}, nil
		},
	}
	svc := newSubmitService(t, completedOrder(completedAt), completedAt.Add(time.Hour), returns)

	if _, err := svc.Submit(ctx, SubmitReturnCommand{
		OrderID: "order-1",
		UserID:  "user-1",
		Reason:  `<script>alert("x")</script>color faded after one wash`,
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Reason != "color faded after one wash" {
		t.Fatalf("expected sanitized reason, got %q", submitted.Reason)
	}
}

func TestReturnServiceSubmitStoresMedia(t *testing.T) {
	ctx := context.Background()
	completedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	var submitted repositories.SubmitReturnRequest
	returns := &stubReturnRepository{
		submitFunc: func(_ context.Context, req repositories.SubmitReturnRequest) (domain.ReturnRequest, error) {
			submitted = req
			return domain.ReturnRequest{ID: req.RequestID, MediaRefs: req.MediaRefs}, nil
		},
	}
	orders := &stubOrderRepository{
		findFunc: func(context.Context, string) (domain.Order, error) {
			return completedOrder(completedAt), nil
		},
	}
	media := &stubMediaStore{
		saveFunc: func(_ context.Context, orderID, requestID string, files []MediaFile) ([]string, error) {
			if orderID != "order-1" || requestID != "req-1" {
				t.Fatalf("unexpected media destination %s/%s", orderID, requestID)
			}
			if len(files) != 1 || files[0].Name != "tear.jpg" {
				t.Fatalf("unexpected files %+v", files)
			}
			return []string{"returns/order-1/req-1/01_tear.jpg"}, nil
		},
	}
	svc, err := NewReturnService(ReturnServiceDeps{
		Orders:      orders,
		Returns:     returns,
		Media:       media,
		Clock:       fixedClock(completedAt.Add(time.Hour)),
		IDGenerator: sequentialIDs("req-1"),
	})
	if err != nil {
		t.Fatalf("NewReturnService: %v", err)
	}

	request, err := svc.Submit(ctx, SubmitReturnCommand{
		OrderID: "order-1",
		UserID:  "user-1",
		Reason:  "seam torn",
		Photos:  []MediaFile{{Name: "tear.jpg", ContentType: "image/jpeg", Data: []byte{0xff}}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(request.MediaRefs) != 1 || submitted.MediaRefs[0] != "returns/order-1/req-1/01_tear.jpg" {
		t.Fatalf("expected media ref recorded, got %+v", submitted.MediaRefs)
	}
}

func TestReturnServiceApprove(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	returns := &stubReturnRepository{
		approveFunc: func(_ context.Context, orderID string, decidedAt time.Time) (domain.Order, error) {
			if !decidedAt.Equal(now) {
				t.Fatalf("expected decision time %v, got %v", now, decidedAt)
			}
			refundedAt := decidedAt
			return domain.Order{
				ID:           orderID,
				Status:       domain.OrderStatusCancelled,
				ReturnStatus: domain.ReturnStatusApproved,
				RefundedAt:   &refundedAt,
			}, nil
		},
	}
	svc, err := NewReturnService(ReturnServiceDeps{
		Orders:  &stubOrderRepository{},
		Returns: returns,
		Clock:   fixedClock(now),
	})
	if err != nil {
		t.Fatalf("NewReturnService: %v", err)
	}

	order, err := svc.Approve(ctx, "order-1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if order.Status != domain.OrderStatusCancelled || order.ReturnStatus != domain.ReturnStatusApproved {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.RefundedAt == nil || !order.RefundedAt.Equal(now) {
		t.Fatalf("expected refundedAt %v, got %v", now, order.RefundedAt)
	}
}

func TestReturnServiceDecisionOnWrongState(t *testing.T) {
	ctx := context.Background()
	returns := &stubReturnRepository{
		approveFunc: func(context.Context, string, time.Time) (domain.Order, error) {
			return domain.Order{}, repositories.NewOrderError(repositories.OrderErrorInvalidState, "return status is APPROVED", nil)
		},
		rejectFunc: func(context.Context, string, time.Time) (domain.Order, error) {
			return domain.Order{}, repositories.NewOrderError(repositories.OrderErrorInvalidState, "no open return request", nil)
		},
	}
	svc, err := NewReturnService(ReturnServiceDeps{Orders: &stubOrderRepository{}, Returns: returns})
	if err != nil {
		t.Fatalf("NewReturnService: %v", err)
	}
	if _, err := svc.Approve(ctx, "order-1"); !errors.Is(err, ErrReturnWrongState) {
		t.Fatalf("expected ErrReturnWrongState from approve, got %v", err)
	}
	if _, err := svc.Reject(ctx, "order-1"); !errors.Is(err, ErrReturnWrongState) {
		t.Fatalf("expected ErrReturnWrongState from reject, got %v", err)
	}
}

func TestReturnServiceGetByOrderNotFound(t *testing.T) {
	ctx := context.Background()
	returns := &stubReturnRepository{
		findFunc: func(context.Context, string) (domain.ReturnRequest, error) {
			return domain.ReturnRequest{}, repositories.NewOrderError(repositories.OrderErrorNotFound, "no return request", nil)
		},
	}
	svc, err := NewReturnService(ReturnServiceDeps{Orders: &stubOrderRepository{}, Returns: returns})
	if err != nil {
		t.Fatalf("NewReturnService: %v", err)
	}
	if _, err := svc.GetByOrder(ctx, "order-1"); !errors.Is(err, ErrReturnNotFound) {
		t.Fatalf("expected ErrReturnNotFound, got %v", err)
	}
}
