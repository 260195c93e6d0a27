package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chung140204/storefront-api/internal/domain"
	pfirestore "github.com/chung140204/storefront-api/internal/platform/firestore"
	"github.com/chung140204/storefront-api/internal/repositories"
)

// ReturnRepository persists return requests and applies admin decisions in
// Firestore transactions. Approval restores stock through the ledger and
// cancels the order in the same transaction.
type ReturnRepository struct {
	provider *pfirestore.Provider
	ledger   *StockLedger
}

// NewReturnRepository constructs a Firestore-backed return repository.
func NewReturnRepository(provider *pfirestore.Provider, ledger *StockLedger) (*ReturnRepository, error) {
	if provider == nil {
		return nil, errors.New("return repository requires firestore provider")
	}
	if ledger == nil {
		return nil, errors.New("return repository requires stock ledger")
	}
	return &ReturnRepository{provider: provider, ledger: ledger}, nil
}

// Submit records the return request and flips the order's return status to
// REQUESTED. The NONE gate is re-checked inside the transaction so a racing
// submission cannot create a second active request.
func (r *ReturnRepository) Submit(ctx context.Context, req repositories.SubmitReturnRequest) (domain.ReturnRequest, error) {
	if r == nil || r.provider == nil {
		return domain.ReturnRequest{}, errors.New("return repository not initialised")
	}
	switch {
	case strings.TrimSpace(req.RequestID) == "":
		return domain.ReturnRequest{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "request id is required", nil)
	case strings.TrimSpace(req.OrderID) == "":
		return domain.ReturnRequest{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "order id is required", nil)
	case strings.TrimSpace(req.Reason) == "":
		return domain.ReturnRequest{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "reason is required", nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.ReturnRequest{}, err
	}

	var submitted domain.ReturnRequest
	err = pfirestore.RunTransaction(ctx, client, func(ctx context.Context, tx *firestore.Transaction) error {
		orderRef := client.Collection(ordersCollection).Doc(req.OrderID)
		doc, err := getOrderDocument(tx, orderRef, req.OrderID)
		if err != nil {
			return err
		}
		if doc.ReturnStatus != domain.ReturnStatusNone {
			return repositories.NewOrderError(repositories.OrderErrorInvalidState,
				fmt.Sprintf("order %s already has return status %s", req.OrderID, doc.ReturnStatus), nil)
		}

		now := req.Now.UTC()
		requestDoc := returnRequestDocument{
			OrderID:   req.OrderID,
			UserID:    req.UserID,
			Reason:    req.Reason,
			Status:    domain.ReturnStatusRequested,
			MediaRefs: append([]string(nil), req.MediaRefs...),
			CreatedAt: now,
		}
		if err := tx.Create(client.Collection(returnsCollection).Doc(req.RequestID), requestDoc); err != nil {
			return err
		}
		if err := tx.Update(orderRef, []firestore.Update{
			{Path: "returnStatus", Value: domain.ReturnStatusRequested},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		submitted = requestDoc.toDomain(req.RequestID)
		return nil
	})
	if err != nil {
		return domain.ReturnRequest{}, orderOpError("returns.submit", err)
	}
	return submitted, nil
}

// FindByOrder returns the most recent return request for the order.
func (r *ReturnRepository) FindByOrder(ctx context.Context, orderID string) (domain.ReturnRequest, error) {
	if r == nil || r.provider == nil {
		return domain.ReturnRequest{}, errors.New("return repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.ReturnRequest{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "order id is required", nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.ReturnRequest{}, err
	}

	iter := client.Collection(returnsCollection).
		Where("orderId", "==", orderID).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.ReturnRequest{}, repositories.NewOrderError(repositories.OrderErrorNotFound,
			fmt.Sprintf("no return request for order %s", orderID), nil)
	}
	if err != nil {
		return domain.ReturnRequest{}, pfirestore.WrapError("returns.find", err)
	}

	var doc returnRequestDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.ReturnRequest{}, fmt.Errorf("decode return request %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// Approve marks the return APPROVED, cancels the order, stamps the refund
// time, and restores stock for every order line. A missing product aborts the
// whole transaction, including the status changes.
func (r *ReturnRepository) Approve(ctx context.Context, orderID string, now time.Time) (domain.Order, error) {
	return r.decide(ctx, orderID, now, true)
}

// Reject marks the return REJECTED. Order status and stock are untouched.
func (r *ReturnRepository) Reject(ctx context.Context, orderID string, now time.Time) (domain.Order, error) {
	return r.decide(ctx, orderID, now, false)
}

func (r *ReturnRepository) decide(ctx context.Context, orderID string, now time.Time, approve bool) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("return repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "order id is required", nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	op := "returns.reject"
	if approve {
		op = "returns.approve"
	}

	var decided domain.Order
	err = pfirestore.RunTransaction(ctx, client, func(ctx context.Context, tx *firestore.Transaction) error {
		orderRef := client.Collection(ordersCollection).Doc(orderID)
		doc, err := getOrderDocument(tx, orderRef, orderID)
		if err != nil {
			return err
		}
		if doc.ReturnStatus != domain.ReturnStatusRequested {
			return repositories.NewOrderError(repositories.OrderErrorInvalidState,
				fmt.Sprintf("order %s return status is %s, expected %s", orderID, doc.ReturnStatus, domain.ReturnStatusRequested), nil)
		}

		// All reads happen before any write: lines, products, and the open
		// return request document.
		var lineDocs []orderLineDocument
		var productRefs []*firestore.DocumentRef
		var productDocs []*productDocument
		if approve {
			lineDocs, err = readLineDocuments(tx, orderRef)
			if err != nil {
				return err
			}
			seen := make(map[string]int)
			for _, line := range lineDocs {
				if _, ok := seen[line.ProductID]; ok {
					continue
				}
				ref := client.Collection(productsCollection).Doc(line.ProductID)
				snap, err := tx.Get(ref)
				if status.Code(err) == codes.NotFound {
					return repositories.NewOrderError(repositories.OrderErrorProductNotFound,
						fmt.Sprintf("product %s for order %s no longer exists", line.ProductID, orderID), err)
				}
				if err != nil {
					return err
				}
				var product productDocument
				if err := snap.DataTo(&product); err != nil {
					return fmt.Errorf("decode product %s: %w", line.ProductID, err)
				}
				seen[line.ProductID] = len(productDocs)
				productRefs = append(productRefs, ref)
				productDocs = append(productDocs, &product)
			}

			decisionTime := now.UTC()
			doc.ReturnStatus = domain.ReturnStatusApproved
			doc.Status = domain.OrderStatusCancelled
			if doc.RefundedAt == nil {
				doc.RefundedAt = &decisionTime
			}
			if doc.CancelledAt == nil {
				doc.CancelledAt = &decisionTime
			}
			doc.UpdatedAt = decisionTime

			requestRef, err := findOpenReturnRequestRef(tx, client, orderID)
			if err != nil {
				return err
			}

			if err := tx.Set(orderRef, doc); err != nil {
				return err
			}
			for _, line := range lineDocs {
				idx := seen[line.ProductID]
				if err := r.ledger.Increment(tx, productRefs[idx], productDocs[idx], line.Quantity); err != nil {
					return err
				}
			}
			if requestRef != nil {
				if err := tx.Update(requestRef, []firestore.Update{
					{Path: "status", Value: domain.ReturnStatusApproved},
					{Path: "decidedAt", Value: decisionTime},
				}); err != nil {
					return err
				}
			}
		} else {
			decisionTime := now.UTC()
			doc.ReturnStatus = domain.ReturnStatusRejected
			doc.UpdatedAt = decisionTime

			requestRef, err := findOpenReturnRequestRef(tx, client, orderID)
			if err != nil {
				return err
			}

			if err := tx.Set(orderRef, doc); err != nil {
				return err
			}
			if requestRef != nil {
				if err := tx.Update(requestRef, []firestore.Update{
					{Path: "status", Value: domain.ReturnStatusRejected},
					{Path: "decidedAt", Value: decisionTime},
				}); err != nil {
					return err
				}
			}
		}

		decided = doc.toDomain(orderID, nil)
		return nil
	})
	if err != nil {
		return domain.Order{}, orderOpError(op, err)
	}
	return decided, nil
}

func getOrderDocument(tx *firestore.Transaction, orderRef *firestore.DocumentRef, orderID string) (orderDocument, error) {
	snap, err := tx.Get(orderRef)
	if status.Code(err) == codes.NotFound {
		return orderDocument{}, repositories.NewOrderError(repositories.OrderErrorNotFound,
			fmt.Sprintf("order %s not found", orderID), err)
	}
	if err != nil {
		return orderDocument{}, err
	}
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return orderDocument{}, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return doc, nil
}

func readLineDocuments(tx *firestore.Transaction, orderRef *firestore.DocumentRef) ([]orderLineDocument, error) {
	iter := tx.Documents(orderRef.Collection(orderLinesCollection).OrderBy(firestore.DocumentID, firestore.Asc))
	defer iter.Stop()

	var lines []orderLineDocument
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc orderLineDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode order line %s: %w", snap.Ref.ID, err)
		}
		lines = append(lines, doc)
	}
	return lines, nil
}

// findOpenReturnRequestRef locates the REQUESTED return request document for
// the order within the transaction's read phase.
func findOpenReturnRequestRef(tx *firestore.Transaction, client *firestore.Client, orderID string) (*firestore.DocumentRef, error) {
	iter := tx.Documents(client.Collection(returnsCollection).
		Where("orderId", "==", orderID).
		Where("status", "==", domain.ReturnStatusRequested).
		Limit(1))
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap.Ref, nil
}
