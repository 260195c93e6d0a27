package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

const defaultOrderListLimit = 50

// OrderRepository persists orders with their line snapshots and applies
// status transitions, backed by Firestore transactions.
type OrderRepository struct {
	provider *pfirestore.Provider
	ledger   *StockLedger
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider, ledger *StockLedger) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	if ledger == nil {
		return nil, errors.New("order repository requires stock ledger")
	}
	return &OrderRepository{provider: provider, ledger: ledger}, nil
}

// PlaceOrder persists the order, every line snapshot, and every stock
// decrement as one atomic transaction. Products and their category tax rates
// are read live inside the transaction; pricing runs over those reads via the
// supplied quote function. Any failure rolls back everything.
func (r *OrderRepository) PlaceOrder(ctx context.Context, req repositories.PlaceOrderRequest) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if err := validatePlaceOrderRequest(req); err != nil {
		return domain.Order{}, err
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	var placed domain.Order
	err = pfirestore.RunTransaction(ctx, client, func(ctx context.Context, tx *firestore.Transaction) error {
		products := make(map[string]*productDocument, len(req.Items))
		productRefs := make(map[string]*firestore.DocumentRef, len(req.Items))
		requested := make(map[string]int, len(req.Items))

		for _, item := range req.Items {
			requested[item.ProductID] += item.Quantity
			if _, ok := products[item.ProductID]; ok {
				continue
			}
			ref := client.Collection(productsCollection).Doc(item.ProductID)
			snap, err := tx.Get(ref)
			if status.Code(err) == codes.NotFound {
				return repositories.NewOrderError(repositories.OrderErrorProductNotFound,
					fmt.Sprintf("product %s not found", item.ProductID), err)
			}
			if err != nil {
				return err
			}
			var doc productDocument
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode product %s: %w", item.ProductID, err)
			}
			products[item.ProductID] = &doc
			productRefs[item.ProductID] = ref
		}

		// Availability check against the live read; the conditional decrement
		// below is the authoritative guard.
		for _, productID := range sortedKeys(requested) {
			if products[productID].Stock < int64(requested[productID]) {
				return repositories.NewOrderError(repositories.OrderErrorInsufficientStock,
					fmt.Sprintf("product %s has %d units, %d requested", productID, products[productID].Stock, requested[productID]), nil)
			}
		}

		taxRates := make(map[string]float64)
		for _, productID := range sortedProductIDs(products) {
			categoryID := strings.TrimSpace(products[productID].CategoryID)
			if categoryID == "" {
				return repositories.NewOrderError(repositories.OrderErrorInternal,
					fmt.Sprintf("product %s has no category", productID), nil)
			}
			if _, ok := taxRates[categoryID]; ok {
				continue
			}
			snap, err := tx.Get(client.Collection(categoriesCollection).Doc(categoryID))
			if status.Code(err) == codes.NotFound {
				return repositories.NewOrderError(repositories.OrderErrorInternal,
					fmt.Sprintf("category %s for product %s not found", categoryID, productID), err)
			}
			if err != nil {
				return err
			}
			var category categoryDocument
			if err := snap.DataTo(&category); err != nil {
				return fmt.Errorf("decode category %s: %w", categoryID, err)
			}
			taxRates[categoryID] = category.TaxRate
		}

		lines := make([]domain.PricingLine, 0, len(req.Items))
		for _, item := range req.Items {
			product := products[item.ProductID]
			lines = append(lines, domain.PricingLine{
				ProductID: item.ProductID,
				UnitPrice: product.Price,
				Quantity:  item.Quantity,
				TaxRate:   taxRates[product.CategoryID],
			})
		}

		quote, err := req.Quote(lines, req.VoucherCode)
		if err != nil {
			return err
		}

		now := req.Now.UTC()
		orderRef := client.Collection(ordersCollection).Doc(req.OrderID)
		doc := orderDocument{
			Number:          req.OrderNumber,
			UserID:          req.UserID,
			Customer:        customerToDocument(req.Customer),
			Status:          domain.OrderStatusPending,
			ReturnStatus:    domain.ReturnStatusNone,
			Subtotal:        quote.Subtotal,
			VoucherCode:     quote.VoucherCode,
			VoucherDiscount: quote.VoucherDiscount,
			TotalVAT:        quote.TotalVAT,
			TotalAmount:     quote.TotalAmount,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(orderRef, doc); err != nil {
			return err
		}

		domainLines := make([]domain.OrderLine, 0, len(req.Items))
		for i, item := range req.Items {
			priced := quote.Lines[i]
			lineID := fmt.Sprintf("%04d", i+1)
			lineDoc := orderLineDocument{
				ProductID:         item.ProductID,
				ProductName:       products[item.ProductID].Name,
				Size:              item.Size,
				Color:             item.Color,
				Quantity:          item.Quantity,
				UnitPrice:         priced.UnitPrice,
				TaxRate:           priced.TaxRate,
				EffectiveSubtotal: priced.EffectiveSubtotal,
				TaxAmount:         priced.TaxAmount,
				LineTotal:         priced.LineTotal,
				CreatedAt:         now,
			}
			if err := tx.Create(orderRef.Collection(orderLinesCollection).Doc(lineID), lineDoc); err != nil {
				return err
			}
			domainLines = append(domainLines, lineDoc.toDomain(lineID))
		}

		for _, productID := range sortedKeys(requested) {
			ok, err := r.ledger.Decrement(tx, productRefs[productID], products[productID], requested[productID])
			if err != nil {
				return err
			}
			if !ok {
				return repositories.NewOrderError(repositories.OrderErrorInsufficientStock,
					fmt.Sprintf("product %s stock exhausted during checkout", productID), nil)
			}
		}

		placed = doc.toDomain(req.OrderID, domainLines)
		return nil
	})
	if err != nil {
		return domain.Order{}, orderOpError("orders.place", err)
	}
	return placed, nil
}

// FindByID loads an order together with its line snapshots.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "order id is required", nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	orderRef := client.Collection(ordersCollection).Doc(orderID)
	snap, err := orderRef.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.Order{}, repositories.NewOrderError(repositories.OrderErrorNotFound,
			fmt.Sprintf("order %s not found", orderID), err)
	}
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.get", err)
	}

	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", orderID, err)
	}

	lines, err := r.loadLines(ctx, orderRef)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.toDomain(orderID, lines), nil
}

// ListByUser returns the user's orders, newest first, without line snapshots.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("order repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "user id is required", nil)
	}
	if limit <= 0 || limit > defaultOrderListLimit {
		limit = defaultOrderListLimit
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	iter := client.Collection(ordersCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var orders []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("orders.list", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
		}
		orders = append(orders, doc.toDomain(snap.Ref.ID, nil))
	}
	return orders, nil
}

// UpdateStatus persists a validated transition inside a transaction. The
// expected status guards against a concurrent transition, and the matching
// lifecycle timestamp is stamped only on its first write.
func (r *OrderRepository) UpdateStatus(ctx context.Context, req repositories.StatusUpdateRequest) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return domain.Order{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "order id is required", nil)
	}
	if !domain.IsKnownOrderStatus(req.NextStatus) {
		return domain.Order{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput,
			fmt.Sprintf("unknown status %q", req.NextStatus), nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	var updated domain.Order
	err = pfirestore.RunTransaction(ctx, client, func(ctx context.Context, tx *firestore.Transaction) error {
		orderRef := client.Collection(ordersCollection).Doc(orderID)
		snap, err := tx.Get(orderRef)
		if status.Code(err) == codes.NotFound {
			return repositories.NewOrderError(repositories.OrderErrorNotFound,
				fmt.Sprintf("order %s not found", orderID), err)
		}
		if err != nil {
			return err
		}

		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode order %s: %w", orderID, err)
		}
		if doc.Status != req.ExpectedStatus {
			return repositories.NewOrderError(repositories.OrderErrorConflict,
				fmt.Sprintf("order %s is %s, expected %s", orderID, doc.Status, req.ExpectedStatus), nil)
		}

		now := req.Now.UTC()
		doc.Status = req.NextStatus
		stampStatusTimestamp(&doc, req.NextStatus, now)
		doc.UpdatedAt = now

		if err := tx.Set(orderRef, doc); err != nil {
			return err
		}
		updated = doc.toDomain(orderID, nil)
		return nil
	})
	if err != nil {
		return domain.Order{}, orderOpError("orders.update_status", err)
	}
	return updated, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, orderRef *firestore.DocumentRef) ([]domain.OrderLine, error) {
	iter := orderRef.Collection(orderLinesCollection).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var lines []domain.OrderLine
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("orders.lines", err)
		}
		var doc orderLineDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode order line %s: %w", snap.Ref.ID, err)
		}
		lines = append(lines, doc.toDomain(snap.Ref.ID))
	}
	return lines, nil
}

// stampStatusTimestamp records the lifecycle timestamp for the status reached,
// first write wins.
func stampStatusTimestamp(doc *orderDocument, nextStatus string, now time.Time) {
	switch nextStatus {
	case domain.OrderStatusPaid:
		if doc.PaidAt == nil {
			doc.PaidAt = &now
		}
	case domain.OrderStatusCompleted:
		if doc.CompletedAt == nil {
			doc.CompletedAt = &now
		}
	case domain.OrderStatusCancelled:
		if doc.CancelledAt == nil {
			doc.CancelledAt = &now
		}
	}
}

func validatePlaceOrderRequest(req repositories.PlaceOrderRequest) error {
	switch {
	case strings.TrimSpace(req.OrderID) == "":
		return repositories.NewOrderError(repositories.OrderErrorInvalidInput, "order id is required", nil)
	case strings.TrimSpace(req.UserID) == "":
		return repositories.NewOrderError(repositories.OrderErrorInvalidInput, "user id is required", nil)
	case len(req.Items) == 0:
		return repositories.NewOrderError(repositories.OrderErrorInvalidInput, "at least one item is required", nil)
	case req.Quote == nil:
		return repositories.NewOrderError(repositories.OrderErrorInvalidInput, "quote function is required", nil)
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return repositories.NewOrderError(repositories.OrderErrorInvalidInput, "item product id is required", nil)
		}
		if item.Quantity <= 0 {
			return repositories.NewOrderError(repositories.OrderErrorInvalidInput,
				fmt.Sprintf("item %s quantity must be positive", item.ProductID), nil)
		}
	}
	return nil
}

// orderOpError attaches the operation name to typed order errors and wraps
// anything else with Firestore semantics.
func orderOpError(op string, err error) error {
	var orderErr *repositories.OrderError
	if errors.As(err, &orderErr) {
		if orderErr.Op == "" {
			orderErr.Op = op
		}
		return orderErr
	}
	return pfirestore.WrapError(op, err)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedProductIDs(m map[string]*productDocument) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
