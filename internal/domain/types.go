package domain

import (
	"strings"
	"time"
)

// Order lifecycle statuses.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Return statuses tracked on the order document.
const (
	ReturnStatusNone      = "NONE"
	ReturnStatusRequested = "REQUESTED"
	ReturnStatusApproved  = "APPROVED"
	ReturnStatusRejected  = "REJECTED"
)

// orderStatusTransitions is the single source of truth for legal order status
// changes. COMPLETED and CANCELLED are terminal.
var orderStatusTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusCompleted},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// IsKnownOrderStatus reports whether the value is one of the four order statuses.
func IsKnownOrderStatus(status string) bool {
	_, ok := orderStatusTransitions[status]
	return ok
}

// CanTransitionOrderStatus reports whether current may move to next.
func CanTransitionOrderStatus(current, next string) bool {
	allowed, ok := orderStatusTransitions[current]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if candidate == next {
			return true
		}
	}
	return false
}

// NormalizeOrderStatus upper-cases and trims a caller supplied status value.
func NormalizeOrderStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

// CustomerInfo is the contact snapshot captured at checkout time. It is never
// re-derived from the live user profile afterwards.
type CustomerInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Type    string
	Company string
	TaxCode string
}

// OrderLine stores the per-product snapshot taken when the order was placed.
// All monetary fields are immutable so invoices stay stable even when the
// product's live price or tax rate changes later.
type OrderLine struct {
	ID                string
	ProductID         string
	ProductName       string
	Size              string
	Color             string
	Quantity          int
	UnitPrice         float64
	TaxRate           float64
	EffectiveSubtotal float64
	TaxAmount         float64
	LineTotal         float64
}

// Order is the durable result of a checkout. The monetary snapshot is fixed at
// creation; total amount equals subtotal - voucher discount + total VAT.
type Order struct {
	ID           string
	Number       string
	UserID       string
	Customer     CustomerInfo
	Status       string
	ReturnStatus string

	Subtotal        float64
	VoucherCode     string
	VoucherDiscount float64
	TotalVAT        float64
	TotalAmount     float64

	Lines []OrderLine

	CreatedAt   time.Time
	PaidAt      *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	RefundedAt  *time.Time
	UpdatedAt   time.Time
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	clone := o
	if len(o.Lines) > 0 {
		clone.Lines = append([]OrderLine(nil), o.Lines...)
	}
	clone.PaidAt = cloneTime(o.PaidAt)
	clone.CompletedAt = cloneTime(o.CompletedAt)
	clone.CancelledAt = cloneTime(o.CancelledAt)
	clone.RefundedAt = cloneTime(o.RefundedAt)
	return clone
}

// Product carries the live catalog state. Stock is mutated only through the
// inventory ledger's conditional decrement/increment, never by assignment.
type Product struct {
	ID         string
	Name       string
	Price      float64
	Stock      int
	CategoryID string
	Active     bool
	UpdatedAt  time.Time
}

// Category holds the tax rate that is the source of truth for VAT computation.
type Category struct {
	ID        string
	Name      string
	TaxRate   float64
	UpdatedAt time.Time
}

// ReturnRequest belongs to exactly one order and the requesting user. It is
// append-only; decisions are recorded via Status and DecidedAt.
type ReturnRequest struct {
	ID        string
	OrderID   string
	UserID    string
	Reason    string
	Status    string
	MediaRefs []string
	CreatedAt time.Time
	DecidedAt *time.Time
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
