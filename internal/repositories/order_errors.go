package repositories

import "fmt"

// OrderErrorCode enumerates the failure classes raised by the order-domain
// repositories. Services translate these to their own sentinels; nothing is
// ever matched on message text.
type OrderErrorCode string

const (
	OrderErrorInvalidInput      OrderErrorCode = "invalid_input"
	OrderErrorNotFound          OrderErrorCode = "not_found"
	OrderErrorProductNotFound   OrderErrorCode = "product_not_found"
	OrderErrorInsufficientStock OrderErrorCode = "insufficient_stock"
	OrderErrorInvalidState      OrderErrorCode = "invalid_state"
	OrderErrorConflict          OrderErrorCode = "conflict"
	OrderErrorInternal          OrderErrorCode = "internal"
)

// OrderError carries structured failure context for order and return
// repository operations.
type OrderError struct {
	Op      string
	Code    OrderErrorCode
	Message string
	Err     error
}

// NewOrderError constructs an OrderError with the provided classification.
func NewOrderError(code OrderErrorCode, message string, err error) *OrderError {
	return &OrderError{Code: code, Message: message, Err: err}
}

func (e *OrderError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *OrderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
