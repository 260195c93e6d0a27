package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/chung140204/storefront-api/internal/platform/httpx"
	"github.com/chung140204/storefront-api/internal/repositories"
	"github.com/chung140204/storefront-api/internal/services"
)

type errorMapping struct {
	sentinel error
	code     string
	status   int
}

// serviceErrorMappings translates service sentinels into the JSON error
// envelope. Order matters only in that the first match wins.
var serviceErrorMappings = []errorMapping{
	{services.ErrCheckoutInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrCheckoutProductNotFound, "product_not_found", http.StatusNotFound},
	{services.ErrCheckoutInsufficientStock, "insufficient_stock", http.StatusConflict},
	{services.ErrCheckoutUnavailable, "service_unavailable", http.StatusServiceUnavailable},

	{services.ErrOrderInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrOrderNotFound, "order_not_found", http.StatusNotFound},
	{services.ErrOrderInvalidStatus, "unknown_status", http.StatusBadRequest},
	{services.ErrOrderUnchanged, "status_unchanged", http.StatusConflict},
	{services.ErrOrderIllegalTransition, "illegal_transition", http.StatusConflict},
	{services.ErrOrderConflict, "conflict", http.StatusConflict},

	{services.ErrReturnInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrReturnOrderNotFound, "order_not_found", http.StatusNotFound},
	{services.ErrReturnNotFound, "return_not_found", http.StatusNotFound},
	{services.ErrReturnForbidden, "forbidden", http.StatusForbidden},
	{services.ErrReturnIneligible, "order_not_completed", http.StatusConflict},
	{services.ErrReturnAlreadyProcessed, "return_already_requested", http.StatusConflict},
	{services.ErrReturnWindowExpired, "return_window_expired", http.StatusUnprocessableEntity},
	{services.ErrReturnWrongState, "return_not_pending", http.StatusConflict},

	{services.ErrCatalogInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrCatalogProductNotFound, "product_not_found", http.StatusNotFound},
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	for _, mapping := range serviceErrorMappings {
		if errors.Is(err, mapping.sentinel) {
			httpx.WriteError(ctx, w, httpx.NewError(mapping.code, err.Error(), mapping.status))
			return
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "storage temporarily unavailable", http.StatusServiceUnavailable))
		return
	}

	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
}
