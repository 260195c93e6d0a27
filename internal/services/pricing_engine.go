package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chung140204/storefront-api/internal/domain"
)

// ErrPricingInvalidInput marks malformed pricing input such as negative
// prices, quantities, or tax rates.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// PricingEngineDeps configures the engine. Vouchers is the injected
// code-to-rule table; a nil map means no voucher ever applies.
type PricingEngineDeps struct {
	Vouchers map[string]domain.VoucherRule
}

type pricingEngine struct {
	vouchers map[string]domain.VoucherRule
}

// NewPricingEngine constructs the deterministic pricing engine.
func NewPricingEngine(deps PricingEngineDeps) (PricingEngine, error) {
	vouchers := make(map[string]domain.VoucherRule, len(deps.Vouchers))
	for code, rule := range deps.Vouchers {
		normalized := normalizeVoucherCode(code)
		if normalized == "" {
			continue
		}
		if rule.Rate < 0 || rule.Rate > 1 {
			return nil, fmt.Errorf("pricing engine: voucher %s rate %v out of range", normalized, rule.Rate)
		}
		rule.Code = normalized
		vouchers[normalized] = rule
	}
	return &pricingEngine{vouchers: vouchers}, nil
}

// Quote computes the order's monetary snapshot. The voucher discount is
// allocated proportionally across lines before per-line tax so each line
// reports tax at its own rate. Rounding to two decimals happens at every
// intermediate step; storing and recomputing a quote must agree exactly.
// Unknown voucher codes are treated as no voucher, not as an error.
func (e *pricingEngine) Quote(lines []domain.PricingLine, voucherCode string) (domain.PricingResult, error) {
	if len(lines) == 0 {
		return domain.PricingResult{}, fmt.Errorf("%w: at least one line is required", ErrPricingInvalidInput)
	}
	for i, line := range lines {
		if line.UnitPrice < 0 {
			return domain.PricingResult{}, fmt.Errorf("%w: line %d has negative unit price", ErrPricingInvalidInput, i)
		}
		if line.Quantity < 0 {
			return domain.PricingResult{}, fmt.Errorf("%w: line %d has negative quantity", ErrPricingInvalidInput, i)
		}
		if line.TaxRate < 0 {
			return domain.PricingResult{}, fmt.Errorf("%w: line %d has negative tax rate", ErrPricingInvalidInput, i)
		}
	}

	priced := make([]domain.PricedLine, len(lines))
	var subtotal float64
	for i, line := range lines {
		lineSubtotal := line.UnitPrice * float64(line.Quantity)
		priced[i] = domain.PricedLine{PricingLine: line, LineSubtotal: lineSubtotal}
		subtotal += lineSubtotal
	}
	subtotal = round2(subtotal)

	var appliedCode string
	var discount float64
	if rule, ok := e.vouchers[normalizeVoucherCode(voucherCode)]; ok {
		appliedCode = rule.Code
		discount = round2(subtotal * rule.Rate)
	}

	finalSubtotal := round2(subtotal - discount)
	proportion := 1.0
	if subtotal > 0 {
		proportion = finalSubtotal / subtotal
	}

	var totalVAT float64
	for i := range priced {
		priced[i].EffectiveSubtotal = round2(priced[i].LineSubtotal * proportion)
		priced[i].TaxAmount = round2(priced[i].EffectiveSubtotal * priced[i].TaxRate)
		priced[i].LineTotal = round2(priced[i].EffectiveSubtotal + priced[i].TaxAmount)
		totalVAT += priced[i].TaxAmount
	}
	totalVAT = round2(totalVAT)

	return domain.PricingResult{
		Subtotal:        subtotal,
		VoucherCode:     appliedCode,
		VoucherDiscount: discount,
		FinalSubtotal:   finalSubtotal,
		Lines:           priced,
		TotalVAT:        totalVAT,
		TotalAmount:     round2(finalSubtotal + totalVAT),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
