package domain

// VoucherRule describes how a voucher code affects the order subtotal. Rate is
// a proportional discount on the subtotal; a zero rate (FREESHIP) records the
// code without any monetary effect.
type VoucherRule struct {
	Code string
	Rate float64
}

// DefaultVoucherRules returns the built-in voucher table.
func DefaultVoucherRules() map[string]VoucherRule {
	return map[string]VoucherRule{
		"SALE10":   {Code: "SALE10", Rate: 0.10},
		"FREESHIP": {Code: "FREESHIP", Rate: 0},
	}
}

// PricingLine is the pricing engine input resolved from live catalog reads.
type PricingLine struct {
	ProductID string
	UnitPrice float64
	Quantity  int
	TaxRate   float64
}

// PricedLine carries the computed per-line amounts. EffectiveSubtotal is the
// line subtotal after the voucher discount has been allocated proportionally.
type PricedLine struct {
	PricingLine
	LineSubtotal      float64
	EffectiveSubtotal float64
	TaxAmount         float64
	LineTotal         float64
}

// PricingResult is the full monetary snapshot for an order quote.
type PricingResult struct {
	Subtotal        float64
	VoucherCode     string
	VoucherDiscount float64
	FinalSubtotal   float64
	Lines           []PricedLine
	TotalVAT        float64
	TotalAmount     float64
}
