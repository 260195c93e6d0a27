package services

import (
	"errors"
	"testing"

	"github.com/chung140204/storefront-api/internal/domain"
)

func newTestPricingEngine(t *testing.T) PricingEngine {
	t.Helper()
	engine, err := NewPricingEngine(PricingEngineDeps{Vouchers: domain.DefaultVoucherRules()})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}
	return engine
}

func TestPricingEngineQuoteWithVoucher(t *testing.T) {
	engine := newTestPricingEngine(t)

	lines := []domain.PricingLine{
		{ProductID: "prod-1", UnitPrice: 200000, Quantity: 2, TaxRate: 0.10},
		{ProductID: "prod-2", UnitPrice: 350000, Quantity: 1, TaxRate: 0.10},
	}

	result, err := engine.Quote(lines, "SALE10")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if result.Subtotal != 750000 {
		t.Fatalf("expected subtotal 750000, got %v", result.Subtotal)
	}
	if result.VoucherCode != "SALE10" {
		t.Fatalf("expected voucher SALE10, got %q", result.VoucherCode)
	}
	if result.VoucherDiscount != 75000 {
		t.Fatalf("expected discount 75000, got %v", result.VoucherDiscount)
	}
	if result.FinalSubtotal != 675000 {
		t.Fatalf("expected final subtotal 675000, got %v", result.FinalSubtotal)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 priced lines, got %d", len(result.Lines))
	}
	first, second := result.Lines[0], result.Lines[1]
	if first.EffectiveSubtotal != 360000 || first.TaxAmount != 36000 || first.LineTotal != 396000 {
		t.Fatalf("unexpected first line %+v", first)
	}
	if second.EffectiveSubtotal != 315000 || second.TaxAmount != 31500 || second.LineTotal != 346500 {
		t.Fatalf("unexpected second line %+v", second)
	}
	if result.TotalVAT != 67500 {
		t.Fatalf("expected total VAT 67500, got %v", result.TotalVAT)
	}
	if result.TotalAmount != 742500 {
		t.Fatalf("expected total 742500, got %v", result.TotalAmount)
	}
}

func TestPricingEngineQuoteIsDeterministic(t *testing.T) {
	engine := newTestPricingEngine(t)
	lines := []domain.PricingLine{
		{ProductID: "prod-1", UnitPrice: 19999.99, Quantity: 3, TaxRate: 0.08},
		{ProductID: "prod-2", UnitPrice: 145000.5, Quantity: 2, TaxRate: 0.10},
	}

	first, err := engine.Quote(lines, "sale10")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	second, err := engine.Quote(lines, "sale10")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if first.TotalAmount != second.TotalAmount || first.TotalVAT != second.TotalVAT {
		t.Fatalf("quotes differ: %+v vs %+v", first, second)
	}
}

func TestPricingEngineUnknownVoucherIgnored(t *testing.T) {
	engine := newTestPricingEngine(t)
	lines := []domain.PricingLine{{ProductID: "prod-1", UnitPrice: 1000, Quantity: 1, TaxRate: 0.10}}

	result, err := engine.Quote(lines, "NOSUCHCODE")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if result.VoucherCode != "" || result.VoucherDiscount != 0 {
		t.Fatalf("expected no voucher applied, got %q discount %v", result.VoucherCode, result.VoucherDiscount)
	}
	if result.FinalSubtotal != result.Subtotal {
		t.Fatalf("expected final subtotal %v, got %v", result.Subtotal, result.FinalSubtotal)
	}
}

func TestPricingEngineVoucherCodeNormalized(t *testing.T) {
	engine := newTestPricingEngine(t)
	lines := []domain.PricingLine{{ProductID: "prod-1", UnitPrice: 1000, Quantity: 2, TaxRate: 0}}

	result, err := engine.Quote(lines, "  sale10 ")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if result.VoucherCode != "SALE10" {
		t.Fatalf("expected SALE10, got %q", result.VoucherCode)
	}
	if result.VoucherDiscount != 200 {
		t.Fatalf("expected discount 200, got %v", result.VoucherDiscount)
	}
}

func TestPricingEngineZeroRateVoucher(t *testing.T) {
	engine := newTestPricingEngine(t)
	lines := []domain.PricingLine{{ProductID: "prod-1", UnitPrice: 5000, Quantity: 1, TaxRate: 0.10}}

	result, err := engine.Quote(lines, "FREESHIP")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if result.VoucherCode != "FREESHIP" {
		t.Fatalf("expected FREESHIP recorded, got %q", result.VoucherCode)
	}
	if result.VoucherDiscount != 0 || result.FinalSubtotal != 5000 {
		t.Fatalf("expected zero discount, got %+v", result)
	}
	if result.TotalAmount != 5500 {
		t.Fatalf("expected total 5500, got %v", result.TotalAmount)
	}
}

func TestPricingEngineZeroSubtotal(t *testing.T) {
	engine := newTestPricingEngine(t)
	lines := []domain.PricingLine{{ProductID: "prod-1", UnitPrice: 0, Quantity: 3, TaxRate: 0.10}}

	result, err := engine.Quote(lines, "SALE10")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if result.TotalAmount != 0 {
		t.Fatalf("expected zero total, got %v", result.TotalAmount)
	}
	if result.Lines[0].EffectiveSubtotal != 0 || result.Lines[0].TaxAmount != 0 {
		t.Fatalf("expected zero line amounts, got %+v", result.Lines[0])
	}
}

func TestPricingEngineRejectsInvalidLines(t *testing.T) {
	engine := newTestPricingEngine(t)

	cases := []struct {
		name  string
		lines []domain.PricingLine
	}{
		{name: "empty", lines: nil},
		{name: "negative price", lines: []domain.PricingLine{{ProductID: "p", UnitPrice: -1, Quantity: 1}}},
		{name: "negative quantity", lines: []domain.PricingLine{{ProductID: "p", UnitPrice: 1, Quantity: -1}}},
		{name: "negative tax rate", lines: []domain.PricingLine{{ProductID: "p", UnitPrice: 1, Quantity: 1, TaxRate: -0.1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Quote(tc.lines, ""); !errors.Is(err, ErrPricingInvalidInput) {
				t.Fatalf("expected ErrPricingInvalidInput, got %v", err)
			}
		})
	}
}

func TestNewPricingEngineRejectsOutOfRangeRate(t *testing.T) {
	_, err := NewPricingEngine(PricingEngineDeps{Vouchers: map[string]domain.VoucherRule{
		"BROKEN": {Code: "BROKEN", Rate: 1.5},
	}})
	if err == nil {
		t.Fatalf("expected error for out of range rate")
	}
}
