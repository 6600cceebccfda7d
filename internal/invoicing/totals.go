package invoicing

import (
	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/money"
)

// Discount is an invoice-level discount. A positive Amount always wins over
// Percent; the two are never combined.
type Discount struct {
	Percent float64
	Amount  float64
}

// Totals are the invoice-level monetary figures
type Totals struct {
	Subtotal           float64
	TotalDiscount      float64
	DiscountedSubtotal float64
	TotalNHIL          float64
	TotalGetFund       float64
	TotalVAT           float64
	GrandTotal         float64
}

// ComputeTotalsFromInclusivePricing is the create-path aggregation.
//
// The subtotal is the rounded sum of the unrounded line bases. Levies are
// computed on the discounted subtotal, but the grand total is the rounded sum
// of the tax-inclusive line totals minus the discount, not the sum of the parts.
func ComputeTotalsFromInclusivePricing(lines NormalizedLines, discount Discount) Totals {
	subtotal := money.Round(lines.BaseSum())

	var totalDiscount float64
	switch {
	case discount.Amount > 0:
		totalDiscount = money.Round(discount.Amount)
	case discount.Percent > 0:
		totalDiscount = money.Round(subtotal * discount.Percent / 100)
	}

	discounted := subtotal - totalDiscount

	return Totals{
		Subtotal:           subtotal,
		TotalDiscount:      totalDiscount,
		DiscountedSubtotal: discounted,
		TotalNHIL:          money.Round(discounted * money.NHILRate),
		TotalGetFund:       money.Round(discounted * money.GetFundRate),
		TotalVAT:           money.Round(discounted * money.VATRate),
		GrandTotal:         money.Round(lines.InclusiveSum()) - totalDiscount,
	}
}

// ClientBreakdownLines converts lines resubmitted on update. The per-line
// amount and levies are kept as sent; malformed values become NaN so that
// ComputeTotalsFromClientSuppliedBreakdown rejects them.
func ClientBreakdownLines(inputs []LineInput) []domain.InvoiceLine {
	lines := make([]domain.InvoiceLine, 0, len(inputs))
	for i, in := range inputs {
		unitPrice := in.UnitPrice.OrZero()
		if unitPrice == 0 {
			unitPrice = in.Price.OrZero()
		}
		quantity := in.Quantity.OrZero()
		amount := in.Amount.Float()

		lines = append(lines, domain.InvoiceLine{
			SequenceNumber: i + 1,
			Description:    in.Description,
			UnitPrice:      unitPrice,
			Quantity:       quantity,
			Amount:         amount,
			VAT:            in.VAT.Float(),
			NHIL:           in.NHIL.Float(),
			GetFund:        in.GetFund.Float(),
			Discount:       in.Discount.OrZero(),
			BaseAmount:     amount,
			TotalInclusive: money.Round(unitPrice * quantity),
			CatalogItemID:  in.CatalogItemID,
		})
	}
	return lines
}

// ComputeTotalsFromClientSuppliedBreakdown is the update-path aggregation.
// It trusts the per-line amount, NHIL, GetFund and VAT the client sent and
// adds them up; nothing is re-derived from the unit price.
func ComputeTotalsFromClientSuppliedBreakdown(lines []domain.InvoiceLine) (Totals, error) {
	var subtotal, nhil, getFund, vat float64
	for _, line := range lines {
		subtotal += line.Amount
		nhil += line.NHIL
		getFund += line.GetFund
		vat += line.VAT
	}
	grandTotal := subtotal + nhil + getFund + vat

	for _, v := range []float64{subtotal, nhil, getFund, vat, grandTotal} {
		if !money.IsFinite(v) {
			return Totals{}, domain.NewValidationError("NaN detected in invoice totals")
		}
	}

	return Totals{
		Subtotal:           subtotal,
		DiscountedSubtotal: subtotal,
		TotalNHIL:          nhil,
		TotalGetFund:       getFund,
		TotalVAT:           vat,
		GrandTotal:         grandTotal,
	}, nil
}

// ApplyGrandTotalOverride returns the override when it is a non-negative
// number, otherwise the current grand total. Callers only use it when no
// lines were resubmitted.
func ApplyGrandTotalOverride(current float64, override domain.Number) float64 {
	if override.Valid && override.Value >= 0 {
		return override.Value
	}
	return current
}
