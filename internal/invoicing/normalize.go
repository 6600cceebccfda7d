// Package invoicing computes invoice totals from tax-inclusive Ghana pricing,
// reconciles payment state and performs the proforma to invoice transition.
// Everything here is pure; persistence lives in the repository package.
package invoicing

import (
	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/money"
)

// LineInput is a line as submitted by a client. UnitPrice is tax-inclusive;
// Price is the legacy name of the same field.
type LineInput struct {
	Description   string        `json:"description"`
	Quantity      domain.Number `json:"quantity" swaggertype:"number"`
	UnitPrice     domain.Number `json:"unitPrice" swaggertype:"number"`
	Price         domain.Number `json:"price" swaggertype:"number"`
	Amount        domain.Number `json:"amount" swaggertype:"number"`
	VAT           domain.Number `json:"vat" swaggertype:"number"`
	NHIL          domain.Number `json:"nhil" swaggertype:"number"`
	GetFund       domain.Number `json:"getFund" swaggertype:"number"`
	Discount      domain.Number `json:"discount" swaggertype:"number"`
	CatalogItemID string        `json:"catalogItemId,omitempty"`
}

// CoercionWarning reports a required numeric field that was missing or
// malformed and has been treated as zero
type CoercionWarning struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NormalizedLines is the output of NormalizeLines
type NormalizedLines struct {
	Lines    []domain.InvoiceLine
	Warnings []CoercionWarning

	// tax-exclusive amounts before rounding, in line order
	baseAmounts []float64
}

// BaseSum sums the unrounded tax-exclusive line amounts in line order
func (n NormalizedLines) BaseSum() float64 {
	var sum float64
	for _, base := range n.baseAmounts {
		sum += base
	}
	return sum
}

// InclusiveSum sums the rounded tax-inclusive line totals in line order
func (n NormalizedLines) InclusiveSum() float64 {
	var sum float64
	for _, line := range n.Lines {
		sum += line.TotalInclusive
	}
	return sum
}

// NormalizeLines derives the tax-inclusive total and the tax-exclusive base
// of every line. The stored BaseAmount is rounded for display but the
// unrounded base is what BaseSum adds up.
func NormalizeLines(inputs []LineInput) NormalizedLines {
	out := NormalizedLines{
		Lines:       make([]domain.InvoiceLine, 0, len(inputs)),
		baseAmounts: make([]float64, 0, len(inputs)),
	}

	for i, in := range inputs {
		seq := i + 1

		quantity := in.Quantity.OrZero()
		if !in.Quantity.Valid {
			out.Warnings = append(out.Warnings, coercionWarning(seq, "quantity", in.Quantity))
		}

		unitPrice := in.UnitPrice.OrZero()
		if unitPrice == 0 {
			unitPrice = in.Price.OrZero()
		}
		if !in.UnitPrice.Valid && !in.Price.Valid {
			out.Warnings = append(out.Warnings, coercionWarning(seq, "unitPrice", in.UnitPrice))
		}

		totalInclusive := money.Round(unitPrice * quantity)
		base := totalInclusive / (1 + money.CombinedTaxRate)

		amount := money.Round(base)
		if in.Amount.Valid {
			amount = in.Amount.Value
		}

		out.Lines = append(out.Lines, domain.InvoiceLine{
			SequenceNumber: seq,
			Description:    in.Description,
			UnitPrice:      unitPrice,
			Quantity:       quantity,
			Amount:         amount,
			VAT:            in.VAT.OrZero(),
			NHIL:           in.NHIL.OrZero(),
			GetFund:        in.GetFund.OrZero(),
			Discount:       in.Discount.OrZero(),
			BaseAmount:     money.Round(base),
			TotalInclusive: totalInclusive,
			CatalogItemID:  in.CatalogItemID,
		})
		out.baseAmounts = append(out.baseAmounts, base)
	}

	return out
}

func coercionWarning(line int, field string, n domain.Number) CoercionWarning {
	msg := field + " is missing, treated as 0"
	if n.Set {
		msg = field + " is not a number, treated as 0"
	}
	return CoercionWarning{Line: line, Field: field, Message: msg}
}
