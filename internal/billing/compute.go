package billing

import (
	"github.com/diewo77/go-retail/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies to items whose name has no catalog product.
const DefaultTaxRate = 18.0

var hundred = decimal.NewFromInt(100)

// Line is a requested item before pricing.
type Line struct {
	Name     string
	Quantity int
	Price    float64
}

// Totals is the outcome of pricing a set of lines.
// Subtotal and TotalTax are unrounded running sums; GST and GrandTotal are
// the rounded values persisted on the invoice.
type Totals struct {
	Items      []models.InvoiceItem
	Subtotal   float64
	TotalTax   float64
	GST        float64
	GrandTotal float64
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Price resolves each line's rate from rates (fallback when absent) and
// computes per-item tax and invoice totals.
//
// Item totals are not rounded; each item's tax is. The grand total is the
// rounded sum of both, so it can differ by a cent from summing rounded parts.
func Price(lines []Line, rates map[string]float64, fallback float64) Totals {
	items := make([]models.InvoiceItem, 0, len(lines))
	subtotal := decimal.Zero
	totalTax := decimal.Zero

	for i, l := range lines {
		rate, ok := rates[l.Name]
		if !ok {
			rate = fallback
		}
		itemTotal := decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
		gstAmount := itemTotal.Mul(decimal.NewFromFloat(rate)).Div(hundred).Round(2)

		subtotal = subtotal.Add(itemTotal)
		totalTax = totalTax.Add(gstAmount)

		items = append(items, models.InvoiceItem{
			Position:  i,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Total:     itemTotal.InexactFloat64(),
			GSTRate:   rate,
			GSTAmount: gstAmount.InexactFloat64(),
		})
	}

	return Totals{
		Items:      items,
		Subtotal:   subtotal.InexactFloat64(),
		TotalTax:   totalTax.InexactFloat64(),
		GST:        totalTax.Round(2).InexactFloat64(),
		GrandTotal: subtotal.Add(totalTax).Round(2).InexactFloat64(),
	}
}
