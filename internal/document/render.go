// Package document renders invoices to PDF and stores the result.
package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/diewo77/go-retail/internal/models"
	"github.com/jung-kurt/gofpdf"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is the storage key for an invoice document.
func FileName(invoiceNumber string) string {
	name := unsafeName.ReplaceAllString(invoiceNumber, "_")
	if name == "" || name == "." || name == ".." {
		name = "invoice"
	}
	return name + ".pdf"
}

// Renderer lays out invoices on A4 pages.
type Renderer struct {
	Currency string
	Location *time.Location
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 70, "L"},
	{"Qty", 15, "R"},
	{"Price", 25, "R"},
	{"GST %", 20, "R"},
	{"GST Amt", 25, "R"},
	{"Total", 25, "R"},
}

func (r Renderer) Render(inv *models.Invoice) ([]byte, error) {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; the rupee sign is mapped to a plain prefix.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	cur := currencyLabel(r.Currency)
	money := func(v float64) string { return cur + strconv.FormatFloat(v, 'f', -1, 64) }
	fixed := func(v float64) string { return cur + strconv.FormatFloat(v, 'f', 2, 64) }

	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, tr("Invoice: "+inv.InvoiceNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, tr("Customer: "+inv.Customer.Name), "", 1, "L", false, 0, "")
	if inv.Customer.Phone != "" {
		pdf.CellFormat(0, 7, tr("Phone: "+inv.Customer.Phone), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 7, "Date: "+inv.CreatedAt.In(loc).Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for _, c := range columns {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, it := range inv.Items {
		cells := []string{
			tr(it.Name),
			strconv.Itoa(it.Quantity),
			money(it.Price),
			strconv.FormatFloat(it.GSTRate, 'f', -1, 64) + "%",
			fixed(it.GSTAmount),
			money(it.Total),
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 7, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Subtotal: "+fixed(inv.Subtotal()), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, "Total GST: "+money(inv.GST), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, "Grand Total: "+money(inv.GrandTotal), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func currencyLabel(symbol string) string {
	switch symbol {
	case "₹":
		return "Rs. "
	case "€":
		return "EUR "
	default:
		return symbol
	}
}
