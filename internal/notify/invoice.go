package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-retail/internal/models"
)

const dateLayout = "02/01/2006"

// Money formats v with the shortest decimal representation, e.g. 174 or 56.1.
func Money(currency string, v float64) string {
	return currency + strconv.FormatFloat(v, 'f', -1, 64)
}

// InvoiceSMS renders the plain-text summary sent to customers.
func InvoiceSMS(inv *models.Invoice, currency string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice: %s\n", inv.InvoiceNumber)
	fmt.Fprintf(&b, "Customer: %s\n", inv.Customer.Name)
	fmt.Fprintf(&b, "Date: %s\n", inv.CreatedAt.In(loc).Format(dateLayout))
	fmt.Fprintf(&b, "Items: %s\n", inv.ItemSummary())
	fmt.Fprintf(&b, "Total: %s\n", Money(currency, inv.GrandTotal))
	b.WriteString("Thank you for shopping!")
	return b.String()
}

var emailTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": Money,
	"fixed": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
}).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Invoice {{.Invoice.InvoiceNumber}}</h2>
<p><strong>Customer:</strong> {{.Invoice.Customer.Name}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<table style="width: 100%; border-collapse: collapse;">
<tr><th align="left">Item</th><th>Qty</th><th>Price</th><th>GST %</th><th>GST Amt</th><th>Total</th></tr>
{{- range .Invoice.Items}}
<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{money $.Currency .Price}}</td><td>{{.GSTRate}}%</td><td>{{$.Currency}}{{fixed .GSTAmount}}</td><td>{{money $.Currency .Total}}</td></tr>
{{- end}}
</table>
<p align="right">Subtotal: {{.Currency}}{{fixed .Invoice.Subtotal}}</p>
<p align="right">Total GST: {{money .Currency .Invoice.GST}}</p>
<p align="right"><strong>Grand Total: {{money .Currency .Invoice.GrandTotal}}</strong></p>
<p style="color: #666; font-size: 12px;">Thank you for shopping!</p>
</div>`))

// InvoiceEmailHTML renders the HTML body of the invoice email.
func InvoiceEmailHTML(inv *models.Invoice, currency string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct {
		Invoice  *models.Invoice
		Currency string
		Date     string
	}{inv, currency, inv.CreatedAt.In(loc).Format(dateLayout)})
	if err != nil {
		return "", fmt.Errorf("render invoice email: %w", err)
	}
	return buf.String(), nil
}

// InvoiceSubject is the subject line of the invoice email.
func InvoiceSubject(inv *models.Invoice) string {
	return "Your invoice " + inv.InvoiceNumber
}
