package models

import (
	"fmt"
	"strings"
	"time"
)

// Customer is stored inline on the invoice row.
type Customer struct {
	Name    string `gorm:"size:255" json:"name"`
	Phone   string `gorm:"size:32;index" json:"phone"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
}

// Invoice is immutable once committed.
type Invoice struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt     time.Time `gorm:"index;not null" json:"createdAt"`
	InvoiceNumber string    `gorm:"size:100;uniqueIndex;not null" json:"invoiceNumber"`

	Customer Customer `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`

	// Items keep request order through Position.
	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`

	GST        float64 `gorm:"column:gst;not null" json:"gst"`
	GrandTotal float64 `gorm:"not null" json:"grandTotal"`
}

// Subtotal is the grand total without tax, as printed on documents.
func (i *Invoice) Subtotal() float64 {
	return i.GrandTotal - i.GST
}

// ItemSummary renders the items as "name xQty" joined by commas.
func (i *Invoice) ItemSummary() string {
	parts := make([]string, 0, len(i.Items))
	for _, it := range i.Items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	return strings.Join(parts, ", ")
}

// InvoiceItem is a priced, tax-resolved line.
type InvoiceItem struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	InvoiceID string `gorm:"size:36;index;not null" json:"-"`
	Position  int    `gorm:"not null;default:0" json:"-"`

	Name      string  `gorm:"size:255;not null" json:"name"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Price     float64 `gorm:"not null" json:"price"`
	Total     float64 `gorm:"not null" json:"total"`
	GSTRate   float64 `gorm:"column:gst_rate;not null" json:"gstRate"`
	GSTAmount float64 `gorm:"column:gst_amount;not null" json:"gstAmount"`
}
