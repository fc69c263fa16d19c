package models

import "time"

// GSTRates lists the tax slabs a catalog product may carry.
var GSTRates = []float64{0, 5, 12, 18, 28}

// DefaultCategory is applied when a product is created without one.
const DefaultCategory = "General"

// Product is a catalog entry. Name is the business key used by invoicing.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name     string  `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Price    float64 `gorm:"not null;default:0" json:"price"`
	Quantity int     `gorm:"not null;default:0" json:"quantity"`
	Category string  `gorm:"size:100;not null;default:'General'" json:"category"`
	GSTRate  float64 `gorm:"column:gst_rate;not null;default:0" json:"gstRate"`
}
