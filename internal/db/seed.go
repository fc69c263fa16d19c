package db

import (
	"errors"

	"github.com/diewo77/go-retail/internal/models"
	"gorm.io/gorm"
)

var sampleProducts = []models.Product{
	{Name: "Pen", Price: 5, Quantity: 200, Category: "Stationery", GSTRate: 12},
	{Name: "Notebook", Price: 45, Quantity: 80, Category: "Stationery", GSTRate: 12},
	{Name: "Rice 5kg", Price: 320, Quantity: 25, Category: "Grocery", GSTRate: 5},
	{Name: "Milk 1L", Price: 58, Quantity: 3, Category: "Dairy", GSTRate: 0},
	{Name: "Headphones", Price: 1499, Quantity: 10, Category: "Electronics", GSTRate: 18},
	{Name: "Soft Drink 750ml", Price: 40, Quantity: 4, Category: "Beverages", GSTRate: 28},
}

// Seed inserts the sample catalog. Existing names are left untouched.
func Seed(db *gorm.DB) error {
	for _, p := range sampleProducts {
		var existing models.Product
		err := db.Where("name = ?", p.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
