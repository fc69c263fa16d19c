package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-retail/internal/apperr"
	"github.com/diewo77/go-retail/internal/models"
	"gorm.io/gorm"
)

// Catalog is the product repository.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog { return &Catalog{db: db} }

// TaxRates returns the gst rate of every product whose name is in names.
// Names without a product are absent from the result.
func (c *Catalog) TaxRates(ctx context.Context, names []string) (map[string]float64, error) {
	rates := make(map[string]float64, len(names))
	if len(names) == 0 {
		return rates, nil
	}
	var products []models.Product
	if err := c.db.WithContext(ctx).
		Select("name", "gst_rate").
		Where("name IN ?", names).
		Find(&products).Error; err != nil {
		return nil, apperr.Collaborator("catalog_lookup_failed", err)
	}
	for _, p := range products {
		rates[p.Name] = p.GSTRate
	}
	return rates, nil
}

func (c *Catalog) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, apperr.Collaborator("catalog_count_failed", err)
	}
	return n, nil
}

// LowStock lists products whose quantity is below threshold.
func (c *Catalog) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	products := []models.Product{}
	if err := c.db.WithContext(ctx).
		Where("quantity < ?", threshold).
		Order("quantity asc, name asc").
		Find(&products).Error; err != nil {
		return nil, apperr.Collaborator("catalog_low_stock_failed", err)
	}
	return products, nil
}

// List returns products ordered by name, optionally filtered by a
// case-insensitive name fragment.
func (c *Catalog) List(ctx context.Context, query string) ([]models.Product, error) {
	dbq := c.db.WithContext(ctx)
	if q := strings.TrimSpace(query); q != "" {
		dbq = dbq.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(q))
	}
	products := []models.Product{}
	if err := dbq.Order("name asc").Find(&products).Error; err != nil {
		return nil, apperr.Collaborator("catalog_list_failed", err)
	}
	return products, nil
}

func (c *Catalog) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := c.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product_not_found")
		}
		return nil, apperr.Collaborator("catalog_get_failed", err)
	}
	return &p, nil
}

func (c *Catalog) Create(ctx context.Context, p *models.Product) error {
	if err := c.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("duplicate_product_name", err)
		}
		return apperr.Collaborator("catalog_create_failed", err)
	}
	return nil
}

func (c *Catalog) Update(ctx context.Context, p *models.Product) error {
	if err := c.db.WithContext(ctx).Save(p).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("duplicate_product_name", err)
		}
		return apperr.Collaborator("catalog_update_failed", err)
	}
	return nil
}

// decrementStock subtracts qty from the product called name inside tx.
// Unknown names are skipped: invoices may carry items outside the catalog.
func decrementStock(tx *gorm.DB, name string, qty int, policy StockPolicy) error {
	q := tx.Model(&models.Product{}).Where("name = ?", name)
	if policy == StockStrict {
		q = q.Where("quantity >= ?", qty)
	}
	res := q.Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 || policy != StockStrict {
		return nil
	}
	var known int64
	if err := tx.Model(&models.Product{}).Where("name = ?", name).Count(&known).Error; err != nil {
		return err
	}
	if known == 0 {
		return nil
	}
	return &apperr.Error{
		Kind:    apperr.KindConflict,
		Code:    "insufficient_stock",
		Details: map[string]any{"item": name, "requested": qty},
		Err:     fmt.Errorf("insufficient stock for %q", name),
	}
}

// containsPattern lowercases q and escapes LIKE wildcards so it matches literally.
func containsPattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
