package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diewo77/go-retail/internal/apperr"
	"github.com/diewo77/go-retail/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger is the invoice repository. Invoices are only ever appended.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger { return &Ledger{db: db} }

func itemsInOrder(db *gorm.DB) *gorm.DB { return db.Order("position asc") }

func (l *Ledger) base(ctx context.Context) *gorm.DB {
	return l.db.WithContext(ctx).Preload("Items", itemsInOrder)
}

// List returns every invoice, newest first.
func (l *Ledger) List(ctx context.Context) ([]models.Invoice, error) {
	invoices := []models.Invoice{}
	if err := l.base(ctx).Order("created_at desc, id desc").Find(&invoices).Error; err != nil {
		return nil, apperr.Collaborator("ledger_list_failed", err)
	}
	return invoices, nil
}

// Get loads one invoice. Unknown or malformed ids are NotFound.
func (l *Ledger) Get(ctx context.Context, id string) (*models.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("invoice_not_found")
	}
	var inv models.Invoice
	if err := l.base(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invoice_not_found")
		}
		return nil, apperr.Collaborator("ledger_get_failed", err)
	}
	return &inv, nil
}

// Search matches query as a case-insensitive substring of the invoice number
// or the customer name. Results are newest first.
func (l *Ledger) Search(ctx context.Context, query string) ([]models.Invoice, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return l.List(ctx)
	}
	like := containsPattern(q)
	invoices := []models.Invoice{}
	if err := l.base(ctx).
		Where(`LOWER(invoice_number) LIKE ? ESCAPE '\' OR LOWER(customer_name) LIKE ? ESCAPE '\'`, like, like).
		Order("created_at desc, id desc").
		Find(&invoices).Error; err != nil {
		return nil, apperr.Collaborator("ledger_search_failed", err)
	}
	return invoices, nil
}

// Window returns invoices created in [from, to], oldest first. A nil bound is open.
func (l *Ledger) Window(ctx context.Context, from, to *time.Time) ([]models.Invoice, error) {
	dbq := l.base(ctx)
	if from != nil {
		dbq = dbq.Where("created_at >= ?", from.UTC())
	}
	if to != nil {
		dbq = dbq.Where("created_at <= ?", to.UTC())
	}
	invoices := []models.Invoice{}
	if err := dbq.Order("created_at asc, id asc").Find(&invoices).Error; err != nil {
		return nil, apperr.Collaborator("ledger_window_failed", err)
	}
	return invoices, nil
}
