// Package store persists the catalog, the invoice ledger and the outbox on gorm.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-retail/internal/apperr"
	"github.com/diewo77/go-retail/internal/models"
	"gorm.io/gorm"
)

// StockPolicy decides what happens when an invoice asks for more than is on hand.
type StockPolicy string

const (
	// StockPermissive always decrements; quantities may go negative.
	StockPermissive StockPolicy = "permissive"
	// StockStrict rolls the whole invoice back when a catalog product is short.
	StockStrict StockPolicy = "strict"
)

// Store groups the repositories and owns multi-table commits.
type Store struct {
	db      *gorm.DB
	policy  StockPolicy
	Catalog *Catalog
	Ledger  *Ledger
}

func New(db *gorm.DB, policy StockPolicy) *Store {
	if policy == "" {
		policy = StockPermissive
	}
	return &Store{
		db:      db,
		policy:  policy,
		Catalog: NewCatalog(db),
		Ledger:  NewLedger(db),
	}
}

// Policy returns the stock policy applied by CommitInvoice.
func (s *Store) Policy() StockPolicy { return s.policy }

// CommitInvoice inserts inv, decrements stock for each item and enqueues
// events, all in one transaction.
func (s *Store) CommitInvoice(ctx context.Context, inv *models.Invoice, events ...*models.OutboxEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("duplicate_invoice_number", err)
			}
			return err
		}
		for _, it := range inv.Items {
			if err := decrementStock(tx, it.Name, it.Quantity, s.policy); err != nil {
				return err
			}
		}
		for _, e := range events {
			if err := tx.Create(e).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Collaborator("invoice_commit_failed", err)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
