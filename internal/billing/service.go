// Package billing prices invoices and commits them together with their stock
// movements.
package billing

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/go-retail/internal/apperr"
	"github.com/diewo77/go-retail/internal/models"
	"github.com/diewo77/go-retail/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RateSource resolves catalog tax rates by product name.
type RateSource interface {
	TaxRates(ctx context.Context, names []string) (map[string]float64, error)
}

// Committer persists an invoice, its stock decrements and any events atomically.
type Committer interface {
	CommitInvoice(ctx context.Context, inv *models.Invoice, events ...*models.OutboxEvent) error
}

// EventFactory builds the outbox event announcing a new invoice.
type EventFactory func(inv *models.Invoice) (*models.OutboxEvent, error)

type CreateInvoiceRequest struct {
	InvoiceNumber string           `json:"invoiceNumber"`
	Customer      *models.Customer `json:"customer"`
	Items         []ItemRequest    `json:"items"`
}

// ItemRequest.Price is a pointer so a missing price can be told apart from zero.
type ItemRequest struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Price    *float64 `json:"price"`
}

type Service struct {
	rates    RateSource
	commit   Committer
	events   EventFactory
	fallback float64
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }

func WithDefaultTaxRate(rate float64) Option { return func(s *Service) { s.fallback = rate } }

func WithEvents(f EventFactory) Option { return func(s *Service) { s.events = f } }

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(rates RateSource, commit Committer, opts ...Option) *Service {
	s := &Service{
		rates:    rates,
		commit:   commit,
		fallback: DefaultTaxRate,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateInvoice validates req, prices it against the catalog and commits it.
func (s *Service) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	lines, err := validate(req)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.Name] {
			seen[l.Name] = true
			names = append(names, l.Name)
		}
	}
	rates, err := s.rates.TaxRates(ctx, names)
	if err != nil {
		return nil, err
	}

	totals := Price(lines, rates, s.fallback)
	inv := &models.Invoice{
		ID:            s.newID(),
		CreatedAt:     s.now().UTC(),
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		Customer:      trimCustomer(*req.Customer),
		Items:         totals.Items,
		GST:           totals.GST,
		GrandTotal:    totals.GrandTotal,
	}

	var events []*models.OutboxEvent
	if s.events != nil {
		evt, err := s.events(inv)
		if err != nil {
			return nil, apperr.Collaborator("event_encode_failed", err)
		}
		events = append(events, evt)
	}
	if err := s.commit.CommitInvoice(ctx, inv, events...); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Int("items", len(inv.Items)).
		Float64("grand_total", inv.GrandTotal).
		Msg("invoice created")
	return inv, nil
}

func validate(req CreateInvoiceRequest) ([]Line, error) {
	v := validation.Violations{}
	validation.Required("invoiceNumber", req.InvoiceNumber, v)
	if req.Customer == nil {
		v["customer"] = "required"
	}
	if len(req.Items) == 0 {
		v["items"] = "required"
	}
	lines := make([]Line, 0, len(req.Items))
	for i, it := range req.Items {
		name := strings.TrimSpace(it.Name)
		validation.Required(validation.Field("items", i, "name"), name, v)
		validation.PositiveInt(validation.Field("items", i, "quantity"), it.Quantity, v)
		if it.Price == nil {
			v[validation.Field("items", i, "price")] = "required"
			continue
		}
		validation.NonNegativeFloat(validation.Field("items", i, "price"), *it.Price, v)
		lines = append(lines, Line{Name: name, Quantity: it.Quantity, Price: *it.Price})
	}
	if !v.Empty() {
		return nil, apperr.Validation("validation_failed", v)
	}
	return lines, nil
}

func trimCustomer(c models.Customer) models.Customer {
	return models.Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
	}
}
