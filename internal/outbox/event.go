// Package outbox relays events committed alongside invoices to a broker.
package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/diewo77/go-retail/internal/models"
	"github.com/google/uuid"
)

// InvoiceCreatedType names the event emitted for every committed invoice.
const InvoiceCreatedType = "invoice.created"

// Envelope is the JSON payload stored in the outbox and published as the message value.
type Envelope struct {
	Type    string          `json:"type"`
	Invoice *models.Invoice `json:"invoice"`
}

// InvoiceCreated returns a factory building invoice.created events for topic,
// keyed by invoice number so one invoice always lands on the same partition.
func InvoiceCreated(topic string) func(*models.Invoice) (*models.OutboxEvent, error) {
	return func(inv *models.Invoice) (*models.OutboxEvent, error) {
		payload, err := json.Marshal(Envelope{Type: InvoiceCreatedType, Invoice: inv})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", InvoiceCreatedType, err)
		}
		return &models.OutboxEvent{
			ID:        uuid.NewString(),
			CreatedAt: inv.CreatedAt,
			Topic:     topic,
			Key:       inv.InvoiceNumber,
			Payload:   string(payload),
		}, nil
	}
}
