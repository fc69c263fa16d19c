package models

import "time"

// OutboxEvent is written in the same transaction as the change it describes
// and relayed to the broker afterwards.
type OutboxEvent struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt   time.Time  `gorm:"index;not null" json:"createdAt"`
	Topic       string     `gorm:"size:255;not null" json:"topic"`
	Key         string     `gorm:"size:255" json:"key"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt,omitempty"`
}

// Published reports whether the relay has delivered the event.
func (e *OutboxEvent) Published() bool {
	return e.PublishedAt != nil
}

// All returns every model managed by AutoMigrate, in dependency order.
func All() []any {
	return []any{&Product{}, &Invoice{}, &InvoiceItem{}, &OutboxEvent{}}
}
