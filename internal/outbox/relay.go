package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/go-retail/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// DefaultMaxAttempts is how many failed publishes an event gets before it is parked.
const DefaultMaxAttempts = 10

// Relay moves unpublished outbox rows to a Publisher. Delivery is at least once:
// a crash between publishing and marking resends the batch. Rows that fail
// maxAttempts times stay unpublished but are no longer fetched, so they
// cannot block newer events.
type Relay struct {
	db          *gorm.DB
	pub         Publisher
	interval    time.Duration
	batchSize   int
	maxAttempts int
	now         func() time.Time
	log         zerolog.Logger
}

func NewRelay(db *gorm.DB, pub Publisher, interval time.Duration, batchSize int, log zerolog.Logger) *Relay {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Relay{
		db: db, pub: pub, interval: interval, batchSize: batchSize,
		maxAttempts: DefaultMaxAttempts, now: time.Now, log: log,
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func (r *Relay) WithMaxAttempts(n int) *Relay {
	if n > 0 {
		r.maxAttempts = n
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	r.log.Info().Dur("interval", r.interval).Msg("outbox relay started")
	for {
		if n, err := r.RunOnce(ctx); err != nil {
			r.log.Warn().Err(err).Int("published", n).Msg("outbox relay pass failed")
		} else if n > 0 {
			r.log.Debug().Int("published", n).Msg("outbox relay pass")
		}
		select {
		case <-ctx.Done():
			r.log.Info().Msg("outbox relay stopped")
			return nil
		case <-t.C:
		}
	}
}

// RunOnce publishes one batch of pending events, oldest first, and returns
// how many were marked published.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	var pending []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL AND attempts < ?", r.maxAttempts).
		Order("created_at asc, id asc").
		Limit(r.batchSize).
		Find(&pending).Error
	if err != nil || len(pending) == 0 {
		return 0, err
	}

	pubErr := r.pub.Publish(ctx, pending)

	var done, failed, parked []string
	var partial PublishErrors
	switch {
	case pubErr == nil:
		for _, e := range pending {
			done = append(done, e.ID)
		}
	case errors.As(pubErr, &partial) && len(partial) == len(pending):
		for i, e := range pending {
			if partial[i] == nil {
				done = append(done, e.ID)
			} else {
				failed = append(failed, e.ID)
			}
		}
	default:
		for _, e := range pending {
			failed = append(failed, e.ID)
		}
	}
	if len(failed) > 0 {
		attempts := make(map[string]int, len(pending))
		for _, e := range pending {
			attempts[e.ID] = e.Attempts
		}
		for _, id := range failed {
			if attempts[id]+1 >= r.maxAttempts {
				parked = append(parked, id)
			}
		}
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(done) > 0 {
			if err := tx.Model(&models.OutboxEvent{}).Where("id IN ?", done).
				Updates(map[string]any{
					"published_at": r.now().UTC(),
					"attempts":     gorm.Expr("attempts + 1"),
				}).Error; err != nil {
				return err
			}
		}
		if len(failed) > 0 {
			return tx.Model(&models.OutboxEvent{}).Where("id IN ?", failed).
				UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(parked) > 0 {
		r.log.Error().Err(pubErr).Strs("event_ids", parked).Int("max_attempts", r.maxAttempts).
			Msg("outbox events parked after repeated publish failures")
	}
	return len(done), pubErr
}
