package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-retail/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultLowStockThreshold is the quantity under which a product is reported.
const DefaultLowStockThreshold = 5

type InvoiceSource interface {
	Window(ctx context.Context, from, to *time.Time) ([]models.Invoice, error)
}

type CatalogSource interface {
	Count(ctx context.Context) (int64, error)
	LowStock(ctx context.Context, threshold int) ([]models.Product, error)
}

// Cache stores computed overviews. Implementations must treat a miss as (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Service struct {
	invoices  InvoiceSource
	catalog   CatalogSource
	cache     Cache
	ttl       time.Duration
	threshold int
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger
}

type Option func(*Service)

func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) { s.cache, s.ttl = c, ttl }
}

func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLowStockThreshold(n int) Option { return func(s *Service) { s.threshold = n } }

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(invoices InvoiceSource, catalog CatalogSource, opts ...Option) *Service {
	s := &Service{
		invoices:  invoices,
		catalog:   catalog,
		threshold: DefaultLowStockThreshold,
		loc:       time.UTC,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now is the service clock in its configured location.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// Location is where calendar days are computed.
func (s *Service) Location() *time.Location { return s.loc }

// Overview aggregates the invoices selected by sel. Sales trends always
// cover the seven days ending today, whatever the selected window.
func (s *Service) Overview(ctx context.Context, sel Selector) (*Overview, error) {
	now := s.Now()
	key := fmt.Sprintf("dashboard:overview:%s:%s", sel.Key(), now.Format(dateLayout))

	if s.cache != nil {
		var cached Overview
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	from, to := sel.Window(now)
	trendFrom := startOfDay(now).AddDate(0, 0, -(trendDays - 1))

	var (
		windowed, trendSet []models.Invoice
		snapshot           CatalogSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		windowed, err = s.invoices.Window(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		trendSet, err = s.invoices.Window(gctx, &trendFrom, nil)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.TotalProducts, err = s.catalog.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.LowStock, err = s.catalog.LowStock(gctx, s.threshold)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ov := ComputeOverview(windowed, snapshot, now)
	ov.SalesTrends = SalesTrends(trendSet, now)
	ov.TodaysSales = ov.TotalRevenue

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ov, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
		}
	}
	return &ov, nil
}
