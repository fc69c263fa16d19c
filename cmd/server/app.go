package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diewo77/go-retail/internal/billing"
	"github.com/diewo77/go-retail/internal/cache"
	"github.com/diewo77/go-retail/internal/config"
	"github.com/diewo77/go-retail/internal/dashboard"
	"github.com/diewo77/go-retail/internal/document"
	"github.com/diewo77/go-retail/internal/handlers"
	"github.com/diewo77/go-retail/internal/models"
	"github.com/diewo77/go-retail/internal/notify"
	"github.com/diewo77/go-retail/internal/outbox"
	"github.com/diewo77/go-retail/internal/server"
	"github.com/diewo77/go-retail/internal/store"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// App holds the wired process: the HTTP handler plus the background relay.
type App struct {
	Handler http.Handler
	Relay   *outbox.Relay
	closers []func() error
}

// NewApp wires configuration into services. Optional integrations (Redis,
// Kafka, Twilio, SMTP) fall back to in-process or logging implementations.
func NewApp(ctx context.Context, cfg *config.Config, db *gorm.DB, log zerolog.Logger) (*App, error) {
	app := &App{}
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	st := store.New(db, store.StockPolicy(cfg.App.StockPolicy))

	billingSvc := billing.NewService(st.Catalog, st,
		billing.WithDefaultTaxRate(cfg.App.DefaultTaxRate),
		billing.WithEvents(outbox.InvoiceCreated(cfg.Kafka.Topic)),
		billing.WithLogger(log.With().Str("component", "billing").Logger()),
	)

	dashOpts := []dashboard.Option{
		dashboard.WithLocation(loc),
		dashboard.WithLowStockThreshold(cfg.App.LowStockThreshold),
		dashboard.WithLogger(log.With().Str("component", "dashboard").Logger()),
	}
	var onCreated func(context.Context, *models.Invoice)
	var onProductChanged func(context.Context, *models.Product)
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		rc := cache.NewRedisCache(client, "retail")
		dashOpts = append(dashOpts, dashboard.WithCache(rc, cfg.Redis.CacheTTL))
		onCreated = func(ctx context.Context, inv *models.Invoice) {
			if err := rc.Invalidate(ctx, "dashboard:*"); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("dashboard cache invalidation failed")
			}
		}
		onProductChanged = func(ctx context.Context, p *models.Product) {
			if err := rc.Invalidate(ctx, "dashboard:*"); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Uint("product_id", p.ID).Msg("dashboard cache invalidation failed")
			}
		}
	}
	dashSvc := dashboard.NewService(st.Ledger, st.Catalog, dashOpts...)

	var sms notify.Sender = notify.LogSender{Log: log, CountryCode: cfg.Twilio.DefaultCountryCode}
	if cfg.Twilio.SMSEnabled() {
		if sms, err = notify.NewTwilioSender(cfg.Twilio, log); err != nil {
			return nil, err
		}
	}
	var mail notify.Mailer = notify.LogMailer{Log: log}
	if cfg.SMTP.Enabled() {
		if mail, err = notify.NewSMTPMailer(cfg.SMTP, log); err != nil {
			return nil, err
		}
	}

	docs, err := document.NewStorage(cfg.Documents)
	if err != nil {
		return nil, err
	}

	var pub outbox.Publisher = outbox.LogPublisher{Log: log}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = outbox.NewKafkaPublisher(cfg.Kafka.Brokers, log)
	}
	app.closers = append(app.closers, pub.Close)
	app.Relay = outbox.NewRelay(db, pub, cfg.Kafka.OutboxInterval, cfg.Kafka.OutboxBatch,
		log.With().Str("component", "outbox").Logger()).WithMaxAttempts(cfg.Kafka.OutboxMaxAttempts)

	products := handlers.NewProductHandler(st.Catalog)
	products.OnChanged = onProductChanged

	app.Handler = server.New(db, log, server.Handlers{
		Invoices: handlers.NewInvoiceHandler(handlers.InvoiceDeps{
			Billing:   billingSvc,
			Invoices:  st.Ledger,
			Renderer:  document.Renderer{Currency: cfg.App.CurrencySymbol, Location: loc},
			Documents: docs,
			SMS:       sms,
			Mail:      mail,
			Currency:  cfg.App.CurrencySymbol,
			Location:  loc,
			OnCreated: onCreated,
		}),
		Products:  products,
		Dashboard: handlers.NewDashboardHandler(dashSvc),
	})

	log.Info().
		Str("stock_policy", string(st.Policy())).
		Bool("redis", cfg.Redis.Addr != "").
		Bool("kafka", len(cfg.Kafka.Brokers) > 0).
		Bool("sms", cfg.Twilio.SMSEnabled()).
		Bool("smtp", cfg.SMTP.Enabled()).
		Str("documents", cfg.Documents.Backend).
		Msg("application wired")
	return app, nil
}

// Close releases external clients in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = fmt.Errorf("close: %w", err)
		}
	}
	return first
}
