package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-retail/internal/config"
	"github.com/diewo77/go-retail/internal/db/dbtest"
	"github.com/diewo77/go-retail/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			StockPolicy:       "strict",
			DefaultTaxRate:    18,
			LowStockThreshold: 5,
			Timezone:          "UTC",
			CurrencySymbol:    "₹",
		},
		Kafka:     config.KafkaConfig{Topic: "retail.invoices", OutboxInterval: time.Second, OutboxBatch: 10},
		Twilio:    config.TwilioConfig{DefaultCountryCode: "+91"},
		Documents: config.DocumentsConfig{Backend: "local", Dir: t.TempDir()},
	}
}

func TestAppEndToEnd(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Create(&models.Product{Name: "Pen", Price: 5, Quantity: 10, GSTRate: 12}).Error)

	app, err := NewApp(context.Background(), testConfig(t), db, zerolog.Nop())
	require.NoError(t, err)
	defer app.Close()

	post := func(path, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		app.Handler.ServeHTTP(rr, req)
		return rr
	}

	rr := post("/api/invoices/create", `{"invoiceNumber":"INV-1","customer":{"name":"Asha","phone":"98450"},"items":[{"name":"Pen","quantity":4,"price":5}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var inv models.Invoice
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &inv))
	assert.Equal(t, 22.4, inv.GrandTotal)

	// strict policy: 7 more pens than on hand rolls back
	rr = post("/api/invoices/create", `{"invoiceNumber":"INV-2","customer":{"name":"Asha"},"items":[{"name":"Pen","quantity":7,"price":5}]}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "insufficient_stock")

	var pending int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("published_at IS NULL").Count(&pending).Error)
	assert.EqualValues(t, 1, pending)

	n, err := app.Relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rr = post("/api/invoices/send-sms", `{"phone":"9845012345","invoiceId":"`+inv.ID+`"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	get := httptest.NewRecorder()
	app.Handler.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", nil))
	assert.Equal(t, http.StatusOK, get.Code)

	get = httptest.NewRecorder()
	app.Handler.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil))
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), `"totalInvoices":1`)
}

func TestNewAppRejectsBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.Timezone = "Mars/Olympus"
	_, err := NewApp(context.Background(), cfg, dbtest.Open(t), zerolog.Nop())
	assert.Error(t, err)
}
