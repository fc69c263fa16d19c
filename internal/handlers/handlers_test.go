package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-retail/internal/billing"
	"github.com/diewo77/go-retail/internal/dashboard"
	"github.com/diewo77/go-retail/internal/db/dbtest"
	"github.com/diewo77/go-retail/internal/document"
	"github.com/diewo77/go-retail/internal/models"
	"github.com/diewo77/go-retail/internal/notify"
	"github.com/diewo77/go-retail/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

type sentSMS struct{ to, body string }

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentSMS{notify.NormalizePhone(to, "+91"), body})
	return nil
}

type fakeMail struct {
	sent []notify.Message
	err  error
}

func (f *fakeMail) Mail(_ context.Context, m notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type memStorage struct {
	files map[string][]byte
}

func (m *memStorage) Save(_ context.Context, name string, data []byte) (string, error) {
	m.files[name] = data
	return "mem://" + name, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(*models.Invoice) ([]byte, error) { return nil, errors.New("font missing") }

type env struct {
	router  http.Handler
	store   *store.Store
	sms     *fakeSMS
	mail    *fakeMail
	docs    *memStorage
	created []string
	changed []string
	deps    InvoiceDeps
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := store.New(dbtest.Open(t), store.StockPermissive)
	ctx := context.Background()
	for _, p := range []models.Product{
		{Name: "Pen", Price: 5, Quantity: 100, Category: "Stationery", GSTRate: 12},
		{Name: "Notebook", Price: 40, Quantity: 3, Category: "Stationery", GSTRate: 5},
	} {
		require.NoError(t, st.Catalog.Create(ctx, &p))
	}

	e := &env{store: st, sms: &fakeSMS{}, mail: &fakeMail{}, docs: &memStorage{files: map[string][]byte{}}}
	tick := 0
	clock := func() time.Time {
		tick++
		return testNow.Add(time.Duration(tick) * time.Minute)
	}
	e.deps = InvoiceDeps{
		Billing:   billing.NewService(st.Catalog, st, billing.WithClock(clock)),
		Invoices:  st.Ledger,
		Renderer:  document.Renderer{Currency: "₹"},
		Documents: e.docs,
		SMS:       e.sms,
		Mail:      e.mail,
		Currency:  "₹",
		OnCreated: func(_ context.Context, inv *models.Invoice) { e.created = append(e.created, inv.InvoiceNumber) },
	}
	e.mount(NewInvoiceHandler(e.deps))
	return e
}

func (e *env) mount(ih *InvoiceHandler) {
	dash := dashboard.NewService(e.store.Ledger, e.store.Catalog, dashboard.WithClock(func() time.Time { return testNow.Add(time.Hour) }))
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/invoices", ih.Routes)
		ph := NewProductHandler(e.store.Catalog)
		ph.OnChanged = func(_ context.Context, p *models.Product) { e.changed = append(e.changed, p.Name) }
		r.Route("/products", ph.Routes)
		r.Get("/dashboard/overview", NewDashboardHandler(dash).Overview)
	})
	e.router = r
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (e *env) createInvoice(t *testing.T, number, customer string) models.Invoice {
	t.Helper()
	body := `{"invoiceNumber":"` + number + `","customer":{"name":"` + customer + `","phone":"9845012345","email":"c@example.com"},
		"items":[{"name":"Pen","quantity":10,"price":5},{"name":"Soap","quantity":2,"price":50}]}`
	rr := e.do(t, http.MethodPost, "/api/invoices/create", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[models.Invoice](t, rr)
}

type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func TestCreateInvoice(t *testing.T) {
	e := newEnv(t)
	inv := e.createInvoice(t, "INV-001", "Asha")

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, 6.0+18.0, inv.GST)
	assert.Equal(t, 174.0, inv.GrandTotal)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, 18.0, inv.Items[1].GSTRate, "unknown products fall back to the default rate")
	assert.Equal(t, []string{"INV-001"}, e.created)

	p, err := e.store.Catalog.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 90, p.Quantity)
}

func TestCreateInvoiceErrors(t *testing.T) {
	e := newEnv(t)
	e.createInvoice(t, "INV-001", "Asha")

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", "", http.StatusBadRequest, "empty_body"},
		{"malformed", "{", http.StatusBadRequest, "invalid_json"},
		{"missing fields", `{"items":[{"name":"Pen","quantity":0}]}`, http.StatusBadRequest, "validation_failed"},
		{"duplicate number", `{"invoiceNumber":"INV-001","customer":{"name":"B"},"items":[{"name":"Pen","quantity":1,"price":5}]}`, http.StatusConflict, "duplicate_invoice_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, http.MethodPost, "/api/invoices/create", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, decode[errorBody](t, rr).Error)
		})
	}

	rr := e.do(t, http.MethodPost, "/api/invoices/create", `{"customer":{"name":"B"},"items":[{"name":"Pen","quantity":0}]}`)
	details := decode[errorBody](t, rr).Details
	assert.Equal(t, "required", details["invoiceNumber"])
	assert.Equal(t, "must_be_positive", details["items[0].quantity"])
	assert.Equal(t, "required", details["items[0].price"])
}

func TestListSearchGet(t *testing.T) {
	e := newEnv(t)
	first := e.createInvoice(t, "INV-001", "Asha Rao")
	e.createInvoice(t, "INV-002", "Bilal")

	all := decode[[]models.Invoice](t, e.do(t, http.MethodGet, "/api/invoices/all", ""))
	require.Len(t, all, 2)
	assert.Equal(t, "INV-002", all[0].InvoiceNumber)

	found := decode[[]models.Invoice](t, e.do(t, http.MethodGet, "/api/invoices/search?query=asha", ""))
	require.Len(t, found, 1)
	assert.Equal(t, "INV-001", found[0].InvoiceNumber)

	rr := e.do(t, http.MethodGet, "/api/invoices/"+first.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, first.ID, decode[models.Invoice](t, rr).ID)

	rr = e.do(t, http.MethodGet, "/api/invoices/00000000-0000-0000-0000-000000000000", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = e.do(t, http.MethodGet, "/api/invoices/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPDF(t *testing.T) {
	e := newEnv(t)
	inv := e.createInvoice(t, "INV/7", "Asha")

	rr := e.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "INV_7.pdf")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF-"))
	assert.Contains(t, e.docs.files, "INV_7.pdf")
}

func TestPDFRenderFailure(t *testing.T) {
	e := newEnv(t)
	inv := e.createInvoice(t, "INV-001", "Asha")
	deps := e.deps
	deps.Renderer = failingRenderer{}
	e.mount(NewInvoiceHandler(deps))

	rr := e.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "render_failed", decode[errorBody](t, rr).Error)
}

func TestSendSMS(t *testing.T) {
	e := newEnv(t)
	inv := e.createInvoice(t, "INV-001", "Asha")

	rr := e.do(t, http.MethodPost, "/api/invoices/send-sms", `{"phone":"9845012345","invoiceId":"`+inv.ID+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, e.sms.sent, 1)
	assert.Equal(t, "+919845012345", e.sms.sent[0].to)
	assert.Contains(t, e.sms.sent[0].body, "Items: Pen x10, Soap x2")
	assert.Contains(t, e.sms.sent[0].body, "Total: ₹174")

	rr = e.do(t, http.MethodPost, "/api/invoices/send-sms", `{"phone":"","invoiceId":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/invoices/send-sms", `{"phone":"1","invoiceId":"00000000-0000-0000-0000-000000000000"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	e.sms.err = errors.New("gateway down")
	rr = e.do(t, http.MethodPost, "/api/invoices/send-sms", `{"phone":"1","invoiceId":"`+inv.ID+`"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "sms_failed", decode[errorBody](t, rr).Error)
}

func TestSendEmail(t *testing.T) {
	e := newEnv(t)
	inv := e.createInvoice(t, "INV-001", "Asha")

	rr := e.do(t, http.MethodPost, "/api/invoices/send-email", `{"invoiceId":"`+inv.ID+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, e.mail.sent, 1)
	msg := e.mail.sent[0]
	assert.Equal(t, "c@example.com", msg.To)
	assert.Equal(t, "Your invoice INV-001", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "INV-001.pdf", msg.Attachments[0].Name)

	rr = e.do(t, http.MethodPost, "/api/invoices/send-email", `{"email":"nope","invoiceId":"`+inv.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProducts(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodPost, "/api/products/", `{"name":" Rice 5kg ","price":320,"quantity":12}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rice := decode[models.Product](t, rr)
	assert.Equal(t, "Rice 5kg", rice.Name)
	assert.Equal(t, models.DefaultCategory, rice.Category)
	assert.Zero(t, rice.GSTRate, "rate defaults to 0")

	rr = e.do(t, http.MethodPost, "/api/products/", `{"name":"Rice 5kg","price":1,"quantity":1}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/products/", `{"name":"","price":-1,"quantity":-2,"gstRate":7}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	details := decode[errorBody](t, rr).Details
	assert.Equal(t, "required", details["name"])
	assert.Equal(t, "must_not_be_negative", details["price"])
	assert.Equal(t, "must_not_be_negative", details["quantity"])
	assert.Equal(t, "not_allowed", details["gstRate"])

	rr = e.do(t, http.MethodPut, "/api/products/1", `{"name":"Pen","quantity":250,"gstRate":18}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	pen := decode[models.Product](t, rr)
	assert.Equal(t, 250, pen.Quantity)
	assert.Equal(t, 5.0, pen.Price, "omitted price is kept")
	assert.Equal(t, "Stationery", pen.Category)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPut, "/api/products/999", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPut, "/api/products/abc", `{"name":"x"}`).Code)

	list := decode[[]models.Product](t, e.do(t, http.MethodGet, "/api/products/?q=rice", ""))
	require.Len(t, list, 1)
	assert.Equal(t, "Rice 5kg", list[0].Name)
}

func TestProductCreateRequiresQuantity(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodPost, "/api/products/", `{"name":"Bread","price":40}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	details := decode[errorBody](t, rr).Details
	assert.Equal(t, "required", details["quantity"])

	rr = e.do(t, http.MethodPost, "/api/products/", `{"price":40,"quantity":1}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "required", decode[errorBody](t, rr).Details["name"])
	assert.Empty(t, e.changed, "rejected requests fire no hook")
}

func TestProductUpdateKeepsOmittedName(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodPut, "/api/products/2", `{"quantity":9}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	nb := decode[models.Product](t, rr)
	assert.Equal(t, "Notebook", nb.Name)
	assert.Equal(t, 9, nb.Quantity)

	rr = e.do(t, http.MethodPut, "/api/products/2", `{"name":"  "}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "required", decode[errorBody](t, rr).Details["name"])
}

func TestProductZeroRateIsUntaxedOnInvoices(t *testing.T) {
	e := newEnv(t)
	rr := e.do(t, http.MethodPost, "/api/products/", `{"name":"Bread","price":40,"quantity":10}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := `{"invoiceNumber":"INV-B1","customer":{"name":"Asha","phone":"9845012345"},
		"items":[{"name":"Bread","quantity":1,"price":100}]}`
	rr = e.do(t, http.MethodPost, "/api/invoices/create", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	inv := decode[models.Invoice](t, rr)
	assert.Zero(t, inv.GST)
	assert.Equal(t, 100.0, inv.GrandTotal)
}

func TestProductChangesFireHook(t *testing.T) {
	e := newEnv(t)

	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/products/", `{"name":"Soap","price":50,"quantity":4}`).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, "/api/products/1", `{"quantity":3}`).Code)
	assert.Equal(t, []string{"Soap", "Pen"}, e.changed)
}

func TestDashboardOverview(t *testing.T) {
	e := newEnv(t)
	e.createInvoice(t, "INV-001", "Asha")
	e.createInvoice(t, "INV-002", "Bilal")

	rr := e.do(t, http.MethodGet, "/api/dashboard/overview?range=today", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	ov := decode[dashboard.Overview](t, rr)
	assert.Equal(t, 2, ov.TotalInvoices)
	assert.Equal(t, 348.0, ov.TotalRevenue)
	assert.Equal(t, 348.0, ov.TodaysSales)
	assert.Equal(t, 1, ov.TotalCustomers)
	assert.EqualValues(t, 2, ov.TotalProducts)
	require.Len(t, ov.LowStockProducts, 1)
	assert.Equal(t, "Notebook", ov.LowStockProducts[0].Name)
	assert.Equal(t, dashboard.ProductSales{Name: "Pen", Quantity: 20}, ov.TopProducts[0])
	assert.Len(t, ov.SalesTrends, 7)

	rr = e.do(t, http.MethodGet, "/api/dashboard/overview?range=custom&from=2025-03-10&to=2025-03-01", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
