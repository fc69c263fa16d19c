package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-retail/httpx"
	"github.com/diewo77/go-retail/internal/apperr"
	"github.com/diewo77/go-retail/internal/billing"
	"github.com/diewo77/go-retail/internal/document"
	"github.com/diewo77/go-retail/internal/models"
	"github.com/diewo77/go-retail/internal/notify"
	"github.com/diewo77/go-retail/validation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req billing.CreateInvoiceRequest) (*models.Invoice, error)
}

type InvoiceReader interface {
	List(ctx context.Context) ([]models.Invoice, error)
	Search(ctx context.Context, query string) ([]models.Invoice, error)
	Get(ctx context.Context, id string) (*models.Invoice, error)
}

type Renderer interface {
	Render(inv *models.Invoice) ([]byte, error)
}

// InvoiceDeps are the collaborators of InvoiceHandler. OnCreated, when set,
// runs after an invoice is committed.
type InvoiceDeps struct {
	Billing   InvoiceCreator
	Invoices  InvoiceReader
	Renderer  Renderer
	Documents document.Storage
	SMS       notify.Sender
	Mail      notify.Mailer
	Currency  string
	Location  *time.Location
	OnCreated func(ctx context.Context, inv *models.Invoice)
}

type InvoiceHandler struct {
	d InvoiceDeps
}

func NewInvoiceHandler(d InvoiceDeps) *InvoiceHandler {
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &InvoiceHandler{d: d}
}

// Routes mounts the invoice endpoints; static paths are registered before {id}.
func (h *InvoiceHandler) Routes(r chi.Router) {
	r.Post("/create", h.Create)
	r.Get("/all", h.List)
	r.Get("/search", h.Search)
	r.Post("/send-sms", h.SendSMS)
	r.Post("/send-email", h.SendEmail)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/pdf", h.PDF)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req billing.CreateInvoiceRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	inv, err := h.d.Billing.CreateInvoice(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if h.d.OnCreated != nil {
		h.d.OnCreated(r.Context(), inv)
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.d.Invoices.List(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Search(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.d.Invoices.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.d.Invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// PDF renders the invoice, keeps a copy in document storage and streams it back.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.d.Invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	name, data, err := h.export(r.Context(), inv)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *InvoiceHandler) export(ctx context.Context, inv *models.Invoice) (string, []byte, error) {
	data, err := h.d.Renderer.Render(inv)
	if err != nil {
		return "", nil, apperr.Collaborator("render_failed", err)
	}
	name := document.FileName(inv.InvoiceNumber)
	if h.d.Documents != nil {
		loc, err := h.d.Documents.Save(ctx, name, data)
		if err != nil {
			return "", nil, apperr.Collaborator("document_store_failed", err)
		}
		zerolog.Ctx(ctx).Info().Str("invoice_number", inv.InvoiceNumber).Str("location", loc).Msg("invoice exported")
	}
	return name, data, nil
}

type sendSMSRequest struct {
	Phone     string `json:"phone"`
	InvoiceID string `json:"invoiceId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *InvoiceHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	var req sendSMSRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	v := validation.Violations{}
	validation.Required("phone", req.Phone, v)
	validation.Required("invoiceId", req.InvoiceID, v)
	if !v.Empty() {
		httpx.Error(w, r, apperr.Validation("validation_failed", v))
		return
	}

	inv, err := h.d.Invoices.Get(r.Context(), strings.TrimSpace(req.InvoiceID))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	body := notify.InvoiceSMS(inv, h.d.Currency, h.d.Location)
	if err := h.d.SMS.Send(r.Context(), req.Phone, body); err != nil {
		httpx.Error(w, r, apperr.Collaborator("sms_failed", err))
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "Invoice sent successfully via SMS"})
}

type sendEmailRequest struct {
	Email     string `json:"email"`
	InvoiceID string `json:"invoiceId"`
}

// SendEmail mails the invoice summary with the PDF attached. The address
// defaults to the customer's email.
func (h *InvoiceHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if strings.TrimSpace(req.InvoiceID) == "" {
		httpx.Error(w, r, apperr.Validation("validation_failed", validation.Violations{"invoiceId": "required"}))
		return
	}
	inv, err := h.d.Invoices.Get(r.Context(), strings.TrimSpace(req.InvoiceID))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	to := strings.TrimSpace(req.Email)
	if to == "" {
		to = inv.Customer.Email
	}
	if to == "" || !strings.Contains(to, "@") {
		httpx.Error(w, r, apperr.Validation("validation_failed", validation.Violations{"email": "invalid_email"}))
		return
	}

	html, err := notify.InvoiceEmailHTML(inv, h.d.Currency, h.d.Location)
	if err != nil {
		httpx.Error(w, r, apperr.Collaborator("render_failed", err))
		return
	}
	name, data, err := h.export(r.Context(), inv)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	msg := notify.Message{
		To:          to,
		Subject:     notify.InvoiceSubject(inv),
		HTML:        html,
		Attachments: []notify.Attachment{{Name: name, ContentType: "application/pdf", Data: data}},
	}
	if err := h.d.Mail.Mail(r.Context(), msg); err != nil {
		httpx.Error(w, r, apperr.Collaborator("email_failed", err))
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "Invoice sent successfully via email"})
}
