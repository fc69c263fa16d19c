package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-retail/httpx"
	"github.com/diewo77/go-retail/internal/apperr"
	"github.com/diewo77/go-retail/internal/models"
	"github.com/diewo77/go-retail/validation"
	"github.com/go-chi/chi/v5"
)

type ProductStore interface {
	List(ctx context.Context, query string) ([]models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
}

// ProductHandler serves the catalog. OnChanged, when set, runs after a
// product is created or updated.
type ProductHandler struct {
	products  ProductStore
	OnChanged func(ctx context.Context, p *models.Product)
}

func NewProductHandler(products ProductStore) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
}

type productRequest struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
	Category string   `json:"category"`
	GSTRate  *float64 `json:"gstRate"`
}

// apply validates req and copies it onto p. Omitted fields keep p's values;
// a new product must carry name, price and quantity.
func (req productRequest) apply(p *models.Product) error {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if c := strings.TrimSpace(req.Category); c != "" {
		p.Category = c
	} else if p.Category == "" {
		p.Category = models.DefaultCategory
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.GSTRate != nil {
		p.GSTRate = *req.GSTRate
	}

	v := make(validation.Violations)
	validation.Required("name", p.Name, v)
	if req.Price == nil && p.ID == 0 {
		v["price"] = "required"
	} else {
		validation.NonNegativeFloat("price", p.Price, v)
	}
	if req.Quantity == nil && p.ID == 0 {
		v["quantity"] = "required"
	} else {
		validation.NonNegativeInt("quantity", p.Quantity, v)
	}
	validation.OneOf("gstRate", p.GSTRate, models.GSTRates, v)
	if !v.Empty() {
		return apperr.Validation("validation_failed", v)
	}
	return nil
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	var product models.Product
	if err := req.apply(&product); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.products.Create(r.Context(), &product); err != nil {
		httpx.Error(w, r, err)
		return
	}
	h.changed(r.Context(), &product)
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, r, apperr.NotFound("product_not_found"))
		return
	}
	product, err := h.products.Get(r.Context(), uint(id))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req productRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := req.apply(product); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.products.Update(r.Context(), product); err != nil {
		httpx.Error(w, r, err)
		return
	}
	h.changed(r.Context(), product)
	httpx.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) changed(ctx context.Context, p *models.Product) {
	if h.OnChanged != nil {
		h.OnChanged(ctx, p)
	}
}
