package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-retail/httpx"
	"github.com/diewo77/go-retail/internal/dashboard"
)

type OverviewSource interface {
	Overview(ctx context.Context, sel dashboard.Selector) (*dashboard.Overview, error)
	Location() *time.Location
}

type DashboardHandler struct {
	svc OverviewSource
}

func NewDashboardHandler(svc OverviewSource) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Overview serves GET /api/dashboard/overview?range=today|week|month|custom&from=&to=.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := dashboard.ParseSelector(q.Get("range"), q.Get("from"), q.Get("to"), h.svc.Location())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	ov, err := h.svc.Overview(r.Context(), sel)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ov)
}
