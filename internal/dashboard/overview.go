// Package dashboard aggregates invoice history into the back-office overview.
package dashboard

import (
	"sort"
	"time"

	"github.com/diewo77/go-retail/internal/models"
	"github.com/shopspring/decimal"
)

const (
	recentLimit = 5
	topLimit    = 5
	trendDays   = 7
	dateLayout  = "2006-01-02"
)

type ProductSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type DailySales struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// CatalogSnapshot is the catalog state the overview needs; it is not windowed.
type CatalogSnapshot struct {
	TotalProducts int64
	LowStock      []models.Product
}

type Overview struct {
	TotalProducts    int64            `json:"totalProducts"`
	TotalInvoices    int              `json:"totalInvoices"`
	TotalRevenue     float64          `json:"totalRevenue"`
	LowStockProducts []models.Product `json:"lowStockProducts"`
	RecentInvoices   []models.Invoice `json:"recentInvoices"`
	TotalCustomers   int              `json:"totalCustomers"`
	AvgInvoiceValue  float64          `json:"avgInvoiceValue"`
	TopProducts      []ProductSales   `json:"topProducts"`
	SalesTrends      []DailySales     `json:"salesTrends"`
	TodaysSales      float64          `json:"todaysSales"`
}

// ComputeOverview aggregates invoices, given oldest first, against catalog.
// Calendar days are taken in now's location. It never fails; empty input
// yields zero values and empty lists.
func ComputeOverview(invoices []models.Invoice, catalog CatalogSnapshot, now time.Time) Overview {
	revenue := Revenue(invoices)

	avg := 0.0
	if len(invoices) > 0 {
		avg = revenue / float64(len(invoices))
	}

	lowStock := catalog.LowStock
	if lowStock == nil {
		lowStock = []models.Product{}
	}

	return Overview{
		TotalProducts:    catalog.TotalProducts,
		TotalInvoices:    len(invoices),
		TotalRevenue:     revenue,
		LowStockProducts: lowStock,
		RecentInvoices:   recent(invoices),
		TotalCustomers:   uniqueCustomers(invoices),
		AvgInvoiceValue:  avg,
		TopProducts:      topProducts(invoices),
		SalesTrends:      SalesTrends(invoices, now),
	}
}

// Revenue sums grand totals.
func Revenue(invoices []models.Invoice) float64 {
	sum := decimal.Zero
	for _, inv := range invoices {
		sum = sum.Add(decimal.NewFromFloat(inv.GrandTotal))
	}
	return sum.InexactFloat64()
}

func recent(invoices []models.Invoice) []models.Invoice {
	n := min(len(invoices), recentLimit)
	out := make([]models.Invoice, 0, n)
	for i := len(invoices) - 1; i >= len(invoices)-n; i-- {
		out = append(out, invoices[i])
	}
	return out
}

func uniqueCustomers(invoices []models.Invoice) int {
	phones := make(map[string]struct{})
	for _, inv := range invoices {
		if inv.Customer.Phone != "" {
			phones[inv.Customer.Phone] = struct{}{}
		}
	}
	return len(phones)
}

// topProducts ranks item names by quantity sold; ties keep first-seen order.
func topProducts(invoices []models.Invoice) []ProductSales {
	index := make(map[string]int)
	sales := []ProductSales{}
	for _, inv := range invoices {
		for _, it := range inv.Items {
			i, ok := index[it.Name]
			if !ok {
				i = len(sales)
				index[it.Name] = i
				sales = append(sales, ProductSales{Name: it.Name})
			}
			sales[i].Quantity += it.Quantity
		}
	}
	sort.SliceStable(sales, func(a, b int) bool { return sales[a].Quantity > sales[b].Quantity })
	if len(sales) > topLimit {
		sales = sales[:topLimit]
	}
	return sales
}

// SalesTrends returns one entry per day for the seven calendar days ending
// on now's day, summing grand totals of invoices created on each day.
func SalesTrends(invoices []models.Invoice, now time.Time) []DailySales {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	totals := make(map[string]decimal.Decimal, trendDays)
	for _, inv := range invoices {
		day := inv.CreatedAt.In(loc).Format(dateLayout)
		totals[day] = totals[day].Add(decimal.NewFromFloat(inv.GrandTotal))
	}

	trend := make([]DailySales, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dateLayout)
		trend = append(trend, DailySales{Date: day, Total: totals[day].InexactFloat64()})
	}
	return trend
}
