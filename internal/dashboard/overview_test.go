package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/diewo77/go-retail/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func inv(number, phone string, total float64, at time.Time, items ...models.InvoiceItem) models.Invoice {
	return models.Invoice{
		InvoiceNumber: number,
		Customer:      models.Customer{Name: "C " + number, Phone: phone},
		GrandTotal:    total,
		CreatedAt:     at,
		Items:         items,
	}
}

func item(name string, qty int) models.InvoiceItem {
	return models.InvoiceItem{Name: name, Quantity: qty}
}

func TestComputeOverviewEmpty(t *testing.T) {
	ov := ComputeOverview(nil, CatalogSnapshot{}, now)

	assert.Zero(t, ov.TotalRevenue)
	assert.Zero(t, ov.TotalInvoices)
	assert.Zero(t, ov.AvgInvoiceValue)
	assert.Zero(t, ov.TotalCustomers)
	assert.NotNil(t, ov.TopProducts)
	assert.Empty(t, ov.TopProducts)
	assert.NotNil(t, ov.RecentInvoices)
	assert.NotNil(t, ov.LowStockProducts)
	require.Len(t, ov.SalesTrends, 7)
	for _, d := range ov.SalesTrends {
		assert.Zero(t, d.Total)
	}
}

func TestComputeOverviewTotals(t *testing.T) {
	invoices := []models.Invoice{
		inv("1", "111", 100, now.Add(-2*time.Hour), item("Pen", 2)),
		inv("2", "222", 50, now.Add(-time.Hour), item("Pen", 1), item("Milk", 4)),
		inv("3", "111", 30.5, now, item("Soap", 1)),
		inv("4", "", 19.5, now, item("Soap", 1)),
	}
	lowStock := []models.Product{{Name: "Milk", Quantity: 2}}
	ov := ComputeOverview(invoices, CatalogSnapshot{TotalProducts: 12, LowStock: lowStock}, now)

	assert.EqualValues(t, 12, ov.TotalProducts)
	assert.Equal(t, 4, ov.TotalInvoices)
	assert.Equal(t, 200.0, ov.TotalRevenue)
	assert.Equal(t, 50.0, ov.AvgInvoiceValue)
	assert.Equal(t, 2, ov.TotalCustomers, "repeat and empty phones are not counted twice")
	assert.Equal(t, lowStock, ov.LowStockProducts)
	assert.Equal(t, []ProductSales{{"Milk", 4}, {"Pen", 3}, {"Soap", 2}}, ov.TopProducts)
}

func TestRecentInvoicesNewestFirst(t *testing.T) {
	var invoices []models.Invoice
	for i := 1; i <= 7; i++ {
		invoices = append(invoices, inv(fmt.Sprint(i), "", 1, now, item("x", 1)))
	}
	ov := ComputeOverview(invoices, CatalogSnapshot{}, now)

	require.Len(t, ov.RecentInvoices, 5)
	var got []string
	for _, r := range ov.RecentInvoices {
		got = append(got, r.InvoiceNumber)
	}
	assert.Equal(t, []string{"7", "6", "5", "4", "3"}, got)

	short := ComputeOverview(invoices[:2], CatalogSnapshot{}, now)
	require.Len(t, short.RecentInvoices, 2)
	assert.Equal(t, "2", short.RecentInvoices[0].InvoiceNumber)
}

func TestTopProductsLimitAndStableTies(t *testing.T) {
	invoices := []models.Invoice{
		inv("1", "", 1, now, item("A", 1), item("B", 5), item("C", 1), item("D", 1)),
		inv("2", "", 1, now, item("E", 1), item("F", 1), item("G", 9)),
	}
	top := topProducts(invoices)

	require.Len(t, top, 5)
	assert.Equal(t, []ProductSales{{"G", 9}, {"B", 5}, {"A", 1}, {"C", 1}, {"D", 1}}, top)
	for i := 1; i < len(top); i++ {
		assert.LessOrEqual(t, top[i].Quantity, top[i-1].Quantity)
	}
}

func TestSalesTrends(t *testing.T) {
	invoices := []models.Invoice{
		inv("1", "", 100, now.Add(-3*time.Hour)),
		inv("2", "", 50, now.Add(-4*time.Hour)),
		inv("3", "", 25, now.AddDate(0, 0, -6)),
		inv("4", "", 999, now.AddDate(0, 0, -7)),
		inv("5", "", 10, now.AddDate(0, 0, 1)),
	}
	trend := SalesTrends(invoices, now)

	require.Len(t, trend, 7)
	assert.Equal(t, "2025-03-04", trend[0].Date)
	assert.Equal(t, "2025-03-10", trend[6].Date)
	assert.Equal(t, 25.0, trend[0].Total)
	assert.Equal(t, 150.0, trend[6].Total, "two invoices on the same day are summed")
	for i := 1; i < len(trend); i++ {
		prev, _ := time.Parse(dateLayout, trend[i-1].Date)
		cur, _ := time.Parse(dateLayout, trend[i].Date)
		assert.Equal(t, 24*time.Hour, cur.Sub(prev))
	}
}

func TestSalesTrendsUseNowLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	localNow := time.Date(2025, 3, 10, 1, 0, 0, 0, ist)
	// 20:00 UTC on the 9th is 01:30 on the 10th in IST.
	invoices := []models.Invoice{inv("1", "", 40, time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC))}

	trend := SalesTrends(invoices, localNow)
	assert.Equal(t, "2025-03-10", trend[6].Date)
	assert.Equal(t, 40.0, trend[6].Total)
}

func TestTrendsAcrossMonthBoundary(t *testing.T) {
	trend := SalesTrends(nil, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-25", trend[0].Date)
	assert.Equal(t, "2024-02-29", trend[4].Date)
	assert.Equal(t, "2024-03-02", trend[6].Date)
}
