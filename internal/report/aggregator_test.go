package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/pos-ledger/internal/domain"
)

// mockSaleSource serves a fixed history.
type mockSaleSource struct {
	sales []domain.SaleRecord
}

func (m *mockSaleSource) LoadAll(ctx context.Context) ([]domain.SaleRecord, error) {
	return m.sales, nil
}

func saleAt(t *testing.T, id string, ts time.Time, total, discount string) domain.SaleRecord {
	t.Helper()
	tot := decimal.RequireFromString(total)
	disc := decimal.RequireFromString(discount)
	return domain.SaleRecord{
		SaleID:         id,
		Timestamp:      ts,
		TotalAmount:    tot,
		DiscountAmount: disc,
		FinalAmount:    tot.Sub(disc),
	}
}

func fixedAggregator(src SaleSource, now time.Time) *Aggregator {
	a := NewAggregator(src)
	a.now = func() time.Time { return now }
	return a
}

func TestSalesInRange_InclusiveBounds(t *testing.T) {
	start := time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)
	end := time.Date(2024, 3, 6, 0, 0, 0, 0, time.Local)
	src := &mockSaleSource{sales: []domain.SaleRecord{
		saleAt(t, "before", start.Add(-time.Nanosecond), "1", "0"),
		saleAt(t, "at-start", start, "1", "0"),
		saleAt(t, "inside", start.Add(12*time.Hour), "1", "0"),
		saleAt(t, "at-end", end, "1", "0"),
		saleAt(t, "after", end.Add(time.Nanosecond), "1", "0"),
	}}

	got, err := NewAggregator(src).SalesInRange(context.Background(), start, end)
	if err != nil {
		t.Fatalf("SalesInRange failed: %v", err)
	}
	want := []string{"at-start", "inside", "at-end"}
	if len(got) != len(want) {
		t.Fatalf("expected %d sales, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].SaleID != id {
			t.Errorf("sale %d = %s, want %s (ledger order must be preserved)", i, got[i].SaleID, id)
		}
	}
}

func TestSalesForCurrentDay(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 0, 0, 0, time.Local)
	src := &mockSaleSource{sales: []domain.SaleRecord{
		saleAt(t, "yesterday", now.AddDate(0, 0, -1), "1", "0"),
		saleAt(t, "midnight", time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), "1", "0"),
		saleAt(t, "late", time.Date(2024, 3, 5, 23, 59, 59, 0, time.Local), "1", "0"),
		saleAt(t, "tomorrow", now.AddDate(0, 0, 1), "1", "0"),
	}}

	got, err := fixedAggregator(src, now).SalesForCurrentDay(context.Background())
	if err != nil {
		t.Fatalf("SalesForCurrentDay failed: %v", err)
	}
	if len(got) != 2 || got[0].SaleID != "midnight" || got[1].SaleID != "late" {
		t.Errorf("unexpected day window: %+v", got)
	}
}

func TestSalesForCurrentWeek(t *testing.T) {
	// 2024-03-06 is a Wednesday; the week is Mon 2024-03-04 .. Sun 2024-03-10.
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.Local)
	src := &mockSaleSource{sales: []domain.SaleRecord{
		saleAt(t, "prev-sunday", time.Date(2024, 3, 3, 23, 0, 0, 0, time.Local), "1", "0"),
		saleAt(t, "monday", time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local), "1", "0"),
		saleAt(t, "sunday", time.Date(2024, 3, 10, 23, 59, 0, 0, time.Local), "1", "0"),
		saleAt(t, "next-monday", time.Date(2024, 3, 11, 0, 0, 0, 0, time.Local), "1", "0"),
	}}

	got, err := fixedAggregator(src, now).SalesForCurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("SalesForCurrentWeek failed: %v", err)
	}
	if len(got) != 2 || got[0].SaleID != "monday" || got[1].SaleID != "sunday" {
		t.Errorf("unexpected week window: %+v", got)
	}
}

func TestSalesForCurrentWeek_OnSunday(t *testing.T) {
	// On a Sunday the week still starts the previous Monday.
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	src := &mockSaleSource{sales: []domain.SaleRecord{
		saleAt(t, "monday", time.Date(2024, 3, 4, 8, 0, 0, 0, time.Local), "1", "0"),
	}}

	got, err := fixedAggregator(src, now).SalesForCurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("SalesForCurrentWeek failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected Monday's sale in the window, got %+v", got)
	}
}

func TestSalesForCurrentMonth(t *testing.T) {
	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.Local)
	src := &mockSaleSource{sales: []domain.SaleRecord{
		saleAt(t, "january", time.Date(2024, 1, 31, 23, 59, 0, 0, time.Local), "1", "0"),
		saleAt(t, "first", time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), "1", "0"),
		saleAt(t, "leap-day", time.Date(2024, 2, 29, 23, 0, 0, 0, time.Local), "1", "0"),
		saleAt(t, "march", time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), "1", "0"),
	}}

	got, err := fixedAggregator(src, now).SalesForCurrentMonth(context.Background())
	if err != nil {
		t.Fatalf("SalesForCurrentMonth failed: %v", err)
	}
	if len(got) != 2 || got[0].SaleID != "first" || got[1].SaleID != "leap-day" {
		t.Errorf("unexpected month window: %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)
	sales := []domain.SaleRecord{
		saleAt(t, "a", base, "15.00", "1.50"),
		saleAt(t, "b", base, "20.00", "0"),
	}

	s := Summarize(sales)
	if s.Transactions != 2 {
		t.Errorf("transactions = %d, want 2", s.Transactions)
	}
	if !s.GrossTotal.Equal(decimal.RequireFromString("35.00")) {
		t.Errorf("gross = %s, want 35.00", s.GrossTotal)
	}
	if !s.DiscountTotal.Equal(decimal.RequireFromString("1.50")) {
		t.Errorf("discounts = %s, want 1.50", s.DiscountTotal)
	}
	if !s.NetTotal.Equal(decimal.RequireFromString("33.50")) {
		t.Errorf("net = %s, want 33.50", s.NetTotal)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Transactions != 0 || !s.GrossTotal.IsZero() || !s.DiscountTotal.IsZero() || !s.NetTotal.IsZero() {
		t.Errorf("expected an all-zero summary, got %+v", s)
	}
}
