package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/pos-ledger/internal/domain"
)

// SaleSource is the slice of the sale ledger the aggregator needs.
type SaleSource interface {
	LoadAll(ctx context.Context) ([]domain.SaleRecord, error)
}

// Summary aggregates a set of sales.
type Summary struct {
	Transactions  int
	GrossTotal    decimal.Decimal // sum of TotalAmount
	DiscountTotal decimal.Decimal // sum of DiscountAmount
	NetTotal      decimal.Decimal // sum of FinalAmount
}

// Aggregator answers read-only questions over the sale ledger: date
// range filters and summary statistics. It never mutates anything.
type Aggregator struct {
	sales SaleSource
	now   func() time.Time
}

// NewAggregator wires an aggregator over a sale source.
func NewAggregator(sales SaleSource) *Aggregator {
	return &Aggregator{sales: sales, now: time.Now}
}

// AllSales returns the full history in ledger order.
func (a *Aggregator) AllSales(ctx context.Context) ([]domain.SaleRecord, error) {
	return a.sales.LoadAll(ctx)
}

// SalesInRange filters the history by timestamp, both bounds inclusive,
// preserving ledger order.
func (a *Aggregator) SalesInRange(ctx context.Context, start, end time.Time) ([]domain.SaleRecord, error) {
	all, err := a.sales.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("SalesInRange: %w", err)
	}
	var out []domain.SaleRecord
	for _, s := range all {
		if s.Timestamp.Before(start) || s.Timestamp.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// SalesForDate returns the sales of one calendar day.
func (a *Aggregator) SalesForDate(ctx context.Context, date time.Time) ([]domain.SaleRecord, error) {
	start := startOfDay(date)
	return a.SalesInRange(ctx, start, endOfDay(date))
}

// SalesForCurrentDay returns today's sales.
func (a *Aggregator) SalesForCurrentDay(ctx context.Context) ([]domain.SaleRecord, error) {
	return a.SalesForDate(ctx, a.now())
}

// SalesForCurrentWeek returns this week's sales, Monday through Sunday inclusive.
func (a *Aggregator) SalesForCurrentWeek(ctx context.Context) ([]domain.SaleRecord, error) {
	today := a.now()
	daysSinceMonday := (int(today.Weekday()) + 6) % 7
	monday := startOfDay(today).AddDate(0, 0, -daysSinceMonday)
	sunday := endOfDay(monday.AddDate(0, 0, 6))
	return a.SalesInRange(ctx, monday, sunday)
}

// SalesForCurrentMonth returns this month's sales, first through last day inclusive.
func (a *Aggregator) SalesForCurrentMonth(ctx context.Context) ([]domain.SaleRecord, error) {
	today := a.now()
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	last := endOfDay(first.AddDate(0, 1, -1))
	return a.SalesInRange(ctx, first, last)
}

// Summarize sums totals over the given sales. An empty input yields an
// all-zero summary, never an error.
func Summarize(sales []domain.SaleRecord) Summary {
	s := Summary{
		GrossTotal:    decimal.Zero,
		DiscountTotal: decimal.Zero,
		NetTotal:      decimal.Zero,
	}
	for _, rec := range sales {
		s.Transactions++
		s.GrossTotal = s.GrossTotal.Add(rec.TotalAmount)
		s.DiscountTotal = s.DiscountTotal.Add(rec.DiscountAmount)
		s.NetTotal = s.NetTotal.Add(rec.FinalAmount)
	}
	return s
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
