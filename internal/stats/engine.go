// Package stats is the aggregation engine: pure functions that derive
// financial metrics from an immutable snapshot of transactions, categories,
// budgets and recurring rules. Functions here never perform I/O, never block
// and never mutate their inputs; callers re-fetch and recompute instead of
// patching results.
package stats

import (
	"fmt"
	"sort"
	"time"

	"bilancio/internal/core"
)

// Summary holds the headline totals over a transaction set.
type Summary struct {
	TotalIncome   core.Money
	TotalExpenses core.Money
	// NetAmount is signed: income minus expenses. Presentation decides how
	// to render a negative balance.
	NetAmount core.Money
	// MonthlyExpenses sums expense transactions whose own date falls in the
	// calendar month/year of the reference date (not a rolling window).
	MonthlyExpenses core.Money
}

// ComputeSummary derives totals from a transaction set. An empty set yields
// the zero Summary, never an error.
func ComputeSummary(txs []core.Transaction, ref time.Time) Summary {
	var s Summary
	refYear, refMonth := ref.Year(), ref.Month()
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case core.Expense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
			if tx.Date.SameMonth(refYear, refMonth) {
				s.MonthlyExpenses = s.MonthlyExpenses.Add(tx.Amount)
			}
		}
	}
	s.NetAmount = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// Breakdown maps category identifiers to summed expense amounts while
// preserving first-encounter insertion order. The order is what breaks ties
// when ranking: two categories with equal totals keep the order in which they
// first appeared in the transaction set.
type Breakdown struct {
	order  []string
	totals map[string]int64
}

// ComputeCategoryBreakdown sums expense-kind transactions per category.
// Income is excluded entirely: the breakdown is a spending-analysis view.
// Keys are the category IDs found on transactions, even when no matching
// Category record exists; consumers substitute the Unknown placeholder.
func ComputeCategoryBreakdown(txs []core.Transaction) *Breakdown {
	b := &Breakdown{totals: make(map[string]int64)}
	for _, tx := range txs {
		if tx.Kind != core.Expense {
			continue
		}
		if _, seen := b.totals[tx.CategoryID]; !seen {
			b.order = append(b.order, tx.CategoryID)
		}
		b.totals[tx.CategoryID] += tx.Amount.Cents
	}
	return b
}

// Amount returns the summed expense amount for a category ID.
func (b *Breakdown) Amount(categoryID string) (core.Money, bool) {
	cents, ok := b.totals[categoryID]
	return core.Money{Cents: cents}, ok
}

// CategoryIDs returns the category IDs in first-encounter order.
func (b *Breakdown) CategoryIDs() []string {
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	return ids
}

// Total returns the sum over all categories, which by construction equals the
// total expenses of the underlying transaction set.
func (b *Breakdown) Total() core.Money {
	var total int64
	for _, cents := range b.totals {
		total += cents
	}
	return core.Money{Cents: total}
}

// Len returns the number of distinct categories in the breakdown.
func (b *Breakdown) Len() int {
	return len(b.order)
}

// RankedCategory is one entry of a top-spending ranking, with the category
// resolved to its display name and color.
type RankedCategory struct {
	CategoryID string
	Name       string
	Amount     core.Money
	Color      string
}

// RankTopCategories orders breakdown entries by descending amount and
// truncates to limit. The sort is stable: equal amounts keep the breakdown's
// insertion order. Categories without a matching record get the Unknown name
// and the neutral gray color. Limit is a parameter because different views
// want different depths (the dashboard shows 4, analytics 5).
func RankTopCategories(b *Breakdown, categories []core.Category, limit int) []RankedCategory {
	ids := b.CategoryIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return b.totals[ids[i]] > b.totals[ids[j]]
	})
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	lookup := core.CategoryByID(categories)
	ranked := make([]RankedCategory, 0, len(ids))
	for _, id := range ids {
		entry := RankedCategory{
			CategoryID: id,
			Name:       core.UnknownCategoryName,
			Amount:     core.Money{Cents: b.totals[id]},
			Color:      core.NeutralColor,
		}
		if cat, ok := lookup[id]; ok {
			entry.Name = cat.Name
			entry.Color = cat.Color
		}
		ranked = append(ranked, entry)
	}
	return ranked
}

// MonthBucket is one calendar month of the trend, with independent expense
// and income totals.
type MonthBucket struct {
	Year      int
	Month     time.Month
	PeriodKey string // YYYY-MM
	Expenses  core.Money
	Income    core.Money
}

// ComputeMonthlyTrend buckets transactions into exactly monthCount consecutive
// calendar months ending at the reference date's month (inclusive), oldest
// first. Months with no transactions still appear with zero totals.
func ComputeMonthlyTrend(txs []core.Transaction, ref time.Time, monthCount int) []MonthBucket {
	if monthCount <= 0 {
		return nil
	}

	buckets := make([]MonthBucket, monthCount)
	index := make(map[string]int, monthCount)
	for i := 0; i < monthCount; i++ {
		// time.Date normalizes out-of-range months, so walking backwards
		// across year boundaries is safe.
		m := time.Date(ref.Year(), ref.Month()-time.Month(monthCount-1-i), 1, 0, 0, 0, 0, time.UTC)
		key := fmt.Sprintf("%04d-%02d", m.Year(), int(m.Month()))
		buckets[i] = MonthBucket{Year: m.Year(), Month: m.Month(), PeriodKey: key}
		index[key] = i
	}

	for _, tx := range txs {
		key := fmt.Sprintf("%04d-%02d", tx.Date.Year(), int(tx.Date.Month()))
		i, ok := index[key]
		if !ok {
			continue
		}
		switch tx.Kind {
		case core.Expense:
			buckets[i].Expenses = buckets[i].Expenses.Add(tx.Amount)
		case core.Income:
			buckets[i].Income = buckets[i].Income.Add(tx.Amount)
		}
	}
	return buckets
}

// BudgetStatus is the utilization of one budget for the reference month.
type BudgetStatus struct {
	BudgetID     string
	CategoryName string
	Limit        core.Money
	Spent        core.Money
	// Percentage is the display value, rounded half-up to a whole number.
	// The alert comparison below uses the unrounded ratio, so a budget at
	// 79.6% of an 80% threshold displays "80%" but does not alert.
	Percentage int
	IsAlert    bool
	// Misconfigured flags a non-positive limit. Creation-time validation
	// rejects those, but budgets predating that check (or written by other
	// tools) must not crash the engine or leak a non-finite percentage.
	Misconfigured bool
	Color         string
}

// ComputeBudgetStatus reports utilization for every budget matching the
// reference date's calendar month and year. Spent sums expense-kind
// transactions in the budget's category within that month. Output order
// matches input budget order; no re-sort.
func ComputeBudgetStatus(budgets []core.Budget, txs []core.Transaction, categories []core.Category, ref time.Time) []BudgetStatus {
	refYear := ref.Year()
	refMonth0 := int(ref.Month()) - 1 // budgets store 0-indexed months

	lookup := core.CategoryByID(categories)
	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		if b.Year != refYear || b.Month != refMonth0 {
			continue
		}

		var spent int64
		for _, tx := range txs {
			if tx.Kind != core.Expense || tx.CategoryID != b.CategoryID {
				continue
			}
			if tx.Date.SameMonth(refYear, ref.Month()) {
				spent += tx.Amount.Cents
			}
		}

		status := BudgetStatus{
			BudgetID:     b.ID,
			CategoryName: core.UnknownCategoryName,
			Limit:        b.Limit,
			Spent:        core.Money{Cents: spent},
			Color:        core.NeutralColor,
		}
		if cat, ok := lookup[b.CategoryID]; ok {
			status.CategoryName = cat.Name
			status.Color = cat.Color
		}

		if b.Limit.Cents <= 0 {
			// Percentage stays 0 and no alert fires; the flag tells the
			// presentation layer to render the budget as misconfigured.
			status.Misconfigured = true
		} else {
			status.Percentage = roundedPercent(spent, b.Limit.Cents)
			// Unrounded comparison: 100*spent/limit >= threshold, kept in
			// integer math to avoid off-by-one alerting from the rounded
			// display value.
			status.IsAlert = 100*spent >= int64(b.AlertThreshold)*b.Limit.Cents
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// roundedPercent computes round(spent/limit*100) half-up in pure integer
// arithmetic. limit must be positive.
func roundedPercent(spent, limit int64) int {
	return int((200*spent + limit) / (2 * limit))
}

// ProjectMonthlyEquivalent sums active recurring rules with monthly or yearly
// frequency. Daily and weekly rules are deliberately excluded: the projection
// covers rent-like fixed costs, and shorter cadences are not normalized into
// a monthly figure.
func ProjectMonthlyEquivalent(rules []core.RecurringRule) core.Money {
	var total core.Money
	for _, r := range rules {
		if !r.Active {
			continue
		}
		switch r.Frequency {
		case core.Monthly, core.Yearly:
			total = total.Add(r.Amount)
		}
	}
	return total
}
