package http

import (
	"net/http"

	"bilancio/internal/stats"
)

type summaryResponse struct {
	TotalIncome     moneyJSON `json:"total_income"`
	TotalExpenses   moneyJSON `json:"total_expenses"`
	NetAmount       moneyJSON `json:"net_amount"`
	MonthlyExpenses moneyJSON `json:"monthly_expenses"`
}

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary := stats.ComputeSummary(snap.Transactions, referenceTime(r))
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalIncome:     toMoneyJSON(summary.TotalIncome),
		TotalExpenses:   toMoneyJSON(summary.TotalExpenses),
		NetAmount:       toMoneyJSON(summary.NetAmount),
		MonthlyExpenses: toMoneyJSON(summary.MonthlyExpenses),
	})
}

type rankedCategoryResponse struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Amount     moneyJSON `json:"amount"`
	Color      string    `json:"color"`
}

func (s *Server) handleStatsTopCategories(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5)
	if limit < 1 {
		limit = 5
	}

	snap, err := s.snapshot(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	breakdown := stats.ComputeCategoryBreakdown(snap.Transactions)
	ranked := stats.RankTopCategories(breakdown, snap.Categories, limit)

	out := make([]rankedCategoryResponse, 0, len(ranked))
	for _, rc := range ranked {
		out = append(out, rankedCategoryResponse{
			CategoryID: rc.CategoryID,
			Name:       rc.Name,
			Amount:     toMoneyJSON(rc.Amount),
			Color:      rc.Color,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type trendBucketResponse struct {
	Period   string    `json:"period"`
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	Expenses moneyJSON `json:"expenses"`
	Income   moneyJSON `json:"income"`
}

func (s *Server) handleStatsTrend(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months", 6)
	if months < 1 || months > 24 {
		months = 6
	}

	snap, err := s.snapshot(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	buckets := stats.ComputeMonthlyTrend(snap.Transactions, referenceTime(r), months)
	out := make([]trendBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, trendBucketResponse{
			Period:   b.PeriodKey,
			Year:     b.Year,
			Month:    int(b.Month),
			Expenses: toMoneyJSON(b.Expenses),
			Income:   toMoneyJSON(b.Income),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type budgetStatusResponse struct {
	BudgetID      string    `json:"budget_id"`
	CategoryName  string    `json:"category_name"`
	Limit         moneyJSON `json:"limit"`
	Spent         moneyJSON `json:"spent"`
	Percentage    int       `json:"percentage"`
	IsAlert       bool      `json:"is_alert"`
	Misconfigured bool      `json:"misconfigured,omitempty"`
	Color         string    `json:"color"`
}

func (s *Server) handleStatsBudgets(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	statuses := stats.ComputeBudgetStatus(snap.Budgets, snap.Transactions, snap.Categories, referenceTime(r))
	out := make([]budgetStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, budgetStatusResponse{
			BudgetID:      st.BudgetID,
			CategoryName:  st.CategoryName,
			Limit:         toMoneyJSON(st.Limit),
			Spent:         toMoneyJSON(st.Spent),
			Percentage:    st.Percentage,
			IsAlert:       st.IsAlert,
			Misconfigured: st.Misconfigured,
			Color:         st.Color,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type projectionResponse struct {
	MonthlyTotal moneyJSON `json:"monthly_total"`
}

func (s *Server) handleStatsRecurringProjection(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	total := stats.ProjectMonthlyEquivalent(snap.Rules)
	writeJSON(w, http.StatusOK, projectionResponse{MonthlyTotal: toMoneyJSON(total)})
}
