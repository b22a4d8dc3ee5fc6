package http

import (
	"fmt"
	"time"

	"bilancio/internal/core"
)

// moneyJSON renders an amount both as integer cents and as a decimal
// string, so clients never have to do float arithmetic.
type moneyJSON struct {
	Cents   int64  `json:"cents"`
	Decimal string `json:"decimal"`
}

func toMoneyJSON(m core.Money) moneyJSON {
	return moneyJSON{Cents: m.Cents, Decimal: m.DecimalString()}
}

// transactions

type transactionRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
}

func (req transactionRequest) toDomain() (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}

	return core.Transaction{
		Amount:      core.Money{Cents: cents},
		Description: sanitizeInput(req.Description),
		CategoryID:  sanitizeInput(req.CategoryID),
		Date:        date,
		Kind:        core.Kind(req.Kind),
	}, nil
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Amount      moneyJSON `json:"amount"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Date        string    `json:"date"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Amount:      toMoneyJSON(t.Amount),
		Description: t.Description,
		CategoryID:  t.CategoryID,
		Date:        t.Date.String(),
		Kind:        string(t.Kind),
		CreatedAt:   t.CreatedAt,
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

// categories

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (req categoryRequest) toDomain() core.Category {
	return core.Category{
		Name:  sanitizeInput(req.Name),
		Color: sanitizeInput(req.Color),
		Icon:  sanitizeInput(req.Icon),
	}
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon}
}

// budgets

type budgetRequest struct {
	CategoryID     string `json:"category_id"`
	Limit          string `json:"limit"`
	AlertThreshold int    `json:"alert_threshold"`
	Month          int    `json:"month"`
	Year           int    `json:"year"`
}

func (req budgetRequest) toDomain() (core.Budget, error) {
	cents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		return core.Budget{}, fmt.Errorf("limit: %w", err)
	}

	threshold := req.AlertThreshold
	if threshold == 0 {
		threshold = core.DefaultAlertThreshold
	}

	return core.Budget{
		CategoryID:     sanitizeInput(req.CategoryID),
		Limit:          core.Money{Cents: cents},
		AlertThreshold: threshold,
		Month:          req.Month,
		Year:           req.Year,
	}, nil
}

type budgetResponse struct {
	ID             string    `json:"id"`
	CategoryID     string    `json:"category_id"`
	Limit          moneyJSON `json:"limit"`
	AlertThreshold int       `json:"alert_threshold"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:             b.ID,
		CategoryID:     b.CategoryID,
		Limit:          toMoneyJSON(b.Limit),
		AlertThreshold: b.AlertThreshold,
		Month:          b.Month,
		Year:           b.Year,
	}
}

// recurring rules

type recurringRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

func (req recurringRequest) toDomain() (core.RecurringRule, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("amount: %w", err)
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("start_date: %w", err)
	}

	rule := core.RecurringRule{
		Amount:      core.Money{Cents: cents},
		Description: sanitizeInput(req.Description),
		CategoryID:  sanitizeInput(req.CategoryID),
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   start,
		Active:      true,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if req.EndDate != "" {
		end, err := core.ParseDate(req.EndDate)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("end_date: %w", err)
		}
		rule.EndDate = end
	}

	return rule, nil
}

type recurringResponse struct {
	ID           string     `json:"id"`
	Amount       moneyJSON  `json:"amount"`
	Description  string     `json:"description"`
	CategoryID   string     `json:"category_id"`
	Frequency    string     `json:"frequency"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date,omitempty"`
	Active       bool       `json:"active"`
	LastExecuted *time.Time `json:"last_executed,omitempty"`
}

func toRecurringResponse(r core.RecurringRule) recurringResponse {
	resp := recurringResponse{
		ID:           r.ID,
		Amount:       toMoneyJSON(r.Amount),
		Description:  r.Description,
		CategoryID:   r.CategoryID,
		Frequency:    string(r.Frequency),
		StartDate:    r.StartDate.String(),
		Active:       r.Active,
		LastExecuted: r.LastExecuted,
	}
	if !r.EndDate.IsZero() {
		resp.EndDate = r.EndDate.String()
	}
	return resp
}
