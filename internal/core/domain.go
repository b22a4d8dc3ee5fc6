package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// UnknownCategoryName and NeutralColor are the display fallbacks applied when a
// transaction references a category that no longer exists. The reference on the
// transaction stays as-is; the substitution happens at read time only.
const (
	UnknownCategoryName = "Unknown"
	NeutralColor        = "#6B7280"
)

// DefaultAlertThreshold is the budget alert percentage used when none is given.
const DefaultAlertThreshold = 80

type (
	// Kind distinguishes income from expense transactions. The amount is
	// always stored positive; the sign is derived from the kind.
	Kind string

	// Frequency is the repetition cadence of a recurring rule.
	Frequency string

	// Date is a calendar date with no time-of-day semantics (UTC midnight).
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single recorded income or expense event.
	// CategoryID is a weak reference: deleting the category leaves it in
	// place and display falls back to UnknownCategoryName.
	Transaction struct {
		ID          string
		UserID      string
		Amount      Money
		Description string
		CategoryID  string
		Date        Date
		Kind        Kind
		CreatedAt   time.Time
	}

	// Category is a user-owned label with a display color and icon. The
	// color and icon have no computational role; they are carried through
	// for presentation.
	Category struct {
		ID     string
		UserID string
		Name   string
		Color  string
		Icon   string
	}

	// Budget is a per-category spending limit for one calendar month.
	// Month is 0-indexed (0 = January), matching the stored representation.
	Budget struct {
		ID             string
		UserID         string
		CategoryID     string
		Limit          Money
		AlertThreshold int
		Month          int
		Year           int
	}

	// RecurringRule is a standing declaration of a periodic expense. It is
	// used only for the monthly-equivalent projection; nothing materializes
	// transactions from it.
	RecurringRule struct {
		ID           string
		UserID       string
		Amount       Money
		Description  string
		CategoryID   string
		Frequency    Frequency
		StartDate    Date
		EndDate      Date // zero when open-ended
		Active       bool
		LastExecuted *time.Time
	}

	// Snapshot is an immutable point-in-time materialization of a user's
	// collections. Callers hand it to the aggregation functions and re-fetch
	// rather than patching it in place.
	Snapshot struct {
		Transactions []Transaction
		Categories   []Category
		Budgets      []Budget
		Rules        []RecurringRule
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyCategory      = errors.New("empty category reference")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidBudgetLimit = errors.New("budget limit must be positive")
	ErrInvalidThreshold   = errors.New("alert threshold must be between 1 and 100")
	ErrInvalidMonth       = errors.New("month must be between 0 and 11")
	ErrInvalidYear        = errors.New("year out of range")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrNameTooLong        = errors.New("name too long (max 100 characters)")
	ErrInvalidDateRange   = errors.New("end date must not be before start date")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// SameMonth reports whether the date falls in the given calendar month/year.
func (d Date) SameMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference of two amounts. The result may be negative.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// Validate rejects degenerate budgets at creation time. A zero or negative
// limit would make the utilization percentage meaningless, so it is refused
// here instead of being papered over at read time.
func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if b.Limit.Cents <= 0 {
		return ErrInvalidBudgetLimit
	}
	if b.AlertThreshold < 1 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	if b.Month < 0 || b.Month > 11 {
		return ErrInvalidMonth
	}
	if b.Year < 1970 || b.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate.Time) {
		return ErrInvalidDateRange
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// CategoryByID builds a lookup from category ID to category. Consumers apply
// the Unknown placeholder themselves when a lookup misses; the model never
// substitutes silently.
func CategoryByID(categories []Category) map[string]Category {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}
