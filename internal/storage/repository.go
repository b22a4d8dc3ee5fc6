package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist for the given user.
var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Transactions

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, amount_cents, description, category_id, date, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Amount.Cents, t.Description, t.CategoryID,
		t.Date.String(), string(t.Kind), t.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount_cents, description, category_id, date, kind, created_at
		 FROM transactions WHERE user_id = ? AND id = ?`, userID, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, description, category_id, date, kind, created_at
		 FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, description = ?, category_id = ?, date = ?, kind = ?
		 WHERE user_id = ? AND id = ?`,
		t.Amount.Cents, t.Description, t.CategoryID, t.Date.String(), string(t.Kind),
		t.UserID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// Categories

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color, icon) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Color, c.Icon)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// defaultCategories is the starting set a fresh user begins with. The
// migration seeds it for the built-in 'local' user; any other configured
// default user gets the same set on first startup.
var defaultCategories = []core.Category{
	{Name: "Food & Dining", Color: "#F59E0B", Icon: "UtensilsCrossed"},
	{Name: "Transportation", Color: "#3B82F6", Icon: "Car"},
	{Name: "Shopping", Color: "#EF4444", Icon: "ShoppingBag"},
	{Name: "Entertainment", Color: "#8B5CF6", Icon: "Gamepad2"},
	{Name: "Bills & Utilities", Color: "#06B6D4", Icon: "Receipt"},
	{Name: "Healthcare", Color: "#10B981", Icon: "Heart"},
	{Name: "Education", Color: "#F97316", Icon: "GraduationCap"},
	{Name: "Salary", Color: "#22C55E", Icon: "DollarSign"},
	{Name: "Other", Color: "#6B7280", Icon: "MoreHorizontal"},
}

// EnsureDefaultCategories seeds the default category set for a user that has
// none yet. Idempotent, safe to call on every startup.
func (r *SQLiteRepository) EnsureDefaultCategories(ctx context.Context, userID string) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, c := range defaultCategories {
		c.ID = uuid.NewString()
		c.UserID = userID
		if err := r.CreateCategory(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color, icon FROM categories WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, icon = ? WHERE user_id = ? AND id = ?`,
		c.Name, c.Color, c.Icon, c.UserID, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

// DeleteCategory removes the category only. Transactions keep their stale
// category_id and fall back to Unknown at read time.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

// Budgets

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category_id, limit_cents, alert_threshold, month, year)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CategoryID, b.Limit.Cents, b.AlertThreshold, b.Month, b.Year)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, limit_cents, alert_threshold, month, year
		 FROM budgets WHERE user_id = ? ORDER BY year, month, category_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Limit.Cents, &b.AlertThreshold, &b.Month, &b.Year); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, limit_cents = ?, alert_threshold = ?, month = ?, year = ?
		 WHERE user_id = ? AND id = ?`,
		b.CategoryID, b.Limit.Cents, b.AlertThreshold, b.Month, b.Year, b.UserID, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

// Recurring rules

func (r *SQLiteRepository) CreateRecurringRule(ctx context.Context, rule core.RecurringRule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_rules (id, user_id, amount_cents, description, category_id, frequency, start_date, end_date, active, last_executed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.UserID, rule.Amount.Cents, rule.Description, rule.CategoryID,
		string(rule.Frequency), rule.StartDate.String(), nullableDate(rule.EndDate),
		boolToInt(rule.Active), nullableTime(rule.LastExecuted))
	if err != nil {
		return fmt.Errorf("insert recurring rule: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRecurringRules(ctx context.Context, userID string) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, description, category_id, frequency, start_date, end_date, active, last_executed
		 FROM recurring_rules WHERE user_id = ? ORDER BY start_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringRule
	for rows.Next() {
		rule, err := scanRecurringRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateRecurringRule(ctx context.Context, rule core.RecurringRule) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules
		 SET amount_cents = ?, description = ?, category_id = ?, frequency = ?, start_date = ?, end_date = ?, active = ?, last_executed = ?
		 WHERE user_id = ? AND id = ?`,
		rule.Amount.Cents, rule.Description, rule.CategoryID, string(rule.Frequency),
		rule.StartDate.String(), nullableDate(rule.EndDate), boolToInt(rule.Active),
		nullableTime(rule.LastExecuted), rule.UserID, rule.ID)
	if err != nil {
		return fmt.Errorf("update recurring rule: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) SetRecurringRuleActive(ctx context.Context, userID, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET active = ? WHERE user_id = ? AND id = ?`,
		boolToInt(active), userID, id)
	if err != nil {
		return fmt.Errorf("set recurring rule active: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteRecurringRule(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_rules WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	return requireRow(res)
}

// scanners

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		kind      string
		date      string
		createdAt string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount.Cents, &t.Description, &t.CategoryID, &date, &kind, &createdAt); err != nil {
		return core.Transaction{}, err
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	t.Date = d
	t.Kind = core.Kind(kind)

	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	t.CreatedAt = created

	return t, nil
}

func scanRecurringRule(row rowScanner) (core.RecurringRule, error) {
	var (
		rule         core.RecurringRule
		frequency    string
		startDate    string
		endDate      sql.NullString
		active       int
		lastExecuted sql.NullString
	)
	if err := row.Scan(&rule.ID, &rule.UserID, &rule.Amount.Cents, &rule.Description, &rule.CategoryID,
		&frequency, &startDate, &endDate, &active, &lastExecuted); err != nil {
		return core.RecurringRule{}, err
	}

	rule.Frequency = core.Frequency(frequency)
	rule.Active = active != 0

	start, err := core.ParseDate(startDate)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("parse start_date %q: %w", startDate, err)
	}
	rule.StartDate = start

	if endDate.Valid && endDate.String != "" {
		end, err := core.ParseDate(endDate.String)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("parse end_date %q: %w", endDate.String, err)
		}
		rule.EndDate = end
	}

	if lastExecuted.Valid && lastExecuted.String != "" {
		last, err := time.Parse(time.RFC3339, lastExecuted.String)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("parse last_executed %q: %w", lastExecuted.String, err)
		}
		rule.LastExecuted = &last
	}

	return rule, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
