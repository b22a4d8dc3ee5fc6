package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func newTestService(t *testing.T) *TrackerService {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	// No AMQP client: change events are best-effort and must not be
	// required for any operation to succeed.
	svc := NewTrackerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestCreateTransactionAssignsIdentity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, "alice", core.Transaction{
		Amount:      core.Money{Cents: 2500},
		Description: "lunch",
		CategoryID:  "1",
		Date:        mustDate(t, "2024-06-01"),
		Kind:        core.Expense,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.ID == "" {
		t.Fatal("service should assign an ID")
	}
	if created.UserID != "alice" {
		t.Fatalf("user = %q, want alice", created.UserID)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("service should stamp creation time")
	}

	got, err := svc.GetTransaction(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "lunch" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		tx      core.Transaction
		wantErr error
	}{
		{
			name: "zero amount",
			tx: core.Transaction{
				Description: "x", CategoryID: "1",
				Date: mustDate(t, "2024-01-01"), Kind: core.Expense,
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "empty description",
			tx: core.Transaction{
				Amount: core.Money{Cents: 100}, CategoryID: "1",
				Date: mustDate(t, "2024-01-01"), Kind: core.Expense,
			},
			wantErr: core.ErrEmptyDescription,
		},
		{
			name: "bad kind",
			tx: core.Transaction{
				Amount: core.Money{Cents: 100}, Description: "x", CategoryID: "1",
				Date: mustDate(t, "2024-01-01"), Kind: "transfer",
			},
			wantErr: core.ErrInvalidKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTransaction(ctx, "alice", tt.tx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	txs, err := svc.ListTransactions(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("invalid transactions must not be persisted, found %d", len(txs))
	}
}

func TestUpdateTransactionPreservesCreatedAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, "alice", core.Transaction{
		Amount:      core.Money{Cents: 2500},
		Description: "lunch",
		CategoryID:  "1",
		Date:        mustDate(t, "2024-06-01"),
		Kind:        core.Expense,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Description = "team lunch"
	updated, err := svc.UpdateTransaction(ctx, "alice", created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("update must not change creation time: %v vs %v", updated.CreatedAt, created.CreatedAt)
	}

	if _, err := svc.UpdateTransaction(ctx, "bob", created); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cross-user update should fail with ErrNotFound, got %v", err)
	}
}

func TestSnapshotAssemblesAllEntities(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateTransaction(ctx, "alice", core.Transaction{
		Amount: core.Money{Cents: 100}, Description: "coffee", CategoryID: "1",
		Date: mustDate(t, "2024-01-01"), Kind: core.Expense,
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	cat, err := svc.CreateCategory(ctx, "alice", core.Category{Name: "Travel", Color: "#112233"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.CreateBudget(ctx, "alice", core.Budget{
		CategoryID: cat.ID, Limit: core.Money{Cents: 5000}, AlertThreshold: 80, Month: 0, Year: 2024,
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := svc.CreateRecurringRule(ctx, "alice", core.RecurringRule{
		Amount: core.Money{Cents: 999}, Description: "music", CategoryID: cat.ID,
		Frequency: core.Monthly, StartDate: mustDate(t, "2024-01-01"), Active: true,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	snap, err := svc.Snapshot(ctx, "alice")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Transactions) != 1 || len(snap.Categories) != 1 || len(snap.Budgets) != 1 || len(snap.Rules) != 1 {
		t.Fatalf("snapshot sizes = %d/%d/%d/%d, want 1/1/1/1",
			len(snap.Transactions), len(snap.Categories), len(snap.Budgets), len(snap.Rules))
	}

	// Another user's snapshot is empty.
	other, err := svc.Snapshot(ctx, "bob")
	if err != nil {
		t.Fatalf("snapshot for other user: %v", err)
	}
	if len(other.Transactions) != 0 || len(other.Categories) != 0 {
		t.Fatal("snapshot must be user-scoped")
	}
}

func TestBudgetValidationAtCreation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateBudget(context.Background(), "alice", core.Budget{
		CategoryID: "1", Limit: core.Money{}, AlertThreshold: 80, Month: 0, Year: 2024,
	})
	if !errors.Is(err, core.ErrInvalidBudgetLimit) {
		t.Fatalf("zero limit should be rejected, got %v", err)
	}
}

func TestRecurringRuleToggle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rule, err := svc.CreateRecurringRule(ctx, "alice", core.RecurringRule{
		Amount: core.Money{Cents: 120000}, Description: "insurance", CategoryID: "5",
		Frequency: core.Yearly, StartDate: mustDate(t, "2024-01-01"), Active: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SetRecurringRuleActive(ctx, "alice", rule.ID, false); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	rules, err := svc.ListRecurringRules(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rules[0].Active {
		t.Fatal("rule should be inactive after toggle")
	}
}
