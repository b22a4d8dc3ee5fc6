package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// TrackerService orchestrates finance tracking operations across SQLite
// and AMQP. Writes go to SQLite first; change events are published
// best-effort so a broker outage never fails a request.
type TrackerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTrackerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TrackerService {
	return &TrackerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Snapshot assembles a user's complete dataset for the stats engine.
func (s *TrackerService) Snapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	txs, err := s.storage.ListTransactions(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list transactions: %w", err)
	}
	cats, err := s.storage.ListCategories(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list categories: %w", err)
	}
	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list budgets: %w", err)
	}
	rules, err := s.storage.ListRecurringRules(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list recurring rules: %w", err)
	}

	return core.Snapshot{
		Transactions: txs,
		Categories:   cats,
		Budgets:      budgets,
		Rules:        rules,
	}, nil
}

// Transactions

func (s *TrackerService) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.UserID = userID
	t.CreatedAt = time.Now().UTC()

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishChange(ctx, amqp.EntityTransaction, amqp.ActionCreated, userID, t.ID)
	return t, nil
}

func (s *TrackerService) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

func (s *TrackerService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID)
}

func (s *TrackerService) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	existing, err := s.storage.GetTransaction(ctx, userID, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.UserID = userID
	t.CreatedAt = existing.CreatedAt

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publishChange(ctx, amqp.EntityTransaction, amqp.ActionUpdated, userID, t.ID)
	return t, nil
}

func (s *TrackerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publishChange(ctx, amqp.EntityTransaction, amqp.ActionDeleted, userID, id)
	return nil
}

// Categories

func (s *TrackerService) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	c.ID = uuid.NewString()
	c.UserID = userID

	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}

	s.publishChange(ctx, amqp.EntityCategory, amqp.ActionCreated, userID, c.ID)
	return c, nil
}

func (s *TrackerService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, userID)
}

func (s *TrackerService) UpdateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	c.UserID = userID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}

	s.publishChange(ctx, amqp.EntityCategory, amqp.ActionUpdated, userID, c.ID)
	return c, nil
}

// DeleteCategory removes only the category. Transactions that reference it
// keep the stale ID and surface as Unknown in statistics.
func (s *TrackerService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.publishChange(ctx, amqp.EntityCategory, amqp.ActionDeleted, userID, id)
	return nil
}

// Budgets

func (s *TrackerService) CreateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	b.ID = uuid.NewString()
	b.UserID = userID

	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.storage.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	s.publishChange(ctx, amqp.EntityBudget, amqp.ActionCreated, userID, b.ID)
	return b, nil
}

func (s *TrackerService) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, userID)
}

func (s *TrackerService) UpdateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	b.UserID = userID
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.storage.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}

	s.publishChange(ctx, amqp.EntityBudget, amqp.ActionUpdated, userID, b.ID)
	return b, nil
}

func (s *TrackerService) DeleteBudget(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.publishChange(ctx, amqp.EntityBudget, amqp.ActionDeleted, userID, id)
	return nil
}

// Recurring rules

func (s *TrackerService) CreateRecurringRule(ctx context.Context, userID string, r core.RecurringRule) (core.RecurringRule, error) {
	r.ID = uuid.NewString()
	r.UserID = userID

	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if err := s.storage.CreateRecurringRule(ctx, r); err != nil {
		return core.RecurringRule{}, fmt.Errorf("save recurring rule: %w", err)
	}

	s.publishChange(ctx, amqp.EntityRecurring, amqp.ActionCreated, userID, r.ID)
	return r, nil
}

func (s *TrackerService) ListRecurringRules(ctx context.Context, userID string) ([]core.RecurringRule, error) {
	return s.storage.ListRecurringRules(ctx, userID)
}

func (s *TrackerService) UpdateRecurringRule(ctx context.Context, userID string, r core.RecurringRule) (core.RecurringRule, error) {
	r.UserID = userID
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if err := s.storage.UpdateRecurringRule(ctx, r); err != nil {
		return core.RecurringRule{}, err
	}

	s.publishChange(ctx, amqp.EntityRecurring, amqp.ActionUpdated, userID, r.ID)
	return r, nil
}

func (s *TrackerService) SetRecurringRuleActive(ctx context.Context, userID, id string, active bool) error {
	if err := s.storage.SetRecurringRuleActive(ctx, userID, id, active); err != nil {
		return err
	}
	s.publishChange(ctx, amqp.EntityRecurring, amqp.ActionUpdated, userID, id)
	return nil
}

func (s *TrackerService) DeleteRecurringRule(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteRecurringRule(ctx, userID, id); err != nil {
		return err
	}
	s.publishChange(ctx, amqp.EntityRecurring, amqp.ActionDeleted, userID, id)
	return nil
}

func (s *TrackerService) publishChange(ctx context.Context, entity, action, userID, entityID string) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping change event")
		return
	}

	event := amqp.NewChangeEvent(entity, action, userID, entityID)
	if err := s.amqpClient.PublishChange(ctx, event); err != nil {
		// Don't fail the request, the write already succeeded locally.
		slog.ErrorContext(ctx, "Failed to publish change event",
			"entity", entity,
			"action", action,
			"entity_id", entityID,
			"error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *TrackerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close tracker service: %v", errs)
	}

	return nil
}
