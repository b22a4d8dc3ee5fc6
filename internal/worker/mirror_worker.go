package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// TransactionAppender writes one transaction row to an external sheet.
type TransactionAppender interface {
	Append(ctx context.Context, t core.Transaction, categoryName string) error
}

// MirrorWorker consumes change events and mirrors new transactions to a
// Google spreadsheet. The mirror is append-only: updates and deletions
// stay local.
type MirrorWorker struct {
	storage  *storage.SQLiteRepository
	appender TransactionAppender
}

func NewMirrorWorker(storage *storage.SQLiteRepository, appender TransactionAppender) *MirrorWorker {
	return &MirrorWorker{
		storage:  storage,
		appender: appender,
	}
}

// HandleChangeEvent processes a single change event. Events the mirror
// does not care about are acknowledged without action.
func (w *MirrorWorker) HandleChangeEvent(ctx context.Context, event *amqp.ChangeEvent) error {
	if event.Entity != amqp.EntityTransaction || event.Action != amqp.ActionCreated {
		slog.DebugContext(ctx, "Skipping event",
			"entity", event.Entity,
			"action", event.Action)
		return nil
	}

	tx, err := w.storage.GetTransaction(ctx, event.UserID, event.EntityID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before we got to it. Nothing to mirror.
		slog.WarnContext(ctx, "Transaction no longer exists, skipping mirror",
			"entity_id", event.EntityID,
			"user_id", event.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	categoryName := w.resolveCategoryName(ctx, tx)

	if err := w.appender.Append(ctx, tx, categoryName); err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"entity_id", tx.ID,
		"amount_cents", tx.Amount.Cents,
		"category", categoryName)

	return nil
}

func (w *MirrorWorker) resolveCategoryName(ctx context.Context, tx core.Transaction) string {
	cats, err := w.storage.ListCategories(ctx, tx.UserID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to resolve category, using fallback",
			"category_id", tx.CategoryID,
			"error", err)
		return core.UnknownCategoryName
	}

	if cat, ok := core.CategoryByID(cats)[tx.CategoryID]; ok {
		return cat.Name
	}
	return core.UnknownCategoryName
}
