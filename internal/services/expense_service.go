package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// EventPublisher publishes ledger change events for the export pipeline.
// A nil publisher disables publishing; mutations never fail because of it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, kind string, entityID int64) error
}

// Event kinds published on mutations.
const (
	EventExpenseCreated  = "expense_created"
	EventExpenseUpdated  = "expense_updated"
	EventExpenseDeleted  = "expense_deleted"
	EventTransferCreated = "transfer_created"
	EventTransferDeleted = "transfer_deleted"
)

// ExpenseService owns expense mutations: it enforces ownership, keeps split
// rows consistent with every edit, and emits ledger events.
type ExpenseService struct {
	store     ledger.Store
	splits    *SplitCalculator
	publisher EventPublisher
}

func NewExpenseService(store ledger.Store, splits *SplitCalculator, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		splits:    splits,
		publisher: publisher,
	}
}

// AddExpense records a new expense and its split rows. When split creation
// fails the expense row is rolled back so the ledger never holds an expense
// without splits.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	if err := s.splits.Recompute(ctx, created, nil); err != nil {
		if delErr := s.store.DeleteExpense(ctx, created.ID); delErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back expense after split failure",
				"expense_id", created.ID, "error", delErr)
		}
		return core.Expense{}, err
	}

	s.publish(ctx, EventExpenseCreated, created.ID)

	slog.InfoContext(ctx, "Expense created",
		"expense_id", created.ID,
		"reporter_id", created.ReporterID,
		"payer_id", created.PayerID,
		"amount_cents", created.Amount.Cents,
		"shared", created.IsShared)
	return created, nil
}

// UpdateExpense applies a patch to an expense the requester reported. Any
// change that affects how the amount is divided (amount, sharing flag,
// payer, beneficiary, or an explicit participant list) replaces the split
// rows so their sum always matches the expense amount. A re-split without a
// new participant list keeps the expense's current participants; only an
// is_shared transition widens it to the whole household.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id, requesterID int64, patch core.ExpensePatch) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	if e.ReporterID != requesterID {
		return core.Expense{}, core.Unauthorizedf("expense %d can only be updated by its reporter", id)
	}
	prev := e

	resplit := patch.SplitWith != nil
	if patch.PayerID != nil && *patch.PayerID != e.PayerID {
		e.PayerID = *patch.PayerID
		resplit = true
	}
	if patch.BeneficiaryID != nil && *patch.BeneficiaryID != e.BeneficiaryID {
		e.BeneficiaryID = *patch.BeneficiaryID
		resplit = true
	}
	if patch.Amount != nil && patch.Amount.Cents != e.Amount.Cents {
		e.Amount = *patch.Amount
		resplit = true
	}
	if patch.IsShared != nil && *patch.IsShared != e.IsShared {
		e.IsShared = *patch.IsShared
		resplit = true
	}
	if patch.CategoryID != nil {
		e.CategoryID = *patch.CategoryID
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Name != nil {
		e.Name = *patch.Name
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	// An amount or payer change must not widen a split that was narrowed to
	// an explicit participant set; reuse the current rows.
	participants := patch.SplitWith
	if resplit && participants == nil && prev.IsShared && e.IsShared {
		rows, err := s.store.GetExpenseSplits(ctx, id)
		if err != nil {
			return core.Expense{}, fmt.Errorf("get splits for expense %d: %w", id, err)
		}
		for _, row := range rows {
			participants = append(participants, row.UserID)
		}
	}

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	if resplit {
		if err := s.splits.Recompute(ctx, e, participants); err != nil {
			if restoreErr := s.store.UpdateExpense(ctx, prev); restoreErr != nil {
				slog.ErrorContext(ctx, "Failed to restore expense after split failure",
					"expense_id", e.ID, "error", restoreErr)
			}
			return core.Expense{}, err
		}
	}

	s.publish(ctx, EventExpenseUpdated, e.ID)

	slog.InfoContext(ctx, "Expense updated",
		"expense_id", e.ID,
		"requester_id", requesterID,
		"resplit", resplit)
	return e, nil
}

// DeleteExpense removes an expense and its split rows. Splits go first; the
// store has no cascading delete.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id, requesterID int64) error {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense %d: %w", id, err)
	}
	if e.ReporterID != requesterID {
		return core.Unauthorizedf("expense %d can only be deleted by its reporter", id)
	}

	if err := s.store.DeleteExpenseSplits(ctx, id); err != nil {
		return fmt.Errorf("delete splits for expense %d: %w", id, err)
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	s.publish(ctx, EventExpenseDeleted, id)

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id, "requester_id", requesterID)
	return nil
}

// GetExpense returns a single expense.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// ListExpenses returns expenses the profile is involved in, optionally
// narrowed by date range and category.
func (s *ExpenseService) ListExpenses(ctx context.Context, filter ledger.ExpenseFilter) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, filter)
}

// GetExpenseSplits returns the split rows of one expense.
func (s *ExpenseService) GetExpenseSplits(ctx context.Context, expenseID int64) ([]core.ExpenseSplit, error) {
	return s.store.GetExpenseSplits(ctx, expenseID)
}

func (s *ExpenseService) publish(ctx context.Context, kind string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, kind, id); err != nil {
		// The mutation already succeeded locally; the worker's catch-up
		// pass will pick up anything a lost event misses.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "entity_id", id, "error", err)
	}
}
