package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// IncomeService manages monthly income records. One record exists per
// (profile, month); setting income for a month that already has one
// overwrites the amount instead of inserting a second row.
type IncomeService struct {
	store ledger.IncomeStore
}

func NewIncomeService(store ledger.IncomeStore) *IncomeService {
	return &IncomeService{store: store}
}

// SetMonthlyIncome creates or updates the income record for the profile's
// month. A zero month means the current month.
func (s *IncomeService) SetMonthlyIncome(ctx context.Context, userID int64, amount core.Money, month time.Time) (core.MonthlyIncome, error) {
	if month.IsZero() {
		month = time.Now()
	}

	income := core.MonthlyIncome{
		UserID:    userID,
		Amount:    amount,
		MonthDate: core.MonthStart(month),
	}
	if err := income.Validate(); err != nil {
		return core.MonthlyIncome{}, err
	}

	saved, err := s.store.UpsertMonthlyIncome(ctx, income)
	if err != nil {
		return core.MonthlyIncome{}, fmt.Errorf("upsert monthly income: %w", err)
	}

	slog.InfoContext(ctx, "Monthly income set",
		"user_id", userID,
		"month", saved.MonthDate.Format("2006-01"),
		"amount_cents", saved.Amount.Cents)
	return saved, nil
}

// GetMonthlyIncome returns the record for the profile's month, or a
// not-found error when none exists. A zero month means the current month.
func (s *IncomeService) GetMonthlyIncome(ctx context.Context, userID int64, month time.Time) (core.MonthlyIncome, error) {
	if month.IsZero() {
		month = time.Now()
	}
	return s.store.GetMonthlyIncome(ctx, userID, core.MonthStart(month))
}

// IncomeHistory returns up to limit records for the profile, newest first.
func (s *IncomeService) IncomeHistory(ctx context.Context, userID int64, limit int) ([]core.MonthlyIncome, error) {
	if limit <= 0 {
		limit = 12
	}
	return s.store.ListIncomeHistory(ctx, userID, limit)
}

// DeleteMonthlyIncome removes a record; only the owning profile may do so.
func (s *IncomeService) DeleteMonthlyIncome(ctx context.Context, id, requesterID int64) error {
	income, err := s.store.GetIncomeRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("get income record %d: %w", id, err)
	}
	if income.UserID != requesterID {
		return core.Unauthorizedf("income record %d can only be deleted by its owner", id)
	}

	if err := s.store.DeleteMonthlyIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income record %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Monthly income deleted", "income_id", id, "requester_id", requesterID)
	return nil
}
