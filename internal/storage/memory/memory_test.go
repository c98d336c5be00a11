package memory

import (
	"context"
	"testing"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

func TestListExpensesNewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
	}
	var ids []int64
	for _, d := range dates {
		created, err := s.CreateExpense(ctx, core.Expense{
			ReporterID: 1,
			PayerID:    1,
			Amount:     core.Money{Cents: 1000},
			CategoryID: 1,
			Date:       d,
			Name:       "Groceries",
			IsShared:   true,
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
		ids = append(ids, created.ID)
	}

	got, err := s.ListExpenses(ctx, ledger.ExpenseFilter{})
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(got))
	}

	// Date descending, ties broken by ID descending.
	want := []int64{ids[2], ids[1], ids[0]}
	for i, e := range got {
		if e.ID != want[i] {
			t.Errorf("position %d: got expense %d, want %d", i, e.ID, want[i])
		}
	}
}
