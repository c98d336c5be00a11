package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repo
}

func testExpense(reporter int64) core.Expense {
	return core.Expense{
		ReporterID: reporter,
		PayerID:    reporter,
		Amount:     core.Money{Cents: 4250},
		CategoryID: 1,
		Date:       time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Name:       "Groceries",
		IsShared:   true,
	}
}

func TestExpenseLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, testExpense(1))
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected expense to be assigned an id")
	}

	got, err := repo.GetExpense(ctx, created.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.Name != "Groceries" || got.Amount.Cents != 4250 || !got.IsShared {
		t.Errorf("unexpected expense: %+v", got)
	}

	got.Name = "Weekly groceries"
	got.Amount = core.Money{Cents: 5000}
	if err := repo.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("update expense: %v", err)
	}

	updated, err := repo.GetExpense(ctx, created.ID)
	if err != nil {
		t.Fatalf("get updated expense: %v", err)
	}
	if updated.Name != "Weekly groceries" || updated.Amount.Cents != 5000 {
		t.Errorf("update not persisted: %+v", updated)
	}

	if err := repo.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if _, err := repo.GetExpense(ctx, created.ID); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestGetExpenseNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetExpense(context.Background(), 999)
	if !core.IsKind(err, core.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListExpensesForBalance(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	shared := testExpense(1)
	if _, err := repo.CreateExpense(ctx, shared); err != nil {
		t.Fatalf("create shared expense: %v", err)
	}

	// Personal expense: payer equals implicit beneficiary, never settles.
	personal := testExpense(1)
	personal.IsShared = false
	if _, err := repo.CreateExpense(ctx, personal); err != nil {
		t.Fatalf("create personal expense: %v", err)
	}

	onBehalf := testExpense(1)
	onBehalf.IsShared = false
	onBehalf.BeneficiaryID = 2
	if _, err := repo.CreateExpense(ctx, onBehalf); err != nil {
		t.Fatalf("create on-behalf expense: %v", err)
	}

	relevant, err := repo.ListExpensesForBalance(ctx)
	if err != nil {
		t.Fatalf("list settlement expenses: %v", err)
	}
	if len(relevant) != 2 {
		t.Fatalf("expected 2 settlement-relevant expenses, got %d", len(relevant))
	}
	for _, e := range relevant {
		if !e.SettlementRelevant() {
			t.Errorf("expense %d should not be in the settlement set: %+v", e.ID, e)
		}
	}
}

func TestListExpensesFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	early := testExpense(1)
	early.IsShared = false
	early.Date = time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	early.CategoryID = 7
	if _, err := repo.CreateExpense(ctx, early); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	late := testExpense(2)
	late.Date = time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	if _, err := repo.CreateExpense(ctx, late); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	tests := []struct {
		name   string
		filter ledger.ExpenseFilter
		want   int
	}{
		{"no filter", ledger.ExpenseFilter{}, 2},
		{"by category", ledger.ExpenseFilter{CategoryID: 7}, 1},
		{"by start date", ledger.ExpenseFilter{StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}, 1},
		{"by end date", ledger.ExpenseFilter{EndDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}, 1},
		{"by involved user", ledger.ExpenseFilter{UserID: 2}, 1},
		{"shared only", ledger.ExpenseFilter{SharedOnly: true}, 1},
		{"shared in window", ledger.ExpenseFilter{SharedOnly: true, EndDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}, 0},
		{"no match", ledger.ExpenseFilter{CategoryID: 99}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListExpenses(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list expenses: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d expenses, got %d", tt.want, len(got))
			}
		})
	}
}

func TestReplaceExpenseSplitsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	e, err := repo.CreateExpense(ctx, testExpense(1))
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	shares := []core.SplitShare{
		{UserID: 1, Amount: core.Money{Cents: 2125}},
		{UserID: 2, Amount: core.Money{Cents: 2125}},
	}
	for range 2 {
		if err := repo.ReplaceExpenseSplits(ctx, e.ID, shares); err != nil {
			t.Fatalf("replace splits: %v", err)
		}
	}

	splits, err := repo.GetExpenseSplits(ctx, e.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("expected 2 split rows after repeated replace, got %d", len(splits))
	}
	var total int64
	for _, s := range splits {
		total += s.Amount.Cents
	}
	if total != 4250 {
		t.Errorf("splits sum to %d, want 4250", total)
	}
}

func TestTransferLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.CreateTransfer(ctx, core.Transfer{
		SourceID:      2,
		BeneficiaryID: 1,
		Amount:        core.Money{Cents: 15000},
		Date:          time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	got, err := repo.GetTransfer(ctx, created.ID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if got.SourceID != 2 || got.BeneficiaryID != 1 || got.Amount.Cents != 15000 {
		t.Errorf("unexpected transfer: %+v", got)
	}

	listed, err := repo.ListTransfers(ctx, ledger.TransferFilter{UserID: 1})
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 transfer for user 1, got %d", len(listed))
	}

	none, err := repo.ListTransfers(ctx, ledger.TransferFilter{UserID: 9})
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no transfers for uninvolved user, got %d", len(none))
	}

	if err := repo.DeleteTransfer(ctx, created.ID); err != nil {
		t.Fatalf("delete transfer: %v", err)
	}
	if err := repo.DeleteTransfer(ctx, created.ID); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestProfilesAndUsers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, "u-1", "alice@example.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := repo.CreateUser(ctx, "u-2", "alice@example.com", "other"); !core.IsKind(err, core.KindConflict) {
		t.Errorf("expected conflict on duplicate email, got %v", err)
	}

	id, hash, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if id != "u-1" || hash != "hash" {
		t.Errorf("unexpected user: id=%s hash=%s", id, hash)
	}

	p, err := repo.CreateProfile(ctx, core.Profile{UserID: "u-1", DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	byUser, err := repo.GetProfileByUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if byUser.ID != p.ID || byUser.DisplayName != "Alice" {
		t.Errorf("unexpected profile: %+v", byUser)
	}

	if err := repo.UpdateProfileName(ctx, p.ID, "Alice B"); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	renamed, err := repo.GetProfileByUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("get renamed profile: %v", err)
	}
	if renamed.DisplayName != "Alice B" {
		t.Errorf("rename not persisted: %+v", renamed)
	}
}

func TestCategoryDeleteGuardCount(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	c, err := repo.CreateCategory(ctx, core.Category{Name: "Food"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	e := testExpense(1)
	e.CategoryID = c.ID
	if _, err := repo.CreateExpense(ctx, e); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	n, err := repo.CountExpensesByCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("count expenses: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 dependent expense, got %d", n)
	}
}

func TestMonthlyIncomeUpsert(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	march := time.Date(2025, 3, 18, 10, 0, 0, 0, time.UTC)

	first, err := repo.UpsertMonthlyIncome(ctx, core.MonthlyIncome{
		UserID:    1,
		Amount:    core.Money{Cents: 300000},
		MonthDate: march,
	})
	if err != nil {
		t.Fatalf("upsert income: %v", err)
	}
	if !first.MonthDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month not normalized: %v", first.MonthDate)
	}

	// Same month again replaces the amount instead of adding a row.
	second, err := repo.UpsertMonthlyIncome(ctx, core.MonthlyIncome{
		UserID:    1,
		Amount:    core.Money{Cents: 320000},
		MonthDate: march.AddDate(0, 0, 5),
	})
	if err != nil {
		t.Fatalf("upsert income again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the same record, got ids %d and %d", first.ID, second.ID)
	}
	if second.Amount.Cents != 320000 {
		t.Errorf("amount not replaced: %d", second.Amount.Cents)
	}

	history, err := repo.ListIncomeHistory(ctx, 1, 12)
	if err != nil {
		t.Fatalf("list income history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history))
	}

	if err := repo.DeleteMonthlyIncome(ctx, first.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if _, err := repo.GetMonthlyIncome(ctx, 1, march); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}
