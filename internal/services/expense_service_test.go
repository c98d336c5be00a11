package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, kind string, _ int64) error {
	p.events = append(p.events, kind)
	return nil
}

func newExpenseFixture(t *testing.T) (*ExpenseService, *household, *recordingPublisher) {
	t.Helper()
	h := newHousehold(t)
	pub := &recordingPublisher{}
	svc := NewExpenseService(h.store, h.calc, pub)
	return svc, h, pub
}

func TestAddExpenseCreatesSplits(t *testing.T) {
	svc, h, pub := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	splits, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("expected household splits, got %d rows", len(splits))
	}
	var total int64
	for _, s := range splits {
		total += s.Amount.Cents
	}
	if total != 30000 {
		t.Errorf("splits sum to %d, want 30000", total)
	}

	if len(pub.events) != 1 || pub.events[0] != EventExpenseCreated {
		t.Errorf("unexpected events: %v", pub.events)
	}
}

func TestAddExpenseRejectsInvalid(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)

	e := sharedExpense(h.a.ID, h.a.ID, 30000)
	e.Name = ""
	if _, err := svc.AddExpense(context.Background(), e); !core.IsKind(err, core.KindInvalid) {
		t.Errorf("expected invalid, got %v", err)
	}
}

func TestUpdateExpenseOwnership(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	name := "Hijacked"
	_, err = svc.UpdateExpense(ctx, created.ID, h.b.ID, core.ExpensePatch{Name: &name})
	if !core.IsKind(err, core.KindUnauthorized) {
		t.Errorf("expected unauthorized for non-reporter, got %v", err)
	}

	if err := svc.DeleteExpense(ctx, created.ID, h.b.ID); !core.IsKind(err, core.KindUnauthorized) {
		t.Errorf("expected unauthorized delete for non-reporter, got %v", err)
	}
}

func TestUpdateExpenseResplitsOnAmountChange(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	amount := core.Money{Cents: 20000}
	updated, err := svc.UpdateExpense(ctx, created.ID, h.a.ID, core.ExpensePatch{Amount: &amount})
	if err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if updated.Amount.Cents != 20000 {
		t.Errorf("amount not applied: %d", updated.Amount.Cents)
	}

	splits, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	for _, s := range splits {
		if s.Amount.Cents != 10000 {
			t.Errorf("split for profile %d is %d, want 10000", s.UserID, s.Amount.Cents)
		}
	}
}

func TestUpdateExpenseCosmeticChangeKeepsSplits(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	before, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}

	name := "Rent (February)"
	if _, err := svc.UpdateExpense(ctx, created.ID, h.a.ID, core.ExpensePatch{Name: &name}); err != nil {
		t.Fatalf("update expense: %v", err)
	}

	after, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("cosmetic update changed split rows: before %d, after %d", len(before), len(after))
	}
	for i := range after {
		if after[i].ID != before[i].ID {
			t.Errorf("split row %d was rewritten by a cosmetic update", i)
		}
	}
}

func TestUpdateExpenseUnshareCollapsesSplits(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	shared := false
	if _, err := svc.UpdateExpense(ctx, created.ID, h.a.ID, core.ExpensePatch{IsShared: &shared}); err != nil {
		t.Fatalf("update expense: %v", err)
	}

	splits, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	if len(splits) != 1 || splits[0].UserID != h.a.ID || splits[0].Amount.Cents != 30000 {
		t.Errorf("expected a single payer split, got %+v", splits)
	}
}

func TestUpdateExpenseExplicitParticipants(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)
	ctx := context.Background()

	c, err := h.store.CreateProfile(ctx, core.Profile{UserID: "u-c", DisplayName: "Carol"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	// Narrow the split to A and C; B drops out.
	_, err = svc.UpdateExpense(ctx, created.ID, h.a.ID, core.ExpensePatch{SplitWith: []int64{c.ID}})
	if err != nil {
		t.Fatalf("update expense: %v", err)
	}

	splits, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(splits))
	}
	if splits[0].UserID != h.a.ID || splits[1].UserID != c.ID {
		t.Errorf("unexpected participants: %+v", splits)
	}
}

func TestUpdateExpenseAmountKeepsNarrowedParticipants(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)
	ctx := context.Background()

	if _, err := h.store.CreateProfile(ctx, core.Profile{UserID: "u-c", DisplayName: "Carol"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	// Narrow the split to A and B; C drops out.
	if _, err := svc.UpdateExpense(ctx, created.ID, h.a.ID, core.ExpensePatch{SplitWith: []int64{h.b.ID}}); err != nil {
		t.Fatalf("update expense: %v", err)
	}

	amount := core.Money{Cents: 24000}
	if _, err := svc.UpdateExpense(ctx, created.ID, h.a.ID, core.ExpensePatch{Amount: &amount}); err != nil {
		t.Fatalf("update expense: %v", err)
	}

	splits, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("amount-only patch changed the participant set: got %d splits, want 2", len(splits))
	}
	if splits[0].UserID != h.a.ID || splits[1].UserID != h.b.ID {
		t.Errorf("unexpected participants after amount patch: %+v", splits)
	}
	for _, s := range splits {
		if s.Amount.Cents != 12000 {
			t.Errorf("split for profile %d is %d, want 12000", s.UserID, s.Amount.Cents)
		}
	}
}

// flakySplitStore fails split replacement on demand.
type flakySplitStore struct {
	ledger.Store
	failReplace bool
}

func (s *flakySplitStore) ReplaceExpenseSplits(ctx context.Context, expenseID int64, shares []core.SplitShare) error {
	if s.failReplace {
		return errors.New("splits unavailable")
	}
	return s.Store.ReplaceExpenseSplits(ctx, expenseID, shares)
}

func TestUpdateExpenseRestoresRowOnSplitFailure(t *testing.T) {
	h := newHousehold(t)
	flaky := &flakySplitStore{Store: h.store}
	svc := NewExpenseService(flaky, NewSplitCalculator(flaky, flaky), nil)
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	flaky.failReplace = true
	amount := core.Money{Cents: 20000}
	if _, err := svc.UpdateExpense(ctx, created.ID, h.a.ID, core.ExpensePatch{Amount: &amount}); err == nil {
		t.Fatal("expected error when split replacement fails")
	}

	got, err := svc.GetExpense(ctx, created.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.Amount.Cents != 30000 {
		t.Errorf("amount after failed re-split = %d, want the original 30000", got.Amount.Cents)
	}

	splits, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	var total int64
	for _, s := range splits {
		total += s.Amount.Cents
	}
	if total != 30000 {
		t.Errorf("splits sum to %d after failed re-split, want 30000", total)
	}
}

func TestUpdateExpenseNotFound(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)

	name := "Nothing"
	_, err := svc.UpdateExpense(context.Background(), 999, h.a.ID, core.ExpensePatch{Name: &name})
	if !core.IsKind(err, core.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeleteExpenseRemovesSplits(t *testing.T) {
	svc, h, pub := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	if err := svc.DeleteExpense(ctx, created.ID, h.a.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}

	if _, err := svc.GetExpense(ctx, created.ID); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	splits, err := svc.GetExpenseSplits(ctx, created.ID)
	if err != nil {
		t.Fatalf("get splits: %v", err)
	}
	if len(splits) != 0 {
		t.Errorf("splits should be gone, got %d rows", len(splits))
	}

	want := []string{EventExpenseCreated, EventExpenseDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("unexpected events: %v", pub.events)
	}
	for i, kind := range want {
		if pub.events[i] != kind {
			t.Errorf("event %d: got %s, want %s", i, pub.events[i], kind)
		}
	}
}

func TestListExpensesByInvolvement(t *testing.T) {
	svc, h, _ := newExpenseFixture(t)
	ctx := context.Background()

	if _, err := svc.AddExpense(ctx, sharedExpense(h.a.ID, h.a.ID, 30000)); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	personal := sharedExpense(h.a.ID, h.a.ID, 5000)
	personal.IsShared = false
	if _, err := svc.AddExpense(ctx, personal); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	forB, err := svc.ListExpenses(ctx, ledger.ExpenseFilter{UserID: h.b.ID})
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(forB) != 1 {
		t.Errorf("B is involved in 1 expense, got %d", len(forB))
	}
}
