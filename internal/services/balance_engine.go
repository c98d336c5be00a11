package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// BalanceEngine aggregates expenses, splits, and transfers into settlement
// positions. Reads are snapshot-consistent at best: a balance computed while
// a mutation is in flight may be momentarily stale, which is acceptable.
type BalanceEngine struct {
	expenses  ledger.ExpenseStore
	splits    ledger.SplitStore
	transfers ledger.TransferStore
	profiles  ledger.ProfileStore
}

func NewBalanceEngine(store ledger.Store) *BalanceEngine {
	return &BalanceEngine{
		expenses:  store,
		splits:    store,
		transfers: store,
		profiles:  store,
	}
}

// UserBalance computes one profile's overall position. Paid and Owed cover
// expenses only; transfers are folded into the final balance so that a
// transfer from debtor to creditor settles the debt on both sides.
func (b *BalanceEngine) UserBalance(ctx context.Context, userID int64) (core.Balance, error) {
	known, err := b.knownProfiles(ctx)
	if err != nil {
		return core.Balance{}, err
	}
	if !known[userID] {
		return core.Balance{}, core.NotFoundf("profile %d not found", userID)
	}

	expenses, err := b.expenses.ListExpensesForBalance(ctx)
	if err != nil {
		return core.Balance{}, fmt.Errorf("list expenses for balance: %w", err)
	}

	var paid, owed core.Money
	for _, e := range expenses {
		contributions, err := b.expenseContributions(ctx, e, known)
		if err != nil {
			return core.Balance{}, err
		}
		for _, c := range contributions {
			if c.payerID == userID {
				paid = paid.Add(c.amount)
			}
			if c.debtorID == userID {
				owed = owed.Add(c.amount)
			}
		}
	}

	transfers, err := b.transfers.ListTransfers(ctx, ledger.TransferFilter{})
	if err != nil {
		return core.Balance{}, fmt.Errorf("list transfers: %w", err)
	}

	var sent, received core.Money
	for _, t := range transfers {
		if !known[t.SourceID] || !known[t.BeneficiaryID] {
			slog.WarnContext(ctx, "Skipping transfer with stale profile reference",
				"transfer_id", t.ID, "source_id", t.SourceID, "beneficiary_id", t.BeneficiaryID)
			continue
		}
		if t.SourceID == userID {
			sent = sent.Add(t.Amount)
		}
		if t.BeneficiaryID == userID {
			received = received.Add(t.Amount)
		}
	}

	return core.Balance{
		Paid:    paid,
		Owed:    owed,
		Balance: paid.Sub(owed).Add(sent).Sub(received),
	}, nil
}

// AllBalances computes the per-counter-party breakdown for one profile. Each
// debt is attributed bilaterally: a non-payer's share of a shared expense
// belongs entirely to the relationship with the payer, with no transitive
// netting across third parties. Results are ordered by counter-party ID.
func (b *BalanceEngine) AllBalances(ctx context.Context, userID int64) ([]core.CounterpartyBalance, error) {
	known, err := b.knownProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if !known[userID] {
		return nil, core.NotFoundf("profile %d not found", userID)
	}

	expenses, err := b.expenses.ListExpensesForBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses for balance: %w", err)
	}

	type bilateral struct {
		owesUser core.Money // counter-party owes the user
		userOwes core.Money // user owes the counter-party
	}
	totals := make(map[int64]*bilateral)
	get := func(id int64) *bilateral {
		if t, ok := totals[id]; ok {
			return t
		}
		t := &bilateral{}
		totals[id] = t
		return t
	}

	for _, e := range expenses {
		contributions, err := b.expenseContributions(ctx, e, known)
		if err != nil {
			return nil, err
		}
		for _, c := range contributions {
			switch {
			case c.payerID == userID:
				t := get(c.debtorID)
				t.owesUser = t.owesUser.Add(c.amount)
			case c.debtorID == userID:
				t := get(c.payerID)
				t.userOwes = t.userOwes.Add(c.amount)
			}
		}
	}

	transfers, err := b.transfers.ListTransfers(ctx, ledger.TransferFilter{})
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	for _, t := range transfers {
		if !known[t.SourceID] || !known[t.BeneficiaryID] {
			continue
		}
		// A transfer acts as a negative expense between the two parties.
		switch {
		case t.SourceID == userID:
			bt := get(t.BeneficiaryID)
			bt.owesUser = bt.owesUser.Add(t.Amount)
		case t.BeneficiaryID == userID:
			bt := get(t.SourceID)
			bt.userOwes = bt.userOwes.Add(t.Amount)
		}
	}

	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]core.CounterpartyBalance, 0, len(ids))
	for _, id := range ids {
		t := totals[id]
		out = append(out, core.CounterpartyBalance{
			UserID:     id,
			OwesUser:   t.owesUser,
			UserOwes:   t.userOwes,
			NetBalance: t.owesUser.Sub(t.userOwes),
		})
	}
	return out, nil
}

// contribution is one bilateral debt: debtor owes payer amount.
type contribution struct {
	payerID  int64
	debtorID int64
	amount   core.Money
}

// expenseContributions reduces one expense to its bilateral debts. Shared
// expenses use their split rows; every non-payer participant owes the payer
// their share. Non-shared expenses owe the full amount from beneficiary to
// payer. Records referencing profiles that no longer exist are skipped
// instead of failing the aggregation.
func (b *BalanceEngine) expenseContributions(ctx context.Context, e core.Expense, known map[int64]bool) ([]contribution, error) {
	if !known[e.PayerID] {
		slog.WarnContext(ctx, "Skipping expense with stale payer reference",
			"expense_id", e.ID, "payer_id", e.PayerID)
		return nil, nil
	}

	if !e.IsShared {
		beneficiary := e.ParticipantID()
		if beneficiary == e.PayerID || !known[beneficiary] {
			return nil, nil
		}
		return []contribution{{payerID: e.PayerID, debtorID: beneficiary, amount: e.Amount}}, nil
	}

	splits, err := b.splits.GetExpenseSplits(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("get splits for expense %d: %w", e.ID, err)
	}

	var out []contribution
	for _, s := range splits {
		if s.UserID == e.PayerID {
			continue
		}
		if !known[s.UserID] {
			slog.WarnContext(ctx, "Skipping split with stale profile reference",
				"expense_id", e.ID, "split_user_id", s.UserID)
			continue
		}
		out = append(out, contribution{payerID: e.PayerID, debtorID: s.UserID, amount: s.Amount})
	}
	return out, nil
}

func (b *BalanceEngine) knownProfiles(ctx context.Context) (map[int64]bool, error) {
	profiles, err := b.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	known := make(map[int64]bool, len(profiles))
	for _, p := range profiles {
		known[p.ID] = true
	}
	return known, nil
}
