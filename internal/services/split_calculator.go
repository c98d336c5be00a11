package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// SplitCalculator turns an expense's sharing configuration into per-profile
// shares and keeps the split rows in the store consistent with them.
type SplitCalculator struct {
	profiles ledger.ProfileStore
	splits   ledger.SplitStore
}

func NewSplitCalculator(profiles ledger.ProfileStore, splits ledger.SplitStore) *SplitCalculator {
	return &SplitCalculator{
		profiles: profiles,
		splits:   splits,
	}
}

// ComputeSplits returns the per-participant shares for an expense.
//
// Non-shared expenses get a single share for the beneficiary (payer when no
// beneficiary is set). Shared expenses are divided equally among the
// participants: the explicit list plus the reporter when one is supplied,
// otherwise every profile in the household. The division is exact: shares
// use integer cents and the remainder goes to the payer's share, or to the
// lowest participant ID when the payer is not among the participants.
func ComputeSplits(e core.Expense, explicit []int64, allProfileIDs []int64) ([]core.SplitShare, error) {
	if e.Amount.Cents <= 0 {
		return nil, core.InvalidSplitf("cannot split non-positive amount %d", e.Amount.Cents)
	}

	if !e.IsShared {
		return []core.SplitShare{{UserID: e.ParticipantID(), Amount: e.Amount}}, nil
	}

	var participants []int64
	if explicit != nil {
		participants = append(participants, explicit...)
		participants = append(participants, e.ReporterID)
	} else {
		participants = append(participants, allProfileIDs...)
	}
	participants = dedupeIDs(participants)

	if len(participants) == 0 {
		return nil, core.InvalidSplitf("shared expense has no participants")
	}

	n := int64(len(participants))
	base := e.Amount.Cents / n
	remainder := e.Amount.Cents % n

	remainderTo := participants[0]
	for _, id := range participants {
		if id == e.PayerID {
			remainderTo = id
			break
		}
	}

	shares := make([]core.SplitShare, 0, len(participants))
	for _, id := range participants {
		cents := base
		if id == remainderTo {
			cents += remainder
		}
		shares = append(shares, core.SplitShare{UserID: id, Amount: core.Money{Cents: cents}})
	}
	return shares, nil
}

// Recompute replaces the expense's split rows from its current sharing
// configuration. explicit carries the participant list from an update
// request; nil means household-wide for shared expenses.
func (c *SplitCalculator) Recompute(ctx context.Context, e core.Expense, explicit []int64) error {
	var allIDs []int64
	if e.IsShared && explicit == nil {
		profiles, err := c.profiles.ListProfiles(ctx)
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		for _, p := range profiles {
			allIDs = append(allIDs, p.ID)
		}
	}

	shares, err := ComputeSplits(e, explicit, allIDs)
	if err != nil {
		return err
	}

	if err := c.splits.ReplaceExpenseSplits(ctx, e.ID, shares); err != nil {
		return fmt.Errorf("replace expense splits: %w", err)
	}

	slog.InfoContext(ctx, "Expense splits replaced",
		"expense_id", e.ID,
		"participants", len(shares),
		"amount_cents", e.Amount.Cents,
		"shared", e.IsShared)
	return nil
}

// dedupeIDs sorts ascending and drops duplicates, which also makes share
// ordering deterministic.
func dedupeIDs(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	var last int64 = -1
	for _, id := range ids {
		if id == last {
			continue
		}
		out = append(out, id)
		last = id
	}
	return out
}
