package http

import "github.com/yann-pourcenoux/expense-manager/internal/core"

// JSON representations. Amounts travel as integer cents; dates as YYYY-MM-DD.
type (
	expenseJSON struct {
		ID            int64  `json:"id"`
		ReporterID    int64  `json:"reporter_id"`
		PayerID       int64  `json:"payer_id"`
		BeneficiaryID int64  `json:"beneficiary_id,omitempty"`
		AmountCents   int64  `json:"amount_cents"`
		CategoryID    int64  `json:"category_id"`
		Date          string `json:"date"`
		Name          string `json:"name"`
		Description   string `json:"description,omitempty"`
		IsShared      bool   `json:"is_shared"`
	}

	splitJSON struct {
		ExpenseID   int64 `json:"expense_id"`
		UserID      int64 `json:"user_id"`
		AmountCents int64 `json:"amount_cents"`
	}

	transferJSON struct {
		ID            int64  `json:"id"`
		SourceID      int64  `json:"source_id"`
		BeneficiaryID int64  `json:"beneficiary_id"`
		AmountCents   int64  `json:"amount_cents"`
		Date          string `json:"date"`
	}

	profileJSON struct {
		ID          int64  `json:"id"`
		DisplayName string `json:"display_name"`
	}

	categoryJSON struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	incomeJSON struct {
		ID          int64  `json:"id"`
		UserID      int64  `json:"user_id"`
		AmountCents int64  `json:"amount_cents"`
		Month       string `json:"month"`
	}

	balanceJSON struct {
		BalanceCents int64 `json:"balance_cents"`
		PaidCents    int64 `json:"paid_cents"`
		OwedCents    int64 `json:"owed_cents"`
	}

	counterpartyJSON struct {
		UserID        int64 `json:"user_id"`
		OwesUserCents int64 `json:"owes_user_cents"`
		UserOwesCents int64 `json:"user_owes_cents"`
		NetCents      int64 `json:"net_cents"`
	}
)

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:            e.ID,
		ReporterID:    e.ReporterID,
		PayerID:       e.PayerID,
		BeneficiaryID: e.BeneficiaryID,
		AmountCents:   e.Amount.Cents,
		CategoryID:    e.CategoryID,
		Date:          e.Date.Format(dateLayout),
		Name:          e.Name,
		Description:   e.Description,
		IsShared:      e.IsShared,
	}
}

func toExpenseListJSON(expenses []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

func toSplitListJSON(splits []core.ExpenseSplit) []splitJSON {
	out := make([]splitJSON, 0, len(splits))
	for _, s := range splits {
		out = append(out, splitJSON{
			ExpenseID:   s.ExpenseID,
			UserID:      s.UserID,
			AmountCents: s.Amount.Cents,
		})
	}
	return out
}

func toTransferJSON(t core.Transfer) transferJSON {
	return transferJSON{
		ID:            t.ID,
		SourceID:      t.SourceID,
		BeneficiaryID: t.BeneficiaryID,
		AmountCents:   t.Amount.Cents,
		Date:          t.Date.Format(dateLayout),
	}
}

func toProfileJSON(p core.Profile) profileJSON {
	return profileJSON{ID: p.ID, DisplayName: p.DisplayName}
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Description: c.Description}
}

func toIncomeJSON(i core.MonthlyIncome) incomeJSON {
	return incomeJSON{
		ID:          i.ID,
		UserID:      i.UserID,
		AmountCents: i.Amount.Cents,
		Month:       i.MonthDate.Format("2006-01"),
	}
}

func toBalanceJSON(b core.Balance) balanceJSON {
	return balanceJSON{
		BalanceCents: b.Balance.Cents,
		PaidCents:    b.Paid.Cents,
		OwedCents:    b.Owed.Cents,
	}
}

func toBreakdownJSON(rows []core.CounterpartyBalance) []counterpartyJSON {
	out := make([]counterpartyJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, counterpartyJSON{
			UserID:        row.UserID,
			OwesUserCents: row.OwesUser.Cents,
			UserOwesCents: row.UserOwes.Cents,
			NetCents:      row.NetBalance.Cents,
		})
	}
	return out
}
