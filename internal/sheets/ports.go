package sheets

import "context"

// ExpenseRow is one exported ledger line.
type ExpenseRow struct {
	ExpenseID   int64
	Date        string
	Name        string
	Description string
	Amount      float64
	Payer       string
	Category    string
	Shared      bool
}

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, row ExpenseRow) error
	}
)
