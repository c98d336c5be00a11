package ledger

import (
	"context"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
)

// Ports for the ledger store. The settlement engine consumes these; SQLite
// and the in-memory store implement them.
type (
	// ExpenseFilter narrows ListExpenses. UserID restricts to expenses the
	// profile is involved in (shared, payer, or beneficiary); SharedOnly
	// restricts to shared expenses; zero-value fields are ignored.
	ExpenseFilter struct {
		UserID     int64
		StartDate  time.Time
		EndDate    time.Time
		CategoryID int64
		SharedOnly bool
	}

	// TransferFilter narrows ListTransfers; zero-value fields are ignored.
	TransferFilter struct {
		UserID    int64
		StartDate time.Time
		EndDate   time.Time
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id int64) error
		// ListExpensesForBalance returns every expense relevant to
		// settlement: shared, or payer different from beneficiary.
		ListExpensesForBalance(ctx context.Context) ([]core.Expense, error)
		ListExpenses(ctx context.Context, filter ExpenseFilter) ([]core.Expense, error)
		// CountExpensesByCategory reports how many expenses reference a
		// category; the delete guard depends on it.
		CountExpensesByCategory(ctx context.Context, categoryID int64) (int64, error)
	}

	SplitStore interface {
		GetExpenseSplits(ctx context.Context, expenseID int64) ([]core.ExpenseSplit, error)
		// ReplaceExpenseSplits atomically swaps all split rows of an
		// expense for the given shares. Re-running with the same shares
		// must produce the same final rows.
		ReplaceExpenseSplits(ctx context.Context, expenseID int64, shares []core.SplitShare) error
		DeleteExpenseSplits(ctx context.Context, expenseID int64) error
	}

	TransferStore interface {
		CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error)
		GetTransfer(ctx context.Context, id int64) (core.Transfer, error)
		DeleteTransfer(ctx context.Context, id int64) error
		ListTransfers(ctx context.Context, filter TransferFilter) ([]core.Transfer, error)
	}

	ProfileStore interface {
		CreateProfile(ctx context.Context, p core.Profile) (core.Profile, error)
		// GetProfileByUser returns the profile owned by an auth user, or a
		// not-found error.
		GetProfileByUser(ctx context.Context, userID string) (core.Profile, error)
		UpdateProfileName(ctx context.Context, id int64, displayName string) error
		ListProfiles(ctx context.Context) ([]core.Profile, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id int64) error
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	IncomeStore interface {
		// GetMonthlyIncome returns the record for (userID, month), or a
		// not-found error. Month is normalized with core.MonthStart.
		GetMonthlyIncome(ctx context.Context, userID int64, month time.Time) (core.MonthlyIncome, error)
		UpsertMonthlyIncome(ctx context.Context, income core.MonthlyIncome) (core.MonthlyIncome, error)
		GetIncomeRecord(ctx context.Context, id int64) (core.MonthlyIncome, error)
		DeleteMonthlyIncome(ctx context.Context, id int64) error
		ListIncomeHistory(ctx context.Context, userID int64, limit int) ([]core.MonthlyIncome, error)
	}

	// UserStore persists auth users. Kept next to the ledger ports because
	// profiles are created alongside users at signup.
	UserStore interface {
		CreateUser(ctx context.Context, id, email, passwordHash string) error
		// GetUserByEmail returns (id, passwordHash) or a not-found error.
		GetUserByEmail(ctx context.Context, email string) (id, passwordHash string, err error)
	}

	// Store is the full ledger store contract.
	Store interface {
		ExpenseStore
		SplitStore
		TransferStore
		ProfileStore
		CategoryStore
		IncomeStore
		UserStore
	}
)
