package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

const monthLayout = "2006-01-02"

// Repository is the SQLite-backed ledger store.
type Repository struct {
	db *sql.DB
}

var _ ledger.Store = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens the SQLite database at path and runs pending migrations.
func Open(path string) (*Repository, *sql.DB, error) {
	if err := RunMigrations(path); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; a pool of one avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return NewRepository(db), db, nil
}

// -- expenses --

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (reporter_id, payer_id, beneficiary_id, amount_cents, category_id, date, name, description, is_shared)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ReporterID, e.PayerID, e.BeneficiaryID, e.Amount.Cents, e.CategoryID, e.Date, e.Name, e.Description, e.IsShared,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	e.ID = id
	return e, nil
}

const expenseColumns = "id, reporter_id, payer_id, beneficiary_id, amount_cents, category_id, date, name, description, is_shared, created_at"

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	err := row.Scan(&e.ID, &e.ReporterID, &e.PayerID, &e.BeneficiaryID, &e.Amount.Cents,
		&e.CategoryID, &e.Date, &e.Name, &e.Description, &e.IsShared, &e.CreatedAt)
	return e, err
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.NotFoundf("expense %d not found", id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET reporter_id = ?, payer_id = ?, beneficiary_id = ?, amount_cents = ?, category_id = ?, date = ?, name = ?, description = ?, is_shared = ?
		WHERE id = ?`,
		e.ReporterID, e.PayerID, e.BeneficiaryID, e.Amount.Cents, e.CategoryID, e.Date, e.Name, e.Description, e.IsShared, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	return requireAffected(res, "expense %d not found", e.ID)
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return requireAffected(res, "expense %d not found", id)
}

func (r *Repository) ListExpensesForBalance(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE is_shared = 1
		   OR (beneficiary_id != 0 AND beneficiary_id != payer_id)
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list settlement expenses: %w", err)
	}
	return collectExpenses(rows)
}

func (r *Repository) ListExpenses(ctx context.Context, filter ledger.ExpenseFilter) ([]core.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses"
	var (
		conds []string
		args  []any
	)
	if filter.UserID != 0 {
		conds = append(conds, "(is_shared = 1 OR payer_id = ? OR beneficiary_id = ?)")
		args = append(args, filter.UserID, filter.UserID)
	}
	if filter.CategoryID != 0 {
		conds = append(conds, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, filter.EndDate)
	}
	if filter.SharedOnly {
		conds = append(conds, "is_shared = 1")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collectExpenses(rows)
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) CountExpensesByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses WHERE category_id = ?", categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses for category %d: %w", categoryID, err)
	}
	return n, nil
}

// -- splits --

func (r *Repository) GetExpenseSplits(ctx context.Context, expenseID int64) ([]core.ExpenseSplit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, expense_id, user_id, amount_cents, created_at
		FROM expense_splits WHERE expense_id = ? ORDER BY user_id`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list splits for expense %d: %w", expenseID, err)
	}
	defer rows.Close()

	var out []core.ExpenseSplit
	for rows.Next() {
		var s core.ExpenseSplit
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount.Cents, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) ReplaceExpenseSplits(ctx context.Context, expenseID int64, shares []core.SplitShare) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin split replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("clear splits for expense %d: %w", expenseID, err)
	}
	for _, share := range shares {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount_cents) VALUES (?, ?, ?)",
			expenseID, share.UserID, share.Amount.Cents,
		); err != nil {
			return fmt.Errorf("insert split for expense %d: %w", expenseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit split replace: %w", err)
	}
	return nil
}

func (r *Repository) DeleteExpenseSplits(ctx context.Context, expenseID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("delete splits for expense %d: %w", expenseID, err)
	}
	return nil
}

// -- transfers --

func (r *Repository) CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transfers (source_id, beneficiary_id, amount_cents, date)
		VALUES (?, ?, ?, ?)`,
		t.SourceID, t.BeneficiaryID, t.Amount.Cents, t.Date,
	)
	if err != nil {
		return core.Transfer{}, fmt.Errorf("insert transfer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transfer{}, fmt.Errorf("transfer id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (r *Repository) GetTransfer(ctx context.Context, id int64) (core.Transfer, error) {
	var t core.Transfer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source_id, beneficiary_id, amount_cents, date, created_at
		FROM transfers WHERE id = ?`, id,
	).Scan(&t.ID, &t.SourceID, &t.BeneficiaryID, &t.Amount.Cents, &t.Date, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transfer{}, core.NotFoundf("transfer %d not found", id)
	}
	if err != nil {
		return core.Transfer{}, fmt.Errorf("get transfer %d: %w", id, err)
	}
	return t, nil
}

func (r *Repository) DeleteTransfer(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transfers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transfer %d: %w", id, err)
	}
	return requireAffected(res, "transfer %d not found", id)
}

func (r *Repository) ListTransfers(ctx context.Context, filter ledger.TransferFilter) ([]core.Transfer, error) {
	query := "SELECT id, source_id, beneficiary_id, amount_cents, date, created_at FROM transfers"
	var (
		conds []string
		args  []any
	)
	if filter.UserID != 0 {
		conds = append(conds, "(source_id = ? OR beneficiary_id = ?)")
		args = append(args, filter.UserID, filter.UserID)
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, filter.EndDate)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []core.Transfer
	for rows.Next() {
		var t core.Transfer
		if err := rows.Scan(&t.ID, &t.SourceID, &t.BeneficiaryID, &t.Amount.Cents, &t.Date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// -- profiles --

func (r *Repository) CreateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO profiles (user_id, display_name) VALUES (?, ?)",
		p.UserID, p.DisplayName,
	)
	if err != nil {
		return core.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Profile{}, fmt.Errorf("profile id: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r *Repository) GetProfileByUser(ctx context.Context, userID string) (core.Profile, error) {
	var p core.Profile
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, display_name, created_at FROM profiles WHERE user_id = ?", userID,
	).Scan(&p.ID, &p.UserID, &p.DisplayName, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.NotFoundf("profile for user %s not found", userID)
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile for user %s: %w", userID, err)
	}
	return p, nil
}

func (r *Repository) UpdateProfileName(ctx context.Context, id int64, displayName string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE profiles SET display_name = ? WHERE id = ?", displayName, id)
	if err != nil {
		return fmt.Errorf("update profile %d: %w", id, err)
	}
	return requireAffected(res, "profile %d not found", id)
}

func (r *Repository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, user_id, display_name, created_at FROM profiles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []core.Profile
	for rows.Next() {
		var p core.Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// -- categories --

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, description) VALUES (?, ?)",
		c.Name, c.Description,
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at FROM categories WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFoundf("category %d not found", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, description = ? WHERE id = ?",
		c.Name, c.Description, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return requireAffected(res, "category %d not found", c.ID)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return requireAffected(res, "category %d not found", id)
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// -- monthly income --

func (r *Repository) GetMonthlyIncome(ctx context.Context, userID int64, month time.Time) (core.MonthlyIncome, error) {
	key := core.MonthStart(month).Format(monthLayout)
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount_cents, month_date, created_at
		FROM monthly_income WHERE user_id = ? AND month_date = ?`, userID, key)
	income, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyIncome{}, core.NotFoundf("no income for user %d in %s", userID, key)
	}
	if err != nil {
		return core.MonthlyIncome{}, fmt.Errorf("get income for user %d: %w", userID, err)
	}
	return income, nil
}

func (r *Repository) UpsertMonthlyIncome(ctx context.Context, income core.MonthlyIncome) (core.MonthlyIncome, error) {
	key := core.MonthStart(income.MonthDate).Format(monthLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_income (user_id, amount_cents, month_date)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, month_date) DO UPDATE SET amount_cents = excluded.amount_cents`,
		income.UserID, income.Amount.Cents, key,
	)
	if err != nil {
		return core.MonthlyIncome{}, fmt.Errorf("upsert income for user %d: %w", income.UserID, err)
	}
	return r.GetMonthlyIncome(ctx, income.UserID, income.MonthDate)
}

func (r *Repository) GetIncomeRecord(ctx context.Context, id int64) (core.MonthlyIncome, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount_cents, month_date, created_at
		FROM monthly_income WHERE id = ?`, id)
	income, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyIncome{}, core.NotFoundf("income record %d not found", id)
	}
	if err != nil {
		return core.MonthlyIncome{}, fmt.Errorf("get income record %d: %w", id, err)
	}
	return income, nil
}

func (r *Repository) DeleteMonthlyIncome(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM monthly_income WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete income record %d: %w", id, err)
	}
	return requireAffected(res, "income record %d not found", id)
}

func (r *Repository) ListIncomeHistory(ctx context.Context, userID int64, limit int) ([]core.MonthlyIncome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, month_date, created_at
		FROM monthly_income WHERE user_id = ?
		ORDER BY month_date DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list income history for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []core.MonthlyIncome
	for rows.Next() {
		income, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, income)
	}
	return out, rows.Err()
}

func scanIncome(row interface{ Scan(...any) error }) (core.MonthlyIncome, error) {
	var (
		income core.MonthlyIncome
		month  string
	)
	err := row.Scan(&income.ID, &income.UserID, &income.Amount.Cents, &month, &income.CreatedAt)
	if err != nil {
		return core.MonthlyIncome{}, err
	}
	parsed, err := time.ParseInLocation(monthLayout, month, time.UTC)
	if err != nil {
		return core.MonthlyIncome{}, fmt.Errorf("parse month date %q: %w", month, err)
	}
	income.MonthDate = parsed
	return income, nil
}

// -- users --

func (r *Repository) CreateUser(ctx context.Context, id, email, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)",
		id, email, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Conflictf("email %s is already registered", email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users WHERE email = ?", email,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", core.NotFoundf("user %s not found", email)
	}
	if err != nil {
		return "", "", fmt.Errorf("get user %s: %w", email, err)
	}
	return id, hash, nil
}

func requireAffected(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFoundf(format, args...)
	}
	return nil
}
