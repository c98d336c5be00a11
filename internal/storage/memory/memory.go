// Package memory provides an in-process ledger store. It backs local
// development without a database file and doubles as the store used by the
// service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

type user struct {
	id           string
	email        string
	passwordHash string
}

// Store keeps the whole ledger in memory behind a single mutex. Writes are
// serialized; reads copy rows out so callers never observe mutation.
type Store struct {
	mu sync.Mutex

	nextID     int64
	expenses   map[int64]core.Expense
	splits     map[int64][]core.ExpenseSplit // keyed by expense ID
	nextSplit  int64
	transfers  map[int64]core.Transfer
	profiles   map[int64]core.Profile
	categories map[int64]core.Category
	income     map[int64]core.MonthlyIncome
	users      map[string]user // keyed by email
}

var _ ledger.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		expenses:   make(map[int64]core.Expense),
		splits:     make(map[int64][]core.ExpenseSplit),
		transfers:  make(map[int64]core.Transfer),
		profiles:   make(map[int64]core.Profile),
		categories: make(map[int64]core.Category),
		income:     make(map[int64]core.MonthlyIncome),
		users:      make(map[string]user),
	}
}

func (s *Store) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextIDLocked()
	e.CreatedAt = time.Now()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.NotFoundf("expense %d not found", id)
	}
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[e.ID]; !ok {
		return core.NotFoundf("expense %d not found", e.ID)
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return core.NotFoundf("expense %d not found", id)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpensesForBalance(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Expense
	for _, e := range s.expenses {
		if e.SettlementRelevant() {
			out = append(out, e)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context, filter ledger.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Expense
	for _, e := range s.expenses {
		if filter.UserID != 0 {
			involved := e.IsShared || e.PayerID == filter.UserID || e.BeneficiaryID == filter.UserID
			if !involved {
				continue
			}
		}
		if !filter.StartDate.IsZero() && e.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && e.Date.After(filter.EndDate) {
			continue
		}
		if filter.CategoryID != 0 && e.CategoryID != filter.CategoryID {
			continue
		}
		if filter.SharedOnly && !e.IsShared {
			continue
		}
		out = append(out, e)
	}
	// Newest first, matching the SQL backend's ORDER BY date DESC, id DESC.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CountExpensesByCategory(_ context.Context, categoryID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, e := range s.expenses {
		if e.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetExpenseSplits(_ context.Context, expenseID int64) ([]core.ExpenseSplit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	splits := s.splits[expenseID]
	out := make([]core.ExpenseSplit, len(splits))
	copy(out, splits)
	return out, nil
}

func (s *Store) ReplaceExpenseSplits(_ context.Context, expenseID int64, shares []core.SplitShare) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]core.ExpenseSplit, 0, len(shares))
	for _, share := range shares {
		s.nextSplit++
		rows = append(rows, core.ExpenseSplit{
			ID:        s.nextSplit,
			ExpenseID: expenseID,
			UserID:    share.UserID,
			Amount:    share.Amount,
			CreatedAt: time.Now(),
		})
	}
	s.splits[expenseID] = rows
	return nil
}

func (s *Store) DeleteExpenseSplits(_ context.Context, expenseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.splits, expenseID)
	return nil
}

func (s *Store) CreateTransfer(_ context.Context, t core.Transfer) (core.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextIDLocked()
	t.CreatedAt = time.Now()
	if t.Date.IsZero() {
		t.Date = t.CreatedAt
	}
	s.transfers[t.ID] = t
	return t, nil
}

func (s *Store) GetTransfer(_ context.Context, id int64) (core.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transfers[id]
	if !ok {
		return core.Transfer{}, core.NotFoundf("transfer %d not found", id)
	}
	return t, nil
}

func (s *Store) DeleteTransfer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[id]; !ok {
		return core.NotFoundf("transfer %d not found", id)
	}
	delete(s.transfers, id)
	return nil
}

func (s *Store) ListTransfers(_ context.Context, filter ledger.TransferFilter) ([]core.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transfer
	for _, t := range s.transfers {
		if filter.UserID != 0 && t.SourceID != filter.UserID && t.BeneficiaryID != filter.UserID {
			continue
		}
		if !filter.StartDate.IsZero() && t.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && t.Date.After(filter.EndDate) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.profiles {
		if existing.UserID == p.UserID {
			return core.Profile{}, core.Conflictf("profile for user %s already exists", p.UserID)
		}
	}

	p.ID = s.nextIDLocked()
	p.CreatedAt = time.Now()
	s.profiles[p.ID] = p
	return p, nil
}

func (s *Store) GetProfileByUser(_ context.Context, userID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return core.Profile{}, core.NotFoundf("profile for user %s not found", userID)
}

func (s *Store) UpdateProfileName(_ context.Context, id int64, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return core.NotFoundf("profile %d not found", id)
	}
	p.DisplayName = displayName
	s.profiles[id] = p
	return nil
}

func (s *Store) ListProfiles(_ context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextIDLocked()
	c.CreatedAt = time.Now()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.NotFoundf("category %d not found", id)
	}
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return core.NotFoundf("category %d not found", c.ID)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return core.NotFoundf("category %d not found", id)
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetMonthlyIncome(_ context.Context, userID int64, month time.Time) (core.MonthlyIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	month = core.MonthStart(month)
	for _, income := range s.income {
		if income.UserID == userID && income.MonthDate.Equal(month) {
			return income, nil
		}
	}
	return core.MonthlyIncome{}, core.NotFoundf("no income for user %d in %s", userID, month.Format("2006-01"))
}

func (s *Store) UpsertMonthlyIncome(_ context.Context, income core.MonthlyIncome) (core.MonthlyIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	income.MonthDate = core.MonthStart(income.MonthDate)
	for id, existing := range s.income {
		if existing.UserID == income.UserID && existing.MonthDate.Equal(income.MonthDate) {
			existing.Amount = income.Amount
			s.income[id] = existing
			return existing, nil
		}
	}

	income.ID = s.nextIDLocked()
	income.CreatedAt = time.Now()
	s.income[income.ID] = income
	return income, nil
}

func (s *Store) GetIncomeRecord(_ context.Context, id int64) (core.MonthlyIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	income, ok := s.income[id]
	if !ok {
		return core.MonthlyIncome{}, core.NotFoundf("income record %d not found", id)
	}
	return income, nil
}

func (s *Store) DeleteMonthlyIncome(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.income[id]; !ok {
		return core.NotFoundf("income record %d not found", id)
	}
	delete(s.income, id)
	return nil
}

func (s *Store) ListIncomeHistory(_ context.Context, userID int64, limit int) ([]core.MonthlyIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.MonthlyIncome
	for _, income := range s.income {
		if income.UserID == userID {
			out = append(out, income)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthDate.After(out[j].MonthDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, id, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; ok {
		return core.Conflictf("email already registered")
	}
	s.users[email] = user{id: id, email: email, passwordHash: passwordHash}
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return "", "", core.NotFoundf("user with email %s not found", email)
	}
	return u.id, u.passwordHash, nil
}

func sortExpenses(expenses []core.Expense) {
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].ID < expenses[j].ID })
}
