package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// CategoryService manages expense categories. Deletion is blocked while any
// expense still references the category.
type CategoryService struct {
	categories ledger.CategoryStore
	expenses   ledger.ExpenseStore
}

func NewCategoryService(categories ledger.CategoryStore, expenses ledger.ExpenseStore) *CategoryService {
	return &CategoryService{
		categories: categories,
		expenses:   expenses,
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, name, description string) (core.Category, error) {
	c := core.Category{Name: name, Description: description}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.categories.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "category_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name, description string) (core.Category, error) {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}

	c.Name = name
	c.Description = description
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	return c, nil
}

// DeleteCategory removes a category. It fails with a conflict naming the
// number of dependent expenses when the category is still in use.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.categories.GetCategory(ctx, id); err != nil {
		return fmt.Errorf("get category %d: %w", id, err)
	}

	count, err := s.expenses.CountExpensesByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count expenses for category %d: %w", id, err)
	}
	if count > 0 {
		return core.Conflictf("cannot delete category: it is used by %d expenses", count)
	}

	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	return nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.categories.ListCategories(ctx)
}
