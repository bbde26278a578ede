package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"saldo/internal/core"
)

// ListCategories returns the household's categories ordered by name.
// Lists are cached per household and dropped on every category write.
func (l *Ledger) ListCategories(ctx context.Context, scope core.Scope) ([]core.Category, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) ([]core.Category, error) {
		cats, err := l.store.ListCategories(ctx, scope.HouseholdID)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		return cats, nil
	}
	if l.categories == nil {
		return load(ctx)
	}
	return l.categories.GetOrLoad(ctx, scope.HouseholdID, load)
}

func (l *Ledger) categoryIndex(ctx context.Context, scope core.Scope) (map[string]core.Category, error) {
	cats, err := l.ListCategories(ctx, scope)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]core.Category, len(cats))
	for _, c := range cats {
		idx[c.ID] = c
	}
	return idx, nil
}

// CreateCategory derives the slug from the name.
func (l *Ledger) CreateCategory(ctx context.Context, scope core.Scope, name string, kind core.CategoryKind) (core.Category, error) {
	if err := checkScope(scope); err != nil {
		return core.Category{}, err
	}
	c := core.Category{
		ID:          l.newID(),
		HouseholdID: scope.HouseholdID,
		Name:        strings.TrimSpace(name),
		Kind:        kind,
		Slug:        core.Slugify(name),
		CreatedBy:   scope.UserID,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	if err := l.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	l.invalidateCategories(scope)

	slog.InfoContext(ctx, "Category created", "id", c.ID, "slug", c.Slug, "kind", c.Kind)
	return c, nil
}

// DeleteCategory fails with a conflict while records still use it.
func (l *Ledger) DeleteCategory(ctx context.Context, scope core.Scope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := l.store.DeleteCategory(ctx, scope.HouseholdID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	l.invalidateCategories(scope)
	return nil
}

func (l *Ledger) invalidateCategories(scope core.Scope) {
	if l.categories != nil {
		l.categories.Delete(scope.HouseholdID)
	}
}
