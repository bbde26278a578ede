package services

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
)

// StatementInput carries everything the unifier needs for one range. The
// caller fetches it; BuildStatement never touches the store.
type StatementInput struct {
	Incomes      []core.Income
	Installments []core.Installment
	// Expenses indexes the parent purchases of Installments by ID.
	Expenses    map[string]core.Expense
	Categories  map[string]core.Category
	Projections []core.FixedProjection
}

// BuildStatement merges incomes, installments and fixed projections into one
// list ordered by date, newest first. Entries sharing a date keep the order
// incomes, installments, projections.
//
// The installment of a fixed-expense payment is skipped only when the
// projection it reconciles is part of the same statement. A payment whose
// projection is absent (paused template, due date outside the range) is
// listed as an ordinary installment so the debit never goes missing.
func BuildStatement(in StatementInput, userID string) []core.LedgerEntry {
	entries := make([]core.LedgerEntry, 0, len(in.Incomes)+len(in.Installments)+len(in.Projections))

	projected := make(map[string]bool, len(in.Projections))
	for _, p := range in.Projections {
		if p.PaymentExpenseID != "" {
			projected[p.PaymentExpenseID] = true
		}
	}

	for _, inc := range in.Incomes {
		entries = append(entries, core.LedgerEntry{
			ID:          inc.ID,
			Type:        core.EntryIncome,
			Source:      core.SourceIncome,
			ReferenceID: inc.ID,
			Amount:      inc.Amount,
			Description: inc.Description,
			Category:    categoryRef(in.Categories, inc.CategoryID),
			Date:        inc.Date,
			Status:      core.StatusPaid,
			CreatedBy:   inc.CreatedBy,
		})
	}

	for _, inst := range in.Installments {
		exp, ok := in.Expenses[inst.ExpenseID]
		if !ok || (exp.FixedExpenseID != "" && projected[exp.ID]) {
			continue
		}
		desc := exp.Description
		if exp.InstallmentCount > 1 {
			desc = fmt.Sprintf("%s (%d/%d)", exp.Description, inst.Parcel, exp.InstallmentCount)
		}
		entries = append(entries, core.LedgerEntry{
			ID:          inst.ID,
			Type:        core.EntryExpense,
			Source:      core.SourceInstallment,
			ReferenceID: exp.ID,
			Amount:      inst.Amount,
			Description: desc,
			Category:    categoryRef(in.Categories, exp.CategoryID),
			Date:        inst.DueDate,
			Status:      inst.Status,
			CreatedBy:   exp.CreatedBy,
		})
	}

	for _, p := range in.Projections {
		fe := p.FixedExpense
		entries = append(entries, core.LedgerEntry{
			ID:               fe.ID + "@" + p.Month.MonthKey(),
			Type:             core.EntryExpense,
			Source:           core.SourceFixed,
			ReferenceID:      fe.ID,
			Amount:           fe.Amount,
			Description:      fe.Description + " (Fixed)",
			Category:         categoryRef(in.Categories, fe.CategoryID),
			Date:             p.DueDate,
			Status:           p.Status,
			PaymentExpenseID: p.PaymentExpenseID,
			CreatedBy:        fe.CreatedBy,
		})
	}

	for i := range entries {
		entries[i].CreatedByYou = userID != "" && entries[i].CreatedBy == userID
	}

	slices.SortStableFunc(entries, func(a, b core.LedgerEntry) int {
		return b.Date.Compare(a.Date.Time)
	})
	return entries
}

func categoryRef(cats map[string]core.Category, id string) core.CategoryRef {
	c, ok := cats[id]
	if !ok {
		return core.CategoryRef{ID: id}
	}
	return core.CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

// GetStatement builds the unified statement for [start, end]. The sources
// are read concurrently; the first failure cancels the others.
func (l *Ledger) GetStatement(ctx context.Context, scope core.Scope, start, end core.Date) ([]core.LedgerEntry, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	if err := start.Validate(); err != nil {
		return nil, core.Invalid("start", err)
	}
	if err := end.Validate(); err != nil {
		return nil, core.Invalid("end", err)
	}
	if end.Before(start.Time) {
		return nil, core.Invalid("end", core.ErrInvalidRange)
	}

	var (
		in        StatementInput
		templates []core.FixedExpense
		payments  []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if in.Incomes, err = l.store.ListIncomes(gctx, scope.HouseholdID, start, end); err != nil {
			return fmt.Errorf("list incomes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if in.Installments, err = l.store.ListInstallmentsDue(gctx, scope.HouseholdID, start, end); err != nil {
			return fmt.Errorf("list installments: %w", err)
		}
		in.Expenses, err = l.expenseIndex(gctx, scope, in.Installments)
		return err
	})
	g.Go(func() error {
		var err error
		if templates, err = l.store.ListFixedExpenses(gctx, scope.HouseholdID); err != nil {
			return fmt.Errorf("list fixed expenses: %w", err)
		}
		if payments, err = l.store.ListFixedPayments(gctx, scope.HouseholdID, "", start.MonthStart(), end.MonthEnd()); err != nil {
			return fmt.Errorf("list fixed payments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		in.Categories, err = l.categoryIndex(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in.Projections = ProjectionsForRange(templates, payments, start, end)
	return BuildStatement(in, scope.UserID), nil
}

// Summarize totals statement entries by type.
func Summarize(entries []core.LedgerEntry) core.MonthSummary {
	var sum core.MonthSummary
	for _, e := range entries {
		switch e.Type {
		case core.EntryIncome:
			sum.Income = sum.Income.Add(e.Amount)
		case core.EntryExpense:
			sum.Expense = sum.Expense.Add(e.Amount)
			if e.Status == core.StatusPending {
				sum.Pending = sum.Pending.Add(e.Amount)
			}
		}
	}
	sum.Net = sum.Income.Sub(sum.Expense)
	return sum
}

// GetMonthSummary totals the statement of the month containing month.
func (l *Ledger) GetMonthSummary(ctx context.Context, scope core.Scope, month core.Date) (core.MonthSummary, error) {
	if month.IsEmpty() {
		month = l.today()
	}
	entries, err := l.GetStatement(ctx, scope, month.MonthStart(), month.MonthEnd())
	if err != nil {
		return core.MonthSummary{}, err
	}
	sum := Summarize(entries)
	sum.Month = month.MonthStart()
	return sum, nil
}
