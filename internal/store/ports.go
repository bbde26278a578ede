// Package store declares the persistence ports the ledger services consume.
//
// Every method is scoped by household ID; implementations must never return
// records of another household. Missing records are reported with
// core.NotFound, referential conflicts with core.Conflict(..., core.ErrReferenced).
package store

import (
	"context"

	"saldo/internal/core"
)

// Ports for outbound adapters.
type (
	AccountStore interface {
		// ListAccounts returns the household's accounts in creation order.
		ListAccounts(ctx context.Context, householdID string) ([]core.Account, error)
		GetAccount(ctx context.Context, householdID, id string) (core.Account, error)
		CreateAccount(ctx context.Context, a core.Account) error
		// DeleteAccount removes the account. With cascade it also removes the
		// account's cards, incomes and every expense with an installment on it;
		// without cascade any such reference is a conflict.
		DeleteAccount(ctx context.Context, householdID, id string, cascade bool) error
	}

	CardStore interface {
		ListCards(ctx context.Context, householdID string) ([]core.CreditCard, error)
		GetCard(ctx context.Context, householdID, id string) (core.CreditCard, error)
		CreateCard(ctx context.Context, c core.CreditCard) error
		// DeleteCard fails with a conflict while expenses reference the card.
		DeleteCard(ctx context.Context, householdID, id string) error
	}

	CategoryStore interface {
		// ListCategories returns the household's categories ordered by name.
		ListCategories(ctx context.Context, householdID string) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) error
		// DeleteCategory fails with a conflict while any expense, income or
		// fixed expense references the category.
		DeleteCategory(ctx context.Context, householdID, id string) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) error
		GetExpense(ctx context.Context, householdID, id string) (core.Expense, error)
		ListExpensesByIDs(ctx context.Context, householdID string, ids []string) ([]core.Expense, error)
		// ListFixedPayments returns expenses linked to the template whose
		// purchase date lies within [from, to]. An empty template ID matches
		// payments of any template.
		ListFixedPayments(ctx context.Context, householdID, fixedExpenseID string, from, to core.Date) ([]core.Expense, error)
		// DeleteExpense removes the expense and its installments.
		DeleteExpense(ctx context.Context, householdID, id string) error
	}

	InstallmentStore interface {
		// CreateInstallments inserts the batch; it is all or nothing.
		CreateInstallments(ctx context.Context, list []core.Installment) error
		GetInstallment(ctx context.Context, householdID, id string) (core.Installment, error)
		ListInstallmentsByExpense(ctx context.Context, householdID, expenseID string) ([]core.Installment, error)
		ListInstallmentsDue(ctx context.Context, householdID string, from, to core.Date) ([]core.Installment, error)
		ListInstallmentsByAccount(ctx context.Context, householdID, accountID string) ([]core.Installment, error)
		ListInstallmentsByCard(ctx context.Context, householdID, cardID string, from, to core.Date) ([]core.Installment, error)
		MarkInstallmentsPaid(ctx context.Context, householdID string, ids []string, paidOn core.Date) error
	}

	IncomeStore interface {
		CreateIncome(ctx context.Context, i core.Income) error
		GetIncome(ctx context.Context, householdID, id string) (core.Income, error)
		DeleteIncome(ctx context.Context, householdID, id string) error
		ListIncomes(ctx context.Context, householdID string, from, to core.Date) ([]core.Income, error)
		ListIncomesByAccount(ctx context.Context, householdID, accountID string) ([]core.Income, error)
	}

	FixedExpenseStore interface {
		// ListFixedExpenses returns all templates ordered by due day.
		ListFixedExpenses(ctx context.Context, householdID string) ([]core.FixedExpense, error)
		GetFixedExpense(ctx context.Context, householdID, id string) (core.FixedExpense, error)
		CreateFixedExpense(ctx context.Context, fe core.FixedExpense) error
		SetFixedExpenseActive(ctx context.Context, householdID, id string, active bool) error
		// DeleteFixedExpense removes the template; payments already made keep
		// their history and lose the backreference.
		DeleteFixedExpense(ctx context.Context, householdID, id string) error
	}

	// ScheduleWriter is implemented by stores that can persist a purchase and
	// its installments in one transaction.
	ScheduleWriter interface {
		CreateExpenseWithInstallments(ctx context.Context, e core.Expense, list []core.Installment) error
	}

	// Store is the full persistence collaborator.
	Store interface {
		AccountStore
		CardStore
		CategoryStore
		ExpenseStore
		InstallmentStore
		IncomeStore
		FixedExpenseStore
		Close() error
	}
)
