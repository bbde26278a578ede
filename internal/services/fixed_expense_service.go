package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"saldo/internal/amqp"
	"saldo/internal/core"
)

// NewFixedExpense is the input of CreateFixedExpense. A nil or non-positive
// DurationMonths makes the template open-ended.
type NewFixedExpense struct {
	CategoryID     string     `json:"category_id"`
	Description    string     `json:"description"`
	Amount         core.Money `json:"amount"`
	DueDay         int        `json:"due_day"`
	StartDate      core.Date  `json:"start_date"`
	DurationMonths *int       `json:"duration_months"`
}

// ListFixedExpenses returns every template, ordered by due day.
func (l *Ledger) ListFixedExpenses(ctx context.Context, scope core.Scope) ([]core.FixedExpense, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	list, err := l.store.ListFixedExpenses(ctx, scope.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	return list, nil
}

func (l *Ledger) CreateFixedExpense(ctx context.Context, scope core.Scope, in NewFixedExpense) (core.FixedExpense, error) {
	if err := checkScope(scope); err != nil {
		return core.FixedExpense{}, err
	}
	duration := in.DurationMonths
	if duration != nil && *duration <= 0 {
		duration = nil
	}
	fe := core.FixedExpense{
		ID:             l.newID(),
		HouseholdID:    scope.HouseholdID,
		CategoryID:     in.CategoryID,
		Description:    strings.TrimSpace(in.Description),
		Amount:         in.Amount,
		DueDay:         in.DueDay,
		StartDate:      in.StartDate,
		DurationMonths: duration,
		Active:         true,
		CreatedBy:      scope.UserID,
		CreatedAt:      l.now().UTC(),
	}
	if err := fe.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	if err := l.checkCategory(ctx, scope, fe.CategoryID, core.KindExpense); err != nil {
		return core.FixedExpense{}, err
	}
	if err := l.store.CreateFixedExpense(ctx, fe); err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", err)
	}

	slog.InfoContext(ctx, "Fixed expense created",
		"id", fe.ID,
		"due_day", fe.DueDay,
		"amount_cents", fe.Amount.Cents,
		"open_ended", !fe.Finite())
	return fe, nil
}

// SetFixedExpenseActive pauses or resumes a template. Paused templates do
// not project.
func (l *Ledger) SetFixedExpenseActive(ctx context.Context, scope core.Scope, id string, active bool) (core.FixedExpense, error) {
	if err := checkScope(scope); err != nil {
		return core.FixedExpense{}, err
	}
	if err := l.store.SetFixedExpenseActive(ctx, scope.HouseholdID, id, active); err != nil {
		return core.FixedExpense{}, fmt.Errorf("update fixed expense: %w", err)
	}
	fe, err := l.store.GetFixedExpense(ctx, scope.HouseholdID, id)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("get fixed expense: %w", err)
	}
	return fe, nil
}

// DeleteFixedExpense removes the template. Payments already made stay in
// the ledger as ordinary expenses.
func (l *Ledger) DeleteFixedExpense(ctx context.Context, scope core.Scope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := l.store.DeleteFixedExpense(ctx, scope.HouseholdID, id); err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	return nil
}

// MarkFixedExpensePaid materialises the month's payment as a single paid
// installment debited from accountID on date. Only an active template can
// be paid, only for a month it projects into, and only once per month.
func (l *Ledger) MarkFixedExpensePaid(ctx context.Context, scope core.Scope, templateID string, date core.Date, accountID string) (CreatedExpense, error) {
	if err := checkScope(scope); err != nil {
		return CreatedExpense{}, err
	}
	if date.IsEmpty() {
		date = l.today()
	}
	if strings.TrimSpace(accountID) == "" {
		return CreatedExpense{}, core.Invalid("account_id", core.ErrMissingOrigin)
	}

	fe, err := l.store.GetFixedExpense(ctx, scope.HouseholdID, templateID)
	if err != nil {
		return CreatedExpense{}, fmt.Errorf("get fixed expense: %w", err)
	}
	if !fe.Active {
		return CreatedExpense{}, core.Conflict("fixed expense", fe.ID, core.ErrPaused)
	}
	if _, ok := ProjectFixedExpense(fe, date); !ok {
		return CreatedExpense{}, core.Invalid("date", core.ErrNotDue)
	}

	start, end := monthRange(date)
	paid, err := l.store.ListFixedPayments(ctx, scope.HouseholdID, fe.ID, start, end)
	if err != nil {
		return CreatedExpense{}, fmt.Errorf("list fixed payments: %w", err)
	}
	if len(paid) > 0 {
		return CreatedExpense{}, core.Conflict("fixed expense", fe.ID, core.ErrAlreadyPaid)
	}

	out, err := l.createExpense(ctx, scope, NewExpense{
		CategoryID:   fe.CategoryID,
		Description:  fe.Description,
		Total:        fe.Amount,
		PurchaseDate: date,
		Installments: 1,
		Method:       core.MethodPix,
		AccountID:    accountID,
	}, fe.ID)
	if err != nil {
		return CreatedExpense{}, err
	}
	l.publish(ctx, amqp.FixedExpensePaid, scope, out.Expense.ID, fe.ID)

	slog.InfoContext(ctx, "Fixed expense paid",
		"fixed_expense_id", fe.ID,
		"expense_id", out.Expense.ID,
		"month", date.MonthKey())
	return out, nil
}

// MarkFixedExpenseUnpaid reverts a payment by deleting its expense. An ID
// that is not a fixed-expense payment is reported as not found.
func (l *Ledger) MarkFixedExpenseUnpaid(ctx context.Context, scope core.Scope, expenseID string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	exp, err := l.store.GetExpense(ctx, scope.HouseholdID, expenseID)
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}
	if exp.FixedExpenseID == "" {
		return core.NotFound("fixed expense payment", expenseID)
	}

	if err := l.store.DeleteExpense(ctx, scope.HouseholdID, exp.ID); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	l.publish(ctx, amqp.FixedExpenseUnpaid, scope, exp.ID, exp.FixedExpenseID)
	return nil
}

// ListFixedExpensesForMonth projects the active templates into month and
// reports which are paid.
func (l *Ledger) ListFixedExpensesForMonth(ctx context.Context, scope core.Scope, month core.Date) (core.FixedMonthOverview, error) {
	if err := checkScope(scope); err != nil {
		return core.FixedMonthOverview{}, err
	}
	if month.IsEmpty() {
		month = l.today()
	}
	templates, err := l.store.ListFixedExpenses(ctx, scope.HouseholdID)
	if err != nil {
		return core.FixedMonthOverview{}, fmt.Errorf("list fixed expenses: %w", err)
	}
	start, end := monthRange(month)
	payments, err := l.store.ListFixedPayments(ctx, scope.HouseholdID, "", start, end)
	if err != nil {
		return core.FixedMonthOverview{}, fmt.Errorf("list fixed payments: %w", err)
	}
	return MonthOverview(templates, payments, month), nil
}
