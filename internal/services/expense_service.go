package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/store"
)

// NewExpense is the input of CreateExpense. AccountID is read for pix,
// debit card and cash; CardID for credit card.
type NewExpense struct {
	CategoryID       string             `json:"category_id"`
	Description      string             `json:"description"`
	Total            core.Money         `json:"total"`
	PurchaseDate     core.Date          `json:"purchase_date"`
	FirstPaymentDate core.Date          `json:"first_payment_date"`
	Installments     int                `json:"installments"`
	Method           core.PaymentMethod `json:"payment_method"`
	AccountID        string             `json:"account_id"`
	CardID           string             `json:"card_id"`
}

// NewIncome is the input of CreateIncome.
type NewIncome struct {
	AccountID   string     `json:"account_id"`
	CategoryID  string     `json:"category_id"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
}

// CreatedExpense is a purchase together with its schedule.
type CreatedExpense struct {
	Expense      core.Expense       `json:"expense"`
	Installments []core.Installment `json:"installments"`
}

// CreateExpense records a purchase and its installments.
//
// Stores implementing store.ScheduleWriter persist both in one
// transaction. Otherwise, if the installments fail after the expense was
// written, the expense is deleted again and a PartialWriteError carrying
// the original failure is returned.
func (l *Ledger) CreateExpense(ctx context.Context, scope core.Scope, in NewExpense) (CreatedExpense, error) {
	out, err := l.createExpense(ctx, scope, in, "")
	if err != nil {
		return CreatedExpense{}, err
	}
	l.publish(ctx, amqp.ExpenseCreated, scope, out.Expense.ID)
	return out, nil
}

func (l *Ledger) createExpense(ctx context.Context, scope core.Scope, in NewExpense, fixedExpenseID string) (CreatedExpense, error) {
	if err := checkScope(scope); err != nil {
		return CreatedExpense{}, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return CreatedExpense{}, core.Invalid("description", core.ErrEmptyDescription)
	}
	if len(in.Description) > 200 {
		return CreatedExpense{}, core.Invalid("description", core.ErrDescriptionTooLong)
	}

	origin := PaymentOrigin{Method: in.Method}
	if in.Method.IsCredit() {
		origin.CardID = in.CardID
	} else {
		origin.AccountID = in.AccountID
	}
	plan := PurchasePlan{
		Total:            in.Total,
		Count:            in.Installments,
		PurchaseDate:     in.PurchaseDate,
		FirstPaymentDate: in.FirstPaymentDate,
		Origin:           origin,
	}

	// Reject malformed input before touching the store. The card's linked
	// account is only known after the lookup, so a placeholder stands in.
	check := plan
	if check.Origin.Method.IsCredit() {
		check.Origin.CardAccountID = "pending-lookup"
	}
	if _, err := check.Validate(); err != nil {
		return CreatedExpense{}, err
	}

	if err := l.resolveOrigin(ctx, scope, &plan.Origin); err != nil {
		return CreatedExpense{}, err
	}
	if err := l.checkCategory(ctx, scope, in.CategoryID, core.KindExpense); err != nil {
		return CreatedExpense{}, err
	}

	installments, err := ExpandInstallments(plan)
	if err != nil {
		return CreatedExpense{}, err
	}

	firstPayment := plan.FirstPaymentDate
	if firstPayment.IsEmpty() {
		firstPayment = plan.PurchaseDate
	}
	exp := core.Expense{
		ID:               l.newID(),
		HouseholdID:      scope.HouseholdID,
		CategoryID:       in.CategoryID,
		Description:      in.Description,
		Total:            in.Total,
		PurchaseDate:     in.PurchaseDate,
		FirstPaymentDate: firstPayment,
		InstallmentCount: in.Installments,
		Method:           in.Method,
		FixedExpenseID:   fixedExpenseID,
		CreatedBy:        scope.UserID,
		CreatedAt:        l.now().UTC(),
	}
	if in.Method.IsCredit() {
		exp.CardID = plan.Origin.CardID
	} else {
		exp.AccountID = plan.Origin.AccountID
	}

	for i := range installments {
		installments[i].ID = l.newID()
		installments[i].HouseholdID = scope.HouseholdID
		installments[i].ExpenseID = exp.ID
	}

	if w, ok := l.store.(store.ScheduleWriter); ok {
		if err := w.CreateExpenseWithInstallments(ctx, exp, installments); err != nil {
			return CreatedExpense{}, fmt.Errorf("create expense: %w", err)
		}
		l.logExpenseCreated(ctx, exp)
		return CreatedExpense{Expense: exp, Installments: installments}, nil
	}

	if err := l.store.CreateExpense(ctx, exp); err != nil {
		return CreatedExpense{}, fmt.Errorf("create expense: %w", err)
	}
	if err := l.store.CreateInstallments(ctx, installments); err != nil {
		pw := &core.PartialWriteError{Op: "create installments", ParentID: exp.ID, Err: err}
		if cerr := l.store.DeleteExpense(ctx, scope.HouseholdID, exp.ID); cerr != nil {
			pw.CompensationErr = cerr
		}
		slog.ErrorContext(ctx, "Installment creation failed, expense rolled back",
			"expense_id", exp.ID,
			"error", err,
			"compensation_error", pw.CompensationErr)
		return CreatedExpense{}, pw
	}

	l.logExpenseCreated(ctx, exp)
	return CreatedExpense{Expense: exp, Installments: installments}, nil
}

func (l *Ledger) logExpenseCreated(ctx context.Context, exp core.Expense) {
	slog.InfoContext(ctx, "Expense created",
		"id", exp.ID,
		"method", exp.Method,
		"installments", exp.InstallmentCount,
		"total_cents", exp.Total.Cents)
}

// resolveOrigin checks the origin exists in scope and fills the card's
// linked account.
func (l *Ledger) resolveOrigin(ctx context.Context, scope core.Scope, o *PaymentOrigin) error {
	if o.Method.IsCredit() {
		card, err := l.store.GetCard(ctx, scope.HouseholdID, o.CardID)
		if err != nil {
			return fmt.Errorf("resolve card: %w", err)
		}
		o.CardAccountID = card.AccountID
		return nil
	}
	if _, err := l.store.GetAccount(ctx, scope.HouseholdID, o.AccountID); err != nil {
		return fmt.Errorf("resolve account: %w", err)
	}
	return nil
}

// checkCategory accepts an empty id or a category of the given kind.
func (l *Ledger) checkCategory(ctx context.Context, scope core.Scope, id string, kind core.CategoryKind) error {
	if id == "" {
		return nil
	}
	idx, err := l.categoryIndex(ctx, scope)
	if err != nil {
		return err
	}
	c, ok := idx[id]
	if !ok {
		return core.NotFound("category", id)
	}
	if c.Kind != kind {
		return core.Invalid("category_id", core.ErrCategoryKind)
	}
	return nil
}

// CreateIncome records money received into an account.
func (l *Ledger) CreateIncome(ctx context.Context, scope core.Scope, in NewIncome) (core.Income, error) {
	if err := checkScope(scope); err != nil {
		return core.Income{}, err
	}
	inc := core.Income{
		ID:          l.newID(),
		HouseholdID: scope.HouseholdID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Received:    true,
		CreatedBy:   scope.UserID,
		CreatedAt:   l.now().UTC(),
	}
	if err := inc.Validate(); err != nil {
		return core.Income{}, err
	}
	if _, err := l.store.GetAccount(ctx, scope.HouseholdID, inc.AccountID); err != nil {
		return core.Income{}, fmt.Errorf("resolve account: %w", err)
	}
	if err := l.checkCategory(ctx, scope, inc.CategoryID, core.KindIncome); err != nil {
		return core.Income{}, err
	}

	if err := l.store.CreateIncome(ctx, inc); err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	l.publish(ctx, amqp.IncomeCreated, scope, inc.ID)

	slog.InfoContext(ctx, "Income created", "id", inc.ID, "amount_cents", inc.Amount.Cents)
	return inc, nil
}

// DeleteTransaction removes a statement entry. Incomes are deleted by ID.
// An expense entry is addressed by installment ID (or expense ID) and
// removes the whole purchase, so no schedule is ever left incomplete.
func (l *Ledger) DeleteTransaction(ctx context.Context, scope core.Scope, id string, kind core.EntryType) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	switch kind {
	case core.EntryIncome:
		if err := l.store.DeleteIncome(ctx, scope.HouseholdID, id); err != nil {
			return fmt.Errorf("delete income: %w", err)
		}
		l.publish(ctx, amqp.IncomeDeleted, scope, id)
		return nil
	case core.EntryExpense:
		expenseID := id
		inst, err := l.store.GetInstallment(ctx, scope.HouseholdID, id)
		switch {
		case err == nil:
			expenseID = inst.ExpenseID
		case !errors.Is(err, core.ErrNotFound):
			return fmt.Errorf("get installment: %w", err)
		}
		return l.DeleteExpense(ctx, scope, expenseID)
	default:
		return core.Invalid("kind", core.ErrInvalidKind)
	}
}

// DeleteExpense removes a purchase with all its installments.
func (l *Ledger) DeleteExpense(ctx context.Context, scope core.Scope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := l.store.DeleteExpense(ctx, scope.HouseholdID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	l.publish(ctx, amqp.ExpenseDeleted, scope, id)
	return nil
}

// monthRange returns the first and last day of d's month.
func monthRange(d core.Date) (core.Date, core.Date) {
	return d.MonthStart(), d.MonthEnd()
}
