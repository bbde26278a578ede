// Package worker applies ledger events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/sheets"
	"saldo/internal/store"
)

// MirrorWorker keeps a LedgerMirror in step with the store. Every handler
// deletes before it appends, so replayed events leave a single copy.
type MirrorWorker struct {
	store  store.Store
	mirror sheets.LedgerMirror
}

func NewMirrorWorker(st store.Store, mirror sheets.LedgerMirror) *MirrorWorker {
	return &MirrorWorker{store: st, mirror: mirror}
}

// HandleEvent is the amqp.Client consumer callback. Returning an error
// requeues the event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"type", ev.Type,
		"household_id", ev.HouseholdID,
		"entity_id", ev.EntityID)

	var err error
	switch ev.Type {
	case amqp.ExpenseCreated, amqp.FixedExpensePaid:
		err = w.mirrorExpense(ctx, ev.HouseholdID, ev.EntityID)
	case amqp.IncomeCreated:
		err = w.mirrorIncome(ctx, ev.HouseholdID, ev.EntityID)
	case amqp.ExpenseDeleted, amqp.FixedExpenseUnpaid, amqp.IncomeDeleted:
		err = w.mirror.DeleteRows(ctx, []string{ev.EntityID})
	case amqp.InstallmentsPaid:
		err = w.mirrorPaidInstallments(ctx, ev.HouseholdID, ev.IDs)
	default:
		slog.WarnContext(ctx, "Ignoring unknown ledger event", "type", ev.Type)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror %s %s: %w", ev.Type, ev.EntityID, err)
	}
	return nil
}

func (w *MirrorWorker) mirrorExpense(ctx context.Context, householdID, expenseID string) error {
	exp, err := w.store.GetExpense(ctx, householdID, expenseID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was sent; its delete event clears the mirror.
		slog.InfoContext(ctx, "Expense gone before mirroring, skipping", "id", expenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	installments, err := w.store.ListInstallmentsByExpense(ctx, householdID, expenseID)
	if err != nil {
		return fmt.Errorf("list installments: %w", err)
	}
	category, err := w.categoryName(ctx, householdID, exp.CategoryID)
	if err != nil {
		return err
	}

	rows := make([]sheets.Row, 0, len(installments))
	for _, inst := range installments {
		rows = append(rows, InstallmentRow(exp, inst, category))
	}
	return w.replace(ctx, expenseID, rows)
}

func (w *MirrorWorker) mirrorIncome(ctx context.Context, householdID, incomeID string) error {
	inc, err := w.store.GetIncome(ctx, householdID, incomeID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Income gone before mirroring, skipping", "id", incomeID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get income: %w", err)
	}
	category, err := w.categoryName(ctx, householdID, inc.CategoryID)
	if err != nil {
		return err
	}
	return w.replace(ctx, incomeID, []sheets.Row{IncomeRow(inc, category)})
}

// mirrorPaidInstallments rewrites every purchase one of the installments
// belongs to.
func (w *MirrorWorker) mirrorPaidInstallments(ctx context.Context, householdID string, ids []string) error {
	seen := map[string]bool{}
	for _, id := range ids {
		inst, err := w.store.GetInstallment(ctx, householdID, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("get installment: %w", err)
		}
		if seen[inst.ExpenseID] {
			continue
		}
		seen[inst.ExpenseID] = true
		if err := w.mirrorExpense(ctx, householdID, inst.ExpenseID); err != nil {
			return err
		}
	}
	return nil
}

func (w *MirrorWorker) replace(ctx context.Context, id string, rows []sheets.Row) error {
	if err := w.mirror.DeleteRows(ctx, []string{id}); err != nil {
		return fmt.Errorf("clear mirrored rows: %w", err)
	}
	if err := w.mirror.AppendRows(ctx, rows); err != nil {
		return fmt.Errorf("append mirrored rows: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored ledger record", "id", id, "rows", len(rows))
	return nil
}

func (w *MirrorWorker) categoryName(ctx context.Context, householdID, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	cats, err := w.store.ListCategories(ctx, householdID)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	for _, c := range cats {
		if c.ID == id {
			return c.Name, nil
		}
	}
	return "", nil
}

// InstallmentRow renders one parcel of a purchase.
func InstallmentRow(exp core.Expense, inst core.Installment, category string) sheets.Row {
	desc := exp.Description
	if exp.InstallmentCount > 1 {
		desc = fmt.Sprintf("%s (%d/%d)", exp.Description, inst.Parcel, exp.InstallmentCount)
	}
	return sheets.Row{
		ID:          inst.ID,
		ParentID:    exp.ID,
		Date:        inst.DueDate,
		Type:        core.EntryExpense,
		Description: desc,
		Category:    category,
		Amount:      inst.Amount,
		Status:      inst.Status,
	}
}

func IncomeRow(inc core.Income, category string) sheets.Row {
	return sheets.Row{
		ID:          inc.ID,
		Date:        inc.Date,
		Type:        core.EntryIncome,
		Description: inc.Description,
		Category:    category,
		Amount:      inc.Amount,
		Status:      core.StatusPaid,
	}
}
