package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/sheets"
	sheetsmem "saldo/internal/sheets/memory"
	"saldo/internal/store/memory"
)

var scope = core.Scope{HouseholdID: "house-1", UserID: "user-1"}

// eventLog collects what the ledger publishes so the test can replay it.
type eventLog struct {
	events []*amqp.LedgerEvent
}

func (e *eventLog) Publish(_ context.Context, ev *amqp.LedgerEvent) error {
	e.events = append(e.events, ev)
	return nil
}

func (e *eventLog) last(t *testing.T) *amqp.LedgerEvent {
	t.Helper()
	if len(e.events) == 0 {
		t.Fatal("no event published")
	}
	return e.events[len(e.events)-1]
}

type fixture struct {
	ledger *services.Ledger
	log    *eventLog
	mirror *sheetsmem.Mirror
	worker *MirrorWorker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	log := &eventLog{}
	l := services.NewLedger(st, log, services.LedgerOptions{
		Now: func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) },
	})
	m := sheetsmem.New()
	return &fixture{ledger: l, log: log, mirror: m, worker: NewMirrorWorker(st, m)}
}

func (f *fixture) replayLast(t *testing.T) {
	t.Helper()
	if err := f.worker.HandleEvent(context.Background(), f.log.last(t)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}

func TestMirrorExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acc, err := f.ledger.CreateAccount(ctx, scope, "Checking", core.Cents(0))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	card, err := f.ledger.CreateCard(ctx, scope, acc.ID, "Visa", core.Cents(1000000), 3, 10)
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	cat, err := f.ledger.CreateCategory(ctx, scope, "Tech", core.KindExpense)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	created, err := f.ledger.CreateExpense(ctx, scope, services.NewExpense{
		CategoryID:   cat.ID,
		Description:  "Laptop",
		Total:        core.Cents(100000),
		PurchaseDate: core.NewDate(2024, 3, 5),
		Installments: 3,
		Method:       core.MethodCreditCard,
		CardID:       card.ID,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	f.replayLast(t)
	// Replays must not duplicate rows.
	f.replayLast(t)

	rows := f.mirror.Rows()
	if len(rows) != 3 {
		t.Fatalf("mirrored %d rows, want 3", len(rows))
	}
	if rows[0].Description != "Laptop (1/3)" || rows[0].Category != "Tech" || rows[0].ParentID != created.Expense.ID {
		t.Fatalf("first row = %+v", rows[0])
	}
	if rows[0].Amount.Cents != 33334 || rows[0].Status != core.StatusPending {
		t.Fatalf("first row amount/status = %v %s", rows[0].Amount, rows[0].Status)
	}

	if _, err := f.ledger.PayCardInvoice(ctx, scope, card.ID, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 10)); err != nil {
		t.Fatalf("PayCardInvoice: %v", err)
	}
	f.replayLast(t)

	rows = f.mirror.Rows()
	if len(rows) != 3 {
		t.Fatalf("mirrored %d rows after payment, want 3", len(rows))
	}
	paid := 0
	for _, r := range rows {
		if r.Status == core.StatusPaid {
			paid++
		}
	}
	if paid != 1 {
		t.Fatalf("paid rows = %d, want 1", paid)
	}

	if err := f.ledger.DeleteExpense(ctx, scope, created.Expense.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	f.replayLast(t)
	if got := len(f.mirror.Rows()); got != 0 {
		t.Fatalf("rows after delete = %d", got)
	}
}

func TestMirrorIncomeAndStaleEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acc, _ := f.ledger.CreateAccount(ctx, scope, "Checking", core.Cents(0))
	inc, err := f.ledger.CreateIncome(ctx, scope, services.NewIncome{
		AccountID:   acc.ID,
		Amount:      core.Cents(250000),
		Description: "Salary",
		Date:        core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}
	createdEvent := f.log.last(t)
	f.replayLast(t)

	rows := f.mirror.Rows()
	if len(rows) != 1 || rows[0].ID != inc.ID || rows[0].Type != core.EntryIncome {
		t.Fatalf("rows = %+v", rows)
	}

	if err := f.ledger.DeleteTransaction(ctx, scope, inc.ID, core.EntryIncome); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	f.replayLast(t)

	// A late create for a deleted record is acknowledged without writing.
	if err := f.worker.HandleEvent(ctx, createdEvent); err != nil {
		t.Fatalf("stale event: %v", err)
	}
	if got := len(f.mirror.Rows()); got != 0 {
		t.Fatalf("rows = %d, want 0", got)
	}
}

func TestMirrorFixedPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acc, _ := f.ledger.CreateAccount(ctx, scope, "Checking", core.Cents(0))
	fe, err := f.ledger.CreateFixedExpense(ctx, scope, services.NewFixedExpense{
		Description: "Rent",
		Amount:      core.Cents(150000),
		DueDay:      10,
		StartDate:   core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("CreateFixedExpense: %v", err)
	}
	pay, err := f.ledger.MarkFixedExpensePaid(ctx, scope, fe.ID, core.NewDate(2024, 3, 10), acc.ID)
	if err != nil {
		t.Fatalf("MarkFixedExpensePaid: %v", err)
	}
	f.replayLast(t)
	if rows := f.mirror.Rows(); len(rows) != 1 || rows[0].ParentID != pay.Expense.ID {
		t.Fatalf("rows = %+v", rows)
	}

	if err := f.ledger.MarkFixedExpenseUnpaid(ctx, scope, pay.Expense.ID); err != nil {
		t.Fatalf("MarkFixedExpenseUnpaid: %v", err)
	}
	f.replayLast(t)
	if got := len(f.mirror.Rows()); got != 0 {
		t.Fatalf("rows = %d, want 0", got)
	}
}

type brokenMirror struct{ sheets.LedgerMirror }

func (brokenMirror) DeleteRows(context.Context, []string) error { return errors.New("quota exceeded") }

func TestMirrorFailureRequeues(t *testing.T) {
	w := NewMirrorWorker(memory.New(), brokenMirror{})
	ev := amqp.NewLedgerEvent(amqp.IncomeDeleted, "house-1", "inc-1")
	if err := w.HandleEvent(context.Background(), ev); err == nil {
		t.Fatal("expected mirror failure to surface")
	}
}

func TestUnknownEventIsAcknowledged(t *testing.T) {
	w := NewMirrorWorker(memory.New(), sheetsmem.New())
	ev := amqp.NewLedgerEvent("budget.closed", "house-1", "x")
	if err := w.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unknown event: %v", err)
	}
}
