package services

import (
	"testing"

	"saldo/internal/core"
)

func months(n int) *int { return &n }

func rentTemplate() core.FixedExpense {
	return core.FixedExpense{
		ID:             "fe-1",
		Description:    "Rent",
		Amount:         core.Cents(120000),
		DueDay:         5,
		StartDate:      core.NewDate(2024, 1, 10),
		DurationMonths: months(3),
		Active:         true,
	}
}

func TestProjectFixedExpenseBoundary(t *testing.T) {
	fe := rentTemplate()
	tests := []struct {
		month  core.Date
		wantOK bool
		due    string
	}{
		{core.NewDate(2023, 12, 1), false, ""},
		{core.NewDate(2024, 1, 1), false, ""},
		{core.NewDate(2024, 2, 1), true, "2024-02-05"},
		{core.NewDate(2024, 3, 15), true, "2024-03-05"},
		{core.NewDate(2024, 4, 30), true, "2024-04-05"},
		{core.NewDate(2024, 5, 1), false, ""},
		{core.NewDate(2025, 1, 1), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.month.MonthKey(), func(t *testing.T) {
			due, ok := ProjectFixedExpense(fe, tt.month)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && due.String() != tt.due {
				t.Fatalf("due = %s, want %s", due, tt.due)
			}
		})
	}
}

func TestProjectFixedExpenseStartBeforeDueDay(t *testing.T) {
	fe := rentTemplate()
	fe.StartDate = core.NewDate(2024, 1, 3)

	var got []string
	for m := 1; m <= 6; m++ {
		if due, ok := ProjectFixedExpense(fe, core.NewDate(2024, m, 1)); ok {
			got = append(got, due.String())
		}
	}
	want := []string{"2024-01-05", "2024-02-05", "2024-03-05"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestProjectFixedExpenseOpenEndedAndClamped(t *testing.T) {
	fe := rentTemplate()
	fe.DurationMonths = nil
	fe.DueDay = 31
	fe.StartDate = core.NewDate(2024, 1, 1)

	due, ok := ProjectFixedExpense(fe, core.NewDate(2024, 2, 10))
	if !ok || due.String() != "2024-02-29" {
		t.Fatalf("February projection = %s, %v", due, ok)
	}
	due, ok = ProjectFixedExpense(fe, core.NewDate(2030, 4, 1))
	if !ok || due.String() != "2030-04-30" {
		t.Fatalf("open-ended projection = %s, %v", due, ok)
	}
}

func TestProjectionsForRangeReconcilesPayments(t *testing.T) {
	fe := rentTemplate()
	inactive := rentTemplate()
	inactive.ID = "fe-2"
	inactive.Active = false

	payments := []core.Expense{
		{ID: "pay-mar", FixedExpenseID: "fe-1", PurchaseDate: core.NewDate(2024, 3, 7)},
		{ID: "other", FixedExpenseID: "fe-9", PurchaseDate: core.NewDate(2024, 2, 7)},
	}

	got := ProjectionsForRange([]core.FixedExpense{fe, inactive}, payments, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if len(got) != 3 {
		t.Fatalf("expected 3 projections, got %d", len(got))
	}
	for _, p := range got {
		if p.FixedExpense.ID != "fe-1" {
			t.Fatalf("inactive template projected: %+v", p)
		}
		paid := p.Month.Month() == 3
		if paid && (p.Status != core.StatusPaid || p.PaymentExpenseID != "pay-mar") {
			t.Fatalf("March should be paid by pay-mar, got %+v", p)
		}
		if !paid && (p.Status != core.StatusPending || p.PaymentExpenseID != "") {
			t.Fatalf("%s should be pending, got %+v", p.Month.MonthKey(), p)
		}
	}
}

func TestProjectionsForRangeKeepsDueDatesInside(t *testing.T) {
	fe := rentTemplate()
	got := ProjectionsForRange([]core.FixedExpense{fe}, nil, core.NewDate(2024, 2, 10), core.NewDate(2024, 3, 4))
	if len(got) != 0 {
		t.Fatalf("no due date lies in range, got %+v", got)
	}
	got = ProjectionsForRange([]core.FixedExpense{fe}, nil, core.NewDate(2024, 2, 5), core.NewDate(2024, 3, 5))
	if len(got) != 2 {
		t.Fatalf("expected both edges inclusive, got %d", len(got))
	}
}

func TestMonthOverviewTotals(t *testing.T) {
	rent := rentTemplate()
	net := core.FixedExpense{ID: "fe-3", Description: "Internet", Amount: core.Cents(9990), DueDay: 20, StartDate: core.NewDate(2023, 6, 1), Active: true}
	gym := core.FixedExpense{ID: "fe-4", Description: "Gym", Amount: core.Cents(15000), DueDay: 1, StartDate: core.NewDate(2023, 6, 1), Active: false}
	payments := []core.Expense{{ID: "p1", FixedExpenseID: "fe-3", PurchaseDate: core.NewDate(2024, 2, 18)}}

	ov := MonthOverview([]core.FixedExpense{rent, net, gym}, payments, core.NewDate(2024, 2, 14))
	if ov.Month.String() != "2024-02-01" {
		t.Fatalf("month = %s", ov.Month)
	}
	if len(ov.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(ov.Items))
	}
	if ov.RecurringTotal.Cents != 129990 {
		t.Errorf("recurring total = %s", ov.RecurringTotal)
	}
	if ov.PaidTotal.Cents != 9990 || ov.PendingTotal.Cents != 120000 {
		t.Errorf("paid = %s pending = %s", ov.PaidTotal, ov.PendingTotal)
	}

	empty := MonthOverview(nil, nil, core.NewDate(2024, 2, 1))
	if empty.Items == nil {
		t.Error("empty overview should carry an empty slice")
	}
}
