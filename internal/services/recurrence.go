package services

import (
	"saldo/internal/core"
)

// ProjectFixedExpense computes the due date of a template in the month of
// target. ok is false when the template does not charge that month.
//
// A finite template charges exactly DurationMonths times. When the start
// day is past the due day the first charge slips into the next month, and
// so does the last one.
func ProjectFixedExpense(fe core.FixedExpense, target core.Date) (core.Date, bool) {
	if fe.StartDate.IsEmpty() || target.IsEmpty() {
		return core.Date{}, false
	}

	candidate := target.SetDayOfMonth(fe.DueDay)
	if candidate.Before(fe.StartDate.Time) {
		return core.Date{}, false
	}

	if fe.Finite() {
		last := fe.StartDate.MonthIndex() + *fe.DurationMonths - 1
		if fe.StartDate.SetDayOfMonth(fe.DueDay).Before(fe.StartDate.Time) {
			last++
		}
		if candidate.MonthIndex() > last {
			return core.Date{}, false
		}
	}
	return candidate, true
}

// PaymentFor returns the payment expense of template id whose purchase date
// falls in month.
func PaymentFor(payments []core.Expense, id string, month core.Date) (core.Expense, bool) {
	for _, p := range payments {
		if p.FixedExpenseID == id && p.PurchaseDate.IsSameMonth(month) {
			return p, true
		}
	}
	return core.Expense{}, false
}

// ProjectMonth projects every active template into month and reconciles
// each projection against payments.
func ProjectMonth(templates []core.FixedExpense, payments []core.Expense, month core.Date) []core.FixedProjection {
	month = month.MonthStart()
	var out []core.FixedProjection
	for _, fe := range templates {
		if !fe.Active {
			continue
		}
		due, ok := ProjectFixedExpense(fe, month)
		if !ok {
			continue
		}
		p := core.FixedProjection{
			FixedExpense: fe,
			Month:        month,
			DueDate:      due,
			Status:       core.StatusPending,
		}
		if paid, found := PaymentFor(payments, fe.ID, month); found {
			p.Status = core.StatusPaid
			p.PaymentExpenseID = paid.ID
		}
		out = append(out, p)
	}
	return out
}

// ProjectionsForRange projects the templates into every month overlapping
// [start, end] and keeps the projections due inside the range.
func ProjectionsForRange(templates []core.FixedExpense, payments []core.Expense, start, end core.Date) []core.FixedProjection {
	var out []core.FixedProjection
	for month := start.MonthStart(); !month.After(end.Time); month = month.AddMonths(1) {
		for _, p := range ProjectMonth(templates, payments, month) {
			if p.DueDate.Within(start, end) {
				out = append(out, p)
			}
		}
	}
	return out
}

// MonthOverview summarises the projections of one month.
func MonthOverview(templates []core.FixedExpense, payments []core.Expense, month core.Date) core.FixedMonthOverview {
	items := ProjectMonth(templates, payments, month)
	ov := core.FixedMonthOverview{
		Month: month.MonthStart(),
		Items: items,
	}
	if ov.Items == nil {
		ov.Items = []core.FixedProjection{}
	}
	for _, fe := range templates {
		if fe.Active {
			ov.RecurringTotal = ov.RecurringTotal.Add(fe.Amount)
		}
	}
	for _, p := range items {
		if p.Status == core.StatusPaid {
			ov.PaidTotal = ov.PaidTotal.Add(p.FixedExpense.Amount)
		} else {
			ov.PendingTotal = ov.PendingTotal.Add(p.FixedExpense.Amount)
		}
	}
	return ov
}
