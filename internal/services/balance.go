package services

import (
	"saldo/internal/core"
)

// AccountBalance derives the current balance of an account: the opening
// balance plus its incomes minus its paid installments. Pending card
// installments do not touch the account until the invoice is paid.
func AccountBalance(account core.Account, incomes []core.Income, installments []core.Installment) core.Money {
	bal := account.OpeningBalance
	for _, in := range incomes {
		if in.AccountID == account.ID {
			bal = bal.Add(in.Amount)
		}
	}
	for _, inst := range installments {
		if inst.AccountID == account.ID && inst.Status == core.StatusPaid {
			bal = bal.Sub(inst.Amount)
		}
	}
	return bal
}

// BillingWindow returns the open billing window of a card closing on
// closingDay, as seen on asOf. Both ends are inclusive. Closing days past
// the end of a month clamp to its last day.
func BillingWindow(closingDay int, asOf core.Date) (start, end core.Date) {
	month := asOf.MonthStart()
	closing := month.SetDayOfMonth(closingDay)
	if !asOf.After(closing.Time) {
		prev := month.AddMonths(-1).SetDayOfMonth(closingDay)
		return prev.AddDays(1), closing
	}
	next := month.AddMonths(1).SetDayOfMonth(closingDay)
	return closing.AddDays(1), next
}

// CardAvailableLimit is the card limit minus every installment of the card
// due in the open billing window. It goes negative when the card is over
// its limit.
func CardAvailableLimit(card core.CreditCard, installments []core.Installment, asOf core.Date) core.Money {
	start, end := BillingWindow(card.ClosingDay, asOf)
	avail := card.Limit
	for _, inst := range installments {
		if inst.CardID == card.ID && inst.DueDate.Within(start, end) {
			avail = avail.Sub(inst.Amount)
		}
	}
	return avail
}
