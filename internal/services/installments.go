// Package services provides the ledger engines and their orchestration.
//
// This file expands a purchase into its installment schedule. Amounts are
// split in integer cents so the parcels always add up to the total exactly.
package services

import (
	"strings"

	"saldo/internal/core"
)

// MaxInstallments caps the parcel count of a single purchase.
const MaxInstallments = 420

// PaymentOrigin says where a purchase is paid from. Exactly one of AccountID
// (pix, debit card, cash) or CardID (credit card) is meaningful; card
// purchases also carry the card's linked account.
type PaymentOrigin struct {
	Method        core.PaymentMethod
	AccountID     string
	CardID        string
	CardAccountID string
}

// PurchasePlan is the input of ExpandInstallments.
type PurchasePlan struct {
	Total            core.Money
	Count            int
	PurchaseDate     core.Date
	FirstPaymentDate core.Date
	Origin           PaymentOrigin
}

// Validate checks the plan and returns the account every installment debits.
func (p PurchasePlan) Validate() (string, error) {
	if err := p.Total.Validate(); err != nil {
		return "", core.Invalid("total", err)
	}
	if p.Count < 1 || p.Count > MaxInstallments {
		return "", core.Invalid("installments", core.ErrInvalidInstallments)
	}
	if err := p.PurchaseDate.Validate(); err != nil {
		return "", core.Invalid("purchase_date", err)
	}
	if !p.Origin.Method.IsValid() {
		return "", core.Invalid("payment_method", core.ErrInvalidMethod)
	}

	if p.Origin.Method.IsCredit() {
		if strings.TrimSpace(p.Origin.CardID) == "" || strings.TrimSpace(p.Origin.CardAccountID) == "" {
			return "", core.Invalid("card_id", core.ErrMissingOrigin)
		}
		return p.Origin.CardAccountID, nil
	}
	if strings.TrimSpace(p.Origin.AccountID) == "" {
		return "", core.Invalid("account_id", core.ErrMissingOrigin)
	}
	return p.Origin.AccountID, nil
}

// SplitCents divides total into n parcels. The first total%n parcels carry
// one extra cent.
func SplitCents(total int64, n int) []int64 {
	base := total / int64(n)
	rem := total - base*int64(n)
	out := make([]int64, n)
	for i := range out {
		out[i] = base
		if int64(i) < rem {
			out[i]++
		}
	}
	return out
}

// ExpandInstallments builds the N installments of a purchase. The returned
// records have no IDs; the caller assigns them together with the expense ID.
//
// Due dates are offsets from the first payment date, never chained, so a
// schedule anchored on the 31st returns to the 31st after a short month.
// Card parcels start pending; account parcels are paid on the purchase date.
func ExpandInstallments(p PurchasePlan) ([]core.Installment, error) {
	accountID, err := p.Validate()
	if err != nil {
		return nil, err
	}

	anchor := p.FirstPaymentDate
	if anchor.IsEmpty() {
		anchor = p.PurchaseDate
	}

	cardID := ""
	status := core.StatusPaid
	paidDate := p.PurchaseDate
	if p.Origin.Method.IsCredit() {
		cardID = p.Origin.CardID
		status = core.StatusPending
		paidDate = core.Date{}
	}

	amounts := SplitCents(p.Total.Cents, p.Count)
	out := make([]core.Installment, p.Count)
	for i, cents := range amounts {
		out[i] = core.Installment{
			AccountID: accountID,
			CardID:    cardID,
			Parcel:    i + 1,
			Amount:    core.Cents(cents),
			DueDate:   anchor.AddMonths(i),
			Status:    status,
			PaidDate:  paidDate,
		}
	}
	return out, nil
}
