package core

import (
	"strings"
	"time"
)

const (
	KindExpense CategoryKind = "expense"
	KindIncome  CategoryKind = "income"
)

const (
	MethodPix        PaymentMethod = "pix"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodCash       PaymentMethod = "cash"
	MethodCreditCard PaymentMethod = "credit_card"
)

const (
	StatusPending InstallmentStatus = "pending"
	StatusPaid    InstallmentStatus = "paid"
)

const maxDescriptionLen = 200

type (
	CategoryKind      string
	PaymentMethod     string
	InstallmentStatus string

	// Scope is the identity boundary every operation runs under. It is
	// supplied by the identity provider, never inferred.
	Scope struct {
		HouseholdID string
		UserID      string
	}

	Account struct {
		ID             string       `json:"id"`
		HouseholdID    string       `json:"household_id"`
		Name           string       `json:"name"`
		OpeningBalance Money        `json:"opening_balance"`
		CreatedBy      string       `json:"created_by"`
		CreatedAt      time.Time    `json:"created_at"`
		Cards          []CreditCard `json:"cards,omitempty"`
	}

	CreditCard struct {
		ID          string    `json:"id"`
		HouseholdID string    `json:"household_id"`
		AccountID   string    `json:"account_id"`
		Name        string    `json:"name"`
		Limit       Money     `json:"limit"`
		ClosingDay  int       `json:"closing_day"`
		DueDay      int       `json:"due_day"`
		CreatedBy   string    `json:"created_by"`
		CreatedAt   time.Time `json:"created_at"`
	}

	Category struct {
		ID          string       `json:"id"`
		HouseholdID string       `json:"household_id"`
		Name        string       `json:"name"`
		Kind        CategoryKind `json:"kind"`
		Slug        string       `json:"slug"`
		CreatedBy   string       `json:"created_by"`
	}

	// Expense is a purchase. Its installments carry the actual cash flow.
	Expense struct {
		ID               string        `json:"id"`
		HouseholdID      string        `json:"household_id"`
		CategoryID       string        `json:"category_id"`
		Description      string        `json:"description"`
		Total            Money         `json:"total"`
		PurchaseDate     Date          `json:"purchase_date"`
		FirstPaymentDate Date          `json:"first_payment_date"`
		InstallmentCount int           `json:"installment_count"`
		Method           PaymentMethod `json:"payment_method"`
		AccountID        string        `json:"account_id,omitempty"`
		CardID           string        `json:"card_id,omitempty"`
		FixedExpenseID   string        `json:"fixed_expense_id,omitempty"`
		CreatedBy        string        `json:"created_by"`
		CreatedAt        time.Time     `json:"created_at"`
	}

	Installment struct {
		ID          string            `json:"id"`
		HouseholdID string            `json:"household_id"`
		ExpenseID   string            `json:"expense_id"`
		AccountID   string            `json:"account_id"`
		CardID      string            `json:"card_id,omitempty"`
		Parcel      int               `json:"parcel"`
		Amount      Money             `json:"amount"`
		DueDate     Date              `json:"due_date"`
		Status      InstallmentStatus `json:"status"`
		PaidDate    Date              `json:"paid_date"`
	}

	Income struct {
		ID          string    `json:"id"`
		HouseholdID string    `json:"household_id"`
		AccountID   string    `json:"account_id"`
		CategoryID  string    `json:"category_id"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Date        Date      `json:"date"`
		Received    bool      `json:"received"`
		CreatedBy   string    `json:"created_by"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// FixedExpense is a recurring monthly template. It carries no payment
	// state; payments are expenses pointing back at it.
	FixedExpense struct {
		ID             string    `json:"id"`
		HouseholdID    string    `json:"household_id"`
		CategoryID     string    `json:"category_id"`
		Description    string    `json:"description"`
		Amount         Money     `json:"amount"`
		DueDay         int       `json:"due_day"`
		StartDate      Date      `json:"start_date"`
		DurationMonths *int      `json:"duration_months"`
		Active         bool      `json:"active"`
		CreatedBy      string    `json:"created_by"`
		CreatedAt      time.Time `json:"created_at"`
	}
)

func (s Scope) Validate() error {
	if strings.TrimSpace(s.HouseholdID) == "" {
		return ErrMissingScope
	}
	return nil
}

func (k CategoryKind) IsValid() bool {
	return k == KindExpense || k == KindIncome
}

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodPix, MethodDebitCard, MethodCash, MethodCreditCard:
		return true
	default:
		return false
	}
}

// IsCredit reports whether the method routes through a credit card.
func (m PaymentMethod) IsCredit() bool {
	return m == MethodCreditCard
}

// Slugify derives a category slug: lowercased, trimmed, whitespace runs
// replaced by a hyphen.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func validDay(day int) bool {
	return day >= 1 && day <= 31
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(desc) > maxDescriptionLen {
		return Invalid("description", ErrDescriptionTooLong)
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.AccountID) == "" {
		return Invalid("account_id", ErrMissingReference)
	}
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if c.Limit.IsNegative() {
		return Invalid("limit", ErrInvalidAmount)
	}
	if !validDay(c.ClosingDay) {
		return Invalid("closing_day", ErrInvalidDay)
	}
	if !validDay(c.DueDay) {
		return Invalid("due_day", ErrInvalidDay)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if !c.Kind.IsValid() {
		return Invalid("kind", ErrInvalidKind)
	}
	return nil
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.AccountID) == "" {
		return Invalid("account_id", ErrMissingReference)
	}
	if err := i.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := i.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if len(i.Description) > maxDescriptionLen {
		return Invalid("description", ErrDescriptionTooLong)
	}
	return nil
}

func (fe FixedExpense) Validate() error {
	if err := validateDescription(fe.Description); err != nil {
		return err
	}
	if err := fe.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if !validDay(fe.DueDay) {
		return Invalid("due_day", ErrInvalidDay)
	}
	if err := fe.StartDate.Validate(); err != nil {
		return Invalid("start_date", err)
	}
	if fe.DurationMonths != nil && *fe.DurationMonths < 1 {
		return Invalid("duration_months", ErrInvalidDuration)
	}
	return nil
}

// Finite reports whether the template ends after a fixed number of months.
func (fe FixedExpense) Finite() bool {
	return fe.DurationMonths != nil
}
