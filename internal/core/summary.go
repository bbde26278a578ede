package core

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

const (
	SourceIncome      EntrySource = "income"
	SourceInstallment EntrySource = "installment"
	SourceFixed       EntrySource = "fixed"
)

type (
	// EntryType doubles as the transaction kind accepted by deletes.
	EntryType   string
	EntrySource string

	CategoryRef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}

	// LedgerEntry is one row of the unified statement.
	LedgerEntry struct {
		ID               string            `json:"id"`
		Type             EntryType         `json:"type"`
		Source           EntrySource       `json:"source"`
		ReferenceID      string            `json:"reference_id"`
		Amount           Money             `json:"amount"`
		Description      string            `json:"description"`
		Category         CategoryRef       `json:"category"`
		Date             Date              `json:"date"`
		Status           InstallmentStatus `json:"status"`
		PaymentExpenseID string            `json:"payment_expense_id,omitempty"`
		CreatedBy        string            `json:"created_by"`
		CreatedByYou     bool              `json:"created_by_you"`
	}

	// MonthSummary totals the statement of one calendar month. Expense
	// includes pending entries; Pending repeats their share.
	MonthSummary struct {
		Month   Date  `json:"month"`
		Income  Money `json:"income"`
		Expense Money `json:"expense"`
		Pending Money `json:"pending"`
		Net     Money `json:"net"`
	}

	// FixedProjection is the computed occurrence of a template in one month.
	FixedProjection struct {
		FixedExpense     FixedExpense      `json:"fixed_expense"`
		Month            Date              `json:"month"`
		DueDate          Date              `json:"due_date"`
		Status           InstallmentStatus `json:"status"`
		PaymentExpenseID string            `json:"payment_expense_id,omitempty"`
	}

	// FixedMonthOverview lists the projections of one month.
	FixedMonthOverview struct {
		Month          Date              `json:"month"`
		Items          []FixedProjection `json:"items"`
		RecurringTotal Money             `json:"recurring_total"`
		PaidTotal      Money             `json:"paid_total"`
		PendingTotal   Money             `json:"pending_total"`
	}

	InvoiceItem struct {
		Installment      Installment `json:"installment"`
		Description      string      `json:"description"`
		Category         CategoryRef `json:"category"`
		PurchaseDate     Date        `json:"purchase_date"`
		InstallmentCount int         `json:"installment_count"`
	}

	// CardInvoice groups the installments of a card due in one calendar month.
	CardInvoice struct {
		Card  CreditCard    `json:"card"`
		Month Date          `json:"month"`
		Items []InvoiceItem `json:"items"`
		Total Money         `json:"total"`
	}
)

// IsValid reports whether t names a transaction kind.
func (t EntryType) IsValid() bool {
	return t == EntryIncome || t == EntryExpense
}
