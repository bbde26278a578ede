// Package sheets mirrors the ledger into a spreadsheet-shaped sink.
//
// The mirror is write-only and derived: the store stays the source of
// truth and a lost mirror can be rebuilt from it.
package sheets

import (
	"context"

	"saldo/internal/core"
)

// Row is one mirrored cash movement: an income or an installment.
type Row struct {
	ID          string
	ParentID    string
	Date        core.Date
	Type        core.EntryType
	Description string
	Category    string
	Amount      core.Money
	Status      core.InstallmentStatus
}

// Header names the columns in the order Values emits them.
var Header = []string{"ID", "ParentID", "Date", "Type", "Description", "Category", "Amount", "Status"}

// Values renders the row as spreadsheet cells.
func (r Row) Values() []any {
	return []any{
		r.ID,
		r.ParentID,
		r.Date.String(),
		string(r.Type),
		r.Description,
		r.Category,
		r.Amount.Decimal().StringFixed(2),
		string(r.Status),
	}
}

// Ports for outbound adapters.
type (
	LedgerMirror interface {
		AppendRows(ctx context.Context, rows []Row) error
		// DeleteRows removes every row whose ID or ParentID is in ids.
		DeleteRows(ctx context.Context, ids []string) error
	}
)
