// Package memory is an in-process LedgerMirror, used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"slices"
	"sync"

	"saldo/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var _ sheets.LedgerMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) AppendRows(_ context.Context, rows []sheets.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *Mirror) DeleteRows(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(r sheets.Row) bool {
		return slices.Contains(ids, r.ID) || (r.ParentID != "" && slices.Contains(ids, r.ParentID))
	})
	return nil
}

// Rows returns a copy of the mirrored rows in append order.
func (m *Mirror) Rows() []sheets.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows)
}
