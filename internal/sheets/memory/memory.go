// Package memory provides an in-memory expense writer for tests and local
// development without Google credentials.
package memory

import (
	"context"
	"sync"

	"github.com/yann-pourcenoux/expense-manager/internal/sheets"
)

type Writer struct {
	mu   sync.Mutex
	rows []sheets.ExpenseRow
}

var _ sheets.ExpenseWriter = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Append(_ context.Context, row sheets.ExpenseRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []sheets.ExpenseRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]sheets.ExpenseRow, len(w.rows))
	copy(out, w.rows)
	return out
}
