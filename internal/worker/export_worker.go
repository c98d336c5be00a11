package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yann-pourcenoux/expense-manager/internal/amqp"
	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
	"github.com/yann-pourcenoux/expense-manager/internal/services"
	"github.com/yann-pourcenoux/expense-manager/internal/sheets"
)

// ExportWorker mirrors expense mutations into a spreadsheet. Events carry
// only the entity ID; the worker reads the current record from the store, so
// processing an event twice exports the same data twice at worst.
type ExportWorker struct {
	store  ledger.Store
	writer sheets.ExpenseWriter
}

func NewExportWorker(store ledger.Store, writer sheets.ExpenseWriter) *ExportWorker {
	return &ExportWorker{
		store:  store,
		writer: writer,
	}
}

// HandleEvent processes one ledger event. Unknown kinds and transfer events
// are skipped; only expense creations and updates produce spreadsheet rows.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	switch event.Kind {
	case services.EventExpenseCreated, services.EventExpenseUpdated:
		return w.exportExpense(ctx, event.EntityID)
	case services.EventExpenseDeleted, services.EventTransferCreated, services.EventTransferDeleted:
		slog.InfoContext(ctx, "Skipping non-exportable event",
			"kind", event.Kind, "entity_id", event.EntityID)
		return nil
	default:
		slog.WarnContext(ctx, "Skipping unknown event kind",
			"kind", event.Kind, "entity_id", event.EntityID)
		return nil
	}
}

func (w *ExportWorker) exportExpense(ctx context.Context, id int64) error {
	e, err := w.store.GetExpense(ctx, id)
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			// Deleted between the event and now; nothing to export.
			slog.InfoContext(ctx, "Expense gone before export, skipping", "expense_id", id)
			return nil
		}
		return fmt.Errorf("get expense %d: %w", id, err)
	}

	row := sheets.ExpenseRow{
		ExpenseID:   e.ID,
		Date:        e.Date.Format("2006-01-02"),
		Name:        e.Name,
		Description: e.Description,
		Amount:      float64(e.Amount.Cents) / 100.0,
		Shared:      e.IsShared,
	}

	if category, err := w.store.GetCategory(ctx, e.CategoryID); err == nil {
		row.Category = category.Name
	} else {
		slog.WarnContext(ctx, "Exporting expense without category name",
			"expense_id", e.ID, "category_id", e.CategoryID, "error", err)
	}
	row.Payer = w.payerName(ctx, e.PayerID)

	if err := w.writer.Append(ctx, row); err != nil {
		return fmt.Errorf("append expense %d: %w", e.ID, err)
	}

	slog.InfoContext(ctx, "Exported expense", "expense_id", e.ID)
	return nil
}

func (w *ExportWorker) payerName(ctx context.Context, payerID int64) string {
	profiles, err := w.store.ListProfiles(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Exporting expense without payer name", "error", err)
		return fmt.Sprintf("profile %d", payerID)
	}
	for _, p := range profiles {
		if p.ID == payerID {
			return p.DisplayName
		}
	}
	return fmt.Sprintf("profile %d", payerID)
}
