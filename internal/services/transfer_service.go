package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// TransferService records and removes direct payments between profiles.
type TransferService struct {
	store     ledger.TransferStore
	publisher EventPublisher
}

func NewTransferService(store ledger.TransferStore, publisher EventPublisher) *TransferService {
	return &TransferService{
		store:     store,
		publisher: publisher,
	}
}

// CreateTransfer records a payment from source to beneficiary.
func (s *TransferService) CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error) {
	if err := t.Validate(); err != nil {
		return core.Transfer{}, err
	}

	created, err := s.store.CreateTransfer(ctx, t)
	if err != nil {
		return core.Transfer{}, fmt.Errorf("create transfer: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerEvent(ctx, EventTransferCreated, created.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transfer event",
				"transfer_id", created.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Transfer created",
		"transfer_id", created.ID,
		"source_id", created.SourceID,
		"beneficiary_id", created.BeneficiaryID,
		"amount_cents", created.Amount.Cents)
	return created, nil
}

// DeleteTransfer removes a transfer; only the sending profile may do so.
func (s *TransferService) DeleteTransfer(ctx context.Context, id, requesterID int64) error {
	t, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return fmt.Errorf("get transfer %d: %w", id, err)
	}
	if t.SourceID != requesterID {
		return core.Unauthorizedf("transfer %d can only be deleted by its source", id)
	}

	if err := s.store.DeleteTransfer(ctx, id); err != nil {
		return fmt.Errorf("delete transfer %d: %w", id, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerEvent(ctx, EventTransferDeleted, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transfer event",
				"transfer_id", id, "error", err)
		}
	}

	slog.InfoContext(ctx, "Transfer deleted", "transfer_id", id, "requester_id", requesterID)
	return nil
}

// ListTransfers returns transfers, optionally filtered by involved profile
// and date range.
func (s *TransferService) ListTransfers(ctx context.Context, filter ledger.TransferFilter) ([]core.Transfer, error) {
	return s.store.ListTransfers(ctx, filter)
}
