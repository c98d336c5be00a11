package services

import (
	"context"
	"testing"
	"time"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

func TestCreateTransferValidates(t *testing.T) {
	h := newHousehold(t)
	svc := NewTransferService(h.store, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		transfer core.Transfer
	}{
		{"zero amount", core.Transfer{SourceID: h.a.ID, BeneficiaryID: h.b.ID}},
		{"negative amount", core.Transfer{SourceID: h.a.ID, BeneficiaryID: h.b.ID, Amount: core.Money{Cents: -100}}},
		{"self transfer", core.Transfer{SourceID: h.a.ID, BeneficiaryID: h.a.ID, Amount: core.Money{Cents: 100}}},
		{"missing beneficiary", core.Transfer{SourceID: h.a.ID, Amount: core.Money{Cents: 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateTransfer(ctx, tt.transfer); !core.IsKind(err, core.KindInvalid) {
				t.Errorf("expected invalid, got %v", err)
			}
		})
	}
}

func TestTransferLifecycleAndOwnership(t *testing.T) {
	h := newHousehold(t)
	pub := &recordingPublisher{}
	svc := NewTransferService(h.store, pub)
	ctx := context.Background()

	created, err := svc.CreateTransfer(ctx, core.Transfer{
		SourceID:      h.b.ID,
		BeneficiaryID: h.a.ID,
		Amount:        core.Money{Cents: 15000},
		Date:          time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	// Only the source may delete.
	if err := svc.DeleteTransfer(ctx, created.ID, h.a.ID); !core.IsKind(err, core.KindUnauthorized) {
		t.Errorf("expected unauthorized for beneficiary, got %v", err)
	}
	if err := svc.DeleteTransfer(ctx, created.ID, h.b.ID); err != nil {
		t.Fatalf("delete transfer: %v", err)
	}

	remaining, err := svc.ListTransfers(ctx, ledger.TransferFilter{})
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no transfers left, got %d", len(remaining))
	}

	want := []string{EventTransferCreated, EventTransferDeleted}
	if len(pub.events) != 2 || pub.events[0] != want[0] || pub.events[1] != want[1] {
		t.Errorf("unexpected events: %v", pub.events)
	}
}
