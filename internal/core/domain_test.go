package core

import (
	"testing"
	"time"
)

func validExpense() Expense {
	return Expense{
		ReporterID: 1,
		PayerID:    1,
		Amount:     Money{Cents: 12_50},
		CategoryID: 3,
		Date:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Name:       "Groceries",
	}
}

func TestExpense_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Expense) {}, wantErr: false},
		{name: "zero amount", mutate: func(e *Expense) { e.Amount = Money{} }, wantErr: true},
		{name: "negative amount", mutate: func(e *Expense) { e.Amount = Money{Cents: -100} }, wantErr: true},
		{name: "missing reporter", mutate: func(e *Expense) { e.ReporterID = 0 }, wantErr: true},
		{name: "missing payer", mutate: func(e *Expense) { e.PayerID = 0 }, wantErr: true},
		{name: "missing category", mutate: func(e *Expense) { e.CategoryID = 0 }, wantErr: true},
		{name: "missing date", mutate: func(e *Expense) { e.Date = time.Time{} }, wantErr: true},
		{name: "blank name", mutate: func(e *Expense) { e.Name = "   " }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpense_ParticipantID(t *testing.T) {
	e := validExpense()
	if got := e.ParticipantID(); got != e.PayerID {
		t.Errorf("ParticipantID() without beneficiary = %d, want payer %d", got, e.PayerID)
	}

	e.BeneficiaryID = 7
	if got := e.ParticipantID(); got != 7 {
		t.Errorf("ParticipantID() with beneficiary = %d, want 7", got)
	}
}

func TestExpense_SettlementRelevant(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Expense)
		want   bool
	}{
		{name: "self expense irrelevant", mutate: func(*Expense) {}, want: false},
		{name: "shared relevant", mutate: func(e *Expense) { e.IsShared = true }, want: true},
		{name: "paid for someone else", mutate: func(e *Expense) { e.BeneficiaryID = 2 }, want: true},
		{name: "explicit self beneficiary", mutate: func(e *Expense) { e.BeneficiaryID = e.PayerID }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			if got := e.SettlementRelevant(); got != tt.want {
				t.Errorf("SettlementRelevant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransfer_Validate(t *testing.T) {
	tests := []struct {
		name     string
		transfer Transfer
		wantErr  bool
	}{
		{name: "valid", transfer: Transfer{SourceID: 1, BeneficiaryID: 2, Amount: Money{Cents: 500}}, wantErr: false},
		{name: "zero amount", transfer: Transfer{SourceID: 1, BeneficiaryID: 2}, wantErr: true},
		{name: "self transfer", transfer: Transfer{SourceID: 1, BeneficiaryID: 1, Amount: Money{Cents: 500}}, wantErr: true},
		{name: "missing beneficiary", transfer: Transfer{SourceID: 1, Amount: Money{Cents: 500}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.transfer.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2024, 3, 17, 15, 4, 5, 0, time.UTC))
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("MonthStart() = %v, want %v", got, want)
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	a := Money{Cents: 150}
	b := Money{Cents: 50}

	if got := a.Add(b); got.Cents != 200 {
		t.Errorf("Add() = %d, want 200", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 100 {
		t.Errorf("Sub() = %d, want 100", got.Cents)
	}
	if !(Money{}).IsZero() {
		t.Error("IsZero() should be true for zero amount")
	}
}
