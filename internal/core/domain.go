package core

import (
	"strings"
	"time"
)

type (
	// Money is a currency amount in cents. All ledger arithmetic is integer
	// arithmetic; formatting happens at the presentation edge.
	Money struct {
		Cents int64
	}

	// Profile is a household member. ID is the participant identifier used
	// throughout the ledger; UserID links back to the auth user.
	Profile struct {
		ID          int64
		UserID      string
		DisplayName string
		CreatedAt   time.Time
	}

	// Category classifies expenses. A category cannot be deleted while
	// expenses still reference it.
	Category struct {
		ID          int64
		Name        string
		Description string
		CreatedAt   time.Time
	}

	// Expense is a single recorded expense. ReporterID is the profile that
	// created the record and is the only one allowed to change it. PayerID
	// is the profile that fronted the money. BeneficiaryID matters only for
	// non-shared expenses; shared expenses involve every profile.
	Expense struct {
		ID            int64
		ReporterID    int64
		PayerID       int64
		BeneficiaryID int64 // zero when unset
		Amount        Money
		CategoryID    int64
		Date          time.Time
		Name          string
		Description   string
		IsShared      bool
		CreatedAt     time.Time
	}

	// ExpenseSplit is one participant's share of one expense. Split rows are
	// derived entirely from the parent expense and are replaced wholesale
	// whenever the sharing configuration changes.
	ExpenseSplit struct {
		ID        int64
		ExpenseID int64
		UserID    int64
		Amount    Money
		CreatedAt time.Time
	}

	// SplitShare is a computed (participant, amount) pair before persistence.
	SplitShare struct {
		UserID int64
		Amount Money
	}

	// Transfer is a direct payment from one profile to another, independent
	// of any expense. It settles debt between the two parties.
	Transfer struct {
		ID            int64
		SourceID      int64
		BeneficiaryID int64
		Amount        Money
		Date          time.Time
		CreatedAt     time.Time
	}

	// MonthlyIncome records one profile's income for one month. MonthDate is
	// normalized to the first of the month; at most one record exists per
	// (user, month) pair.
	MonthlyIncome struct {
		ID        int64
		UserID    int64
		Amount    Money
		MonthDate time.Time
		CreatedAt time.Time
	}

	// Balance is the settlement position of a single profile. Paid is what
	// the profile fronted for others, Owed what others fronted for it.
	// Balance folds in transfers: positive means others owe this profile.
	Balance struct {
		Balance Money
		Paid    Money
		Owed    Money
	}

	// CounterpartyBalance is one row of the per-counter-party breakdown.
	// OwesUser is what the counter-party owes this profile, UserOwes the
	// reverse, NetBalance their difference.
	CounterpartyBalance struct {
		UserID     int64
		OwesUser   Money
		UserOwes   Money
		NetBalance Money
	}

	// ExpensePatch carries the whitelisted updatable fields of an expense.
	// Nil fields are left untouched. SplitWith requests a re-split among the
	// given participants (the reporter is always included).
	ExpensePatch struct {
		PayerID       *int64
		BeneficiaryID *int64
		Amount        *Money
		CategoryID    *int64
		Date          *time.Time
		Name          *string
		Description   *string
		IsShared      *bool
		SplitWith     []int64
	}
)

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference of two amounts.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MonthStart normalizes a time to the first of its month, UTC midnight.
// Monthly income records are keyed on this.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.ReporterID == 0 {
		return Invalidf("missing reporter")
	}
	if e.PayerID == 0 {
		return Invalidf("missing payer")
	}
	if e.CategoryID == 0 {
		return Invalidf("missing category")
	}
	if e.Date.IsZero() {
		return Invalidf("missing date")
	}
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return Invalidf("name too long (max 200 characters)")
	}
	return nil
}

// ParticipantID returns the single profile a non-shared expense benefits:
// the beneficiary, or the payer when no beneficiary was given.
func (e Expense) ParticipantID() int64 {
	if e.BeneficiaryID != 0 {
		return e.BeneficiaryID
	}
	return e.PayerID
}

// SettlementRelevant reports whether the expense affects balances at all.
// A non-shared expense whose payer is also its only beneficiary moves no
// money between profiles.
func (e Expense) SettlementRelevant() bool {
	return e.IsShared || e.ParticipantID() != e.PayerID
}

func (t Transfer) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.SourceID == 0 || t.BeneficiaryID == 0 {
		return Invalidf("transfer needs a source and a beneficiary")
	}
	if t.SourceID == t.BeneficiaryID {
		return Invalidf("cannot transfer to yourself")
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}

func (i MonthlyIncome) Validate() error {
	if i.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if i.UserID == 0 {
		return Invalidf("missing user")
	}
	return nil
}
