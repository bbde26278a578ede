package services

import (
	"context"
	"errors"
	"testing"

	"saldo/internal/core"
	"saldo/internal/store/memory"
)

func TestNewLedgerDefaults(t *testing.T) {
	l := NewLedger(nil, nil, LedgerOptions{})

	if l == nil {
		t.Fatal("NewLedger should return a non-nil ledger")
	}
	if l.policy != PolicyRestrict {
		t.Errorf("default policy = %q, want restrict", l.policy)
	}
	if l.newID() == l.newID() {
		t.Error("default ID generator should not repeat")
	}
	if l.today().IsEmpty() {
		t.Error("default clock should be set")
	}
}

func TestLedger_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		l := &Ledger{}
		if err := l.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})

	t.Run("memory store", func(t *testing.T) {
		l := NewLedger(memory.New(), &recordingPublisher{}, LedgerOptions{})
		if err := l.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})
}

func TestCreateIncomeValidation(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t)
	acc := mustAccount(t, l, "Checking", 0)

	tests := []struct {
		name string
		in   NewIncome
		want error
	}{
		{"zero amount", NewIncome{AccountID: acc.ID, Amount: core.Cents(0), Date: core.NewDate(2024, 1, 1)}, core.ErrInvalidAmount},
		{"no date", NewIncome{AccountID: acc.ID, Amount: core.Cents(10)}, core.ErrInvalidDate},
		{"no account", NewIncome{Amount: core.Cents(10), Date: core.NewDate(2024, 1, 1)}, core.ErrMissingReference},
		{"unknown account", NewIncome{AccountID: "ghost", Amount: core.Cents(10), Date: core.NewDate(2024, 1, 1)}, core.ErrNotFound},
		{"unknown category", NewIncome{AccountID: acc.ID, CategoryID: "ghost", Amount: core.Cents(10), Date: core.NewDate(2024, 1, 1)}, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.CreateIncome(ctx, scope, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateCardRequiresAccount(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t)

	if _, err := l.CreateCard(ctx, scope, "", "Visa", core.Cents(100), 5, 15); !core.IsValidation(err) {
		t.Fatalf("empty account should be a validation error, got %v", err)
	}
	if _, err := l.CreateCard(ctx, scope, "ghost", "Visa", core.Cents(100), 5, 15); !core.IsNotFound(err) {
		t.Fatalf("unknown account should be not found, got %v", err)
	}

	acc := mustAccount(t, l, "Checking", 0)
	card, err := l.CreateCard(ctx, scope, acc.ID, "Visa", core.Cents(100), 31, 10)
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	accounts, err := l.ListAccountsWithCards(ctx, scope)
	if err != nil || len(accounts) != 1 || len(accounts[0].Cards) != 1 || accounts[0].Cards[0].ID != card.ID {
		t.Fatalf("accounts with cards = %+v, %v", accounts, err)
	}
}
