package memory

import (
	"context"
	"errors"
	"testing"

	"saldo/internal/core"
)

const house = "house-1"

func seed(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(s.CreateAccount(ctx, core.Account{ID: "acc-1", HouseholdID: house, Name: "Checking"}))
	must(s.CreateAccount(ctx, core.Account{ID: "acc-2", HouseholdID: house, Name: "Savings"}))
	must(s.CreateCard(ctx, core.CreditCard{ID: "card-1", HouseholdID: house, AccountID: "acc-1", Name: "Visa", ClosingDay: 10, DueDay: 20}))
	must(s.CreateCategory(ctx, core.Category{ID: "cat-food", HouseholdID: house, Name: "Food", Kind: core.KindExpense}))
	must(s.CreateCategory(ctx, core.Category{ID: "cat-bills", HouseholdID: house, Name: "bills", Kind: core.KindExpense}))
	must(s.CreateExpense(ctx, core.Expense{ID: "exp-1", HouseholdID: house, CategoryID: "cat-food", CardID: "card-1", InstallmentCount: 2}))
	must(s.CreateInstallments(ctx, []core.Installment{
		{ID: "i-2", HouseholdID: house, ExpenseID: "exp-1", AccountID: "acc-1", CardID: "card-1", Parcel: 2, DueDate: core.NewDate(2024, 2, 15), Status: core.StatusPending},
		{ID: "i-1", HouseholdID: house, ExpenseID: "exp-1", AccountID: "acc-1", CardID: "card-1", Parcel: 1, DueDate: core.NewDate(2024, 1, 15), Status: core.StatusPending},
	}))
	return s
}

func TestHouseholdIsolation(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	accounts, _ := s.ListAccounts(ctx, "house-2")
	if len(accounts) != 0 {
		t.Fatalf("foreign household sees %d accounts", len(accounts))
	}
	if _, err := s.GetAccount(ctx, "house-2", "acc-1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found across households, got %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	accounts, _ := s.ListAccounts(ctx, house)
	if len(accounts) != 2 || accounts[0].ID != "acc-1" {
		t.Fatalf("accounts not in creation order: %+v", accounts)
	}
	cats, _ := s.ListCategories(ctx, house)
	if cats[0].Name != "bills" {
		t.Fatalf("categories not ordered by name: %+v", cats)
	}
	insts, _ := s.ListInstallmentsByExpense(ctx, house, "exp-1")
	if insts[0].ID != "i-1" {
		t.Fatalf("installments not ordered by due date: %+v", insts)
	}
}

func TestCategoryDeleteConflict(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	err := s.DeleteCategory(ctx, house, "cat-food")
	if !core.IsConflict(err) || !errors.Is(err, core.ErrReferenced) {
		t.Fatalf("expected referential conflict, got %v", err)
	}
	if err := s.DeleteCategory(ctx, house, "cat-bills"); err != nil {
		t.Fatalf("unused category should delete: %v", err)
	}
}

func TestDeleteAccountPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("restrict", func(t *testing.T) {
		s := seed(t)
		if err := s.DeleteAccount(ctx, house, "acc-1", false); !core.IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if err := s.DeleteAccount(ctx, house, "acc-2", false); err != nil {
			t.Fatalf("empty account should delete: %v", err)
		}
	})

	t.Run("cascade", func(t *testing.T) {
		s := seed(t)
		if err := s.DeleteAccount(ctx, house, "acc-1", true); err != nil {
			t.Fatalf("cascade delete: %v", err)
		}
		if _, err := s.GetCard(ctx, house, "card-1"); !core.IsNotFound(err) {
			t.Fatalf("card should be gone, got %v", err)
		}
		if _, err := s.GetExpense(ctx, house, "exp-1"); !core.IsNotFound(err) {
			t.Fatalf("expense should be gone, got %v", err)
		}
		if insts, _ := s.ListInstallmentsByAccount(ctx, house, "acc-1"); len(insts) != 0 {
			t.Fatalf("installments should be gone, got %d", len(insts))
		}
	})
}

func TestDeleteExpenseCascadesInstallments(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	if err := s.DeleteExpense(ctx, house, "exp-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if insts, _ := s.ListInstallmentsByExpense(ctx, house, "exp-1"); len(insts) != 0 {
		t.Fatalf("installments survived: %+v", insts)
	}
	if err := s.DeleteExpense(ctx, house, "exp-1"); !core.IsNotFound(err) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestCreateInstallmentsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	err := s.CreateInstallments(ctx, []core.Installment{
		{ID: "ok", HouseholdID: house, ExpenseID: "exp-1", AccountID: "acc-1"},
		{ID: "bad", HouseholdID: house, ExpenseID: "missing", AccountID: "acc-1"},
	})
	if err == nil {
		t.Fatal("expected failure for unknown expense")
	}
	if _, err := s.GetInstallment(ctx, house, "ok"); !core.IsNotFound(err) {
		t.Fatal("partial batch was written")
	}
}

func TestMarkInstallmentsPaid(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	paidOn := core.NewDate(2024, 2, 20)
	if err := s.MarkInstallmentsPaid(ctx, house, []string{"i-1"}, paidOn); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	inst, _ := s.GetInstallment(ctx, house, "i-1")
	if inst.Status != core.StatusPaid || !inst.PaidDate.Equal(paidOn.Time) {
		t.Fatalf("installment not paid: %+v", inst)
	}
	if err := s.MarkInstallmentsPaid(ctx, house, []string{"i-2", "nope"}, paidOn); !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	inst, _ = s.GetInstallment(ctx, house, "i-2")
	if inst.Status != core.StatusPending {
		t.Fatal("failed batch must not change any installment")
	}
}

func TestFixedExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	if err := s.CreateFixedExpense(ctx, core.FixedExpense{ID: "fe-late", HouseholdID: house, DueDay: 25, Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateFixedExpense(ctx, core.FixedExpense{ID: "fe-early", HouseholdID: house, DueDay: 3, Active: true}); err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListFixedExpenses(ctx, house)
	if list[0].ID != "fe-early" {
		t.Fatalf("templates not ordered by due day: %+v", list)
	}

	if err := s.CreateExpense(ctx, core.Expense{ID: "pay-1", HouseholdID: house, AccountID: "acc-2", FixedExpenseID: "fe-late", PurchaseDate: core.NewDate(2024, 3, 25)}); err != nil {
		t.Fatal(err)
	}
	paid, _ := s.ListFixedPayments(ctx, house, "", core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	if len(paid) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(paid))
	}
	paid, _ = s.ListFixedPayments(ctx, house, "fe-early", core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	if len(paid) != 0 {
		t.Fatalf("payment matched the wrong template")
	}

	if err := s.SetFixedExpenseActive(ctx, house, "fe-late", false); err != nil {
		t.Fatal(err)
	}
	fe, _ := s.GetFixedExpense(ctx, house, "fe-late")
	if fe.Active {
		t.Fatal("template still active")
	}

	if err := s.DeleteFixedExpense(ctx, house, "fe-late"); err != nil {
		t.Fatal(err)
	}
	exp, err := s.GetExpense(ctx, house, "pay-1")
	if err != nil || exp.FixedExpenseID != "" {
		t.Fatalf("payment should survive without backreference: %+v, %v", exp, err)
	}
}
