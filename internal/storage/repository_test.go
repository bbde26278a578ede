package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"saldo/internal/core"
)

const hh = "house-1"

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "saldo.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var created = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func seedAccount(t *testing.T, r *SQLRepository, id string) core.Account {
	t.Helper()
	a := core.Account{ID: id, HouseholdID: hh, Name: "Checking " + id, OpeningBalance: core.Cents(10000), CreatedBy: "u1", CreatedAt: created}
	if err := r.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a
}

func seedExpense(t *testing.T, r *SQLRepository, id, accountID string, parcels int) {
	t.Helper()
	ctx := context.Background()
	e := core.Expense{
		ID: id, HouseholdID: hh, Description: "Groceries", Total: core.Cents(int64(parcels) * 1000),
		PurchaseDate: core.NewDate(2024, 3, 5), FirstPaymentDate: core.NewDate(2024, 3, 5),
		InstallmentCount: parcels, Method: core.MethodPix, AccountID: accountID, CreatedAt: created,
	}
	if err := r.CreateExpense(ctx, e); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	var list []core.Installment
	for i := 1; i <= parcels; i++ {
		list = append(list, core.Installment{
			ID: id + "-" + string(rune('0'+i)), HouseholdID: hh, ExpenseID: id, AccountID: accountID,
			Parcel: i, Amount: core.Cents(1000), DueDate: core.NewDate(2024, 3, 5).AddMonths(i - 1),
			Status: core.StatusPending,
		})
	}
	if err := r.CreateInstallments(ctx, list); err != nil {
		t.Fatalf("CreateInstallments: %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{dialect: DialectPostgres}
	lite := &SQLRepository{dialect: DialectSQLite}
	q := "SELECT * FROM t WHERE a = ? AND b IN (?,?)"

	if got := pg.rebind(q); got != "SELECT * FROM t WHERE a = $1 AND b IN ($2,$3)" {
		t.Fatalf("postgres rebind = %q", got)
	}
	if got := lite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := map[string]string{
		"/tmp/a.db":         "/tmp/a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		"/tmp/a.db?mode=rw": "/tmp/a.db?mode=rw&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	}
	for in, want := range tests {
		if got := sqliteDSN(in); got != want {
			t.Fatalf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAccountRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	want := seedAccount(t, r, "acc-1")

	got, err := r.GetAccount(ctx, hh, "acc-1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Name != want.Name || got.OpeningBalance != want.OpeningBalance || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("GetAccount = %+v, want %+v", got, want)
	}

	if _, err := r.GetAccount(ctx, "other-house", "acc-1"); !core.IsNotFound(err) {
		t.Fatalf("foreign household read: got %v, want not found", err)
	}
}

func TestExpenseScheduleAndDeleteCascade(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "acc-1")
	seedExpense(t, r, "exp-1", "acc-1", 3)

	due, err := r.ListInstallmentsDue(ctx, hh, core.NewDate(2024, 3, 1), core.NewDate(2024, 4, 30))
	if err != nil {
		t.Fatalf("ListInstallmentsDue: %v", err)
	}
	if len(due) != 2 || due[0].Parcel != 1 || due[1].Parcel != 2 {
		t.Fatalf("due installments = %+v", due)
	}
	if !due[1].DueDate.Equal(core.NewDate(2024, 4, 5).Time) {
		t.Fatalf("second due date = %s", due[1].DueDate)
	}
	if !due[0].PaidDate.IsEmpty() {
		t.Fatalf("pending installment has paid date %s", due[0].PaidDate)
	}

	if err := r.DeleteExpense(ctx, hh, "exp-1"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	left, err := r.ListInstallmentsByExpense(ctx, hh, "exp-1")
	if err != nil {
		t.Fatalf("ListInstallmentsByExpense: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("installments survived expense delete: %d", len(left))
	}
	if err := r.DeleteExpense(ctx, hh, "exp-1"); !core.IsNotFound(err) {
		t.Fatalf("second delete: got %v, want not found", err)
	}
}

func TestCreateInstallmentsAllOrNothing(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "acc-1")
	seedExpense(t, r, "exp-1", "acc-1", 1)

	batch := []core.Installment{
		{ID: "new-1", HouseholdID: hh, ExpenseID: "exp-1", AccountID: "acc-1", Parcel: 2, Amount: core.Cents(1), DueDate: core.NewDate(2024, 5, 1), Status: core.StatusPending},
		{ID: "new-2", HouseholdID: hh, ExpenseID: "exp-1", AccountID: "missing", Parcel: 3, Amount: core.Cents(1), DueDate: core.NewDate(2024, 6, 1), Status: core.StatusPending},
	}
	if err := r.CreateInstallments(ctx, batch); !core.IsNotFound(err) {
		t.Fatalf("CreateInstallments: got %v, want not found", err)
	}
	if _, err := r.GetInstallment(ctx, hh, "new-1"); !core.IsNotFound(err) {
		t.Fatalf("partial batch persisted: %v", err)
	}
}

func TestMarkInstallmentsPaid(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "acc-1")
	seedExpense(t, r, "exp-1", "acc-1", 2)
	paidOn := core.NewDate(2024, 3, 10)

	if err := r.MarkInstallmentsPaid(ctx, hh, []string{"exp-1-1", "nope"}, paidOn); !core.IsNotFound(err) {
		t.Fatalf("unknown id: got %v, want not found", err)
	}
	inst, _ := r.GetInstallment(ctx, hh, "exp-1-1")
	if inst.Status != core.StatusPending {
		t.Fatalf("failed batch changed status to %s", inst.Status)
	}

	if err := r.MarkInstallmentsPaid(ctx, hh, []string{"exp-1-1", "exp-1-2"}, paidOn); err != nil {
		t.Fatalf("MarkInstallmentsPaid: %v", err)
	}
	inst, err := r.GetInstallment(ctx, hh, "exp-1-2")
	if err != nil {
		t.Fatalf("GetInstallment: %v", err)
	}
	if inst.Status != core.StatusPaid || !inst.PaidDate.Equal(paidOn.Time) {
		t.Fatalf("installment = %+v", inst)
	}
}

func TestDeleteAccountPolicies(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "acc-1")
	seedExpense(t, r, "exp-1", "acc-1", 2)
	card := core.CreditCard{ID: "card-1", HouseholdID: hh, AccountID: "acc-1", Name: "Visa", Limit: core.Cents(500000), ClosingDay: 3, DueDay: 10, CreatedAt: created}
	if err := r.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	inc := core.Income{ID: "inc-1", HouseholdID: hh, AccountID: "acc-1", Amount: core.Cents(2500), Description: "Salary", Date: core.NewDate(2024, 3, 1), Received: true, CreatedAt: created}
	if err := r.CreateIncome(ctx, inc); err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}

	err := r.DeleteAccount(ctx, hh, "acc-1", false)
	var conflict *core.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("restrict delete: got %v, want conflict", err)
	}
	if _, err := r.GetAccount(ctx, hh, "acc-1"); err != nil {
		t.Fatalf("account gone after refused delete: %v", err)
	}

	if err := r.DeleteAccount(ctx, hh, "acc-1", true); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if _, err := r.GetIncome(ctx, hh, "inc-1"); !core.IsNotFound(err) {
		t.Fatalf("income survived cascade: %v", err)
	}
	if _, err := r.GetCard(ctx, hh, "card-1"); !core.IsNotFound(err) {
		t.Fatalf("card survived cascade: %v", err)
	}
	if _, err := r.GetExpense(ctx, hh, "exp-1"); !core.IsNotFound(err) {
		t.Fatalf("expense survived cascade: %v", err)
	}
	if err := r.DeleteAccount(ctx, hh, "acc-1", true); !core.IsNotFound(err) {
		t.Fatalf("delete missing account: got %v, want not found", err)
	}
}

func TestCategoryInUseConflict(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "acc-1")
	for _, c := range []core.Category{
		{ID: "cat-b", HouseholdID: hh, Name: "Rent", Kind: core.KindExpense, Slug: "rent"},
		{ID: "cat-a", HouseholdID: hh, Name: "Food", Kind: core.KindExpense, Slug: "food"},
	} {
		if err := r.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory: %v", err)
		}
	}
	cats, err := r.ListCategories(ctx, hh)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Food" {
		t.Fatalf("categories not ordered by name: %+v", cats)
	}

	inc := core.Income{ID: "inc-1", HouseholdID: hh, AccountID: "acc-1", CategoryID: "cat-a", Amount: core.Cents(100), Date: core.NewDate(2024, 3, 2), Received: true, CreatedAt: created}
	if err := r.CreateIncome(ctx, inc); err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}
	if err := r.DeleteCategory(ctx, hh, "cat-a"); !core.IsConflict(err) {
		t.Fatalf("delete used category: got %v, want conflict", err)
	}
	if err := r.DeleteCategory(ctx, hh, "cat-b"); err != nil {
		t.Fatalf("delete unused category: %v", err)
	}
}

func TestFixedExpenseLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "acc-1")
	twelve := 12
	fe := core.FixedExpense{
		ID: "fx-1", HouseholdID: hh, Description: "Internet", Amount: core.Cents(9990), DueDay: 15,
		StartDate: core.NewDate(2024, 1, 1), DurationMonths: &twelve, Active: true, CreatedAt: created,
	}
	open := core.FixedExpense{
		ID: "fx-2", HouseholdID: hh, Description: "Gym", Amount: core.Cents(5000), DueDay: 5,
		StartDate: core.NewDate(2024, 1, 1), Active: true, CreatedAt: created,
	}
	for _, f := range []core.FixedExpense{fe, open} {
		if err := r.CreateFixedExpense(ctx, f); err != nil {
			t.Fatalf("CreateFixedExpense: %v", err)
		}
	}

	list, err := r.ListFixedExpenses(ctx, hh)
	if err != nil {
		t.Fatalf("ListFixedExpenses: %v", err)
	}
	if len(list) != 2 || list[0].ID != "fx-2" {
		t.Fatalf("templates not ordered by due day: %+v", list)
	}
	if list[0].DurationMonths != nil || list[1].DurationMonths == nil || *list[1].DurationMonths != 12 {
		t.Fatalf("duration round trip failed: %+v", list)
	}

	if err := r.SetFixedExpenseActive(ctx, hh, "fx-1", false); err != nil {
		t.Fatalf("SetFixedExpenseActive: %v", err)
	}
	got, _ := r.GetFixedExpense(ctx, hh, "fx-1")
	if got.Active {
		t.Fatalf("template still active")
	}

	payment := core.Expense{
		ID: "pay-1", HouseholdID: hh, Description: "Internet", Total: core.Cents(9990),
		PurchaseDate: core.NewDate(2024, 3, 15), FirstPaymentDate: core.NewDate(2024, 3, 15),
		InstallmentCount: 1, Method: core.MethodPix, AccountID: "acc-1", FixedExpenseID: "fx-1", CreatedAt: created,
	}
	if err := r.CreateExpense(ctx, payment); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	pays, err := r.ListFixedPayments(ctx, hh, "", core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	if err != nil || len(pays) != 1 {
		t.Fatalf("ListFixedPayments = %v, %v", pays, err)
	}

	if err := r.DeleteFixedExpense(ctx, hh, "fx-1"); err != nil {
		t.Fatalf("DeleteFixedExpense: %v", err)
	}
	exp, err := r.GetExpense(ctx, hh, "pay-1")
	if err != nil {
		t.Fatalf("payment lost with template: %v", err)
	}
	if exp.FixedExpenseID != "" {
		t.Fatalf("payment still linked to %q", exp.FixedExpenseID)
	}
}

func TestCreateExpenseWithInstallmentsRollsBack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "acc-1")

	e := core.Expense{
		ID: "exp-tx", HouseholdID: hh, Description: "Sofa", Total: core.Cents(2000),
		PurchaseDate: core.NewDate(2024, 3, 5), FirstPaymentDate: core.NewDate(2024, 3, 5),
		InstallmentCount: 2, Method: core.MethodPix, AccountID: "acc-1", CreatedAt: created,
	}
	bad := []core.Installment{
		{ID: "tx-1", HouseholdID: hh, ExpenseID: "exp-tx", AccountID: "acc-1", Parcel: 1, Amount: core.Cents(1000), DueDate: core.NewDate(2024, 3, 5), Status: core.StatusPaid, PaidDate: core.NewDate(2024, 3, 5)},
		{ID: "tx-1", HouseholdID: hh, ExpenseID: "exp-tx", AccountID: "acc-1", Parcel: 2, Amount: core.Cents(1000), DueDate: core.NewDate(2024, 4, 5), Status: core.StatusPaid, PaidDate: core.NewDate(2024, 3, 5)},
	}
	if err := r.CreateExpenseWithInstallments(ctx, e, bad); err == nil {
		t.Fatalf("duplicate installment id accepted")
	}
	if _, err := r.GetExpense(ctx, hh, "exp-tx"); !core.IsNotFound(err) {
		t.Fatalf("expense persisted after failed schedule: %v", err)
	}

	bad[1].ID = "tx-2"
	if err := r.CreateExpenseWithInstallments(ctx, e, bad); err != nil {
		t.Fatalf("CreateExpenseWithInstallments: %v", err)
	}
	list, err := r.ListInstallmentsByExpense(ctx, hh, "exp-tx")
	if err != nil || len(list) != 2 {
		t.Fatalf("schedule = %v, %v", list, err)
	}
}
