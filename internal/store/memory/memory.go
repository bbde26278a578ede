// Package memory is an in-process store.Store. It enforces the same
// referential rules as the SQL schema and is used by tests and by the
// memory backend.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"saldo/internal/core"
	"saldo/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu           sync.Mutex
	accounts     []core.Account
	cards        []core.CreditCard
	categories   []core.Category
	expenses     []core.Expense
	installments []core.Installment
	incomes      []core.Income
	fixed        []core.FixedExpense
}

func New() *Store {
	return &Store{}
}

func (s *Store) Close() error { return nil }

// Accounts

func (s *Store) ListAccounts(_ context.Context, householdID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.accounts, func(a core.Account) bool { return a.HouseholdID == householdID }), nil
}

func (s *Store) GetAccount(_ context.Context, householdID, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(householdID, id)
	if i < 0 {
		return core.Account{}, core.NotFound("account", id)
	}
	return s.accounts[i], nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Cards = nil
	s.accounts = append(s.accounts, a)
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, householdID, id string, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(householdID, id)
	if i < 0 {
		return core.NotFound("account", id)
	}

	cardIDs := map[string]bool{}
	for _, c := range s.cards {
		if c.HouseholdID == householdID && c.AccountID == id {
			cardIDs[c.ID] = true
		}
	}
	expenseIDs := map[string]bool{}
	for _, e := range s.expenses {
		if e.HouseholdID == householdID && (e.AccountID == id || cardIDs[e.CardID]) {
			expenseIDs[e.ID] = true
		}
	}
	for _, inst := range s.installments {
		if inst.HouseholdID == householdID && inst.AccountID == id {
			expenseIDs[inst.ExpenseID] = true
		}
	}
	hasIncomes := slices.ContainsFunc(s.incomes, func(in core.Income) bool {
		return in.HouseholdID == householdID && in.AccountID == id
	})

	if !cascade && (len(cardIDs) > 0 || len(expenseIDs) > 0 || hasIncomes) {
		return core.Conflict("account", id, core.ErrReferenced)
	}

	s.installments = slices.DeleteFunc(s.installments, func(inst core.Installment) bool { return expenseIDs[inst.ExpenseID] })
	s.expenses = slices.DeleteFunc(s.expenses, func(e core.Expense) bool { return expenseIDs[e.ID] })
	s.incomes = slices.DeleteFunc(s.incomes, func(in core.Income) bool {
		return in.HouseholdID == householdID && in.AccountID == id
	})
	s.cards = slices.DeleteFunc(s.cards, func(c core.CreditCard) bool { return cardIDs[c.ID] })
	s.accounts = slices.Delete(s.accounts, i, i+1)
	return nil
}

func (s *Store) accountIndex(householdID, id string) int {
	return slices.IndexFunc(s.accounts, func(a core.Account) bool {
		return a.HouseholdID == householdID && a.ID == id
	})
}

// Cards

func (s *Store) ListCards(_ context.Context, householdID string) ([]core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.cards, func(c core.CreditCard) bool { return c.HouseholdID == householdID }), nil
}

func (s *Store) GetCard(_ context.Context, householdID, id string) (core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cardIndex(householdID, id)
	if i < 0 {
		return core.CreditCard{}, core.NotFound("card", id)
	}
	return s.cards[i], nil
}

func (s *Store) CreateCard(_ context.Context, c core.CreditCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountIndex(c.HouseholdID, c.AccountID) < 0 {
		return core.NotFound("account", c.AccountID)
	}
	s.cards = append(s.cards, c)
	return nil
}

func (s *Store) DeleteCard(_ context.Context, householdID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cardIndex(householdID, id)
	if i < 0 {
		return core.NotFound("card", id)
	}
	if slices.ContainsFunc(s.expenses, func(e core.Expense) bool {
		return e.HouseholdID == householdID && e.CardID == id
	}) {
		return core.Conflict("card", id, core.ErrReferenced)
	}
	s.cards = slices.Delete(s.cards, i, i+1)
	return nil
}

func (s *Store) cardIndex(householdID, id string) int {
	return slices.IndexFunc(s.cards, func(c core.CreditCard) bool {
		return c.HouseholdID == householdID && c.ID == id
	})
}

// Categories

func (s *Store) ListCategories(_ context.Context, householdID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := filter(s.categories, func(c core.Category) bool { return c.HouseholdID == householdID })
	slices.SortStableFunc(out, func(a, b core.Category) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, householdID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.categories, func(c core.Category) bool {
		return c.HouseholdID == householdID && c.ID == id
	})
	if i < 0 {
		return core.NotFound("category", id)
	}
	used := slices.ContainsFunc(s.expenses, func(e core.Expense) bool { return e.HouseholdID == householdID && e.CategoryID == id }) ||
		slices.ContainsFunc(s.incomes, func(in core.Income) bool { return in.HouseholdID == householdID && in.CategoryID == id }) ||
		slices.ContainsFunc(s.fixed, func(fe core.FixedExpense) bool { return fe.HouseholdID == householdID && fe.CategoryID == id })
	if used {
		return core.Conflict("category", id, core.ErrReferenced)
	}
	s.categories = slices.Delete(s.categories, i, i+1)
	return nil
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.AccountID != "" && s.accountIndex(e.HouseholdID, e.AccountID) < 0 {
		return core.NotFound("account", e.AccountID)
	}
	if e.CardID != "" && s.cardIndex(e.HouseholdID, e.CardID) < 0 {
		return core.NotFound("card", e.CardID)
	}
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *Store) GetExpense(_ context.Context, householdID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(householdID, id)
	if i < 0 {
		return core.Expense{}, core.NotFound("expense", id)
	}
	return s.expenses[i], nil
}

func (s *Store) ListExpensesByIDs(_ context.Context, householdID string, ids []string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := set(ids)
	return filter(s.expenses, func(e core.Expense) bool { return e.HouseholdID == householdID && want[e.ID] }), nil
}

func (s *Store) ListFixedPayments(_ context.Context, householdID, fixedExpenseID string, from, to core.Date) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.expenses, func(e core.Expense) bool {
		if e.HouseholdID != householdID || e.FixedExpenseID == "" {
			return false
		}
		if fixedExpenseID != "" && e.FixedExpenseID != fixedExpenseID {
			return false
		}
		return e.PurchaseDate.Within(from, to)
	}), nil
}

func (s *Store) DeleteExpense(_ context.Context, householdID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(householdID, id)
	if i < 0 {
		return core.NotFound("expense", id)
	}
	s.expenses = slices.Delete(s.expenses, i, i+1)
	s.installments = slices.DeleteFunc(s.installments, func(inst core.Installment) bool {
		return inst.HouseholdID == householdID && inst.ExpenseID == id
	})
	return nil
}

func (s *Store) expenseIndex(householdID, id string) int {
	return slices.IndexFunc(s.expenses, func(e core.Expense) bool {
		return e.HouseholdID == householdID && e.ID == id
	})
}

// Installments

func (s *Store) CreateInstallments(_ context.Context, list []core.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range list {
		if s.expenseIndex(inst.HouseholdID, inst.ExpenseID) < 0 {
			return core.NotFound("expense", inst.ExpenseID)
		}
		if s.accountIndex(inst.HouseholdID, inst.AccountID) < 0 {
			return core.NotFound("account", inst.AccountID)
		}
	}
	s.installments = append(s.installments, list...)
	return nil
}

func (s *Store) GetInstallment(_ context.Context, householdID, id string) (core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.installments, func(inst core.Installment) bool {
		return inst.HouseholdID == householdID && inst.ID == id
	})
	if i < 0 {
		return core.Installment{}, core.NotFound("installment", id)
	}
	return s.installments[i], nil
}

func (s *Store) ListInstallmentsByExpense(_ context.Context, householdID, expenseID string) ([]core.Installment, error) {
	return s.installmentsWhere(func(inst core.Installment) bool {
		return inst.HouseholdID == householdID && inst.ExpenseID == expenseID
	}), nil
}

func (s *Store) ListInstallmentsDue(_ context.Context, householdID string, from, to core.Date) ([]core.Installment, error) {
	return s.installmentsWhere(func(inst core.Installment) bool {
		return inst.HouseholdID == householdID && inst.DueDate.Within(from, to)
	}), nil
}

func (s *Store) ListInstallmentsByAccount(_ context.Context, householdID, accountID string) ([]core.Installment, error) {
	return s.installmentsWhere(func(inst core.Installment) bool {
		return inst.HouseholdID == householdID && inst.AccountID == accountID
	}), nil
}

func (s *Store) ListInstallmentsByCard(_ context.Context, householdID, cardID string, from, to core.Date) ([]core.Installment, error) {
	return s.installmentsWhere(func(inst core.Installment) bool {
		return inst.HouseholdID == householdID && inst.CardID == cardID && inst.DueDate.Within(from, to)
	}), nil
}

// installmentsWhere returns matches ordered by due date, then parcel.
func (s *Store) installmentsWhere(keep func(core.Installment) bool) []core.Installment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := filter(s.installments, keep)
	slices.SortStableFunc(out, func(a, b core.Installment) int {
		if c := a.DueDate.Compare(b.DueDate.Time); c != 0 {
			return c
		}
		return a.Parcel - b.Parcel
	})
	return out
}

func (s *Store) MarkInstallmentsPaid(_ context.Context, householdID string, ids []string, paidOn core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := set(ids)
	found := 0
	for _, inst := range s.installments {
		if inst.HouseholdID == householdID && want[inst.ID] {
			found++
		}
	}
	if found != len(want) {
		return core.NotFound("installment", strings.Join(ids, ","))
	}
	for i := range s.installments {
		if s.installments[i].HouseholdID == householdID && want[s.installments[i].ID] {
			s.installments[i].Status = core.StatusPaid
			s.installments[i].PaidDate = paidOn
		}
	}
	return nil
}

// Incomes

func (s *Store) CreateIncome(_ context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountIndex(in.HouseholdID, in.AccountID) < 0 {
		return core.NotFound("account", in.AccountID)
	}
	s.incomes = append(s.incomes, in)
	return nil
}

func (s *Store) GetIncome(_ context.Context, householdID, id string) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.incomeIndex(householdID, id)
	if i < 0 {
		return core.Income{}, core.NotFound("income", id)
	}
	return s.incomes[i], nil
}

func (s *Store) DeleteIncome(_ context.Context, householdID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.incomeIndex(householdID, id)
	if i < 0 {
		return core.NotFound("income", id)
	}
	s.incomes = slices.Delete(s.incomes, i, i+1)
	return nil
}

func (s *Store) ListIncomes(_ context.Context, householdID string, from, to core.Date) ([]core.Income, error) {
	return s.incomesWhere(func(in core.Income) bool {
		return in.HouseholdID == householdID && in.Date.Within(from, to)
	}), nil
}

func (s *Store) ListIncomesByAccount(_ context.Context, householdID, accountID string) ([]core.Income, error) {
	return s.incomesWhere(func(in core.Income) bool {
		return in.HouseholdID == householdID && in.AccountID == accountID
	}), nil
}

func (s *Store) incomesWhere(keep func(core.Income) bool) []core.Income {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := filter(s.incomes, keep)
	slices.SortStableFunc(out, func(a, b core.Income) int { return a.Date.Compare(b.Date.Time) })
	return out
}

func (s *Store) incomeIndex(householdID, id string) int {
	return slices.IndexFunc(s.incomes, func(in core.Income) bool {
		return in.HouseholdID == householdID && in.ID == id
	})
}

// Fixed expenses

func (s *Store) ListFixedExpenses(_ context.Context, householdID string) ([]core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := filter(s.fixed, func(fe core.FixedExpense) bool { return fe.HouseholdID == householdID })
	slices.SortStableFunc(out, func(a, b core.FixedExpense) int { return a.DueDay - b.DueDay })
	return out, nil
}

func (s *Store) GetFixedExpense(_ context.Context, householdID, id string) (core.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fixedIndex(householdID, id)
	if i < 0 {
		return core.FixedExpense{}, core.NotFound("fixed expense", id)
	}
	return s.fixed[i], nil
}

func (s *Store) CreateFixedExpense(_ context.Context, fe core.FixedExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed = append(s.fixed, fe)
	return nil
}

func (s *Store) SetFixedExpenseActive(_ context.Context, householdID, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fixedIndex(householdID, id)
	if i < 0 {
		return core.NotFound("fixed expense", id)
	}
	s.fixed[i].Active = active
	return nil
}

func (s *Store) DeleteFixedExpense(_ context.Context, householdID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fixedIndex(householdID, id)
	if i < 0 {
		return core.NotFound("fixed expense", id)
	}
	s.fixed = slices.Delete(s.fixed, i, i+1)
	for j := range s.expenses {
		if s.expenses[j].HouseholdID == householdID && s.expenses[j].FixedExpenseID == id {
			s.expenses[j].FixedExpenseID = ""
		}
	}
	return nil
}

func (s *Store) fixedIndex(householdID, id string) int {
	return slices.IndexFunc(s.fixed, func(fe core.FixedExpense) bool {
		return fe.HouseholdID == householdID && fe.ID == id
	})
}

// filter copies the matching elements into a fresh, non-nil slice.
func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func set(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
