package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"saldo/internal/amqp"
	"saldo/internal/core"
)

// balanceFanOut bounds concurrent per-account balance reads.
const balanceFanOut = 4

type (
	AccountBalanceView struct {
		AccountID string     `json:"account_id"`
		Name      string     `json:"name"`
		Balance   core.Money `json:"balance"`
	}

	HouseholdBalance struct {
		Total    core.Money           `json:"total"`
		Accounts []AccountBalanceView `json:"accounts"`
	}

	CardLimit struct {
		CardID      string     `json:"card_id"`
		Limit       core.Money `json:"limit"`
		Used        core.Money `json:"used"`
		Available   core.Money `json:"available"`
		WindowStart core.Date  `json:"window_start"`
		WindowEnd   core.Date  `json:"window_end"`
	}
)

func (l *Ledger) ListAccounts(ctx context.Context, scope core.Scope) ([]core.Account, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	accounts, err := l.store.ListAccounts(ctx, scope.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// ListAccountsWithCards returns accounts in creation order with their cards.
func (l *Ledger) ListAccountsWithCards(ctx context.Context, scope core.Scope) ([]core.Account, error) {
	accounts, err := l.ListAccounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	cards, err := l.store.ListCards(ctx, scope.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	byAccount := make(map[string][]core.CreditCard)
	for _, c := range cards {
		byAccount[c.AccountID] = append(byAccount[c.AccountID], c)
	}
	for i := range accounts {
		accounts[i].Cards = byAccount[accounts[i].ID]
	}
	return accounts, nil
}

func (l *Ledger) CreateAccount(ctx context.Context, scope core.Scope, name string, opening core.Money) (core.Account, error) {
	if err := checkScope(scope); err != nil {
		return core.Account{}, err
	}
	a := core.Account{
		ID:             l.newID(),
		HouseholdID:    scope.HouseholdID,
		Name:           strings.TrimSpace(name),
		OpeningBalance: opening,
		CreatedBy:      scope.UserID,
		CreatedAt:      l.now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := l.store.CreateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created", "id", a.ID, "opening_cents", a.OpeningBalance.Cents)
	return a, nil
}

// DeleteAccount applies the configured delete policy: restrict refuses to
// delete an account with history, cascade removes the history with it and
// announces every removed purchase and income.
func (l *Ledger) DeleteAccount(ctx context.Context, scope core.Scope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	cascade := l.policy == PolicyCascade

	var expenseIDs, incomeIDs []string
	if cascade {
		var err error
		if expenseIDs, incomeIDs, err = l.accountHistory(ctx, scope, id); err != nil {
			return err
		}
	}
	if err := l.store.DeleteAccount(ctx, scope.HouseholdID, id, cascade); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	for _, eid := range expenseIDs {
		l.publish(ctx, amqp.ExpenseDeleted, scope, eid)
	}
	for _, iid := range incomeIDs {
		l.publish(ctx, amqp.IncomeDeleted, scope, iid)
	}

	slog.InfoContext(ctx, "Account deleted",
		"id", id,
		"policy", l.policy,
		"expenses", len(expenseIDs),
		"incomes", len(incomeIDs))
	return nil
}

// accountHistory lists the purchases and incomes a cascade delete of the
// account removes. Card purchases carry the card's account on their
// installments, so they are found the same way.
func (l *Ledger) accountHistory(ctx context.Context, scope core.Scope, accountID string) (expenseIDs, incomeIDs []string, err error) {
	installments, err := l.store.ListInstallmentsByAccount(ctx, scope.HouseholdID, accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("list installments: %w", err)
	}
	seen := make(map[string]bool)
	for _, inst := range installments {
		if !seen[inst.ExpenseID] {
			seen[inst.ExpenseID] = true
			expenseIDs = append(expenseIDs, inst.ExpenseID)
		}
	}
	incomes, err := l.store.ListIncomesByAccount(ctx, scope.HouseholdID, accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("list incomes: %w", err)
	}
	for _, inc := range incomes {
		incomeIDs = append(incomeIDs, inc.ID)
	}
	return expenseIDs, incomeIDs, nil
}

func (l *Ledger) CreateCard(ctx context.Context, scope core.Scope, accountID, name string, limit core.Money, closingDay, dueDay int) (core.CreditCard, error) {
	if err := checkScope(scope); err != nil {
		return core.CreditCard{}, err
	}
	c := core.CreditCard{
		ID:          l.newID(),
		HouseholdID: scope.HouseholdID,
		AccountID:   accountID,
		Name:        strings.TrimSpace(name),
		Limit:       limit,
		ClosingDay:  closingDay,
		DueDay:      dueDay,
		CreatedBy:   scope.UserID,
		CreatedAt:   l.now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	if _, err := l.store.GetAccount(ctx, scope.HouseholdID, accountID); err != nil {
		return core.CreditCard{}, fmt.Errorf("resolve account: %w", err)
	}
	if err := l.store.CreateCard(ctx, c); err != nil {
		return core.CreditCard{}, fmt.Errorf("create card: %w", err)
	}
	return c, nil
}

func (l *Ledger) DeleteCard(ctx context.Context, scope core.Scope, id string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := l.store.DeleteCard(ctx, scope.HouseholdID, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

// GetAccountBalance recomputes the balance from the store on every call.
func (l *Ledger) GetAccountBalance(ctx context.Context, scope core.Scope, accountID string) (AccountBalanceView, error) {
	if err := checkScope(scope); err != nil {
		return AccountBalanceView{}, err
	}
	acc, err := l.store.GetAccount(ctx, scope.HouseholdID, accountID)
	if err != nil {
		return AccountBalanceView{}, fmt.Errorf("get account: %w", err)
	}
	return l.balanceOf(ctx, scope, acc)
}

func (l *Ledger) balanceOf(ctx context.Context, scope core.Scope, acc core.Account) (AccountBalanceView, error) {
	var (
		incomes      []core.Income
		installments []core.Installment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = l.store.ListIncomesByAccount(gctx, scope.HouseholdID, acc.ID)
		if err != nil {
			return fmt.Errorf("list incomes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		installments, err = l.store.ListInstallmentsByAccount(gctx, scope.HouseholdID, acc.ID)
		if err != nil {
			return fmt.Errorf("list installments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return AccountBalanceView{}, err
	}

	return AccountBalanceView{
		AccountID: acc.ID,
		Name:      acc.Name,
		Balance:   AccountBalance(acc, incomes, installments),
	}, nil
}

// GetHouseholdBalance sums the balances of every account in scope.
func (l *Ledger) GetHouseholdBalance(ctx context.Context, scope core.Scope) (HouseholdBalance, error) {
	accounts, err := l.ListAccounts(ctx, scope)
	if err != nil {
		return HouseholdBalance{}, err
	}

	views := make([]AccountBalanceView, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceFanOut)
	for i, acc := range accounts {
		i, acc := i, acc
		g.Go(func() error {
			v, err := l.balanceOf(gctx, scope, acc)
			if err != nil {
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return HouseholdBalance{}, err
	}

	out := HouseholdBalance{Accounts: views}
	for _, v := range views {
		out.Total = out.Total.Add(v.Balance)
	}
	return out, nil
}

// GetCardAvailableLimit evaluates the open billing window as of today.
func (l *Ledger) GetCardAvailableLimit(ctx context.Context, scope core.Scope, cardID string) (CardLimit, error) {
	if err := checkScope(scope); err != nil {
		return CardLimit{}, err
	}
	card, err := l.store.GetCard(ctx, scope.HouseholdID, cardID)
	if err != nil {
		return CardLimit{}, fmt.Errorf("get card: %w", err)
	}

	asOf := l.today()
	start, end := BillingWindow(card.ClosingDay, asOf)
	installments, err := l.store.ListInstallmentsByCard(ctx, scope.HouseholdID, card.ID, start, end)
	if err != nil {
		return CardLimit{}, fmt.Errorf("list card installments: %w", err)
	}

	avail := CardAvailableLimit(card, installments, asOf)
	return CardLimit{
		CardID:      card.ID,
		Limit:       card.Limit,
		Used:        card.Limit.Sub(avail),
		Available:   avail,
		WindowStart: start,
		WindowEnd:   end,
	}, nil
}

// GetCardInvoice lists the card's installments due in month's calendar
// month, oldest first.
func (l *Ledger) GetCardInvoice(ctx context.Context, scope core.Scope, cardID string, month core.Date) (core.CardInvoice, error) {
	if err := checkScope(scope); err != nil {
		return core.CardInvoice{}, err
	}
	if month.IsEmpty() {
		month = l.today()
	}
	card, err := l.store.GetCard(ctx, scope.HouseholdID, cardID)
	if err != nil {
		return core.CardInvoice{}, fmt.Errorf("get card: %w", err)
	}

	start, end := monthRange(month)
	installments, err := l.store.ListInstallmentsByCard(ctx, scope.HouseholdID, card.ID, start, end)
	if err != nil {
		return core.CardInvoice{}, fmt.Errorf("list card installments: %w", err)
	}
	expenses, err := l.expenseIndex(ctx, scope, installments)
	if err != nil {
		return core.CardInvoice{}, err
	}
	cats, err := l.categoryIndex(ctx, scope)
	if err != nil {
		return core.CardInvoice{}, err
	}

	inv := core.CardInvoice{Card: card, Month: start, Items: make([]core.InvoiceItem, 0, len(installments))}
	for _, inst := range installments {
		exp := expenses[inst.ExpenseID]
		inv.Items = append(inv.Items, core.InvoiceItem{
			Installment:      inst,
			Description:      exp.Description,
			Category:         categoryRef(cats, exp.CategoryID),
			PurchaseDate:     exp.PurchaseDate,
			InstallmentCount: exp.InstallmentCount,
		})
		inv.Total = inv.Total.Add(inst.Amount)
	}
	slices.SortStableFunc(inv.Items, func(a, b core.InvoiceItem) int {
		return a.Installment.DueDate.Compare(b.Installment.DueDate.Time)
	})
	return inv, nil
}

// PayCardInvoice settles every pending installment of the invoice. The
// linked account is debited from then on.
func (l *Ledger) PayCardInvoice(ctx context.Context, scope core.Scope, cardID string, month, paidOn core.Date) (core.CardInvoice, error) {
	inv, err := l.GetCardInvoice(ctx, scope, cardID, month)
	if err != nil {
		return core.CardInvoice{}, err
	}
	if paidOn.IsEmpty() {
		paidOn = l.today()
	}

	var ids []string
	for _, it := range inv.Items {
		if it.Installment.Status == core.StatusPending {
			ids = append(ids, it.Installment.ID)
		}
	}
	if len(ids) == 0 {
		return inv, nil
	}

	if err := l.store.MarkInstallmentsPaid(ctx, scope.HouseholdID, ids, paidOn); err != nil {
		return core.CardInvoice{}, fmt.Errorf("pay invoice: %w", err)
	}
	l.publish(ctx, amqp.InstallmentsPaid, scope, cardID, ids...)

	slog.InfoContext(ctx, "Card invoice paid",
		"card_id", cardID,
		"month", inv.Month.MonthKey(),
		"installments", len(ids))
	return l.GetCardInvoice(ctx, scope, cardID, inv.Month)
}

func (l *Ledger) expenseIndex(ctx context.Context, scope core.Scope, installments []core.Installment) (map[string]core.Expense, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, inst := range installments {
		if !seen[inst.ExpenseID] {
			seen[inst.ExpenseID] = true
			ids = append(ids, inst.ExpenseID)
		}
	}
	idx := make(map[string]core.Expense, len(ids))
	if len(ids) == 0 {
		return idx, nil
	}
	expenses, err := l.store.ListExpensesByIDs(ctx, scope.HouseholdID, ids)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	for _, e := range expenses {
		idx[e.ID] = e
	}
	return idx, nil
}
