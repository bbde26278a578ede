// Package storage implements the ledger store on SQL databases. SQLite and
// PostgreSQL share one schema layout and one set of queries; only
// placeholders and migrations differ.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"saldo/internal/core"
	"saldo/internal/store"
)

// Dialect selects the SQL flavour of a repository.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

// SQLRepository is the database-backed store.Store.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var (
	_ store.Store          = (*SQLRepository)(nil)
	_ store.ScheduleWriter = (*SQLRepository)(nil)
)

// NewSQLiteRepository opens (creating if needed) the database file at
// dbPath with foreign keys enforced, and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(DialectSQLite, sqliteDSN(dbPath))
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open connects to dsn, runs the migrations and returns the repository.
func Open(d Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}
	if d == DialectSQLite {
		// One writer at a time; also keeps the pragmas on a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("Database ready", "dialect", d)
	return &SQLRepository{db: db, dialect: d}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (r *SQLRepository) exec(ctx context.Context, q queryer, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLRepository) exists(ctx context.Context, q queryer, table, householdID, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		r.rebind("SELECT COUNT(*) FROM "+table+" WHERE household_id = ? AND id = ?"),
		householdID, id).Scan(&n)
	return n > 0, err
}

// requireParent reports a NotFound when a referenced record is missing
// from the household.
func (r *SQLRepository) requireParent(ctx context.Context, q queryer, table, entity, householdID, id string) error {
	if id == "" {
		return nil
	}
	ok, err := r.exists(ctx, q, table, householdID, id)
	if err != nil {
		return fmt.Errorf("check %s: %w", entity, err)
	}
	if !ok {
		return core.NotFound(entity, id)
	}
	return nil
}

func (r *SQLRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(prefix []any, ids []string) []any {
	args := make([]any, 0, len(prefix)+len(ids))
	args = append(args, prefix...)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

// Accounts

const accountCols = "id, household_id, name, opening_balance_cents, created_by, created_at"

func scanAccount(sc interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	err := sc.Scan(&a.ID, &a.HouseholdID, &a.Name, &a.OpeningBalance.Cents, &a.CreatedBy, dbTime{&a.CreatedAt})
	return a, err
}

func (r *SQLRepository) ListAccounts(ctx context.Context, householdID string) ([]core.Account, error) {
	return queryAll(ctx, r, scanAccount,
		"SELECT "+accountCols+" FROM accounts WHERE household_id = ? ORDER BY created_at, id", householdID)
}

func (r *SQLRepository) GetAccount(ctx context.Context, householdID, id string) (core.Account, error) {
	return queryOne(ctx, r, scanAccount, "account", id,
		"SELECT "+accountCols+" FROM accounts WHERE household_id = ? AND id = ?", householdID, id)
}

func (r *SQLRepository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.exec(ctx, r.db,
		"INSERT INTO accounts ("+accountCols+") VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.HouseholdID, a.Name, a.OpeningBalance.Cents, a.CreatedBy, dbTime{&a.CreatedAt})
	return err
}

func (r *SQLRepository) DeleteAccount(ctx context.Context, householdID, id string, cascade bool) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := r.exists(ctx, tx, "accounts", householdID, id)
		if err != nil {
			return fmt.Errorf("check account: %w", err)
		}
		if !ok {
			return core.NotFound("account", id)
		}

		if cascade {
			// Whole purchases go: any expense paid from the account, through
			// one of its cards, or with a parcel debited from it.
			steps := []string{
				`DELETE FROM expenses WHERE household_id = ? AND (
					account_id = ?
					OR card_id IN (SELECT id FROM credit_cards WHERE account_id = ?)
					OR id IN (SELECT expense_id FROM installments WHERE account_id = ?))`,
				"DELETE FROM incomes WHERE household_id = ? AND account_id = ?",
				"DELETE FROM credit_cards WHERE household_id = ? AND account_id = ?",
			}
			if _, err := r.exec(ctx, tx, steps[0], householdID, id, id, id); err != nil {
				return fmt.Errorf("delete account expenses: %w", err)
			}
			for _, q := range steps[1:] {
				if _, err := r.exec(ctx, tx, q, householdID, id); err != nil {
					return fmt.Errorf("delete account history: %w", err)
				}
			}
		}

		if _, err := r.exec(ctx, tx, "DELETE FROM accounts WHERE household_id = ? AND id = ?", householdID, id); err != nil {
			return mapDeleteError(err, "account", id)
		}
		return nil
	})
}

// Cards

const cardCols = "id, household_id, account_id, name, limit_cents, closing_day, due_day, created_by, created_at"

func scanCard(sc interface{ Scan(...any) error }) (core.CreditCard, error) {
	var c core.CreditCard
	err := sc.Scan(&c.ID, &c.HouseholdID, &c.AccountID, &c.Name, &c.Limit.Cents,
		&c.ClosingDay, &c.DueDay, &c.CreatedBy, dbTime{&c.CreatedAt})
	return c, err
}

func (r *SQLRepository) ListCards(ctx context.Context, householdID string) ([]core.CreditCard, error) {
	return queryAll(ctx, r, scanCard,
		"SELECT "+cardCols+" FROM credit_cards WHERE household_id = ? ORDER BY created_at, id", householdID)
}

func (r *SQLRepository) GetCard(ctx context.Context, householdID, id string) (core.CreditCard, error) {
	return queryOne(ctx, r, scanCard, "card", id,
		"SELECT "+cardCols+" FROM credit_cards WHERE household_id = ? AND id = ?", householdID, id)
}

func (r *SQLRepository) CreateCard(ctx context.Context, c core.CreditCard) error {
	if err := r.requireParent(ctx, r.db, "accounts", "account", c.HouseholdID, c.AccountID); err != nil {
		return err
	}
	_, err := r.exec(ctx, r.db,
		"INSERT INTO credit_cards ("+cardCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.HouseholdID, c.AccountID, c.Name, c.Limit.Cents, c.ClosingDay, c.DueDay, c.CreatedBy, dbTime{&c.CreatedAt})
	return err
}

func (r *SQLRepository) DeleteCard(ctx context.Context, householdID, id string) error {
	return r.deleteRow(ctx, "credit_cards", "card", householdID, id)
}

// deleteRow removes one record, reporting NotFound when nothing matched and
// a conflict when the database refuses because of references.
func (r *SQLRepository) deleteRow(ctx context.Context, table, entity, householdID, id string) error {
	n, err := r.exec(ctx, r.db, "DELETE FROM "+table+" WHERE household_id = ? AND id = ?", householdID, id)
	if err != nil {
		return mapDeleteError(err, entity, id)
	}
	if n == 0 {
		return core.NotFound(entity, id)
	}
	return nil
}

// Categories

const categoryCols = "id, household_id, name, kind, slug, created_by"

func scanCategory(sc interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := sc.Scan(&c.ID, &c.HouseholdID, &c.Name, &c.Kind, &c.Slug, &c.CreatedBy)
	return c, err
}

func (r *SQLRepository) ListCategories(ctx context.Context, householdID string) ([]core.Category, error) {
	return queryAll(ctx, r, scanCategory,
		"SELECT "+categoryCols+" FROM categories WHERE household_id = ? ORDER BY name, id", householdID)
}

func (r *SQLRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.exec(ctx, r.db,
		"INSERT INTO categories ("+categoryCols+") VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.HouseholdID, c.Name, c.Kind, c.Slug, c.CreatedBy)
	return err
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, householdID, id string) error {
	return r.deleteRow(ctx, "categories", "category", householdID, id)
}

// Expenses

const expenseCols = "id, household_id, category_id, description, total_cents, purchase_date, first_payment_date, " +
	"installment_count, payment_method, account_id, card_id, fixed_expense_id, created_by, created_at"

func scanExpense(sc interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e                          core.Expense
		category, acc, card, fixed sql.NullString
	)
	err := sc.Scan(&e.ID, &e.HouseholdID, &category, &e.Description, &e.Total.Cents,
		dbDate{&e.PurchaseDate}, dbDate{&e.FirstPaymentDate}, &e.InstallmentCount, &e.Method,
		&acc, &card, &fixed, &e.CreatedBy, dbTime{&e.CreatedAt})
	e.CategoryID, e.AccountID, e.CardID, e.FixedExpenseID = category.String, acc.String, card.String, fixed.String
	return e, err
}

func (r *SQLRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	return r.insertExpense(ctx, r.db, e)
}

// CreateExpenseWithInstallments writes the purchase and its schedule in one
// transaction.
func (r *SQLRepository) CreateExpenseWithInstallments(ctx context.Context, e core.Expense, list []core.Installment) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.insertExpense(ctx, tx, e); err != nil {
			return err
		}
		return r.insertInstallments(ctx, tx, list)
	})
}

func (r *SQLRepository) insertExpense(ctx context.Context, q queryer, e core.Expense) error {
	if err := r.requireParent(ctx, q, "accounts", "account", e.HouseholdID, e.AccountID); err != nil {
		return err
	}
	if err := r.requireParent(ctx, q, "credit_cards", "card", e.HouseholdID, e.CardID); err != nil {
		return err
	}
	_, err := r.exec(ctx, q,
		"INSERT INTO expenses ("+expenseCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.HouseholdID, nullString(e.CategoryID), e.Description, e.Total.Cents,
		dbDate{&e.PurchaseDate}, dbDate{&e.FirstPaymentDate}, e.InstallmentCount, e.Method,
		nullString(e.AccountID), nullString(e.CardID), nullString(e.FixedExpenseID), e.CreatedBy, dbTime{&e.CreatedAt})
	return err
}

func (r *SQLRepository) GetExpense(ctx context.Context, householdID, id string) (core.Expense, error) {
	return queryOne(ctx, r, scanExpense, "expense", id,
		"SELECT "+expenseCols+" FROM expenses WHERE household_id = ? AND id = ?", householdID, id)
}

func (r *SQLRepository) ListExpensesByIDs(ctx context.Context, householdID string, ids []string) ([]core.Expense, error) {
	if len(ids) == 0 {
		return []core.Expense{}, nil
	}
	return queryAll(ctx, r, scanExpense,
		"SELECT "+expenseCols+" FROM expenses WHERE household_id = ? AND id IN ("+placeholders(len(ids))+") ORDER BY created_at, id",
		stringArgs([]any{householdID}, ids)...)
}

func (r *SQLRepository) ListFixedPayments(ctx context.Context, householdID, fixedExpenseID string, from, to core.Date) ([]core.Expense, error) {
	q := "SELECT " + expenseCols + " FROM expenses WHERE household_id = ? AND fixed_expense_id IS NOT NULL" +
		" AND purchase_date BETWEEN ? AND ?"
	args := []any{householdID, dbDate{&from}, dbDate{&to}}
	if fixedExpenseID != "" {
		q += " AND fixed_expense_id = ?"
		args = append(args, fixedExpenseID)
	}
	return queryAll(ctx, r, scanExpense, q+" ORDER BY purchase_date, id", args...)
}

// DeleteExpense relies on ON DELETE CASCADE for the installments.
func (r *SQLRepository) DeleteExpense(ctx context.Context, householdID, id string) error {
	return r.deleteRow(ctx, "expenses", "expense", householdID, id)
}

// Installments

const installmentCols = "id, household_id, expense_id, account_id, card_id, parcel, amount_cents, due_date, status, paid_date"

func scanInstallment(sc interface{ Scan(...any) error }) (core.Installment, error) {
	var (
		i    core.Installment
		card sql.NullString
	)
	err := sc.Scan(&i.ID, &i.HouseholdID, &i.ExpenseID, &i.AccountID, &card, &i.Parcel,
		&i.Amount.Cents, dbDate{&i.DueDate}, &i.Status, dbDate{&i.PaidDate})
	i.CardID = card.String
	return i, err
}

func (r *SQLRepository) CreateInstallments(ctx context.Context, list []core.Installment) error {
	if len(list) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return r.insertInstallments(ctx, tx, list)
	})
}

func (r *SQLRepository) insertInstallments(ctx context.Context, tx *sql.Tx, list []core.Installment) error {
	if len(list) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, r.rebind(
		"INSERT INTO installments ("+installmentCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("prepare installment insert: %w", err)
	}
	defer stmt.Close()

	checked := map[string]bool{}
	for _, inst := range list {
		if !checked["exp:"+inst.ExpenseID] {
			if err := r.requireParent(ctx, tx, "expenses", "expense", inst.HouseholdID, inst.ExpenseID); err != nil {
				return err
			}
			checked["exp:"+inst.ExpenseID] = true
		}
		if !checked["acc:"+inst.AccountID] {
			if err := r.requireParent(ctx, tx, "accounts", "account", inst.HouseholdID, inst.AccountID); err != nil {
				return err
			}
			checked["acc:"+inst.AccountID] = true
		}
		if _, err := stmt.ExecContext(ctx,
			inst.ID, inst.HouseholdID, inst.ExpenseID, inst.AccountID, nullString(inst.CardID),
			inst.Parcel, inst.Amount.Cents, dbDate{&inst.DueDate}, inst.Status, dbDate{&inst.PaidDate}); err != nil {
			return fmt.Errorf("insert installment %d: %w", inst.Parcel, err)
		}
	}
	return nil
}

func (r *SQLRepository) GetInstallment(ctx context.Context, householdID, id string) (core.Installment, error) {
	return queryOne(ctx, r, scanInstallment, "installment", id,
		"SELECT "+installmentCols+" FROM installments WHERE household_id = ? AND id = ?", householdID, id)
}

const installmentOrder = " ORDER BY due_date, parcel, id"

func (r *SQLRepository) ListInstallmentsByExpense(ctx context.Context, householdID, expenseID string) ([]core.Installment, error) {
	return queryAll(ctx, r, scanInstallment,
		"SELECT "+installmentCols+" FROM installments WHERE household_id = ? AND expense_id = ?"+installmentOrder,
		householdID, expenseID)
}

func (r *SQLRepository) ListInstallmentsDue(ctx context.Context, householdID string, from, to core.Date) ([]core.Installment, error) {
	return queryAll(ctx, r, scanInstallment,
		"SELECT "+installmentCols+" FROM installments WHERE household_id = ? AND due_date BETWEEN ? AND ?"+installmentOrder,
		householdID, dbDate{&from}, dbDate{&to})
}

func (r *SQLRepository) ListInstallmentsByAccount(ctx context.Context, householdID, accountID string) ([]core.Installment, error) {
	return queryAll(ctx, r, scanInstallment,
		"SELECT "+installmentCols+" FROM installments WHERE household_id = ? AND account_id = ?"+installmentOrder,
		householdID, accountID)
}

func (r *SQLRepository) ListInstallmentsByCard(ctx context.Context, householdID, cardID string, from, to core.Date) ([]core.Installment, error) {
	return queryAll(ctx, r, scanInstallment,
		"SELECT "+installmentCols+" FROM installments WHERE household_id = ? AND card_id = ? AND due_date BETWEEN ? AND ?"+installmentOrder,
		householdID, cardID, dbDate{&from}, dbDate{&to})
}

func (r *SQLRepository) MarkInstallmentsPaid(ctx context.Context, householdID string, ids []string, paidOn core.Date) error {
	if len(ids) == 0 {
		return nil
	}
	unique := make(map[string]bool, len(ids))
	for _, id := range ids {
		unique[id] = true
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		n, err := r.exec(ctx, tx,
			"UPDATE installments SET status = ?, paid_date = ? WHERE household_id = ? AND id IN ("+placeholders(len(ids))+")",
			stringArgs([]any{core.StatusPaid, dbDate{&paidOn}, householdID}, ids)...)
		if err != nil {
			return fmt.Errorf("mark installments paid: %w", err)
		}
		if int(n) != len(unique) {
			return core.NotFound("installment", strings.Join(ids, ","))
		}
		return nil
	})
}

// Incomes

const incomeCols = "id, household_id, account_id, category_id, amount_cents, description, income_date, received, created_by, created_at"

func scanIncome(sc interface{ Scan(...any) error }) (core.Income, error) {
	var (
		in       core.Income
		category sql.NullString
	)
	err := sc.Scan(&in.ID, &in.HouseholdID, &in.AccountID, &category, &in.Amount.Cents,
		&in.Description, dbDate{&in.Date}, &in.Received, &in.CreatedBy, dbTime{&in.CreatedAt})
	in.CategoryID = category.String
	return in, err
}

func (r *SQLRepository) CreateIncome(ctx context.Context, in core.Income) error {
	if err := r.requireParent(ctx, r.db, "accounts", "account", in.HouseholdID, in.AccountID); err != nil {
		return err
	}
	_, err := r.exec(ctx, r.db,
		"INSERT INTO incomes ("+incomeCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		in.ID, in.HouseholdID, in.AccountID, nullString(in.CategoryID), in.Amount.Cents,
		in.Description, dbDate{&in.Date}, in.Received, in.CreatedBy, dbTime{&in.CreatedAt})
	return err
}

func (r *SQLRepository) GetIncome(ctx context.Context, householdID, id string) (core.Income, error) {
	return queryOne(ctx, r, scanIncome, "income", id,
		"SELECT "+incomeCols+" FROM incomes WHERE household_id = ? AND id = ?", householdID, id)
}

func (r *SQLRepository) DeleteIncome(ctx context.Context, householdID, id string) error {
	return r.deleteRow(ctx, "incomes", "income", householdID, id)
}

func (r *SQLRepository) ListIncomes(ctx context.Context, householdID string, from, to core.Date) ([]core.Income, error) {
	return queryAll(ctx, r, scanIncome,
		"SELECT "+incomeCols+" FROM incomes WHERE household_id = ? AND income_date BETWEEN ? AND ? ORDER BY income_date, created_at, id",
		householdID, dbDate{&from}, dbDate{&to})
}

func (r *SQLRepository) ListIncomesByAccount(ctx context.Context, householdID, accountID string) ([]core.Income, error) {
	return queryAll(ctx, r, scanIncome,
		"SELECT "+incomeCols+" FROM incomes WHERE household_id = ? AND account_id = ? ORDER BY income_date, created_at, id",
		householdID, accountID)
}

// Fixed expenses

const fixedCols = "id, household_id, category_id, description, amount_cents, due_day, start_date, duration_months, active, created_by, created_at"

func scanFixed(sc interface{ Scan(...any) error }) (core.FixedExpense, error) {
	var (
		fe       core.FixedExpense
		category sql.NullString
		duration sql.NullInt64
	)
	err := sc.Scan(&fe.ID, &fe.HouseholdID, &category, &fe.Description, &fe.Amount.Cents,
		&fe.DueDay, dbDate{&fe.StartDate}, &duration, &fe.Active, &fe.CreatedBy, dbTime{&fe.CreatedAt})
	fe.CategoryID = category.String
	fe.DurationMonths = intPtr(duration)
	return fe, err
}

func (r *SQLRepository) ListFixedExpenses(ctx context.Context, householdID string) ([]core.FixedExpense, error) {
	return queryAll(ctx, r, scanFixed,
		"SELECT "+fixedCols+" FROM fixed_expenses WHERE household_id = ? ORDER BY due_day, created_at, id", householdID)
}

func (r *SQLRepository) GetFixedExpense(ctx context.Context, householdID, id string) (core.FixedExpense, error) {
	return queryOne(ctx, r, scanFixed, "fixed expense", id,
		"SELECT "+fixedCols+" FROM fixed_expenses WHERE household_id = ? AND id = ?", householdID, id)
}

func (r *SQLRepository) CreateFixedExpense(ctx context.Context, fe core.FixedExpense) error {
	_, err := r.exec(ctx, r.db,
		"INSERT INTO fixed_expenses ("+fixedCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		fe.ID, fe.HouseholdID, nullString(fe.CategoryID), fe.Description, fe.Amount.Cents,
		fe.DueDay, dbDate{&fe.StartDate}, nullInt(fe.DurationMonths), fe.Active, fe.CreatedBy, dbTime{&fe.CreatedAt})
	return err
}

func (r *SQLRepository) SetFixedExpenseActive(ctx context.Context, householdID, id string, active bool) error {
	n, err := r.exec(ctx, r.db,
		"UPDATE fixed_expenses SET active = ? WHERE household_id = ? AND id = ?", active, householdID, id)
	if err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	if n == 0 {
		return core.NotFound("fixed expense", id)
	}
	return nil
}

// DeleteFixedExpense relies on ON DELETE SET NULL to detach payments.
func (r *SQLRepository) DeleteFixedExpense(ctx context.Context, householdID, id string) error {
	return r.deleteRow(ctx, "fixed_expenses", "fixed expense", householdID, id)
}

// Generic row helpers.

func queryAll[T any](ctx context.Context, r *SQLRepository, scan func(interface{ Scan(...any) error }) (T, error), query string, args ...any) ([]T, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func queryOne[T any](ctx context.Context, r *SQLRepository, scan func(interface{ Scan(...any) error }) (T, error), entity, id, query string, args ...any) (T, error) {
	v, err := scan(r.db.QueryRowContext(ctx, r.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, core.NotFound(entity, id)
	}
	return v, err
}
