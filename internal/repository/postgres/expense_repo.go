package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	expuc "github.com/bayuh-ra/bbglo-backend/internal/usecase/expense"
)

const expenseColumns = `expense_id, category, amount::text, date, paid_to, linked_id, created_by`

// ExpenseRepo implements expense.Store. A partial unique index on
// (linked_id) WHERE category = 'Purchase Order' backs the duplicate
// detection.
type ExpenseRepo struct {
	db *pgxpool.Pool
}

func NewExpenseRepo(db *pgxpool.Pool) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

func (r *ExpenseRepo) FindByLinkedPO(ctx context.Context, poID string) (*expuc.Expense, error) {
	q := `SELECT ` + expenseColumns + ` FROM expenses WHERE linked_id = $1 AND category = $2`
	e, err := scanExpense(r.db.QueryRow(ctx, q, poID, expuc.CategoryPurchaseOrder))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *ExpenseRepo) Exists(ctx context.Context, expenseID string) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx, `SELECT 1 FROM expenses WHERE expense_id = $1`, expenseID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ExpenseRepo) Insert(ctx context.Context, e expuc.Expense) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO expenses (expense_id, category, amount, date, paid_to, linked_id, created_by)
VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)`,
		e.ExpenseID, e.Category, e.Amount.String(), e.Date, e.PaidTo, e.LinkedID, e.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return expuc.ErrDuplicate
		}
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepo) DeleteByLinkedPO(ctx context.Context, poID string) (int64, error) {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM expenses WHERE linked_id = $1 AND category = $2`,
		poID, expuc.CategoryPurchaseOrder)
	if err != nil {
		return 0, fmt.Errorf("delete linked expenses: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanExpense(row pgx.Row) (*expuc.Expense, error) {
	var (
		e         expuc.Expense
		amountStr string
	)
	err := row.Scan(&e.ExpenseID, &e.Category, &amountStr, &e.Date, &e.PaidTo, &e.LinkedID, &e.CreatedBy)
	if err != nil {
		return nil, err
	}
	if e.Amount, err = parseDecimal(amountStr); err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	return &e, nil
}
