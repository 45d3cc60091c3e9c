package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func MustInsertOrder(t *testing.T, db *pgxpool.Pool, orderID, customerID, status string) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO orders (order_id, customer_id, status, items, total_amount)
		VALUES ($1, $2, $3, '[]'::jsonb, 0)
	`, orderID, customerID, status)

	require.NoError(t, err)
}

func MustInsertExpense(t *testing.T, db *pgxpool.Pool, expenseID, category string, linkedID *string) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO expenses (expense_id, category, amount, date, paid_to, linked_id, created_by)
		VALUES ($1, $2, 100.00, $3, 'SUP-0001', $4, 'EMP-0001')
	`, expenseID, category, time.Now().UTC(), linkedID)

	require.NoError(t, err)
}

func MustInsertDelivery(t *testing.T, db *pgxpool.Pool, deliveryID, orderID, status string) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO deliveries (delivery_id, order_id, delivery_date, status)
		VALUES ($1, $2, $3, $4)
	`, deliveryID, orderID, time.Now().UTC(), status)

	require.NoError(t, err)
}
