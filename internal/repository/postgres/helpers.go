package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// numeric columns are selected ::text and parsed to avoid float drift.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
