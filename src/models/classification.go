package models

import (
	"context"
	"database/sql"
)

// ClassifiedTransaction is a classification record joined with its linked
// transaction. The join is a LEFT JOIN: classification rows can outlive their
// transaction, in which case TransactionID is invalid and the record carries
// no amount or date.
type ClassifiedTransaction struct {
	ID            string
	UserID        string
	Category      string
	IsIncome      bool
	TransactionID sql.NullString
	Amount        sql.NullFloat64
	Date          sql.NullTime
}

// Linked reports whether the classification still points at an existing transaction.
func (c *ClassifiedTransaction) Linked() bool {
	return c.TransactionID.Valid
}

// GetClassifiedTransactions returns every classification record for the user
// with the linked transaction's amount and date. No date filter is applied
// here; windowing is done by the caller.
func GetClassifiedTransactions(ctx context.Context, db *sql.DB, userID string) ([]ClassifiedTransaction, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT tc.id, tc.user_id, tc.category, tc.is_income, t.id, t.amount, t.date
	FROM transaction_classifications tc
	LEFT JOIN transactions t ON t.id = tc.transaction_id
	WHERE tc.user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ClassifiedTransaction
	for rows.Next() {
		var c ClassifiedTransaction
		if err := rows.Scan(&c.ID, &c.UserID, &c.Category, &c.IsIncome, &c.TransactionID, &c.Amount, &c.Date); err != nil {
			return nil, err
		}
		records = append(records, c)
	}
	return records, rows.Err()
}
