package models

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// DailyFeature is one row of the per-day aggregates produced by the external
// batch analytics job. At most one row exists per (user, date).
type DailyFeature struct {
	ID               string
	UserID           string
	Date             time.Time
	TotalIncome      sql.NullFloat64
	TotalExpense     sql.NullFloat64
	NetAmount        sql.NullFloat64
	TransactionCount sql.NullInt64
	ClosingBalance   sql.NullFloat64
}

const dailyFeatureColumns = `id, user_id, date, total_income, total_expense, net_amount, transaction_count, closing_balance`

func scanDailyFeature(scanner interface{ Scan(...any) error }) (*DailyFeature, error) {
	var f DailyFeature
	err := scanner.Scan(
		&f.ID,
		&f.UserID,
		&f.Date,
		&f.TotalIncome,
		&f.TotalExpense,
		&f.NetAmount,
		&f.TransactionCount,
		&f.ClosingBalance,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetDailyFeatureByDate returns the aggregate row for exactly the given calendar
// day, or nil when no row exists for that day.
func GetDailyFeatureByDate(ctx context.Context, db *sql.DB, userID string, day time.Time) (*DailyFeature, error) {
	row := db.QueryRowContext(ctx, `
	SELECT `+dailyFeatureColumns+`
	FROM daily_features
	WHERE user_id = ? AND date = ?`, userID, day)
	f, err := scanDailyFeature(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

// GetRecentDailyFeatures returns the most recent `limit` rows ordered by date
// descending. Gaps in the underlying data are not backfilled, so the rows may
// span more calendar days than `limit`.
func GetRecentDailyFeatures(ctx context.Context, db *sql.DB, userID string, limit int) ([]DailyFeature, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT `+dailyFeatureColumns+`
	FROM daily_features
	WHERE user_id = ?
	ORDER BY date DESC
	LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var features []DailyFeature
	for rows.Next() {
		f, err := scanDailyFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, *f)
	}
	return features, rows.Err()
}
