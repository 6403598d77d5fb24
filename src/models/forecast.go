package models

import (
	"context"
	"database/sql"
	"time"
)

// The three forecast series are maintained independently by the analytics
// pipeline. A given day may be present in any subset of them.

type IncomeForecast struct {
	ID              string
	UserID          string
	ForecastDate    time.Time
	PredictedIncome sql.NullFloat64
}

type ExpenseForecast struct {
	ID               string
	UserID           string
	ForecastDate     time.Time
	Category         string
	PredictedExpense sql.NullFloat64
}

type Shortfall struct {
	ID                 string
	UserID             string
	ForecastDate       time.Time
	PredictedShortfall sql.NullFloat64
	RiskLevel          string
}

// GetIncomeForecasts returns income forecast points in [from, to], ascending by date.
func GetIncomeForecasts(ctx context.Context, db *sql.DB, userID string, from, to time.Time) ([]IncomeForecast, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT id, user_id, forecast_date, predicted_income
	FROM income_forecasts
	WHERE user_id = ? AND forecast_date >= ? AND forecast_date <= ?
	ORDER BY forecast_date ASC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []IncomeForecast
	for rows.Next() {
		var p IncomeForecast
		if err := rows.Scan(&p.ID, &p.UserID, &p.ForecastDate, &p.PredictedIncome); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetExpenseForecasts returns expense forecast points in [from, to], ascending by date.
func GetExpenseForecasts(ctx context.Context, db *sql.DB, userID string, from, to time.Time) ([]ExpenseForecast, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT id, user_id, forecast_date, category, predicted_expense
	FROM expense_forecasts
	WHERE user_id = ? AND forecast_date >= ? AND forecast_date <= ?
	ORDER BY forecast_date ASC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []ExpenseForecast
	for rows.Next() {
		var p ExpenseForecast
		if err := rows.Scan(&p.ID, &p.UserID, &p.ForecastDate, &p.Category, &p.PredictedExpense); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetShortfalls returns shortfall points in [from, to], ascending by date.
func GetShortfalls(ctx context.Context, db *sql.DB, userID string, from, to time.Time) ([]Shortfall, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT id, user_id, forecast_date, predicted_shortfall, risk_level
	FROM shortfalls
	WHERE user_id = ? AND forecast_date >= ? AND forecast_date <= ?
	ORDER BY forecast_date ASC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Shortfall
	for rows.Next() {
		var p Shortfall
		if err := rows.Scan(&p.ID, &p.UserID, &p.ForecastDate, &p.PredictedShortfall, &p.RiskLevel); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
