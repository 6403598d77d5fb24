package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// FinancialInsights is the flat analysis record written by the upstream ML
// pipeline, one row per (user, analysisDate). It is read-only here and passed
// through mostly unchanged.
type FinancialInsights struct {
	ID                        string
	UserID                    string
	AnalysisDate              sql.NullTime
	AnalysisPeriodDays        sql.NullInt64
	AvgDailyIncome            sql.NullFloat64
	AvgDailyExpense           sql.NullFloat64
	AvgDailySavings           sql.NullFloat64
	SavingsRate               sql.NullFloat64
	TotalSavingsLast30Days    sql.NullFloat64
	IncomeStability           sql.NullString
	IncomeStabilityScore      sql.NullFloat64
	ExpenseStability          sql.NullString
	TopExpenseCategory        sql.NullString
	TopExpenseCategoryAmount  sql.NullFloat64
	TopExpenseCategoryPercent sql.NullFloat64
	UnnecessarySpendingAmount sql.NullFloat64
	AvgDailyBalance           sql.NullFloat64
	LowestBalance             sql.NullFloat64
	LowestBalanceDate         sql.NullTime
	DaysWithNegativeCashflow  sql.NullInt64
	DaysWithLowBalance        sql.NullInt64
	CashCrunchRisk            sql.NullString
	ImpulsivePurchases        sql.NullInt64
	SpendingPatternType       sql.NullString
	AverageTransactionSize    sql.NullFloat64
	HighValueTransactions     sql.NullInt64
	OverallRiskLevel          sql.NullString
	RiskScore                 sql.NullFloat64
	RiskFactors               []string
	Strengths                 []string
	Weaknesses                []string
	RecommendedDailySavings   sql.NullFloat64
	RecommendedEmergencyFund  sql.NullFloat64
	MonthsToEmergencyFund     sql.NullFloat64
	SpendingPeakDay           sql.NullString
	SpendingPeakTime          sql.NullString
	BudgetAdherence           sql.NullFloat64
	PredictedShortfallDays    sql.NullInt64
	PredictedShortfallAmount  sql.NullFloat64
	NextLowBalanceDate        sql.NullTime
	FinancialHealthGrade      sql.NullString
	InsightsSummary           sql.NullString
}

// GetLatestFinancialInsights returns the user's most recent analysis record,
// or nil when none exists.
func GetLatestFinancialInsights(ctx context.Context, db *sql.DB, userID string) (*FinancialInsights, error) {
	row := db.QueryRowContext(ctx, `
	SELECT id, user_id, analysis_date, analysis_period_days,
	       avg_daily_income, avg_daily_expense, avg_daily_savings, savings_rate,
	       total_savings_last30_days, income_stability, income_stability_score,
	       expense_stability, top_expense_category, top_expense_category_amount,
	       top_expense_category_percent, unnecessary_spending_amount,
	       avg_daily_balance, lowest_balance, lowest_balance_date,
	       days_with_negative_cashflow, days_with_low_balance, cash_crunch_risk,
	       impulsive_purchases, spending_pattern_type, average_transaction_size,
	       high_value_transactions, overall_risk_level, risk_score,
	       risk_factors, strengths, weaknesses,
	       recommended_daily_savings, recommended_emergency_fund, months_to_emergency_fund,
	       spending_peak_day, spending_peak_time, budget_adherence,
	       predicted_shortfall_days, predicted_shortfall_amount, next_low_balance_date,
	       financial_health_grade, insights_summary
	FROM user_financial_insights
	WHERE user_id = ?
	ORDER BY analysis_date DESC
	LIMIT 1`, userID)

	var r FinancialInsights
	var riskFactors, strengths, weaknesses sql.NullString
	err := row.Scan(
		&r.ID, &r.UserID, &r.AnalysisDate, &r.AnalysisPeriodDays,
		&r.AvgDailyIncome, &r.AvgDailyExpense, &r.AvgDailySavings, &r.SavingsRate,
		&r.TotalSavingsLast30Days, &r.IncomeStability, &r.IncomeStabilityScore,
		&r.ExpenseStability, &r.TopExpenseCategory, &r.TopExpenseCategoryAmount,
		&r.TopExpenseCategoryPercent, &r.UnnecessarySpendingAmount,
		&r.AvgDailyBalance, &r.LowestBalance, &r.LowestBalanceDate,
		&r.DaysWithNegativeCashflow, &r.DaysWithLowBalance, &r.CashCrunchRisk,
		&r.ImpulsivePurchases, &r.SpendingPatternType, &r.AverageTransactionSize,
		&r.HighValueTransactions, &r.OverallRiskLevel, &r.RiskScore,
		&riskFactors, &strengths, &weaknesses,
		&r.RecommendedDailySavings, &r.RecommendedEmergencyFund, &r.MonthsToEmergencyFund,
		&r.SpendingPeakDay, &r.SpendingPeakTime, &r.BudgetAdherence,
		&r.PredictedShortfallDays, &r.PredictedShortfallAmount, &r.NextLowBalanceDate,
		&r.FinancialHealthGrade, &r.InsightsSummary,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.RiskFactors = decodeStringList(riskFactors)
	r.Strengths = decodeStringList(strengths)
	r.Weaknesses = decodeStringList(weaknesses)
	return &r, nil
}

// decodeStringList unmarshals a JSON array column, treating NULL or malformed
// values as an empty list.
func decodeStringList(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(col.String), &list); err != nil {
		return []string{}
	}
	return list
}
