package services

import (
	"context"
	"errors"
)

// ErrUpstreamFailed marks a failed request to a companion service.
var ErrUpstreamFailed = errors.New("upstream service request failed")

// DailySummary is the "today" card on the home screen. Nil when no aggregate
// row exists for exactly today.
type DailySummary struct {
	Date           string   `json:"date"`
	TotalIncome    float64  `json:"totalIncome"`
	TotalExpense   float64  `json:"totalExpense"`
	NetAmount      float64  `json:"netAmount"`
	ClosingBalance *float64 `json:"closingBalance"`
}

type HighestRiskDay struct {
	Date      string `json:"date"`
	RiskLevel string `json:"riskLevel"`
}

// ForecastSummary aggregates the three forecast series over the 7-day window.
type ForecastSummary struct {
	FromDate           string          `json:"fromDate"`
	ToDate             string          `json:"toDate"`
	PredictedIncome    float64         `json:"predictedIncome"`
	PredictedExpense   float64         `json:"predictedExpense"`
	PredictedShortfall float64         `json:"predictedShortfall"`
	HighestRiskDay     *HighestRiskDay `json:"highestRiskDay"`
}

type CategoryBreakdown struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Percent  float64 `json:"percent"`
}

// ExpenseSummary is the 30-day spending breakdown. Nil when the window total
// is zero (no spending is distinguishable from no data only by the caller).
type ExpenseSummary struct {
	Period        string              `json:"period"`
	TotalExpense  float64             `json:"totalExpense"`
	TopCategories []CategoryBreakdown `json:"topCategories"`
}

type ActionCardView struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	Priority        string   `json:"priority"`
	Category        *string  `json:"category"`
	ExpectedSavings *float64 `json:"expectedSavings"`
	DaysUntilImpact *int64   `json:"daysUntilImpact"`
}

type TopStreak struct {
	StreakType    string `json:"streakType"`
	CurrentStreak int64  `json:"currentStreak"`
	LongestStreak int64  `json:"longestStreak"`
	NextMilestone *int64 `json:"nextMilestone"`
}

type StreakSummary struct {
	TotalActiveStreaks int        `json:"totalActiveStreaks"`
	TopStreak          *TopStreak `json:"topStreak,omitempty"`
}

// InsightsSummary is the dashboard's condensed view of the latest analysis.
type InsightsSummary struct {
	AnalysisDate           *string `json:"analysisDate"`
	AnalysisPeriodDays     int64   `json:"analysisPeriodDays"`
	AvgDailyIncome         float64 `json:"avgDailyIncome"`
	AvgDailyExpense        float64 `json:"avgDailyExpense"`
	SavingsRate            float64 `json:"savingsRate"`
	TotalSavingsLast30Days float64 `json:"totalSavingsLast30Days"`
	FinancialHealthGrade   *string `json:"financialHealthGrade"`
	OverallRiskLevel       *string `json:"overallRiskLevel"`
	InsightsSummary        *string `json:"insightsSummary"`
}

// DashboardResult is the composite home-screen response. Every section is
// optional; a missing section means no underlying data, never an error.
type DashboardResult struct {
	DailySummary      *DailySummary    `json:"dailySummary"`
	ForecastSummary   *ForecastSummary `json:"forecastSummary"`
	ExpenseSummary    *ExpenseSummary  `json:"expenseSummary"`
	ActionCards       []ActionCardView `json:"actionCards"`
	StreakSummary     *StreakSummary   `json:"streakSummary"`
	FinancialInsights *InsightsSummary `json:"financialInsights"`
}

type DailyPoint struct {
	Date             string   `json:"date"`
	TotalIncome      float64  `json:"totalIncome"`
	TotalExpense     float64  `json:"totalExpense"`
	NetAmount        float64  `json:"netAmount"`
	ClosingBalance   *float64 `json:"closingBalance"`
	TransactionCount int64    `json:"transactionCount"`
}

// DailyDetailsResult carries the chart points in ascending date order. Days is
// the actual row count returned, which may be below the requested cap.
type DailyDetailsResult struct {
	Days   int          `json:"days"`
	Points []DailyPoint `json:"points"`
}

type ForecastEntry struct {
	Date               string  `json:"date"`
	PredictedIncome    float64 `json:"predictedIncome"`
	PredictedExpense   float64 `json:"predictedExpense"`
	PredictedShortfall float64 `json:"predictedShortfall"`
	RiskLevel          string  `json:"riskLevel"`
}

// ForecastDetailsResult always covers exactly 7 consecutive days starting today.
type ForecastDetailsResult struct {
	Days    int             `json:"days"`
	Entries []ForecastEntry `json:"entries"`
}

// InsightsDetail is the full flat passthrough of the latest analysis record.
type InsightsDetail struct {
	ID                        string   `json:"id"`
	AnalysisDate              *string  `json:"analysisDate"`
	AnalysisPeriodDays        int64    `json:"analysisPeriodDays"`
	AvgDailyIncome            float64  `json:"avgDailyIncome"`
	AvgDailyExpense           float64  `json:"avgDailyExpense"`
	AvgDailySavings           float64  `json:"avgDailySavings"`
	SavingsRate               float64  `json:"savingsRate"`
	TotalSavingsLast30Days    float64  `json:"totalSavingsLast30Days"`
	IncomeStability           *string  `json:"incomeStability"`
	IncomeStabilityScore      float64  `json:"incomeStabilityScore"`
	ExpenseStability          *string  `json:"expenseStability"`
	TopExpenseCategory        *string  `json:"topExpenseCategory"`
	TopExpenseCategoryAmount  float64  `json:"topExpenseCategoryAmount"`
	TopExpenseCategoryPercent float64  `json:"topExpenseCategoryPercent"`
	UnnecessarySpendingAmount float64  `json:"unnecessarySpendingAmount"`
	AvgDailyBalance           float64  `json:"avgDailyBalance"`
	LowestBalance             float64  `json:"lowestBalance"`
	LowestBalanceDate         *string  `json:"lowestBalanceDate"`
	DaysWithNegativeCashflow  int64    `json:"daysWithNegativeCashflow"`
	DaysWithLowBalance        int64    `json:"daysWithLowBalance"`
	CashCrunchRisk            *string  `json:"cashCrunchRisk"`
	ImpulsivePurchases        int64    `json:"impulsivePurchases"`
	SpendingPatternType       *string  `json:"spendingPatternType"`
	AverageTransactionSize    float64  `json:"averageTransactionSize"`
	HighValueTransactions     int64    `json:"highValueTransactions"`
	OverallRiskLevel          *string  `json:"overallRiskLevel"`
	RiskScore                 float64  `json:"riskScore"`
	RiskFactors               []string `json:"riskFactors"`
	Strengths                 []string `json:"strengths"`
	Weaknesses                []string `json:"weaknesses"`
	RecommendedDailySavings   float64  `json:"recommendedDailySavings"`
	RecommendedEmergencyFund  float64  `json:"recommendedEmergencyFund"`
	MonthsToEmergencyFund     float64  `json:"monthsToEmergencyFund"`
	SpendingPeakDay           *string  `json:"spendingPeakDay"`
	SpendingPeakTime          *string  `json:"spendingPeakTime"`
	BudgetAdherence           float64  `json:"budgetAdherence"`
	PredictedShortfallDays    int64    `json:"predictedShortfallDays"`
	PredictedShortfallAmount  float64  `json:"predictedShortfallAmount"`
	NextLowBalanceDate        *string  `json:"nextLowBalanceDate"`
	FinancialHealthGrade      *string  `json:"financialHealthGrade"`
	InsightsSummary           *string  `json:"insightsSummary"`
}

// DashboardService composes the read-and-reshape endpoints backing the app's
// home screen and detail charts.
type DashboardService interface {
	GetDashboard(ctx context.Context, userID string) (*DashboardResult, error)
	GetDailyDetails(ctx context.Context, userID string, limit int) (*DailyDetailsResult, error)
	GetForecastDetails(ctx context.Context, userID string) (*ForecastDetailsResult, error)
	GetLatestInsights(ctx context.Context, userID string) (*InsightsDetail, error)
}
