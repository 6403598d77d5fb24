package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/nuofunds/backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func ni(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func nt(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func day(offset int) time.Time {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestMergeForecastWindow_AlwaysSevenEntries(t *testing.T) {
	today := day(0)

	tests := []struct {
		name       string
		income     []models.IncomeForecast
		expense    []models.ExpenseForecast
		shortfalls []models.Shortfall
	}{
		{name: "all series empty"},
		{
			name: "partial coverage",
			income: []models.IncomeForecast{
				{ForecastDate: day(0), PredictedIncome: nf(100)},
				{ForecastDate: day(3), PredictedIncome: nf(250)},
			},
			shortfalls: []models.Shortfall{
				{ForecastDate: day(5), PredictedShortfall: nf(40), RiskLevel: "HIGH"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries := mergeForecastWindow(today, tc.income, tc.expense, tc.shortfalls)
			require.Len(t, entries, 7)
			for i, entry := range entries {
				assert.Equal(t, today.AddDate(0, 0, i).Format(time.RFC3339), entry.Date)
			}
		})
	}
}

func TestMergeForecastWindow_ZeroFillAndDefaultRisk(t *testing.T) {
	entries := mergeForecastWindow(day(0), nil, nil, nil)

	require.Len(t, entries, 7)
	for _, entry := range entries {
		assert.Zero(t, entry.PredictedIncome)
		assert.Zero(t, entry.PredictedExpense)
		assert.Zero(t, entry.PredictedShortfall)
		assert.Equal(t, "LOW", entry.RiskLevel)
	}
}

func TestMergeForecastWindow_MergesByDay(t *testing.T) {
	income := []models.IncomeForecast{
		{ForecastDate: day(2), PredictedIncome: nf(500)},
	}
	expense := []models.ExpenseForecast{
		{ForecastDate: day(2), Category: "food", PredictedExpense: nf(120)},
	}
	shortfalls := []models.Shortfall{
		{ForecastDate: day(2), PredictedShortfall: nf(30), RiskLevel: "MEDIUM"},
	}

	entries := mergeForecastWindow(day(0), income, expense, shortfalls)

	require.Len(t, entries, 7)
	merged := entries[2]
	assert.Equal(t, 500.0, merged.PredictedIncome)
	assert.Equal(t, 120.0, merged.PredictedExpense)
	assert.Equal(t, 30.0, merged.PredictedShortfall)
	assert.Equal(t, "MEDIUM", merged.RiskLevel)

	// Days the series never mention stay zero-filled.
	assert.Zero(t, entries[1].PredictedIncome)
	assert.Equal(t, "LOW", entries[1].RiskLevel)
}

func TestMergeForecastWindow_FirstPointPerDayWins(t *testing.T) {
	income := []models.IncomeForecast{
		{ForecastDate: day(1), PredictedIncome: nf(100)},
		{ForecastDate: day(1), PredictedIncome: nf(999)},
	}

	entries := mergeForecastWindow(day(0), income, nil, nil)

	assert.Equal(t, 100.0, entries[1].PredictedIncome)
}

func TestMergeForecastWindow_IgnoresTimeOfDay(t *testing.T) {
	noon := day(4).Add(12 * time.Hour)
	income := []models.IncomeForecast{
		{ForecastDate: noon, PredictedIncome: nf(75)},
	}

	entries := mergeForecastWindow(day(0), income, nil, nil)

	assert.Equal(t, 75.0, entries[4].PredictedIncome)
}

func TestRiskRank_SeverityOrdering(t *testing.T) {
	assert.Greater(t, riskRank("MEDIUM"), riskRank("LOW"))
	assert.Greater(t, riskRank("HIGH"), riskRank("MEDIUM"))
	assert.Greater(t, riskRank("CRITICAL"), riskRank("HIGH"))
	assert.Less(t, riskRank("unknown"), riskRank("LOW"))
	assert.Less(t, riskRank(""), riskRank("LOW"))
}

func TestSummarizeForecast_NilWhenAllSeriesEmpty(t *testing.T) {
	assert.Nil(t, summarizeForecast(nil, nil, nil, day(0), day(6)))
}

func TestSummarizeForecast_SumsSeries(t *testing.T) {
	income := []models.IncomeForecast{
		{ForecastDate: day(0), PredictedIncome: nf(100)},
		{ForecastDate: day(1), PredictedIncome: nf(200)},
	}
	expense := []models.ExpenseForecast{
		{ForecastDate: day(0), PredictedExpense: nf(80)},
	}
	shortfalls := []models.Shortfall{
		{ForecastDate: day(3), PredictedShortfall: nf(25), RiskLevel: "LOW"},
		{ForecastDate: day(4), PredictedShortfall: nf(10), RiskLevel: "LOW"},
	}

	summary := summarizeForecast(income, expense, shortfalls, day(0), day(6))

	require.NotNil(t, summary)
	assert.Equal(t, 300.0, summary.PredictedIncome)
	assert.Equal(t, 80.0, summary.PredictedExpense)
	assert.Equal(t, 35.0, summary.PredictedShortfall)
	assert.Equal(t, day(0).Format(time.RFC3339), summary.FromDate)
	assert.Equal(t, day(6).Format(time.RFC3339), summary.ToDate)
}

func TestSummarizeForecast_HighestRiskDayBySeverity(t *testing.T) {
	// HIGH must beat MEDIUM even though "MEDIUM" sorts after "HIGH"
	// lexicographically.
	shortfalls := []models.Shortfall{
		{ForecastDate: day(1), PredictedShortfall: nf(5), RiskLevel: "MEDIUM"},
		{ForecastDate: day(2), PredictedShortfall: nf(5), RiskLevel: "HIGH"},
		{ForecastDate: day(3), PredictedShortfall: nf(5), RiskLevel: "LOW"},
	}

	summary := summarizeForecast(nil, nil, shortfalls, day(0), day(6))

	require.NotNil(t, summary)
	require.NotNil(t, summary.HighestRiskDay)
	assert.Equal(t, "HIGH", summary.HighestRiskDay.RiskLevel)
	assert.Equal(t, day(2).Format(time.RFC3339), summary.HighestRiskDay.Date)
}

func TestSummarizeForecast_FirstOfEqualRankWins(t *testing.T) {
	shortfalls := []models.Shortfall{
		{ForecastDate: day(1), PredictedShortfall: nf(5), RiskLevel: "HIGH"},
		{ForecastDate: day(4), PredictedShortfall: nf(50), RiskLevel: "HIGH"},
	}

	summary := summarizeForecast(nil, nil, shortfalls, day(0), day(6))

	require.NotNil(t, summary.HighestRiskDay)
	assert.Equal(t, day(1).Format(time.RFC3339), summary.HighestRiskDay.Date)
}

func classified(category string, amount float64, when time.Time, isIncome bool) models.ClassifiedTransaction {
	return models.ClassifiedTransaction{
		Category:      category,
		IsIncome:      isIncome,
		TransactionID: sql.NullString{String: "txn", Valid: true},
		Amount:        nf(amount),
		Date:          nt(when),
	}
}

func TestAggregateExpenses_SkipsUnlinkedIncomeAndOutOfWindow(t *testing.T) {
	today := day(0)
	windowStart := today.AddDate(0, 0, -30)

	records := []models.ClassifiedTransaction{
		classified("food", 100, day(-5), false),
		classified("salary", 5000, day(-5), true),
		classified("food", 999, day(-45), false),
		classified("travel", 999, day(2), false),
		{Category: "orphaned", Amount: nf(50), Date: nt(day(-3))},
	}

	summary := aggregateExpenses(records, windowStart, today)

	require.NotNil(t, summary)
	assert.Equal(t, 100.0, summary.TotalExpense)
	require.Len(t, summary.TopCategories, 1)
	assert.Equal(t, "food", summary.TopCategories[0].Category)
}

func TestAggregateExpenses_NilWhenNothingSpent(t *testing.T) {
	today := day(0)
	windowStart := today.AddDate(0, 0, -30)

	assert.Nil(t, aggregateExpenses(nil, windowStart, today))

	onlyIncome := []models.ClassifiedTransaction{
		classified("salary", 5000, day(-2), true),
	}
	assert.Nil(t, aggregateExpenses(onlyIncome, windowStart, today))
}

func TestAggregateExpenses_TopFiveAndPercentages(t *testing.T) {
	today := day(0)
	windowStart := today.AddDate(0, 0, -30)

	records := []models.ClassifiedTransaction{
		classified("food", 400, day(-1), false),
		classified("travel", 300, day(-2), false),
		classified("rent", 150, day(-3), false),
		classified("fuel", 80, day(-4), false),
		classified("fun", 40, day(-5), false),
		classified("books", 20, day(-6), false),
		classified("misc", 10, day(-7), false),
	}

	summary := aggregateExpenses(records, windowStart, today)

	require.NotNil(t, summary)
	assert.Equal(t, "30d", summary.Period)
	assert.Equal(t, 1000.0, summary.TotalExpense)
	require.Len(t, summary.TopCategories, 5)
	assert.Equal(t, "food", summary.TopCategories[0].Category)
	assert.InDelta(t, 40.0, summary.TopCategories[0].Percent, 1e-9)
	assert.Equal(t, "fun", summary.TopCategories[4].Category)
	// Percentages are of the full window total, not just the top 5.
	assert.InDelta(t, 4.0, summary.TopCategories[4].Percent, 1e-9)
}

func TestAggregateExpenses_EmptyCategoryBecomesOther(t *testing.T) {
	today := day(0)
	windowStart := today.AddDate(0, 0, -30)

	records := []models.ClassifiedTransaction{
		classified("", 60, day(-1), false),
		classified("", 40, day(-2), false),
	}

	summary := aggregateExpenses(records, windowStart, today)

	require.NotNil(t, summary)
	require.Len(t, summary.TopCategories, 1)
	assert.Equal(t, "Other", summary.TopCategories[0].Category)
	assert.Equal(t, 100.0, summary.TopCategories[0].Amount)
}

func TestSummarizeStreaks_SavingsTypeWins(t *testing.T) {
	streaks := []models.MotivationStreak{
		{StreakType: "budget", CurrentStreak: ni(50), LongestStreak: ni(60)},
		{StreakType: "savings", CurrentStreak: ni(3), LongestStreak: ni(10), NextMilestone: ni(7)},
	}

	summary := summarizeStreaks(streaks)

	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.TotalActiveStreaks)
	require.NotNil(t, summary.TopStreak)
	assert.Equal(t, "savings", summary.TopStreak.StreakType)
	assert.Equal(t, int64(3), summary.TopStreak.CurrentStreak)
	require.NotNil(t, summary.TopStreak.NextMilestone)
	assert.Equal(t, int64(7), *summary.TopStreak.NextMilestone)
}

func TestSummarizeStreaks_HighestCurrentStreakOtherwise(t *testing.T) {
	streaks := []models.MotivationStreak{
		{StreakType: "budget", CurrentStreak: ni(5), LongestStreak: ni(9)},
		{StreakType: "no-spend", CurrentStreak: ni(12), LongestStreak: ni(12)},
		{StreakType: "tracking", CurrentStreak: ni(12), LongestStreak: ni(20)},
	}

	summary := summarizeStreaks(streaks)

	require.NotNil(t, summary.TopStreak)
	// Ties keep input order.
	assert.Equal(t, "no-spend", summary.TopStreak.StreakType)
	assert.Equal(t, int64(12), summary.TopStreak.CurrentStreak)
}

func TestSummarizeStreaks_NilWhenEmpty(t *testing.T) {
	assert.Nil(t, summarizeStreaks(nil))
}

func TestBuildDailySummary(t *testing.T) {
	assert.Nil(t, buildDailySummary(nil))

	feature := &models.DailyFeature{
		Date:         day(0),
		TotalIncome:  nf(1000),
		TotalExpense: nf(400),
		NetAmount:    nf(600),
	}
	summary := buildDailySummary(feature)

	require.NotNil(t, summary)
	assert.Equal(t, day(0).Format(time.RFC3339), summary.Date)
	assert.Equal(t, 600.0, summary.NetAmount)
	// Unknown closing balance stays null, it is not coerced to zero.
	assert.Nil(t, summary.ClosingBalance)

	feature.ClosingBalance = nf(0)
	summary = buildDailySummary(feature)
	require.NotNil(t, summary.ClosingBalance)
	assert.Equal(t, 0.0, *summary.ClosingBalance)
}

func TestSummarizeInsights_DefaultsAndPassthrough(t *testing.T) {
	assert.Nil(t, summarizeInsights(nil))

	record := &models.FinancialInsights{
		AnalysisDate:         nt(day(-1)),
		AvgDailyIncome:       nf(800),
		AvgDailyExpense:      nf(500),
		SavingsRate:          nf(0.375),
		FinancialHealthGrade: sql.NullString{String: "B", Valid: true},
	}

	summary := summarizeInsights(record)

	require.NotNil(t, summary)
	// Missing period falls back to the standard 30-day analysis window.
	assert.Equal(t, int64(30), summary.AnalysisPeriodDays)
	assert.Equal(t, 800.0, summary.AvgDailyIncome)
	require.NotNil(t, summary.FinancialHealthGrade)
	assert.Equal(t, "B", *summary.FinancialHealthGrade)
	assert.Nil(t, summary.OverallRiskLevel)
}

func TestStartOfDayAndDayKey(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2026, 3, 10, 1, 30, 0, 0, ist)

	normalized := startOfDay(local)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), normalized)
	assert.Equal(t, "2026-03-09", dayKey(local))
}
