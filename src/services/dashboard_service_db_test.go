package services

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testUserID = "user-1"

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	schema, err := os.ReadFile("../../db/migrations/000001_init_schema.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO customers (id, email, password) VALUES (?, ?, ?)`,
		testUserID, "test@example.com", "hash")
	require.NoError(t, err)

	return db
}

func newTestService(db *sql.DB, now time.Time) *dashboardService {
	return &dashboardService{db: db, now: func() time.Time { return now }}
}

func insertDailyFeature(t *testing.T, db *sql.DB, date time.Time, income, expense, net float64, count int64) {
	t.Helper()
	_, err := db.Exec(`
	INSERT INTO daily_features (id, user_id, date, total_income, total_expense, net_amount, transaction_count)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), testUserID, date, income, expense, net, count)
	require.NoError(t, err)
}

func TestGetDailyDetails_AscendingOrderAndRowCap(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db, day(0))

	for i := 0; i < 5; i++ {
		insertDailyFeature(t, db, day(-i), 100, 50, 50, 3)
	}

	result, err := svc.GetDailyDetails(context.Background(), testUserID, 3)
	require.NoError(t, err)

	// The cap selects the 3 newest rows, then the points come back ascending.
	assert.Equal(t, 3, result.Days)
	require.Len(t, result.Points, 3)
	assert.Equal(t, day(-2).Format(time.RFC3339), result.Points[0].Date)
	assert.Equal(t, day(0).Format(time.RFC3339), result.Points[2].Date)
}

func TestGetDailyDetails_FewerRowsThanCap(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db, day(0))

	insertDailyFeature(t, db, day(0), 10, 5, 5, 1)

	result, err := svc.GetDailyDetails(context.Background(), testUserID, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Days)
	require.Len(t, result.Points, 1)
	assert.Equal(t, int64(1), result.Points[0].TransactionCount)
	assert.Nil(t, result.Points[0].ClosingBalance)
}

func TestGetDashboard_EmptySectionsAreNullNotErrors(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db, day(0))

	result, err := svc.GetDashboard(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Nil(t, result.DailySummary)
	assert.Nil(t, result.ForecastSummary)
	assert.Nil(t, result.ExpenseSummary)
	assert.Empty(t, result.ActionCards)
	assert.Nil(t, result.StreakSummary)
	assert.Nil(t, result.FinancialInsights)
}

func TestGetDashboard_DailySummaryMatchesTodayOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db, day(0))

	insertDailyFeature(t, db, day(-1), 999, 999, 0, 9)
	insertDailyFeature(t, db, day(0), 200, 80, 120, 4)

	result, err := svc.GetDashboard(context.Background(), testUserID)
	require.NoError(t, err)

	require.NotNil(t, result.DailySummary)
	assert.Equal(t, 200.0, result.DailySummary.TotalIncome)
	assert.Equal(t, 120.0, result.DailySummary.NetAmount)
}

func TestGetDashboard_ActionCardOrderingAndCap(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db, day(0))

	insert := func(id, title, priority string, urgent int, status string, createdAt time.Time) {
		_, err := db.Exec(`
		INSERT INTO action_cards (id, user_id, priority, title, message, is_urgent, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, testUserID, priority, title, "msg", urgent, status, createdAt)
		require.NoError(t, err)
	}

	insert("c1", "oldest", "medium", 0, "pending", day(-9))
	insert("c2", "urgent", "medium", 1, "pending", day(-8))
	insert("c3", "recent", "medium", 0, "pending", day(-2))
	insert("c4", "newest", "medium", 0, "pending", day(-1))
	insert("c5", "dismissed", "medium", 1, "dismissed", day(0))

	result, err := svc.GetDashboard(context.Background(), testUserID)
	require.NoError(t, err)

	// Urgent first, then newest; the fourth pending card falls off the cap and
	// the dismissed card never appears.
	require.Len(t, result.ActionCards, 3)
	assert.Equal(t, "c2", result.ActionCards[0].ID)
	assert.Equal(t, "c4", result.ActionCards[1].ID)
	assert.Equal(t, "c3", result.ActionCards[2].ID)
}

func TestGetDashboard_ReadFaultFailsWholeComposition(t *testing.T) {
	// Each dropped table breaks a different branch of the fan-out; whichever
	// read hits it, the composition must fail outright with no partial result.
	tables := []string{"daily_features", "shortfalls", "motivation_streaks"}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			db := newTestDB(t)
			svc := newTestService(db, day(0))

			insertDailyFeature(t, db, day(0), 200, 80, 120, 4)
			_, err := db.Exec("DROP TABLE " + table)
			require.NoError(t, err)

			result, err := svc.GetDashboard(context.Background(), testUserID)
			require.Error(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestGetForecastDetails_WindowBounds(t *testing.T) {
	db := newTestDB(t)
	today := day(0)
	svc := newTestService(db, today)

	insertIncome := func(date time.Time, amount float64) {
		_, err := db.Exec(`
		INSERT INTO income_forecasts (id, user_id, forecast_date, predicted_income)
		VALUES (?, ?, ?, ?)`, uuid.New().String(), testUserID, date, amount)
		require.NoError(t, err)
	}

	insertIncome(day(-1), 111) // before the window
	insertIncome(day(0), 100)
	insertIncome(day(6), 50)  // last day inside
	insertIncome(day(7), 999) // past the window

	result, err := svc.GetForecastDetails(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, 7, result.Days)
	require.Len(t, result.Entries, 7)
	assert.Equal(t, 100.0, result.Entries[0].PredictedIncome)
	assert.Equal(t, 50.0, result.Entries[6].PredictedIncome)

	var total float64
	for _, entry := range result.Entries {
		total += entry.PredictedIncome
	}
	assert.Equal(t, 150.0, total)
}

func TestGetLatestInsights_NilWhenNoAnalysisExists(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db, day(0))

	result, err := svc.GetLatestInsights(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGetLatestInsights_PicksNewestAnalysis(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db, day(0))

	insert := func(id string, analysisDate time.Time, grade string, riskFactors string) {
		_, err := db.Exec(`
		INSERT INTO user_financial_insights (id, user_id, analysis_date, financial_health_grade, risk_factors)
		VALUES (?, ?, ?, ?, ?)`, id, testUserID, analysisDate, grade, riskFactors)
		require.NoError(t, err)
	}

	insert("i1", day(-7), "C", `["overspending"]`)
	insert("i2", day(-1), "B", `["low balance","impulse buys"]`)

	result, err := svc.GetLatestInsights(context.Background(), testUserID)
	require.NoError(t, err)

	require.NotNil(t, result)
	assert.Equal(t, "i2", result.ID)
	require.NotNil(t, result.FinancialHealthGrade)
	assert.Equal(t, "B", *result.FinancialHealthGrade)
	assert.Equal(t, []string{"low balance", "impulse buys"}, result.RiskFactors)
	// Absent JSON lists decode to empty, never nil.
	assert.NotNil(t, result.Strengths)
	assert.Empty(t, result.Strengths)
}
