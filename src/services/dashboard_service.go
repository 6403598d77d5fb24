package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/nuofunds/backend/src/models"
	"golang.org/x/sync/errgroup"
)

const (
	forecastWindowDays = 7
	expenseWindowDays  = 30
	expensePeriod      = "30d"
	maxActionCards     = 3
	defaultRiskLevel   = "LOW"

	// DefaultDailyLimit caps the daily-details chart when the caller does not
	// provide one. It is a row-count cap, not a day-count window.
	DefaultDailyLimit = 30
)

// riskRank orders shortfall risk levels by severity. Unknown labels rank
// below LOW so they never win the "highest risk day" selection.
func riskRank(level string) int {
	switch level {
	case "LOW":
		return 1
	case "MEDIUM":
		return 2
	case "HIGH":
		return 3
	case "CRITICAL":
		return 4
	default:
		return 0
	}
}

type dashboardService struct {
	db  *sql.DB
	now func() time.Time
}

func NewDashboardService(db *sql.DB) DashboardService {
	return &dashboardService{db: db, now: time.Now}
}

// startOfDay truncates to midnight UTC. Forecast and daily-aggregate rows are
// keyed by date-only values, so all window anchors normalize here first.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *dashboardService) GetDashboard(ctx context.Context, userID string) (*DashboardResult, error) {
	now := s.now().UTC()
	today := startOfDay(now)
	windowStart := now.AddDate(0, 0, -expenseWindowDays)
	forecastEnd := today.AddDate(0, 0, forecastWindowDays-1)

	var (
		daily      *models.DailyFeature
		income     []models.IncomeForecast
		expense    []models.ExpenseForecast
		shortfalls []models.Shortfall
		classified []models.ClassifiedTransaction
		cards      []models.ActionCard
		streaks    []models.MotivationStreak
		insights   *models.FinancialInsights
	)

	// The six reads are independent; run them as a fan-out on the group
	// context so the first data-access fault cancels the in-flight siblings.
	// Empty data is never an error.
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		daily, err = models.GetDailyFeatureByDate(ctx, s.db, userID, today)
		return err
	})
	g.Go(func() error {
		var err error
		if income, err = models.GetIncomeForecasts(ctx, s.db, userID, today, forecastEnd); err != nil {
			return err
		}
		if expense, err = models.GetExpenseForecasts(ctx, s.db, userID, today, forecastEnd); err != nil {
			return err
		}
		shortfalls, err = models.GetShortfalls(ctx, s.db, userID, today, forecastEnd)
		return err
	})
	g.Go(func() error {
		var err error
		classified, err = models.GetClassifiedTransactions(ctx, s.db, userID)
		return err
	})
	g.Go(func() error {
		var err error
		cards, err = models.GetPendingActionCards(ctx, s.db, userID, maxActionCards)
		return err
	})
	g.Go(func() error {
		var err error
		streaks, err = models.GetActiveStreaks(ctx, s.db, userID)
		return err
	})
	g.Go(func() error {
		var err error
		insights, err = models.GetLatestFinancialInsights(ctx, s.db, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &DashboardResult{
		DailySummary:      buildDailySummary(daily),
		ForecastSummary:   summarizeForecast(income, expense, shortfalls, today, forecastEnd),
		ExpenseSummary:    aggregateExpenses(classified, windowStart, now),
		ActionCards:       buildActionCards(cards),
		StreakSummary:     summarizeStreaks(streaks),
		FinancialInsights: summarizeInsights(insights),
	}, nil
}

func (s *dashboardService) GetDailyDetails(ctx context.Context, userID string, limit int) (*DailyDetailsResult, error) {
	rows, err := models.GetRecentDailyFeatures(ctx, s.db, userID, limit)
	if err != nil {
		return nil, err
	}

	// Rows come back newest-first; reverse in memory to ascending for charts.
	points := make([]DailyPoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		points = append(points, DailyPoint{
			Date:             r.Date.UTC().Format(time.RFC3339),
			TotalIncome:      r.TotalIncome.Float64,
			TotalExpense:     r.TotalExpense.Float64,
			NetAmount:        r.NetAmount.Float64,
			ClosingBalance:   nullFloatPtr(r.ClosingBalance),
			TransactionCount: r.TransactionCount.Int64,
		})
	}

	return &DailyDetailsResult{
		Days:   len(points),
		Points: points,
	}, nil
}

func (s *dashboardService) GetForecastDetails(ctx context.Context, userID string) (*ForecastDetailsResult, error) {
	today := startOfDay(s.now())
	end := today.AddDate(0, 0, forecastWindowDays-1)

	income, err := models.GetIncomeForecasts(ctx, s.db, userID, today, end)
	if err != nil {
		return nil, err
	}
	expense, err := models.GetExpenseForecasts(ctx, s.db, userID, today, end)
	if err != nil {
		return nil, err
	}
	shortfalls, err := models.GetShortfalls(ctx, s.db, userID, today, end)
	if err != nil {
		return nil, err
	}

	entries := mergeForecastWindow(today, income, expense, shortfalls)
	return &ForecastDetailsResult{
		Days:    len(entries),
		Entries: entries,
	}, nil
}

func (s *dashboardService) GetLatestInsights(ctx context.Context, userID string) (*InsightsDetail, error) {
	record, err := models.GetLatestFinancialInsights(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return buildInsightsDetail(record), nil
}

// mergeForecastWindow combines the three independent series into one unified
// timeline: exactly one entry per calendar day of the window, zero-filled
// where a series has no data. Each series is keyed by calendar day up front;
// the first point of a day wins when duplicates exist.
func mergeForecastWindow(today time.Time, income []models.IncomeForecast, expense []models.ExpenseForecast, shortfalls []models.Shortfall) []ForecastEntry {
	incomeByDay := make(map[string]models.IncomeForecast, len(income))
	for _, p := range income {
		key := dayKey(p.ForecastDate)
		if _, ok := incomeByDay[key]; !ok {
			incomeByDay[key] = p
		}
	}
	expenseByDay := make(map[string]models.ExpenseForecast, len(expense))
	for _, p := range expense {
		key := dayKey(p.ForecastDate)
		if _, ok := expenseByDay[key]; !ok {
			expenseByDay[key] = p
		}
	}
	shortfallByDay := make(map[string]models.Shortfall, len(shortfalls))
	for _, p := range shortfalls {
		key := dayKey(p.ForecastDate)
		if _, ok := shortfallByDay[key]; !ok {
			shortfallByDay[key] = p
		}
	}

	entries := make([]ForecastEntry, 0, forecastWindowDays)
	for i := 0; i < forecastWindowDays; i++ {
		date := today.AddDate(0, 0, i)
		key := dayKey(date)

		entry := ForecastEntry{
			Date:      date.Format(time.RFC3339),
			RiskLevel: defaultRiskLevel,
		}
		if p, ok := incomeByDay[key]; ok {
			entry.PredictedIncome = p.PredictedIncome.Float64
		}
		if p, ok := expenseByDay[key]; ok {
			entry.PredictedExpense = p.PredictedExpense.Float64
		}
		if p, ok := shortfallByDay[key]; ok {
			entry.PredictedShortfall = p.PredictedShortfall.Float64
			if p.RiskLevel != "" {
				entry.RiskLevel = p.RiskLevel
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// summarizeForecast sums each series over the window and tracks the single
// highest-risk day. Risk levels compare by explicit severity rank; the first
// point of a given rank wins ties.
func summarizeForecast(income []models.IncomeForecast, expense []models.ExpenseForecast, shortfalls []models.Shortfall, from, to time.Time) *ForecastSummary {
	if len(income) == 0 && len(expense) == 0 && len(shortfalls) == 0 {
		return nil
	}

	summary := &ForecastSummary{
		FromDate: from.Format(time.RFC3339),
		ToDate:   to.Format(time.RFC3339),
	}
	for _, p := range income {
		summary.PredictedIncome += p.PredictedIncome.Float64
	}
	for _, p := range expense {
		summary.PredictedExpense += p.PredictedExpense.Float64
	}
	for _, p := range shortfalls {
		summary.PredictedShortfall += p.PredictedShortfall.Float64
		if summary.HighestRiskDay == nil || riskRank(p.RiskLevel) > riskRank(summary.HighestRiskDay.RiskLevel) {
			summary.HighestRiskDay = &HighestRiskDay{
				Date:      p.ForecastDate.UTC().Format(time.RFC3339),
				RiskLevel: p.RiskLevel,
			}
		}
	}
	return summary
}

// aggregateExpenses groups the user's classified spending inside the window
// by category and ranks the top categories by amount. Records without a
// linked transaction, outside the window, or marked as income are skipped.
// Returns nil when nothing was spent in the window.
func aggregateExpenses(records []models.ClassifiedTransaction, windowStart, today time.Time) *ExpenseSummary {
	byCategory := make(map[string]float64)
	var total float64

	for _, rec := range records {
		if !rec.Linked() || !rec.Date.Valid {
			continue
		}
		txDate := rec.Date.Time
		if txDate.Before(windowStart) || txDate.After(today) {
			continue
		}
		if rec.IsIncome {
			continue
		}

		amt := rec.Amount.Float64
		total += amt
		category := rec.Category
		if category == "" {
			category = "Other"
		}
		byCategory[category] += amt
	}

	if total <= 0 {
		return nil
	}

	categories := make([]CategoryBreakdown, 0, len(byCategory))
	for category, amount := range byCategory {
		categories = append(categories, CategoryBreakdown{Category: category, Amount: amount})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Amount > categories[j].Amount
	})
	if len(categories) > 5 {
		categories = categories[:5]
	}
	for i := range categories {
		categories[i].Percent = categories[i].Amount / total * 100
	}

	return &ExpenseSummary{
		Period:        expensePeriod,
		TotalExpense:  total,
		TopCategories: categories,
	}
}

// summarizeStreaks reduces the active streaks to one representative: the
// "savings" streak when present, else the highest current streak (stable).
func summarizeStreaks(streaks []models.MotivationStreak) *StreakSummary {
	if len(streaks) == 0 {
		return nil
	}

	var best *models.MotivationStreak
	for i := range streaks {
		if streaks[i].StreakType == "savings" {
			best = &streaks[i]
			break
		}
	}
	if best == nil {
		sorted := make([]models.MotivationStreak, len(streaks))
		copy(sorted, streaks)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CurrentStreak.Int64 > sorted[j].CurrentStreak.Int64
		})
		best = &sorted[0]
	}

	return &StreakSummary{
		TotalActiveStreaks: len(streaks),
		TopStreak: &TopStreak{
			StreakType:    best.StreakType,
			CurrentStreak: best.CurrentStreak.Int64,
			LongestStreak: best.LongestStreak.Int64,
			NextMilestone: nullIntPtr(best.NextMilestone),
		},
	}
}

func buildDailySummary(f *models.DailyFeature) *DailySummary {
	if f == nil {
		return nil
	}
	return &DailySummary{
		Date:           f.Date.UTC().Format(time.RFC3339),
		TotalIncome:    f.TotalIncome.Float64,
		TotalExpense:   f.TotalExpense.Float64,
		NetAmount:      f.NetAmount.Float64,
		ClosingBalance: nullFloatPtr(f.ClosingBalance),
	}
}

func buildActionCards(cards []models.ActionCard) []ActionCardView {
	views := make([]ActionCardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, ActionCardView{
			ID:              c.ID,
			Title:           c.Title,
			Message:         c.Message,
			Priority:        c.Priority,
			Category:        nullStringPtr(c.Category),
			ExpectedSavings: nullFloatPtr(c.ExpectedSavings),
			DaysUntilImpact: nullIntPtr(c.DaysUntilImpact),
		})
	}
	return views
}

func summarizeInsights(r *models.FinancialInsights) *InsightsSummary {
	if r == nil {
		return nil
	}
	periodDays := int64(30)
	if r.AnalysisPeriodDays.Valid {
		periodDays = r.AnalysisPeriodDays.Int64
	}
	return &InsightsSummary{
		AnalysisDate:           nullTimePtr(r.AnalysisDate),
		AnalysisPeriodDays:     periodDays,
		AvgDailyIncome:         r.AvgDailyIncome.Float64,
		AvgDailyExpense:        r.AvgDailyExpense.Float64,
		SavingsRate:            r.SavingsRate.Float64,
		TotalSavingsLast30Days: r.TotalSavingsLast30Days.Float64,
		FinancialHealthGrade:   nullStringPtr(r.FinancialHealthGrade),
		OverallRiskLevel:       nullStringPtr(r.OverallRiskLevel),
		InsightsSummary:        nullStringPtr(r.InsightsSummary),
	}
}

func buildInsightsDetail(r *models.FinancialInsights) *InsightsDetail {
	periodDays := int64(30)
	if r.AnalysisPeriodDays.Valid {
		periodDays = r.AnalysisPeriodDays.Int64
	}
	return &InsightsDetail{
		ID:                        r.ID,
		AnalysisDate:              nullTimePtr(r.AnalysisDate),
		AnalysisPeriodDays:        periodDays,
		AvgDailyIncome:            r.AvgDailyIncome.Float64,
		AvgDailyExpense:           r.AvgDailyExpense.Float64,
		AvgDailySavings:           r.AvgDailySavings.Float64,
		SavingsRate:               r.SavingsRate.Float64,
		TotalSavingsLast30Days:    r.TotalSavingsLast30Days.Float64,
		IncomeStability:           nullStringPtr(r.IncomeStability),
		IncomeStabilityScore:      r.IncomeStabilityScore.Float64,
		ExpenseStability:          nullStringPtr(r.ExpenseStability),
		TopExpenseCategory:        nullStringPtr(r.TopExpenseCategory),
		TopExpenseCategoryAmount:  r.TopExpenseCategoryAmount.Float64,
		TopExpenseCategoryPercent: r.TopExpenseCategoryPercent.Float64,
		UnnecessarySpendingAmount: r.UnnecessarySpendingAmount.Float64,
		AvgDailyBalance:           r.AvgDailyBalance.Float64,
		LowestBalance:             r.LowestBalance.Float64,
		LowestBalanceDate:         nullTimePtr(r.LowestBalanceDate),
		DaysWithNegativeCashflow:  r.DaysWithNegativeCashflow.Int64,
		DaysWithLowBalance:        r.DaysWithLowBalance.Int64,
		CashCrunchRisk:            nullStringPtr(r.CashCrunchRisk),
		ImpulsivePurchases:        r.ImpulsivePurchases.Int64,
		SpendingPatternType:       nullStringPtr(r.SpendingPatternType),
		AverageTransactionSize:    r.AverageTransactionSize.Float64,
		HighValueTransactions:     r.HighValueTransactions.Int64,
		OverallRiskLevel:          nullStringPtr(r.OverallRiskLevel),
		RiskScore:                 r.RiskScore.Float64,
		RiskFactors:               r.RiskFactors,
		Strengths:                 r.Strengths,
		Weaknesses:                r.Weaknesses,
		RecommendedDailySavings:   r.RecommendedDailySavings.Float64,
		RecommendedEmergencyFund:  r.RecommendedEmergencyFund.Float64,
		MonthsToEmergencyFund:     r.MonthsToEmergencyFund.Float64,
		SpendingPeakDay:           nullStringPtr(r.SpendingPeakDay),
		SpendingPeakTime:          nullStringPtr(r.SpendingPeakTime),
		BudgetAdherence:           r.BudgetAdherence.Float64,
		PredictedShortfallDays:    r.PredictedShortfallDays.Int64,
		PredictedShortfallAmount:  r.PredictedShortfallAmount.Float64,
		NextLowBalanceDate:        nullTimePtr(r.NextLowBalanceDate),
		FinancialHealthGrade:      nullStringPtr(r.FinancialHealthGrade),
		InsightsSummary:           nullStringPtr(r.InsightsSummary),
	}
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullIntPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTimePtr(v sql.NullTime) *string {
	if !v.Valid {
		return nil
	}
	s := v.Time.UTC().Format(time.RFC3339)
	return &s
}
