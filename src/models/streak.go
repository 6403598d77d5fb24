package models

import (
	"context"
	"database/sql"
)

// MotivationStreak tracks a user's sustained positive behavior, one row per
// streak type.
type MotivationStreak struct {
	ID            string
	UserID        string
	StreakType    string
	CurrentStreak sql.NullInt64
	LongestStreak sql.NullInt64
	NextMilestone sql.NullInt64
	IsActive      bool
}

// GetActiveStreaks returns all currently active streaks for the user.
func GetActiveStreaks(ctx context.Context, db *sql.DB, userID string) ([]MotivationStreak, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT id, user_id, streak_type, current_streak, longest_streak, next_milestone, is_active
	FROM motivation_streaks
	WHERE user_id = ? AND is_active = 1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var streaks []MotivationStreak
	for rows.Next() {
		var s MotivationStreak
		err := rows.Scan(&s.ID, &s.UserID, &s.StreakType, &s.CurrentStreak, &s.LongestStreak, &s.NextMilestone, &s.IsActive)
		if err != nil {
			return nil, err
		}
		streaks = append(streaks, s)
	}
	return streaks, rows.Err()
}
